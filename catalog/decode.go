package catalog

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/yllada/mullvad-rotate/common"
	"github.com/yllada/mullvad-rotate/relay"
)

// Decode parses a relay list. The document must be a JSON array; each
// element becomes a record whose Present mask lists the fields that
// were supplied with the expected JSON type.
func Decode(data []byte) ([]relay.Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: relay list is not valid JSON", common.ErrCatalogUnavailable)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: relay list is not a JSON array", common.ErrCatalogUnavailable)
	}

	var records []relay.Record
	root.ForEach(func(_, value gjson.Result) bool {
		if value.IsObject() {
			records = append(records, decodeRecord(value))
		}
		return true
	})
	return records, nil
}

func decodeRecord(v gjson.Result) relay.Record {
	var r relay.Record

	if s, ok := str(v, "hostname"); ok {
		r.Hostname = strings.ToLower(s)
		r.Present |= relay.FieldHostname
	}
	if s, ok := str(v, "country_code"); ok {
		r.CountryCode = strings.ToLower(s)
		r.Present |= relay.FieldCountry
	}
	if s, ok := str(v, "city_code"); ok {
		r.CityCode = strings.ToLower(s)
		r.Present |= relay.FieldCity
	}
	if s, ok := str(v, "type"); ok {
		r.Kind = relay.Kind(strings.ToLower(s))
		r.Present |= relay.FieldKind
	}
	if b, ok := boolean(v, "active"); ok {
		r.Active = b
		r.Present |= relay.FieldActive
	}
	if b, ok := boolean(v, "owned"); ok {
		r.Owned = b
		r.Present |= relay.FieldOwned
	}
	if b, ok := boolean(v, "stboot"); ok {
		r.Stboot = b
		r.Present |= relay.FieldStboot
	}
	if s, ok := str(v, "provider"); ok {
		r.Provider = s
		r.Present |= relay.FieldProvider
	}
	if n := v.Get("network_port_speed"); n.Type == gjson.Number {
		r.Bandwidth = int(n.Int())
		r.Present |= relay.FieldBandwidth
	}
	return r
}

func str(v gjson.Result, key string) (string, bool) {
	f := v.Get(key)
	if f.Type != gjson.String {
		return "", false
	}
	return f.String(), true
}

func boolean(v gjson.Result, key string) (bool, bool) {
	f := v.Get(key)
	if !f.IsBool() {
		return false, false
	}
	return f.Bool(), true
}
