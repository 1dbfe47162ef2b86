package relay

// Kind is the relay type reported by the catalog.
type Kind string

const (
	KindWireGuard Kind = "wireguard"
	KindOpenVPN   Kind = "openvpn"
	KindBridge    Kind = "bridge"
)

// Field identifies a record attribute. Fields combine into a bitmask
// recording which attributes the catalog source supplied.
type Field uint16

const (
	FieldHostname Field = 1 << iota
	FieldCountry
	FieldCity
	FieldKind
	FieldActive
	FieldOwned
	FieldStboot
	FieldProvider
	FieldBandwidth
)

// AllFields is the mask of a fully populated record.
const AllFields = FieldHostname | FieldCountry | FieldCity | FieldKind | FieldActive |
	FieldOwned | FieldStboot | FieldProvider | FieldBandwidth

// locationFields must be present for a record to take part in the
// country, city and server stages.
const locationFields = FieldHostname | FieldCountry | FieldCity | FieldKind | FieldActive

// Record is a single relay from the catalog.
type Record struct {
	Hostname    string
	CountryCode string
	CityCode    string
	Kind        Kind
	Active      bool
	Owned       bool
	Stboot      bool
	Provider    string
	// Bandwidth is the network port speed in Gbit/s.
	Bandwidth int

	// Present records which fields the source supplied.
	Present Field
}

// Has reports whether every field in f was supplied.
func (r Record) Has(f Field) bool {
	return r.Present&f == f
}

// Eligible reports whether the record takes part in location stages:
// all location fields present, not a bridge, and active.
func (r Record) Eligible() bool {
	return r.Has(locationFields) && r.Kind != KindBridge && r.Active
}

// Location returns the server location of the record.
func (r Record) Location() Location {
	return Server(r.Hostname)
}
