package relay

import (
	"fmt"
	"strings"

	"github.com/yllada/mullvad-rotate/common"
)

// Protocol restricts the tunnel protocol of server candidates.
type Protocol int

const (
	ProtocolAny Protocol = iota
	ProtocolWireGuard
	ProtocolOpenVPN
)

// ParseProtocol parses "any", "wireguard" or "openvpn".
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return ProtocolAny, nil
	case "wireguard":
		return ProtocolWireGuard, nil
	case "openvpn":
		return ProtocolOpenVPN, nil
	}
	return ProtocolAny, fmt.Errorf("%w: unknown tunnel protocol %q", common.ErrInvalidOption, s)
}

func (p Protocol) String() string {
	switch p {
	case ProtocolWireGuard:
		return "wireguard"
	case ProtocolOpenVPN:
		return "openvpn"
	default:
		return "any"
	}
}

// Ownership restricts candidates to owned or rented infrastructure.
type Ownership int

const (
	OwnershipAny Ownership = iota
	OwnershipOwned
	OwnershipRented
)

// ParseOwnership parses "any", "owned" or "rented".
func ParseOwnership(s string) (Ownership, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return OwnershipAny, nil
	case "owned":
		return OwnershipOwned, nil
	case "rented":
		return OwnershipRented, nil
	}
	return OwnershipAny, fmt.Errorf("%w: unknown ownership %q", common.ErrInvalidOption, s)
}

func (o Ownership) String() string {
	switch o {
	case OwnershipOwned:
		return "owned"
	case OwnershipRented:
		return "rented"
	default:
		return "any"
	}
}

// Stboot restricts candidates by diskless boot status.
type Stboot int

const (
	StbootAny Stboot = iota
	StbootTrue
	StbootFalse
)

// ParseStboot parses "any", "true" or "false".
func ParseStboot(s string) (Stboot, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return StbootAny, nil
	case "true":
		return StbootTrue, nil
	case "false":
		return StbootFalse, nil
	}
	return StbootAny, fmt.Errorf("%w: unknown stboot value %q", common.ErrInvalidOption, s)
}

func (s Stboot) String() string {
	switch s {
	case StbootTrue:
		return "true"
	case StbootFalse:
		return "false"
	default:
		return "any"
	}
}

// Flags are the behavior switches of a run.
type Flags struct {
	CountriesAsServers bool
	CitiesAsServers    bool
	Random             bool
	PickCountry        bool
	PickCity           bool
	Verbose            bool
}

// Options is the raw input a ConstraintSet is built from.
type Options struct {
	Countries         []string
	Cities            []Location
	Servers           []string
	Providers         []string
	ExcludedProviders []string
	Protocol          Protocol
	Ownership         Ownership
	Stboot            Stboot
	MinBandwidth      int
	Flags             Flags
}

// ConstraintSet is the resolved, immutable description of user intent.
type ConstraintSet struct {
	countries    *OrderedSet[string]
	cities       *OrderedSet[Location]
	servers      *OrderedSet[string]
	providers    *OrderedSet[string]
	excluded     *OrderedSet[string]
	protocol     Protocol
	ownership    Ownership
	stboot       Stboot
	minBandwidth int
	flags        Flags
}

// NewConstraintSet validates and normalizes o. Country, city and
// hostname values are lowercased; provider names compare case-insensitively.
func NewConstraintSet(o Options) (*ConstraintSet, error) {
	if o.MinBandwidth < 0 {
		return nil, fmt.Errorf("%w: minimum bandwidth must not be negative", common.ErrInvalidOption)
	}
	if o.Flags.PickCountry && o.Flags.PickCity {
		return nil, fmt.Errorf("%w: --pick-country and --pick-city are mutually exclusive", common.ErrInvalidOption)
	}

	cs := &ConstraintSet{
		countries:    normalized(o.Countries),
		cities:       NewOrderedSet[Location](),
		servers:      normalized(o.Servers),
		providers:    normalized(o.Providers),
		excluded:     normalized(o.ExcludedProviders),
		protocol:     o.Protocol,
		ownership:    o.Ownership,
		stboot:       o.Stboot,
		minBandwidth: o.MinBandwidth,
		flags:        o.Flags,
	}

	for _, c := range o.Cities {
		if c.Kind() != LocationCity || c.CountryCode() == "" || c.CityCode() == "" {
			return nil, fmt.Errorf("%w: city constraints need a country and a city code", common.ErrInvalidOption)
		}
		cs.cities.Add(City(strings.ToLower(c.CountryCode()), strings.ToLower(c.CityCode())))
	}

	return cs, nil
}

func normalized(values []string) *OrderedSet[string] {
	set := NewOrderedSet[string]()
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set.Add(v)
		}
	}
	return set
}

// Countries returns the country allow-list.
func (cs *ConstraintSet) Countries() []string { return cs.countries.Values() }

// Cities returns the city allow-list.
func (cs *ConstraintSet) Cities() []Location { return cs.cities.Values() }

// Servers returns the hostname allow-list.
func (cs *ConstraintSet) Servers() []string { return cs.servers.Values() }

// Flags returns the behavior switches.
func (cs *ConstraintSet) Flags() Flags { return cs.flags }

// HasAttributeConstraints reports whether any attribute predicate is active.
func (cs *ConstraintSet) HasAttributeConstraints() bool {
	return !cs.providers.IsEmpty() || !cs.excluded.IsEmpty() ||
		cs.protocol != ProtocolAny || cs.ownership != OwnershipAny ||
		cs.stboot != StbootAny || cs.minBandwidth > 0
}

// EffectiveProviders resolves the provider allow-list against the
// providers seen in the catalog. Without an allow-list every provider in
// universe is allowed; excluded providers are then removed. It returns
// nil when providers are unconstrained.
func (cs *ConstraintSet) EffectiveProviders(universe []string) []string {
	if cs.providers.IsEmpty() && cs.excluded.IsEmpty() {
		return nil
	}

	allowed := cs.providers
	if allowed.IsEmpty() {
		allowed = normalized(universe)
	}

	out := []string{}
	for _, p := range allowed.Values() {
		if !cs.excluded.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}

// Predicate is one attribute check applied to candidate records.
type Predicate struct {
	Axis  Axis
	Match func(Record) bool
}

// Predicates returns the active attribute predicates in evaluation
// order. A record missing the field a predicate needs never matches it.
func (cs *ConstraintSet) Predicates(providerUniverse []string) []Predicate {
	var preds []Predicate

	if providers := cs.EffectiveProviders(providerUniverse); providers != nil {
		allowed := NewOrderedSet(providers...)
		preds = append(preds, Predicate{Axis: AxisProvider, Match: func(r Record) bool {
			return r.Has(FieldProvider) && allowed.Contains(strings.ToLower(r.Provider))
		}})
	}

	if cs.protocol != ProtocolAny {
		want := KindWireGuard
		if cs.protocol == ProtocolOpenVPN {
			want = KindOpenVPN
		}
		preds = append(preds, Predicate{Axis: AxisProtocol, Match: func(r Record) bool {
			return r.Has(FieldKind) && r.Kind == want
		}})
	}

	if cs.ownership != OwnershipAny {
		owned := cs.ownership == OwnershipOwned
		preds = append(preds, Predicate{Axis: AxisOwnership, Match: func(r Record) bool {
			return r.Has(FieldOwned) && r.Owned == owned
		}})
	}

	if cs.stboot != StbootAny {
		stboot := cs.stboot == StbootTrue
		preds = append(preds, Predicate{Axis: AxisStboot, Match: func(r Record) bool {
			return r.Has(FieldStboot) && r.Stboot == stboot
		}})
	}

	if cs.minBandwidth > 0 {
		minimum := cs.minBandwidth
		preds = append(preds, Predicate{Axis: AxisBandwidth, Match: func(r Record) bool {
			return r.Has(FieldBandwidth) && r.Bandwidth >= minimum
		}})
	}

	return preds
}
