package relay

// LocationKind discriminates the variants of Location.
type LocationKind int

const (
	LocationUnknown LocationKind = iota
	LocationCountry
	LocationCity
	LocationServer
)

// String returns the granularity name of the kind.
func (k LocationKind) String() string {
	switch k {
	case LocationCountry:
		return "country"
	case LocationCity:
		return "city"
	case LocationServer:
		return "server"
	default:
		return "unknown"
	}
}

// Location is a country, a city within a country, a single server, or
// unknown. The zero value is Unknown. Locations are comparable with ==.
type Location struct {
	kind     LocationKind
	country  string
	city     string
	hostname string
}

// Unknown is the location used when the current state cannot be determined.
var Unknown = Location{}

// Country returns the location of a whole country.
func Country(code string) Location {
	return Location{kind: LocationCountry, country: code}
}

// City returns the location of a city inside a country.
func City(country, city string) Location {
	return Location{kind: LocationCity, country: country, city: city}
}

// Server returns the location of a single relay.
func Server(hostname string) Location {
	return Location{kind: LocationServer, hostname: hostname}
}

// Kind returns the variant of the location.
func (l Location) Kind() LocationKind { return l.kind }

// CountryCode returns the country code of Country and City locations.
func (l Location) CountryCode() string { return l.country }

// CityCode returns the city code of City locations.
func (l Location) CityCode() string { return l.city }

// Hostname returns the hostname of Server locations.
func (l Location) Hostname() string { return l.hostname }

// IsUnknown reports whether l is Unknown.
func (l Location) IsUnknown() bool { return l.kind == LocationUnknown }

// Contains reports whether the record lies inside the location.
func (l Location) Contains(r Record) bool {
	switch l.kind {
	case LocationCountry:
		return r.Has(FieldCountry) && r.CountryCode == l.country
	case LocationCity:
		return r.Has(FieldCountry|FieldCity) && r.CountryCode == l.country && r.CityCode == l.city
	case LocationServer:
		return r.Has(FieldHostname) && r.Hostname == l.hostname
	default:
		return false
	}
}

// Args returns the location as arguments to the VPN client.
func (l Location) Args() []string {
	switch l.kind {
	case LocationCountry:
		return []string{l.country}
	case LocationCity:
		return []string{l.country, l.city}
	case LocationServer:
		return []string{l.hostname}
	default:
		return nil
	}
}

// String returns the location as it is printed to the user.
func (l Location) String() string {
	switch l.kind {
	case LocationCountry:
		return l.country
	case LocationCity:
		return l.country + " " + l.city
	case LocationServer:
		return l.hostname
	default:
		return "unknown"
	}
}
