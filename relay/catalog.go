package relay

// Catalog is an immutable snapshot of relay records with derived indexes.
type Catalog struct {
	records []Record
	byHost  map[string]int
}

// NewCatalog indexes records. Records without a hostname are kept for
// RecordsMatching but never indexed; for duplicate hostnames the first
// record wins.
func NewCatalog(records []Record) *Catalog {
	c := &Catalog{
		records: make([]Record, 0, len(records)),
		byHost:  make(map[string]int, len(records)),
	}
	for _, r := range records {
		if r.Has(FieldHostname) {
			if _, dup := c.byHost[r.Hostname]; dup {
				continue
			}
			c.byHost[r.Hostname] = len(c.records)
		}
		c.records = append(c.records, r)
	}
	return c
}

// Len returns the number of records in the snapshot.
func (c *Catalog) Len() int { return len(c.records) }

// Records returns a copy of all records in catalog order.
func (c *Catalog) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Lookup returns the record with the given hostname.
func (c *Catalog) Lookup(hostname string) (Record, bool) {
	i, ok := c.byHost[hostname]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// DistinctCountries returns the country codes of eligible records.
func (c *Catalog) DistinctCountries() []string {
	set := NewOrderedSet[string]()
	for _, r := range c.records {
		if r.Eligible() {
			set.Add(r.CountryCode)
		}
	}
	return set.Values()
}

// DistinctCityPairs returns City locations of eligible records.
func (c *Catalog) DistinctCityPairs() []Location {
	set := NewOrderedSet[Location]()
	for _, r := range c.records {
		if r.Eligible() {
			set.Add(City(r.CountryCode, r.CityCode))
		}
	}
	return set.Values()
}

// DistinctHostnames returns the hostnames of eligible records.
func (c *Catalog) DistinctHostnames() []string {
	set := NewOrderedSet[string]()
	for _, r := range c.records {
		if r.Eligible() {
			set.Add(r.Hostname)
		}
	}
	return set.Values()
}

// RecordsMatching returns every record satisfying match, without the
// default bridge and inactive exclusions.
func (c *Catalog) RecordsMatching(match func(Record) bool) []Record {
	var out []Record
	for _, r := range c.records {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Providers returns every provider named in the catalog.
func (c *Catalog) Providers() []string {
	set := NewOrderedSet[string]()
	for _, r := range c.records {
		if r.Has(FieldProvider) && r.Provider != "" {
			set.Add(r.Provider)
		}
	}
	return set.Values()
}

// Project converts a location to the given granularity using the
// catalog to resolve hostnames. It returns Unknown when the location is
// coarser than the requested shape or the hostname is not in the catalog.
func (c *Catalog) Project(l Location, to LocationKind) Location {
	if l.Kind() == LocationServer && to != LocationServer {
		r, ok := c.Lookup(l.Hostname())
		if !ok || !r.Has(FieldCountry|FieldCity) {
			return Unknown
		}
		l = City(r.CountryCode, r.CityCode)
	}

	switch to {
	case LocationCountry:
		if l.Kind() == LocationCountry || l.Kind() == LocationCity {
			return Country(l.CountryCode())
		}
	case LocationCity:
		if l.Kind() == LocationCity {
			return l
		}
	case LocationServer:
		if l.Kind() == LocationServer {
			return l
		}
	}
	return Unknown
}
