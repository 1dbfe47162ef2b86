package relay

// Stages holds the output of each location stage before attribute
// filtering. Cities is nil when no city was requested; Servers is nil
// when neither explicit servers nor an expansion applied.
type Stages struct {
	Countries []Location
	Cities    []Location
	Servers   []Location
}

// CandidateSet is the resolved rotation: one granularity and its
// ordered, distinct candidates.
type CandidateSet struct {
	Granularity LocationKind
	Items       []Location
	Stages      Stages

	// records are the eligible records inside Items that passed every
	// attribute predicate, in catalog order.
	records []Record
}

// Servers returns the hostnames of every record behind the candidates,
// in catalog order.
func (cs *CandidateSet) Servers() []Location {
	out := make([]Location, 0, len(cs.records))
	for _, r := range cs.records {
		out = append(out, r.Location())
	}
	return out
}

// ServersWithin returns the server candidates lying inside l.
func (cs *CandidateSet) ServersWithin(l Location) []Location {
	var out []Location
	for _, r := range cs.records {
		if l.Contains(r) {
			out = append(out, r.Location())
		}
	}
	return out
}

// Engine applies a ConstraintSet to a Catalog.
type Engine struct {
	catalog     *Catalog
	constraints *ConstraintSet
}

// NewEngine creates a filter engine.
func NewEngine(catalog *Catalog, constraints *ConstraintSet) *Engine {
	return &Engine{catalog: catalog, constraints: constraints}
}

func (e *Engine) fitsCountry(r Record) bool {
	return e.constraints.countries.IsEmpty() || e.constraints.countries.Contains(r.CountryCode)
}

func (e *Engine) fitsCity(r Record) bool {
	return e.constraints.cities.IsEmpty() || e.constraints.cities.Contains(City(r.CountryCode, r.CityCode))
}

func (e *Engine) fitsServer(r Record) bool {
	return e.constraints.servers.IsEmpty() || e.constraints.servers.Contains(r.Hostname)
}

// CountryStage returns the available countries in catalog order.
func (e *Engine) CountryStage() ([]Location, error) {
	var out []Location
	for _, code := range e.catalog.DistinctCountries() {
		if e.constraints.countries.IsEmpty() || e.constraints.countries.Contains(code) {
			out = append(out, Country(code))
		}
	}
	if len(out) == 0 {
		return nil, emptyCandidates(AxisCountry)
	}
	return out, nil
}

// CityStage returns the available requested cities in catalog order,
// or nil when no city was requested.
func (e *Engine) CityStage() ([]Location, error) {
	if e.constraints.cities.IsEmpty() {
		return nil, nil
	}

	out := e.citiesWhere(func(city Location) bool {
		return e.constraints.cities.Contains(city)
	})
	if len(out) == 0 {
		return nil, emptyCandidates(AxisCity)
	}
	return out, nil
}

// citiesWhere returns the catalog's cities that pass the country
// allow-list and keep.
func (e *Engine) citiesWhere(keep func(Location) bool) []Location {
	var out []Location
	for _, city := range e.catalog.DistinctCityPairs() {
		if !e.constraints.countries.IsEmpty() && !e.constraints.countries.Contains(city.CountryCode()) {
			continue
		}
		if keep(city) {
			out = append(out, city)
		}
	}
	return out
}

// ServerStage returns the union of explicitly requested servers and the
// country and city expansions, explicit matches first.
func (e *Engine) ServerStage() ([]Location, error) {
	set := NewOrderedSet[Location]()
	records := e.catalog.RecordsMatching(Record.Eligible)

	if !e.constraints.servers.IsEmpty() {
		for _, r := range records {
			if e.fitsServer(r) && e.fitsCountry(r) && e.fitsCity(r) {
				set.Add(r.Location())
			}
		}
		if set.IsEmpty() {
			return nil, emptyCandidates(AxisServer)
		}
	}

	if e.constraints.flags.CountriesAsServers {
		for _, r := range records {
			if e.fitsCountry(r) {
				set.Add(r.Location())
			}
		}
	}

	if e.constraints.flags.CitiesAsServers && !e.constraints.cities.IsEmpty() {
		for _, r := range records {
			if e.fitsCountry(r) && e.fitsCity(r) {
				set.Add(r.Location())
			}
		}
	}

	return set.Values(), nil
}

// Resolve runs every stage, picks the rotation granularity and narrows
// its candidates with the attribute predicates.
func (e *Engine) Resolve() (*CandidateSet, error) {
	countries, err := e.CountryStage()
	if err != nil {
		return nil, err
	}
	cities, err := e.CityStage()
	if err != nil {
		return nil, err
	}
	servers, err := e.ServerStage()
	if err != nil {
		return nil, err
	}

	set := &CandidateSet{
		Stages: Stages{Countries: countries, Cities: cities, Servers: servers},
	}

	flags := e.constraints.flags
	switch {
	case flags.PickCountry:
		set.Granularity, set.Items = LocationCountry, countries
	case flags.PickCity:
		set.Granularity, set.Items = LocationCity, cities
		if len(cities) == 0 {
			set.Items = e.citiesWhere(func(Location) bool { return true })
			if len(set.Items) == 0 {
				return nil, emptyCandidates(AxisCity)
			}
		}
	case len(servers) > 0:
		set.Granularity, set.Items = LocationServer, servers
	case len(cities) > 0:
		set.Granularity, set.Items = LocationCity, cities
	default:
		set.Granularity, set.Items = LocationCountry, countries
	}

	if err := e.narrow(set); err != nil {
		return nil, err
	}
	return set, nil
}

// entityOf returns the entity of granularity g that r belongs to.
func entityOf(r Record, g LocationKind) Location {
	switch g {
	case LocationCountry:
		return Country(r.CountryCode)
	case LocationCity:
		return City(r.CountryCode, r.CityCode)
	default:
		return r.Location()
	}
}

// narrow applies the attribute predicates to the records behind the
// candidates. An entity survives when one of its records passes every
// predicate.
func (e *Engine) narrow(set *CandidateSet) error {
	members := NewOrderedSet(set.Items...)
	records := e.catalog.RecordsMatching(func(r Record) bool {
		return r.Eligible() && members.Contains(entityOf(r, set.Granularity))
	})

	for _, pred := range e.constraints.Predicates(e.catalog.Providers()) {
		kept := records[:0:0]
		for _, r := range records {
			if pred.Match(r) {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			return emptyCandidates(pred.Axis)
		}
		records = kept
	}

	surviving := NewOrderedSet[Location]()
	for _, r := range records {
		surviving.Add(entityOf(r, set.Granularity))
	}

	items := make([]Location, 0, len(set.Items))
	for _, item := range set.Items {
		if surviving.Contains(item) {
			items = append(items, item)
		}
	}

	set.Items = items
	set.records = records
	return nil
}
