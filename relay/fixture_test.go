package relay

func relayRecord(host, country, city string, kind Kind) Record {
	return Record{
		Hostname:    host,
		CountryCode: country,
		CityCode:    city,
		Kind:        kind,
		Active:      true,
		Provider:    "acme",
		Bandwidth:   10,
		Present:     AllFields,
	}
}

// fixtureRecords returns a small catalog with countries us, se, de in
// that first-seen order.
func fixtureRecords() []Record {
	usWG := relayRecord("us-nyc-wg-001", "us", "nyc", KindWireGuard)
	usWG.Owned = true

	usOVPN := relayRecord("us-nyc-ovpn-001", "us", "nyc", KindOpenVPN)
	usOVPN.Provider = "globex"
	usOVPN.Bandwidth = 1

	seGot := relayRecord("se-got-wg-001", "se", "got", KindWireGuard)
	seGot.Provider = "globex"
	seGot.Owned = true
	seGot.Stboot = true

	seSto := relayRecord("se-sto-wg-001", "se", "sto", KindWireGuard)
	seSto.Bandwidth = 1

	deFra := relayRecord("de-fra-wg-001", "de", "fra", KindWireGuard)

	deBridge := relayRecord("de-fra-br-001", "de", "fra", KindBridge)

	seInactive := relayRecord("se-mma-wg-001", "se", "mma", KindWireGuard)
	seInactive.Active = false

	return []Record{usWG, usOVPN, seGot, seSto, deFra, deBridge, seInactive}
}

func fixtureCatalog() *Catalog {
	return NewCatalog(fixtureRecords())
}

func servers(hosts ...string) []Location {
	out := make([]Location, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, Server(h))
	}
	return out
}

func countries(codes ...string) []Location {
	out := make([]Location, 0, len(codes))
	for _, c := range codes {
		out = append(out, Country(c))
	}
	return out
}
