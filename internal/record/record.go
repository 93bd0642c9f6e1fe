// Package record holds the two intermediate shapes of a lookup: the raw
// positional value found by the tree search and the decoded, field-named
// record produced from it.
package record

// Raw is the unprocessed result of a tree lookup. Which field carries data
// depends on the database edition: country and region editions resolve to a
// position relative to the edition's segment base, every other edition to a
// record body.
type Raw struct {
	Index int
	Data  []byte
}

// Empty reports whether the lookup produced nothing usable.
func (r Raw) Empty() bool {
	return r.Index == 0 && len(r.Data) == 0
}

// Decoded is the field-named extraction of a Raw record. A zero field means
// the edition's schema does not carry it.
type Decoded struct {
	ContinentCode string
	CountryCode   string
	CountryCode3  string
	CountryName   string
	Region        string
	City          string
	PostalCode    string
	Latitude      float64
	Longitude     float64
	MetroCode     int
	AreaCode      int

	// Value is the whole record of organization-style editions (ISP name,
	// AS number, domain, connection type...).
	Value string
}

// Empty reports whether no field was decoded.
func (d Decoded) Empty() bool {
	return d == Decoded{}
}
