package models

// Result is the normalized lookup answer. Groups are nil when the database
// edition carries no data for them; Traits is always present.
type Result struct {
	City              *City      `json:"city,omitempty"`
	Postal            *Postal    `json:"postal,omitempty"`
	Continent         *Continent `json:"continent,omitempty"`
	Country           *Country   `json:"country,omitempty"`
	RegisteredCountry *Country   `json:"registered_country,omitempty"`
	Location          *Location  `json:"location,omitempty"`
	ConnectionType    string     `json:"connection_type,omitempty"`
	Traits            Traits     `json:"traits"`

	// Legacy marks results produced from the legacy record schema.
	Legacy bool `json:"legacy"`
}

// City group. The legacy schema has no place identifiers, so GeonameID is
// always null.
type City struct {
	GeonameID *uint64           `json:"geoname_id"`
	Names     map[string]string `json:"names"`
}

type Postal struct {
	Code string `json:"code"`
}

type Continent struct {
	GeonameID *uint64           `json:"geoname_id"`
	Code      string            `json:"code"`
	Names     map[string]string `json:"names"`
}

type Country struct {
	GeonameID *uint64           `json:"geoname_id"`
	ISOCode   string            `json:"iso_code"`
	Names     map[string]string `json:"names"`
}

// Location group. MetroCode is only known for US records of CITY_REV1
// databases.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	MetroCode int     `json:"metro_code,omitempty"`
}

// Traits carries the queried address plus at most one edition specific
// attribute.
type Traits struct {
	IP           string `json:"ip"`
	Organization string `json:"organization,omitempty"`
	ISP          string `json:"isp,omitempty"`
	Domain       string `json:"domain,omitempty"`
}

// DatabaseInfo describes a loaded database for the /v1/databases endpoint
type DatabaseInfo struct {
	Name     string `json:"name"`
	Identity string `json:"identity"`
	Backend  string `json:"backend"`
	Edition  string `json:"edition"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"`
}

// IPRange is one row of a legacy CSV export: an inclusive numeric IPv4 range
// and either a country code or a free-form value, depending on the edition.
type IPRange struct {
	StartNum    uint32 `json:"start"`
	EndNum      uint32 `json:"end"`
	CountryCode string `json:"cc,omitempty"`
	Value       string `json:"value,omitempty"`
}

// Contains reports whether the numeric address n falls inside the range.
func (r IPRange) Contains(n uint32) bool {
	return r.StartNum <= n && n <= r.EndNum
}
