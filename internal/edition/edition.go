package edition

import (
	"fmt"
	"strings"
)

// Edition identifies the record schema of a legacy GeoIP database.
// Values up to 255 are the edition byte stored in the file's structure info.
type Edition uint16

// Editions as stored on disk.
const (
	Country                  Edition = 1
	CityRev1                 Edition = 2
	RegionRev1               Edition = 3
	ISP                      Edition = 4
	Org                      Edition = 5
	CityRev0                 Edition = 6
	RegionRev0               Edition = 7
	Proxy                    Edition = 8
	ASNum                    Edition = 9
	Netspeed                 Edition = 10
	Domain                   Edition = 11
	CountryV6                Edition = 12
	LocationA                Edition = 13
	AccuracyRadius           Edition = 14
	CityConfidence           Edition = 15
	CityConfidenceDist       Edition = 16
	LargeCountry             Edition = 17
	LargeCountryV6           Edition = 18
	CityConfidenceDistISPOrg Edition = 19
	CCMCountry               Edition = 20
	ASNumV6                  Edition = 21
	ISPV6                    Edition = 22
	OrgV6                    Edition = 23
	DomainV6                 Edition = 24
	LocationAV6              Edition = 25
	Registrar                Edition = 26
	RegistrarV6              Edition = 27
	UserType                 Edition = 28
	UserTypeV6               Edition = 29
	CityRev1V6               Edition = 30
	CityRev0V6               Edition = 31
	NetspeedRev1             Edition = 32
	NetspeedRev1V6           Edition = 33
	CountryConf              Edition = 34
	CityConf                 Edition = 35
	RegionConf               Edition = 36
	PostalConf               Edition = 37
	AccuracyRadiusV6         Edition = 38
)

// V6 tags the file format never assigned a byte to. They live above the
// one-byte range so a database header can never decode to one of them.
const (
	RegionRev0V6 Edition = 0x100 + iota
	RegionRev1V6
	CityConfV6
	CountryConfV6
	RegionConfV6
)

// Family is an IP address family.
type Family int

const (
	IPv4 Family = 4
	IPv6 Family = 6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	}
	return fmt.Sprintf("family(%d)", int(f))
}

var names = map[Edition]string{
	Country:                  "country",
	CityRev1:                 "city-rev1",
	RegionRev1:               "region-rev1",
	ISP:                      "isp",
	Org:                      "org",
	CityRev0:                 "city-rev0",
	RegionRev0:               "region-rev0",
	Proxy:                    "proxy",
	ASNum:                    "asnum",
	Netspeed:                 "netspeed",
	Domain:                   "domain",
	CountryV6:                "country-v6",
	LocationA:                "location-a",
	AccuracyRadius:           "accuracy-radius",
	CityConfidence:           "city-confidence",
	CityConfidenceDist:       "city-confidence-dist",
	LargeCountry:             "large-country",
	LargeCountryV6:           "large-country-v6",
	CityConfidenceDistISPOrg: "city-confidence-dist-isp-org",
	CCMCountry:               "ccm-country",
	ASNumV6:                  "asnum-v6",
	ISPV6:                    "isp-v6",
	OrgV6:                    "org-v6",
	DomainV6:                 "domain-v6",
	LocationAV6:              "location-a-v6",
	Registrar:                "registrar",
	RegistrarV6:              "registrar-v6",
	UserType:                 "user-type",
	UserTypeV6:               "user-type-v6",
	CityRev1V6:               "city-rev1-v6",
	CityRev0V6:               "city-rev0-v6",
	NetspeedRev1:             "netspeed-rev1",
	NetspeedRev1V6:           "netspeed-rev1-v6",
	CountryConf:              "country-conf",
	CityConf:                 "city-conf",
	RegionConf:               "region-conf",
	PostalConf:               "postal-conf",
	AccuracyRadiusV6:         "accuracy-radius-v6",
	RegionRev0V6:             "region-rev0-v6",
	RegionRev1V6:             "region-rev1-v6",
	CityConfV6:               "city-conf-v6",
	CountryConfV6:            "country-conf-v6",
	RegionConfV6:             "region-conf-v6",
}

var byName = func() map[string]Edition {
	m := make(map[string]Edition, len(names))
	for e, n := range names {
		m[n] = e
	}
	return m
}()

// String returns the kebab-case name of the edition, or "edition(N)" for
// tags this package does not know.
func (e Edition) String() string {
	if n, ok := names[e]; ok {
		return n
	}
	return fmt.Sprintf("edition(%d)", uint16(e))
}

// Known reports whether e is one of the declared editions.
func (e Edition) Known() bool {
	_, ok := names[e]
	return ok
}

// Parse maps an edition name (as returned by String) back to its tag.
// Matching ignores case and surrounding whitespace; underscores are accepted
// in place of dashes.
func Parse(name string) (Edition, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", "-")
	if e, ok := byName[key]; ok {
		return e, nil
	}
	return 0, fmt.Errorf("unknown database edition: %q", name)
}

// FromByte converts the edition byte of a structure info block. Old files
// store editions offset by 105.
func FromByte(b byte) Edition {
	if b >= 106 {
		b -= 105
	}
	return Edition(b)
}

// IsCountryStyle reports whether the tree leaves of e index the country table
// directly, with no record section.
func (e Edition) IsCountryStyle() bool {
	switch e {
	case Country, CountryV6, LargeCountry, LargeCountryV6, Proxy, Netspeed, CCMCountry:
		return true
	}
	return false
}

// IsRegionStyle reports whether the tree leaves of e encode a region offset.
func (e Edition) IsRegionStyle() bool {
	switch e {
	case RegionRev0, RegionRev1, RegionRev0V6, RegionRev1V6:
		return true
	}
	return false
}

// IsLocationStyle reports whether the records of e are full city records.
func (e Edition) IsLocationStyle() bool {
	switch e {
	case CityRev0, CityRev1, CityRev0V6, CityRev1V6:
		return true
	}
	return false
}

// UsesWideRecords reports whether tree pointers of e are four bytes wide.
func (e Edition) UsesWideRecords() bool {
	switch e {
	case Org, OrgV6, ISP, ISPV6, Domain, DomainV6:
		return true
	}
	return false
}

// Family returns the address family the tree of e is keyed by.
func (e Edition) Family() Family {
	switch e {
	case CountryV6, LargeCountryV6, ASNumV6, ISPV6, OrgV6, DomainV6, LocationAV6,
		RegistrarV6, UserTypeV6, CityRev1V6, CityRev0V6, NetspeedRev1V6, AccuracyRadiusV6,
		RegionRev0V6, RegionRev1V6, CityConfV6, CountryConfV6, RegionConfV6:
		return IPv6
	}
	return IPv4
}
