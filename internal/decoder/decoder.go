// Package decoder turns raw legacy GeoIP records into field-named records.
//
// Every decoder is a pure function of its input. None of them fail: a short,
// truncated, or otherwise malformed record yields whatever fields could be
// read, down to an empty record.
package decoder

import (
	"bytes"
	"math"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/evyataryagoni/geolegacy/internal/record"
)

// Decoder converts one raw record shape.
type Decoder func(record.Raw) record.Decoded

type country struct {
	code      string
	code3     string
	name      string
	continent string
}

// Region offsets used by the two revisions of the region edition.
const (
	regionRev0USBase = 1000

	usOffset     = 1
	canadaOffset = 677
	worldOffset  = 1353
	fipsRange    = 360
)

// CountryIndex returns the table position of an ISO country code. The
// reserved position 0 ("--") is never returned.
func CountryIndex(code string) (int, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for i := 1; i < len(countries); i++ {
		if countries[i].code == code {
			return i, true
		}
	}
	return 0, false
}

// withCountry fills the country fields of d from table position idx.
// Position 0 and anything out of range leave d untouched.
func withCountry(d record.Decoded, idx int) record.Decoded {
	if idx <= 0 || idx >= len(countries) {
		return d
	}
	c := countries[idx]
	d.CountryCode = c.code
	d.CountryCode3 = c.code3
	d.CountryName = c.name
	if c.continent != "--" {
		d.ContinentCode = c.continent
	}
	return d
}

// Country decodes country editions, whose raw value is a country position.
func Country(raw record.Raw) record.Decoded {
	return withCountry(record.Decoded{}, raw.Index)
}

// LocationRev0 decodes revision 0 city records.
func LocationRev0(raw record.Raw) record.Decoded {
	return location(raw, false)
}

// LocationRev1 decodes revision 1 city records, which append a metro/area
// code to US locations.
func LocationRev1(raw record.Raw) record.Decoded {
	return location(raw, true)
}

// Record layout: country byte, NUL-terminated region, city and postal code,
// then 3-byte little-endian latitude and longitude.
func location(raw record.Raw, rev1 bool) record.Decoded {
	buf := raw.Data
	if len(buf) == 0 {
		return record.Decoded{}
	}

	d := withCountry(record.Decoded{}, int(buf[0]))
	buf = buf[1:]

	var ok bool
	var region, city, postal []byte
	if region, buf, ok = cstring(buf); !ok {
		return d
	}
	d.Region = latin1(region)
	if city, buf, ok = cstring(buf); !ok {
		return d
	}
	d.City = latin1(city)
	if postal, buf, ok = cstring(buf); !ok {
		return d
	}
	d.PostalCode = latin1(postal)

	if len(buf) < 6 {
		return d
	}
	d.Latitude = coordinate(buf[0:3])
	d.Longitude = coordinate(buf[3:6])
	buf = buf[6:]

	if rev1 && d.CountryCode == "US" && len(buf) >= 3 {
		combo := int(uint24(buf[0:3]))
		d.MetroCode = combo / 1000
		d.AreaCode = combo % 1000
	}
	return d
}

// RegionRev0 decodes revision 0 region editions: positions from 1000 on are
// US states, lower ones are countries.
func RegionRev0(raw record.Raw) record.Decoded {
	idx := raw.Index
	if idx >= regionRev0USBase {
		d := withCountry(record.Decoded{}, usIndex)
		d.Region = letterPair(idx - regionRev0USBase)
		return d
	}
	return withCountry(record.Decoded{}, idx)
}

// RegionRev1 decodes revision 1 region editions, which split the position
// space into US states, Canadian provinces and FIPS ranges per country.
func RegionRev1(raw record.Raw) record.Decoded {
	idx := raw.Index
	switch {
	case idx < usOffset:
		return record.Decoded{}
	case idx < canadaOffset:
		d := withCountry(record.Decoded{}, usIndex)
		d.Region = letterPair(idx - usOffset)
		return d
	case idx < worldOffset:
		d := withCountry(record.Decoded{}, canadaIndex)
		d.Region = letterPair(idx - canadaOffset)
		return d
	default:
		return withCountry(record.Decoded{}, (idx-worldOffset)/fipsRange)
	}
}

// Organization decodes editions whose record is one free-form string.
func Organization(raw record.Raw) record.Decoded {
	s, _, _ := cstring(raw.Data)
	return record.Decoded{Value: latin1(s)}
}

var (
	usIndex, _     = CountryIndex("US")
	canadaIndex, _ = CountryIndex("CA")
)

// cstring splits buf at the first NUL. ok is false when no terminator exists,
// in which case the whole buffer is returned as the string.
func cstring(buf []byte) (s, rest []byte, ok bool) {
	i := bytes.IndexByte(buf, 0)
	if i < 0 {
		return buf, nil, false
	}
	return buf[:i], buf[i+1:], true
}

func latin1(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(charmap.ISO8859_1.DecodeByte(c))
	}
	return sb.String()
}

func uint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func coordinate(b []byte) float64 {
	v := float64(uint24(b))/10000 - 180
	return math.Round(v*10000) / 10000
}

func letterPair(n int) string {
	return string([]byte{byte('A' + n/26), byte('A' + n%26)})
}
