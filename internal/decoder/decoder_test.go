package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evyataryagoni/geolegacy/internal/record"
)

func cityRecord(countryIdx int, region, city, postal string, lat, lon uint32, tail ...byte) []byte {
	buf := []byte{byte(countryIdx)}
	buf = append(buf, region...)
	buf = append(buf, 0)
	buf = append(buf, city...)
	buf = append(buf, 0)
	buf = append(buf, postal...)
	buf = append(buf, 0)
	buf = append(buf, byte(lat), byte(lat>>8), byte(lat>>16))
	buf = append(buf, byte(lon), byte(lon>>8), byte(lon>>16))
	return append(buf, tail...)
}

func TestCountryTableSize(t *testing.T) {
	require.Len(t, countries, 256)
	assert.Equal(t, "--", countries[0].code)
}

func TestCountryIndex(t *testing.T) {
	idx, ok := CountryIndex("us")
	require.True(t, ok)
	assert.Equal(t, "US", countries[idx].code)

	_, ok = CountryIndex("--")
	assert.False(t, ok)
	_, ok = CountryIndex("ZZ")
	assert.False(t, ok)
}

func TestCountry(t *testing.T) {
	idx, _ := CountryIndex("DE")
	d := Country(record.Raw{Index: idx})

	assert.Equal(t, "DE", d.CountryCode)
	assert.Equal(t, "DEU", d.CountryCode3)
	assert.Equal(t, "Germany", d.CountryName)
	assert.Equal(t, "EU", d.ContinentCode)
	assert.Empty(t, d.City)
}

func TestCountry_OutOfRange(t *testing.T) {
	assert.True(t, Country(record.Raw{}).Empty())
	assert.True(t, Country(record.Raw{Index: 256}).Empty())
	assert.True(t, Country(record.Raw{Index: -3}).Empty())
}

func TestCountry_AnonymousProxyHasNoContinent(t *testing.T) {
	idx, _ := CountryIndex("A1")
	d := Country(record.Raw{Index: idx})
	assert.Equal(t, "A1", d.CountryCode)
	assert.Empty(t, d.ContinentCode)
}

func TestLocationRev1(t *testing.T) {
	us, _ := CountryIndex("US")
	// 39.8 -> (39.8+180)*10000, -89.6 -> (-89.6+180)*10000, metro 648 area 217
	combo := uint32(648*1000 + 217)
	data := cityRecord(us, "IL", "Springfield", "62701", 2198000, 904000,
		byte(combo), byte(combo>>8), byte(combo>>16))

	d := LocationRev1(record.Raw{Data: data})

	assert.Equal(t, "US", d.CountryCode)
	assert.Equal(t, "United States", d.CountryName)
	assert.Equal(t, "NA", d.ContinentCode)
	assert.Equal(t, "IL", d.Region)
	assert.Equal(t, "Springfield", d.City)
	assert.Equal(t, "62701", d.PostalCode)
	assert.InDelta(t, 39.8, d.Latitude, 1e-9)
	assert.InDelta(t, -89.6, d.Longitude, 1e-9)
	assert.Equal(t, 648, d.MetroCode)
	assert.Equal(t, 217, d.AreaCode)
}

func TestLocationRev0_IgnoresMetroCode(t *testing.T) {
	us, _ := CountryIndex("US")
	data := cityRecord(us, "IL", "Springfield", "", 2198000, 904000, 1, 2, 3)

	d := LocationRev0(record.Raw{Data: data})
	assert.Zero(t, d.MetroCode)
	assert.Zero(t, d.AreaCode)
	assert.Empty(t, d.PostalCode)
}

func TestLocation_Latin1City(t *testing.T) {
	de, _ := CountryIndex("DE")
	data := cityRecord(de, "02", "M\xfcnchen", "", 2281350, 1915800)

	d := LocationRev0(record.Raw{Data: data})
	assert.Equal(t, "München", d.City)
}

func TestLocation_Truncated(t *testing.T) {
	us, _ := CountryIndex("US")
	full := cityRecord(us, "CA", "Davis", "95616", 2185450, 582600)

	tests := []struct {
		name string
		data []byte
		city string
		lat  float64
	}{
		{"empty", nil, "", 0},
		{"country only", full[:1], "", 0},
		{"cut inside city", full[:6], "", 0},
		{"cut inside coordinates", full[:len(full)-2], "Davis", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := LocationRev1(record.Raw{Data: tt.data})
			assert.Equal(t, tt.city, d.City)
			assert.Equal(t, tt.lat, d.Latitude)
		})
	}
}

func TestRegionRev0(t *testing.T) {
	d := RegionRev0(record.Raw{Index: regionRev0USBase + 2*26 + 0})
	assert.Equal(t, "US", d.CountryCode)
	assert.Equal(t, "CA", d.Region)

	fr, _ := CountryIndex("FR")
	d = RegionRev0(record.Raw{Index: fr})
	assert.Equal(t, "FR", d.CountryCode)
	assert.Empty(t, d.Region)
}

func TestRegionRev1(t *testing.T) {
	jp, _ := CountryIndex("JP")

	tests := []struct {
		name    string
		index   int
		country string
		region  string
	}{
		{"unknown", 0, "", ""},
		{"US state", usOffset + 13*26 + 24, "US", "NY"},
		{"Canadian province", canadaOffset + 14*26 + 13, "CA", "ON"},
		{"world", worldOffset + jp*fipsRange + 40, "JP", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := RegionRev1(record.Raw{Index: tt.index})
			assert.Equal(t, tt.country, d.CountryCode)
			assert.Equal(t, tt.region, d.Region)
		})
	}
}

func TestOrganization(t *testing.T) {
	d := Organization(record.Raw{Data: []byte("Example ISP Inc.\x00garbage")})
	assert.Equal(t, "Example ISP Inc.", d.Value)
	assert.Empty(t, d.CountryCode)

	d = Organization(record.Raw{Data: []byte("AS15169 Google Inc.")})
	assert.Equal(t, "AS15169 Google Inc.", d.Value)

	assert.True(t, Organization(record.Raw{}).Empty())
	assert.True(t, Organization(record.Raw{Data: []byte{0, 'x'}}).Empty())
}
