// Package dispatch picks the record decoder for a database edition.
//
// The tables are split by address family. An edition that is missing from a
// table has no applicable decoder for that family and dispatches to nothing.
package dispatch

import (
	"github.com/evyataryagoni/geolegacy/internal/decoder"
	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/record"
)

var v4 = map[edition.Edition]decoder.Decoder{
	edition.Country:      decoder.Country,
	edition.LargeCountry: decoder.Country,

	edition.CityRev0: decoder.LocationRev0,
	edition.CityRev1: decoder.LocationRev1,

	edition.RegionRev0: decoder.RegionRev0,
	edition.RegionRev1: decoder.RegionRev1,

	edition.Org:            decoder.Organization,
	edition.ASNum:          decoder.Organization,
	edition.NetspeedRev1:   decoder.Organization,
	edition.ISP:            decoder.Organization,
	edition.Domain:         decoder.Organization,
	edition.UserType:       decoder.Organization,
	edition.Registrar:      decoder.Organization,
	edition.AccuracyRadius: decoder.Organization,
	edition.LocationA:      decoder.Organization,
	edition.CityConf:       decoder.Organization,
	edition.CountryConf:    decoder.Organization,
	edition.RegionConf:     decoder.Organization,
}

// LargeCountry is listed explicitly: its tag carries no V6 counterpart in
// the naming scheme of the other country editions.
var v6 = map[edition.Edition]decoder.Decoder{
	edition.CountryV6:      decoder.Country,
	edition.LargeCountry:   decoder.Country,
	edition.LargeCountryV6: decoder.Country,

	edition.CityRev0V6: decoder.LocationRev0,
	edition.CityRev1V6: decoder.LocationRev1,

	edition.RegionRev0V6: decoder.RegionRev0,
	edition.RegionRev1V6: decoder.RegionRev1,

	edition.OrgV6:            decoder.Organization,
	edition.ASNumV6:          decoder.Organization,
	edition.NetspeedRev1V6:   decoder.Organization,
	edition.ISPV6:            decoder.Organization,
	edition.DomainV6:         decoder.Organization,
	edition.UserTypeV6:       decoder.Organization,
	edition.RegistrarV6:      decoder.Organization,
	edition.AccuracyRadiusV6: decoder.Organization,
	edition.LocationAV6:      decoder.Organization,
	edition.CityConfV6:       decoder.Organization,
}

func table(f edition.Family) map[edition.Edition]decoder.Decoder {
	switch f {
	case edition.IPv4:
		return v4
	case edition.IPv6:
		return v6
	}
	return nil
}

// Decoder returns the decoder registered for e under family f.
func Decoder(e edition.Edition, f edition.Family) (decoder.Decoder, bool) {
	dec, ok := table(f)[e]
	return dec, ok
}

// Supports reports whether e can be decoded for family f.
func Supports(e edition.Edition, f edition.Family) bool {
	_, ok := Decoder(e, f)
	return ok
}

// Dispatch decodes raw with the decoder for (e, f). It reports false when
// no decoder applies or raw is empty. The raw record must already be
// resolved; Dispatch never searches the database.
func Dispatch(e edition.Edition, raw record.Raw, f edition.Family) (record.Decoded, bool) {
	if raw.Empty() {
		return record.Decoded{}, false
	}
	dec, ok := Decoder(e, f)
	if !ok {
		return record.Decoded{}, false
	}
	return dec(raw), true
}
