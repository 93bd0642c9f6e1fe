// Package normalize reshapes decoded legacy records into the nested result
// schema shared by every edition.
package normalize

import (
	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/models"
	"github.com/evyataryagoni/geolegacy/internal/record"
)

// Normalize builds the result for ip from d. It returns nil when d is empty.
//
// A group is only emitted when its driving field is present. A latitude of
// exactly zero counts as absent, so equatorial locations lose their
// location group; callers already depend on this.
func Normalize(ip string, d record.Decoded, e edition.Edition) *models.Result {
	if d.Empty() {
		return nil
	}

	out := &models.Result{Legacy: true}

	if d.City != "" {
		out.City = &models.City{
			Names: map[string]string{"en": d.City},
		}
	}

	if d.PostalCode != "" {
		out.Postal = &models.Postal{Code: d.PostalCode}
	}

	if d.ContinentCode != "" {
		out.Continent = &models.Continent{
			Code:  d.ContinentCode,
			Names: map[string]string{},
		}
	}

	// The legacy format does not tell the two apart.
	if d.CountryCode != "" {
		out.Country = &models.Country{
			ISOCode: d.CountryCode,
			Names:   map[string]string{"en": d.CountryName},
		}
		out.RegisteredCountry = out.Country
	}

	if d.Latitude != 0 {
		out.Location = &models.Location{
			Latitude:  d.Latitude,
			Longitude: d.Longitude,
			MetroCode: d.MetroCode,
		}
	}

	out.Traits = models.Traits{IP: ip}
	switch e {
	case edition.Org, edition.OrgV6:
		out.Traits.Organization = d.Value
	case edition.NetspeedRev1, edition.NetspeedRev1V6:
		out.ConnectionType = d.Value
	case edition.ISP, edition.ISPV6:
		out.Traits.ISP = d.Value
	case edition.Domain, edition.DomainV6:
		out.Traits.Domain = d.Value
	default:
		// AS number, user type, registrar, accuracy radius, location-A and
		// the confidence editions have no trait slot yet. Their value is
		// decoded but not emitted.
	}

	return out
}
