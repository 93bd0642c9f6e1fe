package geodat_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/geodat"
	"github.com/evyataryagoni/geolegacy/internal/geodat/geodattest"
)

func writeBytes(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.dat")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func TestValidate(t *testing.T) {
	full := geodattest.New(edition.Country).AddCountry("1.2.3.0/24", "FR").Bytes()
	truncated := append(append([]byte(nil), full[:6]...), 0xff, 0xff, 0xff, byte(edition.Country))

	tests := []struct {
		name string
		path func(t *testing.T) string
		want bool
	}{
		{
			name: "country database",
			path: func(t *testing.T) string {
				return geodattest.New(edition.Country).AddCountry("1.2.3.0/24", "FR").WriteFile(t)
			},
			want: true,
		},
		{
			name: "city database",
			path: func(t *testing.T) string {
				return geodattest.New(edition.CityRev0).
					AddCity("10.0.0.0/8", geodattest.City{CountryCode: "NL", City: "Amsterdam", Latitude: 52.37, Longitude: 4.89}).
					WriteFile(t)
			},
			want: true,
		},
		{
			name: "org v6 database",
			path: func(t *testing.T) string {
				return geodattest.New(edition.OrgV6).AddOrg("2001:db8::/32", "Example Org").WriteFile(t)
			},
			want: true,
		},
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.dat") },
			want: false,
		},
		{
			name: "empty file",
			path: func(t *testing.T) string { return writeBytes(t, nil) },
			want: false,
		},
		{
			name: "segment count larger than file",
			path: func(t *testing.T) string {
				return geodattest.New(edition.CityRev1).
					AddCity("10.0.0.0/8", geodattest.City{CountryCode: "NL", City: "Amsterdam", Latitude: 52.37, Longitude: 4.89}).
					RawTrailer([]byte{0xff, 0xff, 0xff, byte(edition.CityRev1), 0xf0, 0xff, 0xff}).
					WriteFile(t)
			},
			want: false,
		},
		{
			name: "tree cut short",
			path: func(t *testing.T) string { return writeBytes(t, truncated) },
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, geodat.Validate(tt.path(t)))
		})
	}
}
