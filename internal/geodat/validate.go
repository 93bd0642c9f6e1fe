package geodat

import (
	"net/netip"

	"github.com/evyataryagoni/geolegacy/internal/edition"
)

// probes are walked by Validate to check the tree stays inside the file.
var probes = []netip.Addr{
	netip.MustParseAddr("0.0.0.0"),
	netip.MustParseAddr("8.8.8.8"),
	netip.MustParseAddr("128.0.0.1"),
	netip.MustParseAddr("255.255.255.255"),
	netip.MustParseAddr("::"),
	netip.MustParseAddr("2001:db8::1"),
	netip.MustParseAddr("ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff"),
}

// Validate reports whether path looks like a usable legacy database: the
// structure info parses, the tree fits in the file, and probe lookups never
// read outside it.
func Validate(path string) bool {
	db, err := Open(path, CacheStandard)
	if err != nil {
		return false
	}
	defer db.Close()

	return db.check() == nil
}

func (db *DB) check() error {
	if db.size == 0 {
		return ErrInvalidDatabase
	}
	if db.segments == 0 {
		return ErrInvalidDatabase
	}

	// Country and region editions have a fixed segment base far beyond any
	// real tree, so only record editions can be sized up front.
	e := db.edition
	if !e.IsCountryStyle() && !e.IsRegionStyle() {
		treeSize := int64(db.segments) * int64(2*db.recordLength)
		if treeSize > db.size {
			return ErrInvalidDatabase
		}
	}

	for _, p := range probes {
		var key []byte
		if e.Family() == edition.IPv4 {
			if !p.Is4() {
				continue
			}
			b := p.As4()
			key = b[:]
		} else {
			b := p.As16()
			key = b[:]
		}

		x, err := db.seek(key)
		if err != nil {
			return err
		}
		if x > db.segments && !e.IsCountryStyle() && !e.IsRegionStyle() {
			off := int64(x) + int64(2*db.recordLength-1)*int64(db.segments)
			if off >= db.size {
				return ErrInvalidDatabase
			}
		}
	}

	return nil
}
