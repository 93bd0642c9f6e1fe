package store

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/evyataryagoni/geolegacy/internal/decoder"
	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/models"
	"github.com/evyataryagoni/geolegacy/internal/record"
)

// Store defines the lookup contract shared by every database backend.
// Allows the .dat reader and the range backends (CSV, MySQL, Redis) to be
// used interchangeably, and easy testing with mocks.
type Store interface {
	// Edition is the record schema of the data behind the store
	Edition() edition.Edition

	// ResolveV4 and ResolveV6 return the raw record for an address, or false
	// when the address is not covered
	ResolveV4(addr netip.Addr) (record.Raw, bool)
	ResolveV6(addr netip.Addr) (record.Raw, bool)

	// Close cleans up resources (database connections, file handles, etc.)
	Close() error
}

// checkEdition rejects editions whose records cannot be expressed as a
// country code or a single string per range.
func checkEdition(e edition.Edition) error {
	if !e.Known() {
		return fmt.Errorf("unknown database edition %d", uint16(e))
	}
	if e.IsLocationStyle() || e.IsRegionStyle() {
		return fmt.Errorf("edition %s is not supported by range stores", e)
	}
	if e.Family() != edition.IPv4 {
		return fmt.Errorf("edition %s is not supported by range stores: IPv4 only", e)
	}
	return nil
}

// ipToNum converts an IPv4 address to its numeric form.
func ipToNum(addr netip.Addr) (uint32, bool) {
	if !addr.Is4() {
		return 0, false
	}
	b := addr.As4()
	return binary.BigEndian.Uint32(b[:]), true
}

// rangeRaw shapes a matched range like the tree leaf of a .dat file would:
// a country position for country editions, a NUL-terminated latin-1 string
// for the rest.
func rangeRaw(e edition.Edition, r models.IPRange) (record.Raw, bool) {
	if e.IsCountryStyle() {
		idx, ok := decoder.CountryIndex(r.CountryCode)
		if !ok {
			return record.Raw{}, false
		}
		return record.Raw{Index: idx}, true
	}

	if r.Value == "" {
		return record.Raw{}, false
	}
	enc := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	data, err := enc.Bytes([]byte(r.Value))
	if err != nil {
		return record.Raw{}, false
	}
	return record.Raw{Data: append(data, 0)}, true
}
