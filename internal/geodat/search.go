package geodat

import (
	"errors"
	"io"
	"net/netip"

	"github.com/evyataryagoni/geolegacy/internal/record"
)

// ResolveV4 walks the tree with the 32 bits of addr. addr must be an IPv4
// address; anything else resolves to nothing.
func (db *DB) ResolveV4(addr netip.Addr) (record.Raw, bool) {
	if !addr.Is4() {
		return record.Raw{}, false
	}
	b := addr.As4()
	return db.resolve(b[:])
}

// ResolveV6 walks the tree with the 128 bits of addr. IPv4 addresses are
// looked up in their IPv4-mapped form.
func (db *DB) ResolveV6(addr netip.Addr) (record.Raw, bool) {
	if !addr.IsValid() {
		return record.Raw{}, false
	}
	b := addr.As16()
	return db.resolve(b[:])
}

func (db *DB) resolve(key []byte) (record.Raw, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	x, err := db.seek(key)
	if err != nil || x == db.segments {
		return record.Raw{}, false
	}
	return db.raw(x)
}

var errNoLeaf = errors.New("geodat: traversal ended without a leaf")

// seek returns the first tree value >= segments reached by following the
// bits of key from the root, most significant bit first.
func (db *DB) seek(key []byte) (uint32, error) {
	if db.closer == nil {
		return 0, errors.New("geodat: database is closed")
	}

	width := db.recordLength
	node := make([]byte, 2*width)
	var x uint32

	for depth := len(key)*8 - 1; depth >= 0; depth-- {
		off := int64(x) * int64(2*width)
		if _, err := db.r.ReadAt(node, off); err != nil {
			return 0, err
		}

		child := node[:width]
		if key[len(key)-1-depth/8]&(1<<(uint(depth)%8)) != 0 {
			child = node[width:]
		}
		x = littleEndian(child)

		if x >= db.segments {
			return x, nil
		}
	}

	return 0, errNoLeaf
}

// raw turns a leaf value into a positional record. Country and region
// editions encode the answer in the value itself; the rest point into the
// record section.
func (db *DB) raw(x uint32) (record.Raw, bool) {
	e := db.edition
	if e.IsCountryStyle() || e.IsRegionStyle() {
		return record.Raw{Index: int(x - db.segments)}, true
	}

	size := MaxOrgRecordLength
	if e.IsLocationStyle() {
		size = FullRecordLength
	}

	off := int64(x) + int64(2*db.recordLength-1)*int64(db.segments)
	if off >= db.size {
		return record.Raw{}, false
	}

	buf := make([]byte, size)
	n, err := db.r.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return record.Raw{}, false
	}
	if n == 0 {
		return record.Raw{}, false
	}
	return record.Raw{Data: buf[:n]}, true
}

func littleEndian(b []byte) uint32 {
	var v uint32
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return v
}
