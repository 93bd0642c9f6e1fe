// Package geodattest builds small legacy GeoIP databases for tests.
//
// The builder lays files out exactly like the real format: a binary tree of
// little-endian child pointers, an optional record section, an optional
// description and the structure info trailer. Misuse panics, since callers
// are tests with fixed inputs.
package geodattest

import (
	"bytes"
	"fmt"
	"math"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/evyataryagoni/geolegacy/internal/decoder"
	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/geodat"
)

// City is the content of one city record.
type City struct {
	CountryCode string
	Region      string
	City        string
	PostalCode  string
	Latitude    float64
	Longitude   float64
	MetroCode   int
	AreaCode    int
}

type childKind int

const (
	empty childKind = iota
	inner
	leaf
)

type child struct {
	kind  childKind
	value uint32 // node number for inner, index or record offset for leaf
}

type node [2]child

// Builder accumulates prefixes and renders a database file.
type Builder struct {
	edition     edition.Edition
	nodes       []node
	records     bytes.Buffer
	description string
	noTrailer   bool
	rawTrailer  []byte
}

// New starts a database of edition e.
func New(e edition.Edition) *Builder {
	b := &Builder{edition: e, nodes: []node{{}}}
	// Record offset 0 would collide with the not-found marker.
	b.records.WriteByte(0)
	return b
}

// Description sets the database info string stored before the trailer.
func (b *Builder) Description(s string) *Builder {
	b.description = s
	return b
}

// WithoutStructureInfo omits the trailer, producing a file readers treat as
// a plain country database.
func (b *Builder) WithoutStructureInfo() *Builder {
	b.noTrailer = true
	return b
}

// RawTrailer replaces the structure info block with arbitrary bytes.
func (b *Builder) RawTrailer(p []byte) *Builder {
	b.rawTrailer = append([]byte(nil), p...)
	return b
}

// AddCountry maps cidr to an ISO country code of the legacy country table.
func (b *Builder) AddCountry(cidr, code string) *Builder {
	idx, ok := decoder.CountryIndex(code)
	if !ok {
		panic(fmt.Sprintf("geodattest: unknown country code %q", code))
	}
	return b.AddIndex(cidr, idx)
}

// AddIndex maps cidr to a raw position, for country and region editions.
func (b *Builder) AddIndex(cidr string, index int) *Builder {
	if !b.edition.IsCountryStyle() && !b.edition.IsRegionStyle() {
		panic(fmt.Sprintf("geodattest: %s stores records, not indexes", b.edition))
	}
	if index < 0 {
		panic("geodattest: negative index")
	}
	b.insert(cidr, uint32(index))
	return b
}

// AddCity maps cidr to a city record.
func (b *Builder) AddCity(cidr string, c City) *Builder {
	if !b.edition.IsLocationStyle() {
		panic(fmt.Sprintf("geodattest: %s does not store city records", b.edition))
	}

	var rec bytes.Buffer
	idx := 0
	if c.CountryCode != "" {
		var ok bool
		if idx, ok = decoder.CountryIndex(c.CountryCode); !ok {
			panic(fmt.Sprintf("geodattest: unknown country code %q", c.CountryCode))
		}
	}
	rec.WriteByte(byte(idx))
	writeString(&rec, c.Region)
	writeString(&rec, c.City)
	writeString(&rec, c.PostalCode)
	writeUint24(&rec, uint32(math.Round((c.Latitude+180)*10000)))
	writeUint24(&rec, uint32(math.Round((c.Longitude+180)*10000)))
	rev1 := b.edition == edition.CityRev1 || b.edition == edition.CityRev1V6
	if rev1 && strings.EqualFold(c.CountryCode, "US") {
		writeUint24(&rec, uint32(c.MetroCode*1000+c.AreaCode))
	}

	b.insert(cidr, b.appendRecord(rec.Bytes()))
	return b
}

// AddOrg maps cidr to a free-form organization record.
func (b *Builder) AddOrg(cidr, value string) *Builder {
	if b.edition.IsCountryStyle() || b.edition.IsRegionStyle() || b.edition.IsLocationStyle() {
		panic(fmt.Sprintf("geodattest: %s does not store string records", b.edition))
	}

	var rec bytes.Buffer
	writeString(&rec, value)
	b.insert(cidr, b.appendRecord(rec.Bytes()))
	return b
}

func (b *Builder) appendRecord(p []byte) uint32 {
	off := uint32(b.records.Len())
	b.records.Write(p)
	return off
}

func (b *Builder) insert(cidr string, value uint32) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		panic(fmt.Sprintf("geodattest: %v", err))
	}
	prefix = prefix.Masked()

	addr := prefix.Addr()
	bits := prefix.Bits()
	if b.edition.Family() == edition.IPv6 && addr.Is4() {
		addr = netip.AddrFrom16(addr.As16())
		bits += 96
	}
	if (b.edition.Family() == edition.IPv4) != addr.Is4() {
		panic(fmt.Sprintf("geodattest: prefix %s does not match the %s tree", cidr, b.edition.Family()))
	}
	if bits == 0 {
		panic("geodattest: the root cannot be a leaf")
	}

	key := addr.AsSlice()
	total := len(key) * 8
	cur := 0
	for i := 0; i < bits; i++ {
		depth := total - 1 - i
		bit := 0
		if key[i/8]&(1<<(uint(depth)%8)) != 0 {
			bit = 1
		}

		c := &b.nodes[cur][bit]
		if i == bits-1 {
			if c.kind != empty {
				panic(fmt.Sprintf("geodattest: prefix %s overlaps an earlier one", cidr))
			}
			*c = child{kind: leaf, value: value}
			return
		}

		switch c.kind {
		case leaf:
			panic(fmt.Sprintf("geodattest: prefix %s overlaps an earlier one", cidr))
		case empty:
			b.nodes = append(b.nodes, node{})
			// c is stale once append grows the slice
			b.nodes[cur][bit] = child{kind: inner, value: uint32(len(b.nodes) - 1)}
		}
		cur = int(b.nodes[cur][bit].value)
	}
}

func (b *Builder) segments() uint32 {
	switch e := b.edition; {
	case e == edition.RegionRev0:
		return geodat.StateBeginRev0
	case e == edition.RegionRev1:
		return geodat.StateBeginRev1
	case e == edition.LargeCountry || e == edition.LargeCountryV6:
		return geodat.LargeCountryBegin
	case e.IsCountryStyle():
		return geodat.CountryBegin
	case e.IsRegionStyle():
		// synthetic v6 region tags have no on-disk base; reuse rev1
		return geodat.StateBeginRev1
	}
	return uint32(len(b.nodes))
}

func (b *Builder) recordLength() int {
	if b.edition.UsesWideRecords() {
		return geodat.OrgRecordLength
	}
	return geodat.StandardRecordLength
}

// Bytes renders the database.
func (b *Builder) Bytes() []byte {
	segments := b.segments()
	width := b.recordLength()
	hasRecords := !b.edition.IsCountryStyle() && !b.edition.IsRegionStyle()

	var out bytes.Buffer
	for _, n := range b.nodes {
		for _, c := range n {
			var v uint32
			switch c.kind {
			case empty:
				v = segments
			case inner:
				v = c.value
			case leaf:
				v = segments + c.value
			}
			for i := 0; i < width; i++ {
				out.WriteByte(byte(v >> (8 * i)))
			}
		}
	}

	if hasRecords {
		out.Write(b.records.Bytes())
	}

	if b.description != "" {
		out.Write([]byte{0, 0, 0})
		out.WriteString(b.description)
	}

	switch {
	case b.rawTrailer != nil:
		out.Write(b.rawTrailer)
	case b.noTrailer:
	default:
		out.Write([]byte{0xff, 0xff, 0xff})
		out.WriteByte(byte(b.edition))
		if hasRecords {
			writeUint24(&out, segments)
		}
	}

	return out.Bytes()
}

// WriteFile renders the database into a temporary file and returns its path.
func (b *Builder) WriteFile(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), fmt.Sprintf("%s.dat", b.edition))
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write database: %v", err)
	}
	return path
}

func writeString(buf *bytes.Buffer, s string) {
	enc, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		panic(fmt.Sprintf("geodattest: %q is not representable in latin-1: %v", s, err))
	}
	buf.WriteString(enc)
	buf.WriteByte(0)
}

func writeUint24(buf *bytes.Buffer, v uint32) {
	buf.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16)})
}
