// Package geodat reads legacy GeoIP binary databases (.dat files).
//
// A database is a binary tree over address bits followed, for city and
// organization style editions, by a record section. The structure info
// block at the end of the file names the edition and the number of tree
// segments. Lookups walk the tree and return the raw record found at the
// leaf; turning that into fields is the job of package decoder.
//
// Three cache modes mirror the classic C library:
//   - CacheStandard: every tree step is a ReadAt on the open file.
//   - CacheMemory: the whole file is read into memory at open time.
//   - CacheMMap: the file is memory mapped read-only.
package geodat

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/evyataryagoni/geolegacy/internal/edition"
)

// Segment bases and record sizes of the legacy format.
const (
	CountryBegin      = 16776960
	LargeCountryBegin = 16515072
	StateBeginRev0    = 16700000
	StateBeginRev1    = 16000000

	StandardRecordLength = 3
	OrgRecordLength      = 4
	SegmentRecordLength  = 3

	FullRecordLength   = 50
	MaxOrgRecordLength = 300

	structureInfoMaxSize = 20
	databaseInfoMaxSize  = 100
)

// CacheMode selects how the database file is accessed.
type CacheMode string

const (
	CacheStandard CacheMode = "standard"
	CacheMemory   CacheMode = "memory"
	CacheMMap     CacheMode = "mmap"
)

// ParseCacheMode accepts "standard", "memory" or "mmap"; the empty string
// selects CacheStandard.
func ParseCacheMode(s string) (CacheMode, error) {
	switch m := CacheMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return CacheStandard, nil
	case CacheStandard, CacheMemory, CacheMMap:
		return m, nil
	}
	return "", fmt.Errorf("unknown cache mode: %q (supported: 'standard', 'memory', 'mmap')", s)
}

// ErrInvalidDatabase is returned when the structure info block is unreadable.
var ErrInvalidDatabase = errors.New("geodat: invalid database structure")

// Info describes an opened database.
type Info struct {
	Edition      edition.Edition
	Segments     uint32
	RecordLength int
	Size         int64
	Description  string
	Cache        CacheMode
}

// DB is an opened legacy database. It is safe for concurrent use.
type DB struct {
	path   string
	r      io.ReaderAt
	size   int64

	// mu is held for reading by lookups and for writing by Close, so a
	// mapping is never released under a running tree walk.
	mu     sync.RWMutex
	closer func() error

	edition      edition.Edition
	segments     uint32
	recordLength int
	description  string
	cache        CacheMode
}

// Open opens the database at path using the given cache mode.
func Open(path string, mode CacheMode) (*DB, error) {
	if mode == "" {
		mode = CacheStandard
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geodat: failed to open database %q: %w", path, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("geodat: failed to stat database %q: %w", path, err)
	}

	db := &DB{path: path, size: st.Size(), cache: mode}

	switch mode {
	case CacheStandard:
		db.r = f
		db.closer = f.Close

	case CacheMemory:
		data := make([]byte, db.size)
		_, err := io.ReadFull(f, data)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("geodat: failed to load database %q into memory: %w", path, err)
		}
		db.r = bytes.NewReader(data)
		db.closer = func() error { return nil }

	case CacheMMap:
		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("geodat: failed to map database %q: %w", path, err)
		}
		db.r = bytes.NewReader(m)
		db.closer = func() error {
			uerr := m.Unmap()
			if cerr := f.Close(); uerr == nil {
				uerr = cerr
			}
			return uerr
		}

	default:
		f.Close()
		return nil, fmt.Errorf("geodat: unknown cache mode %q", mode)
	}

	if err := db.setupSegments(); err != nil {
		db.closer()
		return nil, fmt.Errorf("geodat: %q: %w", path, err)
	}

	return db, nil
}

// setupSegments scans backwards from the end of the file for the 0xFFFFFF
// marker of the structure info block. Files without one are country
// databases.
func (db *DB) setupSegments() error {
	db.edition = edition.Country
	db.segments = CountryBegin
	db.recordLength = StandardRecordLength

	marker := []byte{0xff, 0xff, 0xff}
	buf := make([]byte, 3)
	pos := db.size - 3

	for i := 0; i < structureInfoMaxSize && pos >= 0; i++ {
		if _, err := db.r.ReadAt(buf, pos); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDatabase, err)
		}
		if !bytes.Equal(buf, marker) {
			pos--
			continue
		}

		one := make([]byte, 1)
		if _, err := db.r.ReadAt(one, pos+3); err != nil {
			return fmt.Errorf("%w: missing edition byte", ErrInvalidDatabase)
		}
		db.edition = edition.FromByte(one[0])

		switch {
		case db.edition == edition.RegionRev0:
			db.segments = StateBeginRev0
		case db.edition == edition.RegionRev1:
			db.segments = StateBeginRev1
		case db.edition == edition.LargeCountry || db.edition == edition.LargeCountryV6:
			db.segments = LargeCountryBegin
		case db.edition.IsCountryStyle():
			db.segments = CountryBegin
		default:
			if _, err := db.r.ReadAt(buf, pos+4); err != nil {
				return fmt.Errorf("%w: missing segment count", ErrInvalidDatabase)
			}
			db.segments = uint24(buf)
			if db.edition.UsesWideRecords() {
				db.recordLength = OrgRecordLength
			}
		}

		db.description = db.readDescription(pos)
		return nil
	}

	return nil
}

// readDescription returns the free-form database info string that sits
// between a triple NUL and the structure info block.
func (db *DB) readDescription(end int64) string {
	buf := make([]byte, 3)
	for i := int64(0); i < databaseInfoMaxSize; i++ {
		off := end - 3 - i
		if off < 0 {
			break
		}
		if _, err := db.r.ReadAt(buf, off); err != nil {
			break
		}
		if buf[0] == 0 && buf[1] == 0 && buf[2] == 0 {
			desc := make([]byte, i)
			if _, err := db.r.ReadAt(desc, off+3); err != nil {
				return ""
			}
			return string(desc)
		}
	}
	return ""
}

// Edition returns the edition declared by the structure info block.
func (db *DB) Edition() edition.Edition {
	return db.edition
}

// Info returns structural information about the database.
func (db *DB) Info() Info {
	return Info{
		Edition:      db.edition,
		Segments:     db.segments,
		RecordLength: db.recordLength,
		Size:         db.size,
		Description:  db.description,
		Cache:        db.cache,
	}
}

// Close releases the file handle or mapping. It waits for running lookups;
// lookups after Close resolve to nothing.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closer == nil {
		return nil
	}
	err := db.closer()
	db.closer = nil
	return err
}

func uint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}
