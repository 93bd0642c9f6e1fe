package store

import (
	"encoding/csv"
	"fmt"
	"net/netip"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/models"
	"github.com/evyataryagoni/geolegacy/internal/record"
)

// CSVStore implements Store interface using a legacy CSV export
// It loads all ranges into memory, sorted for binary search
type CSVStore struct {
	edition edition.Edition

	// ranges are sorted by EndNum and do not overlap
	ranges []models.IPRange
}

// NewCSVStore creates a new CSV store by reading a legacy CSV export
// Parameters:
//   - filePath: path to the CSV file (ISO-8859-1 encoded, as exported)
//   - e: the edition the export was made from
//
// Two layouts are accepted:
//
//	"1.0.0.0","1.0.0.255","16777216","16777471","AU","Australia"   (country)
//	16777216,16777471,"AS15169 Google Inc."                        (org family)
//
// Rows that do not parse (such as a header line) are skipped.
func NewCSVStore(filePath string, e edition.Edition) (*CSVStore, error) {
	if err := checkEdition(e); err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(file))
	// the two layouts differ in width
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	store := &CSVStore{edition: e}
	for _, rec := range records {
		r, ok := parseRange(rec, e)
		if !ok {
			continue
		}
		store.ranges = append(store.ranges, r)
	}

	if len(store.ranges) == 0 {
		return nil, fmt.Errorf("CSV file has no valid ranges")
	}

	sort.Slice(store.ranges, func(i, j int) bool {
		return store.ranges[i].EndNum < store.ranges[j].EndNum
	})

	return store, nil
}

func parseRange(rec []string, e edition.Edition) (models.IPRange, bool) {
	var startField, endField, valueField string
	var r models.IPRange

	switch len(rec) {
	case 6:
		// the GeoIPCountryWhois layout only carries countries
		if !e.IsCountryStyle() {
			return models.IPRange{}, false
		}
		startField, endField = rec[2], rec[3]
		r.CountryCode = strings.TrimSpace(rec[4])
		r.Value = rec[5]
	case 3:
		startField, endField, valueField = rec[0], rec[1], rec[2]
		if e.IsCountryStyle() {
			r.CountryCode = strings.TrimSpace(valueField)
		} else {
			r.Value = valueField
		}
	default:
		return models.IPRange{}, false
	}

	start, err := strconv.ParseUint(strings.TrimSpace(startField), 10, 32)
	if err != nil {
		return models.IPRange{}, false
	}
	end, err := strconv.ParseUint(strings.TrimSpace(endField), 10, 32)
	if err != nil || end < start {
		return models.IPRange{}, false
	}

	r.StartNum = uint32(start)
	r.EndNum = uint32(end)
	return r, true
}

// Edition returns the edition the export was made from
func (s *CSVStore) Edition() edition.Edition {
	return s.edition
}

// Len returns the number of loaded ranges
func (s *CSVStore) Len() int {
	return len(s.ranges)
}

// ResolveV4 finds the range holding addr
func (s *CSVStore) ResolveV4(addr netip.Addr) (record.Raw, bool) {
	n, ok := ipToNum(addr)
	if !ok {
		return record.Raw{}, false
	}

	i := sort.Search(len(s.ranges), func(i int) bool {
		return s.ranges[i].EndNum >= n
	})
	if i == len(s.ranges) || !s.ranges[i].Contains(n) {
		return record.Raw{}, false
	}

	return rangeRaw(s.edition, s.ranges[i])
}

// ResolveV6 always reports nothing: legacy CSV exports are IPv4 only
func (s *CSVStore) ResolveV6(netip.Addr) (record.Raw, bool) {
	return record.Raw{}, false
}

// Close cleans up resources
// For CSV store, there's nothing to clean up (all data is in memory)
// But we need this method to satisfy the Store interface
func (s *CSVStore) Close() error {
	return nil
}
