package store

import (
	"database/sql"
	"errors"
	"net/netip"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/evyataryagoni/geolegacy/internal/decoder"
	"github.com/evyataryagoni/geolegacy/internal/edition"
)

const rangeQuery = "SELECT \\* FROM `geoip_ranges` WHERE end_num >= \\? ORDER BY end_num LIMIT \\?"

var rangeColumns = []string{"id", "start_num", "end_num", "country_code", "value"}

// setupMockDB creates a mock database for testing
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	return db, mock, sqlDB
}

// TestMySQLStore_ResolveV4_Country tests a country edition lookup
func TestMySQLStore_ResolveV4_Country(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	store := &MySQLStore{db: db, edition: edition.Country}

	// 8.8.8.8 = 134744072; GORM adds LIMIT 1 to Take() queries
	rows := sqlmock.NewRows(rangeColumns).
		AddRow(1, 134744064, 134744319, "US", "United States")

	mock.ExpectQuery(rangeQuery).
		WithArgs(134744072, 1).
		WillReturnRows(rows)

	raw, ok := store.ResolveV4(netip.MustParseAddr("8.8.8.8"))
	if !ok {
		t.Fatal("expected a record")
	}

	want, _ := decoder.CountryIndex("US")
	if raw.Index != want {
		t.Errorf("expected index %d, got %d", want, raw.Index)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestMySQLStore_ResolveV4_Org tests an org family lookup
func TestMySQLStore_ResolveV4_Org(t *testing.T) {
	tests := []struct {
		ip    string
		num   uint32
		start uint32
		end   uint32
		value string
	}{
		{"1.0.0.1", 16777217, 16777216, 16777471, "AS13335 Cloudflare, Inc."},
		{"8.8.4.4", 134743044, 134743040, 134744063, "AS15169 Google Inc."},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			db, mock, sqlDB := setupMockDB(t)
			defer sqlDB.Close()

			store := &MySQLStore{db: db, edition: edition.ASNum}

			rows := sqlmock.NewRows(rangeColumns).
				AddRow(7, tt.start, tt.end, "", tt.value)

			mock.ExpectQuery(rangeQuery).
				WithArgs(tt.num, 1).
				WillReturnRows(rows)

			raw, ok := store.ResolveV4(netip.MustParseAddr(tt.ip))
			if !ok {
				t.Fatal("expected a record")
			}
			if v := decoder.Organization(raw).Value; v != tt.value {
				t.Errorf("expected '%s', got '%s'", tt.value, v)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

// TestMySQLStore_ResolveV4_Gap tests an address between two ranges
func TestMySQLStore_ResolveV4_Gap(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	store := &MySQLStore{db: db, edition: edition.Country}

	// The next range starts after the address
	rows := sqlmock.NewRows(rangeColumns).
		AddRow(2, 134744064, 134744319, "US", "United States")

	mock.ExpectQuery(rangeQuery).
		WithArgs(134744000, 1).
		WillReturnRows(rows)

	if _, ok := store.ResolveV4(netip.MustParseAddr("8.8.7.192")); ok {
		t.Error("expected no record for an address in a gap")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestMySQLStore_ResolveV4_NotFound tests an address past the last range
func TestMySQLStore_ResolveV4_NotFound(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	store := &MySQLStore{db: db, edition: edition.Country}

	mock.ExpectQuery(rangeQuery).
		WithArgs(4294967295, 1).
		WillReturnRows(sqlmock.NewRows(rangeColumns))

	if _, ok := store.ResolveV4(netip.MustParseAddr("255.255.255.255")); ok {
		t.Error("expected no record")
	}

	_, err := store.findRange(4294967295)
	if err == nil {
		t.Error("expected not found error")
	}
}

// TestMySQLStore_ResolveV4_DatabaseError tests query failures
func TestMySQLStore_ResolveV4_DatabaseError(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	store := &MySQLStore{db: db, edition: edition.Country}

	mock.ExpectQuery(rangeQuery).
		WithArgs(134744072, 1).
		WillReturnError(errors.New("connection lost"))

	if _, ok := store.ResolveV4(netip.MustParseAddr("8.8.8.8")); ok {
		t.Error("expected no record on query failure")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestMySQLStore_ResolveV6 tests that IPv6 never reaches the database
func TestMySQLStore_ResolveV6(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	store := &MySQLStore{db: db, edition: edition.Country}

	if _, ok := store.ResolveV6(netip.MustParseAddr("2001:db8::1")); ok {
		t.Error("expected no record")
	}
	if _, ok := store.ResolveV4(netip.MustParseAddr("2001:db8::1")); ok {
		t.Error("expected no record")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected queries: %v", err)
	}
}

// TestMySQLStore_Close tests closing the connection
func TestMySQLStore_Close(t *testing.T) {
	db, mock, _ := setupMockDB(t)

	store := &MySQLStore{db: db, edition: edition.Country}

	mock.ExpectClose()

	if err := store.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestMySQLStore_TableName tests the GORM table mapping
func TestMySQLStore_TableName(t *testing.T) {
	if name := (IPRangeModel{}).TableName(); name != "geoip_ranges" {
		t.Errorf("expected 'geoip_ranges', got '%s'", name)
	}
}

// TestNewMySQLStore_UnsupportedEdition tests that the edition is checked before connecting
func TestNewMySQLStore_UnsupportedEdition(t *testing.T) {
	if _, err := NewMySQLStore("user:pass@tcp(127.0.0.1:1)/db", edition.CityRev1); err == nil {
		t.Error("expected error for city edition")
	}
}
