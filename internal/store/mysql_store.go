package store

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/models"
	"github.com/evyataryagoni/geolegacy/internal/record"
)

// IPRangeModel is the GORM model for the geoip_ranges table
// GORM uses struct tags to map to database columns
type IPRangeModel struct {
	ID          uint   `gorm:"column:id;primaryKey"`
	StartNum    uint32 `gorm:"column:start_num"`
	EndNum      uint32 `gorm:"column:end_num;index"`
	CountryCode string `gorm:"column:country_code;size:2"`
	Value       string `gorm:"column:value;size:300"`
}

// TableName specifies the table name for GORM
// By default, GORM would pluralize to "ip_range_models"
func (IPRangeModel) TableName() string {
	return "geoip_ranges"
}

// MySQLStore implements Store interface using MySQL with GORM
// Ranges live in one table indexed by end_num; a lookup is a single
// range scan on that index
type MySQLStore struct {
	db      *gorm.DB
	edition edition.Edition
}

// NewMySQLStore creates a new MySQL store using GORM
//
// Parameters:
//   - dsn: Data Source Name (connection string)
//     Format: user:password@tcp(host:port)/dbname?parseTime=true
//   - e: the edition the stored ranges were exported from
func NewMySQLStore(dsn string, e edition.Edition) (*MySQLStore, error) {
	if err := checkEdition(e); err != nil {
		return nil, err
	}

	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(mysql.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL with GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	return &MySQLStore{db: db, edition: e}, nil
}

// Edition returns the edition of the stored ranges
func (s *MySQLStore) Edition() edition.Edition {
	return s.edition
}

// ResolveV4 finds the range holding addr
// Query errors are reported as nothing, the same as an uncovered address
func (s *MySQLStore) ResolveV4(addr netip.Addr) (record.Raw, bool) {
	n, ok := ipToNum(addr)
	if !ok {
		return record.Raw{}, false
	}

	r, err := s.findRange(n)
	if err != nil {
		return record.Raw{}, false
	}
	return rangeRaw(s.edition, r)
}

// findRange returns the first range ending at or after n, provided it also
// starts at or before n
//
// GORM query: SELECT * FROM geoip_ranges WHERE end_num >= ? ORDER BY end_num LIMIT 1
func (s *MySQLStore) findRange(n uint32) (models.IPRange, error) {
	var row IPRangeModel

	result := s.db.Where("end_num >= ?", n).Order("end_num").Take(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return models.IPRange{}, fmt.Errorf("IP address not found")
		}
		return models.IPRange{}, fmt.Errorf("database query failed: %w", result.Error)
	}

	r := models.IPRange{
		StartNum:    row.StartNum,
		EndNum:      row.EndNum,
		CountryCode: row.CountryCode,
		Value:       row.Value,
	}
	if !r.Contains(n) {
		return models.IPRange{}, fmt.Errorf("IP address not found")
	}
	return r, nil
}

// ResolveV6 always reports nothing: range tables are IPv4 only
func (s *MySQLStore) ResolveV6(netip.Addr) (record.Raw, bool) {
	return record.Raw{}, false
}

// Close closes the database connection
// Should be called when the application shuts down
func (s *MySQLStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
