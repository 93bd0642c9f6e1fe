package store

import (
	"fmt"
	"strings"

	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/geodat"
)

// Backend names accepted by NewStore
const (
	BackendDat   = "dat"
	BackendCSV   = "csv"
	BackendMySQL = "mysql"
	BackendRedis = "redis"
)

var _ Store = (*geodat.DB)(nil)

// Config holds configuration for creating a store
type Config struct {
	Type   string // "dat", "csv", "mysql" or "redis"
	Source string // file path, MySQL DSN or Redis address

	// dat-specific config
	Cache geodat.CacheMode

	// Edition of the data behind a range backend; .dat files carry their own
	Edition edition.Edition

	// Redis-specific config
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

// NormalizeBackend lowercases a backend name, mapping the empty string to
// BackendDat
func NormalizeBackend(name string) (string, error) {
	switch b := strings.ToLower(strings.TrimSpace(name)); b {
	case "":
		return BackendDat, nil
	case BackendDat, BackendCSV, BackendMySQL, BackendRedis:
		return b, nil
	}
	return "", fmt.Errorf("unknown datastore type: %s (supported: 'dat', 'csv', 'mysql', 'redis')", name)
}

// NewStore creates a store based on the configuration (factory pattern)
func NewStore(cfg Config) (Store, error) {
	backend, err := NormalizeBackend(cfg.Type)
	if err != nil {
		return nil, err
	}

	e := cfg.Edition
	if e == 0 {
		e = edition.Country
	}

	switch backend {
	case BackendDat:
		db, err := geodat.Open(cfg.Source, cfg.Cache)
		if err != nil {
			return nil, err
		}
		return db, nil

	case BackendCSV:
		s, err := NewCSVStore(cfg.Source, e)
		if err != nil {
			return nil, err
		}
		return s, nil

	case BackendMySQL:
		s, err := NewMySQLStore(cfg.Source, e)
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		s, err := NewRedisStore(RedisConfig{
			Addr:     cfg.Source,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		}, e)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
