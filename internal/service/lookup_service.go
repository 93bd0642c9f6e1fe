package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/evyataryagoni/geolegacy"
	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/logger"
	"github.com/evyataryagoni/geolegacy/internal/metrics"
	"github.com/evyataryagoni/geolegacy/internal/models"
	"github.com/evyataryagoni/geolegacy/internal/store"
)

// Errors returned by LookupService; compare with errors.Is
var (
	ErrInvalidIP       = errors.New("invalid IP address format")
	ErrNotFound        = errors.New("IP address not found")
	ErrUnknownDatabase = errors.New("unknown database")
)

// Database is an opened database the service can query
// *geolegacy.Handle implements it
type Database interface {
	Get(ip string) *models.Result
	Edition() edition.Edition
	Identity() string
	Backend() string
}

type namedDatabase struct {
	name string
	db   Database
	log  *logger.Logger
}

// LookupService handles business logic for IP lookups
// This is the service layer - it sits between handlers and databases
//
// Responsibilities:
//   - Validate input (IP format)
//   - Pick the database by name
//   - Map "nothing" results to ErrNotFound
//   - Record metrics and logs
type LookupService struct {
	mu        sync.RWMutex
	databases map[string]*namedDatabase
	order     []string // registration order; the first is the default

	validator *validator.Validate
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewLookupService creates a new lookup service with no databases
//
// Parameters:
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
func NewLookupService(m *metrics.Metrics, log *logger.Logger) *LookupService {
	if log == nil {
		log = logger.NewDefault()
	}
	return &LookupService{
		databases: make(map[string]*namedDatabase),
		validator: validator.New(),
		metrics:   m,
		logger:    log.WithComponent("LookupService"),
	}
}

// unknownBackend labels opens whose backend name is not recognized
const unknownBackend = "unknown"

// Open opens a database through the process-wide registry and registers it
// under name
func (s *LookupService) Open(name, identity string, opts *geolegacy.Options) error {
	var requested string
	if opts != nil {
		requested = opts.Backend
	}
	backend, err := store.NormalizeBackend(requested)
	if err != nil {
		backend = unknownBackend
	}

	h, err := geolegacy.Open(identity, opts)
	if err != nil {
		s.logger.Error().Err(err).
			Str("database", name).
			Str("backend", backend).
			Msg("Failed to open database")
		if s.metrics != nil {
			s.metrics.DatabaseOpensTotal.WithLabelValues(backend, "error").Inc()
		}
		return err
	}

	if s.metrics != nil {
		s.metrics.DatabaseOpensTotal.WithLabelValues(h.Backend(), "success").Inc()
	}
	return s.Register(name, h)
}

// Register adds an already opened database under name
func (s *LookupService) Register(name string, db Database) error {
	if name == "" {
		return fmt.Errorf("database name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.databases[name]; exists {
		return fmt.Errorf("database %q is already registered", name)
	}

	ed := db.Edition().String()
	s.databases[name] = &namedDatabase{
		name: name,
		db:   db,
		log:  s.logger.WithDatabase(name, ed),
	}
	s.order = append(s.order, name)

	s.logger.Info().
		Str("database", name).
		Str("identity", db.Identity()).
		Str("backend", db.Backend()).
		Str("edition", ed).
		Msg("Database registered")
	if s.metrics != nil {
		s.metrics.DatabasesOpen.Set(float64(len(s.databases)))
	}
	return nil
}

// Lookup resolves ip against the database called name, or against the first
// registered database when name is empty
//
// Returns:
//   - ErrInvalidIP when ip is not an IPv4 or IPv6 address
//   - ErrUnknownDatabase when no database is registered under name
//   - ErrNotFound when the database has nothing for ip
func (s *LookupService) Lookup(ip, name string) (*models.Result, error) {
	if err := s.validator.Var(ip, "required,ip"); err != nil {
		s.logger.Warn().Str("ip", ip).Msg("Invalid IP address format")
		s.countError("validation")
		return nil, ErrInvalidIP
	}

	d, err := s.database(name)
	if err != nil {
		s.logger.Warn().Str("database", name).Msg("Unknown database")
		s.countError("unknown_database")
		return nil, err
	}

	log := d.log.WithIP(ip)
	log.Debug().Msg("Looking up IP address")

	start := time.Now()
	res := d.db.Get(ip)
	if s.metrics != nil {
		s.metrics.LookupDuration.WithLabelValues(d.name).Observe(time.Since(start).Seconds())
	}

	if res == nil {
		log.Debug().Msg("IP address not found")
		s.countLookup(d, "not_found")
		return nil, ErrNotFound
	}

	log.Debug().Msg("IP lookup successful")
	s.countLookup(d, "success")
	return res, nil
}

func (s *LookupService) database(name string) (*namedDatabase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == "" {
		if len(s.order) == 0 {
			return nil, fmt.Errorf("%w: no databases loaded", ErrUnknownDatabase)
		}
		name = s.order[0]
	}

	d, ok := s.databases[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDatabase, name)
	}
	return d, nil
}

// Databases describes the registered databases in registration order
func (s *LookupService) Databases() []models.DatabaseInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DatabaseInfo, 0, len(s.order))
	for _, name := range s.order {
		db := s.databases[name].db
		out = append(out, models.DatabaseInfo{
			Name:     name,
			Identity: db.Identity(),
			Backend:  db.Backend(),
			Edition:  db.Edition().String(),
		})
	}
	return out
}

func (s *LookupService) countLookup(d *namedDatabase, result string) {
	if s.metrics != nil {
		s.metrics.LookupsTotal.WithLabelValues(d.name, d.db.Edition().String(), result).Inc()
	}
}

func (s *LookupService) countError(kind string) {
	if s.metrics != nil {
		s.metrics.LookupErrors.WithLabelValues(kind).Inc()
	}
}
