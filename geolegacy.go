// Package geolegacy resolves IP addresses against legacy GeoIP databases and
// returns results in one nested shape regardless of the database edition.
//
// Databases are opened once per process: Open with the same identity returns
// the same Handle, and the options of later calls are ignored. Handles are
// safe for concurrent use and live until the process exits.
//
//	h, err := geolegacy.Open("/usr/share/GeoIP/GeoLiteCity.dat", nil)
//	if err != nil {
//		return err
//	}
//	if res := h.Get("12.34.56.78"); res != nil {
//		fmt.Println(res.City.Names["en"])
//	}
package geolegacy

import (
	"fmt"
	"net/netip"
	"path/filepath"

	"github.com/evyataryagoni/geolegacy/internal/dispatch"
	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/geodat"
	"github.com/evyataryagoni/geolegacy/internal/models"
	"github.com/evyataryagoni/geolegacy/internal/normalize"
	"github.com/evyataryagoni/geolegacy/internal/record"
	"github.com/evyataryagoni/geolegacy/internal/registry"
	"github.com/evyataryagoni/geolegacy/internal/store"
)

// Result types of Get.
type (
	Result    = models.Result
	City      = models.City
	Postal    = models.Postal
	Continent = models.Continent
	Country   = models.Country
	Location  = models.Location
	Traits    = models.Traits
)

// Edition identifies the record schema of a database.
type Edition = edition.Edition

// CacheMode selects how a .dat file is accessed.
type CacheMode = geodat.CacheMode

const (
	CacheStandard = geodat.CacheStandard
	CacheMemory   = geodat.CacheMemory
	CacheMMap     = geodat.CacheMMap
)

// Options configure the first Open of an identity.
type Options struct {
	// Backend is "dat" (the default), "csv", "mysql" or "redis".
	Backend string

	// Cache applies to .dat files only.
	Cache CacheMode

	// Edition names the data behind a range backend. Defaults to country.
	Edition Edition

	// Redis settings; the identity is the server address.
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

// Handle is an opened database.
type Handle struct {
	identity string
	backend  string
	store    store.Store
}

var handles registry.Registry[*Handle]

// Open returns the handle for identity, opening it on first use. For the
// file backends identity is a path and is cleaned to an absolute path, so
// different spellings of one file share a handle. For MySQL it is the DSN,
// for Redis the server address.
//
// Options only count on the first successful open of an identity; once a
// handle exists it is returned whatever opts say. A failed open is not
// remembered; calling Open again retries.
func Open(identity string, opts *Options) (*Handle, error) {
	if h, ok := opened(identity); ok {
		return h, nil
	}

	if opts == nil {
		opts = &Options{}
	}

	backend, err := store.NormalizeBackend(opts.Backend)
	if err != nil {
		return nil, err
	}

	id, err := canonical(identity, backend)
	if err != nil {
		return nil, err
	}

	return handles.Open(id, func() (*Handle, error) {
		s, err := store.NewStore(store.Config{
			Type:          backend,
			Source:        id,
			Cache:         opts.Cache,
			Edition:       opts.Edition,
			RedisPassword: opts.RedisPassword,
			RedisDB:       opts.RedisDB,
			RedisKey:      opts.RedisKey,
		})
		if err != nil {
			return nil, fmt.Errorf("geolegacy: open %s: %w", identity, err)
		}
		return &Handle{identity: id, backend: backend, store: s}, nil
	})
}

// FromStore wraps an already opened store in a handle without registering
// it. The process-wide registry is bypassed, so two calls give two handles.
func FromStore(identity, backend string, s store.Store) *Handle {
	return &Handle{identity: identity, backend: backend, store: s}
}

// opened finds an existing handle for identity under either of the forms
// canonical can register it as, before options are looked at.
func opened(identity string) (*Handle, bool) {
	if identity == "" {
		return nil, false
	}
	if h, ok := handles.Lookup(identity); ok {
		return h, true
	}
	if abs, err := filepath.Abs(identity); err == nil {
		return handles.Lookup(abs)
	}
	return nil, false
}

func canonical(identity, backend string) (string, error) {
	if identity == "" {
		return "", fmt.Errorf("geolegacy: empty database identity")
	}
	if backend != store.BackendDat && backend != store.BackendCSV {
		return identity, nil
	}
	abs, err := filepath.Abs(identity)
	if err != nil {
		return "", fmt.Errorf("geolegacy: resolve %s: %w", identity, err)
	}
	return abs, nil
}

// Get looks up ip. It returns nil when ip does not parse, when the database
// has no record for it, or when the edition has no decoder for the address
// family. Dotted quads use the IPv4 tree; any IPv6 spelling, including
// IPv4-mapped forms, uses the IPv6 tree.
func (h *Handle) Get(ip string) *Result {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil
	}
	addr = addr.WithZone("")

	e := h.store.Edition()
	family := edition.IPv6
	if addr.Is4() {
		family = edition.IPv4
	}
	if !dispatch.Supports(e, family) {
		return nil
	}

	raw, ok := h.resolve(addr, family)
	if !ok {
		return nil
	}

	d, ok := dispatch.Dispatch(e, raw, family)
	if !ok {
		return nil
	}
	return normalize.Normalize(ip, d, e)
}

func (h *Handle) resolve(addr netip.Addr, family edition.Family) (record.Raw, bool) {
	if family == edition.IPv4 {
		return h.store.ResolveV4(addr)
	}
	return h.store.ResolveV6(addr)
}

// Edition returns the edition of the database behind h.
func (h *Handle) Edition() Edition {
	return h.store.Edition()
}

// Identity returns the canonical identity h was registered under.
func (h *Handle) Identity() string {
	return h.identity
}

// Backend returns the backend name h was opened with.
func (h *Handle) Backend() string {
	return h.backend
}

// Validate reports whether path is a structurally sound .dat file. It does
// not register a handle.
func Validate(path string) bool {
	return geodat.Validate(path)
}

// Opened returns the identities of every handle opened so far.
func Opened() []string {
	return handles.Identities()
}
