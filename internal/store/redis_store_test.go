package store

import (
	"net/netip"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/evyataryagoni/geolegacy/internal/decoder"
	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/models"
)

// setupRedisStore starts a mock Redis server and connects a store to it
func setupRedisStore(t *testing.T, e edition.Edition) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(RedisConfig{Addr: mr.Addr()}, e)
	if err != nil {
		t.Fatalf("failed to connect to Redis: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store, mr
}

// TestRedisStore_Connection tests Redis connection
func TestRedisStore_Connection(t *testing.T) {
	store, _ := setupRedisStore(t, edition.Country)

	if store.client == nil {
		t.Error("expected client to be initialized")
	}
	if store.key != DefaultRedisKey {
		t.Errorf("expected default key '%s', got '%s'", DefaultRedisKey, store.key)
	}
}

// TestRedisStore_ConnectionFailure tests connection errors
func TestRedisStore_ConnectionFailure(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{Addr: "invalid:9999"}, edition.Country)

	if err == nil {
		t.Error("expected connection error, got nil")
	}
}

// TestRedisStore_ResolveV4 tests range lookups against the sorted set
func TestRedisStore_ResolveV4(t *testing.T) {
	store, _ := setupRedisStore(t, edition.Country)

	ranges := []models.IPRange{
		{StartNum: 16777216, EndNum: 16777471, CountryCode: "AU", Value: "Australia"},
		{StartNum: 134744064, EndNum: 134744319, CountryCode: "US", Value: "United States"},
		{StartNum: 34603008, EndNum: 34668543, CountryCode: "FR", Value: "France"},
	}
	for _, r := range ranges {
		if err := store.Set(r); err != nil {
			t.Fatalf("failed to set data: %v", err)
		}
	}

	tests := []struct {
		ip      string
		country string
		found   bool
	}{
		{"1.0.0.0", "AU", true},
		{"1.0.0.255", "AU", true},
		{"8.8.8.8", "US", true},
		{"2.16.0.1", "FR", true},
		{"1.0.1.0", "", false},
		{"200.1.1.1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			raw, ok := store.ResolveV4(netip.MustParseAddr(tt.ip))
			if ok != tt.found {
				t.Fatalf("expected found=%v, got %v", tt.found, ok)
			}
			if !tt.found {
				return
			}
			want, _ := decoder.CountryIndex(tt.country)
			if raw.Index != want {
				t.Errorf("expected index %d (%s), got %d", want, tt.country, raw.Index)
			}
		})
	}
}

// TestRedisStore_ResolveV6 tests that IPv6 is never covered
func TestRedisStore_ResolveV6(t *testing.T) {
	store, _ := setupRedisStore(t, edition.Country)

	if _, ok := store.ResolveV6(netip.MustParseAddr("::1")); ok {
		t.Error("expected no record")
	}
}

// TestRedisStore_Set_Invalid tests rejecting an inverted range
func TestRedisStore_Set_Invalid(t *testing.T) {
	store, _ := setupRedisStore(t, edition.Country)

	if err := store.Set(models.IPRange{StartNum: 10, EndNum: 5, CountryCode: "US"}); err == nil {
		t.Error("expected error for inverted range")
	}
}

// TestRedisStore_CorruptMember tests that undecodable members read as nothing
func TestRedisStore_CorruptMember(t *testing.T) {
	store, mr := setupRedisStore(t, edition.Country)

	if _, err := mr.ZAdd(DefaultRedisKey, 200, "not json"); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	if _, ok := store.ResolveV4(netip.MustParseAddr("0.0.0.100")); ok {
		t.Error("expected no record for a corrupt member")
	}
}

// TestRedisStore_IsEmpty tests checking if the set holds ranges
func TestRedisStore_IsEmpty(t *testing.T) {
	store, _ := setupRedisStore(t, edition.Country)

	isEmpty, err := store.IsEmpty()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isEmpty {
		t.Error("expected Redis to be empty")
	}

	if err := store.Set(models.IPRange{StartNum: 1, EndNum: 2, CountryCode: "US"}); err != nil {
		t.Fatalf("failed to set data: %v", err)
	}

	isEmpty, err = store.IsEmpty()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isEmpty {
		t.Error("expected Redis to not be empty")
	}
}

// TestRedisStore_LoadFromCSV tests loading a legacy export
func TestRedisStore_LoadFromCSV(t *testing.T) {
	store, mr := setupRedisStore(t, edition.ASNum)

	count, err := store.LoadFromCSV(writeCSV(t, []byte(asnCSV)))
	if err != nil {
		t.Fatalf("failed to load CSV: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 ranges loaded, got %d", count)
	}

	members, err := mr.ZMembers(DefaultRedisKey)
	if err != nil {
		t.Fatalf("failed to read members: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %d", len(members))
	}

	raw, ok := store.ResolveV4(netip.MustParseAddr("8.8.8.8"))
	if !ok {
		t.Fatal("expected a record for 8.8.8.8")
	}
	if v := decoder.Organization(raw).Value; v != "AS15169 Google Inc." {
		t.Errorf("expected 'AS15169 Google Inc.', got '%s'", v)
	}
}

// TestRedisStore_LoadFromCSV_FileNotFound tests loading error handling
func TestRedisStore_LoadFromCSV_FileNotFound(t *testing.T) {
	store, _ := setupRedisStore(t, edition.Country)

	if _, err := store.LoadFromCSV("/nonexistent/file.csv"); err == nil {
		t.Error("expected error for nonexistent file, got nil")
	}
}

// TestRedisStore_CustomKey tests isolating data under a custom key
func TestRedisStore_CustomKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	store, err := NewRedisStore(RedisConfig{Addr: mr.Addr(), Key: "geoip:asn"}, edition.ASNum)
	if err != nil {
		t.Fatalf("failed to connect to Redis: %v", err)
	}
	defer store.Close()

	if err := store.Set(models.IPRange{StartNum: 1, EndNum: 2, Value: "AS1 Example"}); err != nil {
		t.Fatalf("failed to set data: %v", err)
	}

	if !mr.Exists("geoip:asn") {
		t.Error("expected data under the custom key")
	}
	if mr.Exists(DefaultRedisKey) {
		t.Error("expected nothing under the default key")
	}
}

// TestRedisStore_Close tests closing the connection
func TestRedisStore_Close(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	store, err := NewRedisStore(RedisConfig{Addr: mr.Addr()}, edition.Country)
	if err != nil {
		t.Fatalf("failed to connect to Redis: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
