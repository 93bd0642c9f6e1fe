package config

import (
	"reflect"
	"testing"
)

// TestFromEnv_Defaults tests defaults when nothing is set
func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATASTORE_TYPE", "DATASTORE_PATH", "CACHE_MODE", "LOG_PRETTY", "RATE_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	if cfg.Port != "3000" {
		t.Errorf("expected port 3000, got %s", cfg.Port)
	}
	if cfg.DatastoreType != "dat" {
		t.Errorf("expected datastore type dat, got %s", cfg.DatastoreType)
	}
	if !reflect.DeepEqual(cfg.DatastorePaths, []string{"./data/GeoIP.dat"}) {
		t.Errorf("unexpected default paths %v", cfg.DatastorePaths)
	}
	if cfg.CacheMode != "standard" {
		t.Errorf("expected cache mode standard, got %s", cfg.CacheMode)
	}
	if !cfg.LogPretty {
		t.Error("expected pretty logging by default")
	}
	if cfg.RedisKey != "geoip:ranges" {
		t.Errorf("expected redis key geoip:ranges, got %s", cfg.RedisKey)
	}
}

// TestFromEnv_Overrides tests parsing of set variables
func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATASTORE_TYPE", "csv")
	t.Setenv("DATASTORE_PATH", " /data/GeoIP.dat, ,/data/GeoIPCity.dat ")
	t.Setenv("DATASTORE_EDITION", "asnum")
	t.Setenv("CACHE_MODE", "mmap")
	t.Setenv("LOG_PRETTY", "false")
	t.Setenv("REDIS_DB", "3")

	cfg := FromEnv()

	want := []string{"/data/GeoIP.dat", "/data/GeoIPCity.dat"}
	if !reflect.DeepEqual(cfg.DatastorePaths, want) {
		t.Errorf("expected paths %v, got %v", want, cfg.DatastorePaths)
	}
	if cfg.DatastoreEdition != "asnum" || cfg.CacheMode != "mmap" {
		t.Errorf("unexpected edition/cache %s/%s", cfg.DatastoreEdition, cfg.CacheMode)
	}
	if cfg.LogPretty {
		t.Error("expected pretty logging disabled")
	}
	if cfg.RedisDB != 3 {
		t.Errorf("expected redis db 3, got %d", cfg.RedisDB)
	}
}

// TestFromEnv_InvalidNumbers tests fallback on unparsable values
func TestFromEnv_InvalidNumbers(t *testing.T) {
	t.Setenv("RATE_LIMIT", "lots")
	t.Setenv("REDIS_DB", "x")
	t.Setenv("LOG_PRETTY", "maybe")

	cfg := FromEnv()

	if cfg.RateLimit != 10 {
		t.Errorf("expected default rate limit 10, got %d", cfg.RateLimit)
	}
	if cfg.RedisDB != 0 {
		t.Errorf("expected default redis db 0, got %d", cfg.RedisDB)
	}
	if !cfg.LogPretty {
		t.Error("expected default pretty logging")
	}
}

// TestRequestsPerSecond tests the effective rate calculation
func TestRequestsPerSecond(t *testing.T) {
	tests := []struct {
		limit, window int
		want          float64
	}{
		{limit: 10, window: 1, want: 10},
		{limit: 10, window: 5, want: 2},
		{limit: 1, window: 5, want: 0.2},
		{limit: 4, window: 0, want: 4},
	}

	for _, tt := range tests {
		cfg := &Config{RateLimit: tt.limit, RateLimitWindow: tt.window}
		if got := cfg.RequestsPerSecond(); got != tt.want {
			t.Errorf("RequestsPerSecond(%d/%d) = %v, want %v", tt.limit, tt.window, got, tt.want)
		}
	}
}
