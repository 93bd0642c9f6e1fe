package limiter

import (
	"fmt"
	"strings"
)

// Limiter backends
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// LimiterConfig selects and configures a rate limiter
type LimiterConfig struct {
	Type              string  // "memory" (default) or "redis"
	RequestsPerSecond float64 // per client; fractional rates allowed

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewLimiter builds the limiter named by cfg.Type
func NewLimiter(cfg LimiterConfig) (Limiter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case TypeMemory, "":
		return NewMemoryLimiter(cfg.RequestsPerSecond), nil

	case TypeRedis:
		rl, err := NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RequestsPerSecond)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis limiter: %w", err)
		}
		return rl, nil

	default:
		return nil, fmt.Errorf("unknown rate limiter type: %s (supported: '%s', '%s')", cfg.Type, TypeMemory, TypeRedis)
	}
}
