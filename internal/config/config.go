package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Logging
	LogLevel  string
	LogPretty bool

	// Rate limiting
	RateLimitType   string // "memory" or "redis"
	RateLimit       int    // number of requests allowed
	RateLimitWindow int    // time window in seconds (default: 1)

	// Datastore configuration
	DatastoreType    string   // "dat", "csv", "mysql" or "redis"
	DatastorePaths   []string // .dat files or a CSV export
	DatastoreEdition string   // edition served by csv/mysql/redis; .dat files carry their own
	CacheMode        string   // "standard", "memory" or "mmap" for .dat files

	// MySQL configuration
	MySQLDSN string // Data Source Name

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

// Load reads configuration from a .env file, if present, and the environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}
	return FromEnv()
}

// FromEnv reads configuration from environment variables only
func FromEnv() *Config {
	return &Config{
		Port: getEnv("PORT", "3000"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),

		RateLimitType:   getEnv("RATE_LIMITER_TYPE", "memory"),
		RateLimit:       getEnvAsInt("RATE_LIMIT", 10),
		RateLimitWindow: getEnvAsInt("RATE_LIMIT_WINDOW", 1),

		DatastoreType:    getEnv("DATASTORE_TYPE", "dat"),
		DatastorePaths:   getEnvAsList("DATASTORE_PATH", []string{"./data/GeoIP.dat"}),
		DatastoreEdition: getEnv("DATASTORE_EDITION", "country"),
		CacheMode:        getEnv("CACHE_MODE", "standard"),

		MySQLDSN: getEnv("MYSQL_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RedisKey:      getEnv("REDIS_KEY", "geoip:ranges"),
	}
}

// RequestsPerSecond is the effective rate, e.g. 10 per 5 seconds = 2.0
func (c *Config) RequestsPerSecond() float64 {
	window := c.RateLimitWindow
	if window <= 0 {
		window = 1
	}
	return float64(c.RateLimit) / float64(window)
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt reads an environment variable as an integer
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool accepts anything strconv.ParseBool does
func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated variable, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
