package main

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/evyataryagoni/geolegacy"
	"github.com/evyataryagoni/geolegacy/internal/config"
	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/geodat"
	"github.com/evyataryagoni/geolegacy/internal/handler"
	"github.com/evyataryagoni/geolegacy/internal/limiter"
	"github.com/evyataryagoni/geolegacy/internal/logger"
	"github.com/evyataryagoni/geolegacy/internal/metrics"
	"github.com/evyataryagoni/geolegacy/internal/router"
	"github.com/evyataryagoni/geolegacy/internal/service"
	"github.com/evyataryagoni/geolegacy/internal/store"
)

func main() {
	appConfig := config.Load()

	appLogger := setupLogger(appConfig)

	registry, metricsCollector := setupMetrics(appLogger)

	lookupService := service.NewLookupService(metricsCollector, appLogger)
	setupDatabases(appConfig, lookupService, appLogger)

	rateLimiter := setupRateLimiter(appConfig, appLogger)
	defer rateLimiter.Close()

	lookupHandler := handler.NewLookupHandler(lookupService)
	appRouter := router.SetupRouter(lookupHandler, rateLimiter, metricsCollector, registry, appLogger)

	startServer(appConfig, appRouter, appLogger)
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:  appConfig.LogLevel,
		Pretty: appConfig.LogPretty,
	})

	appLogger.Info().Msg("Starting geolegacy server...")
	appLogger.Info().
		Str("port", appConfig.Port).
		Str("rate_limiter_type", appConfig.RateLimitType).
		Int("rate_limit", appConfig.RateLimit).
		Int("rate_limit_window", appConfig.RateLimitWindow).
		Str("datastore_type", appConfig.DatastoreType).
		Strs("datastore_path", appConfig.DatastorePaths).
		Str("cache_mode", appConfig.CacheMode).
		Msg("Configuration loaded")

	return appLogger
}

// setupMetrics creates a registry with the Go and process collectors plus
// the application metrics
func setupMetrics(log *logger.Logger) (*prometheus.Registry, *metrics.Metrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsCollector := metrics.New(registry)
	log.Info().Msg("Metrics initialized")
	return registry, metricsCollector
}

// setupDatabases opens the configured databases and registers them with the
// service. Every .dat path becomes its own database, named after the file.
func setupDatabases(appConfig *config.Config, svc *service.LookupService, log *logger.Logger) {
	backend, err := store.NormalizeBackend(appConfig.DatastoreType)
	if err != nil {
		log.Fatal().Err(err).Msg("Unknown datastore type")
	}

	cache, err := geodat.ParseCacheMode(appConfig.CacheMode)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid cache mode")
	}

	ed, err := edition.Parse(appConfig.DatastoreEdition)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid datastore edition")
	}

	opts := &geolegacy.Options{
		Backend:       backend,
		Cache:         cache,
		Edition:       ed,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
		RedisKey:      appConfig.RedisKey,
	}

	switch backend {
	case store.BackendDat:
		for _, path := range appConfig.DatastorePaths {
			if !geolegacy.Validate(path) {
				log.Warn().Str("path", path).Msg("Database failed validation, opening anyway")
			}
			if err := svc.Open(databaseName(path), path, opts); err != nil {
				log.Fatal().Err(err).Str("path", path).Msg("Failed to open database")
			}
		}

	case store.BackendCSV:
		if err := svc.Open(backend, appConfig.DatastorePaths[0], opts); err != nil {
			log.Fatal().Err(err).Msg("Failed to open CSV database")
		}

	case store.BackendMySQL:
		if err := svc.Open(backend, appConfig.MySQLDSN, opts); err != nil {
			log.Fatal().Err(err).Msg("Failed to open MySQL database")
		}

	case store.BackendRedis:
		seedRedisIfEmpty(appConfig, ed, log)
		if err := svc.Open(backend, appConfig.RedisAddr, opts); err != nil {
			log.Fatal().Err(err).Msg("Failed to open Redis database")
		}
	}
}

// databaseName turns "/data/GeoIPCity.dat" into "geoipcity"
func databaseName(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// seedRedisIfEmpty loads the configured CSV export into an empty range set
func seedRedisIfEmpty(appConfig *config.Config, ed edition.Edition, log *logger.Logger) {
	redisStore, err := store.NewRedisStore(store.RedisConfig{
		Addr:     appConfig.RedisAddr,
		Password: appConfig.RedisPassword,
		DB:       appConfig.RedisDB,
		Key:      appConfig.RedisKey,
	}, ed)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisStore.Close()

	isEmpty, err := redisStore.IsEmpty()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to check if Redis is empty")
		return
	}
	if !isEmpty {
		return
	}

	csvPath := appConfig.DatastorePaths[0]
	log.Info().Str("path", csvPath).Msg("Redis is empty, loading ranges from CSV")
	n, err := redisStore.LoadFromCSV(csvPath)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load ranges")
		return
	}
	log.Info().Int("ranges", n).Msg("Ranges loaded")
}

// setupRateLimiter initializes the memory or Redis rate limiter
func setupRateLimiter(appConfig *config.Config, log *logger.Logger) limiter.Limiter {
	rate := appConfig.RequestsPerSecond()

	rateLimiter, err := limiter.NewLimiter(limiter.LimiterConfig{
		Type:              appConfig.RateLimitType,
		RequestsPerSecond: rate,
		RedisAddr:         appConfig.RedisAddr,
		RedisPassword:     appConfig.RedisPassword,
		RedisDB:           appConfig.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rate limiter")
	}

	log.Info().
		Str("type", appConfig.RateLimitType).
		Float64("requests_per_second", rate).
		Msg("Rate limiter initialized")

	return rateLimiter
}

// startServer starts the HTTP server and blocks
func startServer(appConfig *config.Config, appRouter http.Handler, log *logger.Logger) {
	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().
		Str("port", appConfig.Port).
		Str("api_endpoint", "http://localhost:"+appConfig.Port+"/v1/lookup?ip=<ip>").
		Str("databases", "http://localhost:"+appConfig.Port+"/v1/databases").
		Str("health_check", "http://localhost:"+appConfig.Port+"/health").
		Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
		Msg("Server is running")

	log.Fatal().Err(server.ListenAndServe()).Msg("Server failed")
}
