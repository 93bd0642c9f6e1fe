package main

import (
	"github.com/evyataryagoni/geolegacy/internal/config"
	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/logger"
	"github.com/evyataryagoni/geolegacy/internal/store"
)

// Loads a legacy CSV export into the Redis range set.
// Usage: DATASTORE_PATH=GeoIPCountryWhois.csv go run ./cmd/load-redis
func main() {
	appConfig := config.Load()
	log := logger.New(logger.Config{Level: appConfig.LogLevel, Pretty: appConfig.LogPretty}).
		WithComponent("load-redis")

	ed, err := edition.Parse(appConfig.DatastoreEdition)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid datastore edition")
	}

	log.Info().Str("addr", appConfig.RedisAddr).Msg("Connecting to Redis")
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

	csvPath := appConfig.DatastorePaths[0]
	log.Info().Str("path", csvPath).Str("edition", ed.String()).Msg("Loading ranges")

	n, err := redisStore.LoadFromCSV(csvPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load CSV data")
	}

	log.Info().
		Int("ranges", n).
		Str("key", appConfig.RedisKey).
		Msg("Ranges loaded; start the server with DATASTORE_TYPE=redis")
}
