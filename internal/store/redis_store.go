package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/models"
	"github.com/evyataryagoni/geolegacy/internal/record"
)

// DefaultRedisKey is the sorted set ranges are stored under
const DefaultRedisKey = "geoip:ranges"

// RedisConfig holds the connection settings of a RedisStore
type RedisConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string // empty string if no password
	DB       int    // 0-15, default is 0
	Key      string // sorted set name, DefaultRedisKey when empty
}

// RedisStore implements Store interface using Redis
//
// Ranges are members of one sorted set, scored by their end address and
// encoded as JSON. The range holding an address is the first member whose
// score is at least the address.
type RedisStore struct {
	client  *redis.Client
	ctx     context.Context
	key     string
	edition edition.Edition
}

// NewRedisStore creates a new Redis store and checks the connection
func NewRedisStore(cfg RedisConfig, e edition.Edition) (*RedisStore, error) {
	if err := checkEdition(e); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = DefaultRedisKey
	}

	return &RedisStore{
		client:  client,
		ctx:     ctx,
		key:     key,
		edition: e,
	}, nil
}

// Edition returns the edition of the stored ranges
func (s *RedisStore) Edition() edition.Edition {
	return s.edition
}

// ResolveV4 finds the range holding addr
// Query errors are reported as nothing, the same as an uncovered address
func (s *RedisStore) ResolveV4(addr netip.Addr) (record.Raw, bool) {
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

func (s *RedisStore) findRange(n uint32) (models.IPRange, error) {
	members, err := s.client.ZRangeByScore(s.ctx, s.key, &redis.ZRangeBy{
		Min:   strconv.FormatUint(uint64(n), 10),
		Max:   "+inf",
		Count: 1,
	}).Result()
	if err != nil {
		return models.IPRange{}, fmt.Errorf("Redis query failed: %w", err)
	}
	if len(members) == 0 {
		return models.IPRange{}, fmt.Errorf("IP address not found")
	}

	var r models.IPRange
	if err := json.Unmarshal([]byte(members[0]), &r); err != nil {
		return models.IPRange{}, fmt.Errorf("failed to decode IP range: %w", err)
	}
	if !r.Contains(n) {
		return models.IPRange{}, fmt.Errorf("IP address not found")
	}
	return r, nil
}

// ResolveV6 always reports nothing: stored ranges are IPv4 only
func (s *RedisStore) ResolveV6(netip.Addr) (record.Raw, bool) {
	return record.Raw{}, false
}

// Set adds a range to the sorted set
// This is a helper method for populating Redis with data
func (s *RedisStore) Set(r models.IPRange) error {
	if r.EndNum < r.StartNum {
		return errors.New("invalid range: end before start")
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode IP range: %w", err)
	}

	z := redis.Z{Score: float64(r.EndNum), Member: data}
	if err := s.client.ZAdd(s.ctx, s.key, z).Err(); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}

	return nil
}

// LoadFromCSV loads a legacy CSV export into Redis and returns the number
// of ranges written. Writes are pipelined in batches.
func (s *RedisStore) LoadFromCSV(csvPath string) (int, error) {
	csvStore, err := NewCSVStore(csvPath, s.edition)
	if err != nil {
		return 0, fmt.Errorf("failed to load CSV: %w", err)
	}
	defer csvStore.Close()

	const batchSize = 1000
	count := 0
	for start := 0; start < len(csvStore.ranges); start += batchSize {
		end := min(start+batchSize, len(csvStore.ranges))

		_, err := s.client.Pipelined(s.ctx, func(pipe redis.Pipeliner) error {
			for _, r := range csvStore.ranges[start:end] {
				data, err := json.Marshal(r)
				if err != nil {
					return fmt.Errorf("failed to encode IP range: %w", err)
				}
				pipe.ZAdd(s.ctx, s.key, redis.Z{Score: float64(r.EndNum), Member: data})
			}
			return nil
		})
		if err != nil {
			return count, fmt.Errorf("failed to store ranges: %w", err)
		}
		count += end - start
	}

	return count, nil
}

// IsEmpty checks if Redis holds any ranges
func (s *RedisStore) IsEmpty() (bool, error) {
	n, err := s.client.ZCard(s.ctx, s.key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check Redis key: %w", err)
	}
	return n == 0, nil
}

// Close closes the Redis connection
// Should be called when the application shuts down
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
