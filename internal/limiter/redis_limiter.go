package limiter

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces limiter counters next to the range ZSET
const DefaultRedisKeyPrefix = "geolegacy:ratelimit"

// fixedWindow increments the window counter and arms its expiry on first use
var fixedWindow = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter is a fixed-window counter shared by every instance talking to
// the same Redis. Counter keys look like "<prefix>:<key>:<window>".
type RedisLimiter struct {
	client *redis.Client
	prefix string
	window time.Duration
	limit  int64

	now func() time.Time
}

// NewRedisLimiter connects to Redis and verifies the connection with PING.
// Rates below one request per second stretch the window to 1/rate seconds.
func NewRedisLimiter(addr, password string, db int, requestsPerSecond float64) (*RedisLimiter, error) {
	if requestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests per second must be positive, got %v", requestsPerSecond)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %w", err)
	}

	window := time.Second
	if requestsPerSecond < 1.0 {
		window = time.Duration(math.Ceil(1/requestsPerSecond)) * time.Second
	}

	return &RedisLimiter{
		client: client,
		prefix: DefaultRedisKeyPrefix,
		window: window,
		limit:  int64(math.Ceil(requestsPerSecond * window.Seconds())),
		now:    time.Now,
	}, nil
}

// Allow counts the request in key's current window. Redis failures let the
// request through.
func (rl *RedisLimiter) Allow(key string) bool {
	secs := int64(rl.window / time.Second)
	slot := rl.now().Unix() / secs
	counter := fmt.Sprintf("%s:%s:%d", rl.prefix, key, slot)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	count, err := fixedWindow.Run(ctx, rl.client, []string{counter}, secs*2).Int64()
	if err != nil {
		return true
	}
	return count <= rl.limit
}

// Close closes the Redis connection
func (rl *RedisLimiter) Close() error {
	if rl.client != nil {
		return rl.client.Close()
	}
	return nil
}
