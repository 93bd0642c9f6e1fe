package limiter

import (
	"sync"
	"time"
)

// Limiter decides whether a request keyed by client address may proceed
type Limiter interface {
	// Allow reports whether one more request for key fits the budget
	Allow(key string) bool

	// Close releases connections held by the limiter
	Close() error
}

// idleBucketTTL is how long an untouched bucket survives a sweep
const idleBucketTTL = 5 * time.Minute

// bucket is a token bucket for a single key. It starts full and refills
// continuously at rate tokens per second up to capacity.
type bucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	last     time.Time
}

func newBucket(rate, capacity float64, now time.Time) *bucket {
	capacity = max(capacity, 1.0) // fractional rates still admit one request
	return &bucket{
		tokens:   capacity,
		capacity: capacity,
		rate:     rate,
		last:     now,
	}
}

func (b *bucket) take(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+elapsed*b.rate, b.capacity)
		b.last = now
	}

	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

func (b *bucket) idleSince(now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.last)
}

// MemoryLimiter keeps one token bucket per key in process memory.
// Use it for a single instance; replicas each get their own budget.
type MemoryLimiter struct {
	buckets sync.Map // key -> *bucket
	rate    float64

	sweepMu   sync.Mutex
	lastSweep time.Time

	now func() time.Time
}

// NewMemoryLimiter creates a limiter allowing requestsPerSecond per key with a
// burst of one second's worth of requests. Fractional rates such as 0.2 are
// allowed.
func NewMemoryLimiter(requestsPerSecond float64) *MemoryLimiter {
	return &MemoryLimiter{
		rate:      requestsPerSecond,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow consumes one token from key's bucket
func (rl *MemoryLimiter) Allow(key string) bool {
	now := rl.now()

	v, ok := rl.buckets.Load(key)
	if !ok {
		v, _ = rl.buckets.LoadOrStore(key, newBucket(rl.rate, rl.rate, now))
	}
	allowed := v.(*bucket).take(now)

	rl.sweep(now)
	return allowed
}

// Len returns the number of tracked keys
func (rl *MemoryLimiter) Len() int {
	n := 0
	rl.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// sweep drops buckets idle for longer than idleBucketTTL, at most once per TTL
func (rl *MemoryLimiter) sweep(now time.Time) {
	rl.sweepMu.Lock()
	defer rl.sweepMu.Unlock()

	if now.Sub(rl.lastSweep) < idleBucketTTL {
		return
	}

	rl.buckets.Range(func(key, value any) bool {
		if value.(*bucket).idleSince(now) >= idleBucketTTL {
			rl.buckets.Delete(key)
		}
		return true
	})
	rl.lastSweep = now
}

// Close is a no-op for the in-memory limiter
func (rl *MemoryLimiter) Close() error {
	return nil
}
