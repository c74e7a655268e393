package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	apperrors "authgate/internal/errors"
	"authgate/internal/metrics"
)

// Tier is one throttling window. Requests are counted per caller across the
// whole API surface; Overrides tightens the cap for specific request paths
// without splitting the counter.
type Tier struct {
	Name      string
	Window    time.Duration
	Limit     int
	Overrides map[string]int
}

// LimitFor returns the cap that applies to the given request path.
func (t Tier) LimitFor(path string) int {
	if limit, ok := t.Overrides[path]; ok {
		return limit
	}
	return t.Limit
}

// DefaultTiers builds the standard three-window policy. The medium tier is
// deployment-tunable; short and long are fixed policy.
func DefaultTiers(mediumWindow time.Duration, mediumLimit int) []Tier {
	return []Tier{
		{
			Name:   "short",
			Window: time.Minute,
			Limit:  20,
			Overrides: map[string]int{
				"/api/auth/signup": 5,
				"/api/auth/signin": 10,
			},
		},
		{Name: "medium", Window: mediumWindow, Limit: mediumLimit},
		{Name: "long", Window: 24 * time.Hour, Limit: 1000},
	}
}

// WindowStore tracks rolling request counts per key.
type WindowStore interface {
	// Incr records one request under key and returns how many requests fall
	// inside the trailing window, this one included. Recording and counting
	// are one atomic step.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	// Name identifies the store in logs and metrics.
	Name() string
}

// RedisWindowStore keeps sliding windows in Redis sorted sets so counters are
// shared across instances. Expired members are pruned lazily on access and
// the whole key carries a TTL slightly past the window.
type RedisWindowStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisWindowStore creates a Redis-backed window store.
func NewRedisWindowStore(client *redis.Client) *RedisWindowStore {
	return &RedisWindowStore{client: client, now: time.Now}
}

func (s *RedisWindowStore) Name() string { return "redis" }

func (s *RedisWindowStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := s.now()
	cutoff := now.Add(-window).UnixNano()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return card.Val(), nil
}

// memorySweepInterval bounds how often the full key map is scanned for
// windows that drained since their caller was last seen.
const memorySweepInterval = 10 * time.Minute

type memoryWindow struct {
	window time.Duration
	stamps []int64
}

// MemoryWindowStore is the process-local fallback used when Redis is not
// configured. Counters are pruned on access under one mutex, which also
// gives the required increment-and-count atomicity. Keys for callers that
// never return are dropped by a periodic sweep once their window drains.
type MemoryWindowStore struct {
	mu        sync.Mutex
	entries   map[string]*memoryWindow
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryWindowStore creates an in-process window store.
func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{
		entries:   make(map[string]*memoryWindow),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (s *MemoryWindowStore) Name() string { return "memory" }

func (s *MemoryWindowStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	entry := s.entries[key]
	if entry == nil {
		entry = &memoryWindow{window: window}
		s.entries[key] = entry
	}
	entry.window = window
	entry.stamps = pruneStamps(entry.stamps, now.UnixNano()-window.Nanoseconds())
	entry.stamps = append(entry.stamps, now.UnixNano())
	return int64(len(entry.stamps)), nil
}

// sweepLocked drops keys whose every timestamp has slid out of its window.
// Runs at most once per memorySweepInterval; the caller holds the mutex.
func (s *MemoryWindowStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < memorySweepInterval {
		return
	}
	s.lastSweep = now

	for key, entry := range s.entries {
		entry.stamps = pruneStamps(entry.stamps, now.UnixNano()-entry.window.Nanoseconds())
		if len(entry.stamps) == 0 {
			delete(s.entries, key)
		}
	}
}

func pruneStamps(stamps []int64, cutoff int64) []int64 {
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	return kept
}

// RateLimit throttles requests per caller IP across the given tiers.
// Exceeding any single tier rejects the request with 429 and a Retry-After
// hint. A store outage fails open: the request proceeds and the incident is
// logged.
func RateLimit(store WindowStore, tiers []Tier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := c.RealIP()
			if caller == "" {
				caller = "unknown"
			}

			for _, tier := range tiers {
				key := fmt.Sprintf("rl:%s:%s", tier.Name, caller)
				count, err := store.Incr(c.Request().Context(), key, tier.Window)
				if err != nil {
					c.Logger().Warnf("rate limit store %s unavailable: %v", store.Name(), err)
					continue
				}
				if count > int64(tier.LimitFor(c.Path())) {
					metrics.RateLimitRejected.WithLabelValues(tier.Name).Inc()
					c.Response().Header().Set("Retry-After", strconv.Itoa(int(tier.Window.Seconds())))
					httpErr := apperrors.MapErrorToHTTP(apperrors.ErrRateLimited)
					return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
				}
			}

			metrics.RateLimitAllowed.WithLabelValues(store.Name()).Inc()
			return next(c)
		}
	}
}
