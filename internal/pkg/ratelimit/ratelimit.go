// Package ratelimit implements a per-client sliding window limiter on Redis.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultWindow is the sliding window length.
const DefaultWindow = time.Minute

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int
	RetryAfter time.Duration
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Config configures a SlidingWindow.
type Config struct {
	Client    redis.Cmdable
	Namespace string
	// Limit returns the allowed requests per window. It is read on every call
	// so configuration reloads apply immediately. Zero or less disables limiting.
	Limit  func() int
	Window time.Duration
	// Skip bypasses the limiter while it returns true (for example when Redis
	// has been abandoned by the credential store).
	Skip  func() bool
	Clock clocker
	// Member produces the unique sorted-set member recorded for a request.
	Member generator
}

// SlidingWindow counts requests per key inside a rolling window using a
// sorted set scored by request time.
type SlidingWindow struct {
	client    redis.Cmdable
	namespace string
	limit     func() int
	window    time.Duration
	skip      func() bool
	clock     clocker
	member    generator
}

// New builds a SlidingWindow.
func New(cfg Config) *SlidingWindow {
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}

	limit := cfg.Limit
	if limit == nil {
		limit = func() int { return 0 }
	}

	skip := cfg.Skip
	if skip == nil {
		skip = func() bool { return false }
	}

	return &SlidingWindow{
		client:    cfg.Client,
		namespace: cfg.Namespace,
		limit:     limit,
		window:    window,
		skip:      skip,
		clock:     cfg.Clock,
		member:    cfg.Member,
	}
}

// Key is the Redis key used for client and route.
func (s *SlidingWindow) Key(client, route string) string {
	return fmt.Sprintf("%s:rl:%s:%s", s.namespace, client, route)
}

// Allow records one request for client on route and reports whether it fits
// the window. The request that would exceed the limit is still recorded.
// Errors leave the decision allowed so callers can fail open.
func (s *SlidingWindow) Allow(ctx context.Context, client, route string) (Decision, error) {
	limit := s.limit()
	if limit <= 0 || s.client == nil || s.skip() {
		return Decision{Allowed: true, Limit: limit}, nil
	}

	now := s.clock.Now()
	key := s.Key(client, route)
	floor := now.Add(-s.window).UnixNano()

	var card *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(floor, 10))
		card = pipe.ZCard(ctx, key)
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: s.member.Generate()})
		pipe.Expire(ctx, key, s.window)
		return nil
	})
	if err != nil {
		return Decision{Allowed: true, Limit: limit}, fmt.Errorf("ratelimit %s: %w", key, err)
	}

	count := card.Val() + 1
	if count > int64(limit) {
		return Decision{Allowed: false, Count: count, Limit: limit, RetryAfter: s.window}, nil
	}

	return Decision{Allowed: true, Count: count, Limit: limit}, nil
}
