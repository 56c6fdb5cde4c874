package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/redistest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqMember struct{ n atomic.Int64 }

func (s *seqMember) Generate() string { return fmt.Sprintf("m%d", s.n.Add(1)) }

func TestSlidingWindow_Disabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no limit", cfg: Config{Client: redis.NewClient(&redis.Options{})}},
		{name: "no client", cfg: Config{Limit: func() int { return 1 }}},
		{name: "skipped", cfg: Config{
			Client: redis.NewClient(&redis.Options{}),
			Limit:  func() int { return 1 },
			Skip:   func() bool { return true },
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d, err := New(tt.cfg).Allow(context.Background(), "1.2.3.4", "/x")
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		})
	}
}

func TestSlidingWindow_FailOpen(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	sw := New(Config{
		Client: client, Namespace: "otp", Limit: func() int { return 1 },
		Clock: clock.New(), Member: &seqMember{},
	})

	d, err := sw.Allow(context.Background(), "1.2.3.4", "/x")
	require.Error(t, err)
	assert.True(t, d.Allowed)
}

func TestSlidingWindow_Redis(t *testing.T) {
	client := redistest.Start(t)
	ctx := context.Background()

	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	sw := New(Config{
		Client: client, Namespace: "otp", Limit: func() int { return 3 },
		Clock: clk, Member: &seqMember{},
	})

	for i := range 3 {
		d, err := sw.Allow(ctx, "10.0.0.1", "/api/v1/otp")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i+1)
		assert.EqualValues(t, i+1, d.Count)
	}

	d, err := sw.Allow(ctx, "10.0.0.1", "/api/v1/otp")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, DefaultWindow, d.RetryAfter)

	d, err = sw.Allow(ctx, "10.0.0.2", "/api/v1/otp")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	ttl, err := client.TTL(ctx, sw.Key("10.0.0.1", "/api/v1/otp")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	clk.Advance(DefaultWindow + time.Second)
	d, err = sw.Allow(ctx, "10.0.0.1", "/api/v1/otp")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.EqualValues(t, 1, d.Count)
}
