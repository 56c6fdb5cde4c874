package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/redistest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis(t *testing.T) {
	client := redistest.Start(t)

	newStore := func(ns string) *Redis {
		return NewRedis(RedisConfig{
			Client:    client,
			Namespace: ns,
			OpTimeout: 2 * time.Second,
			Clock:     clock.New(),
		})
	}

	t.Run("lifecycle", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		r := newStore("life")
		require.NoError(t, r.Ping(ctx))
		require.NoError(t, r.Create(ctx, newCred("otp_a", time.Now(), time.Minute)))

		meta, err := r.GetMeta(ctx, "otp_a")
		require.NoError(t, err)
		assert.Equal(t, "salt-otp_a", meta.Salt)
		assert.Equal(t, "login", meta.Purpose)
		assert.False(t, meta.Used)

		ttl, err := client.TTL(ctx, "life:otp:otp_a").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 50*time.Second)

		out, err := r.VerifyAndConsume(ctx, "otp_a", "nope")
		require.NoError(t, err)
		assert.Equal(t, entity.OutcomeInvalid, out)

		out, err = r.VerifyAndConsume(ctx, "otp_a", "digest-otp_a")
		require.NoError(t, err)
		assert.Equal(t, entity.OutcomeOK, out)

		out, err = r.VerifyAndConsume(ctx, "otp_a", "digest-otp_a")
		require.NoError(t, err)
		assert.Equal(t, entity.OutcomeUsed, out)

		meta, err = r.GetMeta(ctx, "otp_a")
		require.NoError(t, err)
		assert.True(t, meta.Used)
		assert.NotZero(t, meta.UsedAt)

		score, err := client.ZScore(ctx, "life:index", "otp_a").Result()
		assert.Error(t, err, "consumed id leaves the index, got score %v", score)

		out, err = r.VerifyAndConsume(ctx, "otp_unknown", "x")
		require.NoError(t, err)
		assert.Equal(t, entity.OutcomeNotFound, out)

		_, err = r.GetMeta(ctx, "otp_unknown")
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("expiry", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		r := newStore("exp")
		require.NoError(t, r.Create(ctx, newCred("otp_short", time.Now(), time.Second)))

		time.Sleep(2 * time.Second)

		out, err := r.VerifyAndConsume(ctx, "otp_short", "digest-otp_short")
		require.NoError(t, err)
		assert.Equal(t, entity.OutcomeNotFound, out)

		n, err := r.PurgeIndex(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("concurrent consume", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		r := newStore("race")
		require.NoError(t, r.Create(ctx, newCred("otp_race", time.Now(), time.Minute)))

		var ok atomic.Int32
		var wg sync.WaitGroup
		for range 32 {
			wg.Go(func() {
				out, err := r.VerifyAndConsume(ctx, "otp_race", "digest-otp_race")
				if err == nil && out == entity.OutcomeOK {
					ok.Add(1)
				}
			})
		}
		wg.Wait()

		assert.EqualValues(t, 1, ok.Load())
	})

	t.Run("list", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		r := newStore("list")
		base := time.Now()
		for i, id := range []string{"otp_0", "otp_1", "otp_2"} {
			require.NoError(t, r.Create(ctx, newCred(id, base.Add(time.Duration(i)*time.Second), time.Minute)))
		}

		out, err := r.VerifyAndConsume(ctx, "otp_1", "digest-otp_1")
		require.NoError(t, err)
		require.Equal(t, entity.OutcomeOK, out)

		active, err := r.ListActive(ctx, entity.ListFilter{Limit: 10, Status: entity.ListStatusActive})
		require.NoError(t, err)
		assert.Equal(t, []string{"otp_2", "otp_0"}, ids(active))

		used, err := r.ListActive(ctx, entity.ListFilter{Status: entity.ListStatusUsed})
		require.NoError(t, err)
		assert.Equal(t, []string{"otp_1"}, ids(used))

		all, err := r.ListActive(ctx, entity.ListFilter{Limit: 2, Status: entity.ListStatusAny})
		require.NoError(t, err)
		assert.Equal(t, []string{"otp_2", "otp_1"}, ids(all))

		require.NoError(t, client.ZAdd(ctx, "list:index", redisZ("otp_ghost")).Err())
		active, err = r.ListActive(ctx, entity.ListFilter{Status: entity.ListStatusActive})
		require.NoError(t, err)
		assert.Len(t, active, 2)

		_, err = client.ZScore(ctx, "list:index", "otp_ghost").Result()
		assert.Error(t, err)
	})
}

func redisZ(member string) redis.Z {
	return redis.Z{Score: float64(time.Now().Add(time.Hour).Unix()), Member: member}
}
