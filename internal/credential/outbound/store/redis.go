package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultOpTimeout bounds every Redis round trip.
const DefaultOpTimeout = 500 * time.Millisecond

const scanBatch = 200

// consumeScript checks and flips the used flag in one server-side step.
// KEYS[1] record hash, KEYS[2] index; ARGV[1] candidate digest, ARGV[2] id.
var consumeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 'not_found'
end
if redis.call('PTTL', KEYS[1]) <= 0 then
  redis.call('DEL', KEYS[1])
  redis.call('ZREM', KEYS[2], ARGV[2])
  return 'expired'
end
if redis.call('HGET', KEYS[1], 'used') == '1' then
  return 'used'
end
if redis.call('HGET', KEYS[1], 'hmac') == ARGV[1] then
  redis.call('HSET', KEYS[1], 'used', '1', 'used_at', redis.call('TIME')[1])
  redis.call('ZREM', KEYS[2], ARGV[2])
  return 'ok'
end
return 'invalid'
`)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Client    redis.UniversalClient
	Namespace string
	// OpTimeout bounds each call; DefaultOpTimeout when zero.
	OpTimeout  time.Duration
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

// Redis stores each credential as a hash under {ns}:otp:{id} with a native
// TTL, and keeps a sorted set {ns}:index of unconsumed ids scored by expiry.
type Redis struct {
	client    redis.UniversalClient
	ns        string
	opTimeout time.Duration
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

// NewRedis builds the Redis backend.
func NewRedis(cfg RedisConfig) *Redis {
	ns := cfg.Namespace
	if ns == "" {
		ns = "otp"
	}

	timeout := cfg.OpTimeout
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}

	ins := cfg.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}

	return &Redis{
		client:    cfg.Client,
		ns:        ns,
		opTimeout: timeout,
		clock:     cfg.Clock,
		ins:       ins,
	}
}

func (r *Redis) key(id string) string {
	return r.ns + ":otp:" + id
}

func (r *Redis) indexKey() string {
	return r.ns + ":index"
}

func (r *Redis) startSpan(ctx context.Context, name string) (context.Context, trace.Span, context.CancelFunc) {
	ctx, span := r.ins.Tracer("credential.outbound.store").Start(ctx, "Redis."+name,
		trace.WithAttributes(attribute.String("db.system", "redis")))
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	return ctx, span, cancel
}

func (r *Redis) endSpan(span trace.Span, cancel context.CancelFunc, err error) {
	cancel()
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Ping checks the connection within the per-call timeout.
func (r *Redis) Ping(ctx context.Context) (err error) {
	ctx, span, cancel := r.startSpan(ctx, "Ping")
	defer func() { r.endSpan(span, cancel, err) }()

	return r.client.Ping(ctx).Err()
}

func (r *Redis) Create(ctx context.Context, c entity.NewCredential) (err error) {
	ctx, span, cancel := r.startSpan(ctx, "Create")
	defer func() { r.endSpan(span, cancel, err) }()

	rec := c.Credential().Record()
	delete(rec, "id")

	fields := make([]any, 0, len(rec)*2)
	for k, v := range rec {
		fields = append(fields, k, v)
	}

	key := r.key(c.ID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields...)
		pipe.Expire(ctx, key, c.TTL)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(c.ExpiresAt().Unix()), Member: c.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis create %s: %w", c.ID, err)
	}

	return nil
}

func (r *Redis) GetMeta(ctx context.Context, id string) (cred *entity.Credential, err error) {
	ctx, span, cancel := r.startSpan(ctx, "GetMeta")
	defer func() { r.endSpan(span, cancel, err) }()

	rec, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}
	if len(rec) == 0 {
		return nil, goerror.ErrNotFound
	}

	c := entity.CredentialFromRecord(id, rec)
	return &c, nil
}

func (r *Redis) VerifyAndConsume(ctx context.Context, id, digest string) (out entity.Outcome, err error) {
	ctx, span, cancel := r.startSpan(ctx, "VerifyAndConsume")
	defer func() { r.endSpan(span, cancel, err) }()

	res, err := consumeScript.Run(ctx, r.client, []string{r.key(id), r.indexKey()}, digest, id).Text()
	if err != nil {
		return "", fmt.Errorf("redis consume %s: %w", id, err)
	}

	out = entity.ParseOutcome(res)
	span.SetAttributes(attribute.String("otp.outcome", out.String()))
	return out, nil
}

// ListActive reads unconsumed ids from the index for status=active and scans
// the keyspace otherwise, since consumed records leave the index. Index
// members whose record is gone are reclaimed on the way.
func (r *Redis) ListActive(ctx context.Context, f entity.ListFilter) (creds []entity.Credential, err error) {
	ctx, span, cancel := r.startSpan(ctx, "ListActive")
	defer func() { r.endSpan(span, cancel, err) }()

	var ids []string
	if f.Status == entity.ListStatusActive {
		ids, err = r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	} else {
		ids, err = r.scanIDs(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("redis list ids: %w", err)
	}

	recs, err := r.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}

	creds = make([]entity.Credential, 0, len(recs))
	var stale []any
	for _, id := range ids {
		rec, ok := recs[id]
		if !ok {
			stale = append(stale, id)
			continue
		}
		if c := entity.CredentialFromRecord(id, rec); f.Match(c) {
			creds = append(creds, c)
		}
	}

	if len(stale) > 0 {
		if err := r.client.ZRem(ctx, r.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("redis reclaim index: %w", err)
		}
	}

	sortNewestFirst(creds)
	return limit(creds, f.Limit), nil
}

func (r *Redis) scanIDs(ctx context.Context) ([]string, error) {
	prefix := r.key("")
	var ids []string

	iter := r.client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), prefix))
	}

	return ids, iter.Err()
}

// fetch loads records for ids in one pipeline. Missing records are absent from the map.
func (r *Redis) fetch(ctx context.Context, ids []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.key(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis fetch records: %w", err)
	}

	for i, cmd := range cmds {
		if rec := cmd.Val(); len(rec) > 0 {
			out[ids[i]] = rec
		}
	}

	return out, nil
}

// PurgeIndex drops index members whose record is gone or whose expiry score
// has passed.
func (r *Redis) PurgeIndex(ctx context.Context) (removed int, err error) {
	ctx, span, cancel := r.startSpan(ctx, "PurgeIndex")
	defer func() { r.endSpan(span, cancel, err) }()

	members, err := r.client.ZRangeWithScores(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis purge list: %w", err)
	}
	if len(members) == 0 {
		return 0, nil
	}

	cmds := make([]*redis.IntCmd, len(members))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, m := range members {
			cmds[i] = pipe.Exists(ctx, r.key(fmt.Sprint(m.Member)))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis purge exists: %w", err)
	}

	now := float64(r.clock.Now().Unix())
	var stale []any
	for i, m := range members {
		if cmds[i].Val() == 0 || m.Score <= now {
			stale = append(stale, m.Member)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	n, err := r.client.ZRem(ctx, r.indexKey(), stale...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis purge remove: %w", err)
	}

	span.SetAttributes(attribute.Int("otp.purged", int(n)))
	return int(n), nil
}
