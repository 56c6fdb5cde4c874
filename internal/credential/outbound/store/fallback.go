package store

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"go.uber.org/atomic"
)

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Fallback prefers primary and switches to secondary for good on the first
// connectivity failure. Records written to primary are not carried over.
type Fallback struct {
	primary   Store
	secondary Store
	degraded  *atomic.Bool
}

// NewFallback builds a switching store. Pass degraded=true when primary was
// unreachable at startup.
func NewFallback(primary, secondary Store, degraded bool) *Fallback {
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		degraded:  atomic.NewBool(degraded || primary == nil),
	}
}

// Degraded reports whether the switch to the secondary backend happened.
func (f *Fallback) Degraded() bool {
	return f.degraded.Load()
}

// Mode names the backend currently serving calls.
func (f *Fallback) Mode() string {
	if f.Degraded() {
		return ModeMemory
	}
	return ModeRedis
}

// Check pings primary while it is in use and degrades on a connectivity
// failure. It returns the resulting mode.
func (f *Fallback) Check(ctx context.Context) string {
	if f.Degraded() {
		return ModeMemory
	}

	p, ok := f.primary.(Pinger)
	if !ok {
		return ModeRedis
	}

	if err := p.Ping(ctx); IsConnectivityError(err) {
		f.degrade(ctx, "Ping", err)
	} else if err != nil {
		slog.WarnContext(ctx, "credential store ping failed", "error", err)
	}

	return f.Mode()
}

func (f *Fallback) degrade(ctx context.Context, op string, err error) {
	if f.degraded.CompareAndSwap(false, true) {
		slog.WarnContext(ctx, "redis unreachable, switching credential store to memory until restart",
			"op", op, "error", err)
	}
}

// call runs fn on primary unless degraded. A connectivity error flips the
// switch and the same call is retried on secondary.
func call[T any](ctx context.Context, f *Fallback, op string, fn func(Store) (T, error)) (T, error) {
	if !f.Degraded() {
		v, err := fn(f.primary)
		if !IsConnectivityError(err) {
			return v, err
		}
		f.degrade(ctx, op, err)
	}

	return fn(f.secondary)
}

func (f *Fallback) Create(ctx context.Context, c entity.NewCredential) error {
	_, err := call(ctx, f, "Create", func(s Store) (struct{}, error) {
		return struct{}{}, s.Create(ctx, c)
	})
	return err
}

func (f *Fallback) GetMeta(ctx context.Context, id string) (*entity.Credential, error) {
	return call(ctx, f, "GetMeta", func(s Store) (*entity.Credential, error) {
		return s.GetMeta(ctx, id)
	})
}

func (f *Fallback) VerifyAndConsume(ctx context.Context, id, digest string) (entity.Outcome, error) {
	return call(ctx, f, "VerifyAndConsume", func(s Store) (entity.Outcome, error) {
		return s.VerifyAndConsume(ctx, id, digest)
	})
}

func (f *Fallback) ListActive(ctx context.Context, filter entity.ListFilter) ([]entity.Credential, error) {
	return call(ctx, f, "ListActive", func(s Store) ([]entity.Credential, error) {
		return s.ListActive(ctx, filter)
	})
}

func (f *Fallback) PurgeIndex(ctx context.Context) (int, error) {
	return call(ctx, f, "PurgeIndex", func(s Store) (int, error) {
		return s.PurgeIndex(ctx)
	})
}
