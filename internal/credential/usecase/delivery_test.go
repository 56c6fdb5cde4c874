package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/credential/outbound/store"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type liveStore struct{ *store.Fallback }

func (liveStore) Degraded() bool { return false }

type fakeGuard struct {
	mu   sync.Mutex
	err  error
	done map[string]bool
}

func (g *fakeGuard) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	if g.err != nil {
		return g.err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.done[key] {
		return idempotency.ErrAlreadyCompleted
	}
	if err := fn(ctx); err != nil {
		return err
	}
	g.done[key] = true
	return nil
}

func newGuardedFixture(t *testing.T, g *fakeGuard) *fixture {
	t.Helper()

	f := newFixture(t)
	f.cfg.Set("email.cooldown_seconds", 60)
	f.uc.store = liveStore{f.store}
	f.uc.guard = g
	return f
}

func TestUsecase_EmailCooldown(t *testing.T) {
	t.Parallel()

	t.Run("second request inside window is refused", func(t *testing.T) {
		t.Parallel()
		f := newGuardedFixture(t, &fakeGuard{done: map[string]bool{}})

		out, err := f.uc.OTPGenerateEmail(context.Background(), OTPGenerateEmailInput{Email: "jane@example.com"})
		require.NoError(t, err)
		assert.True(t, out.Success)

		out, err = f.uc.OTPGenerateEmail(context.Background(), OTPGenerateEmailInput{Email: " JANE@example.com"})
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, MsgEmailCooldown, out.Error)
		assert.Len(t, f.notifier.sent, 1)

		out, err = f.uc.OTPGenerateEmail(context.Background(), OTPGenerateEmailInput{Email: "bob@example.com"})
		require.NoError(t, err)
		assert.True(t, out.Success)
	})

	t.Run("failed delivery does not start the window", func(t *testing.T) {
		t.Parallel()
		f := newGuardedFixture(t, &fakeGuard{done: map[string]bool{}})
		f.notifier.ok, f.notifier.msg = false, "Failed to send email: timeout"

		out, err := f.uc.OTPGenerateEmail(context.Background(), OTPGenerateEmailInput{Email: "jane@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "Failed to send email: timeout", out.Error)

		f.notifier.ok, f.notifier.msg = true, "Email sent"
		out, err = f.uc.OTPGenerateEmail(context.Background(), OTPGenerateEmailInput{Email: "jane@example.com"})
		require.NoError(t, err)
		assert.True(t, out.Success)
	})

	t.Run("guard failure sends anyway", func(t *testing.T) {
		t.Parallel()
		f := newGuardedFixture(t, &fakeGuard{err: errors.New("redis down")})

		out, err := f.uc.OTPCreate(context.Background(), OTPCreateInput{Email: "jane@example.com", SendEmail: true})
		require.NoError(t, err)
		require.NotNil(t, out.EmailSent)
		assert.True(t, *out.EmailSent)
	})

	t.Run("disabled in memory mode", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.cfg.Set("email.cooldown_seconds", 60)
		f.uc.guard = &fakeGuard{done: map[string]bool{}}

		for range 2 {
			out, err := f.uc.OTPGenerateEmail(context.Background(), OTPGenerateEmailInput{Email: "jane@example.com"})
			require.NoError(t, err)
			assert.True(t, out.Success)
		}
	})
}
