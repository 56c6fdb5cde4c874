package credential

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/credential/inbound"
	"github.com/shandysiswandi/otpgate/internal/credential/outbound/email"
	"github.com/shandysiswandi/otpgate/internal/credential/outbound/store"
	"github.com/shandysiswandi/otpgate/internal/credential/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/codegen"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type Dependency struct {
	Ctx context.Context `validate:"required"`
	// CacheConn is nil when Redis was unreachable at startup.
	CacheConn  redis.UniversalClient
	Mail       mail.Mail
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	TokenID    uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Codegen    *codegen.Generator         `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Totp       otp.OTP                    `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

// Module exposes the state other parts of the application depend on.
type Module struct {
	store *store.Fallback
}

// Degraded reports whether credentials are served from process memory.
func (m *Module) Degraded() bool {
	return m.store.Degraded()
}

func New(dep Dependency) (*Module, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	var (
		primary store.Store
		guard   *idempotency.StateTracker
	)
	if dep.CacheConn != nil {
		guard = idempotency.New(dep.CacheConn, dep.Config.GetString("redis.namespace"))
		primary = store.NewRedis(store.RedisConfig{
			Client:     dep.CacheConn,
			Namespace:  dep.Config.GetString("redis.namespace"),
			OpTimeout:  dep.Config.GetMillisecond("redis.op_timeout_ms"),
			Clock:      dep.Clock,
			Instrument: dep.Instrument,
		})
	}

	repo := store.NewFallback(primary, store.NewMemory(dep.Clock), dep.CacheConn == nil)
	if repo.Degraded() {
		slog.Warn("credential store running in memory", "storage", repo.Mode())
	}

	notifier := email.New(email.Dependency{
		Config:     dep.Config,
		Mail:       dep.Mail,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	dp := usecase.Dependency{
		Store:      repo,
		Notifier:   notifier,
		Config:     dep.Config,
		Validator:  dep.Validator,
		Hash:       dep.HMAC,
		Codegen:    dep.Codegen,
		Totp:       dep.Totp,
		TokenID:    dep.TokenID,
		Clock:      dep.Clock,
		JWT:        dep.JWT,
		Instrument: dep.Instrument,
	}
	if guard != nil {
		dp.Guard = guard
	}
	uc := usecase.New(dp)

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	if interval := dep.Config.GetSecond("janitor.purge_interval_seconds"); interval > 0 {
		dep.Goroutine.Every(dep.Ctx, "otp-janitor", interval, uc.PurgeJanitor)
	}

	return &Module{store: repo}, nil
}
