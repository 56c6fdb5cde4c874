package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type repoStore interface {
	Create(ctx context.Context, c entity.NewCredential) error
	GetMeta(ctx context.Context, id string) (*entity.Credential, error)
	VerifyAndConsume(ctx context.Context, id, digest string) (entity.Outcome, error)
	ListActive(ctx context.Context, f entity.ListFilter) ([]entity.Credential, error)
	PurgeIndex(ctx context.Context) (int, error)

	// Check probes the durable backend and returns the mode now serving calls.
	Check(ctx context.Context) string
	Degraded() bool
}

type notifier interface {
	SendOTP(ctx context.Context, m entity.OTPMail) (bool, string)
}

type codeGenerator interface {
	Generate(length int, charset, defaultCharset string) (string, error)
}

type deliveryGuard interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...idempotency.Option) error
}

// MsgEmailCooldown is returned when a recipient asks for another email inside
// the email.cooldown_seconds window.
const MsgEmailCooldown = "An email was sent recently, please wait before requesting another code"

var errDeliveryFailed = errors.New("delivery failed")

type Usecase struct {
	store     repoStore
	notifier  notifier
	guard     deliveryGuard
	cfg       config.Config
	validator validator.Validator
	hash      hash.Hash
	codegen   codeGenerator
	totp      otp.OTP
	tokenID   uid.StringID
	clock     clock.Clocker
	jwt       jwt.JWT
	ins       instrument.Instrumentation
	metrics   *metrics
}

type Dependency struct {
	Store      repoStore
	Notifier   notifier
	// Guard enforces the per-recipient email cooldown. Nil disables it.
	Guard      deliveryGuard
	Config     config.Config
	Validator  validator.Validator
	Hash       hash.Hash
	Codegen    codeGenerator
	Totp       otp.OTP
	TokenID    uid.StringID
	Clock      clock.Clocker
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		store:     dep.Store,
		notifier:  dep.Notifier,
		guard:     dep.Guard,
		cfg:       dep.Config,
		validator: dep.Validator,
		hash:      dep.Hash,
		codegen:   dep.Codegen,
		totp:      dep.Totp,
		tokenID:   dep.TokenID,
		clock:     dep.Clock,
		jwt:       dep.JWT,
		ins:       dep.Instrument,
		metrics:   newMetrics(dep.Instrument.Meter("credential.usecase")),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("credential.usecase").Start(ctx, name)
}

// revealCode reports whether the plaintext code may be echoed back: debug
// builds, authenticated admins, or ?debug=true when otp.allow_debug_query is on.
func (s *Usecase) revealCode(ctx context.Context, debugQuery bool) bool {
	if s.cfg.GetBool("app.debug") || jwt.GetAuth(ctx) != nil {
		return true
	}
	return debugQuery && s.cfg.GetBool("otp.allow_debug_query")
}

func (s *Usecase) intOr(key string, def int) int {
	if v := s.cfg.GetInt(key); v > 0 {
		return v
	}
	return def
}

// bounds resolves length and ttl against configured defaults and limits.
func (s *Usecase) bounds(length, ttl *int) (int, int, error) {
	l := s.intOr("otp.default_length", 6)
	if length != nil {
		l = *length
	}
	t := s.intOr("otp.default_ttl_seconds", 300)
	if ttl != nil {
		t = *ttl
	}

	minL, maxL := s.intOr("otp.min_length", 4), s.intOr("otp.max_length", 20)
	if l < minL || l > maxL {
		return 0, 0, goerror.NewInvalidInput(nil, "length", fmt.Sprintf("length must be between %d and %d", minL, maxL))
	}

	minT, maxT := s.intOr("otp.min_ttl_seconds", 30), s.intOr("otp.max_ttl_seconds", 86400)
	if t < minT || t > maxT {
		return 0, 0, goerror.NewInvalidInput(nil, "ttl", fmt.Sprintf("ttl must be between %d and %d seconds", minT, maxT))
	}

	return l, t, nil
}

// issued is a freshly stored credential together with its plaintext code.
type issued struct {
	ID        string
	Code      string
	TTL       int
	ExpiresAt time.Time
}

// issue generates, digests and stores one credential.
func (s *Usecase) issue(ctx context.Context, length, ttl int, charset, subject, purpose string) (*issued, error) {
	start := s.clock.Now()

	code, err := s.codegen.Generate(length, charset, s.cfg.GetString("otp.charset"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	digest, salt, err := s.hash.HashWithSalt(code, "")
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	cred := entity.NewCredential{
		ID:        s.tokenID.Generate(),
		HMAC:      digest,
		Salt:      salt,
		Subject:   subject,
		Purpose:   purpose,
		TTL:       time.Duration(ttl) * time.Second,
		CreatedAt: start,
	}

	if err := s.store.Create(ctx, cred); err != nil {
		slog.ErrorContext(ctx, "failed to store otp credential", "otp_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.metrics.generated.Add(ctx, 1)
	s.metrics.generateDur.Record(ctx, s.clock.Now().Sub(start).Seconds())

	return &issued{ID: cred.ID, Code: code, TTL: ttl, ExpiresAt: cred.ExpiresAt()}, nil
}

// deliver hands the code to the notifier, at most once per recipient inside
// the cooldown window while Redis backs the service.
func (s *Usecase) deliver(ctx context.Context, m entity.OTPMail) (bool, string) {
	cooldown := s.cfg.GetSecond("email.cooldown_seconds")
	if s.guard == nil || cooldown <= 0 || s.store.Degraded() {
		return s.send(ctx, m)
	}

	var (
		ran bool
		ok  bool
		msg string
	)
	err := s.guard.Exec(ctx, "email:"+strings.ToLower(strings.TrimSpace(m.To)), func(ctx context.Context) error {
		ran = true
		if ok, msg = s.send(ctx, m); !ok {
			return errDeliveryFailed
		}
		return nil
	}, idempotency.WithLockDuration(time.Minute), idempotency.WithStateTTL(cooldown))

	switch {
	case ran:
		if err != nil && !errors.Is(err, errDeliveryFailed) {
			slog.WarnContext(ctx, "failed to record email cooldown", "error", err)
		}
		return ok, msg
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		s.metrics.emailFailed.Add(ctx, 1)
		return false, MsgEmailCooldown
	default:
		slog.WarnContext(ctx, "email cooldown unavailable", "error", err)
		return s.send(ctx, m)
	}
}

func (s *Usecase) send(ctx context.Context, m entity.OTPMail) (bool, string) {
	start := s.clock.Now()
	ok, msg := s.notifier.SendOTP(ctx, m)
	s.metrics.emailDur.Record(ctx, s.clock.Now().Sub(start).Seconds())

	if ok {
		s.metrics.emailSent.Add(ctx, 1)
	} else {
		s.metrics.emailFailed.Add(ctx, 1)
	}

	return ok, msg
}

func (s *Usecase) verifyFailed(ctx context.Context, reason string) {
	s.metrics.verifyFail.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
