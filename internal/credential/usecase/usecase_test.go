package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/credential/outbound/store"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/codegen"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

const testConfig = `
app:
  debug: false
otp:
  default_length: 6
  min_length: 4
  max_length: 20
  default_ttl_seconds: 300
  min_ttl_seconds: 30
  max_ttl_seconds: 86400
  charset: "0123456789"
  allow_debug_query: true
totp:
  issuer: Acme
  default_window: 1
  secret_bytes: 20
  qr_size: 128
`

type fakeNotifier struct {
	mu   sync.Mutex
	ok   bool
	msg  string
	sent []entity.OTPMail
}

func (f *fakeNotifier) SendOTP(_ context.Context, m entity.OTPMail) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return f.ok, f.msg
}

func (f *fakeNotifier) last() entity.OTPMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fixture struct {
	uc       *Usecase
	clock    *clock.Fake
	notifier *fakeNotifier
	store    *store.Fallback
	memory   *store.Memory
	cfg      *config.Viper
	jwt      jwt.JWT
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := clock.NewFake(time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC))
	mem := store.NewMemory(clk)
	st := store.NewFallback(nil, mem, true)

	j, err := jwt.NewHS512(jwt.Config{
		Secret: []byte(strings.Repeat("k", 64)),
		Issuer: "otpgate",
		TTL:    15 * time.Minute,
		Clock:  clk,
		UUID:   uid.NewUUID(),
	})
	require.NoError(t, err)

	n := &fakeNotifier{ok: true, msg: "Email sent"}

	uc := New(Dependency{
		Store:      st,
		Notifier:   n,
		Config:     cfg,
		Validator:  v,
		Hash:       hash.NewHMACSHA256("pepper"),
		Codegen:    codegen.New(),
		Totp:       otp.NewTOTP(),
		TokenID:    uid.NewTokenID("otp_", 12),
		Clock:      clk,
		JWT:        j,
		Instrument: instrument.NewNoop(),
	})

	return &fixture{uc: uc, clock: clk, notifier: n, store: st, memory: mem, cfg: cfg, jwt: j}
}

func adminCtx() context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: "root"},
		Role:             "admin",
	})
}

func ptr[T any](v T) *T { return &v }

func errCode(t *testing.T, err error) goerror.Code {
	t.Helper()
	var gerr *goerror.Error
	require.True(t, errors.As(err, &gerr), "want *goerror.Error, got %v", err)
	return gerr.Code()
}
