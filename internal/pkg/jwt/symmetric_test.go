package jwt

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

var testSecret = []byte(strings.Repeat("k", 64))

func newSymmetric(t *testing.T, clk *clock.Fake) *Symmetric {
	t.Helper()
	s, err := NewHS512(Config{
		Secret:    testSecret,
		Issuer:    "otpgate",
		Audiences: []string{"otpgate-admin"},
		TTL:       10 * time.Minute,
		Clock:     clk,
		UUID:      staticID("jti-1"),
	})
	require.NoError(t, err)
	return s
}

func TestNewHS512_ShortSecret(t *testing.T) {
	t.Parallel()
	_, err := NewHS512(Config{Secret: []byte("short")})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestSymmetric_RoundTrip(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(time.Now())
	s := newSymmetric(t, clk)

	tok, err := s.Generate("root", "admin")
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "root", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "jti-1", claims.ID)
	assert.Equal(t, 10*time.Minute, s.TTL())
}

func TestSymmetric_Expired(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(time.Now())
	s := newSymmetric(t, clk)

	tok, err := s.Generate("root", "admin")
	require.NoError(t, err)

	clk.Advance(11 * time.Minute)
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSymmetric_Tampered(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(time.Now())
	s := newSymmetric(t, clk)

	other, err := NewHS512(Config{
		Secret: []byte(strings.Repeat("z", 64)), Issuer: "otpgate", Audiences: []string{"otpgate-admin"},
		Clock: clk, UUID: staticID("x"),
	})
	require.NoError(t, err)

	tok, err := other.Generate("root", "admin")
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.Error(t, err)
}

func TestAuthContext(t *testing.T) {
	t.Parallel()

	assert.Nil(t, GetAuth(context.Background()))

	ctx := SetAuth(context.Background(), Claims{Role: "admin"})
	got := GetAuth(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "admin", got.Role)
}
