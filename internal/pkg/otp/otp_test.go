package otp

import (
	"encoding/base32"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 6238 appendix B secret for SHA1.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestTOTP_ComputeToken_RFC6238(t *testing.T) {
	t.Parallel()

	tests := []struct {
		unix int64
		want string
	}{
		{unix: 59, want: "287082"},
		{unix: 1111111109, want: "081804"},
		{unix: 1111111111, want: "050471"},
		{unix: 1234567890, want: "005924"},
		{unix: 2000000000, want: "279037"},
		{unix: 20000000000, want: "353130"},
	}

	o := NewTOTP()
	for _, tt := range tests {
		got, err := o.ComputeToken(rfcSecret, time.Unix(tt.unix, 0).UTC())
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "t=%d", tt.unix)
	}
}

func TestTOTP_ComputeToken_InvalidSecret(t *testing.T) {
	t.Parallel()

	o := NewTOTP()

	_, err := o.ComputeToken("not base32 !!", time.Now())
	assert.Error(t, err)

	_, err = o.ComputeToken("   ", time.Now())
	assert.Error(t, err)
}

func TestTOTP_GenerateSecret(t *testing.T) {
	t.Parallel()

	o := NewTOTP()

	s, err := o.GenerateSecret(0)
	require.NoError(t, err)
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
	require.NoError(t, err)
	assert.Len(t, raw, DefaultSecretBytes)
	assert.NotContains(t, s, "=")

	s20, err := o.GenerateSecret(20)
	require.NoError(t, err)
	assert.Len(t, s20, 32)

	other, err := o.GenerateSecret(0)
	require.NoError(t, err)
	assert.NotEqual(t, s, other)
}

func TestTOTP_Verify(t *testing.T) {
	t.Parallel()

	o := NewTOTP()
	secret, err := o.GenerateSecret(20)
	require.NoError(t, err)

	now := time.Unix(1_700_000_015, 0)
	token, err := o.ComputeToken(secret, now)
	require.NoError(t, err)

	t.Run("round trip at window zero", func(t *testing.T) {
		t.Parallel()

		ok, reason := o.Verify(secret, token, 0, now)
		assert.True(t, ok)
		assert.Equal(t, ReasonOK, reason)
	})

	t.Run("lowercase secret accepted", func(t *testing.T) {
		t.Parallel()

		ok, _ := o.Verify(strings.ToLower(secret), token, 0, now)
		assert.True(t, ok)
	})

	t.Run("previous step accepted within window", func(t *testing.T) {
		t.Parallel()

		ok, reason := o.Verify(secret, token, 1, now.Add(Period*time.Second))
		assert.True(t, ok)
		assert.Equal(t, ReasonOK, reason)
	})

	t.Run("shift beyond window rejected", func(t *testing.T) {
		t.Parallel()

		ok, reason := o.Verify(secret, token, 0, now.Add(Period*time.Second))
		assert.False(t, ok)
		assert.Equal(t, ReasonInvalidToken, reason)

		ok, reason = o.Verify(secret, token, 1, now.Add(3*Period*time.Second))
		assert.False(t, ok)
		assert.Equal(t, ReasonInvalidToken, reason)
	})

	t.Run("negative window behaves as zero", func(t *testing.T) {
		t.Parallel()

		ok, _ := o.Verify(secret, token, -3, now)
		assert.True(t, ok)
	})

	t.Run("malformed inputs", func(t *testing.T) {
		t.Parallel()

		for _, tok := range []string{"", "abc123", "1234567", "12 34"} {
			ok, reason := o.Verify(secret, tok, 1, now)
			assert.False(t, ok, tok)
			assert.Equal(t, ReasonInvalidFormat, reason, tok)
		}

		ok, reason := o.Verify("%%%%", "123456", 1, now)
		assert.False(t, ok)
		assert.Equal(t, ReasonInvalidFormat, reason)
	})
}

func TestTOTP_Verify_ZeroPadsToken(t *testing.T) {
	t.Parallel()

	o := NewTOTP()
	at := time.Unix(1234567890, 0)

	ok, reason := o.Verify(rfcSecret, "5924", 0, at)
	assert.True(t, ok)
	assert.Equal(t, ReasonOK, reason)
}

func TestTOTP_ProvisioningURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		account string
		issuer  string
		want    string
	}{
		{
			name:    "spaces and at sign",
			account: "jane doe@example.com",
			issuer:  "OTP Service",
			want:    "otpauth://totp/OTP%20Service:jane%20doe%40example.com?secret=ABCDEF&issuer=OTP%20Service",
		},
		{
			name:    "slash is encoded",
			account: "ops/jane",
			issuer:  "Acme/EU",
			want:    "otpauth://totp/Acme%2FEU:ops%2Fjane?secret=ABCDEF&issuer=Acme%2FEU",
		},
	}

	o := NewTOTP()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, o.ProvisioningURI("ABCDEF", tt.account, tt.issuer))
		})
	}
}

func TestTOTP_Verify_WindowCapped(t *testing.T) {
	t.Parallel()

	o := NewTOTP()
	now := time.Unix(1_700_000_015, 0)

	inside, err := o.ComputeToken(rfcSecret, now.Add(-MaxWindow*Period*time.Second))
	require.NoError(t, err)
	outside, err := o.ComputeToken(rfcSecret, now.Add(-(MaxWindow+1)*Period*time.Second))
	require.NoError(t, err)

	start := time.Now()
	ok, _ := o.Verify(rfcSecret, inside, math.MaxInt, now)
	assert.True(t, ok)
	assert.Less(t, time.Since(start), time.Second)

	if outside != inside {
		ok, reason := o.Verify(rfcSecret, outside, math.MaxInt, now)
		assert.False(t, ok)
		assert.Equal(t, ReasonInvalidToken, reason)
	}
}
