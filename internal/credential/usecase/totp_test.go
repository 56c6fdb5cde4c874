package usecase

import (
	"context"
	"math"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_TOTPSetupAndVerify(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	setup, err := f.uc.TOTPSetup(ctx, TOTPSetupInput{AccountName: "jane@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", setup.Issuer)
	assert.Equal(t, "jane@example.com", setup.AccountName)
	assert.Len(t, setup.Secret, 32)
	assert.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))

	u, err := url.Parse(setup.URI)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, setup.Secret, u.Query().Get("secret"))
	assert.Equal(t, "Acme", u.Query().Get("issuer"))

	token, err := otp.NewTOTP().ComputeToken(setup.Secret, f.clock.Now())
	require.NoError(t, err)

	out, err := f.uc.TOTPVerify(ctx, TOTPVerifyInput{Secret: setup.Secret, Token: token})
	require.NoError(t, err)
	assert.Equal(t, &TOTPVerifyOutput{Valid: true, Reason: entity.TOTPReasonOK, Message: "TOTP verified successfully"}, out)

	f.clock.Advance(30 * time.Second)
	out, err = f.uc.TOTPVerify(ctx, TOTPVerifyInput{Secret: setup.Secret, Token: token})
	require.NoError(t, err)
	assert.True(t, out.Valid, "default window accepts the previous step")

	out, err = f.uc.TOTPVerify(ctx, TOTPVerifyInput{Secret: setup.Secret, Token: token, Window: ptr(0)})
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.Equal(t, entity.TOTPReasonInvalidToken, out.Reason)
	assert.Equal(t, "TOTP verification failed: invalid_token", out.Message)
}

func TestUsecase_TOTPSetup_Issuer(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	out, err := f.uc.TOTPSetup(context.Background(), TOTPSetupInput{AccountName: "bob", Issuer: "My Bank"})
	require.NoError(t, err)
	assert.Equal(t, "My Bank", out.Issuer)
	assert.Contains(t, out.URI, "otpauth://totp/My%20Bank:bob?")

	_, err = f.uc.TOTPSetup(context.Background(), TOTPSetupInput{})
	assert.Equal(t, goerror.CodeInvalidFormat, errCode(t, err))
}

func TestUsecase_TOTPVerify_BadInput(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name string
		in   TOTPVerifyInput
		want entity.TOTPReason
		bad  bool
	}{
		{"missing secret", TOTPVerifyInput{Token: "123456"}, entity.TOTPReasonMissingParameters, true},
		{"missing token", TOTPVerifyInput{Secret: "JBSWY3DPEHPK3PXP"}, entity.TOTPReasonMissingParameters, true},
		{"letters in token", TOTPVerifyInput{Secret: "JBSWY3DPEHPK3PXP", Token: "12ab56"}, entity.TOTPReasonInvalidFormat, false},
		{"bad secret", TOTPVerifyInput{Secret: "!!!", Token: "123456"}, entity.TOTPReasonInvalidFormat, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := f.uc.TOTPVerify(context.Background(), tt.in)
			require.NoError(t, err)
			assert.False(t, out.Valid)
			assert.Equal(t, tt.want, out.Reason)
			assert.Equal(t, tt.bad, out.BadRequest)
		})
	}
}

func TestUsecase_TOTPVerify_WindowLimit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	secret, err := otp.NewTOTP().GenerateSecret(20)
	require.NoError(t, err)
	token, err := otp.NewTOTP().ComputeToken(secret, f.clock.Now().Add(-5*time.Minute))
	require.NoError(t, err)

	for _, w := range []int{otp.MaxWindow + 1, 200000, math.MaxInt} {
		out, err := f.uc.TOTPVerify(ctx, TOTPVerifyInput{Secret: secret, Token: token, Window: ptr(w)})
		assert.Nil(t, out)
		assert.Equal(t, goerror.CodeInvalidInput, errCode(t, err), "window=%d", w)
	}

	out, err := f.uc.TOTPVerify(ctx, TOTPVerifyInput{Secret: secret, Token: token, Window: ptr(otp.MaxWindow)})
	require.NoError(t, err)
	assert.True(t, out.Valid, "ten steps back is inside the largest window")

	f.cfg.Set("totp.max_window", 2)
	_, err = f.uc.TOTPVerify(ctx, TOTPVerifyInput{Secret: secret, Token: token, Window: ptr(3)})
	assert.Equal(t, goerror.CodeInvalidInput, errCode(t, err))
}
