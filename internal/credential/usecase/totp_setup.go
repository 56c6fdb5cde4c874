package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/qrcode"
)

type TOTPSetupInput struct {
	AccountName string `validate:"max=256"`
	Issuer      string `validate:"max=128"`
}

type TOTPSetupOutput struct {
	Secret      string
	URI         string
	QRCode      string
	AccountName string
	Issuer      string
}

// TOTPSetup mints a secret for an authenticator app. Nothing is stored; the
// caller keeps the secret.
func (s *Usecase) TOTPSetup(ctx context.Context, in TOTPSetupInput) (*TOTPSetupOutput, error) {
	ctx, span := s.startSpan(ctx, "TOTPSetup")
	defer span.End()

	in.AccountName = strings.TrimSpace(in.AccountName)
	if in.AccountName == "" {
		return nil, goerror.NewInvalidFormat("account_name is required")
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	issuer := strings.TrimSpace(in.Issuer)
	if issuer == "" {
		issuer = s.cfg.GetString("totp.issuer")
	}
	if issuer == "" {
		issuer = "OTP Service"
	}

	secret, err := s.totp.GenerateSecret(s.intOr("totp.secret_bytes", 32))
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "error", err)
		return nil, goerror.NewServer(err)
	}

	uri := s.totp.ProvisioningURI(secret, in.AccountName, issuer)

	qr, err := qrcode.DataURI(uri, s.intOr("totp.qr_size", qrcode.DefaultSize))
	if err != nil {
		slog.ErrorContext(ctx, "failed to render totp qr code", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &TOTPSetupOutput{
		Secret:      secret,
		URI:         uri,
		QRCode:      qr,
		AccountName: in.AccountName,
		Issuer:      issuer,
	}, nil
}
