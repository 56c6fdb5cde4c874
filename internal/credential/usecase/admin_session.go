package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
)

type AdminSessionOutput struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int
}

// AdminSession exchanges the credentials that authenticated this request for
// a bearer token, so later calls need not resend the password.
func (s *Usecase) AdminSession(ctx context.Context) (*AdminSessionOutput, error) {
	ctx, span := s.startSpan(ctx, "AdminSession")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("unauthorized", goerror.CodeUnauthorized)
	}

	token, err := s.jwt.Generate(clm.Subject, clm.Role)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate admin session token", "subject", clm.Subject, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "admin session issued", "subject", clm.Subject, "role", clm.Role)

	return &AdminSessionOutput{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwt.TTL() / time.Second),
	}, nil
}
