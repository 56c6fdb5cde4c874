package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
)

type TOTPVerifyInput struct {
	Secret string
	Token  string
	// Window is the number of 30s steps accepted either side; nil uses
	// totp.default_window. Values above totp.max_window are rejected.
	Window *int
}

type TOTPVerifyOutput struct {
	Valid      bool
	Reason     entity.TOTPReason
	Message    string
	BadRequest bool
}

func (s *Usecase) TOTPVerify(ctx context.Context, in TOTPVerifyInput) (*TOTPVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "TOTPVerify")
	defer span.End()

	start := s.clock.Now()
	defer func() { s.metrics.totpVerifyDur.Record(ctx, s.clock.Now().Sub(start).Seconds()) }()

	in.Secret = strings.TrimSpace(in.Secret)
	in.Token = strings.TrimSpace(in.Token)
	if in.Secret == "" || in.Token == "" {
		s.verifyFailed(ctx, "invalid_request")
		return &TOTPVerifyOutput{
			Reason:     entity.TOTPReasonMissingParameters,
			Message:    "Both secret and token are required",
			BadRequest: true,
		}, nil
	}

	maxWindow := min(s.intOr("totp.max_window", otp.MaxWindow), otp.MaxWindow)
	window := min(s.cfg.GetInt("totp.default_window"), maxWindow)
	if in.Window != nil {
		if *in.Window > maxWindow {
			s.verifyFailed(ctx, "invalid_request")
			return nil, goerror.NewInvalidInput(nil, "window", fmt.Sprintf("window must be at most %d", maxWindow))
		}
		window = *in.Window
	}

	ok, reason := s.totp.Verify(in.Secret, in.Token, window, s.clock.Now())
	if ok {
		s.metrics.verifyOK.Add(ctx, 1)
		return &TOTPVerifyOutput{Valid: true, Reason: reason, Message: "TOTP verified successfully"}, nil
	}

	s.verifyFailed(ctx, reason.String())
	return &TOTPVerifyOutput{Reason: reason, Message: "TOTP verification failed: " + reason.String()}, nil
}
