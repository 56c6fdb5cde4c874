package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type OTPVerifyInput struct {
	ID    string
	Code  string
	Email string
}

type OTPVerifyOutput struct {
	Valid  bool
	Reason string
	// Message is empty for the opaque rejections that hide whether the id exists.
	Message string
	// BadRequest marks a call missing its id or code.
	BadRequest bool
}

// reasonOpaque is reported for requests that must not reveal whether an id exists.
const reasonOpaque = "invalid"

func (s *Usecase) OTPVerify(ctx context.Context, in OTPVerifyInput) (*OTPVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "OTPVerify")
	defer span.End()

	start := s.clock.Now()
	defer func() { s.metrics.verifyDur.Record(ctx, s.clock.Now().Sub(start).Seconds()) }()

	in.ID = strings.TrimSpace(in.ID)
	in.Email = strings.TrimSpace(in.Email)
	if in.ID == "" || in.Code == "" {
		s.verifyFailed(ctx, "invalid_request")
		return &OTPVerifyOutput{Reason: reasonOpaque, BadRequest: true}, nil
	}

	meta, err := s.store.GetMeta(ctx, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		s.verifyFailed(ctx, string(entity.OutcomeNotFound))
		return &OTPVerifyOutput{Reason: reasonOpaque}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get otp credential", "otp_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if in.Email != "" && meta.Subject != "" && meta.Subject != in.Email {
		slog.WarnContext(ctx, "otp subject does not match email", "otp_id", in.ID)
		s.verifyFailed(ctx, "email_mismatch")
		return &OTPVerifyOutput{Reason: reasonOpaque}, nil
	}

	outcome, err := s.store.VerifyAndConsume(ctx, in.ID, s.hash.Compute(in.Code, meta.Salt))
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify otp credential", "otp_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if outcome == entity.OutcomeOK {
		s.metrics.verifyOK.Add(ctx, 1)
		return &OTPVerifyOutput{Valid: true, Reason: outcome.String(), Message: "OTP verified successfully"}, nil
	}

	s.verifyFailed(ctx, outcome.String())
	return &OTPVerifyOutput{
		Reason:  outcome.String(),
		Message: "OTP verification failed: " + outcome.String(),
	}, nil
}
