package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type OTPCreateInput struct {
	Length       *int
	TTL          *int
	Subject      string `validate:"max=256"`
	Purpose      string `validate:"max=128"`
	Charset      string `validate:"max=128"`
	Email        string `validate:"max=254"`
	Organization string `validate:"max=128"`
	EmailSubject string `validate:"max=256"`
	SendEmail    bool
	// Debug is the ?debug=true query flag.
	Debug bool
}

type OTPCreateOutput struct {
	ID        string
	TTL       int
	ExpiresAt time.Time
	// EmailSent is nil when no delivery was attempted.
	EmailSent    *bool
	EmailMessage string
	EmailError   string
	// Code is set only when the caller may see the plaintext.
	Code string
}

func (s *Usecase) OTPCreate(ctx context.Context, in OTPCreateInput) (*OTPCreateOutput, error) {
	ctx, span := s.startSpan(ctx, "OTPCreate")
	defer span.End()

	in.Subject = strings.TrimSpace(in.Subject)
	in.Purpose = strings.TrimSpace(in.Purpose)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validator.Validate(in); err != nil {
		s.verifyFailed(ctx, "invalid_request")
		return nil, goerror.NewInvalidInput(err)
	}

	length, ttl, err := s.bounds(in.Length, in.TTL)
	if err != nil {
		s.verifyFailed(ctx, "invalid_request")
		return nil, err
	}

	charset := in.Charset
	if charset == "" {
		charset = "digits"
	}

	cred, err := s.issue(ctx, length, ttl, charset, in.Subject, in.Purpose)
	if err != nil {
		return nil, err
	}

	out := &OTPCreateOutput{ID: cred.ID, TTL: cred.TTL, ExpiresAt: cred.ExpiresAt}

	if in.SendEmail && in.Email != "" {
		ok, msg := s.deliver(ctx, entity.OTPMail{
			To:           in.Email,
			Code:         cred.Code,
			Organization: in.Organization,
			Subject:      in.EmailSubject,
			Purpose:      in.Purpose,
			TTL:          time.Duration(ttl) * time.Second,
		})
		out.EmailSent = &ok
		if ok {
			out.EmailMessage = msg
		} else {
			out.EmailError = msg
		}
	}

	if s.revealCode(ctx, in.Debug) {
		out.Code = cred.Code
	}

	return out, nil
}
