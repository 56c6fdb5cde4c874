package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type OTPGenerateEmailInput struct {
	Email        string `validate:"required,max=254"`
	Type         string `validate:"omitempty,oneof=numeric alphanumeric alphabet"`
	Organization string `validate:"max=128"`
	Subject      string `validate:"max=256"`
	Length       *int
	TTL          *int
	Debug        bool
}

type OTPGenerateEmailOutput struct {
	Success   bool
	Message   string
	Error     string
	OTPID     string
	Type      entity.OTPType
	ExpiresIn int
	Code      string
}

// OTPGenerateEmail issues a code for an address and emails it. The credential
// is stored before delivery, so a failed send still leaves it verifiable.
func (s *Usecase) OTPGenerateEmail(ctx context.Context, in OTPGenerateEmailInput) (*OTPGenerateEmailOutput, error) {
	ctx, span := s.startSpan(ctx, "OTPGenerateEmail")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		s.verifyFailed(ctx, "missing_email")
		return nil, goerror.NewInvalidFormat("Email is required")
	}

	if err := s.validator.Validate(in); err != nil {
		s.verifyFailed(ctx, "invalid_request")
		return nil, goerror.NewInvalidInput(err)
	}

	length, ttl, err := s.bounds(in.Length, in.TTL)
	if err != nil {
		s.verifyFailed(ctx, "invalid_request")
		return nil, err
	}

	typ := entity.OTPType(in.Type)
	if typ == "" {
		typ = entity.OTPTypeNumeric
	}

	cred, err := s.issue(ctx, length, ttl, typ.Charset(), in.Email, "email_otp_"+string(typ))
	if err != nil {
		return nil, err
	}

	ok, msg := s.deliver(ctx, entity.OTPMail{
		To:           in.Email,
		Code:         cred.Code,
		Organization: in.Organization,
		Subject:      in.Subject,
		Purpose:      "OTP verification - " + string(typ),
		TTL:          time.Duration(ttl) * time.Second,
	})

	out := &OTPGenerateEmailOutput{Success: ok, OTPID: cred.ID, Type: typ, ExpiresIn: ttl}
	if ok {
		out.Message = "OTP sent to " + in.Email
	} else {
		out.Error = msg
	}

	if s.revealCode(ctx, in.Debug) {
		out.Code = cred.Code
	}

	return out, nil
}
