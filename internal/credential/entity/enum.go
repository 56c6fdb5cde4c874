package entity

import (
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
)

// Outcome is the result of one verify-and-consume attempt. Outcomes are
// values, never errors.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeNotFound Outcome = "not_found"
	OutcomeExpired  Outcome = "expired"
	OutcomeUsed     Outcome = "used"
	OutcomeInvalid  Outcome = "invalid"
)

func (o Outcome) String() string { return string(o) }

// ParseOutcome maps a backend reply to an Outcome. Unknown replies are invalid.
func ParseOutcome(s string) Outcome {
	switch o := Outcome(s); o {
	case OutcomeOK, OutcomeNotFound, OutcomeExpired, OutcomeUsed, OutcomeInvalid:
		return o
	default:
		return OutcomeInvalid
	}
}

// TOTPReason explains a TOTP verification result.
type TOTPReason = otp.Reason

const (
	TOTPReasonOK                = otp.ReasonOK
	TOTPReasonInvalidToken      = otp.ReasonInvalidToken
	TOTPReasonInvalidFormat     = otp.ReasonInvalidFormat
	TOTPReasonMissingParameters = otp.Reason("missing_parameters")
)

// ListStatus filters ListActive by consumption state.
type ListStatus string

const (
	ListStatusActive ListStatus = "active"
	ListStatusUsed   ListStatus = "used"
	ListStatusAny    ListStatus = "any"
)

// ParseListStatus accepts active, used or any (case-insensitive). Anything
// else, including "", means any.
func ParseListStatus(s string) ListStatus {
	switch st := ListStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case ListStatusActive, ListStatusUsed:
		return st
	default:
		return ListStatusAny
	}
}

// Matches reports whether a credential with the given used flag passes the filter.
func (s ListStatus) Matches(used bool) bool {
	switch s {
	case ListStatusActive:
		return !used
	case ListStatusUsed:
		return used
	default:
		return true
	}
}

// OTPType is the user-facing alphabet selector of the email issuing flow.
type OTPType string

const (
	OTPTypeNumeric      OTPType = "numeric"
	OTPTypeAlphanumeric OTPType = "alphanumeric"
	OTPTypeAlphabet     OTPType = "alphabet"
)

// Charset maps the type to a generator alias. Unknown types use digits.
func (t OTPType) Charset() string {
	switch t {
	case OTPTypeAlphanumeric:
		return "alnum"
	case OTPTypeAlphabet:
		return "alpha"
	default:
		return "digits"
	}
}
