package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the TOTP time step.
	Period = 30
	// Digits is the token length.
	Digits = 6
	// DefaultSecretBytes is the secret size used when none is requested.
	DefaultSecretBytes = 32
	// MaxWindow caps the steps checked either side of the current one.
	MaxWindow = 10
)

// ErrInvalidToken is returned for tokens that are not 1 to 6 ASCII digits.
var ErrInvalidToken = errors.New("otp: token must be 1 to 6 digits")

// Reason explains a verification result.
type Reason string

const (
	ReasonOK            Reason = "ok"
	ReasonInvalidToken  Reason = "invalid_token"
	ReasonInvalidFormat Reason = "invalid_format"
)

func (r Reason) String() string {
	return string(r)
}

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// OTP defines the contract for TOTP operations.
type OTP interface {
	// GenerateSecret returns a random base32 secret of byteLength bytes.
	GenerateSecret(byteLength int) (string, error)
	// ComputeToken returns the token for secret at the given time.
	ComputeToken(secret string, at time.Time) (string, error)
	// Verify checks token against every step in [-window, window] around at.
	Verify(secret, token string, window int, at time.Time) (bool, Reason)
	// ProvisioningURI builds the otpauth:// URI consumed by authenticator apps.
	ProvisioningURI(secret, account, issuer string) string
}

// TOTP implements OTP with a 30 second period, 6 digits and HMAC-SHA1.
type TOTP struct {
	opts totp.ValidateOpts
}

// NewTOTP constructs the standard TOTP engine.
func NewTOTP() *TOTP {
	return &TOTP{
		opts: totp.ValidateOpts{
			Period:    Period,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		},
	}
}

// GenerateSecret returns byteLength random bytes encoded as unpadded base32.
func (o *TOTP) GenerateSecret(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultSecretBytes
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return secretEncoding.EncodeToString(b), nil
}

// ComputeToken creates the token for secret at the given time.
func (o *TOTP) ComputeToken(secret string, at time.Time) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", otp.ErrValidateSecretInvalidBase32
	}

	return totp.GenerateCodeCustom(secret, at, o.opts)
}

// Verify zero-pads token to 6 digits and compares it against the tokens of
// every step k*Period for k in [-window, window]. A negative window is
// treated as zero and a window above MaxWindow as MaxWindow.
func (o *TOTP) Verify(secret, token string, window int, at time.Time) (bool, Reason) {
	token, err := normalizeToken(token)
	if err != nil {
		return false, ReasonInvalidFormat
	}

	window = min(max(window, 0), MaxWindow)

	for k := -window; k <= window; k++ {
		want, err := o.ComputeToken(secret, at.Add(time.Duration(k*Period)*time.Second))
		if err != nil {
			return false, ReasonInvalidFormat
		}

		if subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 1 {
			return true, ReasonOK
		}
	}

	return false, ReasonInvalidToken
}

// ProvisioningURI returns otpauth://totp/{issuer}:{account}?secret=..&issuer=..
// with issuer and account percent-encoded.
func (o *TOTP) ProvisioningURI(secret, account, issuer string) string {
	iss := escape(issuer)
	return "otpauth://totp/" + iss + ":" + escape(account) + "?secret=" + secret + "&issuer=" + iss
}

func normalizeToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" || len(token) > Digits {
		return "", ErrInvalidToken
	}

	for i := range len(token) {
		if token[i] < '0' || token[i] > '9' {
			return "", ErrInvalidToken
		}
	}

	return strings.Repeat("0", Digits-len(token)) + token, nil
}

// escape percent-encodes every reserved character, "/" included, so the
// label always stays a single path segment.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
