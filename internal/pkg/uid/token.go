package uid

import (
	"crypto/rand"
	"encoding/base64"
)

// TokenID generates unguessable prefixed identifiers such as "otp_Xk3...".
type TokenID struct {
	prefix string
	size   int
}

// NewTokenID returns a generator producing prefix + base64url(size random bytes).
func NewTokenID(prefix string, size int) *TokenID {
	if size <= 0 {
		size = 12
	}
	return &TokenID{prefix: prefix, size: size}
}

// Generate returns a new token ID. It panics only if the system random
// source fails, which crypto/rand documents as unrecoverable.
func (t *TokenID) Generate() string {
	b := make([]byte, t.size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return t.prefix + base64.RawURLEncoding.EncodeToString(b)
}
