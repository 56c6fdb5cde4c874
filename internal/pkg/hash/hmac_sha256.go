package hash

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SaltBytes is the size of a generated salt before hex encoding (128 bits).
const SaltBytes = 16

// HMACSHA256 implements Hash using HMAC-SHA256 keyed by a pepper.
type HMACSHA256 struct {
	pepper []byte
}

// NewHMACSHA256 creates a new hasher keyed by pepper.
func NewHMACSHA256(pepper string) *HMACSHA256 {
	return &HMACSHA256{pepper: []byte(pepper)}
}

// Compute returns hex(HMAC-SHA256(pepper, code||salt)).
func (s *HMACSHA256) Compute(code, salt string) string {
	return string(s.gen(code + salt))
}

// HashWithSalt digests code with salt; an empty salt is replaced by a fresh random one.
func (s *HMACSHA256) HashWithSalt(code, salt string) (string, string, error) {
	if salt == "" {
		var err error
		if salt, err = NewSalt(); err != nil {
			return "", "", err
		}
	}

	return s.Compute(code, salt), salt, nil
}

// VerifyWithSalt recomputes the digest and compares it in constant time.
func (s *HMACSHA256) VerifyWithSalt(code, expected, salt string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), s.gen(code+salt)) == 1
}

// NewSalt returns SaltBytes random bytes, hex encoded.
func NewSalt() (string, error) {
	var b [SaltBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}

	return hex.EncodeToString(b[:]), nil
}

func (s *HMACSHA256) gen(str string) []byte {
	h := hmac.New(sha256.New, s.pepper)
	h.Write([]byte(str))
	sum := h.Sum(nil)
	result := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(result, sum)
	return result
}
