package hash

// Hash computes and verifies salted digests of short secrets.
type Hash interface {
	// Compute returns the hex digest of code+salt.
	Compute(code, salt string) string
	// HashWithSalt digests code with salt, generating a fresh salt when salt is empty.
	HashWithSalt(code, salt string) (digest string, usedSalt string, err error)
	// VerifyWithSalt reports whether code+salt produces expected.
	VerifyWithSalt(code, expected, salt string) bool
}
