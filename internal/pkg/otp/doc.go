// Package otp implements the time-based one-time password engine (RFC 6238).
//
// The engine is stateless: a secret is generated and handed to the caller,
// who later presents it together with a candidate token. Nothing is stored
// server-side, so verification is a pure function of secret, token and time.
package otp
