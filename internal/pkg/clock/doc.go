// Package clock provides a tiny time abstraction.
//
// Credential expiry and TOTP windows are computed from a Clocker instead of
// time.Now() so stores and usecases can be driven by the Fake clock in tests.
package clock
