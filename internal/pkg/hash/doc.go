// Package hash turns one-time codes into stored digests.
//
// A digest is HMAC-SHA256 keyed by a process-wide pepper over the code
// concatenated with a per-credential salt. Only the digest and the salt are
// ever persisted; verification recomputes the digest and compares it in
// constant time.
package hash
