// Package codegen produces one-time codes drawn uniformly from a named or
// literal alphabet using a cryptographically secure random source.
package codegen
