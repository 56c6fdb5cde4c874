// Package uid generates identifiers: UUIDs for correlation and token IDs for
// credentials.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
