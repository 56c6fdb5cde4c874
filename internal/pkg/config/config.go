// Package config exposes typed, reloadable configuration lookups.
//
// Values are read on every call so hot-reloaded files and environment
// overrides take effect without restarting the service.
package config

import (
	"io"
	"time"
)

// Config retrieves configuration values by dotted key (for example
// "otp.default_ttl_seconds"). Missing keys yield the zero value.
type Config interface {
	io.Closer

	// GetMillisecond reads an integer key as milliseconds.
	GetMillisecond(key string) time.Duration
	// GetSecond reads an integer key as seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer key as minutes.
	GetMinute(key string) time.Duration

	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetArray reads a YAML list or a comma separated string. Blank elements are dropped.
	GetArray(key string) []string
}
