// Package config abstracts configuration access behind a typed interface so
// wiring code never touches the underlying provider directly.
package config

import (
	"io"
	"time"
)

// Config retrieves typed configuration values by dotted key. Implementations
// return zero values for missing keys; callers that need a hard failure
// should validate at startup.
type Config interface {
	io.Closer

	// GetString retrieves the value for key as a string.
	GetString(key string) string

	// GetBool retrieves the value for key as a bool.
	GetBool(key string) bool

	// GetInt retrieves the value for key as an int.
	GetInt(key string) int

	// GetInt32 retrieves the value for key as an int32.
	GetInt32(key string) int32

	// GetInt64 retrieves the value for key as an int64.
	GetInt64(key string) int64

	// GetFloat64 retrieves the value for key as a float64.
	GetFloat64(key string) float64

	// GetUint16 retrieves the value for key as a uint16, typically ports.
	GetUint16(key string) uint16

	// GetSecond retrieves the value for key as a duration in seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the value for key as a duration in minutes.
	GetMinute(key string) time.Duration

	// GetHour retrieves the value for key as a duration in hours.
	GetHour(key string) time.Duration

	// GetArray retrieves the value for key as a slice of strings.
	// The value is stored with format <element1>,<element2>,...
	GetArray(key string) []string
}
