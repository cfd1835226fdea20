// Package uid provides identifier generators used across modules.
package uid

// NumberID generates unique numeric identifiers for database rows.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers, used for correlation ids
// and event ids.
type StringID interface {
	Generate() string
}
