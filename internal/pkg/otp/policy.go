package otp

import (
	"time"
)

// Policy fixes the shape and lifetime of issued codes.
type Policy struct {
	length   int
	validity time.Duration
	source   RandomSource
}

// NewPolicy builds a policy from a code length, a validity window, and a
// digit source. Length must be at least 4; shorter codes are widened to 4.
func NewPolicy(length int, validity time.Duration, source RandomSource) *Policy {
	if length < 4 {
		length = 4
	}
	return &Policy{length: length, validity: validity, source: source}
}

// Length returns the number of digits in an issued code.
func (p *Policy) Length() int {
	return p.length
}

// Validity returns how long an issued code stays usable.
func (p *Policy) Validity() time.Duration {
	return p.validity
}

// Generate issues a fresh code from the digit source.
func (p *Policy) Generate() (string, error) {
	return p.source.Digits(p.length)
}

// ExpiresAt returns the expiry instant for a code issued at the given time.
func (p *Policy) ExpiresAt(issuedAt time.Time) time.Time {
	return issuedAt.Add(p.validity)
}

// WellFormed reports whether the candidate has the exact shape of an issued
// code. Malformed candidates can be rejected without touching storage.
func (p *Policy) WellFormed(code string) bool {
	if len(code) != p.length {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
