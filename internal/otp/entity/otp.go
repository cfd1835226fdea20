package entity

import "time"

// Record is a single issued OTP. Code holds the keyed digest of the code,
// never the plain digits.
type Record struct {
	ID         int64
	UserID     string
	Code       string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Expired reports whether the record is past its lifetime at the given
// instant. A record is still valid at exactly ExpiresAt.
func (r Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Contact is the delivery address for a user, resolved from the directory table.
type Contact struct {
	UserID   string
	Email    string
	FullName string
}
