package otp

import (
	"testing"
	"time"
)

func TestCryptoRandDigits(t *testing.T) {
	// Arrange
	src := NewCryptoRand()

	// Act
	code, err := src.Digits(6)

	// Assert
	if err != nil {
		t.Fatalf("digits failed: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit %q in code %q", r, code)
		}
	}
}

func TestPolicyWidensShortLength(t *testing.T) {
	// Arrange & Act
	p := NewPolicy(2, time.Minute, NewCryptoRand())

	// Assert
	if p.Length() != 4 {
		t.Fatalf("expected minimum length 4, got %d", p.Length())
	}
}

func TestPolicyExpiresAt(t *testing.T) {
	// Arrange
	p := NewPolicy(6, 3*time.Minute, NewCryptoRand())
	issued := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// Act
	exp := p.ExpiresAt(issued)

	// Assert
	if want := issued.Add(3 * time.Minute); !exp.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, exp)
	}
}

func TestPolicyWellFormed(t *testing.T) {
	p := NewPolicy(6, time.Minute, NewCryptoRand())

	cases := []struct {
		name string
		code string
		want bool
	}{
		{"valid", "123456", true},
		{"too short", "12345", false},
		{"too long", "1234567", false},
		{"letters", "12a456", false},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.WellFormed(tc.code); got != tc.want {
				t.Fatalf("WellFormed(%q) = %v, want %v", tc.code, got, tc.want)
			}
		})
	}
}
