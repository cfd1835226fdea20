package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"rate limited", NewBusiness("too many requests", CodeTooManyRequest), http.StatusTooManyRequests},
		{"not found", NewBusiness("no active code", CodeNotFound), http.StatusNotFound},
		{"expired", NewBusiness("code has expired", CodeExpired), http.StatusGone},
		{"invalid input", NewBusiness("code does not match", CodeInvalidInput), http.StatusUnprocessableEntity},
		{"delivery failed", NewServerCode(fmt.Errorf("smtp down"), CodeDeliveryFailed), http.StatusBadGateway},
		{"internal", NewServer(fmt.Errorf("boom")), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ge *Error
			if !errors.As(tc.err, &ge) {
				t.Fatalf("expected *Error, got %T", tc.err)
			}
			if got := ge.StatusCode(); got != tc.want {
				t.Fatalf("StatusCode() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNewServerWrapsCause(t *testing.T) {
	// Arrange
	cause := fmt.Errorf("connection reset")

	// Act
	err := NewServer(cause)

	// Assert
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
}

func TestNewInvalidInputFields(t *testing.T) {
	// Act
	err := NewInvalidInput(nil, "code", "must be 6 digits")

	// Assert
	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if ge.Fields()["code"] != "must be 6 digits" {
		t.Fatalf("unexpected fields %v", ge.Fields())
	}
}
