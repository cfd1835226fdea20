package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mobanklabs/otpgate/internal/pkg/clock"
	"github.com/mobanklabs/otpgate/internal/pkg/config"
	"github.com/mobanklabs/otpgate/internal/pkg/instrument"
	"github.com/mobanklabs/otpgate/internal/pkg/mail"
	"github.com/mobanklabs/otpgate/internal/pkg/validator"
)

type fakeMail struct {
	mu       sync.Mutex
	sent     []mail.Message
	failures int
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return fmt.Errorf("smtp: temporary failure")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newUsecase(t *testing.T, repoMail repoMail) *Usecase {
	t.Helper()

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  notification:\n    send_max_retries: 3\n"))
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}

	return NewNotification(Dependency{
		Config:     cfg,
		Clock:      &clock.Fixed{At: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
		Validator:  v10,
		RepoMail:   repoMail,
		Instrument: instrument.NewNoop(),
	})
}

func TestConsumeLoginAlertSendsEmail(t *testing.T) {
	// Arrange
	repo := &fakeMail{}
	uc := newUsecase(t, repo)
	in := ConsumeLoginAlertInput{
		UserID:   "user-1",
		Email:    "one@example.com",
		FullName: "User One",
		LoginAt:  time.Date(2025, 6, 1, 9, 58, 0, 0, time.UTC),
	}

	// Act
	if err := uc.ConsumeLoginAlert(context.Background(), in); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	// Assert
	if len(repo.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(repo.sent))
	}
	msg := repo.sent[0]
	if msg.To[0] != "one@example.com" {
		t.Fatalf("unexpected recipient %q", msg.To[0])
	}
	if !strings.Contains(msg.TextBody, "User One") {
		t.Fatalf("expected full name in body, got %q", msg.TextBody)
	}
	if !strings.Contains(msg.TextBody, "09:58") {
		t.Fatalf("expected login time in body, got %q", msg.TextBody)
	}
}

func TestConsumeLoginAlertRetriesDelivery(t *testing.T) {
	// Arrange
	repo := &fakeMail{failures: 2}
	uc := newUsecase(t, repo)
	in := ConsumeLoginAlertInput{
		UserID:   "user-1",
		Email:    "one@example.com",
		FullName: "User One",
		LoginAt:  time.Date(2025, 6, 1, 9, 58, 0, 0, time.UTC),
	}

	// Act
	if err := uc.ConsumeLoginAlert(context.Background(), in); err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}

	// Assert
	if len(repo.sent) != 1 {
		t.Fatalf("expected 1 delivered email, got %d", len(repo.sent))
	}
}

func TestConsumeLoginAlertDropsMalformedPayload(t *testing.T) {
	// Arrange
	repo := &fakeMail{}
	uc := newUsecase(t, repo)

	// Act
	err := uc.ConsumeLoginAlert(context.Background(), ConsumeLoginAlertInput{UserID: "user-1"})

	// Assert
	if err != nil {
		t.Fatalf("malformed payload must be dropped, got %v", err)
	}
	if len(repo.sent) != 0 {
		t.Fatalf("expected no email for malformed payload")
	}
}

func TestConsumeLoginAlertExhaustsRetries(t *testing.T) {
	// Arrange
	repo := &fakeMail{failures: 10}
	uc := newUsecase(t, repo)
	in := ConsumeLoginAlertInput{
		UserID:   "user-1",
		Email:    "one@example.com",
		FullName: "User One",
		LoginAt:  time.Date(2025, 6, 1, 9, 58, 0, 0, time.UTC),
	}

	// Act
	err := uc.ConsumeLoginAlert(context.Background(), in)

	// Assert
	if err == nil {
		t.Fatalf("expected error after retries exhausted")
	}
	if len(repo.sent) != 0 {
		t.Fatalf("expected no delivered email")
	}
}
