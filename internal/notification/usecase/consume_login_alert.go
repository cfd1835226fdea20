package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mobanklabs/otpgate/internal/pkg/mail"
	"github.com/sethvargo/go-retry"
)

type ConsumeLoginAlertInput struct {
	UserID   string    `validate:"required"`
	Email    string    `validate:"required,email"`
	FullName string    `validate:"required"`
	LoginAt  time.Time
}

// ConsumeLoginAlert sends the "new sign-in" email with bounded retries. A
// malformed payload is dropped; a delivery failure is returned so the broker
// can redeliver.
func (s *Usecase) ConsumeLoginAlert(ctx context.Context, in ConsumeLoginAlertInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeLoginAlert")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	loginAt := in.LoginAt
	if loginAt.IsZero() {
		loginAt = s.clock.Now()
	}
	at := loginAt.UTC().Format("Mon, 02 Jan 2006 15:04 MST")

	msg := mail.Message{
		To:      []string{in.Email},
		Subject: "New sign-in to your account",
		TextBody: fmt.Sprintf(
			"Hello %s,\n\nYour account was just signed in to at %s.\n\nIf this was you, no action is needed. If you do not recognize this sign-in, please contact support immediately.\n",
			in.FullName, at,
		),
		HTMLBody: fmt.Sprintf(
			"<p>Hello %s,</p><p>Your account was just signed in to at <strong>%s</strong>.</p><p>If this was you, no action is needed. If you do not recognize this sign-in, please contact support immediately.</p>",
			in.FullName, at,
		),
	}

	maxRetries := s.cfg.GetInt64("modules.notification.send_max_retries")
	if maxRetries <= 0 {
		maxRetries = 3
	}

	b := retry.NewFibonacci(500 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(uint64(maxRetries), b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.repoMail.Send(ctx, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to send login alert email", "user_id", in.UserID, "error", err)
		return err
	}

	return nil
}
