package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mobanklabs/otpgate/internal/pkg/goerror"
)

type VerifyInput struct {
	UserID string `validate:"required,max=64"`
	Code   string `validate:"required,otpcode"`
}

// Verify consumes the active code for the user. A code verifies at most once;
// concurrent attempts race on a single conditional update in the store.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) error {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	// The otpcode rule checks shape; the policy check rejects codes of the
	// wrong configured width before anything touches storage.
	if !s.policy.WellFormed(in.Code) {
		return goerror.NewInvalidInput(nil, "code", fmt.Sprintf("code must be %d digits", s.policy.Length()))
	}

	allowed, err := s.verifyLimit.Allow(ctx, in.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check verify lockout", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}
	if !allowed {
		slog.WarnContext(ctx, "otp verify locked out", "user_id", in.UserID)
		return goerror.NewBusiness("too many failed attempts, try again later", goerror.CodeTooManyRequest)
	}

	rec, err := s.repoDB.FindActiveCode(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no active code to verify", "user_id", in.UserID)
		return goerror.NewBusiness("no active code, request a new one", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find active code", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	if rec.Expired(now) {
		if dErr := s.repoDB.DeleteCode(ctx, rec.ID); dErr != nil {
			slog.WarnContext(ctx, "failed to purge expired code", "user_id", in.UserID, "error", dErr)
		}
		return goerror.NewBusiness("code has expired, request a new one", goerror.CodeExpired)
	}

	digest, err := s.hmac.Hash(in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to digest code", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	consumed, err := s.repoDB.ConsumeCode(ctx, in.UserID, digest, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume code", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}
	if !consumed {
		if _, hErr := s.verifyLimit.Hit(ctx, in.UserID); hErr != nil {
			slog.WarnContext(ctx, "failed to count failed attempt", "user_id", in.UserID, "error", hErr)
		}
		return goerror.NewBusiness("code does not match", goerror.CodeInvalidInput)
	}

	if rErr := s.verifyLimit.Reset(ctx, in.UserID); rErr != nil {
		slog.WarnContext(ctx, "failed to reset failed attempts", "user_id", in.UserID, "error", rErr)
	}

	s.publishLoginAlert(ctx, in.UserID, now)

	return nil
}

// publishLoginAlert is fire-and-forget; a broker outage never fails a login.
func (s *Usecase) publishLoginAlert(ctx context.Context, userID string, at time.Time) {
	contact, err := s.repoDB.GetContact(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "failed to resolve contact for login alert", "user_id", userID, "error", err)
		return
	}

	if err := s.repoMessaging.PublishLoginAlert(ctx, LoginAlertEvent{
		UserID:   contact.UserID,
		Email:    contact.Email,
		FullName: contact.FullName,
		At:       at,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish login alert", "user_id", userID, "error", err)
	}
}
