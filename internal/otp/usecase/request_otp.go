package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mobanklabs/otpgate/internal/otp/entity"
	"github.com/mobanklabs/otpgate/internal/pkg/goerror"
)

type RequestInput struct {
	UserID string `validate:"required,max=64"`
}

// Request issues a fresh code for the user, superseding any unconsumed one,
// and delivers it by email. The code itself never leaves the server.
func (s *Usecase) Request(ctx context.Context, in RequestInput) error {
	ctx, span := s.startSpan(ctx, "Request")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	// Counting and the verdict are a single limiter call. Every attempt
	// inside the window counts, even ones that fail later.
	allowed, err := s.requestLimit.Hit(ctx, in.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check request rate limit", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}
	if !allowed {
		slog.WarnContext(ctx, "otp request rate limit exceeded", "user_id", in.UserID)
		return goerror.NewBusiness("too many code requests, try again later", goerror.CodeTooManyRequest)
	}

	contact, err := s.repoDB.GetContact(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp requested for unknown user", "user_id", in.UserID)
		return goerror.NewBusiness("user is not registered", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get contact", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	code, err := s.policy.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate code", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	digest, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to digest code", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	rec := entity.Record{
		ID:        s.uid.Generate(),
		UserID:    in.UserID,
		Code:      digest,
		CreatedAt: now,
		ExpiresAt: s.policy.ExpiresAt(now),
	}

	if err := s.repoDB.SaveCode(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to repo save code", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	// Delivery failure does not undo persistence; the client may retry the
	// request and supersede the undelivered code.
	if err := s.repoMail.SendCode(ctx, *contact, code, s.policy.Validity()); err != nil {
		slog.ErrorContext(ctx, "failed to deliver code email", "user_id", in.UserID, "error", err)
		return goerror.NewServerCode(err, goerror.CodeDeliveryFailed)
	}

	return nil
}
