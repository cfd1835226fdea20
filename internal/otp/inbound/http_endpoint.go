package inbound

import (
	"github.com/mobanklabs/otpgate/internal/otp/usecase"
	"github.com/mobanklabs/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the OTP workflows.
type HTTPEndpoint struct {
	uc uc
}

// Request issues a fresh one-time code and delivers it by email.
// @Summary Request one-time code
// @Description Issues a fresh code for the user, superseding any unconsumed one, and emails it. The code is never returned.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body RequestOtpRequest true "Request payload"
// @Success 200 {object} router.successResponse{data=RequestOtpResponse} "Acknowledgement"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "Unknown user"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Failure 502 {object} router.errorResponse "Delivery failed"
// @Router /api/v1/otp/request [post]
func (h *HTTPEndpoint) Request(r *router.Request) (any, error) {
	var req RequestOtpRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Request(r.Context(), usecase.RequestInput{UserID: req.UserID}); err != nil {
		return nil, err
	}

	return RequestOtpResponse{}, nil
}

// Verify consumes the active one-time code for the user.
// @Summary Verify one-time code
// @Description Verifies the submitted code against the user's active code. A code verifies at most once.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body VerifyOtpRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyOtpResponse} "Verification result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "No active code"
// @Failure 410 {object} router.errorResponse "Code expired"
// @Failure 422 {object} router.errorResponse "Code does not match"
// @Failure 429 {object} router.errorResponse "Too many failed attempts"
// @Router /api/v1/otp/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyOtpRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		UserID: req.UserID,
		Code:   req.Code,
	}); err != nil {
		return nil, err
	}

	return VerifyOtpResponse{}, nil
}
