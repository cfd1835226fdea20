package inbound

import (
	"context"

	"github.com/mobanklabs/otpgate/internal/otp/usecase"
	"github.com/mobanklabs/otpgate/internal/pkg/router"
)

type uc interface {
	Request(ctx context.Context, in usecase.RequestInput) error
	Verify(ctx context.Context, in usecase.VerifyInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/otp/request", end.Request)
	r.POST("/api/v1/otp/verify", end.Verify)
}
