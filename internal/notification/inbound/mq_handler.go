package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mobanklabs/otpgate/internal/notification/usecase"
	"github.com/mobanklabs/otpgate/internal/pkg/instrument"
	"github.com/mobanklabs/otpgate/internal/pkg/messaging"
	"github.com/mobanklabs/otpgate/internal/pkg/uid"
	"github.com/mobanklabs/otpgate/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) UserLoginAlertNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "UserLoginAlertNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: user login alert notification", "msg_body", string(body))

	var payload event.UserLoginAlertMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of user login alert notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeLoginAlert(ctx, usecase.ConsumeLoginAlertInput{
		UserID:   payload.UserID,
		Email:    payload.Email,
		FullName: payload.FullName,
		LoginAt:  payload.LoginAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume user login alert", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
