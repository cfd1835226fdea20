package email

import (
	"context"

	"github.com/mobanklabs/otpgate/internal/pkg/instrument"
	"github.com/mobanklabs/otpgate/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

// Email sends notification emails through the shared SMTP client, adding a
// span per delivery.
type Email struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Email {
	return &Email{client: client, ins: ins}
}

func (e *Email) Send(ctx context.Context, msg mail.Message) error {
	ctx, span := e.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()

	if err := e.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
