package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/mobanklabs/otpgate/internal/otp/entity"
	"github.com/mobanklabs/otpgate/internal/pkg/instrument"
	"github.com/mobanklabs/otpgate/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

type Mailer struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mailer {
	return &Mailer{client: client, ins: ins}
}

// SendCode delivers the one-time code. This is the only place the plain code
// appears outside the usecase.
func (m *Mailer) SendCode(ctx context.Context, to entity.Contact, code string, validity time.Duration) error {
	ctx, span := m.ins.Tracer("otp.outbound.mailer").Start(ctx, "SendCode")
	defer span.End()

	minutes := int(validity.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	msg := mail.Message{
		To:      []string{to.Email},
		Subject: "Your one-time verification code",
		TextBody: fmt.Sprintf(
			"Hello %s,\n\nYour verification code is %s. It expires in %d minute(s).\n\nIf you did not request this code, you can safely ignore this email.\n",
			to.FullName, code, minutes,
		),
		HTMLBody: fmt.Sprintf(
			"<p>Hello %s,</p><p>Your verification code is <strong>%s</strong>. It expires in %d minute(s).</p><p>If you did not request this code, you can safely ignore this email.</p>",
			to.FullName, code, minutes,
		),
	}

	if err := m.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
