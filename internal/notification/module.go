package notification

import (
	"context"

	"github.com/mobanklabs/otpgate/internal/notification/inbound"
	"github.com/mobanklabs/otpgate/internal/notification/outbound/email"
	"github.com/mobanklabs/otpgate/internal/notification/usecase"
	"github.com/mobanklabs/otpgate/internal/pkg/clock"
	"github.com/mobanklabs/otpgate/internal/pkg/config"
	"github.com/mobanklabs/otpgate/internal/pkg/goroutine"
	"github.com/mobanklabs/otpgate/internal/pkg/instrument"
	"github.com/mobanklabs/otpgate/internal/pkg/mail"
	"github.com/mobanklabs/otpgate/internal/pkg/messaging"
	"github.com/mobanklabs/otpgate/internal/pkg/uid"
	"github.com/mobanklabs/otpgate/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context
	Messaging  messaging.Messaging
	Config     config.Config
	Instrument instrument.Instrumentation
	UUID       uid.StringID
	Clock      clock.Clocker
	Goroutine  *goroutine.Runner
	Validator  validator.Validator
	Mail       mail.Mail
}

func New(dep Dependency) error {
	repoMail := email.New(dep.Mail, dep.Instrument)

	uc := usecase.NewNotification(usecase.Dependency{
		Config:     dep.Config,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		RepoMail:   repoMail,
		Instrument: dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
