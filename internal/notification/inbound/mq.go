package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/mobanklabs/otpgate/internal/notification/usecase"
	"github.com/mobanklabs/otpgate/internal/pkg/config"
	"github.com/mobanklabs/otpgate/internal/pkg/goroutine"
	"github.com/mobanklabs/otpgate/internal/pkg/instrument"
	"github.com/mobanklabs/otpgate/internal/pkg/messaging"
	"github.com/mobanklabs/otpgate/internal/pkg/uid"
	"github.com/mobanklabs/otpgate/internal/shared/event"
)

type uc interface {
	ConsumeLoginAlert(ctx context.Context, in usecase.ConsumeLoginAlertInput) error
}

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Runner,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.UserLoginAlertConsumerNotification,
			topic:   event.UserLoginAlertDestination,
			handler: mqHandler.UserLoginAlertNotification,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithChannel(consumer.name),
					messaging.WithQueueGroup(consumer.name),
					messaging.WithGroup(consumer.name),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(10),
					messaging.WithMaxInFlight(10),
				)
			})
		}
	}
}
