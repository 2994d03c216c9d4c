package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/mailbite/internal/pkg/config"
	"github.com/shandysiswandi/mailbite/internal/pkg/goroutine"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/messaging"
	"github.com/shandysiswandi/mailbite/internal/pkg/uid"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.email.consumer_names")
	concurrency := cfg.GetInt("modules.email.queue.concurrency")
	if concurrency < 1 {
		concurrency = 10
	}

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		group   string // consumer group, channel, queue group or subscription per driver
		handler messaging.Handler
	}{
		{
			name:    event.EmailJobConsumerProcessor,
			topic:   event.EmailJobDestination,
			group:   event.EmailJobConsumerProcessor,
			handler: mqHandler.ProcessEmailJob,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		if d, ok := messenger.(messaging.Declarer); ok {
			if err := d.Declare(ctx, consumer.topic, consumer.group); err != nil {
				slog.ErrorContext(ctx, "failed to declare consumer group", "consumer", consumer.name, "error", err)
				continue
			}
		}

		err := routine.Go(ctx, "consumer:"+consumer.name, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.group),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
				messaging.WithMaxInFlight(concurrency),
			)
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to start consumer", "consumer", consumer.name, "error", err)
		}
	}
}
