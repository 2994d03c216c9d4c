package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/mailbite/internal/email/handler"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HandleEvent runs h against ev. A produced job is queued when a job queue
// is configured and processed inline otherwise.
func (s *Usecase) HandleEvent(ctx context.Context, h handler.Registered, ev event.Event) error {
	ctx, span := s.startSpan(ctx, "HandleEvent")
	defer span.End()
	span.SetAttributes(
		attribute.String("email.type", h.Type()),
		attribute.String("event.type", ev.EventType().String()),
	)

	job, err := h.Handle(ctx, ev, s.globals(), s.repoDB)
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "email handler failed", "handler_type", h.Type(), "event_type", ev.EventType(), "error", err)
		return err
	}
	if job == nil {
		return nil
	}

	job.ID = s.uid.Generate()
	s.metrics.jobs.Add(ctx, 1, metric.WithAttributes(attribute.String("email.type", job.Type)))

	if s.repoQueue != nil {
		if err := s.repoQueue.PublishJob(ctx, *job); err != nil {
			span.RecordError(err)
			slog.ErrorContext(ctx, "failed to queue email job", "job_id", job.ID, "handler_type", job.Type, "error", err)
			return err
		}
		return nil
	}

	_, err = s.ProcessJob(ctx, *job)
	return err
}
