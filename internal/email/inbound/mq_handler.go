package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/messaging"
	"github.com/shandysiswandi/mailbite/internal/pkg/uid"
	"go.opentelemetry.io/otel/attribute"
)

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

// messageContext restores the publisher's trace and correlation id.
func (h *MQHandler) messageContext(ctx context.Context, headers []messaging.Header) context.Context {
	ctx = messaging.ExtractTrace(ctx, headers)
	if cID := messaging.HeaderValue(headers, messaging.HeaderCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// ProcessEmailJob sends one queued email job. A returned error nacks the
// message so the broker redelivers it.
func (h *MQHandler) ProcessEmailJob(ctx context.Context, msg messaging.Message) error {
	ctx = h.messageContext(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("email.inbound.mq").Start(ctx, "ProcessEmailJob")
	defer span.End()

	body := msg.Body()

	var job entity.Job
	if err := json.Unmarshal(body, &job); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of email job", "message_id", msg.ID(), "error", err)
		return nil
	}
	span.SetAttributes(attribute.Int64("email.job_id", job.ID))
	slog.InfoContext(ctx, "consume: email job", "job_id", job.ID, "type", job.Type)

	ok, err := h.uc.ProcessJob(ctx, job)
	if err != nil {
		slog.ErrorContext(ctx, "failed to process email job", "job_id", job.ID, "error", err)
		return err
	}
	if !ok {
		slog.WarnContext(ctx, "email job dropped", "job_id", job.ID)
	}

	return nil
}
