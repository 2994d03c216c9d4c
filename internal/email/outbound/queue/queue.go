package queue

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/messaging"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Queue struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func New(client messaging.Publisher, ins instrument.Instrumentation) *Queue {
	return &Queue{client: client, ins: ins}
}

// PublishJob hands job to the email job processor. The job ID is used as
// the partition key so redeliveries of one job stay ordered.
func (q *Queue) PublishJob(ctx context.Context, job entity.Job) error {
	ctx, span := q.ins.Tracer("email.outbound.queue").Start(ctx, "PublishJob")
	defer span.End()
	span.SetAttributes(attribute.Int64("email.job_id", job.ID))

	body, err := json.Marshal(job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	headers := messaging.InjectTrace(ctx, []messaging.Header{
		{Key: messaging.HeaderCorrelationID, Value: []byte(instrument.GetCorrelationID(ctx))},
	})
	if _, err := q.client.Publish(ctx, event.EmailJobDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatInt(job.ID, 10)),
		Headers: headers,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
