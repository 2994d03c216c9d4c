package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/pkg/idempotency"
	"github.com/shandysiswandi/mailbite/internal/pkg/valueobject"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const jobKeyPrefix = "email:job:"

// ProcessJob renders and sends one email job and reports whether it was
// delivered. An invalid job is recorded as a failed send and dropped with
// (false, nil) since redelivery cannot fix it. Other failures return the
// error so the queue can retry.
func (s *Usecase) ProcessJob(ctx context.Context, job entity.Job) (bool, error) {
	ctx, span := s.startSpan(ctx, "ProcessJob")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("email.job_id", job.ID),
		attribute.String("email.type", job.Type),
	)

	if err := s.validator.Validate(job); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "job_id", job.ID, "error", err)
		span.RecordError(err)
		s.recordOutcome(ctx, job, job.Subject, err)
		return false, nil
	}

	ran := false
	err := s.guard.Exec(ctx, jobKeyPrefix+strconv.FormatInt(job.ID, 10), func(ctx context.Context) error {
		ran = true
		return s.deliver(ctx, job)
	})

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		slog.InfoContext(ctx, "email job already sent", "job_id", job.ID)
		return true, nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.WarnContext(ctx, "email job is being sent by another worker", "job_id", job.ID)
		return false, err
	case !ran:
		// Guard storage is down. A duplicate send is preferable to none.
		slog.WarnContext(ctx, "idempotency guard unavailable, sending unguarded", "job_id", job.ID, "error", err)
		if err := s.deliver(ctx, job); err != nil {
			span.RecordError(err)
			return false, err
		}
		return true, nil
	default:
		span.RecordError(err)
		return false, err
	}
}

func (s *Usecase) deliver(ctx context.Context, job entity.Job) error {
	start := s.clock.Now()

	email, err := s.render(ctx, job)
	if err == nil {
		err = s.send(ctx, job, email)
	}

	subject := job.Subject
	if email.Subject != "" {
		subject = email.Subject
	}
	s.recordOutcome(ctx, job, subject, err)

	s.metrics.duration.Record(ctx, float64(s.clock.Now().Sub(start).Milliseconds()),
		metric.WithAttributes(attribute.String("email.type", job.Type)))

	return err
}

// render loads the job's template and generates the final email.
func (s *Usecase) render(ctx context.Context, job entity.Job) (entity.EmailDetails, error) {
	attachments := s.codec.Deserialize(ctx, job.Attachments)

	body, err := s.templates.LoadTemplate(ctx, job.Type, job.TemplateFile)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load email template", "handler_type", job.Type, "file", job.TemplateFile, "error", err)
		return entity.EmailDetails{}, err
	}

	generated, err := s.generator.Generate(ctx, job.From, job.Subject, body, job.TemplateVars)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate email", "handler_type", job.Type, "error", err)
		return entity.EmailDetails{}, err
	}

	return entity.EmailDetails{
		Type:        job.Type,
		From:        generated.From,
		Recipient:   job.Recipient,
		Cc:          job.Cc,
		Bcc:         job.Bcc,
		ReplyTo:     job.ReplyTo,
		Subject:     generated.Subject,
		Body:        generated.Body,
		Text:        generated.Text,
		Attachments: attachments,
	}, nil
}

func (s *Usecase) send(ctx context.Context, job entity.Job, email entity.EmailDetails) error {
	t, err := s.transports(ctx, job.Context)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve email transport", "channel_code", job.Context.ChannelCode, "error", err)
		return err
	}

	if err := s.sender.Send(ctx, email, t); err != nil {
		slog.ErrorContext(ctx, "failed to send email", "job_id", job.ID, "handler_type", job.Type, "error", err)
		return err
	}

	if s.repoArchive != nil {
		if err := s.repoArchive.Archive(ctx, job.ID, email); err != nil {
			slog.WarnContext(ctx, "failed to archive sent email", "job_id", job.ID, "error", err)
		}
	}

	return nil
}

// recordOutcome stores the send log and publishes the send event. Failures
// here never fail the job.
func (s *Usecase) recordOutcome(ctx context.Context, job entity.Job, subject string, sendErr error) {
	var errMsg string
	if sendErr != nil {
		errMsg = sendErr.Error()
	}

	s.metrics.sends.Add(ctx, 1, metric.WithAttributes(
		attribute.String("email.type", job.Type),
		attribute.Bool("email.success", sendErr == nil),
	))

	if err := s.repoDB.CreateSendLog(ctx, entity.SendLog{
		ID:           s.uid.Generate(),
		JobID:        job.ID,
		Type:         job.Type,
		Recipient:    job.Recipient,
		Subject:      subject,
		ChannelCode:  job.Context.ChannelCode,
		LanguageCode: job.Context.LanguageCode,
		Success:      sendErr == nil,
		Error:        errMsg,
		TemplateVars: job.TemplateVars.Redacted(valueobject.SecretKey),
		CreatedAt:    s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create send log", "job_id", job.ID, "error", err)
	}

	if err := s.bus.Publish(ctx, event.EmailSendEvent{
		Base:    event.NewBase(job.Context, s.clock.Now()),
		Details: job.Summary(subject),
		Success: sendErr == nil,
		Error:   errMsg,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish email send event", "job_id", job.ID, "error", err)
	}
}
