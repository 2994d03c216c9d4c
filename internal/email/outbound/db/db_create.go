package db

import (
	"context"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
)

const queryCreateSendLog = `
INSERT INTO email_send_logs
    (id, job_id, type, recipient, subject, channel_code, language_code, success, error, template_vars, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func (s *DB) CreateSendLog(ctx context.Context, log entity.SendLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateSendLog")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateSendLog,
		log.ID,
		log.JobID,
		log.Type,
		log.Recipient,
		log.Subject,
		log.ChannelCode,
		log.LanguageCode,
		log.Success,
		log.Error,
		log.TemplateVars,
		log.CreatedAt,
	)
	return s.mapError(err)
}
