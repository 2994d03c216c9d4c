package entity

import (
	"github.com/shandysiswandi/mailbite/internal/email/attachment"
	"github.com/shandysiswandi/mailbite/internal/pkg/valueobject"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

// DefaultTemplateFile is used when no template config matches.
const DefaultTemplateFile = "body.hbs"

// Job is the queue-safe record a handler produces for one event. Every
// field is plain data.
type Job struct {
	ID           int64                   `json:"id,string"`
	Type         string                  `json:"type"`
	EventType    event.Type              `json:"eventType"`
	Recipient    string                  `json:"recipient" validate:"required"`
	From         string                  `json:"from" validate:"required"`
	Subject      string                  `json:"subject" validate:"required"`
	TemplateFile string                  `json:"templateFile" validate:"required"`
	TemplateVars valueobject.JSONMap     `json:"templateVars"`
	Attachments  []attachment.Serialized `json:"attachments"`
	Cc           string                  `json:"cc,omitempty"`
	Bcc          string                  `json:"bcc,omitempty"`
	ReplyTo      string                  `json:"replyTo,omitempty"`
	Context      event.RequestContext    `json:"ctx"`
}

// Summary returns the part of the job published with its send outcome.
func (j Job) Summary(subject string) event.EmailSummary {
	return event.EmailSummary{
		JobID:        j.ID,
		Type:         j.Type,
		From:         j.From,
		Recipient:    j.Recipient,
		Cc:           j.Cc,
		Bcc:          j.Bcc,
		Subject:      subject,
		LanguageCode: j.Context.LanguageCode,
	}
}
