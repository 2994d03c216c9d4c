package entity

import (
	"time"

	"github.com/shandysiswandi/mailbite/internal/email/attachment"
	"github.com/shandysiswandi/mailbite/internal/pkg/valueobject"
)

// GeneratedEmail is the rendered output of a template.
type GeneratedEmail struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Text    string `json:"text"`
}

// EmailDetails is a fully rendered email handed to a transport.
type EmailDetails struct {
	Type        string                  `json:"type"`
	From        string                  `json:"from"`
	Recipient   string                  `json:"recipient"`
	Cc          string                  `json:"cc,omitempty"`
	Bcc         string                  `json:"bcc,omitempty"`
	ReplyTo     string                  `json:"replyTo,omitempty"`
	Subject     string                  `json:"subject"`
	Body        string                  `json:"body"`
	Text        string                  `json:"text,omitempty"`
	Attachments []attachment.Attachment `json:"-"`
}

// SendLog records the outcome of one processed job.
type SendLog struct {
	ID           int64
	JobID        int64
	Type         string
	Recipient    string
	Subject      string
	ChannelCode  string
	LanguageCode string
	Success      bool
	Error        string
	TemplateVars valueobject.JSONMap
	CreatedAt    time.Time
}
