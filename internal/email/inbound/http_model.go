package inbound

import (
	"time"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
)

type ResendArgRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ResendOperationRequest struct {
	Args []ResendArgRequest `json:"args"`
}

type ResendRequest struct {
	Type       string                  `json:"type"`
	EntityType string                  `json:"entityType"`
	EntityID   int64                   `json:"entityId"`
	Operation  *ResendOperationRequest `json:"operation,omitempty"`
}

type ResendResponse struct {
	Success bool `json:"success"`
}

func (r ResendResponse) Message() string {
	if r.Success {
		return "email has been queued for resend"
	}
	return "email could not be resent"
}

type ResendArgDefinitionResponse struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Required     bool   `json:"required"`
	DefaultValue any    `json:"defaultValue,omitempty" swaggertype:"string"`
	Label        string `json:"label,omitempty"`
	Description  string `json:"description,omitempty"`
}

type ResendOptionResponse struct {
	Type        string                        `json:"type"`
	EntityType  string                        `json:"entityType"`
	Label       string                        `json:"label"`
	Description string                        `json:"description"`
	Args        []ResendArgDefinitionResponse `json:"args"`
}

type ResendOptionsResponse struct {
	Options []ResendOptionResponse `json:"options"`
}

type MailboxItemResponse struct {
	Filename  string    `json:"fileName"`
	Date      time.Time `json:"date"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
}

type MailboxItemsResponse struct {
	Emails []MailboxItemResponse `json:"emails"`
}

type MailboxEmailResponse struct {
	MailboxItemResponse
	Body string `json:"body"`
}

type MailboxHandlerResponse struct {
	Type        string   `json:"type"`
	EventType   string   `json:"eventType"`
	Description string   `json:"description"`
	Languages   []string `json:"languages"`
}

type MailboxHandlersResponse struct {
	Types []MailboxHandlerResponse `json:"types"`
}

type PreviewEmailResponse struct {
	Type      string `json:"type"`
	From      string `json:"from"`
	Recipient string `json:"recipient"`
	Cc        string `json:"cc,omitempty"`
	Bcc       string `json:"bcc,omitempty"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Text      string `json:"text"`
}

func toMailboxItemResponse(item entity.MailboxItem) MailboxItemResponse {
	return MailboxItemResponse{
		Filename:  item.Filename,
		Date:      item.Date,
		Recipient: item.Recipient,
		Subject:   item.Subject,
	}
}
