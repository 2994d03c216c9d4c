package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// ErrResendAPIKeyRequired is returned when no API key is configured.
var ErrResendAPIKeyRequired = errors.New("mail: resend api key is required")

// ResendConfig configures the Resend implementation.
type ResendConfig struct {
	APIKey string
	From   string
}

// Resend sends messages through the Resend HTTP API.
type Resend struct {
	client *resend.Client
	from   string
}

// NewResend constructs a Resend sender.
func NewResend(cfg ResendConfig) (*Resend, error) {
	if cfg.APIKey == "" {
		return nil, ErrResendAPIKeyRequired
	}
	return &Resend{client: resend.NewClient(cfg.APIKey), from: cfg.From}, nil
}

// Send delivers the message through the Resend API.
func (r *Resend) Send(ctx context.Context, msg Message) error {
	from, err := senderOrDefault(msg.From, r.from)
	if err != nil {
		return err
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      SplitAddresses(msg.To...),
		Cc:      SplitAddresses(msg.Cc...),
		Bcc:     SplitAddresses(msg.Bcc...),
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		Text:    msg.TextBody,
		ReplyTo: msg.ReplyTo,
		Headers: msg.Headers,
	}
	if len(req.To)+len(req.Cc)+len(req.Bcc) == 0 {
		return ErrNoRecipients
	}

	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
			ContentId:   a.ContentID,
		})
	}

	if _, err := r.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("mail: resend send: %w", err)
	}
	return nil
}

// Close implements io.Closer for interface compatibility.
func (r *Resend) Close() error {
	return nil
}
