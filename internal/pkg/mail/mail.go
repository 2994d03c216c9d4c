package mail

import (
	"context"
	"errors"
	"io"
	"net/mail"
	"strings"
)

var (
	// ErrNoRecipients is returned when To, Cc and Bcc are all empty.
	ErrNoRecipients = errors.New("mail: no recipients provided")
	// ErrNoSender is returned when both Message.From and the configured default From are empty.
	ErrNoSender = errors.New("mail: no sender provided")
)

// Message represents an email payload.
type Message struct {
	From    string
	To      []string
	Cc      []string
	Bcc     []string
	ReplyTo string
	Subject string
	// TextBody is the plain-text body; preferred when HTMLBody is empty.
	TextBody string
	HTMLBody string

	Headers     map[string]string
	Attachments []Attachment
}

// Attachment is a file carried by a Message. Inline attachments are
// referenced from the HTML body through ContentID.
type Attachment struct {
	Filename    string
	ContentType string
	ContentID   string
	Inline      bool
	Headers     map[string]string
	Content     []byte
}

// Mail abstracts an email provider (SMTP, third-party API, etc).
type Mail interface {
	io.Closer
	// Send dispatches the given message using the underlying provider.
	Send(ctx context.Context, msg Message) error
}

// SplitAddresses expands address strings that may hold display names and
// comma separated lists into individual addresses. Unparseable input is
// kept as-is after trimming.
func SplitAddresses(values ...string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}

		list, err := mail.ParseAddressList(v)
		if err != nil {
			for part := range strings.SplitSeq(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			continue
		}
		for _, a := range list {
			out = append(out, a.String())
		}
	}
	return out
}

// Envelope returns the bare addresses of every recipient, as used by SMTP
// RCPT commands.
func (m Message) Envelope() []string {
	all := SplitAddresses(append(append(append([]string{}, m.To...), m.Cc...), m.Bcc...)...)
	out := make([]string, 0, len(all))
	for _, a := range all {
		if parsed, err := mail.ParseAddress(a); err == nil {
			out = append(out, parsed.Address)
			continue
		}
		out = append(out, a)
	}
	return out
}

func senderOrDefault(from, def string) (string, error) {
	if from = strings.TrimSpace(from); from != "" {
		return from, nil
	}
	if def = strings.TrimSpace(def); def != "" {
		return def, nil
	}
	return "", ErrNoSender
}

func bareAddress(addr string) string {
	if parsed, err := mail.ParseAddress(addr); err == nil {
		return parsed.Address
	}
	return addr
}
