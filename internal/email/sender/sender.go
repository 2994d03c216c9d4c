// Package sender delivers generated emails over a configured transport.
package sender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/mailbite/internal/email/attachment"
	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/pkg/clock"
	"github.com/shandysiswandi/mailbite/internal/pkg/mail"
)

const (
	defaultRetryBase     = 200 * time.Millisecond
	defaultRetryAttempts = 3
)

type Option func(*Sender)

// WithAttachmentResolver sets how attachment paths are read at send time.
func WithAttachmentResolver(r attachment.Resolver) Option {
	return func(s *Sender) { s.attachments = r }
}

func WithClock(c clock.Clocker) Option {
	return func(s *Sender) { s.clock = c }
}

// WithRetry sets the exponential backoff base and the total number of
// delivery attempts for network transports.
func WithRetry(base time.Duration, attempts uint64) Option {
	return func(s *Sender) {
		s.retryBase = base
		s.retryAttempts = max(attempts, 1)
	}
}

// Sender is safe for concurrent use. Provider clients are created on first
// use per transport configuration and reused afterwards.
type Sender struct {
	attachments   attachment.Resolver
	clock         clock.Clocker
	retryBase     time.Duration
	retryAttempts uint64

	dial func(ctx context.Context, t Transport) (mail.Mail, error)

	mu      sync.Mutex
	clients map[Transport]mail.Mail

	dirs sync.Map // output path -> *dirOnce
}

func New(opts ...Option) *Sender {
	s := &Sender{
		clock:         clock.New(),
		retryBase:     defaultRetryBase,
		retryAttempts: defaultRetryAttempts,
		clients:       map[Transport]mail.Mail{},
	}
	s.dial = dialMail
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers email over t.
func (s *Sender) Send(ctx context.Context, email entity.EmailDetails, t Transport) error {
	switch t := t.(type) {
	case NoneTransport:
		return nil
	case TestingTransport:
		if t.OnSend != nil {
			t.OnSend(email)
		}
		return nil
	case FileTransport:
		return s.writeFile(ctx, email, t)
	case SendmailTransport:
		return s.deliver(ctx, email, t, false)
	case SMTPTransport, SESTransport, ResendTransport:
		return s.deliver(ctx, email, t, true)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownTransport, t)
	}
}

// Close releases cached provider clients.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for t, m := range s.clients {
		errs = append(errs, m.Close())
		delete(s.clients, t)
	}
	return errors.Join(errs...)
}

func (s *Sender) deliver(ctx context.Context, email entity.EmailDetails, t Transport, retryable bool) error {
	msg, err := s.message(ctx, email)
	if err != nil {
		return err
	}

	client, err := s.client(ctx, t)
	if err != nil {
		return err
	}

	if !retryable {
		return client.Send(ctx, msg)
	}

	b := retry.WithMaxRetries(s.retryAttempts-1, retry.NewExponential(s.retryBase))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := client.Send(ctx, msg)
		if err == nil || permanent(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}

func (s *Sender) message(ctx context.Context, email entity.EmailDetails) (mail.Message, error) {
	atts, err := s.attachments.Resolve(ctx, email.Attachments)
	if err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		From:        email.From,
		To:          mail.SplitAddresses(email.Recipient),
		Cc:          mail.SplitAddresses(email.Cc),
		Bcc:         mail.SplitAddresses(email.Bcc),
		ReplyTo:     email.ReplyTo,
		Subject:     email.Subject,
		TextBody:    email.Text,
		HTMLBody:    email.Body,
		Attachments: atts,
	}, nil
}

func (s *Sender) client(ctx context.Context, t Transport) (mail.Mail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.clients[t]; ok {
		return m, nil
	}

	m, err := s.dial(ctx, t)
	if err != nil {
		return nil, err
	}
	s.clients[t] = m
	return m, nil
}

func dialMail(ctx context.Context, t Transport) (mail.Mail, error) {
	switch t := t.(type) {
	case SendmailTransport:
		return mail.NewSendmail(mail.SendmailConfig{Path: t.Path, NewlineStyle: t.NewlineStyle}), nil
	case SMTPTransport:
		return mail.NewSMTP(mail.SMTPConfig{
			Host:      t.Host,
			Port:      t.Port,
			Username:  t.Username,
			Password:  t.Password,
			Secure:    t.Secure,
			IgnoreTLS: t.IgnoreTLS,
			Name:      t.Name,
		})
	case SESTransport:
		return mail.NewSES(ctx, mail.SESConfig{
			Region:           t.Region,
			AccessKey:        t.AccessKey,
			SecretKey:        t.SecretKey,
			ConfigurationSet: t.ConfigurationSet,
		})
	case ResendTransport:
		return mail.NewResend(mail.ResendConfig{APIKey: t.APIKey})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownTransport, t)
	}
}

// permanent reports errors that another attempt cannot fix.
func permanent(err error) bool {
	return errors.Is(err, mail.ErrNoRecipients) ||
		errors.Is(err, mail.ErrNoSender) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
