package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// ErrSMTPHostPortRequired is returned when Host/Port are missing.
var ErrSMTPHostPortRequired = errors.New("mail: smtp host and port are required")

// SMTPConfig configures the SMTP implementation.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the default sender when Message.From is empty.
	From string
	// Secure dials with implicit TLS (usually port 465).
	Secure bool
	// IgnoreTLS skips STARTTLS even when the server offers it.
	IgnoreTLS bool
	// Name is sent in HELO/EHLO; defaults to "localhost".
	Name string
}

// SMTP is a Mail implementation backed by net/smtp. A connection is opened
// per message.
type SMTP struct {
	cfg  SMTPConfig
	addr string
	now  func() time.Time
}

// NewSMTP constructs an SMTP mail sender.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}
	if cfg.Name == "" {
		cfg.Name = "localhost"
	}

	return &SMTP{
		cfg:  cfg,
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		now:  time.Now,
	}, nil
}

// Send delivers a message over SMTP.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from, err := senderOrDefault(msg.From, s.cfg.From)
	if err != nil {
		return err
	}
	msg.From = from

	rcpts := msg.Envelope()
	if len(rcpts) == 0 {
		return ErrNoRecipients
	}

	raw, err := BuildMIME(msg, s.now())
	if err != nil {
		return fmt.Errorf("mail: build message: %w", err)
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("mail: smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("mail: smtp handshake: %w", err)
	}
	defer c.Close()

	if err := s.session(c, bareAddress(from), rcpts, raw); err != nil {
		return err
	}
	return c.Quit()
}

func (s *SMTP) session(c *smtp.Client, from string, rcpts []string, raw []byte) error {
	if err := c.Hello(s.cfg.Name); err != nil {
		return fmt.Errorf("mail: smtp hello: %w", err)
	}

	if !s.cfg.Secure && !s.cfg.IgnoreTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
				return fmt.Errorf("mail: smtp starttls: %w", err)
			}
		}
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("mail: smtp auth: %w", err)
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail: smtp mail from: %w", err)
	}
	for _, rcpt := range rcpts {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("mail: smtp rcpt %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("mail: smtp data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return fmt.Errorf("mail: smtp write: %w", err)
	}
	return w.Close()
}

func (s *SMTP) dial(ctx context.Context) (net.Conn, error) {
	d := &net.Dialer{Timeout: 30 * time.Second}
	if s.cfg.Secure {
		td := &tls.Dialer{NetDialer: d, Config: &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}}
		return td.DialContext(ctx, "tcp", s.addr)
	}
	return d.DialContext(ctx, "tcp", s.addr)
}

// Close implements io.Closer for interface compatibility.
func (s *SMTP) Close() error {
	return nil
}
