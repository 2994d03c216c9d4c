package mail

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// SendmailConfig configures the sendmail implementation.
type SendmailConfig struct {
	// Path is the sendmail binary; defaults to "sendmail" looked up in PATH.
	Path string
	// NewlineStyle is "unix" (LF) or "windows" (CRLF). Defaults to "unix".
	NewlineStyle string
	From         string
}

// Sendmail pipes messages to a local sendmail binary with "-i -t".
type Sendmail struct {
	cfg SendmailConfig
	now func() time.Time
}

// NewSendmail constructs a sendmail sender.
func NewSendmail(cfg SendmailConfig) *Sendmail {
	if cfg.Path == "" {
		cfg.Path = "sendmail"
	}
	return &Sendmail{cfg: cfg, now: time.Now}
}

// Send writes the message to the binary's stdin.
func (s *Sendmail) Send(ctx context.Context, msg Message) error {
	from, err := senderOrDefault(msg.From, s.cfg.From)
	if err != nil {
		return err
	}
	msg.From = from
	if len(msg.Envelope()) == 0 {
		return ErrNoRecipients
	}

	raw, err := BuildMIME(msg, s.now())
	if err != nil {
		return fmt.Errorf("mail: build message: %w", err)
	}
	if !strings.EqualFold(s.cfg.NewlineStyle, "windows") {
		raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.cfg.Path, "-i", "-t", "-f", bareAddress(from))
	cmd.Stdin = bytes.NewReader(raw)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mail: sendmail: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Close implements io.Closer for interface compatibility.
func (s *Sendmail) Close() error {
	return nil
}
