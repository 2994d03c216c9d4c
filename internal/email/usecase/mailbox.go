package usecase

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/email/handler"
	"github.com/shandysiswandi/mailbite/internal/email/sender"
	"github.com/shandysiswandi/mailbite/internal/pkg/goerror"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

const mailboxExt = ".json"

type PreviewEmailInput struct {
	Type         string `validate:"required,slug"`
	LanguageCode string `validate:"required,langcode"`
}

// ListMailbox lists the emails written by the file transport, newest first.
func (s *Usecase) ListMailbox(ctx context.Context) ([]entity.MailboxItem, error) {
	ctx, span := s.startSpan(ctx, "ListMailbox")
	defer span.End()

	entries, err := os.ReadDir(s.mailboxDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []entity.MailboxItem{}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to read mailbox dir", "dir", s.mailboxDir, "error", err)
		return nil, goerror.NewServer(err)
	}

	items := make([]entity.MailboxItem, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || filepath.Ext(e.Name()) != mailboxExt {
			continue
		}

		rec, err := s.readMailboxRecord(e.Name())
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable mailbox item", "file", e.Name(), "error", err)
			continue
		}
		items = append(items, entity.MailboxItem{
			Filename:  e.Name(),
			Date:      rec.Date,
			Recipient: rec.Recipient,
			Subject:   rec.Subject,
		})
	}

	slices.SortFunc(items, func(a, b entity.MailboxItem) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.Filename, a.Filename)
	})

	return items, nil
}

// GetMailboxEmail returns one stored email. filename must be a bare file
// name inside the mailbox directory.
func (s *Usecase) GetMailboxEmail(ctx context.Context, filename string) (*entity.MailboxEmail, error) {
	ctx, span := s.startSpan(ctx, "GetMailboxEmail")
	defer span.End()

	if !validMailboxName(filename) {
		return nil, goerror.NewInvalidInput(nil, "filename", "invalid file name")
	}

	rec, err := s.readMailboxRecord(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, goerror.NewBusiness("Email not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to read mailbox item", "file", filename, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &entity.MailboxEmail{
		MailboxItem: entity.MailboxItem{
			Filename:  filename,
			Date:      rec.Date,
			Recipient: rec.Recipient,
			Subject:   rec.Subject,
		},
		Body: rec.Body,
	}, nil
}

// MailboxHandlers describes every registered handler.
func (s *Usecase) MailboxHandlers(ctx context.Context) []entity.HandlerInfo {
	_, span := s.startSpan(ctx, "MailboxHandlers")
	defer span.End()

	out := make([]entity.HandlerInfo, 0, len(s.order))
	for _, typ := range s.order {
		h := s.handlers[typ]
		out = append(out, entity.HandlerInfo{
			Type:        typ,
			EventType:   h.EventType().String(),
			Description: h.Description(),
			Languages:   languages(h.Templates()),
		})
	}
	return out
}

// PreviewEmail runs a handler on its mock event in the given language and
// returns the email it would send.
func (s *Usecase) PreviewEmail(ctx context.Context, in PreviewEmailInput) (*entity.EmailDetails, error) {
	ctx, span := s.startSpan(ctx, "PreviewEmail")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	h, ok := s.handlers[in.Type]
	if !ok {
		return nil, goerror.NewBusiness("Email type not found", goerror.CodeNotFound)
	}
	mock, ok := h.MockEvent()
	if !ok {
		return nil, goerror.NewBusiness("Email type has no preview", goerror.CodeNotFound)
	}

	rc := mock.Context()
	rc.LanguageCode = in.LanguageCode
	ev, err := event.WithContext(mock, rc)
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	job, err := h.Handle(ctx, ev, s.globals(), s.repoDB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to handle mock event", "handler_type", in.Type, "error", err)
		return nil, goerror.NewServer(err)
	}
	if job == nil {
		return nil, goerror.NewBusiness("Mock event produced no email", goerror.CodeNotFound)
	}

	email, err := s.render(ctx, *job)
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	var captured entity.EmailDetails
	if err := s.sender.Send(ctx, email, sender.TestingTransport{OnSend: func(e entity.EmailDetails) {
		captured = e
	}}); err != nil {
		return nil, goerror.NewServer(err)
	}

	return &captured, nil
}

func (s *Usecase) readMailboxRecord(name string) (sender.FileRecord, error) {
	root, err := os.OpenRoot(s.mailboxDir)
	if err != nil {
		return sender.FileRecord{}, err
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		return sender.FileRecord{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return sender.FileRecord{}, err
	}

	var rec sender.FileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return sender.FileRecord{}, err
	}
	return rec, nil
}

func validMailboxName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") || filepath.Ext(name) != mailboxExt {
		return false
	}
	return name == filepath.Base(name) && !strings.ContainsAny(name, `/\`)
}

// languages lists the language codes a handler has templates for, plus the
// default language every handler falls back to.
func languages(templates []handler.TemplateConfig) []string {
	seen := map[string]struct{}{event.DefaultLanguageCode: {}}
	for _, t := range templates {
		if t.LanguageCode != "" && t.LanguageCode != handler.DefaultCode {
			seen[t.LanguageCode] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}
