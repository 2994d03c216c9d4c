package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/pkg/mail"
)

const (
	fileTimeLayout = "2006-01-02T15-04-05.000000000"
	maxNameLength  = 180
)

// FileRecord is the JSON form written by a non-raw FileTransport.
type FileRecord struct {
	Date      time.Time `json:"date"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
}

type dirOnce struct {
	once sync.Once
	err  error
}

// ensureDir creates dir once per Sender. A failed attempt is forgotten so
// the next send tries again.
func (s *Sender) ensureDir(dir string) error {
	v, _ := s.dirs.LoadOrStore(dir, &dirOnce{})
	d := v.(*dirOnce)
	d.once.Do(func() {
		d.err = os.MkdirAll(dir, 0o755)
	})
	if d.err != nil {
		s.dirs.CompareAndDelete(dir, d)
	}
	return d.err
}

func (s *Sender) writeFile(ctx context.Context, email entity.EmailDetails, t FileTransport) error {
	if err := s.ensureDir(t.OutputPath); err != nil {
		return fmt.Errorf("sender: create output dir: %w", err)
	}

	now := s.clock.Now()

	var (
		data []byte
		ext  string
		err  error
	)
	if t.Raw {
		msg, merr := s.message(ctx, email)
		if merr != nil {
			return merr
		}
		data, err = mail.BuildMIME(msg, now)
		ext = ".eml"
	} else {
		data, err = json.MarshalIndent(FileRecord{
			Date:      now,
			Recipient: email.Recipient,
			Subject:   email.Subject,
			Body:      email.Body,
		}, "", "  ")
		ext = ".json"
	}
	if err != nil {
		return err
	}

	return writeUnique(t.OutputPath, FileName(now, email.Recipient, email.Subject), ext, data)
}

// FileName derives a file name from the send time, recipient and subject.
// The result only holds ASCII letters, digits, '.', '_' and '-'.
func FileName(at time.Time, recipient, subject string) string {
	name := at.UTC().Format(fileTimeLayout) + "-" + recipient + "-" + subject
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	return name
}

func writeUnique(dir, name, ext string, data []byte) error {
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate += "-" + strconv.Itoa(i)
		}

		f, err := os.OpenFile(filepath.Join(dir, candidate+ext), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) && i < 100 {
			continue
		}
		if err != nil {
			return err
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}
}
