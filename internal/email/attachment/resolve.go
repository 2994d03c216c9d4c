package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/shandysiswandi/mailbite/internal/pkg/mail"
	"github.com/shandysiswandi/mailbite/internal/pkg/storage"
)

// ErrNoContent is returned for attachments with neither inline content nor a path.
var ErrNoContent = errors.New("attachment: no content or path")

// Resolver loads attachment bytes at send time.
type Resolver struct {
	HTTP *http.Client
	// Storage serves s3://, gs:// and minio:// paths. It may be nil.
	Storage storage.Storage
	// MaxSize bounds remote downloads. Zero means 25MB.
	MaxSize int64
}

const defaultMaxSize = 25 << 20

// Resolve converts attachments into MIME-ready parts.
func (r Resolver) Resolve(ctx context.Context, attachments []Attachment) ([]mail.Attachment, error) {
	out := make([]mail.Attachment, 0, len(attachments))
	for _, a := range attachments {
		content, err := r.content(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("attachment %q: %w", a.Filename, err)
		}

		filename := a.Filename
		if filename == "" {
			filename = filepath.Base(strings.SplitN(a.Location(), "?", 2)[0])
		}
		contentType := a.ContentType
		if contentType == "" {
			contentType = mime.TypeByExtension(filepath.Ext(filename))
		}

		out = append(out, mail.Attachment{
			Filename:    filename,
			ContentType: contentType,
			ContentID:   a.CID,
			Inline:      strings.EqualFold(a.ContentDisposition, "inline"),
			Headers:     a.Headers,
			Content:     content,
		})
	}
	return out, nil
}

func (r Resolver) content(ctx context.Context, a Attachment) ([]byte, error) {
	switch {
	case a.Data != nil:
		return a.Data, nil
	case a.Text != nil:
		return []byte(*a.Text), nil
	case a.Reader != nil:
		return io.ReadAll(a.Reader)
	}

	loc := a.Location()
	switch {
	case loc == "":
		return nil, ErrNoContent
	case storage.IsObjectURI(loc):
		return r.fromStorage(ctx, loc)
	case strings.HasPrefix(loc, "http://"), strings.HasPrefix(loc, "https://"):
		return r.fromHTTP(ctx, loc)
	default:
		return os.ReadFile(loc)
	}
}

func (r Resolver) fromStorage(ctx context.Context, raw string) ([]byte, error) {
	if r.Storage == nil {
		return nil, fmt.Errorf("no object storage configured for %s", raw)
	}
	loc, err := storage.ParseURI(raw)
	if err != nil {
		return nil, err
	}
	return storage.ReadAll(ctx, r.Storage, loc.Bucket, loc.Key)
}

func (r Resolver) fromHTTP(ctx context.Context, url string) ([]byte, error) {
	client := r.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	limit := r.MaxSize
	if limit <= 0 {
		limit = defaultMaxSize
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("fetch %s: larger than %d bytes", url, limit)
	}
	return data, nil
}
