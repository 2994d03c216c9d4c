package attachment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
)

// DefaultWarnThreshold is the inline byte size above which Deserialize warns.
const DefaultWarnThreshold = 50 * 1024

// Codec serializes attachments for the job queue.
type Codec struct {
	// WarnThreshold is the inline byte size that triggers a warning. Zero
	// uses DefaultWarnThreshold.
	WarnThreshold int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

type bufferJSON struct {
	Type string `json:"type"`
	Data []int  `json:"data"`
}

// Serialize converts attachments to their queue-safe form. Reader content
// is drained once and closed when it implements io.Closer.
func (c Codec) Serialize(ctx context.Context, attachments []Attachment) ([]Serialized, error) {
	out := make([]Serialized, 0, len(attachments))
	for i, a := range attachments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s := Serialized{
			Filename:           optional(a.Filename),
			CID:                optional(a.CID),
			Encoding:           optional(a.Encoding),
			ContentType:        optional(a.ContentType),
			ContentDisposition: optional(a.ContentDisposition),
			Headers:            a.Headers,
			Path:               optional(a.Location()),
		}

		content, err := encodeContent(a)
		if err != nil {
			return nil, fmt.Errorf("attachment %d (%s): %w", i, a.Filename, err)
		}
		s.Content = content

		out = append(out, s)
	}
	return out, nil
}

// Deserialize restores attachments. Content that fails to parse is dropped
// and the attachment falls back to its path.
func (c Codec) Deserialize(ctx context.Context, serialized []Serialized) []Attachment {
	threshold := c.WarnThreshold
	if threshold <= 0 {
		threshold = DefaultWarnThreshold
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]Attachment, 0, len(serialized))
	for _, s := range serialized {
		a := Attachment{
			Filename:           deref(s.Filename),
			CID:                deref(s.CID),
			Encoding:           deref(s.Encoding),
			ContentType:        deref(s.ContentType),
			ContentDisposition: deref(s.ContentDisposition),
			Headers:            s.Headers,
			Path:               deref(s.Path),
		}
		decodeContent(s.Content, &a)

		if len(a.Data) >= threshold {
			logger.WarnContext(ctx, "email has a large inline attachment, consider using a path instead",
				"filename", a.Filename,
				"size_kb", int(math.Round(float64(len(a.Data))/1024)),
			)
		}
		out = append(out, a)
	}
	return out
}

func encodeContent(a Attachment) (*string, error) {
	var (
		raw []byte
		err error
	)

	switch {
	case a.Reader != nil:
		data, rerr := io.ReadAll(a.Reader)
		if c, ok := a.Reader.(io.Closer); ok {
			_ = c.Close()
		}
		if rerr != nil {
			return nil, fmt.Errorf("drain stream: %w", rerr)
		}
		raw, err = json.Marshal(toBuffer(data))
	case a.Data != nil:
		raw, err = json.Marshal(toBuffer(a.Data))
	case a.Text != nil:
		raw, err = json.Marshal(*a.Text)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s := string(raw)
	return &s, nil
}

func decodeContent(content *string, a *Attachment) {
	if content == nil {
		return
	}

	var v any
	if err := json.Unmarshal([]byte(*content), &v); err != nil {
		return
	}

	switch t := v.(type) {
	case string:
		a.Text = &t
	case map[string]any:
		data, ok := t["data"].([]any)
		if !ok {
			return
		}
		buf := make([]byte, 0, len(data))
		for _, n := range data {
			f, ok := n.(float64)
			if !ok || f < 0 || f > 255 {
				return
			}
			buf = append(buf, byte(f))
		}
		a.Data = buf
	}
}

func toBuffer(data []byte) bufferJSON {
	ints := make([]int, len(data))
	for i, b := range data {
		ints[i] = int(b)
	}
	return bufferJSON{Type: "Buffer", Data: ints}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
