package mail

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"maps"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const base64LineLen = 76

// BuildMIME renders msg as an RFC 5322 message. Bcc is never written to the
// headers. The body is multipart/alternative when both text and HTML exist,
// wrapped in multipart/mixed when attachments are present.
func BuildMIME(msg Message, date time.Time) ([]byte, error) {
	h := textproto.MIMEHeader{}
	h.Set("From", msg.From)
	h.Set("To", strings.Join(SplitAddresses(msg.To...), ", "))
	if cc := SplitAddresses(msg.Cc...); len(cc) > 0 {
		h.Set("Cc", strings.Join(cc, ", "))
	}
	if msg.ReplyTo != "" {
		h.Set("Reply-To", msg.ReplyTo)
	}
	h.Set("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	h.Set("Date", date.Format(time.RFC1123Z))
	h.Set("Message-Id", fmt.Sprintf("<%s@mailbite>", randomToken()))
	h.Set("Mime-Version", "1.0")
	for k, v := range msg.Headers {
		h.Set(k, v)
	}

	bodyHeader, body, err := renderBody(msg)
	if err != nil {
		return nil, err
	}

	if len(msg.Attachments) == 0 {
		maps.Copy(h, bodyHeader)
		return assemble(h, body), nil
	}

	var mixedBody bytes.Buffer
	mixed := multipart.NewWriter(&mixedBody)

	part, err := mixed.CreatePart(bodyHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(body); err != nil {
		return nil, err
	}
	for _, att := range msg.Attachments {
		if err := writeAttachment(mixed, att); err != nil {
			return nil, err
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}

	h.Set("Content-Type", "multipart/mixed; boundary="+mixed.Boundary())
	return assemble(h, mixedBody.Bytes()), nil
}

func renderBody(msg Message) (textproto.MIMEHeader, []byte, error) {
	if msg.HTMLBody == "" || msg.TextBody == "" {
		ct, content := "text/plain; charset=UTF-8", msg.TextBody
		if msg.HTMLBody != "" {
			ct, content = "text/html; charset=UTF-8", msg.HTMLBody
		}
		body, err := quoted(content)
		if err != nil {
			return nil, nil, err
		}
		return textproto.MIMEHeader{
			"Content-Type":              {ct},
			"Content-Transfer-Encoding": {"quoted-printable"},
		}, body, nil
	}

	var buf bytes.Buffer
	alt := multipart.NewWriter(&buf)
	for _, p := range []struct{ ct, content string }{
		{"text/plain; charset=UTF-8", msg.TextBody},
		{"text/html; charset=UTF-8", msg.HTMLBody},
	} {
		part, err := alt.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.ct},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, nil, err
		}
		encoded, err := quoted(p.content)
		if err != nil {
			return nil, nil, err
		}
		if _, err := part.Write(encoded); err != nil {
			return nil, nil, err
		}
	}
	if err := alt.Close(); err != nil {
		return nil, nil, err
	}

	return textproto.MIMEHeader{
		"Content-Type": {"multipart/alternative; boundary=" + alt.Boundary()},
	}, buf.Bytes(), nil
}

func quoted(content string) ([]byte, error) {
	var buf bytes.Buffer
	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(content)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAttachment(w *multipart.Writer, att Attachment) error {
	ct := att.ContentType
	if ct == "" {
		ct = mime.TypeByExtension(filepath.Ext(att.Filename))
	}
	if ct == "" {
		ct = "application/octet-stream"
	}

	disposition := "attachment"
	if att.Inline {
		disposition = "inline"
	}
	if att.Filename != "" {
		disposition = mime.FormatMediaType(disposition, map[string]string{"filename": att.Filename})
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Type", ct)
	h.Set("Content-Transfer-Encoding", "base64")
	h.Set("Content-Disposition", disposition)
	if att.ContentID != "" {
		h.Set("Content-Id", "<"+strings.Trim(att.ContentID, "<>")+">")
	}
	for k, v := range att.Headers {
		h.Set(k, v)
	}

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}

	encoded := base64.StdEncoding.EncodeToString(att.Content)
	for len(encoded) > base64LineLen {
		if _, err := part.Write([]byte(encoded[:base64LineLen] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[base64LineLen:]
	}
	_, err = part.Write([]byte(encoded + "\r\n"))
	return err
}

func assemble(h textproto.MIMEHeader, body []byte) []byte {
	var buf bytes.Buffer
	for _, k := range slices.Sorted(maps.Keys(h)) {
		for _, v := range h[k] {
			fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
		}
	}
	buf.WriteString("\r\n")
	buf.Write(body)
	return buf.Bytes()
}

func randomToken() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
