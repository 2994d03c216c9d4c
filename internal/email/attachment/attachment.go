// Package attachment converts email attachments to and from the plain-data
// form carried by email jobs.
package attachment

import (
	"io"
	"net/url"
)

// Attachment is an attachment as built by a handler. Inline content comes
// from Reader, Data or Text, in that order; otherwise it is read from URL
// or Path when the email is sent. Text is a pointer so an empty text body
// is still content.
type Attachment struct {
	Filename           string
	CID                string
	Encoding           string
	ContentType        string
	ContentDisposition string
	Headers            map[string]string

	// Path is a local file path, an http(s) URL or an object storage URI
	// (s3://, gs://, minio://).
	Path string
	URL  *url.URL

	Text   *string
	Data   []byte
	Reader io.Reader
}

// Serialized is the queue-safe form of an Attachment. Absent fields are
// encoded as null.
type Serialized struct {
	Filename           *string           `json:"filename"`
	CID                *string           `json:"cid"`
	Encoding           *string           `json:"encoding"`
	ContentType        *string           `json:"contentType"`
	ContentDisposition *string           `json:"contentDisposition"`
	Headers            map[string]string `json:"headers"`
	Path               *string           `json:"path"`
	// Content is JSON text holding either a string or {"type":"Buffer","data":[...]}.
	Content *string `json:"content"`
}

// HasContent reports whether the attachment carries inline content.
func (a Attachment) HasContent() bool {
	return a.Reader != nil || a.Data != nil || a.Text != nil
}

// Location returns the path the content is read from at send time.
func (a Attachment) Location() string {
	if a.URL != nil {
		return a.URL.String()
	}
	return a.Path
}
