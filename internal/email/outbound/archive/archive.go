// Package archive keeps a copy of every sent email in object storage.
package archive

import (
	"bytes"
	"context"
	"path"
	"strconv"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/pkg/clock"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/mail"
	"github.com/shandysiswandi/mailbite/internal/pkg/storage"
	"go.opentelemetry.io/otel/codes"
)

const headerJobID = "X-Mailbite-Job-Id"

type Archive struct {
	store  storage.Storage
	bucket string
	prefix string
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func New(store storage.Storage, bucket, prefix string, clk clock.Clocker, ins instrument.Instrumentation) *Archive {
	return &Archive{store: store, bucket: bucket, prefix: prefix, clock: clk, ins: ins}
}

// Archive stores the email as an RFC 5322 message under
// <prefix>/<yyyy>/<mm>/<dd>/<jobID>.eml. Attachments are not archived.
func (a *Archive) Archive(ctx context.Context, jobID int64, email entity.EmailDetails) (err error) {
	ctx, span := a.ins.Tracer("email.outbound.archive").Start(ctx, "Archive")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	now := a.clock.Now()
	id := strconv.FormatInt(jobID, 10)

	raw, err := mail.BuildMIME(mail.Message{
		From:     email.From,
		To:       []string{email.Recipient},
		Cc:       []string{email.Cc},
		ReplyTo:  email.ReplyTo,
		Subject:  email.Subject,
		TextBody: email.Text,
		HTMLBody: email.Body,
		Headers:  map[string]string{headerJobID: id},
	}, now)
	if err != nil {
		return err
	}

	key := path.Join(a.prefix, now.UTC().Format("2006/01/02"), id+".eml")
	_, err = a.store.PutObject(ctx, a.bucket, key, bytes.NewReader(raw), storage.PutOptions{
		Size:        int64(len(raw)),
		ContentType: "message/rfc822",
		Metadata:    map[string]string{"job-id": id, "email-type": email.Type},
	})
	return err
}
