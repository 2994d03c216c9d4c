package inbound

import (
	"context"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/email/usecase"
)

type ucConsumer interface {
	ProcessJob(ctx context.Context, job entity.Job) (bool, error)
}

type ucMailbox interface {
	ListMailbox(ctx context.Context) ([]entity.MailboxItem, error)
	GetMailboxEmail(ctx context.Context, filename string) (*entity.MailboxEmail, error)
	MailboxHandlers(ctx context.Context) []entity.HandlerInfo
	PreviewEmail(ctx context.Context, in usecase.PreviewEmailInput) (*entity.EmailDetails, error)
}

type uc interface {
	ucConsumer
	ucMailbox

	ListResendOptions(ctx context.Context, in usecase.ListResendOptionsInput) ([]entity.ResendOption, error)
	Resend(ctx context.Context, in usecase.ResendInput) (bool, error)
}
