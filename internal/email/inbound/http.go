package inbound

import (
	"github.com/shandysiswandi/mailbite/internal/pkg/router"
)

// MailboxEndpoints are the dev mailbox routes. They carry no token and are
// registered only when the dev mailbox is enabled.
var MailboxEndpoints = []string{
	"GET /mailbox/api/emails",
	"GET /mailbox/api/types",
	"GET /mailbox/api/preview/:type/:languageCode",
	"GET /mailbox/api/item/:filename",
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, mailboxEnabled bool) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/email/resend-options", end.ListResendOptions)
	r.POST("/api/v1/email/resend", end.Resend)

	if !mailboxEnabled {
		return
	}

	r.GET("/mailbox/api/emails", end.ListMailbox)
	r.GET("/mailbox/api/types", end.MailboxHandlers)
	r.GET("/mailbox/api/preview/:type/:languageCode", end.PreviewEmail)
	r.GET("/mailbox/api/item/:filename", end.GetMailboxEmail)
}
