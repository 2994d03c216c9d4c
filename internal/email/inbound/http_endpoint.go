package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/email/usecase"
	"github.com/shandysiswandi/mailbite/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// ListResendOptions returns the resend operations available for an entity.
// @Summary List resend options
// @Description Returns the email resend operations currently available for an order or customer.
// @Tags Email
// @Security BearerAuth
// @Produce json
// @Param entityType query string true "Entity type (Order or Customer)"
// @Param entityId query int true "Entity ID"
// @Success 200 {object} router.successResponse{data=ResendOptionsResponse} "Resend options"
// @Failure 400 {object} router.errorResponse "Invalid query"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 404 {object} router.errorResponse "Entity not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/email/resend-options [get]
func (h *HTTPEndpoint) ListResendOptions(r *router.Request) (any, error) {
	entityID, err := r.GetQueryInt64("entityId")
	if err != nil {
		return nil, err
	}

	options, err := h.uc.ListResendOptions(r.Context(), usecase.ListResendOptionsInput{
		EntityType: r.GetQuery("entityType"),
		EntityID:   entityID,
	})
	if err != nil {
		return nil, err
	}

	return ResendOptionsResponse{
		Options: lo.Map(options, func(o entity.ResendOption, _ int) ResendOptionResponse {
			return ResendOptionResponse{
				Type:        o.Type,
				EntityType:  o.EntityType.String(),
				Label:       o.Label,
				Description: o.Description,
				Args: lo.Map(o.Args, func(a entity.ArgDefinition, _ int) ResendArgDefinitionResponse {
					return ResendArgDefinitionResponse{
						Name:         a.Name,
						Type:         string(a.Type),
						Required:     a.Required,
						DefaultValue: a.DefaultValue,
						Label:        a.Label,
						Description:  a.Description,
					}
				}),
			}
		}),
	}, nil
}

// Resend rebuilds and resends one email for an entity.
// @Summary Resend email
// @Description Rebuilds the event behind an email from the current entity state and publishes it again.
// @Tags Email
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body ResendRequest true "Resend payload"
// @Success 200 {object} router.successResponse{data=ResendResponse} "Resend outcome"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/email/resend [post]
func (h *HTTPEndpoint) Resend(r *router.Request) (any, error) {
	var req ResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	var args []entity.Arg
	if req.Operation != nil {
		args = lo.Map(req.Operation.Args, func(a ResendArgRequest, _ int) entity.Arg {
			return entity.Arg{Name: a.Name, Value: a.Value}
		})
	}

	ok, err := h.uc.Resend(r.Context(), usecase.ResendInput{
		Type:       req.Type,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Args:       args,
	})
	if err != nil {
		return nil, err
	}

	return ResendResponse{Success: ok}, nil
}

// ListMailbox lists the emails captured by the file transport.
// @Summary List dev mailbox
// @Description Returns the emails written by the file transport, newest first.
// @Tags Mailbox
// @Produce json
// @Success 200 {object} router.successResponse{data=MailboxItemsResponse} "Mailbox items"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /mailbox/api/emails [get]
func (h *HTTPEndpoint) ListMailbox(r *router.Request) (any, error) {
	items, err := h.uc.ListMailbox(r.Context())
	if err != nil {
		return nil, err
	}

	return MailboxItemsResponse{
		Emails: lo.Map(items, func(item entity.MailboxItem, _ int) MailboxItemResponse {
			return toMailboxItemResponse(item)
		}),
	}, nil
}

// MailboxHandlers lists the registered email types.
// @Summary List email types
// @Description Returns every registered email handler with the languages it has templates for.
// @Tags Mailbox
// @Produce json
// @Success 200 {object} router.successResponse{data=MailboxHandlersResponse} "Email types"
// @Router /mailbox/api/types [get]
func (h *HTTPEndpoint) MailboxHandlers(r *router.Request) (any, error) {
	infos := h.uc.MailboxHandlers(r.Context())

	return MailboxHandlersResponse{
		Types: lo.Map(infos, func(info entity.HandlerInfo, _ int) MailboxHandlerResponse {
			return MailboxHandlerResponse{
				Type:        info.Type,
				EventType:   info.EventType,
				Description: info.Description,
				Languages:   info.Languages,
			}
		}),
	}, nil
}

// PreviewEmail renders an email type from its mock event.
// @Summary Preview email
// @Description Renders an email type from its mock event in the given language without sending it.
// @Tags Mailbox
// @Produce json
// @Param type path string true "Email type"
// @Param languageCode path string true "Language code"
// @Success 200 {object} router.successResponse{data=PreviewEmailResponse} "Rendered email"
// @Failure 404 {object} router.errorResponse "Email type not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /mailbox/api/preview/{type}/{languageCode} [get]
func (h *HTTPEndpoint) PreviewEmail(r *router.Request) (any, error) {
	email, err := h.uc.PreviewEmail(r.Context(), usecase.PreviewEmailInput{
		Type:         r.GetParam("type"),
		LanguageCode: r.GetParam("languageCode"),
	})
	if err != nil {
		return nil, err
	}

	return PreviewEmailResponse{
		Type:      email.Type,
		From:      email.From,
		Recipient: email.Recipient,
		Cc:        email.Cc,
		Bcc:       email.Bcc,
		Subject:   email.Subject,
		Body:      email.Body,
		Text:      email.Text,
	}, nil
}

// GetMailboxEmail returns one captured email.
// @Summary Get mailbox email
// @Description Returns one email written by the file transport.
// @Tags Mailbox
// @Produce json
// @Param filename path string true "File name"
// @Success 200 {object} router.successResponse{data=MailboxEmailResponse} "Mailbox email"
// @Failure 404 {object} router.errorResponse "Email not found"
// @Failure 422 {object} router.errorResponse "Invalid file name"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /mailbox/api/item/{filename} [get]
func (h *HTTPEndpoint) GetMailboxEmail(r *router.Request) (any, error) {
	email, err := h.uc.GetMailboxEmail(r.Context(), r.GetParam("filename"))
	if err != nil {
		return nil, err
	}

	return MailboxEmailResponse{
		MailboxItemResponse: toMailboxItemResponse(email.MailboxItem),
		Body:                email.Body,
	}, nil
}
