package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/email/usecase"
	"github.com/shandysiswandi/mailbite/internal/pkg/goerror"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/jwt"
	"github.com/shandysiswandi/mailbite/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJWT struct{}

func (fakeJWT) Verify(tokenStr string) (jwt.Claims, error) {
	if tokenStr != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{RegisteredClaims: gojwt.RegisteredClaims{Subject: "1"}}, nil
}

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type fakeUC struct {
	options   []entity.ResendOption
	optionsIn usecase.ListResendOptionsInput
	resendIn  usecase.ResendInput
	resendOK  bool
	items     []entity.MailboxItem
	preview   *entity.EmailDetails
	previewIn usecase.PreviewEmailInput
	err       error
	jobs      []entity.Job
	jobOK     bool
}

func (f *fakeUC) ProcessJob(_ context.Context, job entity.Job) (bool, error) {
	f.jobs = append(f.jobs, job)
	return f.jobOK, f.err
}

func (f *fakeUC) ListMailbox(context.Context) ([]entity.MailboxItem, error) {
	return f.items, f.err
}

func (f *fakeUC) GetMailboxEmail(_ context.Context, filename string) (*entity.MailboxEmail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.MailboxEmail{MailboxItem: entity.MailboxItem{Filename: filename}, Body: "<p>hi</p>"}, nil
}

func (f *fakeUC) MailboxHandlers(context.Context) []entity.HandlerInfo {
	return []entity.HandlerInfo{{Type: "order-confirmation", EventType: "order-state-transition", Languages: []string{"en"}}}
}

func (f *fakeUC) PreviewEmail(_ context.Context, in usecase.PreviewEmailInput) (*entity.EmailDetails, error) {
	f.previewIn = in
	return f.preview, f.err
}

func (f *fakeUC) ListResendOptions(_ context.Context, in usecase.ListResendOptionsInput) ([]entity.ResendOption, error) {
	f.optionsIn = in
	return f.options, f.err
}

func (f *fakeUC) Resend(_ context.Context, in usecase.ResendInput) (bool, error) {
	f.resendIn = in
	return f.resendOK, f.err
}

func newTestRouter(uc uc, mailbox bool) *router.Router {
	r := router.NewRouter(router.Config{
		UUID:            fixedID("cid-test"),
		JWT:             fakeJWT{},
		Instrument:      instrument.NewNoop(),
		PublicEndpoints: MailboxEndpoints,
	})
	RegisterHTTPEndpoint(r, uc, mailbox)
	return r
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, r http.Handler, method, target, body string, auth bool) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if auth {
		req.Header.Set("Authorization", "Bearer good")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if rec.Code != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHTTPEndpoint_ListResendOptions(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()

		// Arrange
		uc := &fakeUC{options: []entity.ResendOption{{
			Type:       "order-confirmation",
			EntityType: entity.KindOrder,
			Label:      "Resend order confirmation",
			Args:       []entity.ArgDefinition{{Name: "languageCode", Type: entity.ArgString}},
		}}}
		r := newTestRouter(uc, false)

		// Act
		rec, env := serve(t, r, http.MethodGet, "/api/v1/email/resend-options?entityType=Order&entityId=7", "", true)

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, usecase.ListResendOptionsInput{EntityType: "Order", EntityID: 7}, uc.optionsIn)

		var resp ResendOptionsResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		require.Len(t, resp.Options, 1)
		assert.Equal(t, "Order", resp.Options[0].EntityType)
		assert.Equal(t, "string", resp.Options[0].Args[0].Type)
	})

	t.Run("InvalidEntityID", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := newTestRouter(&fakeUC{}, false)

		// Act
		rec, env := serve(t, r, http.MethodGet, "/api/v1/email/resend-options?entityType=Order&entityId=abc", "", true)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid query entityId", env.Message)
	})

	t.Run("RequiresToken", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := newTestRouter(&fakeUC{}, false)

		// Act
		rec, _ := serve(t, r, http.MethodGet, "/api/v1/email/resend-options?entityType=Order&entityId=7", "", false)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := newTestRouter(&fakeUC{err: goerror.NewBusiness("Entity not found", goerror.CodeNotFound)}, false)

		// Act
		rec, env := serve(t, r, http.MethodGet, "/api/v1/email/resend-options?entityType=Order&entityId=7", "", true)

		// Assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Entity not found", env.Message)
	})
}

func TestHTTPEndpoint_Resend(t *testing.T) {
	t.Parallel()

	t.Run("PassesArgs", func(t *testing.T) {
		t.Parallel()

		// Arrange
		uc := &fakeUC{resendOK: true}
		r := newTestRouter(uc, false)
		body := `{"type":"order-confirmation","entityType":"Order","entityId":7,"operation":{"args":[{"name":"languageCode","value":"de"}]}}`

		// Act
		rec, env := serve(t, r, http.MethodPost, "/api/v1/email/resend", body, true)

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, usecase.ResendInput{
			Type:       "order-confirmation",
			EntityType: "Order",
			EntityID:   7,
			Args:       []entity.Arg{{Name: "languageCode", Value: "de"}},
		}, uc.resendIn)

		var resp ResendResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.True(t, resp.Success)
	})

	t.Run("NotResent", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := newTestRouter(&fakeUC{}, false)

		// Act
		rec, env := serve(t, r, http.MethodPost, "/api/v1/email/resend", `{"type":"x","entityType":"Order","entityId":7}`, true)

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "email could not be resent", env.Message)
	})

	t.Run("UnknownField", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := newTestRouter(&fakeUC{}, false)

		// Act
		rec, _ := serve(t, r, http.MethodPost, "/api/v1/email/resend", `{"type":"x","extra":1}`, true)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHTTPEndpoint_Mailbox(t *testing.T) {
	t.Parallel()

	t.Run("DisabledRoutesAreMissing", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := newTestRouter(&fakeUC{}, false)

		// Act
		rec, _ := serve(t, r, http.MethodGet, "/mailbox/api/emails", "", false)

		// Assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("ListIsPublic", func(t *testing.T) {
		t.Parallel()

		// Arrange
		uc := &fakeUC{items: []entity.MailboxItem{{Filename: "a.json", Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}}}
		r := newTestRouter(uc, true)

		// Act
		rec, env := serve(t, r, http.MethodGet, "/mailbox/api/emails", "", false)

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		var resp MailboxItemsResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		require.Len(t, resp.Emails, 1)
		assert.Equal(t, "a.json", resp.Emails[0].Filename)
	})

	t.Run("Types", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := newTestRouter(&fakeUC{}, true)

		// Act
		rec, env := serve(t, r, http.MethodGet, "/mailbox/api/types", "", false)

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		var resp MailboxHandlersResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		require.Len(t, resp.Types, 1)
		assert.Equal(t, []string{"en"}, resp.Types[0].Languages)
	})

	t.Run("Preview", func(t *testing.T) {
		t.Parallel()

		// Arrange
		uc := &fakeUC{preview: &entity.EmailDetails{Type: "order-confirmation", Subject: "Order confirmation for #T_DEMO0001"}}
		r := newTestRouter(uc, true)

		// Act
		rec, env := serve(t, r, http.MethodGet, "/mailbox/api/preview/order-confirmation/de", "", false)

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, usecase.PreviewEmailInput{Type: "order-confirmation", LanguageCode: "de"}, uc.previewIn)
		var resp PreviewEmailResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "Order confirmation for #T_DEMO0001", resp.Subject)
	})

	t.Run("Item", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := newTestRouter(&fakeUC{}, true)

		// Act
		rec, env := serve(t, r, http.MethodGet, "/mailbox/api/item/a.json", "", false)

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		var resp MailboxEmailResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "a.json", resp.Filename)
		assert.Equal(t, "<p>hi</p>", resp.Body)
	})
}
