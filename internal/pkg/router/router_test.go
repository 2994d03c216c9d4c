package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/mailbite/internal/pkg/goerror"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/jwt"
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

func newTestRouter() *Router {
	r := NewRouter(Config{
		UUID:            fixedID("cid-test"),
		JWT:             fakeJWT{},
		Instrument:      instrument.NewNoop(),
		PublicEndpoints: []string{"GET /mailbox/emails/:filename", "bad-entry"},
	})

	r.GET("/mailbox/emails/:filename", func(req *Request) (any, error) {
		return map[string]string{"filename": req.GetParam("filename")}, nil
	})
	r.GET("/api/v1/private", func(req *Request) (any, error) {
		return map[string]string{"ok": "yes"}, nil
	})
	r.POST("/api/v1/fail", func(req *Request) (any, error) {
		var body struct{ Name string }
		if err := req.DecodeBody(&body); err != nil {
			return nil, err
		}
		return nil, errors.New("hidden failure")
	})
	return r
}

func TestRouter(t *testing.T) {
	t.Parallel()

	t.Run("PublicRouteWithParam", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := newTestRouter()
		req := httptest.NewRequest(http.MethodGet, "/mailbox/emails/a.json", nil)
		rec := httptest.NewRecorder()

		// Act
		r.ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cid-test", rec.Header().Get(HeaderCorrelationID))

		var env successResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, map[string]any{"filename": "a.json"}, env.Data)
	})

	t.Run("PrivateRouteNeedsToken", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := newTestRouter()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/private", nil)
		rec := httptest.NewRecorder()

		// Act
		r.ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("PrivateRouteWithToken", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := newTestRouter()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/private", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()

		// Act
		r.ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("InvalidBodyIsBadRequest", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := newTestRouter()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/fail", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()

		// Act
		r.ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownErrorIsMasked", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := newTestRouter()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/fail", jsonBody(`{"Name":"x"}`))
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()

		// Act
		r.ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "hidden failure")
	})
}

func TestChain(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), nil, mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRequest_GetQueryInt64(t *testing.T) {
	t.Parallel()

	req := &Request{Request: httptest.NewRequest(http.MethodGet, "/?entityId=9007199254740993&bad=x", nil)}

	n, err := req.GetQueryInt64("entityId")
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), n)

	n, err = req.GetQueryInt64("missing")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = req.GetQueryInt64("bad")
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusBadRequest, gerr.StatusCode())
	assert.Equal(t, "Invalid query bad", gerr.Msg())
}

func TestRequest_DecodeBody(t *testing.T) {
	t.Parallel()

	type body struct {
		Type string `json:"type"`
	}

	tests := []struct {
		name    string
		in      string
		wantMsg string
	}{
		{name: "Valid", in: `{"type":"order-confirmation"}`},
		{name: "UnknownField", in: `{"kind":"x"}`, wantMsg: "Invalid request body"},
		{name: "TrailingValue", in: `{"type":"a"}{"type":"b"}`, wantMsg: "Invalid request body"},
		{name: "TooLarge", in: `{"type":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, wantMsg: "Request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.in))}

			var got body
			err := req.DecodeBody(&got)

			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, "order-confirmation", got.Type)
				return
			}
			var gerr *goerror.Error
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, tt.wantMsg, gerr.Msg())
		})
	}
}

func jsonBody(s string) *strings.Reader { return strings.NewReader(s) }
