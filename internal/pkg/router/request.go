package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/mailbite/internal/pkg/goerror"
)

// MaxBodyBytes caps request bodies read by DecodeBody.
const MaxBodyBytes = 1 << 20

// Request is what endpoint handlers receive.
type Request struct {
	*http.Request
}

func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// GetQueryInt64 parses an optional integer query value. Missing is 0; a
// value that is not an integer is an invalid format error.
func (r *Request) GetQueryInt64(key string) (int64, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, goerror.NewInvalidFormat("Invalid query " + key)
	}
	return n, nil
}

// DecodeBody decodes exactly one JSON value without unknown fields into
// dst. Bodies over MaxBodyBytes are rejected.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return goerror.NewInvalidFormat("Request body too large")
		}
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}
	return nil
}
