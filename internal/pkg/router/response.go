package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/mailbite/internal/pkg/goerror"
	"github.com/shandysiswandi/mailbite/internal/pkg/validator"
)

type errorResponse struct {
	Message string            `json:"message" example:"example string message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message" example:"example string message"`
	Data    any            `json:"data" swaggertype:"object"`
	Meta    map[string]any `json:"meta,omitempty" swaggertype:"object"`
}

// Handler responses may implement any of these to shape the envelope.
type (
	statusCoder interface{ StatusCode() int }
	messager    interface{ Message() string }
	metaCarrier interface{ Meta() map[string]any }
)

// writeError renders goerror values as is. Anything else is an internal
// error and its text stays out of the response.
func writeError(w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg(), Error: gerr.Fields()}
	if verr := (validator.V10ValidationError{}); errors.As(err, &verr) {
		resp.Error = verr.Values()
	}
	if len(resp.Error) == 0 {
		resp.Error = nil
	}

	writeJSON(w, resp, gerr.StatusCode())
}

func writeSuccess(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(statusCoder); ok {
		code = sc.StatusCode()
	}
	if resp == nil || code == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	env := successResponse{Message: "request has been successfully", Data: resp}
	if m, ok := resp.(messager); ok {
		env.Message = m.Message()
	}
	if m, ok := resp.(metaCarrier); ok {
		env.Meta = m.Meta()
	}

	writeJSON(w, env, code)
}

func writeMessage(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, errorResponse{Message: msg}, code)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode json response", "error", err)
	}
}
