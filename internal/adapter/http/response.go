package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5/middleware"

	"adpilot/internal/core/port"
)

// envelope is the body of every JSON response. Result is kept next to an
// error when the call produced partial output, e.g. a dispatch where some
// actions failed.
type envelope struct {
	Result any      `json:"result,omitempty"`
	Error  *problem `json:"error,omitempty"`
}

type problem struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, tool string, res any, err error) {
	if err == nil {
		h.writeJSON(w, r, http.StatusOK, envelope{Result: res})
		return
	}

	status, code := classify(err)
	p := &problem{Code: code, Message: err.Error()}
	var verr *port.ValidationError
	if errors.As(err, &verr) {
		p.Fields = verr.Fields
	}
	attrs := []any{
		slog.String("tool", tool),
		slog.Int("status", status),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("tool call failed", attrs...)
	} else {
		h.logger.Info("tool call rejected", attrs...)
	}

	body := envelope{Error: p}
	if !isNil(res) {
		body.Result = res
	}
	h.writeJSON(w, r, status, body)
}

// classify maps engine errors onto HTTP statuses.
func classify(err error) (int, string) {
	var (
		verr    *port.ValidationError
		unknown *port.UnknownOperationError
		mf      *port.MutationFailedError
		apiErr  *port.APIError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation_failed"
	case errors.As(err, &unknown):
		return http.StatusNotFound, "unknown_operation"
	case errors.Is(err, port.ErrUnknownToken):
		return http.StatusNotFound, "unknown_token"
	case errors.Is(err, port.ErrStaleConfirmation):
		return http.StatusConflict, "stale_confirmation"
	case errors.Is(err, port.ErrRateLimitTimeout):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.As(err, &mf):
		return http.StatusBadGateway, "mutation_failed"
	case errors.Is(err, port.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, "upstream_unavailable"
	case errors.Is(err, port.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "upstream_rejected"
	}
	return http.StatusInternalServerError, "internal"
}

func (h *Handler) writeProblem(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	h.writeJSON(w, r, status, envelope{Error: &problem{Code: code, Message: msg}})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response error",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
}

// isNil reports whether v is nil or a typed nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
