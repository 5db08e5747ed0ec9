package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleCallTool runs the tool named in the path with the request body as
// its JSON arguments. An empty body means no arguments. Argument checking
// is left to the use case so that HTTP and CLI callers get the same
// validation errors.
func (h *Handler) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeProblem(w, r, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
			return
		}
		h.writeProblem(w, r, http.StatusBadRequest, "bad_request", "cannot read request body")
		return
	}

	var args json.RawMessage
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		args = trimmed
	}
	res, err := h.svc.Call(r.Context(), name, args)
	h.respond(w, r, name, res, err)
}
