package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleConfirm dispatches the batch parked under the {token} path
// parameter. Reused or expired tokens answer 409, unknown ones 404.
func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	h.gate(w, r, "confirm_actions")
}

// handleReject discards the batch parked under {token}.
func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.gate(w, r, "reject_actions")
}

func (h *Handler) gate(w http.ResponseWriter, r *http.Request, tool string) {
	token := chi.URLParam(r, "token")
	if token == "" {
		h.writeProblem(w, r, http.StatusBadRequest, "bad_request", "missing token")
		return
	}
	args, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		h.writeProblem(w, r, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	res, err := h.svc.Call(r.Context(), tool, args)
	h.respond(w, r, tool, res, err)
}
