package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"adpilot/internal/core/port"
)

// maxBodyBytes bounds tool arguments.
const maxBodyBytes = 1 << 20

// Handler exposes the tool catalogue over HTTP. It is an inbound adapter:
// every route ends in a ToolUseCase call, and errors are mapped onto status
// codes in one place.
type Handler struct {
	svc    port.ToolUseCase
	logger *slog.Logger
	router chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(svc port.ToolUseCase, logger *slog.Logger) *Handler {
	h := &Handler{svc: svc, logger: logger}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tools", h.handleListTools)
		r.Post("/tools/{name}", h.handleCallTool)
		r.Post("/confirmations/{token}", h.handleConfirm)
		r.Delete("/confirmations/{token}", h.handleReject)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleListTools(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, envelope{Result: h.svc.Tools()})
}
