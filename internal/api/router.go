package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/morphclean/internal/actions"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *actions.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Menu actions.
	r.Post("/actions/run", h.Run)
	r.Post("/actions/cleanup", h.JustCleanUp)

	// Collection reads.
	r.Get("/notes", h.FindNotes)
	r.Get("/notes/{id}", h.GetNote)
	r.Get("/search", h.Search)
	r.Get("/stats", h.Stats)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
