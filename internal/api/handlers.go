package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/morphclean/internal/actions"
	"github.com/starford/morphclean/internal/cleanup"
)

// Handler holds API route handlers.
type Handler struct {
	svc *actions.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *actions.Service) *Handler {
	return &Handler{svc: svc}
}

// Run handles POST /api/actions/run.
//
//	@Summary		Recalculate morphemes, then run every cleanup pass
//	@Tags			actions
//	@Produce		json
//	@Success		200		{object}	ActionResponse
//	@Security		BearerAuth
//	@Router			/actions/run [post]
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, actions.ActionRun, h.svc.Run)
}

// JustCleanUp handles POST /api/actions/cleanup.
//
//	@Summary		Run every cleanup pass without recalculating
//	@Tags			actions
//	@Produce		json
//	@Success		200		{object}	ActionResponse
//	@Security		BearerAuth
//	@Router			/actions/cleanup [post]
func (h *Handler) JustCleanUp(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, actions.ActionJustCleanUp, h.svc.JustCleanUp)
}

func (h *Handler) action(w http.ResponseWriter, r *http.Request, name string, fn func(context.Context) (cleanup.Report, error)) {
	rep, err := fn(r.Context())
	if err != nil {
		writeError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, ActionResponse{
		Action:  name,
		Message: actions.Message(rep),
		Deleted: rep.Deleted(),
		Report:  rep,
	})
}

// FindNotes handles GET /api/notes.
//
//	@Summary		Find note ids with a search query
//	@Tags			notes
//	@Produce		json
//	@Param			q	query		string	true	"Search query, e.g. tag:morphman is:new"
//	@Success		200	{object}	NoteListResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) FindNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	ids, err := h.svc.FindNotes(r.Context(), q)
	if err != nil {
		writeError(w, "find notes", err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Query: q, IDs: ids, Total: len(ids)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search over note fields
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search text"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	if results == nil {
		results = []SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Stats handles GET /api/stats.
//
//	@Summary		Collection totals
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
