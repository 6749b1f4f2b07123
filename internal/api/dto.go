package api

import (
	"github.com/starford/morphclean/internal/cleanup"
	"github.com/starford/morphclean/internal/collection"
	"github.com/starford/morphclean/internal/models"
)

// ActionResponse is returned by the action endpoints.
type ActionResponse struct {
	Action  string         `json:"action" example:"run"`
	Message string         `json:"message" example:"Deleted 3 notes"`
	Deleted int            `json:"deleted" example:"3"`
	Report  cleanup.Report `json:"report"`
}

// NoteListResponse wraps the ids matched by a search query.
type NoteListResponse struct {
	Query string  `json:"query" example:"tag:morphman is:new"`
	IDs   []int64 `json:"ids"`
	Total int     `json:"total" example:"42"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = models.Note

// SearchResult is a single full-text hit.
type SearchResult = collection.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// StatsResponse is the collection totals.
type StatsResponse = collection.Stats
