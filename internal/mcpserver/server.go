// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes morphclean actions and collection reads over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/morphclean/internal/actions"
	"github.com/starford/morphclean/internal/apperr"
	"github.com/starford/morphclean/internal/cleanup"
	"github.com/starford/morphclean/internal/media"
)

const querySyntaxURI = "morphclean://query-syntax"

// Server wraps the MCP server with morphclean tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *actions.Service
	media media.Provider
}

// New creates a new MCP server with all tools registered. mp may be nil, in
// which case list_media is not offered.
func New(svc *actions.Service, mp media.Provider, version string) *Server {
	s := &Server{svc: svc, media: mp}

	s.mcp = server.NewMCPServer(
		"morphclean",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("run_cleanup",
		mcp.WithDescription("Recalculate morphemes, then delete tagged notes, remove duplicate "+
			"target morphs, repair movies2anki filenames and bury name morphs. "+
			"Returns the report as JSON."),
	), s.runCleanup)

	s.mcp.AddTool(mcp.NewTool("just_clean_up",
		mcp.WithDescription("Run the cleanup passes without recalculating. Returns the report as JSON."),
	), s.justCleanUp)

	s.mcp.AddTool(mcp.NewTool("find_notes",
		mcp.WithDescription("Find note ids matching a search query. "+
			"See the get_query_syntax tool or the "+querySyntaxURI+" resource."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query, e.g. tag:morphman is:new")),
	), s.findNotes)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note fields."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to search for")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note's fields and tags as JSON."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("collection_stats",
		mcp.WithDescription("Return note and card totals of the collection."),
	), s.collectionStats)

	s.mcp.AddTool(mcp.NewTool("get_query_syntax",
		mcp.WithDescription("Returns the search query syntax."),
	), s.getQuerySyntax)

	if mp != nil {
		s.mcp.AddTool(mcp.NewTool("list_media",
			mcp.WithDescription("List the files in the collection media directory."),
		), s.listMedia)
	}

	s.mcp.AddResource(
		mcp.NewResource(querySyntaxURI, "Query Syntax",
			mcp.WithResourceDescription("Search language used by find_notes and the cleanup predicates."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readQuerySyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) runCleanup(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return reportResult(s.svc.Run(ctx))
}

func (s *Server) justCleanUp(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return reportResult(s.svc.JustCleanUp(ctx))
}

func reportResult(rep cleanup.Report, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"message": actions.Message(rep),
		"report":  rep,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids, err := s.svc.FindNotes(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(ids) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return mcp.NewToolResultText(strings.Join(parts, "\n")), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid note id: %s", raw)), nil
	}
	note, err := s.svc.GetNote(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %d", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) collectionStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.svc.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(st, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listMedia(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.media.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) getQuerySyntax(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(QuerySyntax), nil
}

func (s *Server) readQuerySyntaxResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      querySyntaxURI,
			MIMEType: "text/markdown",
			Text:     QuerySyntax,
		},
	}, nil
}
