// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes LEAF collections, notes, and statistics for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/WayBetterSolutions/LEAF/internal/analytics"
	"github.com/WayBetterSolutions/LEAF/internal/apperr"
	"github.com/WayBetterSolutions/LEAF/internal/notestore"
	"github.com/WayBetterSolutions/LEAF/internal/registry"
)

// Server wraps the MCP server with LEAF tools.
type Server struct {
	mcp   *server.MCPServer
	reg   *registry.Registry
	store *notestore.Store
}

// New creates a new MCP server with all LEAF tools registered.
func New(reg *registry.Registry, store *notestore.Store) *Server {
	s := &Server{reg: reg, store: store}

	s.mcp = server.NewMCPServer(
		"LEAF",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("list_collections",
		mcp.WithDescription("List all collections with note counts; the active one is marked."),
	), s.listCollections)

	s.mcp.AddTool(mcp.NewTool("create_collection",
		mcp.WithDescription("Create a new empty collection."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Collection name (user-facing, must be unique)")),
	), s.createCollection)

	s.mcp.AddTool(mcp.NewTool("rename_collection",
		mcp.WithDescription("Rename a collection and its backing file."),
		mcp.WithString("old", mcp.Required(), mcp.Description("Current collection name")),
		mcp.WithString("new", mcp.Required(), mcp.Description("New collection name")),
	), s.renameCollection)

	s.mcp.AddTool(mcp.NewTool("delete_collection",
		mcp.WithDescription("Delete a collection. Its file is kept as a timestamped backup. "+
			"The last remaining collection cannot be deleted."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Collection name")),
	), s.deleteCollection)

	s.mcp.AddTool(mcp.NewTool("switch_collection",
		mcp.WithDescription("Make a collection active, saving the outgoing one first."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Collection name")),
	), s.switchCollection)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List the active collection's notes, newest first, honoring the current search filter."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Set the live search filter (case-insensitive substring over title and content) "+
			"and return the matching notes. An empty query clears the filter."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note in the active collection. The title is derived from the first line."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note content")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace a note's content. Title and modified time are recomputed."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New note content")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note from the active collection."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("note_stats",
		mcp.WithDescription("Text statistics for one note: counts, lexical diversity, reading time."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.noteStats)

	s.mcp.AddTool(mcp.NewTool("overall_stats",
		mcp.WithDescription("Aggregate statistics across all collections."),
	), s.overallStats)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// Listen serves MCP over the given streams until ctx is cancelled.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listCollections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.reg.Info())
}

func (s *Server) createCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.reg.Create(name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", name)), nil
}

func (s *Server) renameCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	oldName, err := req.RequireString("old")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newName, err := req.RequireString("new")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.reg.Rename(oldName, newName); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("renamed: %s -> %s", oldName, newName)), nil
}

func (s *Server) deleteCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.reg.Delete(name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", name)), nil
}

func (s *Server) switchCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.store.Switch(name)
	if s.reg.Current() != name {
		return mcp.NewToolResultError(fmt.Sprintf("unknown collection: %s", name)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("active: %s", name)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.store.Filtered())
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.store.SetQuery(query)
	return jsonResult(s.store.Filtered())
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := s.store.Create(content)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError("no active collection"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created note %d", id)), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, ok := s.store.Get(id); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown note id: %d", id)), nil
	}
	if err := s.store.Update(id, content); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated note %d", id)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, ok := s.store.Get(id); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown note id: %d", id)), nil
	}
	if err := s.store.Delete(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted note %d", id)), nil
}

func (s *Server) noteStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, ok := s.store.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown note id: %d", id)), nil
	}
	return jsonResult(analytics.ComputeNoteStats(note))
}

func (s *Server) overallStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(analytics.ComputeOverallStats(s.reg))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
