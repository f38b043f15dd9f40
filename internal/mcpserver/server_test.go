package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/WayBetterSolutions/LEAF/internal/analytics"
	"github.com/WayBetterSolutions/LEAF/internal/models"
	"github.com/WayBetterSolutions/LEAF/internal/testutil"
)

func testServer(t *testing.T) (*Server, *testutil.Fixture) {
	t.Helper()
	f := testutil.NewFixture(t)
	f.Setup(t, "Notes")
	return New(f.Registry, f.Store), f
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	ctx := context.Background()
	var (
		res *mcp.CallToolResult
		err error
	)
	switch name {
	case "list_collections":
		res, err = srv.listCollections(ctx, req)
	case "create_collection":
		res, err = srv.createCollection(ctx, req)
	case "rename_collection":
		res, err = srv.renameCollection(ctx, req)
	case "delete_collection":
		res, err = srv.deleteCollection(ctx, req)
	case "switch_collection":
		res, err = srv.switchCollection(ctx, req)
	case "list_notes":
		res, err = srv.listNotes(ctx, req)
	case "search_notes":
		res, err = srv.searchNotes(ctx, req)
	case "create_note":
		res, err = srv.createNote(ctx, req)
	case "update_note":
		res, err = srv.updateNote(ctx, req)
	case "delete_note":
		res, err = srv.deleteNote(ctx, req)
	case "note_stats":
		res, err = srv.noteStats(ctx, req)
	case "overall_stats":
		res, err = srv.overallStats(ctx, req)
	default:
		t.Fatalf("unknown tool %q", name)
	}
	if err != nil {
		t.Fatalf("tool %q: %v", name, err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("result has no text content")
	return ""
}

func decodeResult(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool returned error: %s", resultText(t, res))
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), v); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

func TestCreateAndListNotes(t *testing.T) {
	srv, _ := testServer(t)

	res := callTool(t, srv, "create_note", map[string]any{"content": "# Hello\nWorld"})
	if res.IsError {
		t.Fatalf("create_note: %s", resultText(t, res))
	}

	var notes []models.Note
	decodeResult(t, callTool(t, srv, "list_notes", nil), &notes)
	if len(notes) != 1 || notes[0].Title != "Hello" {
		t.Errorf("notes = %v", notes)
	}
}

func TestCreateNoteRequiresContent(t *testing.T) {
	srv, _ := testServer(t)
	res := callTool(t, srv, "create_note", map[string]any{})
	if !res.IsError {
		t.Error("expected error for missing content")
	}
}

func TestSearchNotes(t *testing.T) {
	srv, f := testServer(t)
	if _, err := f.Store.Create("Hello World"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Store.Create("Goodbye"); err != nil {
		t.Fatal(err)
	}

	var notes []models.Note
	decodeResult(t, callTool(t, srv, "search_notes", map[string]any{"query": "wor"}), &notes)
	if len(notes) != 1 || notes[0].Title != "Hello World" {
		t.Errorf("filtered = %v", notes)
	}

	// An empty query clears the filter.
	decodeResult(t, callTool(t, srv, "search_notes", map[string]any{"query": ""}), &notes)
	if len(notes) != 2 {
		t.Errorf("unfiltered = %v", notes)
	}
}

func TestUpdateAndDeleteNote(t *testing.T) {
	srv, f := testServer(t)
	id, err := f.Store.Create("before")
	if err != nil {
		t.Fatal(err)
	}

	res := callTool(t, srv, "update_note", map[string]any{"id": id, "content": "# After"})
	if res.IsError {
		t.Fatalf("update_note: %s", resultText(t, res))
	}
	note, _ := f.Store.Get(id)
	if note.Title != "After" {
		t.Errorf("Title = %q, want After", note.Title)
	}

	res = callTool(t, srv, "update_note", map[string]any{"id": 999, "content": "x"})
	if !res.IsError {
		t.Error("expected error for unknown note id")
	}

	res = callTool(t, srv, "delete_note", map[string]any{"id": id})
	if res.IsError {
		t.Fatalf("delete_note: %s", resultText(t, res))
	}
	if _, ok := f.Store.Get(id); ok {
		t.Error("note still present after delete")
	}

	res = callTool(t, srv, "delete_note", map[string]any{"id": id})
	if !res.IsError {
		t.Error("expected error for already-deleted note")
	}
}

func TestCollectionTools(t *testing.T) {
	srv, f := testServer(t)

	res := callTool(t, srv, "create_collection", map[string]any{"name": "Work"})
	if res.IsError {
		t.Fatalf("create_collection: %s", resultText(t, res))
	}

	var info []models.CollectionInfo
	decodeResult(t, callTool(t, srv, "list_collections", nil), &info)
	if len(info) != 2 {
		t.Fatalf("collections = %v", info)
	}
	if !info[0].IsCurrent || info[1].IsCurrent {
		t.Errorf("active flag wrong: %v", info)
	}

	res = callTool(t, srv, "switch_collection", map[string]any{"name": "Work"})
	if res.IsError {
		t.Fatalf("switch_collection: %s", resultText(t, res))
	}
	if got := f.Registry.Current(); got != "Work" {
		t.Errorf("Current = %q, want Work", got)
	}

	res = callTool(t, srv, "switch_collection", map[string]any{"name": "Missing"})
	if !res.IsError {
		t.Error("expected error for unknown collection")
	}

	res = callTool(t, srv, "rename_collection", map[string]any{"old": "Work", "new": "Projects"})
	if res.IsError {
		t.Fatalf("rename_collection: %s", resultText(t, res))
	}
	if got := f.Registry.Current(); got != "Projects" {
		t.Errorf("Current = %q, want Projects", got)
	}

	res = callTool(t, srv, "delete_collection", map[string]any{"name": "Notes"})
	if res.IsError {
		t.Fatalf("delete_collection: %s", resultText(t, res))
	}
	res = callTool(t, srv, "delete_collection", map[string]any{"name": "Projects"})
	if !res.IsError {
		t.Error("expected error deleting the last collection")
	}
}

func TestNoteStats(t *testing.T) {
	srv, f := testServer(t)
	id, err := f.Store.Create("one two three. four five!")
	if err != nil {
		t.Fatal(err)
	}

	var stats analytics.NoteStats
	decodeResult(t, callTool(t, srv, "note_stats", map[string]any{"id": id}), &stats)
	if stats.Words != 5 || stats.Sentences != 2 {
		t.Errorf("stats = %+v", stats)
	}

	res := callTool(t, srv, "note_stats", map[string]any{"id": 999})
	if !res.IsError {
		t.Error("expected error for unknown note id")
	}
}

func TestOverallStats(t *testing.T) {
	srv, f := testServer(t)
	if _, err := f.Store.Create("alpha beta"); err != nil {
		t.Fatal(err)
	}

	var stats analytics.OverallStats
	decodeResult(t, callTool(t, srv, "overall_stats", nil), &stats)
	if stats.TotalNotes != 1 || stats.TotalWords != 2 || stats.CollectionsCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
