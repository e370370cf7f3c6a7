package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/homebase-app/homebase/internal/store"
	"github.com/homebase-app/homebase/internal/testutil"
)

func testServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	_, fs := testutil.TestVault(t)
	db := testutil.TestDB(t)

	st := store.New(store.Options{Provider: fs, Index: db})
	if err := st.Load(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(st.Close)

	return New(st, db), st
}

// addNote drives the draft flow so the note gets real front matter and an
// index entry, the way the app itself creates notes.
func addNote(t *testing.T, st *store.Store, body string) string {
	t.Helper()
	d, err := st.CreateDraft("")
	if err != nil {
		t.Fatal(err)
	}
	if err := st.UpdateDraftBody(body); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := st.Draft(); !ok {
			return d.ID
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("draft never promoted")
	return ""
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper; call the handler
	// functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "list_open_tasks":
		result, err = srv.listOpenTasks(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadNote(t *testing.T) {
	srv, st := testServer(t)
	id := addNote(t, st, "# Test\nHello")

	r := callTool(t, srv, "read_note", map[string]interface{}{"id": id})
	if got := resultText(r); got != "# Test\nHello" {
		t.Errorf("read result = %q", got)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestListNotes(t *testing.T) {
	srv, st := testServer(t)
	id := addNote(t, st, "grocery list")

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, id) || !strings.Contains(text, "grocery list") {
		t.Errorf("list = %q", text)
	}
}

func TestSearchNotes(t *testing.T) {
	srv, st := testServer(t)
	id := addNote(t, st, "# Plans\nvery distinctive phrase")
	st.Flush(id)

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "distinctive"})
	if text := resultText(r); !strings.Contains(text, id) {
		t.Errorf("search = %q", text)
	}
}

func TestListOpenTasks(t *testing.T) {
	srv, st := testServer(t)
	id := addNote(t, st, "# Chores\n- [ ] water plants @task(aaaa1111) @due(2026-04-01)\n")
	st.Flush(id)

	r := callTool(t, srv, "list_open_tasks", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "water plants") {
		t.Errorf("open tasks = %q", text)
	}
}

func TestGetNoteContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_note_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "@task(") || !strings.Contains(text, "front matter") {
		t.Errorf("contract missing sections: %q", text)
	}
}
