// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Homebase tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/homebase-app/homebase/internal/index"
	"github.com/homebase-app/homebase/internal/store"
)

// Server wraps the MCP server with Homebase tools.
type Server struct {
	mcp *server.MCPServer
	st  *store.Store
	db  index.NoteIndex
}

// New creates a new MCP server with all Homebase tools registered.
func New(st *store.Store, db index.NoteIndex) *Server {
	s := &Server{st: st, db: db}

	s.mcp = server.NewMCPServer(
		"Homebase",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full Markdown body of a note by its id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes as 'id  path  title' lines, newest modified first."),
		mcp.WithString("kind", mcp.Description("Optional kind filter: inbox, archive, project, folder, daily, other")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("list_open_tasks",
		mcp.WithDescription("List open tasks across all notes, due date first."),
		mcp.WithString("due_before", mcp.Description("Only tasks due on or before this date (YYYY-MM-DD)")),
	), s.listOpenTasks)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical Homebase note format contract, "+
			"including the task micro-format. Call this before generating note content."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("homebase://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format used by the vault."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.st.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(note.Body), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := ""
	if k, err := req.RequireString("kind"); err == nil {
		kind = k
	}

	notes := s.st.Notes(kind == "archive")
	var lines []string
	for _, n := range notes {
		if kind != "" && string(n.Kind) != kind {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s  %s  %s", n.ID, n.Path, n.Title))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listOpenTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dueBefore := ""
	if d, err := req.RequireString("due_before"); err == nil {
		dueBefore = d
	}
	tasks, err := s.db.OpenTasks(dueBefore, 100)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(tasks) == 0 {
		return mcp.NewToolResultText("no open tasks"), nil
	}
	out, _ := json.MarshalIndent(tasks, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "homebase://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
