// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ansuz tools for LLM integration via stdio transport.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/panel"
	"github.com/starford/ansuz/internal/storage"
)

const linkSyntaxURI = "ansuz://link-syntax"

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *noteservice.Service
	store storage.Provider
}

// New creates a new MCP server with all Ansuz tools registered.
func New(svc *noteservice.Service, store storage.Provider) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("List the notes linking to a note together with the exact lines that contain the links. "+
			"Sources are sorted by name; each line is prefixed with its 1-based line number."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the target note (e.g. folder/note.md)")),
		mcp.WithString("format", mcp.Description("Output format: text (default) or json")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("open_note",
		mcp.WithDescription("Read a note positioned at a line, e.g. a line reported by get_backlinks."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithNumber("line", mcp.Description("1-based line number; clamped to the note")),
	), s.openNote)

	s.mcp.AddTool(mcp.NewTool("toggle_checkbox",
		mcp.WithDescription("Check or uncheck the task checkbox on a line. Lines without a checkbox are left untouched."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("1-based line number of the task")),
		mcp.WithBoolean("checked", mcp.Required(), mcp.Description("New checkbox state")),
	), s.toggleCheckbox)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes or notes in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddResource(
		mcp.NewResource(linkSyntaxURI, "Link Syntax",
			mcp.WithResourceDescription("Which link forms appear in the backlinks of a note."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLinkSyntax,
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

func toolError(path string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path))
	case errors.Is(err, apperr.ErrInvalidLine):
		return mcp.NewToolResultError("line must be >= 1")
	case errors.Is(err, apperr.ErrInvalidPath):
		return mcp.NewToolResultError(fmt.Sprintf("path outside the vault: %s", path))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := s.svc.View(ctx, path)
	if err != nil {
		return toolError(path, err), nil
	}
	if req.GetString("format", "text") == "json" {
		out, _ := json.MarshalIndent(view, "", "  ")
		return mcp.NewToolResultText(string(out)), nil
	}
	var buf bytes.Buffer
	if err := panel.WriteText(&buf, view, false); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) openNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc, err := s.svc.OpenNote(ctx, path, req.GetInt("line", 1))
	if err != nil {
		return toolError(path, err), nil
	}
	out, _ := json.MarshalIndent(loc, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) toggleCheckbox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := req.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	checked, err := req.RequireBool("checked")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	changed, err := s.svc.ToggleCheckbox(ctx, path, line, checked)
	if err != nil {
		return toolError(path, err), nil
	}
	if !changed {
		return mcp.NewToolResultText(fmt.Sprintf("unchanged: %s:%d", path, line)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s:%d", path, line)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.store.List(req.GetString("folder", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	paths := make([]string, 0, len(metas))
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) readLinkSyntax(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      linkSyntaxURI,
			MIMEType: "text/markdown",
			Text:     LinkSyntax,
		},
	}, nil
}
