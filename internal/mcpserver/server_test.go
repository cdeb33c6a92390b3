package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/testutil"
)

func testServer(t *testing.T) (*Server, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(t)
	svc := noteservice.NewService(env.Store, env.DB)
	return New(svc, env.Store), env
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "open_note":
		result, err = srv.openNote(ctx, req)
	case "toggle_checkbox":
		result, err = srv.toggleCheckbox(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
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

func TestGetBacklinks(t *testing.T) {
	srv, env := testServer(t)
	env.WriteNote(t, "b.md", "# B\n")
	env.WriteNote(t, "a.md", "intro\nlinks to [[b]]\n")

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "b.md"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "Linked mentions of b (1)") || !strings.Contains(text, "2  links to [[b]]") {
		t.Errorf("backlinks = %q", text)
	}

	r = callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "b.md", "format": "json"})
	if !strings.Contains(resultText(r), `"path": "a.md"`) {
		t.Errorf("json backlinks = %q", resultText(r))
	}
}

func TestGetBacklinksMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestToolsRejectPathsOutsideVault(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "../x.md"})
	if !r.IsError || !strings.Contains(resultText(r), "outside the vault") {
		t.Errorf("get_backlinks traversal = %q", resultText(r))
	}
	r = callTool(t, srv, "toggle_checkbox", map[string]interface{}{"path": "../x.md", "line": float64(1), "checked": true})
	if !r.IsError || !strings.Contains(resultText(r), "outside the vault") {
		t.Errorf("toggle_checkbox traversal = %q", resultText(r))
	}
}

func TestOpenNote(t *testing.T) {
	srv, env := testServer(t)
	env.WriteNote(t, "a.md", "one\ntwo")

	r := callTool(t, srv, "open_note", map[string]interface{}{"path": "a.md", "line": float64(9)})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"line": 2`) {
		t.Errorf("open_note = %q", resultText(r))
	}
}

func TestToggleCheckbox(t *testing.T) {
	srv, env := testServer(t)
	env.WriteNote(t, "todo.md", "- [ ] one\n- [x] two\n")

	r := callTool(t, srv, "toggle_checkbox", map[string]interface{}{"path": "todo.md", "line": float64(1), "checked": true})
	if got := resultText(r); got != "updated: todo.md:1" {
		t.Errorf("toggle = %q", got)
	}
	r = callTool(t, srv, "toggle_checkbox", map[string]interface{}{"path": "todo.md", "line": float64(2), "checked": true})
	if got := resultText(r); got != "unchanged: todo.md:2" {
		t.Errorf("toggle same state = %q", got)
	}

	data, _ := env.Store.Read("todo.md")
	if string(data) != "- [x] one\n- [x] two\n" {
		t.Errorf("content = %q", data)
	}

	r = callTool(t, srv, "toggle_checkbox", map[string]interface{}{"path": "todo.md", "checked": true})
	if !r.IsError {
		t.Error("expected error for missing line")
	}
}

func TestListNotes(t *testing.T) {
	srv, env := testServer(t)
	_ = env.Store.Write("a.md", []byte("a"))
	_ = env.Store.Write("sub/b.md", []byte("b"))

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "a.md") || !strings.Contains(text, "sub/b.md") {
		t.Errorf("list = %q", text)
	}
}
