package mcpserver

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/binhphanhai/crambook/internal/guideservice"
	"github.com/binhphanhai/crambook/internal/lint"
	"github.com/binhphanhai/crambook/internal/storage"
	"github.com/binhphanhai/crambook/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	_, store := testutil.TestCorpus(t)
	db := testutil.TestDB(t)

	svc := guideservice.NewService(store, db, lint.Options{})
	srv := New(svc, store)
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we invoke
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_guides":
		result, err = srv.searchGuides(ctx, req)
	case "read_guide":
		result, err = srv.readGuide(ctx, req)
	case "create_guide":
		result, err = srv.createGuide(ctx, req)
	case "list_guides":
		result, err = srv.listGuides(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "check_guide":
		result, err = srv.checkGuide(ctx, req)
	case "corpus_report":
		result, err = srv.corpusReport(ctx, req)
	case "get_authoring_contract":
		result, err = srv.getAuthoringContract(ctx, req)
	case "upload_asset":
		result, err = srv.uploadAsset(ctx, req)
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

func TestCreateAndReadGuide(t *testing.T) {
	srv, _ := testServer(t)

	const content = "---\ntitle: Event Loop\n---\n\n# Event Loop\n\nCallbacks run one at a time.\n"
	r := callTool(t, srv, "create_guide", map[string]interface{}{
		"path":    "event-loop.md",
		"content": content,
	})
	if text := resultText(r); text != "created: event-loop.md" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_guide", map[string]interface{}{
		"path": "event-loop.md",
	})
	if text := resultText(r); text != content {
		t.Errorf("read result = %q", text)
	}
}

func TestCreateGuide_ReportsContractIssues(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_guide", map[string]interface{}{
		"path":    "sloppy.md",
		"content": "# Sloppy\n\n```\nunlabeled()\n```\n",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "created: sloppy.md") {
		t.Fatalf("create result = %q", text)
	}
	if !strings.Contains(text, lint.RuleFenceLanguage) {
		t.Errorf("result should report the unlabeled fence, got %q", text)
	}
}

func TestCreateGuide_AlreadyExists(t *testing.T) {
	srv, _ := testServer(t)

	args := map[string]interface{}{"path": "dup.md", "content": "# Dup\n"}
	_ = callTool(t, srv, "create_guide", args)
	r := callTool(t, srv, "create_guide", args)
	if !r.IsError {
		t.Error("expected error for duplicate create")
	}
}

func TestListGuides(t *testing.T) {
	srv, _ := testServer(t)

	_ = callTool(t, srv, "create_guide", map[string]interface{}{
		"path": "intro.md", "content": "# Intro\n",
	})
	_ = callTool(t, srv, "create_guide", map[string]interface{}{
		"path": "react/hooks.md", "content": "# Hooks\n",
	})

	r := callTool(t, srv, "list_guides", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "intro.md") || !strings.Contains(text, "react/hooks.md") {
		t.Errorf("list = %q", text)
	}

	r = callTool(t, srv, "list_guides", map[string]interface{}{"prefix": "react/"})
	text = resultText(r)
	if strings.Contains(text, "intro.md") || !strings.Contains(text, "react/hooks.md") {
		t.Errorf("prefix list = %q", text)
	}
}

func TestReadGuideMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_guide", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing guide")
	}
}

func TestSearchGuides(t *testing.T) {
	srv, _ := testServer(t)

	_ = callTool(t, srv, "create_guide", map[string]interface{}{
		"path": "find.md", "content": "# Find\n\nuniquetoken lives here\n",
	})

	r := callTool(t, srv, "search_guides", map[string]interface{}{"query": "uniquetoken"})
	if text := resultText(r); !strings.Contains(text, "find.md") {
		t.Errorf("search = %q", text)
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, _ := testServer(t)

	_ = callTool(t, srv, "create_guide", map[string]interface{}{
		"path":    "a.md",
		"content": "# A\n\nSee [B](b.md).\n",
	})

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "b.md"})
	if text := resultText(r); !strings.Contains(text, "a.md") {
		t.Errorf("backlinks = %q, want reference to a.md", text)
	}
}

func TestCheckGuide(t *testing.T) {
	srv, _ := testServer(t)

	_ = callTool(t, srv, "create_guide", map[string]interface{}{
		"path":    "broken.md",
		"content": "# Broken\n\nSee [missing](missing.md).\n",
	})

	r := callTool(t, srv, "check_guide", map[string]interface{}{"path": "broken.md"})
	if text := resultText(r); !strings.Contains(text, lint.RuleLinkResolves) {
		t.Errorf("check = %q, want a %s issue", text, lint.RuleLinkResolves)
	}
}

func TestCheckGuide_Clean(t *testing.T) {
	srv, _ := testServer(t)

	_ = callTool(t, srv, "create_guide", map[string]interface{}{
		"path":    "clean.md",
		"content": "---\ntitle: Clean\n---\n\n# Clean\n\nNothing wrong here.\n",
	})

	r := callTool(t, srv, "check_guide", map[string]interface{}{"path": "clean.md"})
	if text := resultText(r); text != "no issues found" {
		t.Errorf("check = %q", text)
	}
}

func TestCorpusReport(t *testing.T) {
	srv, _ := testServer(t)

	_ = callTool(t, srv, "create_guide", map[string]interface{}{
		"path": "clean.md", "content": "# Clean\n\nFine.\n",
	})
	_ = callTool(t, srv, "create_guide", map[string]interface{}{
		"path": "broken.md", "content": "# Broken\n\nSee [missing](missing.md).\n",
	})

	r := callTool(t, srv, "corpus_report", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"checked": 2`) {
		t.Errorf("report checked = %q", text)
	}
	if !strings.Contains(text, lint.RuleLinkResolves) {
		t.Errorf("report should contain the broken link issue, got %q", text)
	}
}

func TestAuthoringContract(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_authoring_contract", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "Guide Format Contract") {
		t.Errorf("contract = %q", text)
	}
}

// pngPixel is the 8-byte PNG signature; enough for content sniffing.
var pngPixel = []byte("\x89PNG\r\n\x1a\n")

func TestUploadAsset_DataURI(t *testing.T) {
	srv, store := testServer(t)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngPixel)
	r := callTool(t, srv, "upload_asset", map[string]interface{}{
		"url":      uri,
		"filename": "pixel.png",
	})
	if r.IsError {
		t.Fatalf("upload error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "/attachments/pixel.png") {
		t.Errorf("upload result = %q", text)
	}

	ok, err := store.Exists("attachments/pixel.png")
	if err != nil || !ok {
		t.Errorf("attachment not written: ok=%v err=%v", ok, err)
	}
}

func TestUploadAsset_BadExtension(t *testing.T) {
	srv, _ := testServer(t)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngPixel)
	r := callTool(t, srv, "upload_asset", map[string]interface{}{
		"url":      uri,
		"filename": "evil.exe",
	})
	if !r.IsError {
		t.Error("expected error for disallowed extension")
	}
}

func TestUploadAsset_MagicByteMismatch(t *testing.T) {
	srv, _ := testServer(t)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text"))
	r := callTool(t, srv, "upload_asset", map[string]interface{}{
		"url":      uri,
		"filename": "fake.png",
	})
	if !r.IsError {
		t.Error("expected error for content/extension mismatch")
	}
}
