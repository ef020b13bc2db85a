// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes crambook tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/binhphanhai/crambook/internal/guideservice"
	"github.com/binhphanhai/crambook/internal/index"
	"github.com/binhphanhai/crambook/internal/storage"
)

// Server wraps the MCP server with crambook tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *guideservice.Service
	store storage.Provider
}

// New creates a new MCP server with all crambook tools registered.
func New(svc *guideservice.Service, store storage.Provider) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"crambook",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_guides",
		mcp.WithDescription("Full-text search through guide content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchGuides)

	s.mcp.AddTool(mcp.NewTool("read_guide",
		mcp.WithDescription("Read the full content of a Markdown study guide."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the guide (e.g. react/hooks.md)")),
	), s.readGuide)

	s.mcp.AddTool(mcp.NewTool("create_guide",
		mcp.WithDescription("Create a new study guide at the specified path. "+
			"Content MUST follow the guide format contract (YAML frontmatter with title, "+
			"optional tags, language-tagged code fences, resolving relative links). "+
			"Read the contract first via the get_authoring_contract tool or the "+
			"crambook://guide-format resource. Contract violations in the new guide "+
			"are reported back in the result."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new guide (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the crambook guide format contract")),
	), s.createGuide)

	s.mcp.AddTool(mcp.NewTool("get_authoring_contract",
		mcp.WithDescription("Returns the canonical crambook guide format contract. "+
			"Call this before creating or updating guides to ensure correct structure."),
	), s.getAuthoringContract)

	s.mcp.AddTool(mcp.NewTool("list_guides",
		mcp.WithDescription("List all guides or guides under a directory prefix."),
		mcp.WithString("prefix", mcp.Description("Optional directory prefix to list (empty for all, e.g. react/)")),
	), s.listGuides)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all guides that link to the specified guide."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the guide to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("check_guide",
		mcp.WithDescription("Run the contract checks against a single guide and report its issues."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the guide to check")),
	), s.checkGuide)

	s.mcp.AddTool(mcp.NewTool("corpus_report",
		mcp.WithDescription("Check every guide against the contract and return the aggregate report."),
	), s.corpusReport)

	s.mcp.AddTool(mcp.NewTool("upload_asset",
		mcp.WithDescription("Upload an image or document into the shared attachments directory. "+
			"Accepts an http(s) URL or a base64 data URI and returns Markdown ready to paste."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data URI of the asset")),
		mcp.WithString("filename", mcp.Description("Optional filename override")),
	), s.uploadAsset)

	// Resource: guide format contract.
	s.mcp.AddResource(
		mcp.NewResource("crambook://guide-format", "Guide Format Contract",
			mcp.WithResourceDescription("Canonical Markdown guide format that all study guides must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuideFormatResource,
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

func (s *Server) searchGuides(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

func (s *Server) readGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	guide, err := s.svc.GetGuide(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(guide.Content), nil
}

func (s *Server) createGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	guide, err := s.svc.CreateGuide(ctx, path, []byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Surface contract violations immediately so the caller can fix them.
	issues, err := s.svc.CheckContent(ctx, path, []byte(content))
	if err != nil || len(issues) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("created: %s", guide.Path)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "created: %s\ncontract issues:\n", guide.Path)
	for _, is := range issues {
		fmt.Fprintf(&b, "- line %d: %s %s: %s\n", is.Line, is.Severity, is.Rule, is.Message)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) listGuides(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := ""
	if v, err := req.RequireString("prefix"); err == nil {
		prefix = v
	}

	items, _, err := s.svc.ListGuides(ctx, index.ListOptions{Prefix: prefix})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no guides found"), nil
	}

	var lines []string
	for _, it := range items {
		lines = append(lines, it.Path+"\t"+it.Title)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getAuthoringContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(GuideFormatContract), nil
}

func (s *Server) readGuideFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "crambook://guide-format",
			MIMEType: "text/markdown",
			Text:     GuideFormatContract,
		},
	}, nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	out, _ := json.MarshalIndent(bl, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) checkGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	issues, err := s.svc.CheckContent(ctx, path, data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(issues) == 0 {
		return mcp.NewToolResultText("no issues found"), nil
	}
	out, _ := json.MarshalIndent(issues, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) corpusReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.CheckCorpus(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
