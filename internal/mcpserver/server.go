// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the dream dictionary to LLM clients via stdio transport.
// All tools are read-only; the record store has no write path.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yumetolab/yumeji/internal/apperr"
	"github.com/yumetolab/yumeji/internal/category"
	"github.com/yumetolab/yumeji/internal/content"
	"github.com/yumetolab/yumeji/internal/guide"
)

// Server wraps the MCP server with dictionary tools.
type Server struct {
	mcp      *server.MCPServer
	contents *content.Repository
	guides   *guide.Repository
	resolver *category.Resolver
}

// New creates an MCP server with all tools registered.
func New(contents *content.Repository, guides *guide.Repository, resolver *category.Resolver) *Server {
	s := &Server{contents: contents, guides: guides, resolver: resolver}

	s.mcp = server.NewMCPServer(
		"Yumeji",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_keywords",
		mcp.WithDescription("Search dream-dictionary entries by keyword, tag, or hiragana reading."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchKeywords)

	s.mcp.AddTool(mcp.NewTool("get_keyword",
		mcp.WithDescription("Read one dream-dictionary entry by its slug, including the full article and situation breakdowns."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Entry slug (e.g. snake)")),
	), s.getKeyword)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List the dream-symbol categories."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("get_guide",
		mcp.WithDescription("Read one editorial guide article by its slug."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Guide slug (e.g. lucky-dreams)")),
	), s.getGuide)

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

func (s *Server) searchKeywords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.contents.Search(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getKeyword(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, err := s.contents.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError("keyword not found: " + slug), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(item, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.resolver.Categories(ctx), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, err := s.guides.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError("guide not found: " + slug), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(item, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
