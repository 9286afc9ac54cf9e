// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes read-side roadmap tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/board"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/roadmapservice"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp *server.MCPServer
	svc *roadmapservice.Service
	idx index.ItemIndex
}

// New creates a new MCP server with all Raido tools registered.
func New(svc *roadmapservice.Service, idx index.ItemIndex) *Server {
	s := &Server{svc: svc, idx: idx}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_roadmap",
		mcp.WithDescription("Search outcomes and problems by title and description."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchRoadmap)

	s.mcp.AddTool(mcp.NewTool("list_outcomes",
		mcp.WithDescription("List every outcome with its id, title, and timeline sections."),
	), s.listOutcomes)

	s.mcp.AddTool(mcp.NewTool("get_outcome",
		mcp.WithDescription("Read one outcome including its owned problems."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Outcome id")),
	), s.getOutcome)

	s.mcp.AddTool(mcp.NewTool("get_board",
		mcp.WithDescription("Render the timeline board: outcomes grouped by start bucket "+
			"with per-bucket problem columns."),
	), s.getBoard)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the canonical roadmap document contract. "+
			"Call this before producing an import payload."),
	), s.getDocumentContract)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource("raido://document-format", "Roadmap Document Contract",
			mcp.WithResourceDescription("Canonical JSON layout of the roadmap document."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
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

func (s *Server) searchRoadmap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.idx.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listOutcomes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := s.svc.Document(ctx)
	type item struct {
		ID       string   `json:"id"`
		Title    string   `json:"title"`
		Sections []string `json:"sections"`
		Problems int      `json:"problems"`
	}
	items := make([]item, 0, len(doc.Outcomes))
	for _, o := range doc.Outcomes {
		sections := make([]string, len(o.Timeline.Sections))
		for i, sec := range o.Timeline.Sections {
			sections[i] = string(sec)
		}
		items = append(items, item{ID: o.ID, Title: o.Title, Sections: sections, Problems: len(o.Problems)})
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getOutcome(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc := s.svc.Document(ctx)
	o := doc.FindOutcome(id)
	if o == nil {
		return mcp.NewToolResultError(fmt.Sprintf("outcome not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(o, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view := board.Build(s.svc.Document(ctx), board.Filters{})
	out, _ := json.MarshalIndent(view, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocumentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentContract), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentContract,
		},
	}, nil
}
