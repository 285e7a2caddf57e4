// Package mcpserver exposes the similarity query service as a single tool
// over the Model Context Protocol, speaking stdio to the tool host and
// HTTP to the query API.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is the MCP server version.
const Version = "0.1.0"

// SearchMoviesInput is the input schema for the searchMovies tool.
type SearchMoviesInput struct {
	Prompt string `json:"prompt" jsonschema:"question or search about movies"`
}

// Server is the MCP adapter in front of the query API.
type Server struct {
	client *Client
	server *mcp.Server
}

// NewServer creates the MCP server forwarding to the query API at
// queryServiceURL.
func NewServer(queryServiceURL string) *Server {
	impl := &mcp.Implementation{
		Name:    "cinesense",
		Version: Version,
	}

	s := &Server{
		client: NewClient(queryServiceURL),
		server: mcp.NewServer(impl, nil),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "searchMovies",
		Description: "Search movie review passages using retrieval-augmented lookup",
	}, s.handleSearchMovies)

	return s
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// handleSearchMovies forwards the prompt to the query API. The result is
// always a single text content block; failures become diagnostic text so
// the protocol call itself never errors.
func (s *Server) handleSearchMovies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchMoviesInput,
) (*mcp.CallToolResult, any, error) {
	text := s.client.Search(ctx, input.Prompt)
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}
