package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/news-rag-server/internal/rag"
	"github.com/bull/news-rag-server/internal/search"
)

// NewsService is the pipeline the tools call into.
type NewsService interface {
	Chat(ctx context.Context, question string) (rag.ChatResult, error)
	Assistant(ctx context.Context, question, threadID string) (rag.AssistantResult, error)
	Search(ctx context.Context, question string) (search.Outcome, error)
}

// Server wraps the MCP server with dependencies.
type Server struct {
	server  *mcp.Server
	service NewsService
}

// Config holds server dependencies.
type Config struct {
	Service NewsService
	Version string
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "v0.1.0"
	}
	impl := &mcp.Implementation{
		Name:    "news-rag-server",
		Version: version,
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_news",
		Description: "Answer a question from today's news. Searches Naver news first and Google as a fallback, then answers from the most relevant snippets.",
	}, makeAskHandler(cfg.Service))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_news_assistant",
		Description: "Answer a news question in a persistent assistant conversation. Pass the returned thread_id to continue the same conversation.",
	}, makeAssistantHandler(cfg.Service))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_news",
		Description: "Search news for a question without generating an answer. Returns the raw provider results and which provider produced them.",
	}, makeSearchHandler(cfg.Service))

	return &Server{
		server:  server,
		service: cfg.Service,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
