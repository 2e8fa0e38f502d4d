package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/news-rag-server/internal/search"
)

var errEmptyQuestion = errors.New("question must not be empty")

// makeAskHandler creates the ask_news tool handler.
func makeAskHandler(service NewsService) func(
	context.Context, *mcp.CallToolRequest, AskNewsInput,
) (*mcp.CallToolResult, AskNewsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskNewsInput) (
		*mcp.CallToolResult, AskNewsOutput, error,
	) {
		question := strings.TrimSpace(input.Question)
		if question == "" {
			return nil, AskNewsOutput{}, errEmptyQuestion
		}

		result, err := service.Chat(ctx, question)
		if err != nil {
			return nil, AskNewsOutput{}, fmt.Errorf("failed to answer question: %w", err)
		}

		out := AskNewsOutput{
			Reply:   result.Reply,
			Source:  string(result.Source),
			Results: toNewsResults(result.Results),
		}
		if result.Found {
			out.Type = "chat"
		}
		return nil, out, nil
	}
}

// makeAssistantHandler creates the ask_news_assistant tool handler.
// An empty thread_id starts a new conversation.
func makeAssistantHandler(service NewsService) func(
	context.Context, *mcp.CallToolRequest, AskAssistantInput,
) (*mcp.CallToolResult, AskAssistantOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskAssistantInput) (
		*mcp.CallToolResult, AskAssistantOutput, error,
	) {
		question := strings.TrimSpace(input.Question)
		if question == "" {
			return nil, AskAssistantOutput{}, errEmptyQuestion
		}

		result, err := service.Assistant(ctx, question, strings.TrimSpace(input.ThreadID))
		if err != nil {
			return nil, AskAssistantOutput{}, fmt.Errorf("failed to run assistant: %w", err)
		}

		if !result.Found {
			return nil, AskAssistantOutput{
				Results: []NewsResult{},
				Reply:   result.Reply,
				Source:  string(result.Source),
			}, nil
		}

		return nil, AskAssistantOutput{
			Results: toNewsResults(result.Results),
			Summary: &AssistantSummary{
				Reply:    result.Summary.Reply,
				ThreadID: result.Summary.ThreadID,
			},
			Type: "assistant",
		}, nil
	}
}

// makeSearchHandler creates the search_news tool handler.
// Only the provider fallback runs; nothing is embedded or generated.
func makeSearchHandler(service NewsService) func(
	context.Context, *mcp.CallToolRequest, SearchNewsInput,
) (*mcp.CallToolResult, SearchNewsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchNewsInput) (
		*mcp.CallToolResult, SearchNewsOutput, error,
	) {
		question := strings.TrimSpace(input.Question)
		if question == "" {
			return nil, SearchNewsOutput{}, errEmptyQuestion
		}

		outcome, err := service.Search(ctx, question)
		if err != nil {
			return nil, SearchNewsOutput{}, fmt.Errorf("search failed: %w", err)
		}

		out := SearchNewsOutput{
			Source:  string(outcome.Source),
			Results: toNewsResults(outcome.Results),
		}
		if outcome.Empty() {
			out.Message = "No results found from both Naver and Google."
		}
		return nil, out, nil
	}
}

// toNewsResults converts results, never returning nil so JSON stays an array.
func toNewsResults(results []search.SearchResult) []NewsResult {
	out := make([]NewsResult, 0, len(results))
	for _, r := range results {
		out = append(out, NewsResult{
			Title:       r.Title,
			Link:        r.Link,
			Description: r.Description,
		})
	}
	return out
}
