package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/news-rag-server/internal/assistant"
	"github.com/bull/news-rag-server/internal/rag"
	"github.com/bull/news-rag-server/internal/search"
)

type stubService struct {
	chat        rag.ChatResult
	assistant   rag.AssistantResult
	outcome     search.Outcome
	err         error
	lastThread  string
	searchCalls int
}

func (s *stubService) Chat(ctx context.Context, question string) (rag.ChatResult, error) {
	return s.chat, s.err
}

func (s *stubService) Assistant(ctx context.Context, question, threadID string) (rag.AssistantResult, error) {
	s.lastThread = threadID
	return s.assistant, s.err
}

func (s *stubService) Search(ctx context.Context, question string) (search.Outcome, error) {
	s.searchCalls++
	return s.outcome, s.err
}

func electionResults() []search.SearchResult {
	return []search.SearchResult{
		{Title: "Election", Link: "https://news.example/1", Description: "Votes are being counted."},
	}
}

func TestAskHandler(t *testing.T) {
	svc := &stubService{chat: rag.ChatResult{
		Found:   true,
		Reply:   "Votes are still being counted.",
		Source:  search.SourcePrimary,
		Results: electionResults(),
	}}

	_, out, err := makeAskHandler(svc)(context.Background(), nil, AskNewsInput{Question: "What happened?"})
	require.NoError(t, err)

	assert.Equal(t, "chat", out.Type)
	assert.Equal(t, "Naver Search API", out.Source)
	assert.Equal(t, "Votes are still being counted.", out.Reply)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "Election", out.Results[0].Title)
}

func TestAskHandler_NoResults(t *testing.T) {
	svc := &stubService{chat: rag.ChatResult{Reply: rag.NoResultsReply, Source: search.SourceNone}}

	_, out, err := makeAskHandler(svc)(context.Background(), nil, AskNewsInput{Question: "anything"})
	require.NoError(t, err)

	assert.Empty(t, out.Type)
	assert.Equal(t, "None", out.Source)
	assert.NotNil(t, out.Results)
	assert.Empty(t, out.Results)
}

func TestAskHandler_EmptyQuestion(t *testing.T) {
	_, _, err := makeAskHandler(&stubService{})(context.Background(), nil, AskNewsInput{Question: "  "})
	assert.ErrorIs(t, err, errEmptyQuestion)
}

func TestAssistantHandler(t *testing.T) {
	svc := &stubService{assistant: rag.AssistantResult{
		Found:   true,
		Source:  search.SourcePrimary,
		Results: electionResults(),
		Summary: assistant.Summary{Reply: "Here you go.", ThreadID: "thread_1"},
	}}

	_, out, err := makeAssistantHandler(svc)(context.Background(), nil, AskAssistantInput{Question: "q", ThreadID: "thread_1"})
	require.NoError(t, err)

	assert.Equal(t, "thread_1", svc.lastThread)
	assert.Equal(t, "assistant", out.Type)
	require.NotNil(t, out.Summary)
	assert.Equal(t, "thread_1", out.Summary.ThreadID)
	assert.Empty(t, out.Reply)
}

func TestAssistantHandler_Error(t *testing.T) {
	svc := &stubService{err: assistant.ErrRunTimeout}

	_, _, err := makeAssistantHandler(svc)(context.Background(), nil, AskAssistantInput{Question: "q"})
	assert.ErrorIs(t, err, assistant.ErrRunTimeout)
}

func TestSearchHandler_NoResults(t *testing.T) {
	svc := &stubService{outcome: search.Outcome{Results: []search.SearchResult{}, Source: search.SourceNone}}

	_, out, err := makeSearchHandler(svc)(context.Background(), nil, SearchNewsInput{Question: "q"})
	require.NoError(t, err)

	assert.Equal(t, "None", out.Source)
	assert.NotEmpty(t, out.Message)
	assert.Equal(t, 1, svc.searchCalls)
}

// TestServer_CallToolOverInMemoryTransport exercises tool registration and
// schema handling through a real client session.
func TestServer_CallToolOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	svc := &stubService{outcome: search.Outcome{Results: electionResults(), Source: search.SourceFallback}}
	server := NewServer(&Config{Service: svc})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"ask_news", "ask_news_assistant", "search_news"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "search_news",
		Arguments: map[string]any{"question": "election"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out SearchNewsOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Google Search API", out.Source)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "https://news.example/1", out.Results[0].Link)
}

func TestServer_ToolErrorIsReported(t *testing.T) {
	ctx := context.Background()
	svc := &stubService{err: errors.New("serpapi: status 500")}
	server := NewServer(&Config{Service: svc})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "ask_news",
		Arguments: map[string]any{"question": "election"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
