// Package mcp exposes the news pipeline as MCP tools.
package mcp

// AskNewsInput defines the input parameters for the ask_news tool.
type AskNewsInput struct {
	// Question is the user's news question.
	Question string `json:"question" jsonschema:"the question to answer from recent news"`
}

// NewsResult is one retrieved news chunk.
type NewsResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// AskNewsOutput mirrors the /chat response.
type AskNewsOutput struct {
	// Reply is the generated answer, or the no-results message.
	Reply string `json:"reply"`
	// Source names the provider that produced the results ("None" when empty).
	Source string `json:"source"`
	// Results are the chunks the answer was grounded on.
	Results []NewsResult `json:"results"`
	// Type is "chat" for answered questions and empty for no results.
	Type string `json:"type,omitempty"`
}

// AskAssistantInput defines the input parameters for the ask_news_assistant tool.
type AskAssistantInput struct {
	Question string `json:"question" jsonschema:"the question to answer from recent news"`
	// ThreadID resumes an earlier conversation.
	ThreadID string `json:"thread_id,omitempty" jsonschema:"thread id returned by an earlier call, to continue that conversation"`
}

// AssistantSummary is the assistant's reply and its thread.
type AssistantSummary struct {
	Reply    string `json:"reply"`
	ThreadID string `json:"thread_id"`
}

// AskAssistantOutput mirrors the /assistant response.
type AskAssistantOutput struct {
	Results []NewsResult      `json:"results"`
	Summary *AssistantSummary `json:"summary,omitempty"`
	Type    string            `json:"type,omitempty"`
	// Reply and Source are set only when no news was found.
	Reply  string `json:"reply,omitempty"`
	Source string `json:"source,omitempty"`
}

// SearchNewsInput defines the input parameters for the search_news tool.
type SearchNewsInput struct {
	Question string `json:"question" jsonschema:"the question to search news for"`
}

// SearchNewsOutput contains raw provider results.
type SearchNewsOutput struct {
	Source  string       `json:"source"`
	Results []NewsResult `json:"results"`
	// Message provides informational context (e.g., "No results found").
	Message string `json:"message,omitempty"`
}
