// Package httpapi serves the news pipeline over HTTP.
package httpapi

import "github.com/bull/news-rag-server/internal/search"

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// AssistantRequest is the body of POST /assistant.
type AssistantRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

// ChatResponse is the answered /chat body.
type ChatResponse struct {
	Reply   string                `json:"reply"`
	Source  string                `json:"source"`
	Results []search.SearchResult `json:"results"`
	Type    string                `json:"type"`
}

// Summary is the assistant part of an /assistant body.
type Summary struct {
	Reply    string `json:"reply"`
	ThreadID string `json:"thread_id"`
}

// AssistantResponse is the answered /assistant body.
type AssistantResponse struct {
	Results []search.SearchResult `json:"results"`
	Summary Summary               `json:"summary"`
	Type    string                `json:"type"`
}

// NoResultsResponse is returned by both endpoints when no provider found news.
type NoResultsResponse struct {
	Reply  string `json:"reply"`
	Source string `json:"source"`
}

// ErrorResponse is the body of every 4xx/5xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the body of the health endpoints.
type StatusResponse struct {
	Status      string `json:"status"`
	VectorStore string `json:"vector_store,omitempty"`
}
