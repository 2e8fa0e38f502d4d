// Package query turns a user question into provider-specific search queries.
package query

import (
	"context"
	"fmt"
	"strings"
)

const (
	keywordTemplate = "Extract the most relevant single keyword from the following question " +
		"to use in a search query:\n\n" +
		"Question: {question}\nKeyword:"

	refineTemplate = "Refine the following question to make it suitable for a web search query:\n\n" +
		"Question: {question}\nRefined Query:"
)

// Completer is the chat capability the reformulator needs.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Reformulator derives search queries with one chat call each. No caching, no retry.
type Reformulator struct {
	chat Completer
}

func NewReformulator(chat Completer) *Reformulator {
	return &Reformulator{chat: chat}
}

// ExtractPrimaryKeyword returns a single keyword for the news search provider.
func (r *Reformulator) ExtractPrimaryKeyword(ctx context.Context, question string) (string, error) {
	keyword, err := r.chat.Complete(ctx, "", render(keywordTemplate, question))
	if err != nil {
		return "", fmt.Errorf("extract keyword: %w", err)
	}
	return strings.TrimSpace(keyword), nil
}

// RefineForFallbackSearch rewrites the question as a web search query.
func (r *Reformulator) RefineForFallbackSearch(ctx context.Context, question string) (string, error) {
	refined, err := r.chat.Complete(ctx, "", render(refineTemplate, question))
	if err != nil {
		return "", fmt.Errorf("refine query: %w", err)
	}
	return strings.TrimSpace(refined), nil
}

func render(template, question string) string {
	return strings.ReplaceAll(template, "{question}", question)
}
