// Package llm wraps chat completion against an OpenAI-compatible endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
)

// DefaultChatModel is the Upstage chat model.
const DefaultChatModel = "solar-mini"

// ErrEmptyCompletion is returned when the provider answers with no choices.
var ErrEmptyCompletion = errors.New("chat completion returned no choices")

// Chat issues single-turn chat completions.
type Chat struct {
	client *openai.Client
	model  string
}

// NewChat creates a Chat using the given client and model.
func NewChat(client *openai.Client, model string) *Chat {
	if model == "" {
		model = DefaultChatModel
	}
	return &Chat{client: client, model: model}
}

// Complete sends an optional system message and one user message and
// returns the trimmed text of the first choice.
func (c *Chat) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    c.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
