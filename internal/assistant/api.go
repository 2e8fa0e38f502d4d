// Package assistant runs questions through a stateful assistant thread.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrMissingAPIKey is returned when no OpenAI key is supplied.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is required")

// Run is the subset of a remote run the manager inspects.
type Run struct {
	ID        string
	Status    string
	LastError string
}

// API is the remote assistant service.
type API interface {
	CreateAssistant(ctx context.Context, name, model, instructions string) (string, error)
	DeleteAssistant(ctx context.Context, assistantID string) error
	CreateThread(ctx context.Context, message string) (string, error)
	AddMessage(ctx context.Context, threadID, message string) error
	CreateRun(ctx context.Context, threadID, assistantID string) (Run, error)
	GetRun(ctx context.Context, threadID, runID string) (Run, error)
	CancelRun(ctx context.Context, threadID, runID string) error
	// LatestAssistantReply returns the newest assistant text that runID
	// added to the thread, or false when there is none.
	LatestAssistantReply(ctx context.Context, threadID, runID string) (string, bool, error)
}

// messagePageSize bounds how far back LatestAssistantReply looks.
const messagePageSize = 20

// OpenAIAPI implements API on the OpenAI Assistants endpoints.
type OpenAIAPI struct {
	client openai.Client
}

// NewOpenAIAPI creates an OpenAI-backed API. Requests are never retried.
func NewOpenAIAPI(apiKey string, opts ...option.RequestOption) (*OpenAIAPI, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	client := openai.NewClient(append(base, opts...)...)
	return &OpenAIAPI{client: client}, nil
}

func (a *OpenAIAPI) CreateAssistant(ctx context.Context, name, model, instructions string) (string, error) {
	resp, err := a.client.Beta.Assistants.New(ctx, openai.BetaAssistantNewParams{
		Model:        model,
		Name:         openai.String(name),
		Instructions: openai.String(instructions),
	})
	if err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}
	return resp.ID, nil
}

func (a *OpenAIAPI) DeleteAssistant(ctx context.Context, assistantID string) error {
	if _, err := a.client.Beta.Assistants.Delete(ctx, assistantID); err != nil {
		return fmt.Errorf("delete assistant: %w", err)
	}
	return nil
}

func (a *OpenAIAPI) CreateThread(ctx context.Context, message string) (string, error) {
	resp, err := a.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{
		Messages: []openai.BetaThreadNewParamsMessage{{
			Role: "user",
			Content: openai.BetaThreadNewParamsMessageContentUnion{
				OfString: openai.String(message),
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return resp.ID, nil
}

func (a *OpenAIAPI) AddMessage(ctx context.Context, threadID, message string) error {
	_, err := a.client.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(message),
		},
	})
	if err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

func (a *OpenAIAPI) CreateRun(ctx context.Context, threadID, assistantID string) (Run, error) {
	resp, err := a.client.Beta.Threads.Runs.New(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: assistantID,
	})
	if err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	return toRun(resp), nil
}

func (a *OpenAIAPI) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	resp, err := a.client.Beta.Threads.Runs.Get(ctx, threadID, runID)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return toRun(resp), nil
}

func (a *OpenAIAPI) CancelRun(ctx context.Context, threadID, runID string) error {
	if _, err := a.client.Beta.Threads.Runs.Cancel(ctx, threadID, runID); err != nil {
		return fmt.Errorf("cancel run: %w", err)
	}
	return nil
}

func (a *OpenAIAPI) LatestAssistantReply(ctx context.Context, threadID, runID string) (string, bool, error) {
	page, err := a.client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderDesc,
		Limit: openai.Int(messagePageSize),
		RunID: openai.String(runID),
	})
	if err != nil {
		return "", false, fmt.Errorf("list messages: %w", err)
	}

	for _, msg := range page.Data {
		if msg.Role != openai.MessageRoleAssistant {
			continue
		}
		for _, content := range msg.Content {
			if content.Type == "text" {
				return content.Text.Value, true, nil
			}
		}
	}
	return "", false, nil
}

func toRun(r *openai.Run) Run {
	run := Run{ID: r.ID, Status: string(r.Status)}
	if r.LastError.Message != "" {
		run.LastError = fmt.Sprintf("%s: %s", r.LastError.Code, r.LastError.Message)
	}
	return run
}
