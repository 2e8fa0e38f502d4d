package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bull/news-rag-server/internal/assistant"
	"github.com/bull/news-rag-server/internal/rag"
	"github.com/bull/news-rag-server/internal/search"
)

// NewsService is the pipeline behind the endpoints.
type NewsService interface {
	Chat(ctx context.Context, question string) (rag.ChatResult, error)
	Assistant(ctx context.Context, question, threadID string) (rag.AssistantResult, error)
}

// Handler serves /chat and /assistant.
type Handler struct {
	service NewsService
	logger  *slog.Logger
}

// NewHandler creates the endpoint handler.
func NewHandler(service NewsService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Chat handles POST /chat.
func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
	}

	result, err := h.service.Chat(c.Request().Context(), message)
	if err != nil {
		return h.fail(c, "chat", err)
	}
	if !result.Found {
		return c.JSON(http.StatusOK, noResults(result.Reply))
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Reply:   result.Reply,
		Source:  string(result.Source),
		Results: nonNil(result.Results),
		Type:    "chat",
	})
}

// Assistant handles POST /assistant.
func (h *Handler) Assistant(c echo.Context) error {
	var req AssistantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
	}

	result, err := h.service.Assistant(c.Request().Context(), message, strings.TrimSpace(req.ThreadID))
	if err != nil {
		return h.fail(c, "assistant", err)
	}
	if !result.Found {
		return c.JSON(http.StatusOK, noResults(result.Reply))
	}

	return c.JSON(http.StatusOK, AssistantResponse{
		Results: nonNil(result.Results),
		Summary: Summary{
			Reply:    result.Summary.Reply,
			ThreadID: result.Summary.ThreadID,
		},
		Type: "assistant",
	})
}

// fail logs the pipeline error and maps it to a status. Upstream details
// stay in the log because they can carry provider URLs and keys.
func (h *Handler) fail(c echo.Context, endpoint string, err error) error {
	ctx := c.Request().Context()
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)

	status := http.StatusBadGateway
	message := "upstream service failed"
	if errors.Is(err, assistant.ErrRunTimeout) {
		status = http.StatusGatewayTimeout
		message = "assistant run timed out"
	}

	h.logger.ErrorContext(ctx, "Request failed",
		"endpoint", endpoint,
		"status", status,
		"request_id", requestID,
		"error", err,
	)
	return c.JSON(status, ErrorResponse{Error: message})
}

func noResults(reply string) NoResultsResponse {
	if reply == "" {
		reply = rag.NoResultsReply
	}
	return NoResultsResponse{Reply: reply, Source: string(search.SourceNone)}
}

func nonNil(results []search.SearchResult) []search.SearchResult {
	if results == nil {
		return []search.SearchResult{}
	}
	return results
}
