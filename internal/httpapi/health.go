package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthChecker is implemented by backends that can be unreachable, such as
// the Qdrant vector store.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// healthHandler answers {"status":"ok"} whenever the process is serving.
func healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// newReadyHandler reports whether the configured backend is reachable. An
// unreachable backend turns the reply into a 503.
func newReadyHandler(checker HealthChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		if checker == nil {
			return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
		}

		// Create context with 3-second timeout for health check
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		if err := checker.Health(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, StatusResponse{
				Status:      "unhealthy",
				VectorStore: "disconnected",
			})
		}
		return c.JSON(http.StatusOK, StatusResponse{Status: "ok", VectorStore: "connected"})
	}
}
