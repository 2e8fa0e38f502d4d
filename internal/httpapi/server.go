package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// AllowedOrigins are the CORS origins the web client is served from.
var AllowedOrigins = []string{
	"http://localhost",
	"https://ssafy-2024-ai.vercel.app",
	"*",
}

// Options configures the HTTP server.
type Options struct {
	Service NewsService
	// Health, if set, is probed by /ready.
	Health HealthChecker
	// MCP, if set, is mounted at /mcp.
	MCP http.Handler
	// Gatherer backs /metrics. Nil skips the route.
	Gatherer prometheus.Gatherer

	OTelEnabled     bool
	OTelServiceName string
	Logger          *slog.Logger
}

// NewServer creates and configures the Echo HTTP server.
func NewServer(opts Options) *echo.Echo {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if opts.OTelEnabled {
		e.Use(otelecho.Middleware(opts.OTelServiceName))
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" || path == "/" || path == "/ready" || path == "/metrics"
		},
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			logger.InfoContext(ctx, "HTTP request completed",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
				"error", v.Error)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
		// Browsers reject a literal "*" with credentials, so the request
		// origin is echoed back instead.
		UnsafeWildcardOriginWithAllowCredentials: true,
	}))

	handler := NewHandler(opts.Service, logger)
	e.POST("/chat", handler.Chat)
	e.POST("/assistant", handler.Assistant)

	e.GET("/health", healthHandler)
	e.GET("/", healthHandler)
	e.GET("/ready", newReadyHandler(opts.Health))

	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	if opts.MCP != nil {
		e.Any("/mcp", echo.WrapHandler(opts.MCP))
	}

	return e
}
