// Package main provides the news RAG server entry point.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bull/news-rag-server/internal/app"
	"github.com/bull/news-rag-server/internal/config"
	"github.com/bull/news-rag-server/internal/httpapi"
	"github.com/bull/news-rag-server/internal/logger"
	mcpserver "github.com/bull/news-rag-server/internal/mcp"
	"github.com/bull/news-rag-server/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// In stdio mode stdout carries the MCP protocol, so logs go to stderr.
	logOut := os.Stdout
	if !cfg.ServerMode {
		logOut = os.Stderr
	}
	logg := logger.NewWithWriter(logOut, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logg)

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.OTelEnabled,
		ServiceName: cfg.OTelServiceName,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		logg.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if err := shutdownTracing(sctx); err != nil {
			logg.Warn("tracing shutdown failed", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	application, err := app.Build(ctx, cfg, registry, logg)
	if err != nil {
		logg.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	server := mcpserver.NewServer(&mcpserver.Config{
		Service: application.Service,
	})

	e := httpapi.NewServer(httpapi.Options{
		Service:         application.Service,
		Health:          application.Health,
		MCP:             mcpserver.NewHTTPHandler(server, &mcpserver.HTTPHandlerOptions{Stateless: true}),
		Gatherer:        registry,
		OTelEnabled:     cfg.OTelEnabled,
		OTelServiceName: cfg.OTelServiceName,
		Logger:          logg,
	})

	addr := "0.0.0.0:" + cfg.Port
	go func() {
		logg.Info("Starting HTTP server", "addr", addr, "server_mode", cfg.ServerMode)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	if cfg.ServerMode {
		<-ctx.Done()
	} else {
		// Stdio mode: MCP over stdin/stdout for local clients, with the HTTP
		// routes still available for testing.
		logg.Info("Starting news MCP server (stdio mode)")
		if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error("MCP server error", "error", err)
		}
	}

	logg.Info("Shutting down")
	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	if err := e.Shutdown(sctx); err != nil {
		logg.Error("HTTP server shutdown failed", "error", err)
	}
}
