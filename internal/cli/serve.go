package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	httpadapter "github.com/aretw0/ratmaze/pkg/adapters/http"
	mcpadapter "github.com/aretw0/ratmaze/pkg/adapters/mcp"
	"github.com/aretw0/ratmaze/pkg/config"
	"github.com/aretw0/ratmaze/pkg/observability"
)

// Serve runs the HTTP API until ctx is done.
func Serve(ctx context.Context, cfg config.Config, stderr io.Writer) error {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger, err := createLogger(stderr, cfg.Log)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	engine, closeEngine, err := createEngine(ctx, cfg, logger,
		observability.Chain(metrics.Hooks(), observability.LoggingHooks(logger)))
	if err != nil {
		return err
	}
	defer closeEngine()

	handler := httpadapter.NewHandler(engine,
		httpadapter.WithLogger(logger),
		httpadapter.WithMetricsHandler(metrics.Handler()),
	)
	return httpadapter.ListenAndServe(ctx, cfg.HTTP.Addr, handler, logger)
}

// ServeMCP runs the MCP server on stdio, or on SSE when port is set.
// Logs go to stderr: stdout carries the protocol.
func ServeMCP(ctx context.Context, cfg config.Config, port int, stderr io.Writer) error {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger, err := createLogger(stderr, cfg.Log)
	if err != nil {
		return err
	}

	engine, closeEngine, err := createEngine(ctx, cfg, logger, observability.LoggingHooks(logger))
	if err != nil {
		return err
	}
	defer closeEngine()

	srv := mcpadapter.NewServer(engine, mcpadapter.WithLogger(logger))
	if port > 0 {
		return srv.ServeSSE(ctx, port)
	}
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
