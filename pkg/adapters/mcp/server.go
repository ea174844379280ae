package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/ratmaze"
	"github.com/aretw0/ratmaze/internal/presentation/tui"
	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/aretw0/ratmaze/pkg/pacing"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/muesli/termenv"
)

// GridURI is the resource exposing the current grid.
const GridURI = "ratmaze://grid"

// GridResponse is the structured result of the grid tools.
type GridResponse struct {
	Rows    int      `json:"rows" jsonschema_description:"Number of rows"`
	Cols    int      `json:"cols" jsonschema_description:"Number of columns"`
	Walls   []string `json:"walls" jsonschema_description:"One string per row, '#' for walls and '.' for open cells"`
	Running bool     `json:"running" jsonschema_description:"Whether a search is in progress"`
}

// SolveResponse is the structured result of the solve tool.
type SolveResponse struct {
	RunID   string         `json:"run_id" jsonschema_description:"Identifier of the run"`
	Outcome domain.Outcome `json:"outcome" jsonschema_description:"Status, path and counters of the run"`
	Message string         `json:"message" jsonschema_description:"Human readable result"`
	Board   string         `json:"board" jsonschema_description:"Final board: @ rat, * path, x dead end, # wall, $ goal"`
}

// Engine defines the maze operations exposed as MCP tools.
type Engine interface {
	Grid() *domain.Grid
	Running() bool
	ConfigureGrid(rows, cols int, wallMask [][]bool) error
	ToggleWall(r, c int) error
	RandomizeWalls(density float64) error
	Reset() error
	StartRun(ctx context.Context, speedLevel int) (*ratmaze.Run, error)
	CancelRun() error
}

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger. Never log to Stdout in stdio mode.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("ratmaze-mcp", strings.TrimSpace(ratmaze.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_grid",
		mcp.WithDescription("Show the current maze. The rat starts top-left and the goal is bottom-right."),
		mcp.WithOutputSchema[GridResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetGrid))

	s.mcpServer.AddTool(mcp.NewTool("configure_grid",
		mcp.WithDescription("Replace the maze. Rejected while a search is running."),
		mcp.WithNumber("rows", mcp.Required(), mcp.Description("Number of rows (at least 2)")),
		mcp.WithNumber("cols", mcp.Required(), mcp.Description("Number of columns (at least 2)")),
		mcp.WithString("walls", mcp.Description("Optional layout, one line per row, '#' for a wall")),
		mcp.WithOutputSchema[GridResponse](),
	), mcp.NewStructuredToolHandler(s.handleConfigureGrid))

	s.mcpServer.AddTool(mcp.NewTool("toggle_wall",
		mcp.WithDescription("Flip one cell between wall and open. Rejected while a search is running."),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Zero-based row")),
		mcp.WithNumber("col", mcp.Required(), mcp.Description("Zero-based column")),
		mcp.WithOutputSchema[GridResponse](),
	), mcp.NewStructuredToolHandler(s.handleToggleWall))

	s.mcpServer.AddTool(mcp.NewTool("randomize_walls",
		mcp.WithDescription("Add random walls, keeping start and goal open."),
		mcp.WithNumber("density", mcp.Description("Probability of a wall per cell, 0-1 (default 0.3)")),
		mcp.WithOutputSchema[GridResponse](),
	), mcp.NewStructuredToolHandler(s.handleRandomizeWalls))

	s.mcpServer.AddTool(mcp.NewTool("reset_grid",
		mcp.WithDescription("Remove every wall."),
		mcp.WithOutputSchema[GridResponse](),
	), mcp.NewStructuredToolHandler(s.handleResetGrid))

	s.mcpServer.AddTool(mcp.NewTool("solve",
		mcp.WithDescription("Run the backtracking search to completion and report the path, if any."),
		mcp.WithNumber("speed", mcp.Description("Speed level 1-10 (default 10, no delay)")),
		mcp.WithOutputSchema[SolveResponse](),
	), mcp.NewStructuredToolHandler(s.handleSolve))

	s.mcpServer.AddTool(mcp.NewTool("cancel_run",
		mcp.WithDescription("Cancel the search in progress."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := s.engine.CancelRun(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("cancellation requested"), nil
	})
}

func (s *Server) gridResponse() GridResponse {
	g := s.engine.Grid()
	return GridResponse{
		Rows:    g.Rows(),
		Cols:    g.Cols(),
		Walls:   strings.Split(strings.TrimSuffix(g.String(), "\n"), "\n"),
		Running: s.engine.Running(),
	}
}

func (s *Server) handleGetGrid(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GridResponse, error) {
	return s.gridResponse(), nil
}

func (s *Server) handleConfigureGrid(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GridResponse, error) {
	rows, err := intArg(args, "rows", 0)
	if err != nil {
		return GridResponse{}, err
	}
	cols, err := intArg(args, "cols", 0)
	if err != nil {
		return GridResponse{}, err
	}

	if err := domain.CheckCellLimit(rows, cols, domain.MaxServedCells); err != nil {
		return GridResponse{}, err
	}

	var mask [][]bool
	if layout, ok := args["walls"].(string); ok && strings.TrimSpace(layout) != "" {
		g, err := domain.ParseGrid(strings.Split(layout, "\n"))
		if err != nil {
			return GridResponse{}, err
		}
		mask = g.Walls()
	}

	if err := s.engine.ConfigureGrid(rows, cols, mask); err != nil {
		return GridResponse{}, fmt.Errorf("configure_grid failed: %w", err)
	}
	s.logger.Info("MCP: grid configured", "rows", rows, "cols", cols)
	return s.gridResponse(), nil
}

func (s *Server) handleToggleWall(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GridResponse, error) {
	row, err := intArg(args, "row", -1)
	if err != nil {
		return GridResponse{}, err
	}
	col, err := intArg(args, "col", -1)
	if err != nil {
		return GridResponse{}, err
	}
	if err := s.engine.ToggleWall(row, col); err != nil {
		return GridResponse{}, fmt.Errorf("toggle_wall failed: %w", err)
	}
	return s.gridResponse(), nil
}

func (s *Server) handleRandomizeWalls(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GridResponse, error) {
	density := domain.DefaultDensity
	if v, ok := args["density"].(float64); ok {
		density = v
	}
	if err := s.engine.RandomizeWalls(density); err != nil {
		return GridResponse{}, fmt.Errorf("randomize_walls failed: %w", err)
	}
	return s.gridResponse(), nil
}

func (s *Server) handleResetGrid(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GridResponse, error) {
	if err := s.engine.Reset(); err != nil {
		return GridResponse{}, fmt.Errorf("reset_grid failed: %w", err)
	}
	return s.gridResponse(), nil
}

// handleSolve runs a search and replays it on a board. Cancelling the tool call
// cancels the run.
func (s *Server) handleSolve(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SolveResponse, error) {
	speed, err := intArg(args, "speed", pacing.MaxSpeed)
	if err != nil {
		return SolveResponse{}, err
	}

	run, err := s.engine.StartRun(ctx, speed)
	if err != nil {
		return SolveResponse{}, fmt.Errorf("solve failed: %w", err)
	}
	stop := context.AfterFunc(ctx, run.Cancel)
	defer stop()

	board := tui.NewBoard(run.Grid())
	for ev := range run.Events() {
		board.Apply(ev)
	}
	<-run.Done()

	out, _ := run.Outcome()
	s.logger.Info("MCP: solve finished", "run_id", run.ID(), "status", out.Status, "steps", out.Steps)
	return SolveResponse{
		RunID:   run.ID(),
		Outcome: out,
		Message: out.Message(),
		Board:   board.Render(termenv.Ascii),
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GridURI, "Current Maze",
		mcp.WithResourceDescription("Rows, columns and wall mask of the maze"),
		mcp.WithMIMEType("application/json"),
	), s.readGrid)
}

func (s *Server) readGrid(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.engine.Grid())
	if err != nil {
		return nil, fmt.Errorf("failed to encode grid: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GridURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

// intArg reads a JSON number argument. A missing argument yields def.
func intArg(args map[string]interface{}, name string, def int) (int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("argument %q must be a number, got %T", name, v)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("argument %q must be an integer, got %v", name, f)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("argument %q out of range: %v", name, f)
	}
	return int(f), nil
}
