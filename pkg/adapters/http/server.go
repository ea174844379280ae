package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/ratmaze"
	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/aretw0/ratmaze/pkg/pacing"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// Engine defines the maze operations the HTTP adapter exposes.
type Engine interface {
	Grid() *domain.Grid
	Running() bool
	ActiveRun() *ratmaze.Run
	LastOutcome() (domain.Outcome, bool)
	ConfigureGrid(rows, cols int, wallMask [][]bool) error
	ToggleWall(r, c int) error
	RandomizeWalls(density float64) error
	Reset() error
	StartRun(ctx context.Context, speedLevel int) (*ratmaze.Run, error)
	CancelRun() error
}

// Server serves the maze API.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	buffer  int
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStreamBuffer sets how many messages a slow SSE client may lag behind.
func WithStreamBuffer(n int) Option {
	return func(s *Server) {
		s.buffer = n
	}
}

// RunInfo is the JSON view of a run.
type RunInfo struct {
	ID        string `json:"id"`
	Speed     int    `json:"speed"`
	DelayMS   int64  `json:"delay_ms"`
	Delivered int    `json:"delivered"`
}

type gridState struct {
	Rows    int      `json:"rows"`
	Cols    int      `json:"cols"`
	Walls   [][]bool `json:"walls"`
	Running bool     `json:"running"`
}

type outcomeResponse struct {
	domain.Outcome
	Message string `json:"message"`
}

// NewServer creates a Server for engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine: engine,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		buffer: 256,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.buffer, s.logger)
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Route("/grid", func(r chi.Router) {
		r.Get("/", s.GetGrid)
		r.Put("/", s.ConfigureGrid)
		r.Post("/cells/{row}/{col}/toggle", s.ToggleWall)
		r.Post("/randomize", s.RandomizeWalls)
		r.Post("/reset", s.ResetGrid)
	})
	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.StartRun)
		r.Get("/active", s.GetActiveRun)
		r.Delete("/active", s.CancelRun)
		r.Get("/last", s.GetLastOutcome)
	})
	r.Get("/events", s.SubscribeEvents)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "ratmaze-http",
		"version":     strings.TrimSpace(ratmaze.Version),
		"api_version": apiVersion,
	})
}

// GetGrid handles the GET /grid request.
func (s *Server) GetGrid(w http.ResponseWriter, r *http.Request) {
	g := s.Engine.Grid()
	s.writeJSON(w, http.StatusOK, gridState{
		Rows:    g.Rows(),
		Cols:    g.Cols(),
		Walls:   g.Walls(),
		Running: s.Engine.Running(),
	})
}

// ConfigureGrid handles the PUT /grid request.
func (s *Server) ConfigureGrid(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rows  int      `json:"rows"`
		Cols  int      `json:"cols"`
		Walls [][]bool `json:"walls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := domain.CheckCellLimit(body.Rows, body.Cols, domain.MaxServedCells); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Engine.ConfigureGrid(body.Rows, body.Cols, body.Walls); err != nil {
		s.writeError(w, err)
		return
	}
	s.GetGrid(w, r)
}

// ToggleWall handles the POST /grid/cells/{row}/{col}/toggle request.
func (s *Server) ToggleWall(w http.ResponseWriter, r *http.Request) {
	var row, col int
	if err := bindPath("row", chi.URLParam(r, "row"), &row); err != nil {
		s.writeError(w, err)
		return
	}
	if err := bindPath("col", chi.URLParam(r, "col"), &col); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Engine.ToggleWall(row, col); err != nil {
		s.writeError(w, err)
		return
	}
	s.GetGrid(w, r)
}

// RandomizeWalls handles the POST /grid/randomize request.
func (s *Server) RandomizeWalls(w http.ResponseWriter, r *http.Request) {
	density := domain.DefaultDensity
	if err := bindQuery(r, "density", &density); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Engine.RandomizeWalls(density); err != nil {
		s.writeError(w, err)
		return
	}
	s.GetGrid(w, r)
}

// ResetGrid handles the POST /grid/reset request.
func (s *Server) ResetGrid(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Reset(); err != nil {
		s.writeError(w, err)
		return
	}
	s.GetGrid(w, r)
}

// StartRun handles the POST /runs request. The run keeps going after the response;
// its events are published on /events.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	speed := pacing.DefaultSpeed
	if err := bindQuery(r, "speed", &speed); err != nil {
		s.writeError(w, err)
		return
	}

	run, err := s.Engine.StartRun(r.Context(), speed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("run started via HTTP", "run_id", run.ID(), "speed", speed)

	go s.publish(run)

	s.writeJSON(w, http.StatusAccepted, runInfo(run))
}

// GetActiveRun handles the GET /runs/active request.
func (s *Server) GetActiveRun(w http.ResponseWriter, r *http.Request) {
	run := s.Engine.ActiveRun()
	if run == nil {
		s.writeError(w, domain.ErrNoActiveRun)
		return
	}
	s.writeJSON(w, http.StatusOK, runInfo(run))
}

// CancelRun handles the DELETE /runs/active request.
func (s *Server) CancelRun(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.CancelRun(); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// GetLastOutcome handles the GET /runs/last request.
func (s *Server) GetLastOutcome(w http.ResponseWriter, r *http.Request) {
	out, ok := s.Engine.LastOutcome()
	if !ok {
		s.writeError(w, fmt.Errorf("%w: no finished run", errNotFound))
		return
	}
	s.writeJSON(w, http.StatusOK, outcomeResponse{Outcome: out, Message: out.Message()})
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	topic := AllRuns
	if err := bindQuery(r, "run_id", &topic); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()
	s.logger.Info("SSE: client subscribed", "run_id", topic)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}

// publish drains run into the stream manager. Draining keeps the run moving even
// when nobody is subscribed.
func (s *Server) publish(run *ratmaze.Run) {
	s.broadcast(run.ID(), "start", runInfo(run))
	for ev := range run.Events() {
		s.broadcast(run.ID(), "step", ev)
	}
	<-run.Done()
	out, _ := run.Outcome()
	s.broadcast(run.ID(), "outcome", outcomeResponse{Outcome: out, Message: out.Message()})
}

func (s *Server) broadcast(runID, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode event", "run_id", runID, "event", event, "err", err)
		return
	}
	s.Streams.Broadcast(runID, Message{Event: event, Data: data})
}

func runInfo(run *ratmaze.Run) RunInfo {
	return RunInfo{
		ID:        run.ID(),
		Speed:     run.Speed(),
		DelayMS:   run.Delay().Milliseconds(),
		Delivered: run.Delivered(),
	}
}

// -- Helpers --

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

func bindQuery(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func bindPath(name, value string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, value, dest, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrInvalidDimensions),
		errors.Is(err, domain.ErrInvalidWallMask),
		errors.Is(err, domain.ErrOutOfBounds),
		errors.Is(err, domain.ErrInvalidSpeed),
		errors.Is(err, domain.ErrInvalidDensity):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRunAlreadyActive),
		errors.Is(err, domain.ErrEditWhileRunning):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoActiveRun), errors.Is(err, errNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// ListenAndServe serves h on addr until ctx is done, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with ctx so open SSE streams do not block shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
