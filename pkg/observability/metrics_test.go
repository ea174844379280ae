package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/ratmaze"
	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/aretw0/ratmaze/pkg/observability"
	"github.com/aretw0/ratmaze/pkg/pacing"
	"github.com/aretw0/ratmaze/pkg/pacing/pacingtest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsRun(t *testing.T) {
	metrics := observability.NewMetrics()
	g, err := domain.ParseGrid([]string{".#", "#."})
	require.NoError(t, err)

	eng, err := ratmaze.New(
		ratmaze.WithGrid(g),
		ratmaze.WithSleeper(&pacingtest.Sleeper{}),
		ratmaze.WithLifecycleHooks(metrics.Hooks()),
	)
	require.NoError(t, err)

	run, err := eng.StartRun(context.Background(), pacing.MaxSpeed)
	require.NoError(t, err)
	_, err = run.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunsFinished.WithLabelValues("no_path")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ActiveRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Steps.WithLabelValues("entered", "true")))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.Steps.WithLabelValues("entered", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Steps.WithLabelValues("backtracked", "true")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.RunDuration))
}

func TestMetrics_Handler(t *testing.T) {
	metrics := observability.NewMetrics()
	hooks := metrics.Hooks()
	hooks.OnRunStart(context.Background(), &domain.RunEvent{RunID: "r1", Timestamp: time.Now()})

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "ratmaze_runs_started_total 1")
	assert.Contains(t, rec.Body.String(), "ratmaze_active_runs 1")
}

func TestChain_RunsInOrder(t *testing.T) {
	var calls []string
	first := domain.LifecycleHooks{
		OnEnter: func(context.Context, *domain.StepEvent) { calls = append(calls, "first") },
	}
	second := domain.LifecycleHooks{
		OnEnter:  func(context.Context, *domain.StepEvent) { calls = append(calls, "second") },
		OnRunEnd: func(context.Context, *domain.RunEvent) { calls = append(calls, "end") },
	}

	hooks := observability.Chain(first, domain.LifecycleHooks{}, second)
	hooks.OnEnter(context.Background(), &domain.StepEvent{})
	hooks.OnRunEnd(context.Background(), &domain.RunEvent{})

	assert.Equal(t, []string{"first", "second", "end"}, calls)
	assert.Nil(t, hooks.OnBacktrack)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LoggingHooks(logger)

	hooks.OnRunStart(context.Background(), &domain.RunEvent{RunID: "r1", Rows: 2, Cols: 2, Speed: 3})
	hooks.OnEnter(context.Background(), &domain.StepEvent{Kind: domain.EventEntered, Pos: domain.Pos{Row: 1}, Safe: true})
	hooks.OnRunEnd(context.Background(), &domain.RunEvent{RunID: "r1", Outcome: &domain.Outcome{Status: domain.OutcomePathFound, Steps: 4}})

	out := buf.String()
	assert.Contains(t, out, "msg=run_start run_id=r1")
	assert.Contains(t, out, "msg=cell_enter pos=(1,0) safe=true")
	assert.Contains(t, out, "status=path_found steps=4")
}
