package runner_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/ratmaze"
	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/aretw0/ratmaze/pkg/pacing"
	"github.com/aretw0/ratmaze/pkg/pacing/pacingtest"
	"github.com/aretw0/ratmaze/pkg/runner"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, sleeper pacing.Sleeper, lines ...string) *ratmaze.Engine {
	t.Helper()
	g, err := domain.ParseGrid(lines)
	require.NoError(t, err)
	eng, err := ratmaze.New(ratmaze.WithGrid(g), ratmaze.WithSleeper(sleeper))
	require.NoError(t, err)
	return eng
}

// blockingSleeper parks the run on its first pause until the run is cancelled.
type blockingSleeper struct {
	once   sync.Once
	parked chan struct{}
}

func newBlockingSleeper() *blockingSleeper {
	return &blockingSleeper{parked: make(chan struct{})}
}

func (s *blockingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.once.Do(func() { close(s.parked) })
	<-ctx.Done()
	return ctx.Err()
}

type recordingHandler struct {
	events []domain.StepEvent
	failAt int
	out    *domain.Outcome
}

func (h *recordingHandler) Start(ctx context.Context, info runner.RunInfo) error { return nil }

func (h *recordingHandler) Event(ctx context.Context, ev domain.StepEvent) error {
	h.events = append(h.events, ev)
	if h.failAt > 0 && ev.Seq == h.failAt {
		return errors.New("broken pipe")
	}
	return nil
}

func (h *recordingHandler) Finish(ctx context.Context, outcome domain.Outcome) error {
	h.out = &outcome
	return nil
}

func TestRunner_TextHandler(t *testing.T) {
	eng := newEngine(t, &pacingtest.Sleeper{}, "..", "..")
	var buf bytes.Buffer
	r := runner.New(runner.WithHandler(runner.NewTextHandler(&buf, runner.WithProfile(termenv.Ascii))))

	outcome, err := r.Run(context.Background(), eng, pacing.MaxSpeed)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomePathFound, outcome.Status)

	out := buf.String()
	assert.Contains(t, out, "2x2 grid, speed 10")
	assert.Contains(t, out, "   1 entered     (0,0)\n")
	assert.Contains(t, out, "   6 found       (1,1)\n")
	assert.Contains(t, out, "* .\n* @\n")
	assert.True(t, strings.HasSuffix(out, "Path found!\n"))
}

func TestRunner_TextHandlerMarksProbes(t *testing.T) {
	eng := newEngine(t, &pacingtest.Sleeper{}, ".#", "#.")
	var buf bytes.Buffer
	r := runner.New(runner.WithHandler(runner.NewTextHandler(&buf, runner.WithProfile(termenv.Ascii))))

	outcome, err := r.Run(context.Background(), eng, pacing.MaxSpeed)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNoPath, outcome.Status)

	out := buf.String()
	assert.Contains(t, out, "   2 entered     (1,0) (probe)\n")
	assert.Contains(t, out, "  11 exhausted   (0,0)\n")
	assert.True(t, strings.HasSuffix(out, "No path found.\n"))
}

func TestRunner_TextHandlerRenderer(t *testing.T) {
	eng := newEngine(t, &pacingtest.Sleeper{}, "..", "..")
	var buf bytes.Buffer
	var rendered string
	h := runner.NewTextHandler(&buf,
		runner.WithProfile(termenv.Ascii),
		runner.WithTextHandlerRenderer(func(md string) (string, error) {
			rendered = md
			return "SUMMARY", nil
		}),
	)

	_, err := runner.New(runner.WithHandler(h)).Run(context.Background(), eng, pacing.MaxSpeed)
	require.NoError(t, err)
	assert.Contains(t, rendered, "# Path found!")
	assert.True(t, strings.HasSuffix(buf.String(), "SUMMARY\n"))
}

func TestRunner_JSONHandler(t *testing.T) {
	eng := newEngine(t, &pacingtest.Sleeper{}, "..", "..")
	var buf bytes.Buffer
	r := runner.New(runner.WithHandler(runner.NewJSONHandler(&buf)))

	_, err := r.Run(context.Background(), eng, 7)
	require.NoError(t, err)

	var records []runner.Record
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var rec runner.Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec), sc.Text())
		records = append(records, rec)
	}
	require.Len(t, records, 8)

	assert.Equal(t, runner.RecordStart, records[0].Type)
	require.NotNil(t, records[0].Run)
	assert.Equal(t, 7, records[0].Run.Speed)
	assert.Equal(t, 2, records[0].Run.Grid.Rows())

	for i, rec := range records[1:7] {
		assert.Equal(t, runner.RecordEvent, rec.Type)
		require.NotNil(t, rec.Event)
		assert.Equal(t, i+1, rec.Event.Seq)
	}
	assert.Equal(t, domain.EventFound, records[6].Event.Kind)

	last := records[7]
	assert.Equal(t, runner.RecordOutcome, last.Type)
	assert.Equal(t, "Path found!", last.Message)
	require.NotNil(t, last.Outcome)
	assert.Len(t, last.Outcome.Path, 3)
}

func TestRunner_Interrupts(t *testing.T) {
	tests := []struct {
		name  string
		setup func(sleeper *blockingSleeper) (context.Context, []runner.Option)
	}{
		{
			name: "interrupt source",
			setup: func(sleeper *blockingSleeper) (context.Context, []runner.Option) {
				ch := make(chan struct{})
				go func() {
					<-sleeper.parked
					close(ch)
				}()
				return context.Background(), []runner.Option{runner.WithInterruptSource(ch)}
			},
		},
		{
			name: "context",
			setup: func(sleeper *blockingSleeper) (context.Context, []runner.Option) {
				ctx, cancel := context.WithCancel(context.Background())
				go func() {
					<-sleeper.parked
					cancel()
				}()
				return ctx, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleeper := newBlockingSleeper()
			eng := newEngine(t, sleeper, "...", "...", "...")
			h := &recordingHandler{}
			ctx, opts := tt.setup(sleeper)

			r := runner.New(append(opts, runner.WithHandler(h))...)
			outcome, err := r.Run(ctx, eng, 3)

			assert.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, domain.OutcomeCancelled, outcome.Status)
			require.Len(t, h.events, 1)
			assert.Equal(t, domain.EventEntered, h.events[0].Kind)
			require.NotNil(t, h.out, "a cancelled run is still reported")
			assert.Equal(t, domain.OutcomeCancelled, h.out.Status)
			assert.False(t, eng.Running())
		})
	}
}

func TestRunner_HandlerErrorCancelsRun(t *testing.T) {
	eng := newEngine(t, &pacingtest.Sleeper{}, "....", "....", "....", "....")
	h := &recordingHandler{failAt: 3}

	outcome, err := runner.New(runner.WithHandler(h)).Run(context.Background(), eng, pacing.MaxSpeed)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
	assert.Equal(t, domain.OutcomeCancelled, outcome.Status)
	assert.Len(t, h.events, 3)
	assert.Nil(t, h.out)
	assert.False(t, eng.Running())
}

func TestRunner_StartRunError(t *testing.T) {
	eng := newEngine(t, &pacingtest.Sleeper{}, "..", "..")
	_, err := runner.New(runner.WithHandler(&recordingHandler{})).Run(context.Background(), eng, 42)
	assert.ErrorIs(t, err, domain.ErrInvalidSpeed)
}
