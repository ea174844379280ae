package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/ratmaze/internal/presentation/tui"
	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/muesli/termenv"
)

// TextHandler prints a run for humans. In animated mode it redraws the board in place
// after every event; otherwise it prints one line per event and the board at the end.
type TextHandler struct {
	Writer   io.Writer
	Renderer ContentRenderer
	Animate  bool
	Profile  termenv.Profile

	out   *termenv.Output
	board *tui.Board
	grid  *domain.Grid
	drawn bool
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the markdown renderer for the summary.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithAnimation redraws the board after every event. Only useful on a terminal.
func WithAnimation(enabled bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.Animate = enabled
	}
}

// WithProfile forces a colour profile, e.g. termenv.Ascii for plain text.
func WithProfile(p termenv.Profile) TextHandlerOption {
	return func(h *TextHandler) {
		h.Profile = p
	}
}

// NewTextHandler creates a handler writing to w (Stdout when nil).
// The colour profile is detected from w unless WithProfile is given.
func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if w == nil {
		w = os.Stdout
	}
	out := termenv.NewOutput(w)
	h := &TextHandler{
		Writer:  w,
		Profile: out.EnvColorProfile(),
		out:     out,
	}

	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Start(ctx context.Context, info RunInfo) error {
	h.grid = info.Grid
	h.board = tui.NewBoard(info.Grid)
	h.drawn = false

	_, err := fmt.Fprintf(h.Writer, "Run %s: %dx%d grid, speed %d\n",
		info.ID, info.Grid.Rows(), info.Grid.Cols(), info.Speed)
	if err != nil {
		return err
	}
	if h.Animate {
		return h.draw()
	}
	return nil
}

func (h *TextHandler) Event(ctx context.Context, ev domain.StepEvent) error {
	h.board.Apply(ev)
	if h.Animate {
		return h.draw()
	}

	line := fmt.Sprintf("%4d %-11s %s", ev.Seq, ev.Kind, ev.Pos)
	if !ev.Safe && !ev.Kind.Terminal() {
		line += " (probe)"
	}
	_, err := fmt.Fprintln(h.Writer, line)
	return err
}

func (h *TextHandler) Finish(ctx context.Context, outcome domain.Outcome) error {
	if !h.Animate {
		if err := h.draw(); err != nil {
			return err
		}
	}

	if h.Renderer != nil {
		rendered, err := h.Renderer(tui.Summary(outcome, h.grid))
		if err == nil {
			_, err = fmt.Fprintln(h.Writer, strings.TrimSpace(rendered))
			return err
		}
	}
	_, err := fmt.Fprintln(h.Writer, outcome.Message())
	return err
}

// draw prints the board, overwriting the previous frame in animated mode.
func (h *TextHandler) draw() error {
	if h.Animate && h.drawn {
		h.out.CursorPrevLine(h.grid.Rows())
	}
	h.drawn = true
	_, err := io.WriteString(h.Writer, h.board.Render(h.Profile))
	return err
}
