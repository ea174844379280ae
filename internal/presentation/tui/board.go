package tui

import (
	"strings"

	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/muesli/termenv"
)

// Board glyphs.
const (
	GlyphRat     = '@'
	GlyphGoal    = '$'
	GlyphPath    = '*'
	GlyphDeadEnd = 'x'
)

// Board replays step events onto a grid so it can be drawn at any point of a run.
type Board struct {
	grid    *domain.Grid
	path    domain.Path
	final   []domain.Pos
	rat     domain.Pos
	visited *domain.VisitedSet
}

// NewBoard starts with the rat on the start cell.
func NewBoard(g *domain.Grid) *Board {
	return &Board{
		grid:    g,
		rat:     g.Start(),
		visited: domain.NewVisitedSet(g.Rows(), g.Cols()),
	}
}

// Rat returns the position of the most recent probe.
func (b *Board) Rat() domain.Pos { return b.rat }

// Apply folds ev into the board.
func (b *Board) Apply(ev domain.StepEvent) {
	switch ev.Kind {
	case domain.EventEntered:
		b.path.Push(ev.Pos)
		b.rat = ev.Pos
		if ev.Safe {
			b.visited.Mark(ev.Pos)
		}
	case domain.EventBacktracked:
		b.path.Pop()
		b.rat = ev.Pos
	case domain.EventFound:
		b.final = ev.Path
		b.rat = ev.Pos
	case domain.EventExhausted:
		b.path = domain.Path{}
		b.rat = ev.Pos
	}
}

// Render draws the board, one line per row. The Ascii profile yields plain text.
func (b *Board) Render(p termenv.Profile) string {
	onPath := make(map[domain.Pos]bool)
	route := b.final
	if route == nil {
		route = b.path.Snapshot()
	}
	for _, pos := range route {
		onPath[pos] = true
	}

	var (
		wall    = p.String(string(domain.WallGlyph)).Foreground(p.Color("#6b7280"))
		open    = p.String(string(domain.OpenGlyph)).Faint()
		rat     = p.String(string(GlyphRat)).Foreground(p.Color("#facc15")).Bold()
		goal    = p.String(string(GlyphGoal)).Foreground(p.Color("#22c55e")).Bold()
		path    = p.String(string(GlyphPath)).Foreground(p.Color("#38bdf8"))
		deadEnd = p.String(string(GlyphDeadEnd)).Foreground(p.Color("#f87171"))
	)

	var sb strings.Builder
	for r := 0; r < b.grid.Rows(); r++ {
		for c := 0; c < b.grid.Cols(); c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			pos := domain.Pos{Row: r, Col: c}
			switch {
			case pos == b.rat:
				sb.WriteString(rat.String())
			case pos == b.grid.Goal():
				sb.WriteString(goal.String())
			case !b.grid.IsOpen(r, c):
				sb.WriteString(wall.String())
			case onPath[pos]:
				sb.WriteString(path.String())
			case b.visited.Has(pos):
				sb.WriteString(deadEnd.String())
			default:
				sb.WriteString(open.String())
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
