package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Summary describes a finished run as markdown.
func Summary(outcome domain.Outcome, g *domain.Grid) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", outcome.Message())
	sb.WriteString("| | |\n|---|---|\n")
	if g != nil {
		fmt.Fprintf(&sb, "| Grid | %dx%d |\n", g.Rows(), g.Cols())
		fmt.Fprintf(&sb, "| Walls | %d |\n", g.WallCount())
	}
	fmt.Fprintf(&sb, "| Steps | %d |\n", outcome.Steps)
	fmt.Fprintf(&sb, "| Cells visited | %d |\n", outcome.Visited)

	if len(outcome.Path) > 0 {
		fmt.Fprintf(&sb, "| Path length | %d |\n", len(outcome.Path))
		cells := make([]string, len(outcome.Path))
		for i, p := range outcome.Path {
			cells[i] = "`" + p.String() + "`"
		}
		fmt.Fprintf(&sb, "\n**Path:** %s\n", strings.Join(cells, " → "))
	}
	return sb.String()
}
