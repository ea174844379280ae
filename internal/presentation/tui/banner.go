package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ratmaze banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"            _                                 ", "#a3e635"},
		{"  _ __ __ _| |_ _ __ ___   __ _ _______       ", "#4ade80"},
		{" | '__/ _` | __| '_ ` _ \\ / _` |_  / _ \\    ", "#34d399"},
		{" | | | (_| | |_| | | | | | (_| |/ /  __/      ", "#2dd4bf"},
		{" |_|  \\__,_|\\__|_| |_| |_|\\__,_/___\\___|  ", "#22d3ee"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
