package tui

import (
	"fmt"
	"io"
)

// PrintBanner writes the yerf banner to w.
func PrintBanner(w io.Writer) {
	out := NewOutput(w)
	// Waterfall colors, top to bottom.
	lines := []struct {
		text, color string
	}{
		{" _   _  ___ _ __ / _|", "#38bdf8"},
		{"| | | |/ _ \\ '__| |_ ", "#22d3ee"},
		{"| |_| |  __/ |  |  _|", "#2dd4bf"},
		{" \\__, |\\___|_|  |_|  ", "#34d399"},
		{" |___/               ", "#a3e635"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
