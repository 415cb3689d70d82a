package tui

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/aretw0/yerf/pkg/domain"
	"github.com/aretw0/yerf/pkg/registry"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// NewOutput returns a termenv output for w. Colors are used only when w is
// a terminal.
func NewOutput(w io.Writer) *termenv.Output {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return termenv.NewOutput(w)
	}
	return termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
}

var stateColors = map[domain.State]string{
	domain.StateCreated:    "#9ca3af",
	domain.StateStarted:    "#facc15",
	domain.StateStopped:    "#38bdf8",
	domain.StateReportable: "#34d399",
	domain.StateReported:   "#a78bfa",
}

type node struct {
	snap     domain.SampleSnapshot
	children []*node
}

// PrintTree writes one line per sample, children indented under their
// parent: relative key, offset, delta and state.
func PrintTree(w io.Writer, snaps []domain.SampleSnapshot) error {
	out := NewOutput(w)
	roots := buildTree(snaps)

	width := 0
	var measure func(n *node, depth int)
	measure = func(n *node, depth int) {
		if l := len(label(n, depth)); l > width {
			width = l
		}
		for _, c := range n.children {
			measure(c, depth+1)
		}
	}
	for _, r := range roots {
		measure(r, 0)
	}

	var emit func(n *node, depth int) error
	emit = func(n *node, depth int) error {
		s := n.snap
		offset, delta := "-", "-"
		if s.State != domain.StateCreated {
			offset = "+" + millis(s.Offset)
		}
		if s.State.Finished() {
			delta = millis(s.Delta)
		}
		state := out.String(s.State.String()).Foreground(out.Color(stateColors[s.State]))
		line := fmt.Sprintf("%-*s  %7s  %7s  %s", width, label(n, depth), offset, delta, state)
		if len(s.Waiting) > 0 {
			line += "  waiting: " + strings.Join(s.Waiting, ", ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		for _, c := range n.children {
			if err := emit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range roots {
		if err := emit(r, 0); err != nil {
			return err
		}
	}
	return nil
}

func buildTree(snaps []domain.SampleSnapshot) []*node {
	byKey := make(map[string]*node, len(snaps))
	for _, s := range snaps {
		byKey[s.Key] = &node{snap: s}
	}
	var roots []*node
	for _, s := range snaps {
		n := byKey[s.Key]
		if p, ok := byKey[s.Parent]; ok && s.Parent != "" {
			p.children = append(p.children, n)
			continue
		}
		roots = append(roots, n)
	}
	return roots
}

func label(n *node, depth int) string {
	name := n.snap.Key
	if depth > 0 {
		name = strings.TrimPrefix(name, n.snap.Parent+registry.Separator)
	}
	return strings.Repeat("  ", depth) + name
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%dms", int64(math.Round(float64(d)/float64(time.Millisecond))))
}
