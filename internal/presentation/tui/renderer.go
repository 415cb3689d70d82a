package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/yerf/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}, nil
}

// EntryTable formats flattened entries as a markdown table.
func EntryTable(title string, entries []domain.Entry) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "## %s\n\n", title)
	}
	b.WriteString("| key | ms |\n")
	b.WriteString("|---|---:|\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %d |\n", e.Name(), e.Millis())
	}
	return b.String()
}
