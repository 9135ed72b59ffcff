package main

import (
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	paperStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1a7f37", Dark: "#3fb950"}).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#cf222e", Dark: "#f85149"}).Bold(true)
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// receiptBox frames preview text as a paper strip on terminals.
func receiptBox(text string, tty bool) string {
	if !tty {
		return text
	}
	return paperStyle.Render(text)
}

// renderMarkdown renders md for the terminal, falling back to the raw
// markdown when output is not a terminal or rendering fails.
func renderMarkdown(md string, tty bool) string {
	if !tty {
		return md
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func statusLine(ok bool, subject, detail string) string {
	mark := failStyle.Render("✗")
	if ok {
		mark = okStyle.Render("✓")
	}
	return mark + " " + subject + " " + dimStyle.Render(detail)
}
