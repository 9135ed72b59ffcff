package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/thereceipt/receipt-templater/internal/printer"
)

var (
	Primary   = lipgloss.Color("#7C3AED")
	Secondary = lipgloss.Color("#06B6D4")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Error     = lipgloss.Color("#EF4444")

	BgCard  = lipgloss.Color("#1E293B")
	BgHover = lipgloss.Color("#334155")

	colorTextBright = lipgloss.Color("#F8FAFC")
	colorTextNormal = lipgloss.Color("#CBD5E1")
	colorTextMuted  = lipgloss.Color("#64748B")
)

var (
	TextNormal = lipgloss.NewStyle().Foreground(colorTextNormal)
	TextMuted  = lipgloss.NewStyle().Foreground(colorTextMuted)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTextBright).
			Background(Primary).
			Padding(0, 2)

	ContentStyle = lipgloss.NewStyle().
			Padding(1, 2)

	ListItemStyle = lipgloss.NewStyle().
			Foreground(colorTextNormal).
			PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(colorTextBright).
				Background(BgHover).
				Bold(true).
				PaddingLeft(2)

	SectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorTextMuted).
				Bold(true)

	HelpStyle    = lipgloss.NewStyle().Foreground(colorTextMuted)
	HelpKeyStyle = lipgloss.NewStyle().Foreground(Secondary).Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(colorTextNormal).
			Background(BgCard)

	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	InfoStyle    = lipgloss.NewStyle().Foreground(Secondary)

	SpinnerStyle = lipgloss.NewStyle().Foreground(Primary)
)

// StatusStyle colors a job status.
func StatusStyle(s printer.Status) lipgloss.Style {
	switch s {
	case printer.StatusQueued:
		return WarningStyle
	case printer.StatusPrinting:
		return InfoStyle
	case printer.StatusCompleted:
		return SuccessStyle
	case printer.StatusFailed:
		return ErrorStyle
	}
	return TextMuted
}

func RenderHelp(key, desc string) string {
	return HelpKeyStyle.Render(key) + HelpStyle.Render(" "+desc)
}

// Truncate shortens s to max display cells, marking the cut with "...".
func Truncate(s string, max int) string {
	if lipgloss.Width(s) <= max {
		return s
	}
	r := []rune(s)
	if max <= 3 {
		if max > len(r) {
			max = len(r)
		}
		return string(r[:max])
	}
	for len(r) > 0 && lipgloss.Width(string(r))+3 > max {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
