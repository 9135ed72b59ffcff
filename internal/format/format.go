// Package format applies segment formatting directives, either as commands
// to a printer sink or as a plain-text approximation for previews.
package format

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

// Nominal character widths per paper size.
const (
	Width58mm  = 32
	Width80mm  = 48
	Width112mm = 64

	DefaultWidth = Width80mm
)

// Preview markers.
const (
	BoldMarker    = "**"
	ItalicMarker  = "/"
	UnderlineRune = '_'
)

// WidthFor returns the nominal line width for a paper size such as "58mm".
func WidthFor(paper string) int {
	switch paper {
	case "58mm":
		return Width58mm
	case "112mm":
		return Width112mm
	default:
		return DefaultWidth
	}
}

// Sink receives formatting commands.
type Sink interface {
	Align(receiptformat.Align) error
	Font(receiptformat.Font) error
	Size(step int) error
	Bold(bool) error
	Underline(bool) error
	Italic(bool) error
}

// Apply issues every directive to s, so that no state leaks from the
// previous segment. Missing values fall back to the defaults.
func Apply(s Sink, d receiptformat.Directives) error {
	d = d.Normalized()
	steps := []func() error{
		func() error { return s.Align(d.Align) },
		func() error { return s.Font(d.Font) },
		func() error { return s.Size(d.Size) },
		func() error { return s.Bold(d.Bold) },
		func() error { return s.Underline(d.Underline) },
		func() error { return s.Italic(d.Italic) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Reset returns s to the default formatting.
func Reset(s Sink) error {
	return Apply(s, receiptformat.DefaultDirectives())
}

// Format renders text for a preview of the given width. Each line is
// widened for its size, wrapped in style markers, padded for alignment
// and, when underlined, followed by a rule line. Padding and rule length
// use the visible width of the widened text, ignoring markers.
func Format(text string, d receiptformat.Directives, width int) string {
	d = d.Normalized()
	if width <= 0 {
		width = DefaultWidth
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines)*2+1)
	for _, line := range lines {
		if line == "" {
			out = append(out, line)
			continue
		}

		line = widen(line, d.Size)
		visible := runewidth.StringWidth(line)

		if d.Italic {
			line = ItalicMarker + line + ItalicMarker
		}
		if d.Bold {
			line = BoldMarker + line + BoldMarker
		}

		pad := strings.Repeat(" ", padding(d.Align, visible, width))
		out = append(out, pad+line)

		if d.Underline {
			out = append(out, pad+strings.Repeat(string(UnderlineRune), visible))
		}
	}

	if d.Size == 2 {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

func widen(line string, size int) string {
	if size <= 0 {
		return line
	}
	sep := strings.Repeat(" ", size)
	runes := []rune(line)
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}
	return strings.Join(parts, sep)
}

func padding(align receiptformat.Align, visible, width int) int {
	var n int
	switch align {
	case receiptformat.AlignCenter:
		n = (width - visible) / 2
	case receiptformat.AlignRight:
		n = width - visible
	}
	if n < 0 {
		return 0
	}
	return n
}
