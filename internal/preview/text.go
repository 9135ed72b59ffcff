// Package preview renders a processed document for on-screen display:
// as plain text with formatting approximated by markers, or as a PNG
// raster of that text at the printer's paper width.
package preview

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/thereceipt/receipt-templater/internal/format"
	"github.com/thereceipt/receipt-templater/internal/segment"
)

// CutLabel is centred in the line that stands in for the paper cut.
const CutLabel = " cut "

// Text renders doc for a receipt of the given character width. Outputs
// appear in order, each formatted with its own directives, followed by a
// beep line when the beep is enabled and a cut line when paper is cut.
func Text(doc *segment.Document, width int) string {
	if width <= 0 {
		width = format.DefaultWidth
	}

	var b strings.Builder
	for _, out := range doc.Outputs {
		b.WriteString(format.Format(strings.TrimRight(out.Text, "\n"), out.Directives, width))
		b.WriteByte('\n')
	}

	if beep := doc.Global.BeepSettings(); beep.Enabled {
		b.WriteString(BeepLine(beep.Count, beep.Duration))
		b.WriteByte('\n')
	}
	if doc.Global.CutPaper() {
		b.WriteString(CutLine(width))
		b.WriteByte('\n')
	}
	return b.String()
}

// BeepLine describes the buzzer signal.
func BeepLine(count, durationMs int) string {
	if count < 1 {
		count = 1
	}
	return fmt.Sprintf("[beep x%d, %dms]", count, durationMs)
}

// CutLine is a dashed rule of the given width with CutLabel in the middle.
func CutLine(width int) string {
	label := CutLabel
	rest := width - runewidth.StringWidth(label)
	if rest < 2 {
		return strings.TrimSpace(label)
	}
	left := rest / 2
	return strings.Repeat("-", left) + label + strings.Repeat("-", rest-left)
}
