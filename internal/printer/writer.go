package printer

import (
	"fmt"
	"strings"

	"github.com/thereceipt/receipt-templater/internal/format"
	"github.com/thereceipt/receipt-templater/internal/segment"
)

// WriteDocument prints doc's outputs in order on d, each with its own
// formatting, then issues the beep and the paper cut it asks for.
func WriteDocument(d Device, doc *segment.Document) error {
	for _, out := range doc.Outputs {
		if err := format.Apply(d, out.Directives); err != nil {
			return fmt.Errorf("segment %d: apply formatting: %w", out.Index, err)
		}
		for _, line := range strings.Split(strings.TrimRight(out.Text, "\n"), "\n") {
			if err := d.WriteLine(line); err != nil {
				return fmt.Errorf("segment %d: write: %w", out.Index, err)
			}
		}
	}
	if err := format.Reset(d); err != nil {
		return fmt.Errorf("reset formatting: %w", err)
	}

	if beep := doc.Global.BeepSettings(); beep.Enabled {
		if err := d.Beep(beep.Count, beep.Duration); err != nil {
			return fmt.Errorf("beep: %w", err)
		}
	}
	if doc.Global.CutPaper() {
		if err := d.Cut(); err != nil {
			return fmt.Errorf("cut: %w", err)
		}
	}
	return d.Flush()
}
