package receiptformat

import (
	"fmt"
	"strings"

	"github.com/thereceipt/receipt-templater/internal/markup"
)

// Analysis is a diagnostic report on a template's structure.
type Analysis struct {
	Name            string            `json:"name"`
	Structure       Structure         `json:"structure"`
	Valid           bool              `json:"valid"`
	ValidationError string            `json:"validationError,omitempty"`
	Segments        []SegmentAnalysis `json:"segments"`
	Recommendations []string          `json:"recommendations"`
}

// Structure summarises the template's top-level shape.
type Structure struct {
	HasSegments       bool `json:"hasSegments"`
	SegmentCount      int  `json:"segmentCount"`
	HasGlobalSettings bool `json:"hasGlobalSettings"`
	HasName           bool `json:"hasName"`
}

// SegmentAnalysis describes one segment.
type SegmentAnalysis struct {
	Index           int      `json:"index"`
	HasContent      bool     `json:"hasContent"`
	ContentLength   int      `json:"contentLength"`
	HasSettings     bool     `json:"hasSettings"`
	HasConditionals bool     `json:"hasConditionals"`
	Placeholders    []string `json:"placeholders"`
	Blocks          []string `json:"conditionalBlocks"`
}

// ConditionalCount returns the number of segments using conditional blocks.
func (a *Analysis) ConditionalCount() int {
	n := 0
	for _, s := range a.Segments {
		if s.HasConditionals {
			n++
		}
	}
	return n
}

// Analyze inspects t and suggests fixes for templates likely to print
// nothing.
func Analyze(t *Template) *Analysis {
	a := &Analysis{
		Name: t.Name,
		Structure: Structure{
			HasSegments:       t.IsSegmented(),
			SegmentCount:      len(t.Segments),
			HasGlobalSettings: t.GlobalSettings != nil,
			HasName:           t.Name != "",
		},
		Segments:        []SegmentAnalysis{},
		Recommendations: []string{},
	}

	if err := Validate(t); err != nil {
		a.ValidationError = err.Error()
	} else {
		a.Valid = true
	}

	for i, seg := range t.Segments {
		info := markup.Scan(seg.Content)
		a.Segments = append(a.Segments, SegmentAnalysis{
			Index:           i,
			HasContent:      strings.TrimSpace(seg.Content) != "",
			ContentLength:   len([]rune(seg.Content)),
			HasSettings:     seg.Settings != nil,
			HasConditionals: markup.HasConditional(seg.Content),
			Placeholders:    info.Placeholders,
			Blocks:          info.Blocks,
		})
	}

	if a.Structure.SegmentCount == 0 {
		a.Recommendations = append(a.Recommendations, "Template has no segments - consider adding content segments")
		return a
	}

	empty, unconditional := 0, 0
	for _, s := range a.Segments {
		if !s.HasContent {
			empty++
		} else if !s.HasConditionals {
			unconditional++
		}
	}
	if empty > 0 {
		a.Recommendations = append(a.Recommendations, fmt.Sprintf("%d empty segments detected", empty))
	}
	if unconditional == 0 {
		a.Recommendations = append(a.Recommendations, "All segments are conditional - template may be empty if conditions not met")
	}
	return a
}

// Markdown renders the analysis as a markdown report.
func (a *Analysis) Markdown() string {
	var b strings.Builder

	name := a.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(&b, "# Template analysis: %s\n\n", name)

	status := "Valid"
	if !a.Valid {
		status = "Invalid: " + a.ValidationError
	}
	fmt.Fprintf(&b, "- **Structure:** %s\n", status)
	fmt.Fprintf(&b, "- **Segments:** %d\n", a.Structure.SegmentCount)
	fmt.Fprintf(&b, "- **Conditional segments:** %d\n", a.ConditionalCount())
	fmt.Fprintf(&b, "- **Global settings:** %t\n\n", a.Structure.HasGlobalSettings)

	if len(a.Segments) > 0 {
		b.WriteString("| # | Content | Length | Settings | Conditionals | Placeholders | Blocks |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, s := range a.Segments {
			fmt.Fprintf(&b, "| %d | %t | %d | %t | %t | %s | %s |\n",
				s.Index, s.HasContent, s.ContentLength, s.HasSettings, s.HasConditionals,
				strings.Join(s.Placeholders, ", "), strings.Join(s.Blocks, ", "))
		}
		b.WriteString("\n")
	}

	if len(a.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for i, r := range a.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, r)
		}
	}
	return b.String()
}
