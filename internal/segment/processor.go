// Package segment renders a template's segments one by one, isolating
// failures so that one broken segment does not cost the whole receipt.
package segment

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thereceipt/receipt-templater/internal/errors"
	"github.com/thereceipt/receipt-templater/internal/i18n"
	"github.com/thereceipt/receipt-templater/internal/markup"
	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

// Outcome messages for documents without printable content.
const (
	MsgNoPrintable           = "no printable content in non-conditional segments"
	MsgAllConditionalEmpty   = "all segments conditional and empty"
	MsgNoContent             = "no content after processing"
	MsgProcessedSuccessfully = "template processed successfully"
)

// Renderer renders one segment's markup.
type Renderer interface {
	Render(src string, ctx markup.Context) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(src string, ctx markup.Context) (string, error)

// Render calls f.
func (f RendererFunc) Render(src string, ctx markup.Context) (string, error) {
	return f(src, ctx)
}

// MarkupRenderer renders with the markup package.
var MarkupRenderer = RendererFunc(func(src string, ctx markup.Context) (string, error) {
	return markup.Render(src, ctx), nil
})

// Output is a rendered segment ready for a sink.
type Output struct {
	Index      int                      `json:"index"`
	Text       string                   `json:"text"`
	Directives receiptformat.Directives `json:"formatting"`
}

// SegmentError records a segment that failed to render.
type SegmentError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// Stats counts what happened to each segment.
type Stats struct {
	TotalSegments              int `json:"totalSegments"`
	ProcessedSegments          int `json:"processedSegments"`
	SkippedConditionalSegments int `json:"skippedConditionalSegments"`
	EmptySegments              int `json:"emptySegments"`
	BlankSegments              int `json:"blankSegments"`
}

// Outcome is the result of processing a document.
type Outcome struct {
	Success       bool           `json:"success"`
	HasContent    bool           `json:"hasContent"`
	Message       string         `json:"message"`
	UserMessage   string         `json:"userMessage"`
	Stats         Stats          `json:"stats"`
	ErrorSegments []SegmentError `json:"errorSegments"`
	Error         *errors.Error  `json:"error,omitempty"`
}

// Err returns the outcome's failure as an error, or nil on success.
func (o *Outcome) Err() error {
	if o == nil || o.Error == nil {
		return nil
	}
	return o.Error
}

// Document is the intermediate representation shared by all sinks.
type Document struct {
	Name    string                        `json:"name,omitempty"`
	Outputs []Output                      `json:"outputs"`
	Global  *receiptformat.GlobalSettings `json:"globalSettings,omitempty"`
	Outcome *Outcome                      `json:"outcome"`
}

// Processor walks segments in order.
type Processor struct {
	renderer Renderer
	logger   zerolog.Logger
}

// NewProcessor creates a Processor. A nil renderer uses MarkupRenderer.
func NewProcessor(r Renderer, logger zerolog.Logger) *Processor {
	if r == nil {
		r = MarkupRenderer
	}
	return &Processor{renderer: r, logger: logger}
}

// Process renders every segment against ctx. Blank segments are skipped;
// segments that render blank count as conditional skips when their markup
// holds a conditional block; render failures are recorded per index and
// processing continues.
func (p *Processor) Process(segments []receiptformat.Segment, ctx markup.Context) ([]Output, *Outcome) {
	outputs := make([]Output, 0, len(segments))
	outcome := &Outcome{
		Stats:         Stats{TotalSegments: len(segments)},
		ErrorSegments: []SegmentError{},
	}

	for i, seg := range segments {
		if strings.TrimSpace(seg.Content) == "" {
			outcome.Stats.BlankSegments++
			p.logger.Debug().Int("segment", i).Msg("Skipping blank segment")
			continue
		}

		text, err := p.renderSafe(seg.Content, ctx)
		if err != nil {
			outcome.ErrorSegments = append(outcome.ErrorSegments, SegmentError{Index: i, Error: err.Error()})
			p.logger.Warn().Err(err).Int("segment", i).Msg("Segment failed to render")
			continue
		}

		if strings.TrimSpace(text) == "" {
			if markup.HasConditional(seg.Content) {
				outcome.Stats.SkippedConditionalSegments++
				p.logger.Debug().Int("segment", i).Msg("Conditional segment rendered empty")
			} else {
				outcome.Stats.EmptySegments++
				p.logger.Debug().Int("segment", i).Msg("Segment empty after processing")
			}
			continue
		}

		outcome.HasContent = true
		outcome.Stats.ProcessedSegments++
		outputs = append(outputs, Output{Index: i, Text: text, Directives: seg.Directives()})
	}

	conclude(outcome)
	return outputs, outcome
}

// ProcessTemplate processes t's effective segments into a Document.
func (p *Processor) ProcessTemplate(t *receiptformat.Template, ctx markup.Context) *Document {
	outputs, outcome := p.Process(t.EffectiveSegments(), ctx)
	return &Document{
		Name:    t.Name,
		Outputs: outputs,
		Global:  t.GlobalSettings,
		Outcome: outcome,
	}
}

func (p *Processor) renderSafe(src string, ctx markup.Context) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panic: %v", r)
		}
	}()
	return p.renderer.Render(src, ctx)
}

func conclude(o *Outcome) {
	if o.HasContent {
		o.Success = true
		o.Message = MsgProcessedSuccessfully
		o.UserMessage = i18n.T("render.ok")
		return
	}

	s := o.Stats
	var msg, key string
	switch {
	case s.TotalSegments-s.SkippedConditionalSegments > 0 && s.ProcessedSegments == 0:
		msg, key = MsgNoPrintable, "render.no_printable"
	case s.TotalSegments == s.SkippedConditionalSegments:
		msg, key = MsgAllConditionalEmpty, "render.all_conditional_empty"
	default:
		msg, key = MsgNoContent, "render.no_content"
	}
	o.Error = errors.New(errors.Structural, msg).WithUser(key).
		WithDetail("stats", s).
		WithDetail("errorSegments", len(o.ErrorSegments))
	o.Message = msg
	o.UserMessage = o.Error.UserMessage
}
