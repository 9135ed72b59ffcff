// Package engine composes the rendering pipeline: template lookup through
// the cache, validation, data preparation, segment processing, and the
// preview and print sinks.
package engine

import (
	"bytes"
	"context"
	stderrors "errors"

	"github.com/rs/zerolog"

	"github.com/thereceipt/receipt-templater/internal/cache"
	"github.com/thereceipt/receipt-templater/internal/errors"
	"github.com/thereceipt/receipt-templater/internal/format"
	"github.com/thereceipt/receipt-templater/internal/logging"
	"github.com/thereceipt/receipt-templater/internal/prepare"
	"github.com/thereceipt/receipt-templater/internal/preview"
	"github.com/thereceipt/receipt-templater/internal/segment"
	"github.com/thereceipt/receipt-templater/internal/templatestore"
	"github.com/thereceipt/receipt-templater/internal/validation"
	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

// Queue accepts rendered documents for printing.
type Queue interface {
	Enqueue(eventType, templateName string, doc *segment.Document) string
}

// Options configures an Engine.
type Options struct {
	Store templatestore.Repository
	// Cache fronts Store. Defaults to a cache with cache.DefaultTTL.
	Cache    *cache.Cache[*receiptformat.Template]
	Preparer *prepare.Preparer
	// Queue receives print jobs. Print fails when it is nil.
	Queue Queue
	// PrinterHost is validated before every print when set.
	PrinterHost string
	// CheckTarget enables the IPv4 check of PrinterHost.
	CheckTarget bool
	// Bindings maps an event to a template name. Defaults to the identity.
	Bindings func(event string) string
	// RequiredFields are checked when a request names none.
	RequiredFields []string
	PaperWidth     string
	FontPath       string
	Logger         zerolog.Logger
}

// Request is one render of a template against a data record. Template
// takes precedence over TemplateName.
type Request struct {
	Template       *receiptformat.Template `json:"template,omitempty"`
	TemplateName   string                  `json:"template_name,omitempty"`
	Data           interface{}             `json:"data"`
	RequiredFields []string                `json:"required_fields,omitempty"`
}

// Engine renders, previews and prints receipts.
type Engine struct {
	store     templatestore.Repository
	cache     *cache.Cache[*receiptformat.Template]
	preparer  *prepare.Preparer
	processor *segment.Processor
	queue     Queue
	opts      Options
	logger    zerolog.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	e := &Engine{
		store:    opts.Store,
		cache:    opts.Cache,
		preparer: opts.Preparer,
		queue:    opts.Queue,
		opts:     opts,
		logger:   opts.Logger,
	}
	if e.cache == nil {
		e.cache = cache.New[*receiptformat.Template](cache.DefaultTTL, nil)
	}
	if e.preparer == nil {
		e.preparer = prepare.New(prepare.Options{})
	}
	if e.opts.Bindings == nil {
		e.opts.Bindings = func(event string) string { return event }
	}
	e.processor = segment.NewProcessor(nil, opts.Logger.With().Str("component", "segment").Logger())
	return e
}

// Load returns the named template from the cache, falling back to the
// store on a miss.
func (e *Engine) Load(ctx context.Context, name string) (*receiptformat.Template, error) {
	if t, ok := e.cache.Get(name); ok {
		return t, nil
	}

	t, err := e.store.Get(ctx, name)
	if err != nil {
		if stderrors.Is(err, templatestore.ErrNotFound) || stderrors.Is(err, templatestore.ErrInvalidName) {
			return nil, errors.Wrapf(err, errors.Structural, "template %q not found", name).
				WithUser("template.missing").
				WithDetail("template", name)
		}
		return nil, errors.Wrapf(err, errors.Structural, "failed to load template %q", name)
	}
	e.cache.Put(name, t)
	e.logger.Debug().Str("template", name).Msg("Template loaded from store")
	return t, nil
}

// InvalidateCache drops every cached template.
func (e *Engine) InvalidateCache() {
	e.cache.Invalidate()
	e.logger.Debug().Msg("Template cache invalidated")
}

// Templates lists the stored template names.
func (e *Engine) Templates(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// SaveTemplate validates and stores t under name.
func (e *Engine) SaveTemplate(ctx context.Context, name string, t *receiptformat.Template) error {
	if err := validation.ValidateParsed(t); err != nil {
		return err
	}
	if err := e.store.Save(ctx, name, t); err != nil {
		return err
	}
	e.InvalidateCache()
	return nil
}

// DeleteTemplate removes the named template.
func (e *Engine) DeleteTemplate(ctx context.Context, name string) error {
	if err := e.store.Delete(ctx, name); err != nil {
		return err
	}
	e.InvalidateCache()
	return nil
}

// Analyze reports on the named template.
func (e *Engine) Analyze(ctx context.Context, name string) (*receiptformat.Analysis, error) {
	t, err := e.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	a := receiptformat.Analyze(t)
	if a.Name == "" {
		a.Name = name
	}
	return a, nil
}

// Render validates the request and processes the template. A document
// without content is not an error: its Outcome reports the failure.
func (e *Engine) Render(ctx context.Context, req Request) (*segment.Document, error) {
	t, err := e.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	required := req.RequiredFields
	if required == nil {
		required = e.opts.RequiredFields
	}
	if err := validation.ValidateData(req.Data, required); err != nil {
		return nil, err
	}

	record := req.Data.(map[string]interface{})
	doc := e.processor.ProcessTemplate(t, e.preparer.Prepare(record))
	if doc.Name == "" {
		doc.Name = req.TemplateName
	}

	e.logger.Debug().
		Str("template", doc.Name).
		Bool("success", doc.Outcome.Success).
		Int("processed", doc.Outcome.Stats.ProcessedSegments).
		Int("skipped", doc.Outcome.Stats.SkippedConditionalSegments).
		Int("errors", len(doc.Outcome.ErrorSegments)).
		Msg("Template rendered")
	return doc, nil
}

func (e *Engine) resolve(ctx context.Context, req Request) (*receiptformat.Template, error) {
	t := req.Template
	if t == nil {
		if req.TemplateName == "" {
			return nil, errors.New(errors.Structural, "Template is null or undefined").WithUser("template.missing")
		}
		var err error
		if t, err = e.Load(ctx, req.TemplateName); err != nil {
			return nil, err
		}
	}
	if err := validation.ValidateParsed(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Preview renders the request as preview text.
func (e *Engine) Preview(ctx context.Context, req Request) (string, *segment.Document, error) {
	doc, err := e.Render(ctx, req)
	if err != nil {
		return "", nil, err
	}
	return preview.Text(doc, format.WidthFor(e.opts.PaperWidth)), doc, nil
}

// PreviewPNG renders the request as a PNG image of the preview text.
func (e *Engine) PreviewPNG(ctx context.Context, req Request) ([]byte, *segment.Document, error) {
	defer logging.LogOperationStart(e.logger, "preview_png")()

	text, doc, err := e.Preview(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	img, err := preview.Raster(text, preview.RasterOptions{
		Paper:    e.opts.PaperWidth,
		FontPath: e.opts.FontPath,
	})
	if err != nil {
		return nil, doc, err
	}
	var buf bytes.Buffer
	if err := preview.EncodePNG(&buf, img); err != nil {
		return nil, doc, err
	}
	return buf.Bytes(), doc, nil
}

// Print renders the request and queues it. The printer target is checked
// before anything is rendered, and documents without content are not
// queued.
func (e *Engine) Print(ctx context.Context, eventType string, req Request) (string, *segment.Document, error) {
	if e.opts.CheckTarget {
		if err := validation.ValidateConnectionTarget(e.opts.PrinterHost); err != nil {
			return "", nil, err
		}
	}
	if e.queue == nil {
		return "", nil, errors.New(errors.Device, "no printer configured")
	}

	doc, err := e.Render(ctx, req)
	if err != nil {
		return "", nil, err
	}
	if err := doc.Outcome.Err(); err != nil {
		return "", doc, err
	}

	if eventType == "" {
		eventType = "manual"
	}
	id := e.queue.Enqueue(eventType, doc.Name, doc)
	return id, doc, nil
}

// HandleEvent prints the template bound to event with data.
func (e *Engine) HandleEvent(ctx context.Context, event string, data interface{}) (string, *segment.Document, error) {
	name := e.opts.Bindings(event)
	e.logger.Info().Str("event", event).Str("template", name).Msg("Handling event")
	return e.Print(ctx, event, Request{TemplateName: name, Data: data})
}
