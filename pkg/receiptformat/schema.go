// Package receiptformat defines the receipt template document: a legacy
// single-markup form or an ordered list of segments, each with its own
// formatting directives, plus printer-wide global settings.
package receiptformat

// Align is a horizontal text alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Font selects one of the two printer fonts.
type Font string

const (
	// FontPrimary is the printer's default font (ESC/POS font A).
	FontPrimary Font = "a"
	// FontSecondary is the condensed font (ESC/POS font B).
	FontSecondary Font = "b"
)

// MaxSize is the largest supported size step.
const MaxSize = 2

// DefaultEncoding is the character encoding used when none is configured.
const DefaultEncoding = "cp866"

// Directives is the formatting applied to one segment.
type Directives struct {
	Align     Align `json:"align" yaml:"align" toml:"align"`
	Font      Font  `json:"font" yaml:"font" toml:"font"`
	Size      int   `json:"size" yaml:"size" toml:"size"`
	Bold      bool  `json:"bold" yaml:"bold" toml:"bold"`
	Underline bool  `json:"underline" yaml:"underline" toml:"underline"`
	Italic    bool  `json:"italic" yaml:"italic" toml:"italic"`
}

// DefaultDirectives returns left-aligned primary font, size 0, no styles.
func DefaultDirectives() Directives {
	return Directives{Align: AlignLeft, Font: FontPrimary}
}

// Normalized returns a copy with unknown or missing values replaced by the
// defaults and the size clamped to 0..MaxSize.
func (d Directives) Normalized() Directives {
	switch d.Align {
	case AlignLeft, AlignCenter, AlignRight:
	default:
		d.Align = AlignLeft
	}
	switch d.Font {
	case FontPrimary, FontSecondary:
	case "secondary", "B":
		d.Font = FontSecondary
	default:
		d.Font = FontPrimary
	}
	if d.Size < 0 {
		d.Size = 0
	}
	if d.Size > MaxSize {
		d.Size = MaxSize
	}
	return d
}

// Segment is one piece of markup with its own formatting.
type Segment struct {
	Content  string      `json:"content" yaml:"content" toml:"content"`
	Settings *Directives `json:"settings,omitempty" yaml:"settings,omitempty" toml:"settings,omitempty"`
}

// Directives returns the segment's normalized formatting, or the defaults
// when the segment has none.
func (s Segment) Directives() Directives {
	if s.Settings == nil {
		return DefaultDirectives()
	}
	return s.Settings.Normalized()
}

// Beep configures the buzzer signal issued after printing.
type Beep struct {
	Enabled  bool `json:"enabled" yaml:"enabled" toml:"enabled"`
	Count    int  `json:"count" yaml:"count" toml:"count"`
	Duration int  `json:"duration" yaml:"duration" toml:"duration"` // milliseconds
}

// GlobalSettings apply to the whole printed document.
type GlobalSettings struct {
	Beep     Beep   `json:"beep" yaml:"beep" toml:"beep"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty" toml:"encoding,omitempty"`
	PaperCut *bool  `json:"paperCut,omitempty" yaml:"paperCut,omitempty" toml:"paperCut,omitempty"`
}

// CutPaper reports whether a cut is issued at the end. Defaults to true.
func (g *GlobalSettings) CutPaper() bool {
	if g == nil || g.PaperCut == nil {
		return true
	}
	return *g.PaperCut
}

// CharEncoding returns the configured encoding or DefaultEncoding.
func (g *GlobalSettings) CharEncoding() string {
	if g == nil || g.Encoding == "" {
		return DefaultEncoding
	}
	return g.Encoding
}

// BeepSettings returns the beep configuration, zero when unset.
func (g *GlobalSettings) BeepSettings() Beep {
	if g == nil {
		return Beep{}
	}
	return g.Beep
}

// Template is a receipt template. It is either legacy (Content and
// Settings) or segmented (Segments and GlobalSettings).
type Template struct {
	Name           string          `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Content        string          `json:"content,omitempty" yaml:"content,omitempty" toml:"content,omitempty"`
	Settings       *Directives     `json:"settings,omitempty" yaml:"settings,omitempty" toml:"settings,omitempty"`
	Segments       []Segment       `json:"segments,omitempty" yaml:"segments,omitempty" toml:"segments,omitempty"`
	GlobalSettings *GlobalSettings `json:"globalSettings,omitempty" yaml:"globalSettings,omitempty" toml:"globalSettings,omitempty"`
}

// IsSegmented reports whether the template uses the segment list form.
func (t *Template) IsSegmented() bool {
	return t.Segments != nil
}

// EffectiveSegments returns the segments to render. A legacy template is
// presented as a single segment carrying its global directives.
func (t *Template) EffectiveSegments() []Segment {
	if t.IsSegmented() {
		return t.Segments
	}
	return []Segment{{Content: t.Content, Settings: t.Settings}}
}

// Clone returns a deep copy.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	c := *t
	if t.Settings != nil {
		s := *t.Settings
		c.Settings = &s
	}
	if t.Segments != nil {
		c.Segments = make([]Segment, len(t.Segments))
		for i, seg := range t.Segments {
			c.Segments[i] = seg
			if seg.Settings != nil {
				s := *seg.Settings
				c.Segments[i].Settings = &s
			}
		}
	}
	if t.GlobalSettings != nil {
		g := *t.GlobalSettings
		if g.PaperCut != nil {
			cut := *g.PaperCut
			g.PaperCut = &cut
		}
		c.GlobalSettings = &g
	}
	return &c
}
