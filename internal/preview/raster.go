package preview

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

const (
	margin      = 8
	lineSpacing = 1.4
)

// fallbackFonts are relative to an XDG font directory.
var fallbackFonts = []string{
	"truetype/dejavu/DejaVuSansMono.ttf",
	"TTF/DejaVuSansMono.ttf",
	"dejavu/DejaVuSansMono.ttf",
	"DejaVuSansMono.ttf",
	"truetype/liberation/LiberationMono-Regular.ttf",
	"liberation-mono/LiberationMono-Regular.ttf",
	"truetype/freefont/FreeMono.ttf",
	"Courier New.ttf",
}

// RasterOptions controls the PNG rendering.
type RasterOptions struct {
	// Paper is the paper size ("58mm", "80mm" or "112mm").
	Paper string
	// FontPath is a TrueType font file. When empty a system monospace font
	// with Cyrillic coverage is looked up in the XDG font directories; the
	// built-in bitmap face (ASCII only) is used if none is found.
	FontPath string
	// FontSize is the font size in points.
	FontSize float64
}

// PaperPixels returns the printable width in dots at 203 dpi.
func PaperPixels(paper string) int {
	switch paper {
	case "58mm":
		return 384
	case "112mm":
		return 832
	default:
		return 576
	}
}

// Raster draws preview text onto a white canvas and scales it to the
// paper width, keeping the aspect ratio.
func Raster(text string, opts RasterOptions) (image.Image, error) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	// Measure with a scratch context so the canvas can be sized exactly.
	scratch := gg.NewContext(1, 1)
	if err := loadFont(scratch, opts); err != nil {
		return nil, err
	}
	lineHeight := scratch.FontHeight() * lineSpacing
	textWidth := 0.0
	for _, line := range lines {
		if w, _ := scratch.MeasureString(line); w > textWidth {
			textWidth = w
		}
	}

	width := int(math.Ceil(textWidth)) + 2*margin
	height := int(math.Ceil(lineHeight*float64(len(lines)))) + 2*margin

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.Black)
	if err := loadFont(dc, opts); err != nil {
		return nil, err
	}
	for i, line := range lines {
		dc.DrawString(line, margin, margin+lineHeight*float64(i)+scratch.FontHeight())
	}

	return imaging.Resize(dc.Image(), PaperPixels(opts.Paper), 0, imaging.Lanczos), nil
}

// DefaultFontPath returns the first fallback font found in the XDG font
// directories, or "" when there is none.
func DefaultFontPath() string {
	return findFont(xdg.FontDirs, fallbackFonts)
}

func findFont(dirs, names []string) string {
	for _, name := range names {
		for _, dir := range dirs {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

func loadFont(dc *gg.Context, opts RasterOptions) error {
	size := opts.FontSize
	if size <= 0 {
		size = 16
	}
	if opts.FontPath == "" {
		// A broken system font leaves the bitmap face in place.
		if path := DefaultFontPath(); path != "" {
			_ = dc.LoadFontFace(path, size)
		}
		return nil
	}
	if err := dc.LoadFontFace(opts.FontPath, size); err != nil {
		return fmt.Errorf("failed to load font %s: %w", opts.FontPath, err)
	}
	return nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}
