// Package render draws detection overlays for people watching the solver.
//
// Nothing in the activation path depends on this package; a batch can be
// solved without ever drawing it.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font"

	"github.com/ironsheep/detection-tiles-mcp/internal/detection"
	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
	"github.com/ironsheep/detection-tiles-mcp/internal/imaging"
)

// Surface is the drawing API the renderer needs. *gg.Context implements it.
type Surface interface {
	Width() int
	Height() int
	SetColor(c color.Color)
	Clear()
	SetLineWidth(w float64)
	DrawRectangle(x, y, w, h float64)
	Fill()
	Stroke()
	SetFontFace(f font.Face)
	MeasureString(s string) (w, h float64)
	DrawStringAnchored(s string, x, y, ax, ay float64)
}

var _ Surface = (*gg.Context)(nil)

// Options controls overlay styling.
type Options struct {
	// Palette lists class colours as "#RRGGBB"; empty means the default palette.
	Palette []string `json:"palette"`

	// FillAlpha is the opacity of the box fill.
	FillAlpha float64 `json:"fill_alpha"`

	// MinFontSize is the floor for the label font size.
	MinFontSize float64 `json:"min_font_size"`

	// MinLineWidth is the floor for the border width.
	MinLineWidth float64 `json:"min_line_width"`
}

// DefaultOptions returns the standard overlay style.
func DefaultOptions() Options {
	return Options{
		Palette:      append([]string(nil), imaging.DefaultPalette...),
		FillAlpha:    0.2,
		MinFontSize:  14,
		MinLineWidth: 2.5,
	}
}

// fallbackColor strokes boxes whose palette entry does not parse.
var fallbackColor = color.NRGBA{R: 200, G: 200, B: 200, A: 255}

// Renderer draws detection batches onto a Surface.
type Renderer struct {
	opts   Options
	labels *detection.LabelTable
	logger *zap.SugaredLogger
}

// New creates a Renderer. A nil logger disables logging.
func New(opts Options, labels *detection.LabelTable, logger *zap.SugaredLogger) *Renderer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Renderer{opts: opts, labels: labels, logger: logger}
}

// FontSize returns the label font size for a surface of the given size.
func (r *Renderer) FontSize(width, height int) float64 {
	size := math.Round(float64(max(width, height)) / 40)
	return math.Max(size, r.opts.MinFontSize)
}

// LineWidth returns the border width for a surface of the given size.
func (r *Renderer) LineWidth(width, height int) float64 {
	return math.Max(float64(min(width, height))/200, r.opts.MinLineWidth)
}

// Caption returns the label text drawn for d, e.g. "car - 87.3%".
func (r *Renderer) Caption(d detection.Detection) string {
	return fmt.Sprintf("%s - %s%%", r.labels.Display(d.ClassID), d.Percent())
}

// Render clears s and draws every detection in dets: a translucent fill, a
// border, and a caption on a filled background above the box. Captions that
// would leave the top of the surface are pinned to y=0. Unknown classes are
// drawn with a placeholder caption.
func (r *Renderer) Render(s Surface, dets []detection.Detection, ratio geometry.DisplayRatio) {
	s.SetColor(color.Transparent)
	s.Clear()

	w, h := s.Width(), s.Height()
	fontSize := r.FontSize(w, h)
	lineWidth := r.LineWidth(w, h)
	s.SetFontFace(imaging.FontFace(fontSize))

	for i, d := range dets {
		box := geometry.Normalize(d.Box, ratio).Scaled
		hex := imaging.ColorFor(d.ClassID, r.opts.Palette)

		if _, ok := r.labels.Lookup(d.ClassID); !ok {
			r.logger.Debugw("no label for class", "detection", i, "class_id", d.ClassID)
		}

		if fill, ok := imaging.HexToNRGBA(hex, r.opts.FillAlpha); ok {
			s.SetColor(fill)
			s.DrawRectangle(box.X1, box.Y1, box.Width(), box.Height())
			s.Fill()
		} else {
			r.logger.Debugw("malformed palette colour, skipping fill", "detection", i, "color", hex)
		}

		stroke, ok := imaging.HexToNRGBA(hex, 1)
		if !ok {
			stroke = fallbackColor
		}
		s.SetColor(stroke)
		s.SetLineWidth(lineWidth)
		s.DrawRectangle(box.X1, box.Y1, box.Width(), box.Height())
		s.Stroke()

		caption := r.Caption(d)
		textWidth, _ := s.MeasureString(caption)
		x := box.X1 - 1
		y := box.Y1 - (fontSize + lineWidth)
		if y < 0 {
			y = 0
		}
		s.DrawRectangle(x, y, textWidth+lineWidth, fontSize+lineWidth)
		s.Fill()

		s.SetColor(imaging.ContrastText(hex))
		s.DrawStringAnchored(caption, x, y, 0, 1)
	}
}

// RenderOverlay draws dets onto a new transparent width x height surface
// and returns it.
func (r *Renderer) RenderOverlay(width, height int, dets []detection.Detection, ratio geometry.DisplayRatio) image.Image {
	dc := gg.NewContext(width, height)
	r.Render(dc, dets, ratio)
	return dc.Image()
}

// RenderOnto draws dets on a width x height overlay and composes it over
// base, stretching the overlay to base's size.
func (r *Renderer) RenderOnto(base image.Image, width, height int, dets []detection.Detection, ratio geometry.DisplayRatio) *image.RGBA {
	return imaging.Compose(base, r.RenderOverlay(width, height, dets, ratio))
}
