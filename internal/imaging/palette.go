package imaging

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPalette is the ordered set of class colours used by the overlay.
var DefaultPalette = []string{
	"#FF3838",
	"#FF9D97",
	"#FF701F",
	"#FFB21D",
	"#CFD231",
	"#48F90A",
	"#92CC17",
	"#3DDB86",
	"#1A9334",
	"#00D4BB",
	"#2C99A8",
	"#00C2FF",
	"#344593",
	"#6473FF",
	"#0018EC",
	"#8438FF",
	"#520085",
	"#CB38FF",
	"#FF95C8",
	"#FF37C7",
}

// ColorFor returns the palette entry for a class index, cycling through the
// palette. An empty palette falls back to DefaultPalette. Negative indices
// are folded so the function is defined for every int.
func ColorFor(index int, palette []string) string {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	n := len(palette)
	return palette[((index%n)+n)%n]
}

// HexToRGBA converts "#RRGGBB" (the leading # is optional) into a CSS
// "rgba(r, g, b, alpha)" string. ok is false when hex is not exactly six
// hex digits.
func HexToRGBA(hex string, alpha float64) (rgba string, ok bool) {
	c, ok := parseHex6(hex)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B,
		strconv.FormatFloat(alpha, 'f', -1, 64)), true
}

// HexToNRGBA parses a six digit hex colour and applies alpha in [0, 1].
func HexToNRGBA(hex string, alpha float64) (color.NRGBA, bool) {
	c, ok := parseHex6(hex)
	if !ok {
		return color.NRGBA{}, false
	}
	c.A = uint8(math.Round(clampUnit(alpha) * 255))
	return c, true
}

// ContrastText returns the label text colour for a background colour:
// white, or black when the background is very light. Malformed input gives
// white.
func ContrastText(hex string) color.Color {
	bg, ok := parseHex6(hex)
	if !ok {
		return color.White
	}
	c, _ := colorful.MakeColor(bg)
	if l, _, _ := c.Lab(); l > 0.8 {
		return color.Black
	}
	return color.White
}

// ValidHex reports whether s is a six digit hex colour.
func ValidHex(s string) bool {
	_, ok := parseHex6(s)
	return ok
}

func parseHex6(hex string) (color.NRGBA, bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.NRGBA{}, false
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, true
}

// parseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	hex = strings.TrimPrefix(hex, "#")

	switch len(hex) {
	case 6:
		c, ok := parseHex6(hex)
		if !ok {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q", hex)
		}
		return c, nil
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		return color.NRGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
