package imaging

import (
	"image"
	"image/color"
	"strconv"

	"github.com/fogleman/gg"

	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
)

// GridOverlayResult contains a challenge capture with the tile grid drawn on
// top, plus the tile geometry that was drawn.
type GridOverlayResult struct {
	EncodedImage
	Tiles []geometry.Tile `json:"tiles"`
}

// defaultGridColor is used when the requested colour does not parse.
var defaultGridColor = color.NRGBA{R: 255, G: 0, B: 0, A: 160}

// TileGridOverlay draws every tile of grid onto a copy of img. Each tile gets
// an outline, a dot at its click point and, if showIndex is set, its grid
// index in the top-left corner. It is meant for checking a GridConfig
// against a capture of the challenge surface taken at its native scale.
func TileGridOverlay(img image.Image, grid geometry.GridConfig, showIndex bool, gridColorHex string) (*GridOverlayResult, error) {
	gridColor, err := parseHexColor(gridColorHex)
	if err != nil {
		gridColor = defaultGridColor
	}

	dc := gg.NewContextForImage(img)
	DrawTileGrid(dc, grid, gridColor, showIndex)

	enc, err := EncodePNG(dc.Image())
	if err != nil {
		return nil, err
	}
	return &GridOverlayResult{EncodedImage: *enc, Tiles: grid.Tiles()}, nil
}

// DrawTileGrid outlines the tiles of grid on dc.
func DrawTileGrid(dc *gg.Context, grid geometry.GridConfig, c color.Color, showIndex bool) {
	lineWidth := 2.0
	fontSize := grid.TileSize / 5
	if fontSize < 10 {
		fontSize = 10
	}
	if showIndex {
		dc.SetFontFace(FontFace(fontSize))
	}

	for _, tile := range grid.Tiles() {
		r := tile.Rect
		dc.SetColor(c)
		dc.SetLineWidth(lineWidth)
		dc.DrawRectangle(r.X1, r.Y1, r.Width(), r.Height())
		dc.Stroke()

		dc.DrawCircle(tile.Click.X, tile.Click.Y, 3)
		dc.Fill()

		if showIndex {
			label := strconv.Itoa(tile.Index)
			w, h := dc.MeasureString(label)
			x := r.X2 - w - lineWidth - 2
			y := r.Y1 + lineWidth + 2
			dc.SetColor(color.NRGBA{A: 180})
			dc.DrawRectangle(x-2, y-1, w+4, h+2)
			dc.Fill()
			dc.SetColor(color.White)
			dc.DrawStringAnchored(label, x, y, 0, 1)
		}
	}
}
