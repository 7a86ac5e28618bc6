package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
)

// CropResult contains a cropped region encoded as PNG.
type CropResult struct {
	EncodedImage
	Region geometry.Rect `json:"region"`
}

// CropRegion extracts r from img and optionally scales it. r is rounded
// outwards to whole pixels.
func CropRegion(img image.Image, r geometry.Rect, scale float64) (image.Image, error) {
	if !r.Finite() {
		return nil, fmt.Errorf("crop region %v is not finite", r)
	}
	rect := image.Rect(
		int(math.Floor(r.X1)), int(math.Floor(r.Y1)),
		int(math.Ceil(r.X2)), int(math.Ceil(r.Y2)),
	)
	bounds := img.Bounds()

	if !rect.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", rect, bounds)
	}
	if rect.Empty() {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	var cropped image.Image = imaging.Crop(img, rect)

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(rect.Dx()) * scale)
		newHeight := int(float64(rect.Dy()) * scale)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}
	return cropped, nil
}

// CropTile extracts tile (i, j) of grid from a capture of the challenge
// surface.
func CropTile(img image.Image, grid geometry.GridConfig, i, j int, scale float64) (*CropResult, error) {
	if i < 0 || i >= geometry.GridSize || j < 0 || j >= geometry.GridSize {
		return nil, fmt.Errorf("tile (%d,%d) outside the %dx%d grid", i, j, geometry.GridSize, geometry.GridSize)
	}

	r := grid.TileRect(i, j)
	cropped, err := CropRegion(img, r, scale)
	if err != nil {
		return nil, fmt.Errorf("tile (%d,%d): %w", i, j, err)
	}

	enc, err := EncodePNG(cropped)
	if err != nil {
		return nil, err
	}
	return &CropResult{EncodedImage: *enc, Region: r}, nil
}
