package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
)

// DefaultChangeThreshold is the similarity below which a tile counts as
// replaced.
const DefaultChangeThreshold = 0.9

// pixelDistance is the CIE76 distance at which two pixels differ.
const pixelDistance = 0.05

// TileComparison describes how one tile differs between two captures.
type TileComparison struct {
	Index            int     `json:"index"`
	Row              int     `json:"row"`
	Col              int     `json:"col"`
	SimilarityScore  float64 `json:"similarity_score"`
	PixelsDifferent  int     `json:"pixels_different"`
	TotalPixels      int     `json:"total_pixels"`
	AverageColorDiff float64 `json:"average_color_diff"`
	Changed          bool    `json:"changed"`
}

// CompareTilesResult lists every tile in row-major order plus the indices of
// the tiles that changed.
type CompareTilesResult struct {
	Tiles   []TileComparison `json:"tiles"`
	Changed []int            `json:"changed"`
}

// CompareTiles compares each tile of grid between two captures of the
// challenge surface. Tiles whose similarity falls below threshold are
// reported as changed, which is how a refreshed tile shows up after a pass.
func CompareTiles(before, after image.Image, grid geometry.GridConfig, threshold float64) (*CompareTilesResult, error) {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultChangeThreshold
	}
	bounds := grid.Bounds()
	for _, img := range []image.Image{before, after} {
		b := img.Bounds()
		if bounds.X1 < float64(b.Min.X) || bounds.Y1 < float64(b.Min.Y) ||
			bounds.X2 > float64(b.Max.X) || bounds.Y2 > float64(b.Max.Y) {
			return nil, fmt.Errorf("grid %v outside image bounds %v", bounds, b)
		}
	}

	result := &CompareTilesResult{Changed: []int{}}
	for _, tile := range grid.Tiles() {
		cmp := compareRegion(before, after, tile.Rect)
		cmp.Index, cmp.Row, cmp.Col = tile.Index, tile.Row, tile.Col
		cmp.Changed = cmp.SimilarityScore < threshold
		if cmp.Changed {
			result.Changed = append(result.Changed, tile.Index)
		}
		result.Tiles = append(result.Tiles, cmp)
	}
	return result, nil
}

func compareRegion(a, b image.Image, r geometry.Rect) TileComparison {
	x1, y1 := int(math.Floor(r.X1)), int(math.Floor(r.Y1))
	x2, y2 := int(math.Ceil(r.X2)), int(math.Ceil(r.Y2))

	total := (x2 - x1) * (y2 - y1)
	if total <= 0 {
		return TileComparison{SimilarityScore: 1}
	}

	different := 0
	var totalDiff float64
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			ca, _ := colorful.MakeColor(a.At(x, y))
			cb, _ := colorful.MakeColor(b.At(x, y))
			d := ca.DistanceCIE76(cb)
			totalDiff += d
			if d > pixelDistance {
				different++
			}
		}
	}

	similarity := 1.0 - float64(different)/float64(total)
	return TileComparison{
		SimilarityScore:  math.Round(similarity*1000) / 1000,
		PixelsDifferent:  different,
		TotalPixels:      total,
		AverageColorDiff: math.Round(totalDiff/float64(total)*1000) / 1000,
	}
}
