package geometry

import "fmt"

// GridSize is the number of rows and columns in the challenge grid.
const GridSize = 4

// TileCount is the number of tiles in the challenge grid.
const TileCount = GridSize * GridSize

// GridConfig describes where the tile grid sits on the challenge surface.
type GridConfig struct {
	// OriginX, OriginY locate the top-left corner of tile (0,0).
	OriginX float64 `json:"origin_x"`
	OriginY float64 `json:"origin_y"`

	// TileSize is the edge length of every tile.
	TileSize float64 `json:"tile_size"`

	// Gap is the spacing between neighbouring tiles.
	Gap float64 `json:"gap"`

	// Inset offsets the click point from a tile's top-left corner on both axes.
	Inset float64 `json:"inset"`
}

// DefaultGridConfig returns the layout of the 4x4 image challenge.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		OriginX:  7,
		OriginY:  127,
		TileSize: 95,
		Gap:      2,
		Inset:    10,
	}
}

// Validate rejects layouts that cannot produce a usable grid.
func (g GridConfig) Validate() error {
	if !finite(g.OriginX) || !finite(g.OriginY) || !finite(g.Gap) || !finite(g.Inset) {
		return fmt.Errorf("grid values must be finite")
	}
	if !finite(g.TileSize) || g.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive, got %v", g.TileSize)
	}
	if g.Gap < 0 {
		return fmt.Errorf("gap must not be negative, got %v", g.Gap)
	}
	if g.Inset < 0 || g.Inset > g.TileSize {
		return fmt.Errorf("inset %v must lie within the tile size %v", g.Inset, g.TileSize)
	}
	return nil
}

// Tile is one cell of the grid with its geometry.
type Tile struct {
	Row   int   `json:"row"`
	Col   int   `json:"col"`
	Index int   `json:"index"`
	Rect  Rect  `json:"rect"`
	Click Point `json:"click"`
}

// Index returns the row-major grid index of tile (i, j).
func Index(i, j int) int {
	return i*GridSize + j
}

// Cell returns the row and column of a grid index.
func Cell(index int) (i, j int) {
	return index / GridSize, index % GridSize
}

// TileRect returns the rectangle of tile (i, j), where i is the row and j
// the column. Rows and columns step by a uniform TileSize+Gap, so with the
// default layout every gap is exactly Gap pixels wide and tile (3,3) ends at
// (393,513).
func (g GridConfig) TileRect(i, j int) Rect {
	pitch := g.TileSize + g.Gap
	x1 := g.OriginX + float64(j)*pitch
	y1 := g.OriginY + float64(i)*pitch
	return Rect{X1: x1, Y1: y1, X2: x1 + g.TileSize, Y2: y1 + g.TileSize}
}

// ClickPoint returns the point inside tile (i, j) where an activation lands.
func (g GridConfig) ClickPoint(i, j int) Point {
	r := g.TileRect(i, j)
	return Point{X: r.X1 + g.Inset, Y: r.Y1 + g.Inset}
}

// Tile returns tile (i, j) with its index, rectangle and click point.
func (g GridConfig) Tile(i, j int) Tile {
	return Tile{
		Row:   i,
		Col:   j,
		Index: Index(i, j),
		Rect:  g.TileRect(i, j),
		Click: g.ClickPoint(i, j),
	}
}

// Tiles returns all tiles in row-major order.
func (g GridConfig) Tiles() []Tile {
	tiles := make([]Tile, 0, TileCount)
	for i := 0; i < GridSize; i++ {
		for j := 0; j < GridSize; j++ {
			tiles = append(tiles, g.Tile(i, j))
		}
	}
	return tiles
}

// Bounds returns the rectangle enclosing the whole grid.
func (g GridConfig) Bounds() Rect {
	first := g.TileRect(0, 0)
	last := g.TileRect(GridSize-1, GridSize-1)
	return Rect{X1: first.X1, Y1: first.Y1, X2: last.X2, Y2: last.Y2}
}
