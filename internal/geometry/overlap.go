package geometry

// Overlaps reports whether two rectangles intersect. Touching edges count as
// overlapping. The test is symmetric, and any non-finite coordinate on
// either side yields false.
func Overlaps(a, b Rect) bool {
	if !a.Finite() || !b.Finite() {
		return false
	}
	if a.X2 < b.X1 || b.X2 < a.X1 {
		return false
	}
	if a.Y2 < b.Y1 || b.Y2 < a.Y1 {
		return false
	}
	return true
}

// OverlappingTiles returns the tiles of g that r overlaps, in row-major order.
func (g GridConfig) OverlappingTiles(r Rect) []Tile {
	var hits []Tile
	for i := 0; i < GridSize; i++ {
		for j := 0; j < GridSize; j++ {
			if Overlaps(r, g.TileRect(i, j)) {
				hits = append(hits, g.Tile(i, j))
			}
		}
	}
	return hits
}
