// Package geometry maps detector output onto the challenge tile grid.
//
// Three coordinate spaces are involved:
//   - Model space: boxes as produced by the detector, relative to its fixed
//     input resolution. Boxes are ordered (y1, x1, y2, x2).
//   - Display space: pixels of the rendered overlay image. A model box is
//     multiplied by the DisplayRatio to land here.
//   - Original space: pixels of the embedded challenge surface. A model box is
//     divided by the DisplayRatio to land here, and tiles are defined here.
//
// # Tile Grid
//
// The challenge grid is 4x4. Tile (i, j) is row i, column j, and its grid
// index is i*4+j. Positions come from a GridConfig rather than literals
// because they depend on the challenge widget's layout.
//
// # Overlap
//
// Rectangles overlap when neither lies entirely to one side of the other.
// Shared edges count as overlap. A rectangle with any NaN or infinite
// coordinate never overlaps anything, which is what a degenerate
// DisplayRatio produces.
//
// All functions in this package are pure and safe for concurrent use.
package geometry
