package solver

import (
	"fmt"

	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
)

// State records which tiles have been activated during one attempt.
//
// Cells only ever go from false to true. A State must not be shared by
// concurrent passes; start a new attempt with NewState instead of resetting.
type State struct {
	cells [geometry.TileCount]bool
}

// NewState returns a state with no activated tiles.
func NewState() *State {
	return &State{}
}

// Activated reports whether the tile at grid index has been activated.
// Out of range indices report false.
func (s *State) Activated(index int) bool {
	if index < 0 || index >= geometry.TileCount {
		return false
	}
	return s.cells[index]
}

// mark sets the cell for index and reports whether it was previously unset.
func (s *State) mark(index int) bool {
	if s.cells[index] {
		return false
	}
	s.cells[index] = true
	return true
}

// Count returns the number of activated tiles.
func (s *State) Count() int {
	n := 0
	for _, on := range s.cells {
		if on {
			n++
		}
	}
	return n
}

// Indices returns the activated grid indices in ascending order.
func (s *State) Indices() []int {
	out := make([]int, 0, geometry.TileCount)
	for i, on := range s.cells {
		if on {
			out = append(out, i)
		}
	}
	return out
}

// Cells returns a copy of all 16 cells in row-major order.
func (s *State) Cells() [geometry.TileCount]bool {
	return s.cells
}

// String renders the grid as four rows of '#' (active) and '.' cells.
func (s *State) String() string {
	b := make([]byte, 0, geometry.TileCount+geometry.GridSize)
	for i, on := range s.cells {
		if i > 0 && i%geometry.GridSize == 0 {
			b = append(b, '/')
		}
		if on {
			b = append(b, '#')
		} else {
			b = append(b, '.')
		}
	}
	return fmt.Sprintf("[%s]", b)
}
