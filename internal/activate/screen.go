package activate

import (
	"errors"
	"math"
	"time"

	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
)

// ErrScreenUnsupported is returned by Screen on platforms without a click
// implementation.
var ErrScreenUnsupported = errors.New("screen activation is only supported on windows")

// defaultPressDelay is the time between button down and up.
const defaultPressDelay = 30 * time.Millisecond

// Screen clicks the left mouse button at Origin + p in desktop pixels.
// Origin is where the challenge surface's (0,0) sits on screen.
type Screen struct {
	Origin geometry.Point
	Delay  time.Duration
}

// NewScreen creates a Screen activator for a surface at origin.
func NewScreen(origin geometry.Point) *Screen {
	return &Screen{Origin: origin, Delay: defaultPressDelay}
}

// ScreenPoint converts a surface point to integer desktop coordinates.
func (s *Screen) ScreenPoint(p geometry.Point) (x, y int) {
	return int(math.Round(s.Origin.X + p.X)), int(math.Round(s.Origin.Y + p.Y))
}

// ActivateAt moves the cursor to p and clicks.
func (s *Screen) ActivateAt(p geometry.Point) error {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return errors.New("activation point is not finite")
	}
	x, y := s.ScreenPoint(p)
	return click(x, y, s.Delay)
}
