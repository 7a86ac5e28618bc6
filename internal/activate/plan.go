package activate

import (
	"sync"

	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
)

// Plan records activation points without touching anything. Every call
// succeeds. The caller replays the points against the real surface.
type Plan struct {
	mu     sync.Mutex
	points []geometry.Point
}

// NewPlan returns an empty plan.
func NewPlan() *Plan {
	return &Plan{}
}

// ActivateAt appends p to the plan.
func (p *Plan) ActivateAt(pt geometry.Point) error {
	p.mu.Lock()
	p.points = append(p.points, pt)
	p.mu.Unlock()
	return nil
}

// Points returns a copy of the recorded points in call order.
func (p *Plan) Points() []geometry.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]geometry.Point, len(p.points))
	copy(out, p.points)
	return out
}
