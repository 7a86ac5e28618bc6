package activate

import (
	"fmt"

	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
	"github.com/ironsheep/detection-tiles-mcp/internal/solver"
)

// Element is one interactive element of the challenge surface.
type Element struct {
	ID   string        `json:"id"`
	Rect geometry.Rect `json:"rect"`
}

// Elements hit-tests activation points against a list of elements given in
// paint order: when several contain a point, the last one is on top and
// receives the activation.
type Elements struct {
	elements []Element
	clicked  []string
}

// NewElements creates a hit-tester over elems.
func NewElements(elems []Element) *Elements {
	return &Elements{elements: elems}
}

// ElementAt returns the topmost element containing p.
func (e *Elements) ElementAt(p geometry.Point) (Element, bool) {
	for i := len(e.elements) - 1; i >= 0; i-- {
		if e.elements[i].Rect.Contains(p) {
			return e.elements[i], true
		}
	}
	return Element{}, false
}

// ActivateAt records a click on the element under p. It fails with
// solver.ErrActivationTargetMissing when no element contains p.
func (e *Elements) ActivateAt(p geometry.Point) error {
	el, ok := e.ElementAt(p)
	if !ok {
		return fmt.Errorf("%w: (%g, %g)", solver.ErrActivationTargetMissing, p.X, p.Y)
	}
	e.clicked = append(e.clicked, el.ID)
	return nil
}

// Clicked returns the ids of clicked elements in call order.
func (e *Elements) Clicked() []string {
	out := make([]string, len(e.clicked))
	copy(out, e.clicked)
	return out
}
