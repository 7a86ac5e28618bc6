package solver

import (
	"github.com/ironsheep/detection-tiles-mcp/internal/detection"
	"github.com/ironsheep/detection-tiles-mcp/internal/render"
)

// Engine runs the full pass for a detection batch: draw the overlay, then
// activate matching tiles.
type Engine struct {
	renderer   *render.Renderer
	controller *Controller
}

// NewEngine combines a renderer and a controller. renderer may be nil when
// no overlay is wanted.
func NewEngine(renderer *render.Renderer, controller *Controller) *Engine {
	return &Engine{renderer: renderer, controller: controller}
}

// Run processes batch to completion. The overlay is drawn onto surface
// first when both the surface and the renderer are present; drawing never
// affects which tiles are activated.
//
// Pass a nil interface to skip drawing. A typed nil such as a nil
// *gg.Context is a present surface and will be drawn on. Callers that build
// the surface conditionally should hold it in a render.Surface variable.
func (e *Engine) Run(surface render.Surface, batch detection.Batch, target string, state *State) *Result {
	if surface != nil && e.renderer != nil {
		e.renderer.Render(surface, batch.Detections, batch.Ratio)
	}
	return e.controller.Activate(state, batch.Detections, batch.Ratio, target)
}
