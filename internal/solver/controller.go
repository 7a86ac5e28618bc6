package solver

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/detection-tiles-mcp/internal/detection"
	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
)

// ErrActivationTargetMissing is returned by an Activator when nothing
// interactive lies under the requested point.
var ErrActivationTargetMissing = errors.New("no activation target at point")

// Activator performs one simulated click on the challenge surface.
type Activator interface {
	ActivateAt(p geometry.Point) error
}

// ActivatorFunc adapts a function to the Activator interface.
type ActivatorFunc func(p geometry.Point) error

// ActivateAt calls f(p).
func (f ActivatorFunc) ActivateAt(p geometry.Point) error {
	return f(p)
}

// Activation is one activator call made for a tile.
type Activation struct {
	Tile      geometry.Tile  `json:"tile"`
	Point     geometry.Point `json:"point"`
	Detection int            `json:"detection"`
	Err       error          `json:"-"`
	Error     string         `json:"error,omitempty"`
}

// Skip is a tile a matching detection overlapped after it was already
// activated.
type Skip struct {
	Index     int `json:"index"`
	Detection int `json:"detection"`
}

// Result describes one activation pass.
type Result struct {
	Target      string       `json:"target"`
	Matched     []int        `json:"matched"`
	Activations []Activation `json:"activations"`
	Skipped     []Skip       `json:"skipped"`
}

// Failed returns the activations whose activator call returned an error.
func (r *Result) Failed() []Activation {
	var out []Activation
	for _, a := range r.Activations {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

// Err combines every per-tile failure of the pass, or returns nil.
func (r *Result) Err() error {
	var err error
	for _, a := range r.Activations {
		if a.Err != nil {
			err = multierr.Append(err, fmt.Errorf("tile %d: %w", a.Tile.Index, a.Err))
		}
	}
	return err
}

// Controller decides which tiles a detection batch activates.
type Controller struct {
	grid      geometry.GridConfig
	labels    *detection.LabelTable
	activator Activator
	logger    *zap.SugaredLogger
}

// NewController creates a Controller. A nil logger disables logging.
func NewController(grid geometry.GridConfig, labels *detection.LabelTable, activator Activator, logger *zap.SugaredLogger) *Controller {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Controller{grid: grid, labels: labels, activator: activator, logger: logger}
}

// Grid returns the grid layout used for matching.
func (c *Controller) Grid() geometry.GridConfig {
	return c.grid
}

// Matches reports whether d resolves to a known label equal to target. An
// empty target matches nothing, and neither does a class without a label.
func (c *Controller) Matches(d detection.Detection, target string) bool {
	if target == "" {
		return false
	}
	label, ok := c.labels.Lookup(d.ClassID)
	return ok && label == target
}

// Activate runs one pass over dets in their given order. For each detection
// matching target, every tile its original-space box overlaps is marked in
// state and activated once, tiles in row-major order. Tiles already marked
// are skipped.
//
// A tile is marked before the activator is called, so a failed call is not
// retried by later detections or passes of the same attempt. Failures are
// recorded in the result and the pass continues.
func (c *Controller) Activate(state *State, dets []detection.Detection, ratio geometry.DisplayRatio, target string) *Result {
	res := &Result{Target: target}
	if target == "" {
		c.logger.Debugw("no target label, skipping activation", "detections", len(dets))
		return res
	}

	for di, d := range dets {
		if !c.Matches(d, target) {
			continue
		}
		res.Matched = append(res.Matched, di)

		box := geometry.Normalize(d.Box, ratio).Original
		for _, tile := range c.grid.OverlappingTiles(box) {
			if !state.mark(tile.Index) {
				res.Skipped = append(res.Skipped, Skip{Index: tile.Index, Detection: di})
				continue
			}

			act := Activation{Tile: tile, Point: tile.Click, Detection: di}
			if err := c.activator.ActivateAt(tile.Click); err != nil {
				act.Err = err
				act.Error = err.Error()
				c.logger.Warnw("tile activation failed",
					"tile", tile.Index, "x", tile.Click.X, "y", tile.Click.Y, "error", err)
			} else {
				c.logger.Debugw("tile activated", "tile", tile.Index, "detection", di)
			}
			res.Activations = append(res.Activations, act)
		}
	}

	c.logger.Infow("activation pass complete",
		"target", target,
		"matched", len(res.Matched),
		"activated", len(res.Activations),
		"failed", len(res.Failed()),
		"state", state.String(),
	)
	return res
}
