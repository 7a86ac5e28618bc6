package solver

import (
	"errors"
	"testing"

	"github.com/fogleman/gg"
	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/detection-tiles-mcp/internal/detection"
	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
	"github.com/ironsheep/detection-tiles-mcp/internal/render"
)

// COCO class ids used below.
const (
	classPerson = 0
	classCar    = 2
	classBus    = 5
)

// recorder is an Activator that records every point and fails the points
// listed in fail.
type recorder struct {
	points []geometry.Point
	fail   map[geometry.Point]error
}

func (r *recorder) ActivateAt(p geometry.Point) error {
	r.points = append(r.points, p)
	if err, ok := r.fail[p]; ok {
		return err
	}
	return nil
}

var unit = geometry.DisplayRatio{X: 1, Y: 1}

func newTestController(act Activator) *Controller {
	return NewController(geometry.DefaultGridConfig(), detection.DefaultLabels(), act, nil)
}

func det(class int, y1, x1, y2, x2 float64) detection.Detection {
	return detection.Detection{ClassID: class, Score: 0.9, Box: geometry.Box{Y1: y1, X1: x1, Y2: y2, X2: x2}}
}

func TestActivate_ScaledBoxOutsideGrid(t *testing.T) {
	// (100,100,200,200) at ratio 2 is (50,50,100,100) in original space,
	// which ends above tile (0,0) at y=127.
	rec := &recorder{}
	dets := []detection.Detection{det(classCar, 100, 100, 200, 200)}
	ratio := geometry.DisplayRatio{X: 2, Y: 2}

	n := geometry.Normalize(dets[0].Box, ratio)
	if want := (geometry.Rect{X1: 200, Y1: 200, X2: 400, Y2: 400}); n.Scaled != want {
		t.Errorf("Scaled: got %v, want %v", n.Scaled, want)
	}

	res := newTestController(rec).Activate(NewState(), dets, ratio, "car")

	if len(rec.points) != 0 {
		t.Errorf("got %d activations, want 0", len(rec.points))
	}
	if diff := cmp.Diff([]int{0}, res.Matched); diff != "" {
		t.Errorf("Matched (-want +got):\n%s", diff)
	}
}

func TestActivate_SingleTile(t *testing.T) {
	// (300,20,400,80) at ratio 2 is x 10..40, y 150..200: inside tile (0,0).
	rec := &recorder{}
	state := NewState()
	dets := []detection.Detection{det(classCar, 300, 20, 400, 80)}

	res := newTestController(rec).Activate(state, dets, geometry.DisplayRatio{X: 2, Y: 2}, "car")

	if diff := cmp.Diff([]geometry.Point{{X: 17, Y: 137}}, rec.points); diff != "" {
		t.Errorf("points (-want +got):\n%s", diff)
	}
	if !state.Activated(0) || state.Count() != 1 {
		t.Errorf("state: got %v, want only tile 0", state)
	}
	if len(res.Activations) != 1 || res.Activations[0].Tile.Index != 0 {
		t.Errorf("activations: got %+v", res.Activations)
	}
	if res.Err() != nil {
		t.Errorf("Err: got %v, want nil", res.Err())
	}
}

func TestActivate_DuplicateDetections(t *testing.T) {
	rec := &recorder{}
	dets := []detection.Detection{
		det(classCar, 240, 120, 300, 180),
		det(classCar, 250, 130, 310, 190),
	}

	res := newTestController(rec).Activate(NewState(), dets, unit, "car")

	if diff := cmp.Diff([]geometry.Point{{X: 114, Y: 234}}, rec.points); diff != "" {
		t.Errorf("points (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Skip{{Index: 5, Detection: 1}}, res.Skipped); diff != "" {
		t.Errorf("Skipped (-want +got):\n%s", diff)
	}
}

func TestActivate_EmptyTarget(t *testing.T) {
	rec := &recorder{}
	dets := []detection.Detection{
		det(classCar, 240, 120, 300, 180),
		det(classPerson, 130, 10, 200, 90),
	}

	res := newTestController(rec).Activate(NewState(), dets, unit, "")

	if len(rec.points) != 0 {
		t.Errorf("got %d activations, want 0", len(rec.points))
	}
	if len(res.Matched) != 0 {
		t.Errorf("Matched: got %v, want none", res.Matched)
	}
}

func TestActivate_UnknownClassNeverMatches(t *testing.T) {
	rec := &recorder{}
	dets := []detection.Detection{
		det(99, 130, 10, 200, 90),
		det(classCar, 240, 120, 300, 180),
	}
	c := newTestController(rec)

	for _, target := range []string{"car", detection.DefaultLabels().Display(99)} {
		rec.points = nil
		res := c.Activate(NewState(), dets, unit, target)

		for _, m := range res.Matched {
			if m == 0 {
				t.Errorf("target %q matched the unknown class", target)
			}
		}
		if target == "car" && len(rec.points) != 1 {
			t.Errorf("remaining detection should still activate, got %d calls", len(rec.points))
		}
	}
}

func TestActivate_OtherLabelsIgnored(t *testing.T) {
	rec := &recorder{}
	dets := []detection.Detection{
		det(classBus, 130, 10, 200, 90),
		det(classPerson, 240, 120, 300, 180),
	}

	newTestController(rec).Activate(NewState(), dets, unit, "car")

	if len(rec.points) != 0 {
		t.Errorf("got %d activations, want 0", len(rec.points))
	}
}

func TestActivate_SpanningDetection(t *testing.T) {
	rec := &recorder{}
	state := NewState()
	dets := []detection.Detection{det(classBus, 150, 50, 250, 150)}

	newTestController(rec).Activate(state, dets, unit, "bus")

	if diff := cmp.Diff([]int{0, 1, 4, 5}, state.Indices()); diff != "" {
		t.Errorf("activated (-want +got):\n%s", diff)
	}
	want := []geometry.Point{{X: 17, Y: 137}, {X: 114, Y: 137}, {X: 17, Y: 234}, {X: 114, Y: 234}}
	if diff := cmp.Diff(want, rec.points); diff != "" {
		t.Errorf("points (-want +got):\n%s", diff)
	}
}

func TestActivate_TouchingEdge(t *testing.T) {
	rec := &recorder{}
	state := NewState()
	// x2 == 7 touches the left edge of tile (0,0)
	dets := []detection.Detection{det(classCar, 130, 0, 140, 7)}

	newTestController(rec).Activate(state, dets, unit, "car")

	if diff := cmp.Diff([]int{0}, state.Indices()); diff != "" {
		t.Errorf("activated (-want +got):\n%s", diff)
	}
}

func TestActivate_Idempotent(t *testing.T) {
	rec := &recorder{}
	state := NewState()
	c := newTestController(rec)
	dets := []detection.Detection{
		det(classCar, 150, 50, 250, 150),
		det(classCar, 420, 300, 500, 390),
	}

	c.Activate(state, dets, unit, "car")
	first := len(rec.points)
	if first == 0 {
		t.Fatal("first pass activated nothing")
	}

	res := c.Activate(state, dets, unit, "car")
	if len(rec.points) != first {
		t.Errorf("second pass made %d more calls, want 0", len(rec.points)-first)
	}
	if len(res.Activations) != 0 {
		t.Errorf("second pass activations: got %d, want 0", len(res.Activations))
	}
	if len(res.Skipped) != first {
		t.Errorf("second pass skipped %d tiles, want %d", len(res.Skipped), first)
	}
}

func TestActivate_AtMostOncePerTile(t *testing.T) {
	rec := &recorder{}
	state := NewState()

	// Every detection covers the whole grid.
	var dets []detection.Detection
	for i := 0; i < 10; i++ {
		dets = append(dets, det(classCar, 0, 0, 600, 600))
	}

	newTestController(rec).Activate(state, dets, unit, "car")

	if len(rec.points) != geometry.TileCount {
		t.Errorf("got %d calls, want %d", len(rec.points), geometry.TileCount)
	}
	seen := make(map[geometry.Point]int)
	for _, p := range rec.points {
		seen[p]++
		if seen[p] > 1 {
			t.Errorf("point %v activated %d times", p, seen[p])
		}
	}
	if state.Count() != geometry.TileCount {
		t.Errorf("Count: got %d, want %d", state.Count(), geometry.TileCount)
	}
}

func TestActivate_FailureContinues(t *testing.T) {
	rec := &recorder{fail: map[geometry.Point]error{
		{X: 114, Y: 137}: ErrActivationTargetMissing,
	}}
	state := NewState()
	dets := []detection.Detection{det(classCar, 150, 50, 250, 150)}

	res := newTestController(rec).Activate(state, dets, unit, "car")

	if len(rec.points) != 4 {
		t.Fatalf("got %d calls, want 4", len(rec.points))
	}
	failed := res.Failed()
	if len(failed) != 1 || failed[0].Tile.Index != 1 {
		t.Fatalf("Failed: got %+v, want tile 1", failed)
	}
	if failed[0].Error == "" {
		t.Error("failed activation should carry an error message")
	}
	if err := res.Err(); !errors.Is(err, ErrActivationTargetMissing) {
		t.Errorf("Err: got %v, want ErrActivationTargetMissing", err)
	}
	// the failed tile stays marked
	if !state.Activated(1) {
		t.Error("failed tile should remain marked")
	}
}

func TestActivate_InvalidRatio(t *testing.T) {
	rec := &recorder{}
	dets := []detection.Detection{det(classCar, 150, 50, 250, 150)}

	newTestController(rec).Activate(NewState(), dets, geometry.DisplayRatio{}, "car")

	if len(rec.points) != 0 {
		t.Errorf("degenerate ratio produced %d activations", len(rec.points))
	}
}

func TestState(t *testing.T) {
	s := NewState()
	if s.Count() != 0 || len(s.Indices()) != 0 {
		t.Fatal("new state should be empty")
	}
	if !s.mark(5) {
		t.Error("first mark should report a change")
	}
	if s.mark(5) {
		t.Error("second mark should report no change")
	}
	if s.Activated(-1) || s.Activated(geometry.TileCount) {
		t.Error("out of range indices should report false")
	}
	if got, want := s.String(), "[..../.#../..../....]"; got != want {
		t.Errorf("String: got %s, want %s", got, want)
	}
}

func TestEngine_Run(t *testing.T) {
	rec := &recorder{}
	labels := detection.DefaultLabels()
	engine := NewEngine(
		render.New(render.DefaultOptions(), labels, nil),
		NewController(geometry.DefaultGridConfig(), labels, rec, nil),
	)
	batch := detection.Batch{
		Detections: []detection.Detection{det(classCar, 240, 120, 300, 180)},
		Ratio:      unit,
	}

	dc := gg.NewContext(640, 640)
	res := engine.Run(dc, batch, "car", NewState())
	if len(res.Activations) != 1 {
		t.Errorf("activations: got %d, want 1", len(res.Activations))
	}
	if _, _, _, a := dc.Image().At(150, 270).RGBA(); a == 0 {
		t.Error("overlay was not drawn")
	}

	// without a surface only activation runs
	res = engine.Run(nil, batch, "car", NewState())
	if len(res.Activations) != 1 {
		t.Errorf("activations without surface: got %d, want 1", len(res.Activations))
	}
}

// A surface built only when a capture exists stays a nil interface
// otherwise, and Run must not draw on it.
func TestEngine_Run_ConditionalSurface(t *testing.T) {
	labels := detection.DefaultLabels()
	engine := NewEngine(
		render.New(render.DefaultOptions(), labels, nil),
		NewController(geometry.DefaultGridConfig(), labels, &recorder{}, nil),
	)
	batch := detection.Batch{
		Detections: []detection.Detection{det(classCar, 240, 120, 300, 180)},
		Ratio:      unit,
	}

	for _, haveCapture := range []bool{false, true} {
		var (
			dc      *gg.Context
			surface render.Surface
		)
		if haveCapture {
			dc = gg.NewContext(640, 640)
			surface = dc
		}

		res := engine.Run(surface, batch, "car", NewState())
		if len(res.Activations) != 1 {
			t.Errorf("capture=%v: got %d activations, want 1", haveCapture, len(res.Activations))
		}
		if haveCapture {
			if _, _, _, a := dc.Image().At(150, 270).RGBA(); a == 0 {
				t.Error("overlay was not drawn")
			}
		}
	}
}
