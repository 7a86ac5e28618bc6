package activate

import (
	"errors"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/detection-tiles-mcp/internal/detection"
	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
	"github.com/ironsheep/detection-tiles-mcp/internal/solver"
)

var (
	_ solver.Activator = (*Plan)(nil)
	_ solver.Activator = (*Elements)(nil)
	_ solver.Activator = (*Screen)(nil)
)

func TestPlan(t *testing.T) {
	p := NewPlan()
	pts := []geometry.Point{{X: 17, Y: 137}, {X: 114, Y: 137}}
	for _, pt := range pts {
		if err := p.ActivateAt(pt); err != nil {
			t.Fatalf("ActivateAt: %v", err)
		}
	}

	got := p.Points()
	if diff := cmp.Diff(pts, got); diff != "" {
		t.Errorf("Points (-want +got):\n%s", diff)
	}

	got[0] = geometry.Point{}
	if p.Points()[0] != pts[0] {
		t.Error("Points should return a copy")
	}
}

// gridElements returns one element per tile of the default grid.
func gridElements(skip int) []Element {
	var elems []Element
	for _, tile := range geometry.DefaultGridConfig().Tiles() {
		if tile.Index == skip {
			continue
		}
		elems = append(elems, Element{ID: tileID(tile.Index), Rect: tile.Rect})
	}
	return elems
}

func tileID(i int) string {
	return "tile-" + string(rune('a'+i))
}

func TestElements_HitTest(t *testing.T) {
	e := NewElements([]Element{
		{ID: "background", Rect: geometry.Rect{X1: 0, Y1: 0, X2: 400, Y2: 600}},
		{ID: "button", Rect: geometry.Rect{X1: 10, Y1: 10, X2: 50, Y2: 30}},
	})

	tests := []struct {
		name string
		p    geometry.Point
		want string
		ok   bool
	}{
		{"topmost wins", geometry.Point{X: 20, Y: 20}, "button", true},
		{"edge included", geometry.Point{X: 50, Y: 30}, "button", true},
		{"underneath", geometry.Point{X: 100, Y: 100}, "background", true},
		{"outside", geometry.Point{X: 500, Y: 100}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, ok := e.ElementAt(tt.p)
			if ok != tt.ok || el.ID != tt.want {
				t.Errorf("ElementAt(%v) = %q, %v; want %q, %v", tt.p, el.ID, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestElements_Missing(t *testing.T) {
	e := NewElements(nil)

	err := e.ActivateAt(geometry.Point{X: 1, Y: 2})
	if !errors.Is(err, solver.ErrActivationTargetMissing) {
		t.Errorf("got %v, want ErrActivationTargetMissing", err)
	}
	if len(e.Clicked()) != 0 {
		t.Error("a miss should not record a click")
	}
}

func TestElements_WithController(t *testing.T) {
	// tile 1 has no element behind it
	e := NewElements(gridElements(1))
	c := solver.NewController(geometry.DefaultGridConfig(), detection.DefaultLabels(), e, nil)
	dets := []detection.Detection{
		{ClassID: 2, Score: 0.8, Box: geometry.Box{Y1: 150, X1: 50, Y2: 250, X2: 150}},
	}

	res := c.Activate(solver.NewState(), dets, geometry.DisplayRatio{X: 1, Y: 1}, "car")

	if diff := cmp.Diff([]string{tileID(0), tileID(4), tileID(5)}, e.Clicked()); diff != "" {
		t.Errorf("Clicked (-want +got):\n%s", diff)
	}
	if !errors.Is(res.Err(), solver.ErrActivationTargetMissing) {
		t.Errorf("Err: got %v", res.Err())
	}
	if len(res.Failed()) != 1 {
		t.Errorf("Failed: got %d, want 1", len(res.Failed()))
	}
}

func TestScreen_ScreenPoint(t *testing.T) {
	s := NewScreen(geometry.Point{X: 100, Y: 50})

	x, y := s.ScreenPoint(geometry.Point{X: 17, Y: 137.6})
	if x != 117 || y != 188 {
		t.Errorf("ScreenPoint: got (%d,%d), want (117,188)", x, y)
	}
}

func TestScreen_Unsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("would move the real cursor")
	}
	err := NewScreen(geometry.Point{}).ActivateAt(geometry.Point{X: 1, Y: 1})
	if !errors.Is(err, ErrScreenUnsupported) {
		t.Errorf("got %v, want ErrScreenUnsupported", err)
	}
}
