package detection

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
)

func TestFromTensors(t *testing.T) {
	boxes := []float64{
		100, 100, 200, 200,
		10, 20, 30, 40,
	}
	scores := []float64{0.9, 0.45}
	classes := []int{2, 0}

	got, err := FromTensors(boxes, scores, classes)
	if err != nil {
		t.Fatalf("FromTensors failed: %v", err)
	}

	want := []Detection{
		{ClassID: 2, Score: 0.9, Box: geometry.Box{Y1: 100, X1: 100, Y2: 200, X2: 200}},
		{ClassID: 0, Score: 0.45, Box: geometry.Box{Y1: 10, X1: 20, Y2: 30, X2: 40}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("detections mismatch (-want +got):\n%s", diff)
	}
}

func TestFromTensors_Empty(t *testing.T) {
	got, err := FromTensors(nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d detections, want 0", len(got))
	}
}

func TestFromTensors_Errors(t *testing.T) {
	tests := []struct {
		name     string
		boxes    []float64
		scores   []float64
		classes  []int
		mismatch bool
	}{
		{"short boxes", []float64{1, 2, 3}, []float64{0.5}, []int{1}, true},
		{"extra class", []float64{1, 2, 3, 4}, []float64{0.5}, []int{1, 2}, true},
		{"negative class", []float64{1, 2, 3, 4}, []float64{0.5}, []int{-1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromTensors(tt.boxes, tt.scores, tt.classes)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if errors.Is(err, ErrLengthMismatch) != tt.mismatch {
				t.Errorf("errors.Is(ErrLengthMismatch) = %v, want %v (%v)", !tt.mismatch, tt.mismatch, err)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.8734, "87.3"},
		{1, "100.0"},
		{0, "0.0"},
		{0.05, "5.0"},
	}
	for _, tt := range tests {
		if got := (Detection{Score: tt.score}).Percent(); got != tt.want {
			t.Errorf("Percent(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestScoreFilter(t *testing.T) {
	dets := []Detection{{ClassID: 1, Score: 0.2}, {ClassID: 2, Score: 0.6}, {ClassID: 3, Score: 0.5}}

	got := ScoreFilter(dets, 0.5)
	if len(got) != 2 || got[0].ClassID != 2 || got[1].ClassID != 3 {
		t.Errorf("unexpected filter result %+v", got)
	}

	if got := ScoreFilter(dets, 0); len(got) != 3 {
		t.Errorf("zero threshold should keep all, got %d", len(got))
	}
}

func TestSortByScore(t *testing.T) {
	dets := []Detection{{ClassID: 1, Score: 0.2}, {ClassID: 2, Score: 0.9}, {ClassID: 3, Score: 0.2}}

	got := SortByScore(dets)
	var order []int
	for _, d := range got {
		order = append(order, d.ClassID)
	}
	if diff := cmp.Diff([]int{2, 1, 3}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if dets[0].ClassID != 1 {
		t.Error("SortByScore modified its input")
	}
}

func TestDefaultLabels(t *testing.T) {
	labels := DefaultLabels()
	if labels.Len() != 80 {
		t.Fatalf("Len() = %d, want 80", labels.Len())
	}

	tests := []struct {
		id   int
		want string
	}{
		{0, "person"},
		{2, "car"},
		{5, "bus"},
		{9, "traffic light"},
		{10, "fire hydrant"},
		{79, "toothbrush"},
	}
	for _, tt := range tests {
		got, ok := labels.Lookup(tt.id)
		if !ok || got != tt.want {
			t.Errorf("Lookup(%d) = %q, %v; want %q", tt.id, got, ok, tt.want)
		}
	}
}

func TestLookup_Missing(t *testing.T) {
	labels := DefaultLabels()
	for _, id := range []int{-1, 80, 1000} {
		if name, ok := labels.Lookup(id); ok {
			t.Errorf("Lookup(%d) = %q, expected miss", id, name)
		}
	}
}

func TestDisplay_Placeholder(t *testing.T) {
	labels := DefaultLabels()

	if got := labels.Display(2); got != "car" {
		t.Errorf("Display(2) = %q, want car", got)
	}

	got := labels.Display(99)
	if got != "unknown:99" {
		t.Errorf("Display(99) = %q, want unknown:99", got)
	}
	if labels.Contains(got) {
		t.Errorf("placeholder %q collides with a real label", got)
	}
}

func TestNewLabelTable_Errors(t *testing.T) {
	tests := []struct {
		name  string
		names []string
	}{
		{"empty name", []string{"car", ""}},
		{"duplicate", []string{"car", "bus", "car"}},
		{"reserved prefix", []string{"unknown:1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLabelTable(tt.names); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.json")
	if err := os.WriteFile(path, []byte(`["car", "bus", "bicycle"]`), 0o644); err != nil {
		t.Fatalf("failed to write labels: %v", err)
	}

	labels, err := LoadLabels(path)
	if err != nil {
		t.Fatalf("LoadLabels failed: %v", err)
	}
	if diff := cmp.Diff([]string{"car", "bus", "bicycle"}, labels.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLabels_Errors(t *testing.T) {
	if _, err := LoadLabels(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"not": "a list"}`), 0o644); err != nil {
		t.Fatalf("failed to write labels: %v", err)
	}
	_, err := LoadLabels(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse labels") {
		t.Errorf("expected parse error, got %v", err)
	}
}
