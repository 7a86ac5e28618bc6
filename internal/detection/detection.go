package detection

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
)

// ErrLengthMismatch is returned when the tensor slices of one inference call
// describe a different number of detections.
var ErrLengthMismatch = errors.New("detection tensors have mismatched lengths")

// Detection is one object found by the detector.
//
// Detections are produced once per inference call, in the detector's output
// order, and are not modified afterwards.
type Detection struct {
	// ClassID indexes the label table.
	ClassID int `json:"class_id"`

	// Score is the detector confidence in [0, 1].
	Score float64 `json:"score"`

	// Box is the bounding box in model space.
	Box geometry.Box `json:"box"`
}

// Percent formats the score the way the overlay shows it, e.g. "87.3".
func (d Detection) Percent() string {
	return fmt.Sprintf("%.1f", d.Score*100)
}

// Batch is the output of one inference call together with the ratio that
// maps it onto the displayed image.
type Batch struct {
	Detections []Detection           `json:"detections"`
	Ratio      geometry.DisplayRatio `json:"ratio"`
}

// FromTensors decodes the flat arrays produced by a detector into
// detections. boxes holds four values per detection in (y1, x1, y2, x2)
// order; scores and classes hold one value per detection.
//
// # Errors
//
//   - ErrLengthMismatch if len(boxes) != 4*len(scores) or
//     len(classes) != len(scores)
//   - an error for a negative class index
func FromTensors(boxes []float64, scores []float64, classes []int) ([]Detection, error) {
	if len(classes) != len(scores) || len(boxes) != 4*len(scores) {
		return nil, fmt.Errorf("%w: %d boxes values, %d scores, %d classes",
			ErrLengthMismatch, len(boxes), len(scores), len(classes))
	}

	dets := make([]Detection, len(scores))
	for i := range scores {
		if classes[i] < 0 {
			return nil, fmt.Errorf("detection %d: negative class index %d", i, classes[i])
		}
		dets[i] = Detection{
			ClassID: classes[i],
			Score:   scores[i],
			Box:     geometry.BoxFromSlice(boxes[i*4 : (i+1)*4]),
		}
	}
	return dets, nil
}

// ScoreFilter returns the detections scoring at least minScore, keeping
// their order. A minScore of zero or less returns the input unchanged.
func ScoreFilter(dets []Detection, minScore float64) []Detection {
	if minScore <= 0 {
		return dets
	}
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Score >= minScore {
			out = append(out, d)
		}
	}
	return out
}

// SortByScore returns a copy of dets ordered by descending score. Equal
// scores keep their detector order. The final activation set does not
// depend on order; sorting only changes the order of activation calls.
func SortByScore(dets []Detection) []Detection {
	out := make([]Detection, len(dets))
	copy(out, dets)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
