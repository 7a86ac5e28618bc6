// Package detection holds the detector's output as the solver sees it: one
// Detection per object with a class index, a confidence and a model-space
// box, grouped into a Batch. It also owns the LabelTable that turns class
// indices into names.
//
// Detectors usually emit flat tensors. FromTensors splits them into
// detections and rejects tensors whose lengths disagree. ScoreFilter and
// SortByScore only change which detections the solver sees and in what
// order. Neither affects how a single detection is matched.
//
// Class indices without a label render as "unknown:<id>" and never match a
// target.
package detection
