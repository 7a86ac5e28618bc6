package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"github.com/ironsheep/detection-tiles-mcp/internal/activate"
	"github.com/ironsheep/detection-tiles-mcp/internal/detection"
	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
	"github.com/ironsheep/detection-tiles-mcp/internal/imaging"
	"github.com/ironsheep/detection-tiles-mcp/internal/render"
	"github.com/ironsheep/detection-tiles-mcp/internal/solver"
)

// errInvalidArgs marks argument errors, reported as JSON-RPC -32602.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "tiles_solve").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments return code -32602, other tool failures -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Warnw("tool failed", "tool", params.Name, "error", err)
		if errors.Is(err, errInvalidArgs) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Grid
	case "tiles_labels":
		return s.handleLabels(args)
	case "tiles_grid_layout":
		return s.handleGridLayout(args)
	case "tiles_grid_overlay":
		return s.handleGridOverlay(args)
	case "tiles_crop_tile":
		return s.handleCropTile(args)
	case "tiles_compare":
		return s.handleCompareTiles(args)

	// Detections
	case "tiles_render":
		return s.handleRender(args)
	case "tiles_target_label":
		return s.handleTargetLabel(args)

	// Attempts
	case "tiles_new_attempt":
		return s.handleNewAttempt(args)
	case "tiles_end_attempt":
		return s.handleEndAttempt(args)
	case "tiles_solve":
		return s.handleSolve(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
		},
	}
	if data != "" {
		resp.Error.Data = data
	}
	return resp
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, tagging failures as errInvalidArgs.
// Missing arguments decode as an empty object.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

// gridOrDefault returns override when set, else the configured grid.
func (s *Server) gridOrDefault(override *geometry.GridConfig) (geometry.GridConfig, error) {
	if override == nil {
		return s.cfg.Grid, nil
	}
	if err := override.Validate(); err != nil {
		return geometry.GridConfig{}, fmt.Errorf("%w: grid: %v", errInvalidArgs, err)
	}
	return *override, nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Grid Handlers ===

type labelsResult struct {
	Count  int      `json:"count"`
	Labels []string `json:"labels"`
}

func (s *Server) handleLabels(json.RawMessage) (interface{}, error) {
	return &labelsResult{Count: s.labels.Len(), Labels: s.labels.Names()}, nil
}

type gridArgs struct {
	Grid *geometry.GridConfig `json:"grid"`
}

type gridLayoutResult struct {
	Grid   geometry.GridConfig `json:"grid"`
	Bounds geometry.Rect       `json:"bounds"`
	Tiles  []geometry.Tile     `json:"tiles"`
}

func (s *Server) handleGridLayout(args json.RawMessage) (interface{}, error) {
	var a gridArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	grid, err := s.gridOrDefault(a.Grid)
	if err != nil {
		return nil, err
	}
	return &gridLayoutResult{Grid: grid, Bounds: grid.Bounds(), Tiles: grid.Tiles()}, nil
}

type gridOverlayArgs struct {
	Path      string               `json:"path"`
	Grid      *geometry.GridConfig `json:"grid"`
	ShowIndex *bool                `json:"show_index"`
	Color     string               `json:"color"`
}

func (s *Server) handleGridOverlay(args json.RawMessage) (interface{}, error) {
	var a gridOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	grid, err := s.gridOrDefault(a.Grid)
	if err != nil {
		return nil, err
	}
	showIndex := true
	if a.ShowIndex != nil {
		showIndex = *a.ShowIndex
	}
	if a.Color == "" {
		a.Color = "#FF0000A0"
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.TileGridOverlay(img, grid, showIndex, a.Color)
}

type cropTileArgs struct {
	Path  string               `json:"path"`
	Row   int                  `json:"row"`
	Col   int                  `json:"col"`
	Scale float64              `json:"scale"`
	Grid  *geometry.GridConfig `json:"grid"`
}

func (s *Server) handleCropTile(args json.RawMessage) (interface{}, error) {
	var a cropTileArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	grid, err := s.gridOrDefault(a.Grid)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CropTile(img, grid, a.Row, a.Col, a.Scale)
}

type compareTilesArgs struct {
	Before    string               `json:"before"`
	After     string               `json:"after"`
	Threshold float64              `json:"threshold"`
	Grid      *geometry.GridConfig `json:"grid"`
}

func (s *Server) handleCompareTiles(args json.RawMessage) (interface{}, error) {
	var a compareTilesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Before == "" || a.After == "" {
		return nil, fmt.Errorf("%w: before and after are required", errInvalidArgs)
	}
	grid, err := s.gridOrDefault(a.Grid)
	if err != nil {
		return nil, err
	}
	before, err := s.cache.Load(a.Before)
	if err != nil {
		return nil, err
	}
	after, err := s.cache.Load(a.After)
	if err != nil {
		return nil, err
	}
	return imaging.CompareTiles(before, after, grid, a.Threshold)
}

// === Detection Handlers ===

// batchArgs carries a detection batch either as decoded detections or as
// the detector's flat output tensors.
type batchArgs struct {
	Detections []detection.Detection `json:"detections"`

	Boxes   []float64 `json:"boxes"`
	Scores  []float64 `json:"scores"`
	Classes []int     `json:"classes"`

	// Ratio defaults to the letterbox ratio of the capture, or 1:1
	// without one.
	Ratio *geometry.DisplayRatio `json:"ratio"`

	MinScore    *float64 `json:"min_score"`
	SortByScore bool     `json:"sort_by_score"`
}

// batch builds the detection batch described by a. img may be nil.
func (s *Server) batch(a batchArgs, img image.Image) (detection.Batch, error) {
	dets := a.Detections
	if len(a.Scores) > 0 || len(a.Boxes) > 0 || len(a.Classes) > 0 {
		if len(dets) > 0 {
			return detection.Batch{}, fmt.Errorf("%w: give either detections or tensors, not both", errInvalidArgs)
		}
		var err error
		dets, err = detection.FromTensors(a.Boxes, a.Scores, a.Classes)
		if err != nil {
			return detection.Batch{}, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
	}

	minScore := s.cfg.MinScore
	if a.MinScore != nil {
		minScore = *a.MinScore
	}
	dets = detection.ScoreFilter(dets, minScore)
	if a.SortByScore {
		dets = detection.SortByScore(dets)
	}

	ratio := geometry.DisplayRatio{X: 1, Y: 1}
	switch {
	case a.Ratio != nil:
		ratio = *a.Ratio
	case img != nil:
		b := img.Bounds()
		ratio = geometry.LetterboxRatio(b.Dx(), b.Dy())
	}
	if !ratio.Valid() {
		s.logger.Warnw("degenerate display ratio, no tile can match", "ratio", ratio)
	}

	return detection.Batch{Detections: dets, Ratio: ratio}, nil
}

type renderArgs struct {
	batchArgs
	Path string `json:"path"`
}

type renderResult struct {
	imaging.EncodedImage
	Detections int                   `json:"detections"`
	Ratio      geometry.DisplayRatio `json:"ratio"`
	Captions   []string              `json:"captions"`
}

func (s *Server) handleRender(args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	b, err := s.batch(a.batchArgs, img)
	if err != nil {
		return nil, err
	}
	return s.renderBatch(img, b)
}

// renderBatch composes the overlay for b over img.
func (s *Server) renderBatch(img image.Image, b detection.Batch) (*renderResult, error) {
	composed := s.renderer.RenderOnto(img, s.cfg.ModelWidth, s.cfg.ModelHeight, b.Detections, b.Ratio)
	enc, err := imaging.EncodePNG(composed)
	if err != nil {
		return nil, err
	}

	captions := make([]string, len(b.Detections))
	for i, d := range b.Detections {
		captions[i] = s.renderer.Caption(d)
	}
	return &renderResult{
		EncodedImage: *enc,
		Detections:   len(b.Detections),
		Ratio:        b.Ratio,
		Captions:     captions,
	}, nil
}

type targetLabelArgs struct {
	Path     string         `json:"path"`
	Text     string         `json:"text"`
	Region   *geometry.Rect `json:"region"`
	Language string         `json:"language"`
}

func (s *Server) handleTargetLabel(args json.RawMessage) (interface{}, error) {
	var a targetLabelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Text != "" {
		return s.reader.FromText(a.Text)
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path or text is required", errInvalidArgs)
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	reader := *s.reader
	if a.Region != nil {
		reader.Region = *a.Region
	}
	if a.Language != "" {
		reader.Language = a.Language
	}
	return reader.Read(img)
}

// === Attempt Handlers ===

type attemptArgs struct {
	AttemptID string `json:"attempt_id"`
}

type attemptResult struct {
	AttemptID string `json:"attempt_id"`
	Ended     bool   `json:"ended,omitempty"`
}

func (s *Server) handleNewAttempt(json.RawMessage) (interface{}, error) {
	return &attemptResult{AttemptID: s.newAttempt()}, nil
}

func (s *Server) handleEndAttempt(args json.RawMessage) (interface{}, error) {
	var a attemptArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if !s.endAttempt(a.AttemptID) {
		return nil, fmt.Errorf("unknown attempt: %q", a.AttemptID)
	}
	return &attemptResult{AttemptID: a.AttemptID, Ended: true}, nil
}

type solveArgs struct {
	batchArgs

	// Path is an optional capture to draw the overlay on.
	Path string `json:"path"`

	// Target is the label to select. TargetText is banner text to derive
	// it from when Target is empty.
	Target     string `json:"target"`
	TargetText string `json:"target_text"`

	// AttemptID continues an attempt; empty runs against a fresh state.
	AttemptID string `json:"attempt_id"`

	// Activator is "plan" (default), "elements" or "screen".
	Activator string               `json:"activator"`
	Elements  []activate.Element   `json:"elements"`
	Grid      *geometry.GridConfig `json:"grid"`
}

type solveResult struct {
	AttemptID string                `json:"attempt_id,omitempty"`
	Target    string                `json:"target"`
	Result    *solver.Result        `json:"result"`
	Plan      []geometry.Point      `json:"plan,omitempty"`
	Clicked   []string              `json:"clicked,omitempty"`
	Activated []int                 `json:"activated"`
	State     string                `json:"state"`
	Errors    string                `json:"errors,omitempty"`
	Overlay   *imaging.EncodedImage `json:"overlay,omitempty"`
}

func (s *Server) handleSolve(args json.RawMessage) (interface{}, error) {
	var a solveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	grid, err := s.gridOrDefault(a.Grid)
	if err != nil {
		return nil, err
	}

	var img image.Image
	if a.Path != "" {
		if img, err = s.cache.Load(a.Path); err != nil {
			return nil, err
		}
	}

	b, err := s.batch(a.batchArgs, img)
	if err != nil {
		return nil, err
	}

	target := a.Target
	if target == "" && a.TargetText != "" {
		tr, err := s.reader.FromText(a.TargetText)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
		target = tr.Target
	}

	state := solver.NewState()
	if a.AttemptID != "" {
		st, ok := s.attempt(a.AttemptID)
		if !ok {
			return nil, fmt.Errorf("unknown attempt: %q", a.AttemptID)
		}
		state = st
	}

	var (
		act   solver.Activator
		plan  *activate.Plan
		elems *activate.Elements
	)
	switch a.Activator {
	case "", "plan":
		plan = activate.NewPlan()
		act = plan
	case "elements":
		elems = activate.NewElements(a.Elements)
		act = elems
	case "screen":
		act = activate.NewScreen(s.cfg.ScreenOrigin)
	default:
		return nil, fmt.Errorf("%w: unknown activator %q", errInvalidArgs, a.Activator)
	}

	engine := solver.NewEngine(s.renderer, solver.NewController(grid, s.labels, act, s.logger.Named("solver")))

	// surface stays a nil interface without a capture, so nothing is drawn.
	var (
		dc      *gg.Context
		surface render.Surface
	)
	if img != nil {
		dc = gg.NewContext(s.cfg.ModelWidth, s.cfg.ModelHeight)
		surface = dc
	}

	// Attempts are single-writer; hold the lock for the whole pass.
	if a.AttemptID != "" {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	pass := engine.Run(surface, b, target, state)

	res := &solveResult{
		AttemptID: a.AttemptID,
		Target:    target,
		Result:    pass,
		Activated: state.Indices(),
		State:     state.String(),
	}
	if plan != nil {
		res.Plan = plan.Points()
	}
	if elems != nil {
		res.Clicked = elems.Clicked()
	}
	if err := pass.Err(); err != nil {
		res.Errors = err.Error()
	}

	if dc != nil {
		enc, err := imaging.EncodePNG(imaging.Compose(img, dc.Image()))
		if err != nil {
			return nil, err
		}
		res.Overlay = enc
	}
	return res, nil
}
