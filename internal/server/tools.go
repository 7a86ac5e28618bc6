package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the challenge capture",
	}
}

func gridProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional grid layout overriding the configured one",
		"properties": map[string]interface{}{
			"origin_x":  map[string]interface{}{"type": "number"},
			"origin_y":  map[string]interface{}{"type": "number"},
			"tile_size": map[string]interface{}{"type": "number"},
			"gap":       map[string]interface{}{"type": "number"},
			"inset":     map[string]interface{}{"type": "number"},
		},
	}
}

func rectProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "number"},
			"y1": map[string]interface{}{"type": "number"},
			"x2": map[string]interface{}{"type": "number"},
			"y2": map[string]interface{}{"type": "number"},
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

// batchProperties describes a detection batch given either as detections
// or as flat tensors.
func batchProperties() map[string]interface{} {
	return map[string]interface{}{
		"detections": map[string]interface{}{
			"type":        "array",
			"description": "Detections with class_id, score and box {y1, x1, y2, x2} in model space",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"class_id": map[string]interface{}{"type": "integer"},
					"score":    map[string]interface{}{"type": "number"},
					"box": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"y1": map[string]interface{}{"type": "number"},
							"x1": map[string]interface{}{"type": "number"},
							"y2": map[string]interface{}{"type": "number"},
							"x2": map[string]interface{}{"type": "number"},
						},
					},
				},
				"required": []string{"class_id", "score", "box"},
			},
		},
		"boxes": map[string]interface{}{
			"type":        "array",
			"description": "Flat detector output, four values (y1, x1, y2, x2) per detection. Use instead of detections.",
			"items":       map[string]interface{}{"type": "number"},
		},
		"scores": map[string]interface{}{
			"type":        "array",
			"description": "One confidence per detection, used with boxes",
			"items":       map[string]interface{}{"type": "number"},
		},
		"classes": map[string]interface{}{
			"type":        "array",
			"description": "One class index per detection, used with boxes",
			"items":       map[string]interface{}{"type": "integer"},
		},
		"ratio": map[string]interface{}{
			"type":        "object",
			"description": "Display ratio {x, y}. Defaults to the letterbox ratio of the capture, or 1:1 without one.",
			"properties": map[string]interface{}{
				"x": map[string]interface{}{"type": "number"},
				"y": map[string]interface{}{"type": "number"},
			},
		},
		"min_score": map[string]interface{}{
			"type":        "number",
			"description": "Drop detections below this confidence. Defaults to the configured value.",
		},
		"sort_by_score": map[string]interface{}{
			"type":        "boolean",
			"description": "Process higher-scoring detections first. Changes call order only, never the activated set.",
			"default":     false,
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and letterbox display ratio.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Grid
		{
			Name:        "tiles_labels",
			Description: "List the class names of the active label table in class index order.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "tiles_grid_layout",
			Description: "Return the 16 tile rectangles and click points of the 4x4 challenge grid in row-major order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"grid": gridProperty(),
				},
			},
		},
		{
			Name:        "tiles_grid_overlay",
			Description: "Draw the tile grid, click points and tile indices over a capture of the challenge surface. Use this to check a grid layout.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"grid": gridProperty(),
					"show_index": map[string]interface{}{
						"type":        "boolean",
						"description": "Label each tile with its grid index",
						"default":     true,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Grid colour as #RRGGBB or #RRGGBBAA",
						"default":     "#FF0000A0",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tiles_crop_tile",
			Description: "Crop one tile out of a challenge capture and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"row": map[string]interface{}{
						"type":        "integer",
						"description": "Tile row, 0-3",
					},
					"col": map[string]interface{}{
						"type":        "integer",
						"description": "Tile column, 0-3",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 1.0",
						"default":     1.0,
					},
					"grid": gridProperty(),
				},
				"required": []string{"path", "row", "col"},
			},
		},
		{
			Name:        "tiles_compare",
			Description: "Compare every tile between two captures of the challenge surface and list the tiles that changed, e.g. tiles replaced after a solve pass.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"before": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the earlier capture",
					},
					"after": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the later capture",
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Similarity below which a tile counts as changed, in (0, 1]. Default 0.9",
						"default":     0.9,
					},
					"grid": gridProperty(),
				},
				"required": []string{"before", "after"},
			},
		},

		// Detections
		{
			Name:        "tiles_render",
			Description: "Draw a detection batch (boxes, labels, scores) over a capture and return the composed PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(batchProperties(), map[string]interface{}{
					"path": pathProperty(),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "tiles_target_label",
			Description: "Read the challenge instruction banner and return the target label, e.g. \"cars\" becomes \"car\". Give text to skip OCR.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Banner text obtained elsewhere",
					},
					"region": rectProperty("Banner region of the capture. Defaults to the configured region."),
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Defaults to the configured language.",
					},
				},
			},
		},

		// Attempts
		{
			Name:        "tiles_new_attempt",
			Description: "Start a challenge attempt with no activated tiles and return its id. Solve passes given this id never activate a tile twice.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "tiles_end_attempt",
			Description: "Discard an attempt's activation state.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"attempt_id": map[string]interface{}{"type": "string"},
				},
				"required": []string{"attempt_id"},
			},
		},
		{
			Name:        "tiles_solve",
			Description: "Match a detection batch against the target label and activate every overlapping tile once. Returns the activations, skipped tiles, per-tile failures and, when path is given, the overlay.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(batchProperties(), map[string]interface{}{
					"path": pathProperty(),
					"target": map[string]interface{}{
						"type":        "string",
						"description": "Label to select. Empty selects nothing.",
					},
					"target_text": map[string]interface{}{
						"type":        "string",
						"description": "Banner text to derive the target from when target is empty",
					},
					"attempt_id": map[string]interface{}{
						"type":        "string",
						"description": "Attempt to continue. Omit for a one-off pass with fresh state.",
					},
					"activator": map[string]interface{}{
						"type":        "string",
						"description": "plan records click points, elements hit-tests them against the given elements, screen clicks the desktop (Windows only)",
						"enum":        []string{"plan", "elements", "screen"},
						"default":     "plan",
					},
					"elements": map[string]interface{}{
						"type":        "array",
						"description": "Interactive elements of the challenge surface in paint order, for the elements activator",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"id":   map[string]interface{}{"type": "string"},
								"rect": rectProperty("Element bounds in challenge surface coordinates"),
							},
						},
					},
					"grid": gridProperty(),
				}),
			},
		},
	}
}
