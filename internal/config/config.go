// Package config loads the server configuration from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/a8m/envsubst"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/detection-tiles-mcp/internal/detection"
	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
	"github.com/ironsheep/detection-tiles-mcp/internal/imaging"
	"github.com/ironsheep/detection-tiles-mcp/internal/ocr"
	"github.com/ironsheep/detection-tiles-mcp/internal/render"
)

// Config holds runtime configuration for the tiles server.
// Fields are loaded from a JSON file; "${VAR}" references in the file are
// expanded from the environment first.
type Config struct {
	LogLevel string `json:"log_level"`

	// Grid is the tile layout of the challenge surface.
	Grid geometry.GridConfig `json:"grid"`

	Render render.Options `json:"render"`

	// LabelsPath names a JSON array of class names; empty uses the
	// embedded COCO table.
	LabelsPath string `json:"labels_path"`

	// MinScore drops detections below this confidence before matching.
	MinScore float64 `json:"min_score"`

	// Model input size the detector letterboxes captures into.
	ModelWidth  int `json:"model_width"`
	ModelHeight int `json:"model_height"`

	// Instruction banner location and OCR settings
	InstructionRegion geometry.Rect     `json:"instruction_region"`
	OCRLanguage       string            `json:"ocr_language"`
	OCRScale          float64           `json:"ocr_scale"`
	Aliases           map[string]string `json:"aliases"`

	// ScreenOrigin is the desktop position of the challenge surface's
	// top-left corner, used by the screen activator.
	ScreenOrigin geometry.Point `json:"screen_origin"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	aliases := make(map[string]string, len(ocr.DefaultAliases))
	for k, v := range ocr.DefaultAliases {
		aliases[k] = v
	}
	return &Config{
		LogLevel:          "info",
		Grid:              geometry.DefaultGridConfig(),
		Render:            render.DefaultOptions(),
		MinScore:          0,
		ModelWidth:        640,
		ModelHeight:       640,
		InstructionRegion: geometry.Rect{X1: 7, Y1: 7, X2: 395, Y2: 120},
		OCRLanguage:       ocr.DefaultLanguage,
		OCRScale:          2,
		Aliases:           aliases,
	}
}

// Validate clamps values to safe ranges and rejects settings that cannot
// be repaired: an unusable grid, a bad palette colour or an unknown log
// level.
func (c *Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	for i, hex := range c.Render.Palette {
		if !imaging.ValidHex(hex) {
			return fmt.Errorf("render.palette[%d]: %q is not a #RRGGBB colour", i, hex)
		}
	}

	if c.Render.FillAlpha < 0 || c.Render.FillAlpha > 1 || math.IsNaN(c.Render.FillAlpha) {
		c.Render.FillAlpha = 0.2
	}
	if c.Render.MinFontSize <= 0 {
		c.Render.MinFontSize = 14
	}
	if c.Render.MinLineWidth <= 0 {
		c.Render.MinLineWidth = 2.5
	}
	if c.MinScore < 0 || c.MinScore > 1 || math.IsNaN(c.MinScore) {
		c.MinScore = 0
	}
	if c.ModelWidth <= 0 {
		c.ModelWidth = 640
	}
	if c.ModelHeight <= 0 {
		c.ModelHeight = 640
	}
	if c.OCRLanguage == "" {
		c.OCRLanguage = ocr.DefaultLanguage
	}
	if c.OCRScale <= 0 {
		c.OCRScale = 2
	}
	c.LabelsPath = strings.TrimSpace(c.LabelsPath)
	return nil
}

// Load reads configuration from the JSON file at path over the defaults.
// An empty path or a missing file yields DefaultConfig().
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	buf, err := envsubst.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := json.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Labels returns the label table named by LabelsPath, or the embedded
// table when it is empty.
func (c *Config) Labels() (*detection.LabelTable, error) {
	if c.LabelsPath == "" {
		return detection.DefaultLabels(), nil
	}
	return detection.LoadLabels(c.LabelsPath)
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Save writes the configuration to path as indented JSON. The file is only
// reported written once it has been closed successfully.
func (c *Config) Save(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing config %s: %w", path, cerr)
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
