package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
)

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// TextRegion is one recognised word with its location and confidence.
type TextRegion struct {
	Text string `json:"text"`

	// Confidence is the OCR confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	Bounds Bounds `json:"bounds"`
}

// OCRResult contains the text recognised in an image.
type OCRResult struct {
	// FullText keeps Tesseract's line breaks.
	FullText string `json:"full_text"`

	// Regions may be empty when word boxes are unavailable; FullText is still set.
	Regions []TextRegion `json:"regions"`
}

// ExtractText performs OCR on an in-memory image and returns the recognised
// text.
//
// The image is handed to Tesseract as a PNG held in memory, so crops and
// upscaled regions never touch the disk.
//
// Parameters:
//   - img: The image to read. Usually the output of PrepareRegion.
//   - language: Tesseract language code (e.g., "eng"). Empty selects
//     DefaultLanguage. The language data must be installed on the system.
//
// Returns:
//   - *OCRResult: FullText plus word-level Regions with confidence in [0, 1].
//   - error: Non-nil if the image cannot be encoded, the language cannot be
//     loaded or recognition fails.
//
// # Error Handling
//
// If word-level bounding boxes are unavailable the full text is still
// returned, with an empty Regions slice.
func ExtractText(img image.Image, language string) (*OCRResult, error) {
	if language == "" {
		language = DefaultLanguage
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return &OCRResult{FullText: text, Regions: []TextRegion{}}, nil
	}

	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}

	return &OCRResult{FullText: text, Regions: regions}, nil
}

// PrepareRegion crops r out of img, converts it to grayscale and scales it
// by scale. Small banner text is read far more reliably once enlarged.
//
// Parameters:
//   - img: The full challenge capture.
//   - r: Region to read, in img's pixel coordinates. Truncated to whole pixels.
//   - scale: Enlargement factor. Values <= 0 or exactly 1 leave the size alone.
//
// # Errors
//
//   - Returns error if r is empty or not finite
//   - Returns error if r does not lie inside img's bounds
func PrepareRegion(img image.Image, r geometry.Rect, scale float64) (image.Image, error) {
	rect := image.Rect(int(r.X1), int(r.Y1), int(r.X2), int(r.Y2))
	if !r.Finite() || rect.Empty() {
		return nil, fmt.Errorf("invalid OCR region %v", r)
	}
	if !rect.In(img.Bounds()) {
		return nil, fmt.Errorf("OCR region %v outside image bounds %v", rect, img.Bounds())
	}

	var out image.Image = imaging.Grayscale(imaging.Crop(img, rect))
	if scale > 0 && scale != 1 {
		out = imaging.Resize(out, int(float64(rect.Dx())*scale), 0, imaging.Lanczos)
	}
	return out, nil
}

// ExtractTextFromRegion runs OCR on region r of img, enlarged by scale.
//
// Parameters:
//   - img: The full challenge capture.
//   - r: Region to read, typically the instruction banner.
//   - scale: Enlargement applied before OCR, see PrepareRegion.
//   - language: Tesseract language code, see ExtractText.
//
// Returns:
//   - *OCRResult: Recognised text. Word bounds are mapped back from the
//     enlarged crop to img's coordinates.
//   - error: Any error from PrepareRegion or ExtractText.
func ExtractTextFromRegion(img image.Image, r geometry.Rect, scale float64, language string) (*OCRResult, error) {
	prepared, err := PrepareRegion(img, r, scale)
	if err != nil {
		return nil, err
	}

	result, err := ExtractText(prepared, language)
	if err != nil {
		return nil, err
	}

	if scale <= 0 {
		scale = 1
	}
	x0, y0 := int(r.X1), int(r.Y1)
	for i := range result.Regions {
		b := &result.Regions[i].Bounds
		b.X1 = x0 + int(float64(b.X1)/scale)
		b.Y1 = y0 + int(float64(b.Y1)/scale)
		b.X2 = x0 + int(float64(b.X2)/scale)
		b.Y2 = y0 + int(float64(b.Y2)/scale)
	}
	return result, nil
}
