package ocr

import (
	"errors"
	"fmt"
	"image"
	"regexp"
	"strings"

	pluralize "github.com/gertd/go-pluralize"
	"go.uber.org/zap"

	"github.com/ironsheep/detection-tiles-mcp/internal/detection"
	"github.com/ironsheep/detection-tiles-mcp/internal/geometry"
)

// ErrNoInstruction is returned when the banner text has no "with <object>"
// phrase.
var ErrNoInstruction = errors.New("no target phrase in instruction text")

// DefaultAliases maps banner wording onto label table names.
var DefaultAliases = map[string]string{
	"motorbike":      "motorcycle",
	"bike":           "bicycle",
	"taxi":           "car",
	"hydrant":        "fire hydrant",
	"traffic signal": "traffic light",
}

var (
	withPattern = regexp.MustCompile(`(?i)\bwith\b(.*)$`)

	// stopMarkers end the phrase when OCR joins the banner onto one line.
	stopMarkers = []string{" click ", " if there", " once there"}

	articles = []string{"a ", "an ", "the "}
)

// ParseInstruction returns the object phrase of a banner text: what follows
// "with" on the same line, or the next non-empty line when "with" ends its
// line. ok is false when no phrase is found.
func ParseInstruction(text string) (phrase string, ok bool) {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	for i, l := range lines {
		m := withPattern.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		rest := strings.TrimSpace(m[1])
		if rest == "" && i+1 < len(lines) {
			rest = lines[i+1]
		}
		rest = cutPhrase(rest)
		if rest != "" {
			return rest, true
		}
	}
	return "", false
}

func cutPhrase(s string) string {
	lower := " " + strings.ToLower(s) + " "
	end := len(s)
	for _, m := range stopMarkers {
		// lower carries one byte of padding in front of s
		if i := strings.Index(lower, m); i >= 0 && max(i-1, 0) < end {
			end = max(i-1, 0)
		}
	}
	if i := strings.IndexAny(s, ".,;:!?"); i >= 0 && i < end {
		end = i
	}
	return strings.TrimSpace(s[:end])
}

// Normalizer turns a banner phrase into a label name.
type Normalizer struct {
	plural  *pluralize.Client
	aliases map[string]string
}

// NewNormalizer creates a Normalizer. Alias keys are matched
// case-insensitively, both before and after singularisation.
func NewNormalizer(aliases map[string]string) *Normalizer {
	norm := make(map[string]string, len(aliases))
	for k, v := range aliases {
		norm[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	return &Normalizer{plural: pluralize.NewClient(), aliases: norm}
}

// Normalize lowercases phrase, drops a leading article and surrounding
// punctuation, singularises the last word and applies aliases.
func (n *Normalizer) Normalize(phrase string) string {
	s := strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
	s = strings.Trim(s, ".,;:!?\"'")
	for _, a := range articles {
		s = strings.TrimPrefix(s, a)
	}
	if s == "" {
		return ""
	}
	if v, ok := n.aliases[s]; ok {
		return v
	}

	words := strings.Fields(s)
	last := words[len(words)-1]
	if n.plural.IsPlural(last) {
		words[len(words)-1] = n.plural.Singular(last)
	}
	s = strings.Join(words, " ")

	if v, ok := n.aliases[s]; ok {
		return v
	}
	return s
}

// TargetResult is the outcome of reading a target label.
type TargetResult struct {
	// Text is the raw banner text.
	Text string `json:"text"`

	Phrase string `json:"phrase"`
	Target string `json:"target"`

	// Known reports whether Target is in the label table.
	Known bool `json:"known"`
}

// Reader derives the target label from a challenge capture.
type Reader struct {
	Region   geometry.Rect
	Scale    float64
	Language string

	normalizer *Normalizer
	labels     *detection.LabelTable
	logger     *zap.SugaredLogger
}

// NewReader creates a Reader for the banner at region. A nil logger
// disables logging.
func NewReader(region geometry.Rect, language string, aliases map[string]string, labels *detection.LabelTable, logger *zap.SugaredLogger) *Reader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Reader{
		Region:     region,
		Scale:      2,
		Language:   language,
		normalizer: NewNormalizer(aliases),
		labels:     labels,
		logger:     logger,
	}
}

// FromText derives the target from already extracted banner text.
func (r *Reader) FromText(text string) (*TargetResult, error) {
	phrase, ok := ParseInstruction(text)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoInstruction, strings.TrimSpace(text))
	}

	target := r.normalizer.Normalize(phrase)
	res := &TargetResult{
		Text:   text,
		Phrase: phrase,
		Target: target,
		Known:  r.labels.Contains(target),
	}
	if !res.Known {
		r.logger.Warnw("target is not in the label table", "phrase", phrase, "target", target)
	}
	return res, nil
}

// Read runs OCR over the banner region of img and derives the target.
func (r *Reader) Read(img image.Image) (*TargetResult, error) {
	ocrResult, err := ExtractTextFromRegion(img, r.Region, r.Scale, r.Language)
	if err != nil {
		return nil, fmt.Errorf("reading instruction banner: %w", err)
	}
	r.logger.Debugw("instruction banner text", "text", ocrResult.FullText)
	return r.FromText(ocrResult.FullText)
}
