package detection

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

//go:embed labels.json
var cocoLabels []byte

// UnknownLabelPrefix starts the placeholder shown for class indices missing
// from the label table. Label tables may not contain names with this prefix.
const UnknownLabelPrefix = "unknown:"

// LabelTable maps detector class indices to display names.
type LabelTable struct {
	names []string
}

// DefaultLabels returns the embedded 80-class COCO table.
func DefaultLabels() *LabelTable {
	t, err := ParseLabels(cocoLabels)
	if err != nil {
		panic(fmt.Sprintf("embedded labels: %v", err))
	}
	return t
}

// NewLabelTable builds a table from names in class order.
func NewLabelTable(names []string) (*LabelTable, error) {
	seen := make(map[string]int, len(names))
	for i, n := range names {
		if n == "" {
			return nil, fmt.Errorf("label %d is empty", i)
		}
		if strings.HasPrefix(n, UnknownLabelPrefix) {
			return nil, fmt.Errorf("label %d %q uses the reserved prefix %q", i, n, UnknownLabelPrefix)
		}
		if prev, ok := seen[n]; ok {
			return nil, fmt.Errorf("label %q repeated at %d and %d", n, prev, i)
		}
		seen[n] = i
	}
	return &LabelTable{names: append([]string(nil), names...)}, nil
}

// ParseLabels decodes a JSON array of names.
func ParseLabels(data []byte) (*LabelTable, error) {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to parse labels: %w", err)
	}
	return NewLabelTable(names)
}

// LoadLabels reads a JSON label file.
func LoadLabels(path string) (*LabelTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return ParseLabels(data)
}

// Lookup returns the name for classID and whether the table has one.
func (t *LabelTable) Lookup(classID int) (string, bool) {
	if classID < 0 || classID >= len(t.names) {
		return "", false
	}
	return t.names[classID], true
}

// Display returns the name for classID, or "unknown:<id>" when the table has
// no entry. The placeholder can never equal a real label.
func (t *LabelTable) Display(classID int) string {
	if name, ok := t.Lookup(classID); ok {
		return name
	}
	return UnknownLabelPrefix + strconv.Itoa(classID)
}

// Contains reports whether name is one of the table's labels.
func (t *LabelTable) Contains(name string) bool {
	for _, n := range t.names {
		if n == name {
			return true
		}
	}
	return false
}

// Len returns the number of classes.
func (t *LabelTable) Len() int { return len(t.names) }

// Names returns a copy of the labels in class order.
func (t *LabelTable) Names() []string {
	return append([]string(nil), t.names...)
}
