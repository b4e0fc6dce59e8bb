// Package sortconfig holds the pixel-sorter configuration model: the set of
// interdependent sort parameters, their per-field validation, their
// visibility rules, and the argument list they serialise to.
package sortconfig

import (
	"fmt"
	"strings"
)

// Pattern is the traversal shape used to group pixels before sorting.
type Pattern string

// SortCriterion is the pixel attribute used as the sort key.
type SortCriterion string

// IntervalMode decides where a sortable run of pixels begins and ends.
type IntervalMode string

// Pattern values.
const (
	PatternLines   Pattern = "lines"
	PatternCircles Pattern = "circles"
)

// SortCriterion values.
const (
	SortLightness  SortCriterion = "lightness"
	SortHue        SortCriterion = "hue"
	SortSaturation SortCriterion = "saturation"
	SortIntensity  SortCriterion = "intensity"
)

// IntervalMode values.
const (
	IntervalLightness  IntervalMode = "lightness"
	IntervalRandom     IntervalMode = "random"
	IntervalRandomFile IntervalMode = "randomfile"
	IntervalNone       IntervalMode = "none"
)

var (
	patterns = []Pattern{PatternLines, PatternCircles}

	sortCriteria = []SortCriterion{SortLightness, SortHue, SortSaturation, SortIntensity}

	intervalModes = []IntervalMode{IntervalLightness, IntervalRandom, IntervalRandomFile, IntervalNone}

	displayNames = map[string]string{
		"lines":      "Lines",
		"circles":    "Circles",
		"lightness":  "Lightness",
		"hue":        "Hue",
		"saturation": "Saturation",
		"intensity":  "Intensity",
		"random":     "Random",
		"randomfile": "RandomFile",
		"none":       "None",
	}
)

// Patterns returns every pattern in menu order.
func Patterns() []Pattern { return append([]Pattern(nil), patterns...) }

// SortCriteria returns every sort criterion in menu order.
func SortCriteria() []SortCriterion { return append([]SortCriterion(nil), sortCriteria...) }

// IntervalModes returns every interval mode in menu order.
func IntervalModes() []IntervalMode { return append([]IntervalMode(nil), intervalModes...) }

// ParsePattern parses a pattern token, ignoring case.
func ParsePattern(s string) (Pattern, error) {
	return parseEnum(s, patterns, "pattern")
}

// ParseSortCriterion parses a sort criterion token, ignoring case.
func ParseSortCriterion(s string) (SortCriterion, error) {
	return parseEnum(s, sortCriteria, "sort criterion")
}

// ParseIntervalMode parses an interval mode token, ignoring case.
func ParseIntervalMode(s string) (IntervalMode, error) {
	return parseEnum(s, intervalModes, "interval mode")
}

func parseEnum[T ~string](s string, valid []T, kind string) (T, error) {
	token := strings.ToLower(s)
	for _, v := range valid {
		if string(v) == token {
			return v, nil
		}
	}
	names := make([]string, len(valid))
	for i, v := range valid {
		names[i] = string(v)
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q (valid: %s)", kind, s, strings.Join(names, ", "))
}

// String returns the wire token.
func (p Pattern) String() string { return string(p) }

// DisplayName returns the human label, e.g. "Circles".
func (p Pattern) DisplayName() string { return displayNames[string(p)] }

// String returns the wire token.
func (s SortCriterion) String() string { return string(s) }

// DisplayName returns the human label, e.g. "Saturation".
func (s SortCriterion) DisplayName() string { return displayNames[string(s)] }

// String returns the wire token.
func (i IntervalMode) String() string { return string(i) }

// DisplayName returns the human label, e.g. "RandomFile".
func (i IntervalMode) DisplayName() string { return displayNames[string(i)] }
