package sortconfig

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names a configurable parameter.
type Field string

// Fields of the model, in display order.
const (
	FieldPattern        Field = "pattern"
	FieldSort           Field = "sort"
	FieldInterval       Field = "interval"
	FieldUseAngle       Field = "use-angle"
	FieldAngle          Field = "angle"
	FieldLowerThreshold Field = "lower-threshold"
	FieldUpperThreshold Field = "upper-threshold"
	FieldAverageWidth   Field = "average-width"
	FieldCenterX        Field = "center-x"
	FieldCenterY        Field = "center-y"
	FieldReverse        Field = "reverse"
	FieldMask           Field = "mask"
)

var fieldOrder = []Field{
	FieldPattern,
	FieldSort,
	FieldInterval,
	FieldUseAngle,
	FieldAngle,
	FieldLowerThreshold,
	FieldUpperThreshold,
	FieldAverageWidth,
	FieldCenterX,
	FieldCenterY,
	FieldReverse,
	FieldMask,
}

func always(*Model) bool { return true }

// visibility maps each field to the condition under which it is relevant.
// Renderers consult this table instead of re-deriving the rules.
var visibility = map[Field]func(*Model) bool{
	FieldPattern:        always,
	FieldSort:           always,
	FieldInterval:       always,
	FieldUseAngle:       func(m *Model) bool { return m.pattern == PatternCircles },
	FieldAngle:          func(m *Model) bool { return m.useAngle },
	FieldLowerThreshold: func(m *Model) bool { return m.intervalMode == IntervalLightness },
	FieldUpperThreshold: func(m *Model) bool { return m.intervalMode == IntervalLightness },
	FieldAverageWidth:   func(m *Model) bool { return m.intervalMode == IntervalRandom },
	FieldCenterX:        func(m *Model) bool { return m.pattern == PatternCircles },
	FieldCenterY:        func(m *Model) bool { return m.pattern == PatternCircles },
	FieldReverse:        always,
	FieldMask:           always,
}

// AllFields returns every field in display order.
func AllFields() []Field { return append([]Field(nil), fieldOrder...) }

// ParseField resolves a field name, ignoring case. Underscores are accepted
// in place of dashes.
func ParseField(s string) (Field, error) {
	name := Field(strings.ReplaceAll(strings.ToLower(s), "_", "-"))
	if _, ok := visibility[name]; !ok {
		return "", fmt.Errorf("unknown field %q", s)
	}
	return name, nil
}

// Visible reports whether f is relevant under the current configuration.
func (m *Model) Visible(f Field) bool {
	pred, ok := visibility[f]
	return ok && pred(m)
}

// VisibleFields returns the relevant fields in display order.
func (m *Model) VisibleFields() []Field {
	out := make([]Field, 0, len(fieldOrder))
	for _, f := range fieldOrder {
		if m.Visible(f) {
			out = append(out, f)
		}
	}
	return out
}

// Set routes raw user input to the setter for f. The returned bool mirrors
// the setter; an error is returned only for an unknown field or an unknown
// enum token.
func (m *Model) Set(f Field, raw string) (bool, error) {
	switch f {
	case FieldPattern:
		p, err := ParsePattern(raw)
		if err != nil {
			return false, err
		}
		m.SetPattern(p)
		return true, nil
	case FieldSort:
		s, err := ParseSortCriterion(raw)
		if err != nil {
			return false, err
		}
		m.SetSortCriterion(s)
		return true, nil
	case FieldInterval:
		i, err := ParseIntervalMode(raw)
		if err != nil {
			return false, err
		}
		m.SetIntervalMode(i)
		return true, nil
	case FieldUseAngle:
		b, ok := parseSwitch(raw)
		if !ok {
			return false, nil
		}
		return m.SetUseAngle(b), nil
	case FieldAngle:
		return m.SetAngle(raw), nil
	case FieldLowerThreshold:
		return m.SetLowerThreshold(raw), nil
	case FieldUpperThreshold:
		return m.SetUpperThreshold(raw), nil
	case FieldAverageWidth:
		return m.SetAverageWidth(raw), nil
	case FieldCenterX:
		m.SetCenterX(raw)
		return true, nil
	case FieldCenterY:
		m.SetCenterY(raw)
		return true, nil
	case FieldReverse:
		b, ok := parseSwitch(raw)
		if !ok {
			return false, nil
		}
		m.SetReverseSort(b)
		return true, nil
	case FieldMask:
		if strings.EqualFold(raw, "none") {
			raw = ""
		}
		m.SetMaskPath(raw)
		return true, nil
	default:
		return false, fmt.Errorf("unknown field %q", f)
	}
}

// Get renders the current value of f as text.
func (m *Model) Get(f Field) string {
	switch f {
	case FieldPattern:
		return m.pattern.DisplayName()
	case FieldSort:
		return m.sortCriterion.DisplayName()
	case FieldInterval:
		return m.intervalMode.DisplayName()
	case FieldUseAngle:
		return strconv.FormatBool(m.useAngle)
	case FieldAngle:
		return strconv.Itoa(m.angle)
	case FieldLowerThreshold:
		return FormatFloat(m.lowerThreshold)
	case FieldUpperThreshold:
		return FormatFloat(m.upperThreshold)
	case FieldAverageWidth:
		return strconv.Itoa(m.averageWidth)
	case FieldCenterX:
		return strconv.Itoa(m.centerX)
	case FieldCenterY:
		return strconv.Itoa(m.centerY)
	case FieldReverse:
		return strconv.FormatBool(m.reverseSort)
	case FieldMask:
		if m.maskPath == "" {
			return "none"
		}
		return m.maskPath
	default:
		return ""
	}
}

func parseSwitch(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "on", "yes", "y":
		return true, true
	case "off", "no", "n":
		return false, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return b, true
}
