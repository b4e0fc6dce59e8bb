package sortconfig

import (
	"strconv"
)

// Default values for a fresh model.
const (
	DefaultAngle          = 0
	DefaultLowerThreshold = float32(0.25)
	DefaultUpperThreshold = float32(0.8)
	DefaultAverageWidth   = 400

	MinAngle = 0
	MaxAngle = 359
)

// Model is the sort configuration for one interactive session.
//
// Every setter either applies its input or leaves the field untouched, so a
// Model is valid at all times. Setters report whether the input was
// accepted; rejection is not an error. A Model has a single owner and is not
// safe for concurrent mutation.
type Model struct {
	pattern        Pattern
	sortCriterion  SortCriterion
	intervalMode   IntervalMode
	useAngle       bool
	angle          int
	lowerThreshold float32
	upperThreshold float32
	averageWidth   int
	centerX        int
	centerY        int
	reverseSort    bool
	maskPath       string
}

// Values is a read-only snapshot of a Model for display and binding.
type Values struct {
	Pattern        Pattern       `json:"pattern"`
	SortCriterion  SortCriterion `json:"sort"`
	IntervalMode   IntervalMode  `json:"interval"`
	UseAngle       bool          `json:"use_angle"`
	Angle          int           `json:"angle"`
	LowerThreshold float32       `json:"lower_threshold"`
	UpperThreshold float32       `json:"upper_threshold"`
	AverageWidth   int           `json:"average_width"`
	CenterX        int           `json:"center_x"`
	CenterY        int           `json:"center_y"`
	ReverseSort    bool          `json:"reverse"`
	MaskPath       string        `json:"mask,omitempty"`
}

// New returns a model holding the default configuration.
func New() *Model {
	return &Model{
		pattern:        PatternLines,
		sortCriterion:  SortLightness,
		intervalMode:   IntervalLightness,
		useAngle:       true,
		angle:          DefaultAngle,
		lowerThreshold: DefaultLowerThreshold,
		upperThreshold: DefaultUpperThreshold,
		averageWidth:   DefaultAverageWidth,
	}
}

// Clone returns an independent copy of the model.
func (m *Model) Clone() *Model {
	c := *m
	return &c
}

// Values returns a snapshot of the current field values.
func (m *Model) Values() Values {
	return Values{
		Pattern:        m.pattern,
		SortCriterion:  m.sortCriterion,
		IntervalMode:   m.intervalMode,
		UseAngle:       m.useAngle,
		Angle:          m.angle,
		LowerThreshold: m.lowerThreshold,
		UpperThreshold: m.upperThreshold,
		AverageWidth:   m.averageWidth,
		CenterX:        m.centerX,
		CenterY:        m.centerY,
		ReverseSort:    m.reverseSort,
		MaskPath:       m.maskPath,
	}
}

// Pattern returns the selected pattern.
func (m *Model) Pattern() Pattern { return m.pattern }

// SortCriterion returns the selected sort key.
func (m *Model) SortCriterion() SortCriterion { return m.sortCriterion }

// IntervalMode returns the selected interval strategy.
func (m *Model) IntervalMode() IntervalMode { return m.intervalMode }

// UseAngle reports whether the angle is passed to the sorter.
func (m *Model) UseAngle() bool { return m.useAngle }

// Angle returns the sort angle in degrees.
func (m *Model) Angle() int { return m.angle }

// LowerThreshold returns the lower lightness threshold.
func (m *Model) LowerThreshold() float32 { return m.lowerThreshold }

// UpperThreshold returns the upper lightness threshold.
func (m *Model) UpperThreshold() float32 { return m.upperThreshold }

// AverageWidth returns the expected run length for random intervals.
func (m *Model) AverageWidth() int { return m.averageWidth }

// Center returns the circle centre.
func (m *Model) Center() (x, y int) { return m.centerX, m.centerY }

// ReverseSort reports whether the sort direction is flipped.
func (m *Model) ReverseSort() bool { return m.reverseSort }

// MaskPath returns the mask path and whether one is set.
func (m *Model) MaskPath() (path string, ok bool) { return m.maskPath, m.maskPath != "" }

// SetPattern selects the traversal pattern. Lines always sorts along an
// angle, so selecting it forces the angle on.
func (m *Model) SetPattern(p Pattern) {
	m.pattern = p
	if p == PatternLines {
		m.useAngle = true
	}
}

// SetSortCriterion selects the sort key.
func (m *Model) SetSortCriterion(s SortCriterion) {
	m.sortCriterion = s
}

// SetIntervalMode selects the interval strategy.
func (m *Model) SetIntervalMode(i IntervalMode) {
	m.intervalMode = i
}

// SetUseAngle toggles the angle for the circles pattern. With lines the
// angle cannot be switched off and the call reports false.
func (m *Model) SetUseAngle(b bool) bool {
	if m.pattern == PatternLines {
		// Already on; only an attempt to turn it off is refused.
		return b
	}
	m.useAngle = b
	return true
}

// SetAngle parses raw as an integer in [0, 359].
func (m *Model) SetAngle(raw string) bool {
	n, ok := parseInt32(raw)
	if !ok || n < MinAngle || n > MaxAngle {
		return false
	}
	m.angle = n
	return true
}

// SetLowerThreshold parses raw as a float in [0, 1]. The ordering against
// the upper threshold is not checked.
func (m *Model) SetLowerThreshold(raw string) bool {
	f, ok := parseUnit(raw)
	if ok {
		m.lowerThreshold = f
	}
	return ok
}

// SetUpperThreshold parses raw as a float in [0, 1].
func (m *Model) SetUpperThreshold(raw string) bool {
	f, ok := parseUnit(raw)
	if ok {
		m.upperThreshold = f
	}
	return ok
}

// SetAverageWidth parses raw as a 32-bit integer strictly greater than 1.
func (m *Model) SetAverageWidth(raw string) bool {
	n, ok := parseInt32(raw)
	if !ok || n <= 1 {
		return false
	}
	m.averageWidth = n
	return true
}

// SetCenterX parses raw as a 32-bit integer, falling back to 0. It always
// succeeds.
func (m *Model) SetCenterX(raw string) {
	m.centerX, _ = parseInt32(raw)
}

// SetCenterY parses raw as a 32-bit integer, falling back to 0. It always
// succeeds.
func (m *Model) SetCenterY(raw string) {
	m.centerY, _ = parseInt32(raw)
}

// SetMaskPath replaces the mask path. An empty path removes the mask.
func (m *Model) SetMaskPath(path string) {
	m.maskPath = path
}

// ClearMask removes the mask.
func (m *Model) ClearMask() {
	m.maskPath = ""
}

// SetReverseSort sets the reverse flag.
func (m *Model) SetReverseSort(b bool) {
	m.reverseSort = b
}

func parseUnit(raw string) (float32, bool) {
	f64, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, false
	}
	f := float32(f64)
	// NaN fails both comparisons.
	if !(f >= 0 && f <= 1) {
		return 0, false
	}
	return f, true
}

// parseInt32 parses raw as a decimal integer the sorter can hold. Values
// outside the 32-bit range fail, as does anything non-numeric; both yield 0.
func parseInt32(raw string) (int, bool) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
