package sortconfig

import (
	"strconv"
	"strings"
)

// Flags understood by the external sorter. The order in which ToArguments
// emits them is part of the contract.
const (
	FlagPattern  = "-p"
	FlagSort     = "-s"
	FlagInterval = "-i"
	FlagLower    = "-l"
	FlagUpper    = "-u"
	FlagWidth    = "-w"
	FlagCenter   = "-c"
	FlagAngle    = "-a"
	FlagReverse  = "-r"
	FlagMask     = "-m"
)

const argsCapacity = 22

// ToArguments renders the model as the sorter's argument list with
// sourcePath as the first, positional, argument. It does not touch the
// filesystem and returns the same list for the same model state.
func (m *Model) ToArguments(sourcePath string) []string {
	args := make([]string, 0, argsCapacity)
	args = append(args,
		sourcePath,
		FlagPattern, m.pattern.String(),
		FlagSort, m.sortCriterion.String(),
		FlagInterval, m.intervalMode.String(),
		FlagLower, FormatFloat(m.lowerThreshold),
		FlagUpper, FormatFloat(m.upperThreshold),
		FlagWidth, strconv.Itoa(m.averageWidth),
		FlagCenter, strconv.Itoa(m.centerX), strconv.Itoa(m.centerY),
	)
	if m.useAngle || m.pattern == PatternLines {
		args = append(args, FlagAngle, strconv.Itoa(m.angle))
	}
	if m.reverseSort {
		args = append(args, FlagReverse)
	}
	if m.maskPath != "" {
		args = append(args, FlagMask, m.maskPath)
	}
	return args
}

// FormatFloat renders a threshold the way the sorter expects: the shortest
// decimal form of the float32 value, never in exponent notation, and with a
// trailing ".0" for whole numbers.
func FormatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 32)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
