package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/sortlaunch/internal/session"
	"github.com/jmylchreest/sortlaunch/internal/sortconfig"
)

// enumValue is a pflag.Value restricted to a fixed set of tokens.
type enumValue struct {
	value    string
	valid    []string
	typeName string
}

func newEnumValue[T ~string](def T, valid []T, typeName string) *enumValue {
	tokens := make([]string, len(valid))
	for i, v := range valid {
		tokens[i] = string(v)
	}
	return &enumValue{value: string(def), valid: tokens, typeName: typeName}
}

func (e *enumValue) String() string { return e.value }

func (e *enumValue) Set(s string) error {
	token := strings.ToLower(s)
	if !slices.Contains(e.valid, token) {
		return fmt.Errorf("must be one of %s", strings.Join(e.valid, ", "))
	}
	e.value = token
	return nil
}

func (e *enumValue) Type() string { return e.typeName }

// registerModelFlags adds one flag per configuration field. Flag names match
// the field names; short forms match the sorter's own flags.
func registerModelFlags(fs *pflag.FlagSet) {
	fs.VarP(newEnumValue(sortconfig.PatternLines, sortconfig.Patterns(), "pattern"),
		string(sortconfig.FieldPattern), "p", "traversal pattern (lines, circles)")
	fs.VarP(newEnumValue(sortconfig.SortLightness, sortconfig.SortCriteria(), "criterion"),
		string(sortconfig.FieldSort), "s", "sort criterion (lightness, hue, saturation, intensity)")
	fs.VarP(newEnumValue(sortconfig.IntervalLightness, sortconfig.IntervalModes(), "mode"),
		string(sortconfig.FieldInterval), "i", "interval mode (lightness, random, randomfile, none)")

	fs.Bool(string(sortconfig.FieldUseAngle), true, "pass the angle to the sorter (circles only; lines always do)")
	fs.StringP(string(sortconfig.FieldAngle), "a", "0", "sort angle in degrees (0-359)")
	fs.StringP(string(sortconfig.FieldLowerThreshold), "l", "0.25", "lower lightness threshold (0-1, lightness interval)")
	fs.StringP(string(sortconfig.FieldUpperThreshold), "u", "0.8", "upper lightness threshold (0-1, lightness interval)")
	fs.StringP(string(sortconfig.FieldAverageWidth), "w", "400", "average run width, greater than 1 (random interval)")
	fs.String(string(sortconfig.FieldCenterX), "0", "circle centre x (circles pattern)")
	fs.String(string(sortconfig.FieldCenterY), "0", "circle centre y (circles pattern)")
	fs.BoolP(string(sortconfig.FieldReverse), "r", false, "reverse the sort")
	fs.StringP(string(sortconfig.FieldMask), "m", "", "mask image; white pixels are left alone")
}

// applyModelFlags feeds every explicitly set field flag through the session
// setters, in field order so that the pattern is chosen before the angle
// toggle. Out-of-range values keep the default and are logged by the session.
// A mask given as a URL is downloaded first.
func applyModelFlags(cmd *cobra.Command, s *session.Session) error {
	fs := cmd.Flags()
	for _, field := range sortconfig.AllFields() {
		f := fs.Lookup(string(field))
		if f == nil || !f.Changed {
			continue
		}
		value := f.Value.String()
		if field == sortconfig.FieldMask {
			local, err := localImage(cmd.Context(), newLogger(cmd), value)
			if err != nil {
				return fmt.Errorf("--%s: %w", field, err)
			}
			value = local
		}
		if _, err := s.Set(field, value); err != nil {
			return fmt.Errorf("--%s: %w", field, err)
		}
	}
	return nil
}
