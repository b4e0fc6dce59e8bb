package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/jmylchreest/sortlaunch/internal/session"
	"github.com/jmylchreest/sortlaunch/internal/sortconfig"
)

func newFieldsCmd() *cobra.Command {
	var (
		all    bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List configuration fields and their values",
		Long: `List the configuration fields with their current values.

Only fields relevant to the chosen pattern and interval mode are shown unless
--all is given. Field flags can be combined to preview how a configuration
affects which fields apply. --json prints every value as a JSON object.

Examples:
  sortlaunch fields
  sortlaunch fields -p circles -i random
  sortlaunch fields --all
  sortlaunch fields --json -p circles --center-x 40`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := session.New(nil, newLogger(cmd))
			if err := applyModelFlags(cmd, s); err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s.Model().Values())
			}
			writeFieldTable(cmd.OutOrStdout(), s.Model(), all)
			return nil
		},
	}

	registerModelFlags(cmd.Flags())
	cmd.Flags().BoolVar(&all, "all", false, "include fields that do not apply to the current configuration")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the field values as JSON")
	return cmd
}

// writeFieldTable prints fields with value, relevance and description.
func writeFieldTable(w io.Writer, m *sortconfig.Model, all bool) {
	usage := fieldUsage()

	table := NewTable("Field", "Value", "Shown", "Description")
	for _, f := range sortconfig.AllFields() {
		visible := m.Visible(f)
		if !visible && !all {
			continue
		}
		shown := "yes"
		if !visible {
			shown = "no"
		}
		table.AddRow(string(f), m.Get(f), shown, usage[f])
	}
	table.FitWidth(terminalWidth(w))
	_, _ = table.WriteTo(w)
}

// fieldUsage returns the flag help text for each field.
func fieldUsage() map[sortconfig.Field]string {
	fs := pflag.NewFlagSet("fields", pflag.ContinueOnError)
	registerModelFlags(fs)

	usage := make(map[sortconfig.Field]string)
	for _, f := range sortconfig.AllFields() {
		if flag := fs.Lookup(string(f)); flag != nil {
			usage[f] = flag.Usage
		}
	}
	return usage
}

// terminalWidth returns the column count of w if it is a terminal, else 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
