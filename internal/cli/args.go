package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sortlaunch/internal/session"
)

func newArgsCmd() *cobra.Command {
	var lines bool

	cmd := &cobra.Command{
		Use:   "args <image>",
		Short: "Print the sorter arguments for an image",
		Long: `Print the argument list that run would pass to the pixel sorter.

The image must exist and be readable. By default the arguments are printed as
one shell-quoted command line; --lines prints one argument per line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			s := session.New(nil, logger)
			if err := s.SetSource(args[0]); err != nil {
				return err
			}
			if err := applyModelFlags(cmd, s); err != nil {
				return err
			}

			sortArgs, err := s.Arguments()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if lines {
				for _, a := range sortArgs {
					fmt.Fprintln(out, a)
				}
				return nil
			}
			fmt.Fprintln(out, formatArgs(executableName(cmd), sortArgs))
			return nil
		},
	}

	registerModelFlags(cmd.Flags())
	cmd.Flags().BoolVar(&lines, "lines", false, "print one argument per line")
	return cmd
}

// formatArgs renders args as a command line prefixed with the sorter name.
func formatArgs(executable string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(executable))
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n'\"\\$`*?[]{}()<>|&;#~") {
		return strconv.Quote(s)
	}
	return s
}
