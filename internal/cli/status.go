package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sortlaunch/internal/invoke"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List running pixel sorter processes",
		Long: `List every running process whose executable matches the sorter binary,
including runs started by other sortlaunch instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			executable := executableName(cmd)
			procs, err := invoke.FindRunning(executable)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(procs) == 0 {
				fmt.Fprintf(out, "no %s processes running\n", executable)
				return nil
			}

			table := NewTable("PID", "PPID", "Executable")
			for _, p := range procs {
				table.AddRow(strconv.Itoa(p.PID), strconv.Itoa(p.PPID), p.Executable)
			}
			_, _ = table.WriteTo(out)
			return nil
		},
	}
}
