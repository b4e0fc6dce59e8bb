// Package cli provides the command-line interface for sortlaunch.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/sortlaunch/internal/dialog"
	"github.com/jmylchreest/sortlaunch/internal/invoke"
	"github.com/jmylchreest/sortlaunch/internal/remote"
	"github.com/jmylchreest/sortlaunch/internal/version"
)

// deps are the collaborators commands reach outside the process through.
// Tests replace them with fakes.
type deps struct {
	runner invoke.ProcessRunner
	picker dialog.Picker
}

// NewRootCmd builds the sortlaunch command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&deps{picker: dialog.NewZenityPicker()})
}

func newRootCmd(d *deps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sortlaunch",
		Short: "Configure and launch the pixel sorter",
		Long: `sortlaunch collects pixel sorting parameters, checks them against their
legal ranges, and runs the external pixel-sorter with the matching arguments.

Invalid field values are ignored and the previous value is kept, so a run
always uses a valid configuration.`,
		Version:      version.Short(),
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().String("executable", invoke.DefaultExecutable, "pixel sorter binary (env "+invoke.EnvExecutable+")")
	rootCmd.PersistentFlags().Duration("timeout", invoke.DefaultTimeout, "maximum run time, 0 for none (env "+invoke.EnvTimeout+")")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newRunCmd(d))
	rootCmd.AddCommand(newArgsCmd())
	rootCmd.AddCommand(newFieldsCmd())
	rootCmd.AddCommand(newShellCmd(d))
	rootCmd.AddCommand(newBatchCmd(d))
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newStatusCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// newLogger creates the command logger honouring --verbose and --quiet.
func newLogger(cmd *cobra.Command) hclog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")

	level := hclog.Info
	switch {
	case quiet:
		level = hclog.Error
	case verbose:
		level = hclog.Debug
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "sortlaunch",
		Output: cmd.ErrOrStderr(),
		Level:  level,
	})
}

// newController builds a controller from the environment, with explicitly
// set flags taking precedence.
func newController(cmd *cobra.Command, d *deps, logger hclog.Logger) *invoke.Controller {
	b := invoke.NewBuilder().WithEnvConfig().WithLogger(logger)

	if f := cmd.Flags().Lookup("executable"); f != nil && f.Changed {
		exe := f.Value.String()
		b.WithOverride(func(c *invoke.Config) { c.Executable = exe })
	}
	if f := cmd.Flags().Lookup("timeout"); f != nil && f.Changed {
		timeout, err := time.ParseDuration(f.Value.String())
		if err == nil {
			b.WithOverride(func(c *invoke.Config) { c.Timeout = timeout })
		}
	}
	if d.runner != nil {
		b.WithRunner(d.runner)
	}
	return b.Build()
}

// executableName is the sorter binary a run would use: the flag if set,
// then the environment, then the default.
func executableName(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup("executable"); f != nil && f.Changed {
		return f.Value.String()
	}
	if exe := os.Getenv(invoke.EnvExecutable); exe != "" {
		return exe
	}
	return invoke.DefaultExecutable
}

// localImage returns arg unchanged, or downloads it first when it is a URL.
func localImage(ctx context.Context, logger hclog.Logger, arg string) (string, error) {
	if !remote.IsURL(arg) {
		return arg, nil
	}
	logger.Info("downloading image", "url", arg)
	return remote.Download(ctx, arg, remote.Options{Logger: logger})
}

// ExitCode maps an error returned by the command tree to a process exit
// status. A failed sorter run passes its own exit code through.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var failure *invoke.ExternalFailureError
	if errors.As(err, &failure) && failure.ExitCode > 0 {
		return failure.ExitCode
	}
	return 1
}
