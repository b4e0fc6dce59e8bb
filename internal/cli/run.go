package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/sortlaunch/internal/dialog"
	"github.com/jmylchreest/sortlaunch/internal/invoke"
	"github.com/jmylchreest/sortlaunch/internal/session"
)

func newRunCmd(d *deps) *cobra.Command {
	var (
		pickSource bool
		pickMask   bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "run [image]",
		Short: "Run the pixel sorter on an image",
		Long: `Run the external pixel sorter on an image with the given parameters.

Each parameter is checked against its legal range; a value outside it is
ignored and the default is used instead. Parameters that do not apply to the
chosen pattern or interval mode are still passed through unchanged.

The image may be an HTTPS URL; it is downloaded to the user cache first.

Examples:
  # Sort along lines at 45 degrees
  sortlaunch run --angle 45 photo.jpg

  # Concentric circles around (120, 80), sorted by hue, no angle
  sortlaunch run -p circles --use-angle=false --center-x 120 --center-y 80 -s hue photo.jpg

  # Random intervals with a mask, picking both files with a dialog
  sortlaunch run -i random -w 60 --pick --pick-mask

  # Show the arguments without running anything
  sortlaunch run --dry-run -r photo.jpg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			s := session.New(newController(cmd, d, logger), logger)

			if err := selectImages(cmd.Context(), logger, s, d.picker, args, pickSource, pickMask); err != nil {
				return err
			}
			if err := applyModelFlags(cmd, s); err != nil {
				return err
			}

			if dryRun {
				sortArgs, err := s.Arguments()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatArgs(executableName(cmd), sortArgs))
				return nil
			}

			result, err := s.Run(cmd.Context())
			if reportResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), result) {
				err = withoutStderr(err)
			}
			if err != nil {
				return describeRunError(err, logger)
			}
			return nil
		},
	}

	registerModelFlags(cmd.Flags())
	cmd.Flags().BoolVar(&pickSource, "pick", false, "choose the source image with a file dialog")
	cmd.Flags().BoolVar(&pickMask, "pick-mask", false, "choose the mask image with a file dialog")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the sorter arguments instead of running it")

	return cmd
}

// selectImages sets the source from args or a dialog, and optionally the mask from a dialog.
func selectImages(ctx context.Context, logger hclog.Logger, s *session.Session, picker dialog.Picker, args []string, pickSource, pickMask bool) error {
	switch {
	case len(args) == 1:
		path, err := localImage(ctx, logger, args[0])
		if err != nil {
			return err
		}
		if err := s.SetSource(path); err != nil {
			return err
		}
	case pickSource:
		path, err := picker.PickImage("Select image to sort", "")
		if err != nil {
			return fmt.Errorf("source selection: %w", err)
		}
		if err := s.SetSource(path); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: pass an image path or use --pick", invoke.ErrNoSource)
	}

	if pickMask {
		path, err := picker.PickImage("Select mask", "")
		if err != nil {
			return fmt.Errorf("mask selection: %w", err)
		}
		if err := s.SetMask(path); err != nil {
			return err
		}
	}
	return nil
}

// reportResult relays whatever the sorter printed and reports whether its
// stderr was among it.
func reportResult(stdout, stderr io.Writer, result *invoke.Result) bool {
	if result == nil {
		return false
	}
	if len(result.Stdout) > 0 {
		stdout.Write(result.Stdout)
	}
	if len(result.Stderr) > 0 {
		stderr.Write(result.Stderr)
		return true
	}
	return false
}

// withoutStderr strips already relayed sorter output from a failure so it
// is not printed a second time. The exit code is kept.
func withoutStderr(err error) error {
	var failure *invoke.ExternalFailureError
	if errors.As(err, &failure) && failure.Stderr != "" {
		return &invoke.ExternalFailureError{ExitCode: failure.ExitCode}
	}
	return err
}

// describeRunError adds a hint for the failures a user can act on.
func describeRunError(err error, logger hclog.Logger) error {
	switch {
	case errors.Is(err, invoke.ErrExecutableNotFound):
		return fmt.Errorf("%w (install it or set --executable / %s)", err, invoke.EnvExecutable)
	case errors.Is(err, invoke.ErrTimeout):
		return fmt.Errorf("%w (raise --timeout or set it to 0)", err)
	case errors.Is(err, invoke.ErrCancelled):
		logger.Info("run cancelled")
		return err
	default:
		return err
	}
}
