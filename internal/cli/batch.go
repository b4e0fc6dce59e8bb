package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/remeh/sizedwaitgroup"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/sortlaunch/internal/image"
	"github.com/jmylchreest/sortlaunch/internal/session"
)

type batchOutcome struct {
	path     string
	err      error
	duration time.Duration
}

func newBatchCmd(d *deps) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "batch <image|dir>...",
		Short: "Run the pixel sorter over many images",
		Long: `Run the pixel sorter once per image with the same parameters.

Directories are expanded to the images they contain, in name order. Up to
--jobs sorter processes run at once; each image gets its own process and a
failure on one image does not stop the others.

Examples:
  sortlaunch batch -p circles frames/
  sortlaunch batch -j 2 --angle 90 a.png b.png c.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)

			template := session.New(nil, logger)
			if err := applyModelFlags(cmd, template); err != nil {
				return err
			}

			inputs, err := collectImages(cmd.Context(), logger, args)
			if err != nil {
				return err
			}
			if jobs < 1 {
				jobs = 1
			}
			logger.Info("sorting images", "count", len(inputs), "jobs", jobs)

			outcomes := make([]batchOutcome, len(inputs))
			wg := sizedwaitgroup.New(jobs)
			for i, path := range inputs {
				i, path := i, path
				wg.Add()
				go func() {
					defer wg.Done()

					model := template.Model().Clone()
					controller := newController(cmd, d, logger.With("image", filepath.Base(path)))
					start := time.Now()
					_, err := controller.Run(cmd.Context(), model, path)
					outcomes[i] = batchOutcome{path: path, err: err, duration: time.Since(start)}
				}()
			}
			wg.Wait()

			return reportBatch(cmd, outcomes)
		},
	}

	registerModelFlags(cmd.Flags())
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "number of sorter processes to run at once")
	return cmd
}

// collectImages expands args into validated absolute image paths. URLs are
// downloaded first.
func collectImages(ctx context.Context, logger hclog.Logger, args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		path, err := localImage(ctx, logger, arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}
		if info.IsDir() {
			found, err := image.ScanDirectoryForImages(path)
			if err != nil {
				return nil, err
			}
			for _, p := range found {
				abs, err := image.ResolveImagePath(p)
				if err != nil {
					return nil, err
				}
				inputs = append(inputs, abs)
			}
			continue
		}
		abs, err := image.ResolveImagePath(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, abs)
	}
	return inputs, nil
}

func reportBatch(cmd *cobra.Command, outcomes []batchOutcome) error {
	failed := 0
	table := NewTable("Image", "Time", "Result")
	for _, o := range outcomes {
		status := "ok"
		if o.err != nil {
			failed++
			status = o.err.Error()
		}
		table.AddRow(o.path, o.duration.Round(time.Millisecond).String(), status)
	}
	table.FitWidth(terminalWidth(cmd.OutOrStdout()))
	_, _ = table.WriteTo(cmd.OutOrStdout())

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(outcomes))
	}
	return nil
}
