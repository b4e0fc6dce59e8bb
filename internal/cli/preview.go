package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sortlaunch/internal/image"
)

func newPreviewCmd() *cobra.Command {
	var (
		output string
		width  int
		height int
		rotate float64
	)

	defaults := image.DefaultPreviewOptions()

	cmd := &cobra.Command{
		Use:   "preview <image>",
		Short: "Write a thumbnail of an image",
		Long: `Write a small copy of an image, optionally rotated, for checking a source
or mask before sorting. Rotation is counter-clockwise in degrees, matching
the sort angle.

The output format follows the output file extension (png, jpg, gif, tif, bmp).
Without --output the thumbnail is written next to the source as
<name>-preview.png.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := localImage(cmd.Context(), newLogger(cmd), args[0])
			if err != nil {
				return err
			}
			dst := output
			if dst == "" {
				if src != args[0] {
					return fmt.Errorf("--output is required for a URL source")
				}
				dst = previewPath(src)
			}

			opts := image.PreviewOptions{MaxWidth: width, MaxHeight: height, Angle: rotate}
			if err := image.SavePreview(src, dst, opts); err != nil {
				return err
			}

			w, h, err := image.GetImageDimensions(dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%dx%d)\n", dst, w, h)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().IntVar(&width, "width", defaults.MaxWidth, "maximum thumbnail width")
	cmd.Flags().IntVar(&height, "height", defaults.MaxHeight, "maximum thumbnail height")
	cmd.Flags().Float64Var(&rotate, "rotate", 0, "rotate the thumbnail by this many degrees")
	return cmd
}

func previewPath(src string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + "-preview.png"
}
