package image

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/kovidgoyal/imaging"
)

// PreviewOptions controls thumbnail generation.
type PreviewOptions struct {
	// MaxWidth and MaxHeight bound the thumbnail; aspect ratio is kept.
	MaxWidth  int
	MaxHeight int

	// Angle rotates the preview counter-clockwise by this many degrees, the
	// same way the sorter turns the image before sorting along lines.
	Angle float64
}

// DefaultPreviewOptions returns a 256x256 bound with no rotation.
func DefaultPreviewOptions() PreviewOptions {
	return PreviewOptions{MaxWidth: 256, MaxHeight: 256}
}

// Preview loads the image at path and returns a thumbnail of it.
func Preview(path string, opts PreviewOptions) (image.Image, error) {
	if opts.MaxWidth <= 0 || opts.MaxHeight <= 0 {
		return nil, fmt.Errorf("preview bounds must be positive (got %dx%d)", opts.MaxWidth, opts.MaxHeight)
	}
	if err := ValidateImagePath(path); err != nil {
		return nil, err
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	thumb := imaging.Fit(img, opts.MaxWidth, opts.MaxHeight, imaging.Lanczos)
	if math.Mod(opts.Angle, 360) != 0 {
		return imaging.Rotate(thumb, opts.Angle, color.Transparent), nil
	}
	return thumb, nil
}

// SavePreview writes a thumbnail of src to dst. The format follows dst's extension.
func SavePreview(src, dst string, opts PreviewOptions) error {
	thumb, err := Preview(src, opts)
	if err != nil {
		return err
	}
	if err := imaging.Save(thumb, dst); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}
