// Package dialog opens native file-selection dialogs for choosing the source
// and mask images.
package dialog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ncruces/zenity"

	"github.com/jmylchreest/sortlaunch/internal/image"
)

// ErrCanceled is returned when the user dismisses the dialog.
var ErrCanceled = errors.New("selection cancelled")

// Picker selects an image file.
type Picker interface {
	PickImage(title, startDir string) (string, error)
}

// ZenityPicker shows the platform's native file dialog.
type ZenityPicker struct{}

// NewZenityPicker creates a picker backed by native dialogs.
func NewZenityPicker() *ZenityPicker {
	return &ZenityPicker{}
}

// PickImage asks the user for an image file. startDir may be empty.
func (p *ZenityPicker) PickImage(title, startDir string) (string, error) {
	opts := []zenity.Option{
		zenity.Title(title),
		ImageFilters(),
	}
	if startDir != "" {
		opts = append(opts, zenity.Filename(startDir+string(filepath.Separator)))
	}

	path, err := zenity.SelectFile(opts...)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", ErrCanceled
		}
		return "", fmt.Errorf("file dialog failed: %w", err)
	}
	return path, nil
}

// ImageFilters restricts the dialog to the image formats the sorter reads.
func ImageFilters() zenity.FileFilters {
	exts := image.SupportedImageExtensions()
	patterns := make([]string, len(exts))
	for i, ext := range exts {
		patterns[i] = "*" + ext
	}
	return zenity.FileFilters{{
		Name:     "Images (" + strings.Join(exts, ", ") + ")",
		Patterns: patterns,
		CaseFold: true,
	}}
}
