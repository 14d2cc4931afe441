package viewer

import (
	"errors"
	"strings"

	"github.com/sqweek/dialog"

	"github.com/Faultbox/splatview/pkg/formats"
)

// ErrCancelled is returned by a FileChooser when the user dismissed it.
var ErrCancelled = errors.New("viewer: file selection cancelled")

// FileChooser asks the user for a file to open.
type FileChooser interface {
	Choose() (string, error)
}

// DialogChooser opens the native file dialog. It blocks the caller until
// the dialog closes.
type DialogChooser struct {
	StartDir string
}

// Choose shows the dialog filtered to loadable formats.
func (c DialogChooser) Choose() (string, error) {
	b := dialog.File().
		Title("Open point cloud").
		Filter("Point clouds and meshes ("+strings.Join(formats.Extensions(), ", ")+")", formats.Extensions()...).
		Filter("All files", "*")
	if c.StartDir != "" {
		b = b.SetStartDir(c.StartDir)
	}
	path, err := b.Load()
	if errors.Is(err, dialog.ErrCancelled) {
		return "", ErrCancelled
	}
	return path, err
}
