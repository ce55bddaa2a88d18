// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// ErrIO is returned when the destination cannot be written.
	ErrIO = errors.New("export: i/o error")
	// ErrUnsupportedFormat is returned for unknown file extensions.
	ErrUnsupportedFormat = errors.New("export: unsupported format")
)

type Options struct {
	Logger logrus.FieldLogger
}

type Option func(*Options) error

// WithLogger sets the logger that reports staged and finalized files.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Options) error {
		if l == nil {
			return errors.New("WithLogger: logger is nil")
		}
		o.Logger = l
		return nil
	}
}

// Write writes ug to path in the format selected by its extension:
// ".vtu" for VTK XML unstructured grids, ".shp" for ESRI shapefiles.
//
// Output is staged next to path and renamed into place, so a failed write
// leaves no partial file at path.
func Write(ug *UnstructuredGrid, path string, setters ...Option) error {
	opts := Options{Logger: discardLogger()}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return err
		}
	}
	if err := ug.Validate(); err != nil {
		return err
	}

	log := opts.Logger.WithField("path", path)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".vtu":
		return writeFile(path, log, func(w io.Writer) error { return writeVTU(w, ug) })
	case ".shp":
		return writeShapefile(ug, path, log)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// writeFile stages the output of write in a temporary file in the
// directory of path and renames it to path.
func writeFile(path string, log logrus.FieldLogger, write func(io.Writer) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: staging %s: %w", ErrIO, path, err)
	}
	staged := f.Name()
	log.WithField("staged", staged).Debug("staging export")
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(staged)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrIO, path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: syncing %s: %w", ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrIO, path, err)
	}
	if err := os.Rename(staged, path); err != nil {
		return fmt.Errorf("%w: finalizing %s: %w", ErrIO, path, err)
	}
	log.Debug("export finalized")
	return nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
