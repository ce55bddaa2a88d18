// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/sirupsen/logrus"
)

const (
	// FaceField is the attribute holding the index of each cell.
	FaceField = "face"

	maxFieldName = 10
)

// shapefileParts are the files written alongside the .shp file.
var shapefileParts = []string{".shp", ".shx", ".dbf"}

// writeShapefile writes every cell as a polygon with its index and cell
// data as attributes. Point data has no place in the format and is
// dropped.
func writeShapefile(ug *UnstructuredGrid, path string, log logrus.FieldLogger) (err error) {
	names := sortedKeys(ug.CellData)
	fields := []goshp.Field{goshp.NumberField(FaceField, 10)}
	seen := map[string]bool{FaceField: true}
	for _, name := range names {
		short := name
		if len(short) > maxFieldName {
			short = short[:maxFieldName]
		}
		if seen[short] {
			return fmt.Errorf("export: cell data %q clashes with another field when shortened to %q", name, short)
		}
		seen[short] = true
		fields = append(fields, goshp.FloatField(short, 24, 8))
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stage, err := os.MkdirTemp(dir, "."+stem+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: staging %s: %w", ErrIO, path, err)
	}
	log.WithField("staged", stage).Debug("staging export")
	defer os.RemoveAll(stage)

	enc, err := shp.NewEncoderFromFields(filepath.Join(stage, stem+".shp"), goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrIO, path, err)
	}
	vals := make([]interface{}, len(fields))
	for i := range ug.NumCells() {
		vals[0] = i
		for j, name := range names {
			vals[j+1] = ug.CellData[name][i]
		}
		if err := enc.EncodeFields(ug.cellPolygon(i), vals...); err != nil {
			enc.Close()
			return fmt.Errorf("%w: writing cell %d to %s: %w", ErrIO, i, path, err)
		}
	}
	enc.Close()

	if err := replaceParts(stage, dir, stem); err != nil {
		return fmt.Errorf("%w: finalizing %s: %w", ErrIO, path, err)
	}
	log.Debug("export finalized")
	return nil
}

// rename is replaced in tests.
var rename = os.Rename

// replaceParts moves the staged parts of stem into dir. Parts already in
// dir are kept in the stage until every rename succeeded; on failure the
// moved parts are removed and the previous ones restored.
func replaceParts(stage, dir, stem string) error {
	prev := filepath.Join(stage, "prev")
	if err := os.Mkdir(prev, 0o700); err != nil {
		return err
	}
	type part struct {
		src, dst, old string
		hadOld        bool
	}
	var done []part
	rollback := func() {
		for _, p := range slices.Backward(done) {
			os.Remove(p.dst)
			if p.hadOld {
				rename(p.old, p.dst)
			}
		}
	}

	for _, ext := range shapefileParts {
		p := part{
			src: filepath.Join(stage, stem+ext),
			dst: filepath.Join(dir, stem+ext),
			old: filepath.Join(prev, stem+ext),
		}
		if _, err := os.Stat(p.src); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if _, err := os.Lstat(p.dst); err == nil {
			if err := rename(p.dst, p.old); err != nil {
				rollback()
				return err
			}
			p.hadOld = true
		}
		if err := rename(p.src, p.dst); err != nil {
			if p.hadOld {
				rename(p.old, p.dst)
			}
			rollback()
			return err
		}
		done = append(done, p)
	}
	return nil
}

// cellPolygon returns cell i as a closed, clockwise ring, the outer ring
// orientation of the format.
func (ug *UnstructuredGrid) cellPolygon(i int) geom.Polygon {
	cell := ug.Cell(i)
	ring := make(geom.Path, 0, len(cell)+1)
	for _, n := range cell {
		ring = append(ring, geom.Point{X: ug.Points[n].X, Y: ug.Points[n].Y})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	var area float64
	for j := 0; j+1 < len(ring); j++ {
		area += ring[j].X*ring[j+1].Y - ring[j+1].X*ring[j].Y
	}
	if area > 0 {
		for l, r := 0, len(ring)-1; l < r; l, r = l+1, r-1 {
			ring[l], ring[r] = ring[r], ring[l]
		}
	}
	return geom.Polygon{ring}
}
