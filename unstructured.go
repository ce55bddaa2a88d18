// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package schismgrid

import (
	"slices"

	"github.com/2dChan/schismgrid/export"
	"github.com/2dChan/schismgrid/field"
)

// UnstructuredGrid returns the grid as an export.UnstructuredGrid. Fill
// slots keep the grid's fill value. Static nodal fields, those indexed by
// node only, become point data.
func (g *Grid) UnstructuredGrid() (*export.UnstructuredGrid, error) {
	ug, err := export.NewUnstructuredGrid(
		slices.Clone(g.Nodes), slices.Clone(g.FaceNodes), g.MaxFaceNodes, g.FillValue)
	if err != nil {
		return nil, err
	}
	for _, name := range g.Variables() {
		src := g.fields[name]
		if len(src.Shape()) != 1 {
			continue
		}
		v, err := field.ReadAll(src)
		if err != nil {
			return nil, err
		}
		ug.PointData[name] = v
	}
	return ug, nil
}

// WriteFile writes the grid to path through export.Write.
func (g *Grid) WriteFile(path string, setters ...export.Option) error {
	ug, err := g.UnstructuredGrid()
	if err != nil {
		return err
	}
	return export.Write(ug, path, setters...)
}
