// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package export writes unstructured grids to files read by visualization
// and GIS tools.
package export

import (
	"fmt"
	"maps"
	"slices"

	"github.com/golang/geo/r3"
)

// VTK cell type codes.
const (
	VTKTriangle uint8 = 5
	VTKPolygon  uint8 = 7
	VTKQuad     uint8 = 9
)

// UnstructuredGrid is a point/cell mesh in the layout shared by the output
// formats. Connectivity holds Width slots per cell; unused trailing slots
// hold Fill.
type UnstructuredGrid struct {
	Points       []r3.Vector
	Connectivity []int
	Width        int
	Fill         int

	CellData  map[string][]float64
	PointData map[string][]float64
}

// NewUnstructuredGrid returns a grid without data arrays.
func NewUnstructuredGrid(points []r3.Vector, connectivity []int, width, fill int) (*UnstructuredGrid, error) {
	ug := &UnstructuredGrid{
		Points:       points,
		Connectivity: connectivity,
		Width:        width,
		Fill:         fill,
		CellData:     make(map[string][]float64),
		PointData:    make(map[string][]float64),
	}
	if err := ug.Validate(); err != nil {
		return nil, err
	}
	return ug, nil
}

// Validate checks that connectivity and data arrays agree with the points
// and cells of the grid.
func (ug *UnstructuredGrid) Validate() error {
	if ug.Width <= 0 {
		return fmt.Errorf("export: width %d, want positive", ug.Width)
	}
	if len(ug.Connectivity)%ug.Width != 0 {
		return fmt.Errorf("export: %d connectivity slots is not a multiple of width %d",
			len(ug.Connectivity), ug.Width)
	}
	if ug.Fill >= 0 {
		return fmt.Errorf("export: fill value %d, want negative", ug.Fill)
	}
	for i, n := range ug.Connectivity {
		if n != ug.Fill && (n < 0 || n >= len(ug.Points)) {
			return fmt.Errorf("export: cell %d references point %d of %d", i/ug.Width, n, len(ug.Points))
		}
	}
	for name, v := range ug.CellData {
		if len(v) != ug.NumCells() {
			return fmt.Errorf("export: cell data %q has %d values for %d cells", name, len(v), ug.NumCells())
		}
	}
	for name, v := range ug.PointData {
		if len(v) != len(ug.Points) {
			return fmt.Errorf("export: point data %q has %d values for %d points", name, len(v), len(ug.Points))
		}
	}
	return nil
}

func (ug *UnstructuredGrid) NumCells() int {
	return len(ug.Connectivity) / ug.Width
}

// Cell returns the point indices of cell i without fill slots.
func (ug *UnstructuredGrid) Cell(i int) []int {
	row := ug.Connectivity[i*ug.Width : (i+1)*ug.Width]
	for j, n := range row {
		if n == ug.Fill {
			return row[:j]
		}
	}
	return row
}

// CellTypes returns the VTK type of every cell.
func (ug *UnstructuredGrid) CellTypes() []uint8 {
	types := make([]uint8, ug.NumCells())
	for i := range types {
		switch len(ug.Cell(i)) {
		case 3:
			types[i] = VTKTriangle
		case 4:
			types[i] = VTKQuad
		default:
			types[i] = VTKPolygon
		}
	}
	return types
}

// Offsets returns the end of every cell in the packed connectivity that
// omits fill slots.
func (ug *UnstructuredGrid) Offsets() []int {
	offsets := make([]int, ug.NumCells())
	end := 0
	for i := range offsets {
		end += len(ug.Cell(i))
		offsets[i] = end
	}
	return offsets
}

func sortedKeys(m map[string][]float64) []string {
	return slices.Sorted(maps.Keys(m))
}
