// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package schismgrid

import (
	"fmt"
	"math"

	"github.com/2dChan/schismgrid/field"
	"github.com/2dChan/schismgrid/vertical"
)

// Field names written by the model that drive depth averaging.
const (
	// ZCoordinatesField holds level elevations indexed by (time, node, level).
	ZCoordinatesField = "zCoordinates"
	// BottomIndexField holds the 1-based deepest active level of each node.
	BottomIndexField = "bottom_index_node"
)

// DepthAverage returns the depth average of the layered field variable at
// time step t for every node. Nodes without an active level are NaN.
//
// Levels are weighted by thickness when ZCoordinatesField is attached and
// uniformly otherwise.
func (g *Grid) DepthAverage(variable string, t int) ([]float64, error) {
	c, err := g.column(variable)
	if err != nil {
		return nil, err
	}
	return c.Average(t)
}

// DepthAverageAll calls fn with the depth average of every time step in
// order, reading one time step at a time.
func (g *Grid) DepthAverageAll(variable string, fn func(t int, avg []float64) error) error {
	c, err := g.column(variable)
	if err != nil {
		return err
	}
	return c.Each(fn)
}

func (g *Grid) column(variable string) (vertical.Column, error) {
	values, err := g.Field(variable)
	if err != nil {
		return vertical.Column{}, err
	}
	c := vertical.Column{Values: values}
	if z, ok := g.fields[ZCoordinatesField]; ok && variable != ZCoordinatesField {
		c.Z = z
	}

	switch {
	case g.bottom != nil:
		c.Bottom = g.bottom
	case g.fields[BottomIndexField] != nil:
		if c.Bottom, err = g.readBottomIndex(); err != nil {
			return vertical.Column{}, err
		}
	}
	return c, nil
}

// readBottomIndex converts the attached 1-based bottom levels to 0-based
// ones. Missing levels mark the node dry.
func (g *Grid) readBottomIndex() ([]int, error) {
	src := g.fields[BottomIndexField]
	shape := src.Shape()
	begin := make([]int, len(shape))
	end := make([]int, len(shape))
	switch len(shape) {
	case 1:
		end[0] = shape[0]
	case 2:
		// Time-varying indices; the first record describes the mesh.
		end[0], end[1] = min(1, shape[0]), shape[1]
	default:
		return nil, fmt.Errorf("schismgrid: %s has rank %d, want 1 or 2", BottomIndexField, len(shape))
	}
	v, err := src.Read(begin, end)
	if err != nil {
		return nil, err
	}
	if len(v) != len(g.Nodes) {
		return nil, fmt.Errorf("%w: %s has %d values for %d nodes",
			field.ErrOutOfRange, BottomIndexField, len(v), len(g.Nodes))
	}
	bottom := make([]int, len(v))
	for i, b := range v {
		if math.IsNaN(b) {
			bottom[i] = math.MaxInt32
			continue
		}
		bottom[i] = int(b) - 1
	}
	return bottom, nil
}
