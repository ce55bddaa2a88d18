// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package vertical averages layered fields over the water column.
package vertical

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/2dChan/schismgrid/field"
	"gonum.org/v1/gonum/floats"
)

// ErrNotLayered is returned for fields without a level dimension.
var ErrNotLayered = errors.New("vertical: field has no level dimension")

// Column describes a layered field to be averaged over depth.
type Column struct {
	// Values is indexed by (time, node, level).
	Values field.Source
	// Z holds the level elevations with the same shape as Values. When nil
	// every active level has the same weight.
	Z field.Source
	// Bottom holds the 0-based first active level of each node. When nil
	// every level is potentially active.
	Bottom []int
}

// Shape returns the number of time steps, nodes and levels of the column
// and validates that Z and Bottom agree with Values.
func (c Column) Shape() (nt, nn, nl int, err error) {
	if c.Values == nil {
		return 0, 0, 0, errors.New("vertical: no values")
	}
	shape := c.Values.Shape()
	if len(shape) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: shape %v", ErrNotLayered, shape)
	}
	nt, nn, nl = shape[0], shape[1], shape[2]
	if c.Z != nil && !slices.Equal(c.Z.Shape(), shape) {
		return 0, 0, 0, fmt.Errorf("vertical: z shape %v, want %v", c.Z.Shape(), shape)
	}
	if c.Bottom != nil && len(c.Bottom) != nn {
		return 0, 0, 0, fmt.Errorf("vertical: %d bottom indices for %d nodes", len(c.Bottom), nn)
	}
	return nt, nn, nl, nil
}

// Average returns the depth average of every node at time step t. Nodes
// without an active level are NaN.
func (c Column) Average(t int) ([]float64, error) {
	nt, nn, nl, err := c.Shape()
	if err != nil {
		return nil, err
	}
	if t < 0 || t >= nt {
		return nil, fmt.Errorf("%w: time step %d outside [0, %d)", field.ErrOutOfRange, t, nt)
	}

	begin := []int{t, 0, 0}
	end := []int{t + 1, nn, nl}
	values, err := c.Values.Read(begin, end)
	if err != nil {
		return nil, err
	}
	var z []float64
	if c.Z != nil {
		if z, err = c.Z.Read(begin, end); err != nil {
			return nil, err
		}
	}

	out := make([]float64, nn)
	w := make([]float64, 0, nl)
	v := make([]float64, 0, nl)
	for n := range nn {
		bottom := 0
		if c.Bottom != nil {
			bottom = c.Bottom[n]
		}
		var zn []float64
		if z != nil {
			zn = z[n*nl : (n+1)*nl]
		}
		out[n] = average(values[n*nl:(n+1)*nl], zn, bottom, w[:0], v[:0])
	}
	return out, nil
}

// Each calls fn with the depth average of every time step in order. Only
// one time step of the field is read at a time.
func (c Column) Each(fn func(t int, avg []float64) error) error {
	nt, _, _, err := c.Shape()
	if err != nil {
		return err
	}
	for t := range nt {
		avg, err := c.Average(t)
		if err != nil {
			return err
		}
		if err := fn(t, avg); err != nil {
			return err
		}
	}
	return nil
}

// Profile returns the depth average of one node's level values. z may be
// nil; bottom is the first active level.
func Profile(values, z []float64, bottom int) float64 {
	return average(values, z, bottom, nil, nil)
}

// average uses w and v as scratch space.
// With elevations, level k weighs half the thickness of the active
// intervals above and below it, which equals integrating the
// piecewise-linear profile and dividing by the column height.
func average(values, z []float64, bottom int, w, v []float64) float64 {
	bottom = max(bottom, 0)
	prev := -1
	for k := bottom; k < len(values); k++ {
		if math.IsNaN(values[k]) || (z != nil && math.IsNaN(z[k])) {
			continue
		}
		v = append(v, values[k])
		w = append(w, 0)
		if z != nil && prev >= 0 {
			half := math.Abs(z[k]-z[prev]) / 2
			w[len(w)-2] += half
			w[len(w)-1] += half
		}
		prev = k
	}
	if len(v) == 0 {
		return math.NaN()
	}

	total := floats.Sum(w)
	if total == 0 {
		return floats.Sum(v) / float64(len(v))
	}
	return floats.Dot(w, v) / total
}
