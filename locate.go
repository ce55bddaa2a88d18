// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package schismgrid

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// FacesAt returns the sorted indices of the faces containing (x, y). A
// point on an edge or vertex shared by several faces yields all of them;
// a point outside the mesh yields an empty slice.
func (g *Grid) FacesAt(x, y float64) ([]int, error) {
	idx, err := g.Index()
	if err != nil {
		return nil, err
	}
	return idx.FacesAt(r2.Point{X: x, Y: y}), nil
}

// Interpolate returns the linear interpolation of the nodal values at
// (x, y). On shared edges the result is the mean over the containing
// triangles. Outside the mesh it is NaN.
func (g *Grid) Interpolate(x, y float64, values []float64) (float64, error) {
	if len(values) != len(g.Nodes) {
		return 0, fmt.Errorf("schismgrid: %d values for %d nodes", len(values), len(g.Nodes))
	}
	idx, err := g.Index()
	if err != nil {
		return 0, err
	}
	tm, err := g.Triangulation()
	if err != nil {
		return 0, err
	}

	hits := idx.Locate(r2.Point{X: x, Y: y})
	if len(hits) == 0 {
		return math.NaN(), nil
	}
	var sum float64
	for _, h := range hits {
		t := tm.Triangles[h.Triangle]
		for k, w := range h.Weights {
			sum += w * values[t[k]]
		}
	}
	return sum / float64(len(hits)), nil
}
