// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package planar provides simple-polygon validation and intersection
// predicates in the mesh's native planar coordinates.
package planar

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/golang/geo/r2"
	sf "github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidGeometry is returned for degenerate or self-intersecting
// polygons.
var ErrInvalidGeometry = errors.New("planar: invalid geometry")

// Polygon is a validated simple polygon. The ring is stored open: the
// closing vertex is not repeated.
type Polygon struct {
	ring   []r2.Point
	bounds r2.Rect

	shape   geom.Polygon
	feature sf.Geometry
}

// NewPolygon validates ring and returns it as a Polygon. A repeated closing
// vertex and consecutive duplicate vertices are dropped. Rings with fewer
// than three distinct vertices, zero area or a self-intersection are
// rejected with ErrInvalidGeometry.
func NewPolygon(ring []r2.Point) (Polygon, error) {
	pts := make([]r2.Point, 0, len(ring))
	for _, p := range ring {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return Polygon{}, fmt.Errorf("%w: non-finite vertex %v", ErrInvalidGeometry, p)
		}
		if len(pts) > 0 && pts[len(pts)-1] == p {
			continue
		}
		pts = append(pts, p)
	}
	for len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return Polygon{}, fmt.Errorf("%w: polygon needs at least 3 distinct vertices, got %d",
			ErrInvalidGeometry, len(pts))
	}

	bounds := r2.RectFromPoints(pts...)
	scale := math.Max(bounds.X.Length(), bounds.Y.Length())
	if math.Abs(SignedArea(pts)) <= 1e-12*scale*scale {
		return Polygon{}, fmt.Errorf("%w: polygon has zero area", ErrInvalidGeometry)
	}
	feature := sf.NewPolygon([]sf.LineString{lineString(pts)})
	if err := feature.Validate(); err != nil {
		return Polygon{}, fmt.Errorf("%w: %w", ErrInvalidGeometry, err)
	}
	return Polygon{
		ring:    pts,
		bounds:  bounds,
		shape:   geom.Polygon{path(pts)},
		feature: feature.AsGeometry(),
	}, nil
}

// FromGeom converts a single-ring geom.Polygon.
func FromGeom(p geom.Polygon) (Polygon, error) {
	if len(p) != 1 {
		return Polygon{}, fmt.Errorf("%w: polygon has %d rings, want 1", ErrInvalidGeometry, len(p))
	}
	ring := make([]r2.Point, len(p[0]))
	for i, v := range p[0] {
		ring[i] = r2.Point{X: v.X, Y: v.Y}
	}
	return NewPolygon(ring)
}

// Vertices returns the open ring of the polygon.
func (p Polygon) Vertices() []r2.Point {
	return p.ring
}

// Bounds returns the bounding rectangle of the polygon.
func (p Polygon) Bounds() r2.Rect {
	return p.bounds
}

// Area returns the signed area; positive for counter-clockwise rings.
func (p Polygon) Area() float64 {
	return SignedArea(p.ring)
}

// ContainsPoint reports whether q is inside p or on its boundary.
func (p Polygon) ContainsPoint(q r2.Point) bool {
	return geom.Point{X: q.X, Y: q.Y}.Within(p.shape) != geom.Outside
}

// IntersectsRing reports whether the closed region bounded by ring shares
// at least one point with p. Touching boundaries count. The ring may be
// degenerate.
func (p Polygon) IntersectsRing(ring []r2.Point) bool {
	if len(ring) == 0 {
		return false
	}
	if !r2.RectFromPoints(ring...).Intersects(p.bounds) {
		return false
	}
	if sf.Intersects(p.feature, lineString(ring).AsGeometry()) {
		return true
	}
	// Only a ring enclosing p is left.
	v := p.ring[0]
	return geom.Point{X: v.X, Y: v.Y}.Within(geom.Polygon{path(ring)}) != geom.Outside
}

// SignedArea returns the shoelace area of an open ring.
func SignedArea(ring []r2.Point) float64 {
	var sum float64
	n := len(ring)
	for i := range n {
		sum += ring[i].Cross(ring[(i+1)%n])
	}
	return sum / 2
}

// lineString returns the closed boundary of an open ring.
func lineString(ring []r2.Point) sf.LineString {
	coords := make([]float64, 0, 2*len(ring)+2)
	for _, v := range ring {
		coords = append(coords, v.X, v.Y)
	}
	coords = append(coords, ring[0].X, ring[0].Y)
	return sf.NewLineString(sf.NewSequence(coords, sf.DimXY))
}

// path returns an open ring as a closed geom.Path.
func path(ring []r2.Point) geom.Path {
	out := make(geom.Path, len(ring)+1)
	for i, v := range ring {
		out[i] = geom.Point{X: v.X, Y: v.Y}
	}
	out[len(ring)] = out[0]
	return out
}
