// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package spatial indexes the triangles of a mesh for point and region
// queries.
package spatial

import (
	"errors"
	"math"
	"slices"

	"github.com/2dChan/schismgrid/trimesh"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/golang/geo/r2"
)

const (
	defaultEps = 1e-9

	minChildren = 25
	maxChildren = 50
)

// triangle is a mesh triangle stored in the R-tree.
type triangle struct {
	geom.Polygon
	id         int
	face       int
	a, b, c    r2.Point
	doubleArea float64
}

// Hit is a triangle that contains a query point.
type Hit struct {
	Triangle int
	Face     int
	// Weights are the barycentric coordinates of the point with respect
	// to the triangle's vertices, in triangle order.
	Weights [3]float64
}

// Index is a read-only bounding-volume index over the triangles of a
// TriMesh. It is safe for concurrent use.
type Index struct {
	tree *rtree.Rtree
	eps  float64
}

// NewIndex builds an index over tm whose vertex coordinates are points.
// Triangles with zero area are indexed for region queries but never
// contain a point.
// eps is the tolerance, in barycentric units, within which a point on an
// edge or vertex counts as inside; zero selects the default.
func NewIndex(points []r2.Point, tm *trimesh.TriMesh, eps float64) (*Index, error) {
	if eps < 0 {
		return nil, errors.New("spatial: eps must be non-negative")
	}
	if eps == 0 {
		eps = defaultEps
	}

	idx := &Index{
		tree: rtree.NewTree(minChildren, maxChildren),
		eps:  eps,
	}
	for i, t := range tm.Triangles {
		for _, v := range t {
			if v < 0 || v >= len(points) {
				return nil, errors.New("spatial: triangle references a missing point")
			}
		}
		a, b, c := points[t[0]], points[t[1]], points[t[2]]
		area := b.Sub(a).Cross(c.Sub(a))
		idx.tree.Insert(&triangle{
			Polygon: geom.Polygon{{
				{X: a.X, Y: a.Y}, {X: b.X, Y: b.Y}, {X: c.X, Y: c.Y}, {X: a.X, Y: a.Y},
			}},
			id:         i,
			face:       tm.Faces[i],
			a:          a,
			b:          b,
			c:          c,
			doubleArea: area,
		})
	}
	return idx, nil
}

// Eps returns the barycentric tolerance of the index.
func (idx *Index) Eps() float64 {
	return idx.eps
}

// Locate returns every triangle containing p, ordered by triangle index.
// A point on an edge or vertex shared by several triangles yields all of
// them.
func (idx *Index) Locate(p r2.Point) []Hit {
	var hits []Hit
	for _, g := range idx.tree.SearchIntersect(idx.pointBounds(p)) {
		t := g.(*triangle)
		if t.doubleArea == 0 {
			continue
		}
		w, ok := t.barycentric(p, idx.eps)
		if !ok {
			continue
		}
		hits = append(hits, Hit{Triangle: t.id, Face: t.face, Weights: w})
	}
	slices.SortFunc(hits, func(a, b Hit) int { return a.Triangle - b.Triangle })
	return hits
}

// FacesAt returns the sorted, de-duplicated indices of the faces that own a
// triangle containing p. It returns an empty slice when p is outside the
// mesh.
func (idx *Index) FacesAt(p r2.Point) []int {
	faces := []int{}
	for _, h := range idx.Locate(p) {
		faces = append(faces, h.Face)
	}
	slices.Sort(faces)
	return slices.Compact(faces)
}

// FacesIn returns the sorted indices of the faces owning a triangle whose
// bounding box overlaps r. It is a candidate set; callers run exact tests.
func (idx *Index) FacesIn(r r2.Rect) []int {
	faces := []int{}
	if r.IsEmpty() {
		return faces
	}
	pad := idx.padding(r.Center())
	b := &geom.Bounds{
		Min: geom.Point{X: r.X.Lo - pad, Y: r.Y.Lo - pad},
		Max: geom.Point{X: r.X.Hi + pad, Y: r.Y.Hi + pad},
	}
	for _, g := range idx.tree.SearchIntersect(b) {
		faces = append(faces, g.(*triangle).face)
	}
	slices.Sort(faces)
	return slices.Compact(faces)
}

// pointBounds returns a small box around p so that triangles whose bounding
// box merely touches p are still candidates.
func (idx *Index) pointBounds(p r2.Point) *geom.Bounds {
	pad := idx.padding(p)
	return &geom.Bounds{
		Min: geom.Point{X: p.X - pad, Y: p.Y - pad},
		Max: geom.Point{X: p.X + pad, Y: p.Y + pad},
	}
}

func (idx *Index) padding(p r2.Point) float64 {
	return idx.eps * math.Max(1, math.Max(math.Abs(p.X), math.Abs(p.Y)))
}

// barycentric returns the weights of p with respect to (a, b, c) and
// whether all of them are at least -eps.
func (t *triangle) barycentric(p r2.Point, eps float64) ([3]float64, bool) {
	v0 := t.b.Sub(t.a)
	v1 := t.c.Sub(t.a)
	v2 := p.Sub(t.a)

	wb := v2.Cross(v1) / t.doubleArea
	wc := v0.Cross(v2) / t.doubleArea
	wa := 1 - wb - wc

	w := [3]float64{wa, wb, wc}
	return w, wa >= -eps && wb >= -eps && wc >= -eps
}
