// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package schismgrid

import (
	"fmt"

	"github.com/2dChan/schismgrid/field"
	"github.com/2dChan/schismgrid/planar"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Submesh is a Grid cut out of a parent grid.
type Submesh struct {
	*Grid
	// NodeParents[i] is the parent index of node i.
	NodeParents []int
	// FaceParents[i] is the parent index of face i, ascending.
	FaceParents []int
}

// Subset returns the faces of g that overlap or touch the polygon with
// vertices ring. The ring may be open or closed; it must be simple and
// have a non-zero area.
func (g *Grid) Subset(ring []r2.Point) (*Submesh, error) {
	poly, err := planar.NewPolygon(ring)
	if err != nil {
		return nil, err
	}
	return g.SubsetPolygon(poly)
}

// SubsetPolygon is like Subset for an already validated polygon.
//
// Nodes of the result are numbered in the order they are first referenced
// by the included faces. Fill slots stay fill slots. Attached fields and
// bottom indices are carried over as views onto the parent's data.
func (g *Grid) SubsetPolygon(poly planar.Polygon) (*Submesh, error) {
	idx, err := g.Index()
	if err != nil {
		return nil, err
	}

	faceParents := []int{}
	for _, f := range idx.FacesIn(poly.Bounds()) {
		face := Face{idx: f, g: g}
		if poly.IntersectsRing(face.Ring()) {
			faceParents = append(faceParents, f)
		}
	}

	w := g.MaxFaceNodes
	child := make([]int, len(g.Nodes))
	for i := range child {
		child[i] = -1
	}
	nodeParents := []int{}
	faceNodes := make([]int, 0, len(faceParents)*w)
	for _, f := range faceParents {
		for _, n := range g.FaceNodes[f*w : (f+1)*w] {
			if n == g.FillValue {
				faceNodes = append(faceNodes, n)
				continue
			}
			if child[n] < 0 {
				child[n] = len(nodeParents)
				nodeParents = append(nodeParents, n)
			}
			faceNodes = append(faceNodes, child[n])
		}
	}

	nodes := make([]r3.Vector, len(nodeParents))
	for i, n := range nodeParents {
		nodes[i] = g.Nodes[n]
	}
	sub := &Grid{
		Nodes:        nodes,
		FaceNodes:    faceNodes,
		MaxFaceNodes: w,
		FillValue:    g.FillValue,
		NumLayers:    g.NumLayers,
		eps:          g.eps,
		fields:       make(map[string]field.Source, len(g.fields)),
	}
	if g.bottom != nil {
		sub.bottom = make([]int, len(nodeParents))
		for i, n := range nodeParents {
			sub.bottom[i] = g.bottom[n]
		}
	}
	for name, src := range g.fields {
		r, err := field.Remap(src, nodeDim(src.Shape()), nodeParents)
		if err != nil {
			return nil, fmt.Errorf("schismgrid: remapping field %q: %w", name, err)
		}
		sub.fields[name] = r
	}

	return &Submesh{
		Grid:        sub,
		NodeParents: nodeParents,
		FaceParents: faceParents,
	}, nil
}
