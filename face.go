// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package schismgrid

import (
	"fmt"

	"github.com/2dChan/schismgrid/trimesh"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// FaceKind is the topology of a face.
type FaceKind int

const (
	Unsupported FaceKind = iota
	Triangle
	Quad
)

func (k FaceKind) String() string {
	switch k {
	case Triangle:
		return "triangle"
	case Quad:
		return "quad"
	}
	return "unsupported"
}

// Face is a view structure for accessing a face of a Grid.
type Face struct {
	idx int
	g   *Grid
}

// Index returns the index of the face in the Grid.
func (f Face) Index() int {
	return f.idx
}

// Row returns the face's connectivity slots including fill padding.
func (f Face) Row() []int {
	w := f.g.MaxFaceNodes
	return f.g.FaceNodes[f.idx*w : (f.idx+1)*w]
}

// NodeIndices returns the indices of the face's nodes in order.
func (f Face) NodeIndices() []int {
	row := f.Row()
	return row[:f.Arity()]
}

// Arity returns the number of nodes of the face.
func (f Face) Arity() int {
	return trimesh.Arity(f.Row(), f.g.FillValue)
}

func (f Face) Kind() FaceKind {
	switch f.Arity() {
	case 3:
		return Triangle
	case 4:
		return Quad
	}
	return Unsupported
}

// Node returns the coordinates of the face's j-th node.
// It returns an error if j is out of range.
func (f Face) Node(j int) (r3.Vector, error) {
	nodes := f.NodeIndices()
	if j < 0 || j >= len(nodes) {
		return r3.Vector{}, fmt.Errorf("Node: index %d out of range [0 %d)", j, len(nodes))
	}
	return f.g.Nodes[nodes[j]], nil
}

// Ring returns the horizontal outline of the face.
func (f Face) Ring() []r2.Point {
	nodes := f.NodeIndices()
	ring := make([]r2.Point, len(nodes))
	for i, n := range nodes {
		ring[i] = r2.Point{X: f.g.Nodes[n].X, Y: f.g.Nodes[n].Y}
	}
	return ring
}
