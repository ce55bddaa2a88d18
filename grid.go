// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package schismgrid implements queries over unstructured ocean model
// meshes: point location, polygon subsetting, depth averaging and export.
package schismgrid

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/2dChan/schismgrid/field"
	"github.com/2dChan/schismgrid/spatial"
	"github.com/2dChan/schismgrid/trimesh"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

const (
	defaultEps       = 1e-9
	defaultFillValue = -1
)

// Grid is an unstructured mesh of triangles and quads with optional
// vertical layers and attached nodal fields.
//
// A Grid must not be modified after the first query. Once constructed it
// is safe for concurrent use.
type Grid struct {
	// Nodes holds the node coordinates. Z is the node's depth or
	// elevation as given by the mesh file.
	Nodes []r3.Vector
	// FaceNodes holds MaxFaceNodes node indices per face, row-major.
	// Unused slots at the end of a row hold FillValue.
	FaceNodes    []int
	MaxFaceNodes int
	FillValue    int
	// NumLayers is the number of vertical levels, or 0 for a 2-D mesh.
	NumLayers int

	eps    float64
	bottom []int
	fields map[string]field.Source

	triOnce sync.Once
	tri     *trimesh.TriMesh
	triErr  error

	idxOnce sync.Once
	idx     *spatial.Index
	idxErr  error
}

// Options configures NewGrid.
type Options struct {
	Eps         float64
	FillValue   int
	Layers      int
	BottomIndex []int
}

type Option func(*Options) error

// WithEps sets the point location tolerance in barycentric units.
func WithEps(eps float64) Option {
	return func(o *Options) error {
		if eps <= 0 {
			return errors.New("WithEps: eps must be positive")
		}
		o.Eps = eps
		return nil
	}
}

// WithFillValue sets the marker of unused connectivity slots.
func WithFillValue(v int) Option {
	return func(o *Options) error {
		if v >= 0 {
			return errors.New("WithFillValue: fill value must be negative")
		}
		o.FillValue = v
		return nil
	}
}

// WithLayers sets the number of vertical levels.
func WithLayers(n int) Option {
	return func(o *Options) error {
		if n < 0 {
			return errors.New("WithLayers: number of layers must be non-negative")
		}
		o.Layers = n
		return nil
	}
}

// WithBottomIndex sets the 0-based deepest active level of every node.
func WithBottomIndex(bottom []int) Option {
	return func(o *Options) error {
		for i, b := range bottom {
			if b < 0 {
				return fmt.Errorf("WithBottomIndex: node %d has negative level %d", i, b)
			}
		}
		o.BottomIndex = bottom
		return nil
	}
}

// NewGrid returns a grid over nodes whose faces are the rows of faceNodes,
// width slots each. Faces with an arity other than 3 or 4 are accepted
// here and reported by Triangulation.
func NewGrid(nodes []r3.Vector, faceNodes []int, width int, setters ...Option) (*Grid, error) {
	opts := Options{
		Eps:       defaultEps,
		FillValue: defaultFillValue,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	if width < 3 {
		return nil, fmt.Errorf("%w: width %d, want at least 3", ErrInvalidFace, width)
	}
	if len(faceNodes)%width != 0 {
		return nil, fmt.Errorf("%w: %d connectivity slots is not a multiple of width %d",
			ErrInvalidFace, len(faceNodes), width)
	}
	for f := range len(faceNodes) / width {
		row := faceNodes[f*width : (f+1)*width]
		filled := false
		for j, n := range row {
			if n == opts.FillValue {
				filled = true
				continue
			}
			if filled {
				return nil, fmt.Errorf("%w: face %d has node %d after a fill slot", ErrInvalidFace, f, n)
			}
			if n < 0 || n >= len(nodes) {
				return nil, fmt.Errorf("%w: face %d slot %d references node %d of %d",
					ErrInvalidFace, f, j, n, len(nodes))
			}
		}
	}
	if opts.BottomIndex != nil && len(opts.BottomIndex) != len(nodes) {
		return nil, fmt.Errorf("schismgrid: %d bottom indices for %d nodes", len(opts.BottomIndex), len(nodes))
	}

	return &Grid{
		Nodes:        nodes,
		FaceNodes:    faceNodes,
		MaxFaceNodes: width,
		FillValue:    opts.FillValue,
		NumLayers:    opts.Layers,
		eps:          opts.Eps,
		bottom:       opts.BottomIndex,
		fields:       make(map[string]field.Source),
	}, nil
}

func (g *Grid) NumNodes() int {
	return len(g.Nodes)
}

func (g *Grid) NumFaces() int {
	return len(g.FaceNodes) / g.MaxFaceNodes
}

// Face returns a view of face i.
func (g *Grid) Face(i int) (Face, error) {
	if i < 0 || i >= g.NumFaces() {
		return Face{}, fmt.Errorf("Face: index %d out of range [0 %d)", i, g.NumFaces())
	}
	return Face{idx: i, g: g}, nil
}

// Eps returns the point location tolerance.
func (g *Grid) Eps() float64 {
	return g.eps
}

// BottomIndex returns the 0-based deepest active level of every node, or
// nil when the grid has none.
func (g *Grid) BottomIndex() []int {
	return g.bottom
}

// Bounds returns the horizontal extent of the nodes.
func (g *Grid) Bounds() r2.Rect {
	if len(g.Nodes) == 0 {
		return r2.EmptyRect()
	}
	return r2.RectFromPoints(g.points()...)
}

// AttachField makes src available under name. Fields are nodal: a rank 1
// source is indexed by node, higher ranks by (time, node, ...).
func (g *Grid) AttachField(name string, src field.Source) error {
	if src == nil {
		return fmt.Errorf("schismgrid: field %q is nil", name)
	}
	shape := src.Shape()
	if len(shape) == 0 {
		return fmt.Errorf("schismgrid: field %q is a scalar", name)
	}
	if n := shape[nodeDim(shape)]; n != len(g.Nodes) {
		return fmt.Errorf("schismgrid: field %q has %d nodes, want %d", name, n, len(g.Nodes))
	}
	g.fields[name] = src
	return nil
}

// Field returns the field attached under name.
func (g *Grid) Field(name string) (field.Source, error) {
	src, ok := g.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrVariableNotFound, name)
	}
	return src, nil
}

// Variables returns the sorted names of the attached fields.
func (g *Grid) Variables() []string {
	return slices.Sorted(maps.Keys(g.fields))
}

// Triangulation returns the triangulated view of the grid. It is computed
// on first use; later calls return the same value.
func (g *Grid) Triangulation() (*trimesh.TriMesh, error) {
	g.triOnce.Do(func() {
		g.tri, g.triErr = trimesh.New(g.FaceNodes, g.MaxFaceNodes, g.FillValue)
	})
	return g.tri, g.triErr
}

// Index returns the spatial index over the triangulated view, built on
// first use.
func (g *Grid) Index() (*spatial.Index, error) {
	g.idxOnce.Do(func() {
		tm, err := g.Triangulation()
		if err != nil {
			g.idxErr = err
			return
		}
		g.idx, g.idxErr = spatial.NewIndex(g.points(), tm, g.eps)
	})
	return g.idx, g.idxErr
}

// Triangulated returns a triangle-only grid with the same nodes, fields
// and levels. Face t of the result is triangle t of Triangulation.
func (g *Grid) Triangulated() (*Grid, error) {
	tm, err := g.Triangulation()
	if err != nil {
		return nil, err
	}
	faceNodes := make([]int, 0, 3*tm.NumTriangles())
	for _, t := range tm.Triangles {
		faceNodes = append(faceNodes, t[:]...)
	}
	tg := &Grid{
		Nodes:        g.Nodes,
		FaceNodes:    faceNodes,
		MaxFaceNodes: 3,
		FillValue:    g.FillValue,
		NumLayers:    g.NumLayers,
		eps:          g.eps,
		bottom:       g.bottom,
		fields:       maps.Clone(g.fields),
	}
	return tg, nil
}

func (g *Grid) points() []r2.Point {
	pts := make([]r2.Point, len(g.Nodes))
	for i, n := range g.Nodes {
		pts[i] = r2.Point{X: n.X, Y: n.Y}
	}
	return pts
}

// nodeDim returns the node dimension of a field of the given shape.
func nodeDim(shape []int) int {
	if len(shape) == 1 {
		return 0
	}
	return 1
}
