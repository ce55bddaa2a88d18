// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package meshio

import (
	"fmt"
	"math"
	"slices"

	"github.com/2dChan/schismgrid"
	"github.com/2dChan/schismgrid/field"
	"github.com/golang/geo/r3"
)

// Names used by SCHISM UGRID output.
const (
	NodeXVar     = "SCHISM_hgrid_node_x"
	NodeYVar     = "SCHISM_hgrid_node_y"
	FaceNodesVar = "SCHISM_hgrid_face_nodes"

	NodeDim   = "nSCHISM_hgrid_node"
	LayersDim = "nSCHISM_vgrid_layers"
	TimeDim   = "time"
)

// ReadUGRID reads the horizontal grid of a SCHISM UGRID output file such
// as out2d_1.nc and attaches its nodal variables as fields.
//
// Face connectivity honours the _FillValue and start_index attributes of
// FaceNodesVar; start_index defaults to 1. The number of levels is taken
// from LayersDim unless set by the options.
func ReadUGRID(nc *field.NetCDF, setters ...schismgrid.Option) (*schismgrid.Grid, error) {
	opts := schismgrid.Options{FillValue: -1}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	for _, name := range []string{NodeXVar, NodeYVar, FaceNodesVar} {
		if !nc.Has(name) {
			return nil, fmt.Errorf("%w: %q", field.ErrVariableNotFound, name)
		}
	}

	x, err := readVar(nc, NodeXVar)
	if err != nil {
		return nil, err
	}
	y, err := readVar(nc, NodeYVar)
	if err != nil {
		return nil, err
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d x and %d y node coordinates", ErrFormat, len(x), len(y))
	}
	var z []float64
	if nc.Has(DepthField) {
		if z, err = readVar(nc, DepthField); err != nil {
			return nil, err
		}
		if len(z) != len(x) {
			return nil, fmt.Errorf("%w: %d depths for %d nodes", ErrFormat, len(z), len(x))
		}
	}
	nodes := make([]r3.Vector, len(x))
	for i := range nodes {
		nodes[i] = r3.Vector{X: x[i], Y: y[i]}
		if z != nil {
			nodes[i].Z = z[i]
		}
	}

	faceNodes, width, err := readFaceNodes(nc, opts.FillValue)
	if err != nil {
		return nil, err
	}

	if l, ok := nc.DimensionLength(LayersDim); ok {
		// Later options override the file.
		setters = append([]schismgrid.Option{schismgrid.WithLayers(l)}, setters...)
	}
	g, err := schismgrid.NewGrid(nodes, faceNodes, width, setters...)
	if err != nil {
		return nil, err
	}
	if err := AttachFields(g, nc); err != nil {
		return nil, err
	}
	return g, nil
}

// AttachFields attaches every nodal variable of files to g. Variables
// indexed by (time, node[, level]) are joined along time, appending the
// files in order to a field of the same name already attached to g. Static
// nodal variables are taken from g or else the first file defining them.
func AttachFields(g *schismgrid.Grid, files ...*field.NetCDF) error {
	parts := make(map[string][]field.Source)
	for _, name := range g.Variables() {
		src, _ := g.Field(name)
		parts[name] = []field.Source{src}
	}
	var order []string
	for _, nc := range files {
		for _, name := range nc.Variables() {
			if name == NodeXVar || name == NodeYVar {
				continue
			}
			v, err := nc.Variable(name)
			if err != nil {
				return err
			}
			dims := v.Dims()
			static := len(dims) == 1 && dims[0] == NodeDim
			if !isTimed(v) && !static {
				continue
			}
			prev, ok := parts[name]
			if ok && (static || !isTimed(prev[0])) {
				continue
			}
			if !slices.Contains(order, name) {
				order = append(order, name)
			}
			parts[name] = append(prev, v)
		}
	}

	for _, name := range order {
		src := parts[name][0]
		if len(parts[name]) > 1 {
			var err error
			if src, err = field.Concat(parts[name]...); err != nil {
				return fmt.Errorf("meshio: joining %s: %w", name, err)
			}
		}
		if err := g.AttachField(name, src); err != nil {
			return err
		}
	}
	return nil
}

func isTimed(src field.Source) bool {
	dims := src.Dims()
	return len(dims) >= 2 && dims[0] == TimeDim && dims[1] == NodeDim
}

func readVar(nc *field.NetCDF, name string) ([]float64, error) {
	v, err := nc.Variable(name)
	if err != nil {
		return nil, err
	}
	if len(v.Shape()) != 1 {
		return nil, fmt.Errorf("%w: %s has shape %v, want one dimension", ErrFormat, name, v.Shape())
	}
	return field.ReadAll(v)
}

// readFaceNodes returns the 0-based connectivity with fill slots set to
// fill.
func readFaceNodes(nc *field.NetCDF, fill int) ([]int, int, error) {
	v, err := nc.Variable(FaceNodesVar)
	if err != nil {
		return nil, 0, err
	}
	shape := v.Shape()
	if len(shape) != 2 {
		return nil, 0, fmt.Errorf("%w: %s has shape %v, want two dimensions", ErrFormat, FaceNodesVar, shape)
	}
	raw, err := v.ReadInts([]int{0, 0}, shape)
	if err != nil {
		return nil, 0, err
	}

	start := 1
	if s, ok := nc.FloatAttribute(FaceNodesVar, "start_index"); ok {
		start = int(s)
	}
	fileFill := math.MinInt
	if f, ok := v.FillValue(); ok {
		fileFill = int(f)
	}
	out := make([]int, len(raw))
	for i, n := range raw {
		if n == fileFill || n < start {
			out[i] = fill
			continue
		}
		out[i] = n - start
	}
	return out, shape[1], nil
}
