// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package field provides lazy, slice-at-a-time access to model variables
// indexed by (time, node[, level]).
package field

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ctessum/sparse"
)

var (
	// ErrVariableNotFound is returned when a named variable is absent.
	ErrVariableNotFound = errors.New("field: variable not found")
	// ErrOutOfRange is returned for hyperslabs outside a source's shape.
	ErrOutOfRange = errors.New("field: index out of range")
)

// Source is an n-dimensional array read one hyperslab at a time.
// Implementations may be backed by memory, memory-mapped files or remote
// storage; callers must not assume the whole array is resident.
type Source interface {
	// Dims returns the dimension names, outermost first.
	Dims() []string
	// Shape returns the dimension lengths, outermost first.
	Shape() []int
	// Read returns the row-major values of the half-open hyperslab
	// [begin, end). Missing or fill values are returned as NaN.
	Read(begin, end []int) ([]float64, error)
}

// CheckRange validates a hyperslab against shape and returns its element
// count.
func CheckRange(shape, begin, end []int) (int, error) {
	if len(begin) != len(shape) || len(end) != len(shape) {
		return 0, fmt.Errorf("%w: hyperslab rank %d/%d, want %d",
			ErrOutOfRange, len(begin), len(end), len(shape))
	}
	n := 1
	for i, l := range shape {
		if begin[i] < 0 || end[i] > l || begin[i] > end[i] {
			return 0, fmt.Errorf("%w: dimension %d range [%d, %d) outside [0, %d)",
				ErrOutOfRange, i, begin[i], end[i], l)
		}
		n *= end[i] - begin[i]
	}
	return n, nil
}

// Dense is an in-memory Source.
type Dense struct {
	dims []string
	data *sparse.DenseArray
}

// NewDense wraps data, whose shape must have one entry per dims name.
func NewDense(dims []string, data *sparse.DenseArray) (*Dense, error) {
	if len(dims) != len(data.Shape) {
		return nil, fmt.Errorf("field: %d dimension names for a rank %d array", len(dims), len(data.Shape))
	}
	return &Dense{dims: dims, data: data}, nil
}

func (d *Dense) Dims() []string { return d.dims }
func (d *Dense) Shape() []int   { return d.data.Shape }

// Read copies the requested hyperslab.
func (d *Dense) Read(begin, end []int) ([]float64, error) {
	n, err := CheckRange(d.data.Shape, begin, end)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, n)
	if n == 0 {
		return out, nil
	}
	idx := slices.Clone(begin)
	for {
		out = append(out, d.data.Get(idx...))
		if !advance(idx, begin, end) {
			return out, nil
		}
	}
}

// advance increments idx in row-major order within [begin, end) and
// reports whether idx is still inside the hyperslab.
func advance(idx, begin, end []int) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < end[i] {
			return true
		}
		idx[i] = begin[i]
	}
	return false
}

// Concat stitches sources along their first dimension, the way model runs
// split output into consecutive files. All sources must agree on the
// remaining dimensions.
func Concat(sources ...Source) (Source, error) {
	if len(sources) == 0 {
		return nil, errors.New("field: nothing to concatenate")
	}
	first := sources[0]
	if len(first.Shape()) == 0 {
		return nil, errors.New("field: cannot concatenate scalars")
	}
	c := &concat{sources: sources, offsets: make([]int, len(sources)+1)}
	for i, s := range sources {
		if !slices.Equal(s.Dims(), first.Dims()) || !slices.Equal(s.Shape()[1:], first.Shape()[1:]) {
			return nil, fmt.Errorf("field: source %d has dims %v shape %v, want %v %v",
				i, s.Dims(), s.Shape(), first.Dims(), first.Shape())
		}
		c.offsets[i+1] = c.offsets[i] + s.Shape()[0]
	}
	return c, nil
}

type concat struct {
	sources []Source
	offsets []int
}

func (c *concat) Dims() []string { return c.sources[0].Dims() }

func (c *concat) Shape() []int {
	shape := slices.Clone(c.sources[0].Shape())
	shape[0] = c.offsets[len(c.offsets)-1]
	return shape
}

func (c *concat) Read(begin, end []int) ([]float64, error) {
	n, err := CheckRange(c.Shape(), begin, end)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, n)
	for i, s := range c.sources {
		lo := max(begin[0], c.offsets[i])
		hi := min(end[0], c.offsets[i+1])
		if lo >= hi {
			continue
		}
		b := slices.Clone(begin)
		e := slices.Clone(end)
		b[0], e[0] = lo-c.offsets[i], hi-c.offsets[i]
		v, err := s.Read(b, e)
		if err != nil {
			return nil, err
		}
		out = append(out, v...)
	}
	return out, nil
}

// Remap returns a view of src whose dimension dim is replaced by the
// gathered positions indices: position i of the view reads position
// indices[i] of src.
func Remap(src Source, dim int, indices []int) (Source, error) {
	shape := src.Shape()
	if dim < 0 || dim >= len(shape) {
		return nil, fmt.Errorf("%w: dimension %d of rank %d source", ErrOutOfRange, dim, len(shape))
	}
	for _, i := range indices {
		if i < 0 || i >= shape[dim] {
			return nil, fmt.Errorf("%w: index %d outside [0, %d)", ErrOutOfRange, i, shape[dim])
		}
	}
	return &remap{src: src, dim: dim, indices: indices}, nil
}

type remap struct {
	src     Source
	dim     int
	indices []int
}

func (r *remap) Dims() []string { return r.src.Dims() }

func (r *remap) Shape() []int {
	shape := slices.Clone(r.src.Shape())
	shape[r.dim] = len(r.indices)
	return shape
}

// Read reads the covering range of the parent once and gathers from it.
func (r *remap) Read(begin, end []int) ([]float64, error) {
	n, err := CheckRange(r.Shape(), begin, end)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, n)
	if n == 0 {
		return out, nil
	}
	want := r.indices[begin[r.dim]:end[r.dim]]
	lo, hi := slices.Min(want), slices.Max(want)+1

	pb := slices.Clone(begin)
	pe := slices.Clone(end)
	pb[r.dim], pe[r.dim] = lo, hi
	parent, err := r.src.Read(pb, pe)
	if err != nil {
		return nil, err
	}

	// Strides of the parent hyperslab.
	rank := len(begin)
	strides := make([]int, rank)
	s := 1
	for i := rank - 1; i >= 0; i-- {
		strides[i] = s
		s *= pe[i] - pb[i]
	}

	idx := slices.Clone(begin)
	for {
		off := 0
		for i := range rank {
			p := idx[i] - begin[i]
			if i == r.dim {
				p = r.indices[idx[i]] - lo
			}
			off += p * strides[i]
		}
		out = append(out, parent[off])
		if !advance(idx, begin, end) {
			return out, nil
		}
	}
}
