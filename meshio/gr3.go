// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package meshio reads SCHISM horizontal grids and model output into
// schismgrid values.
package meshio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/2dChan/schismgrid"
	"github.com/2dChan/schismgrid/field"
	"github.com/ctessum/sparse"
	"github.com/golang/geo/r3"
)

// ErrFormat is returned for malformed input.
var ErrFormat = errors.New("meshio: malformed input")

// DepthField is the static field holding the bathymetry read with a grid.
const DepthField = "depth"

// lineReader yields the whitespace separated fields of successive lines
// and tracks the line number for error messages.
type lineReader struct {
	s    *bufio.Scanner
	line int
}

func (lr *lineReader) next() ([]string, error) {
	if !lr.s.Scan() {
		if err := lr.s.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: line %d: unexpected end of file", ErrFormat, lr.line+1)
	}
	lr.line++
	return strings.Fields(lr.s.Text()), nil
}

func (lr *lineReader) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrFormat, lr.line, fmt.Sprintf(format, args...))
}

// ReadGR3 reads an ASCII hgrid.gr3 file: a title line, a line with the
// element and node counts, one "id x y depth" line per node and one
// "id arity n1 ... nk" line per element with 1-based node ids. Open and
// land boundary sections after the elements are ignored.
//
// The node depths become the Z coordinates and the DepthField field.
func ReadGR3(r io.Reader, setters ...schismgrid.Option) (*schismgrid.Grid, error) {
	opts := schismgrid.Options{FillValue: -1}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lr := &lineReader{s: s}

	if _, err := lr.next(); err != nil {
		return nil, err
	}
	counts, err := lr.next()
	if err != nil {
		return nil, err
	}
	if len(counts) < 2 {
		return nil, lr.errorf("want element and node counts, got %q", strings.Join(counts, " "))
	}
	ne, err1 := strconv.Atoi(counts[0])
	np, err2 := strconv.Atoi(counts[1])
	if err := errors.Join(err1, err2); err != nil || ne < 0 || np < 0 {
		return nil, lr.errorf("invalid counts %q", strings.Join(counts[:2], " "))
	}

	nodes := make([]r3.Vector, np)
	depth := sparse.ZerosDense(np)
	for i := range np {
		f, err := lr.next()
		if err != nil {
			return nil, err
		}
		if len(f) < 4 {
			return nil, lr.errorf("node needs id, x, y and depth, got %d fields", len(f))
		}
		if id, err := strconv.Atoi(f[0]); err != nil || id != i+1 {
			return nil, lr.errorf("node id %q, want %d", f[0], i+1)
		}
		var v [3]float64
		for k := range v {
			if v[k], err = strconv.ParseFloat(f[k+1], 64); err != nil {
				return nil, lr.errorf("node %d: %v", i+1, err)
			}
		}
		nodes[i] = r3.Vector{X: v[0], Y: v[1], Z: v[2]}
		depth.Set(v[2], i)
	}

	elems := make([][]int, ne)
	width := 3
	for i := range ne {
		f, err := lr.next()
		if err != nil {
			return nil, err
		}
		if len(f) < 2 {
			return nil, lr.errorf("element needs id and arity, got %d fields", len(f))
		}
		if id, err := strconv.Atoi(f[0]); err != nil || id != i+1 {
			return nil, lr.errorf("element id %q, want %d", f[0], i+1)
		}
		nv, err := strconv.Atoi(f[1])
		if err != nil || nv < 1 || len(f) < 2+nv {
			return nil, lr.errorf("element %d: invalid arity %q for %d fields", i+1, f[1], len(f))
		}
		row := make([]int, nv)
		for k := range nv {
			n, err := strconv.Atoi(f[2+k])
			if err != nil || n < 1 || n > np {
				return nil, lr.errorf("element %d: invalid node id %q", i+1, f[2+k])
			}
			row[k] = n - 1
		}
		elems[i] = row
		width = max(width, nv)
	}

	faceNodes := make([]int, 0, ne*width)
	for _, row := range elems {
		faceNodes = append(faceNodes, row...)
		for range width - len(row) {
			faceNodes = append(faceNodes, opts.FillValue)
		}
	}

	g, err := schismgrid.NewGrid(nodes, faceNodes, width, setters...)
	if err != nil {
		return nil, err
	}
	d, err := field.NewDense([]string{"node"}, depth)
	if err != nil {
		return nil, err
	}
	if err := g.AttachField(DepthField, d); err != nil {
		return nil, err
	}
	return g, nil
}
