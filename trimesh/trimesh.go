// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package trimesh converts fill-padded mixed triangle/quad connectivity into
// an all-triangle representation.
package trimesh

import (
	"errors"
	"fmt"
)

// ErrUnsupportedTopology is returned for faces whose number of valid nodes
// is not 3 or 4.
var ErrUnsupportedTopology = errors.New("trimesh: unsupported face topology")

// TriMesh is the triangulated view of a face list.
type TriMesh struct {
	Triangles [][3]int
	// Faces[t] is the index of the face that produced triangle t.
	Faces []int
	// NOTE: Triangles of face f are FaceOffsets[f]:FaceOffsets[f+1].
	FaceOffsets []int
}

// NumTriangles returns the number of triangles.
func (tm *TriMesh) NumTriangles() int {
	return len(tm.Triangles)
}

// NumFaces returns the number of source faces.
func (tm *TriMesh) NumFaces() int {
	return len(tm.FaceOffsets) - 1
}

// FaceTriangles returns the triangle indices produced by face fIdx.
func (tm *TriMesh) FaceTriangles(fIdx int) []int {
	if fIdx < 0 || fIdx+1 >= len(tm.FaceOffsets) {
		panic("FaceTriangles: fIdx out of range")
	}
	start := tm.FaceOffsets[fIdx]
	end := tm.FaceOffsets[fIdx+1]
	out := make([]int, end-start)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// New triangulates faceNodes, a row-major array of width slots per face in
// which unused trailing slots hold fill.
// A triangle is emitted as-is. A quad (v1,v2,v3,v4) is always split into
// (v1,v2,v3) and (v3,v4,v1).
func New(faceNodes []int, width, fill int) (*TriMesh, error) {
	if width <= 0 {
		return nil, errors.New("trimesh: face width must be positive")
	}
	if len(faceNodes)%width != 0 {
		return nil, fmt.Errorf("trimesh: %d face slots is not a multiple of width %d",
			len(faceNodes), width)
	}

	numFaces := len(faceNodes) / width
	tm := &TriMesh{
		Triangles:   make([][3]int, 0, numFaces*2),
		Faces:       make([]int, 0, numFaces*2),
		FaceOffsets: make([]int, numFaces+1),
	}

	for f := range numFaces {
		row := faceNodes[f*width : (f+1)*width]
		n := Arity(row, fill)
		switch n {
		case 3:
			tm.Triangles = append(tm.Triangles, [3]int{row[0], row[1], row[2]})
			tm.Faces = append(tm.Faces, f)
		case 4:
			tm.Triangles = append(tm.Triangles,
				[3]int{row[0], row[1], row[2]},
				[3]int{row[2], row[3], row[0]})
			tm.Faces = append(tm.Faces, f, f)
		default:
			return nil, fmt.Errorf("%w: face %d has %d nodes", ErrUnsupportedTopology, f, n)
		}
		tm.FaceOffsets[f+1] = len(tm.Triangles)
	}

	return tm, nil
}

// Arity returns the number of leading valid slots in row.
func Arity(row []int, fill int) int {
	for i, v := range row {
		if v == fill {
			return i
		}
	}
	return len(row)
}
