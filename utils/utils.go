// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package utils provides deterministic mesh and point generators for tests,
// benchmarks and examples.
package utils

import (
	"math/rand"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Fill is the connectivity fill value used by the generated meshes.
const Fill = -1

// FaceLayout selects how GenerateStructuredMesh fills each grid cell.
type FaceLayout int

const (
	// Triangles splits every cell into two triangles; rows are 3 wide.
	Triangles FaceLayout = iota
	// Quads emits one quad per cell; rows are 4 wide.
	Quads
	// MixedFaces alternates quads and triangle pairs in a checkerboard;
	// rows are 4 wide with triangles fill-padded.
	MixedFaces
)

// Width returns the face row width produced for the layout.
func (l FaceLayout) Width() int {
	if l == Triangles {
		return 3
	}
	return 4
}

// GenerateStructuredMesh returns the nodes and fill-padded face rows of an
// nx by ny cell rectangle with spacing dx, dy anchored at the origin.
// Node (i, j) has index j*(nx+1)+i and bed elevation -(1+i+j).
// Faces are counter-clockwise and ordered row by row.
func GenerateStructuredMesh(nx, ny int, dx, dy float64, layout FaceLayout) ([]r3.Vector, []int) {
	nodes := make([]r3.Vector, 0, (nx+1)*(ny+1))
	for j := range ny + 1 {
		for i := range nx + 1 {
			nodes = append(nodes, r3.Vector{
				X: float64(i) * dx,
				Y: float64(j) * dy,
				Z: -float64(1 + i + j),
			})
		}
	}

	id := func(i, j int) int { return j*(nx+1) + i }
	faces := make([]int, 0, nx*ny*2*layout.Width())
	for j := range ny {
		for i := range nx {
			ll, lr, ur, ul := id(i, j), id(i+1, j), id(i+1, j+1), id(i, j+1)
			switch {
			case layout == Triangles:
				faces = append(faces, ll, lr, ur, ur, ul, ll)
			case layout == Quads || (i+j)%2 == 0:
				faces = append(faces, ll, lr, ur, ul)
			default:
				faces = append(faces, ll, lr, ur, Fill, ur, ul, ll, Fill)
			}
		}
	}
	return nodes, faces
}

// GenerateRandomPoints returns cnt points uniformly distributed in rect.
// The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, seed int64, rect r2.Rect) []r2.Point {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	points := make([]r2.Point, cnt)

	for i := range cnt {
		points[i] = r2.Point{
			X: rect.X.Lo + random.Float64()*rect.X.Length(),
			Y: rect.Y.Lo + random.Float64()*rect.Y.Length(),
		}
	}

	return points
}
