package planar

import (
	"errors"
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
)

func pts(xy ...float64) []r2.Point {
	out := make([]r2.Point, len(xy)/2)
	for i := range out {
		out[i] = r2.Point{X: xy[2*i], Y: xy[2*i+1]}
	}
	return out
}

// NewPolygon

func TestNewPolygon(t *testing.T) {
	tests := []struct {
		name    string
		ring    []r2.Point
		wantLen int
		wantErr bool
	}{
		{"square open", pts(0, 0, 1, 0, 1, 1, 0, 1), 4, false},
		{"square closed", pts(0, 0, 1, 0, 1, 1, 0, 1, 0, 0), 4, false},
		{"duplicate vertex", pts(0, 0, 1, 0, 1, 0, 1, 1, 0, 1), 4, false},
		{"clockwise", pts(0, 0, 0, 1, 1, 1, 1, 0), 4, false},
		{"concave", pts(0, 0, 4, 0, 4, 4, 2, 1, 0, 4), 5, false},
		{"two vertices", pts(0, 0, 1, 1, 0, 0), 0, true},
		{"collinear", pts(0, 0, 1, 1, 2, 2), 0, true},
		{"bow tie", pts(0, 0, 1, 1, 1, 0, 0, 1), 0, true},
		{"fold back", pts(0, 0, 2, 0, 1, 0, 1, 1), 0, true},
		{"touching vertex", pts(0, 0, 2, 0, 1, 1, 2, 2, 0, 2, 1, 1), 0, true},
		{"nan", pts(0, 0, 1, 0, math.NaN(), 1), 0, true},
		{"empty", nil, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPolygon(tt.ring)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPolygon(%v) error = %v, wantErr %v", tt.ring, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidGeometry) {
					t.Errorf("NewPolygon(%v) error = %v, want %v", tt.ring, err, ErrInvalidGeometry)
				}
				return
			}
			if got := len(p.Vertices()); got != tt.wantLen {
				t.Errorf("len(p.Vertices()) = %d, want %d", got, tt.wantLen)
			}
		})
	}
}

func TestFromGeom(t *testing.T) {
	square := geom.Polygon{{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}, {X: 0, Y: 0}}}
	p, err := FromGeom(square)
	if err != nil {
		t.Fatalf("FromGeom(square) error = %v, want nil", err)
	}
	if diff := cmp.Diff(pts(0, 0, 2, 0, 2, 2, 0, 2), p.Vertices()); diff != "" {
		t.Errorf("p.Vertices() mismatch (-want +got):\n%s", diff)
	}

	holed := append(square, geom.Path{{X: 0.5, Y: 0.5}, {X: 1, Y: 0.5}, {X: 1, Y: 1}})
	if _, err := FromGeom(holed); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("FromGeom(holed) error = %v, want %v", err, ErrInvalidGeometry)
	}
}

// Polygon

func TestPolygon_Area(t *testing.T) {
	ccw := mustPolygon(t, pts(0, 0, 2, 0, 2, 3, 0, 3))
	if got := ccw.Area(); got != 6 {
		t.Errorf("ccw.Area() = %v, want 6", got)
	}
	cw := mustPolygon(t, pts(0, 0, 0, 3, 2, 3, 2, 0))
	if got := cw.Area(); got != -6 {
		t.Errorf("cw.Area() = %v, want -6", got)
	}
}

func TestPolygon_ContainsPoint(t *testing.T) {
	p := mustPolygon(t, pts(0, 0, 4, 0, 4, 4, 2, 1, 0, 4))
	tests := []struct {
		name string
		q    r2.Point
		want bool
	}{
		{"inside", r2.Point{X: 1, Y: 0.5}, true},
		{"in notch", r2.Point{X: 2, Y: 3}, false},
		{"on edge", r2.Point{X: 2, Y: 0}, true},
		{"on vertex", r2.Point{X: 4, Y: 4}, true},
		{"outside", r2.Point{X: 5, Y: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.ContainsPoint(tt.q); got != tt.want {
				t.Errorf("p.ContainsPoint(%v) = %v, want %v", tt.q, got, tt.want)
			}
		})
	}
}

func TestPolygon_IntersectsRing(t *testing.T) {
	p := mustPolygon(t, pts(0, 0, 4, 0, 4, 4, 0, 4))
	tests := []struct {
		name string
		ring []r2.Point
		want bool
	}{
		{"inside", pts(1, 1, 2, 1, 2, 2), true},
		{"overlapping", pts(3, 3, 5, 3, 5, 5), true},
		{"touching edge", pts(4, 1, 5, 1, 5, 2, 4, 2), true},
		{"touching vertex", pts(4, 4, 5, 4, 5, 5), true},
		{"containing", pts(-1, -1, 10, -1, 10, 10, -1, 10), true},
		{"disjoint", pts(5, 5, 6, 5, 6, 6), false},
		{"bounds overlap only", pts(3.8, 4.5, 5, 3.2, 5, 4.5), false},
		{"degenerate inside", pts(1, 1, 2, 2, 3, 3), true},
		{"degenerate crossing", pts(-1, 2, 2, 2, 5, 2), true},
		{"degenerate outside", pts(5, 0, 6, 1, 7, 2), false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IntersectsRing(tt.ring); got != tt.want {
				t.Errorf("p.IntersectsRing(%v) = %v, want %v", tt.ring, got, tt.want)
			}
		})
	}
}

// Helpers

func mustPolygon(t *testing.T, ring []r2.Point) Polygon {
	t.Helper()
	p, err := NewPolygon(ring)
	if err != nil {
		t.Fatalf("NewPolygon(%v) error = %v, want nil", ring, err)
	}
	return p
}
