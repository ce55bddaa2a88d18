package field

import (
	"errors"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/google/go-cmp/cmp"
)

// Dense

func TestDense_Read(t *testing.T) {
	d := mustDense(t, 2, 3, 4)
	tests := []struct {
		name       string
		begin, end []int
		want       []float64
	}{
		{"single", []int{1, 2, 3}, []int{2, 3, 4}, []float64{123}},
		{"time slice column", []int{0, 1, 0}, []int{1, 2, 4}, []float64{10, 11, 12, 13}},
		{"node range", []int{1, 0, 2}, []int{2, 3, 3}, []float64{102, 112, 122}},
		{"empty", []int{0, 0, 0}, []int{0, 3, 4}, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Read(tt.begin, tt.end)
			if err != nil {
				t.Fatalf("d.Read(%v, %v) error = %v, want nil", tt.begin, tt.end, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("d.Read(%v, %v) mismatch (-want +got):\n%s", tt.begin, tt.end, diff)
			}
		})
	}
}

func TestDense_ReadOutOfRange(t *testing.T) {
	d := mustDense(t, 2, 3, 4)
	tests := []struct {
		name       string
		begin, end []int
	}{
		{"rank", []int{0, 0}, []int{1, 1}},
		{"past end", []int{0, 0, 0}, []int{3, 3, 4}},
		{"negative", []int{-1, 0, 0}, []int{1, 3, 4}},
		{"reversed", []int{1, 0, 0}, []int{0, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.Read(tt.begin, tt.end); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("d.Read(%v, %v) error = %v, want %v", tt.begin, tt.end, err, ErrOutOfRange)
			}
		})
	}
}

func TestNewDense_RankMismatch(t *testing.T) {
	if _, err := NewDense([]string{"time"}, sparse.ZerosDense(2, 3)); err == nil {
		t.Errorf("NewDense(1 name, rank 2) error = nil, want non-nil")
	}
}

// Concat

func TestConcat(t *testing.T) {
	a := mustDense(t, 2, 3, 1)
	b := mustDense(t, 3, 3, 1)
	c, err := Concat(a, b)
	if err != nil {
		t.Fatalf("Concat(...) error = %v, want nil", err)
	}
	if diff := cmp.Diff([]int{5, 3, 1}, c.Shape()); diff != "" {
		t.Errorf("c.Shape() mismatch (-want +got):\n%s", diff)
	}
	got, err := c.Read([]int{1, 2, 0}, []int{4, 3, 1})
	if err != nil {
		t.Fatalf("c.Read(...) error = %v, want nil", err)
	}
	// Rows 1 of a, then 0 and 1 of b.
	want := []float64{120, 20, 120}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("c.Read(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestConcat_Mismatch(t *testing.T) {
	if _, err := Concat(); err == nil {
		t.Errorf("Concat() error = nil, want non-nil")
	}
	if _, err := Concat(mustDense(t, 2, 3, 1), mustDense(t, 2, 4, 1)); err == nil {
		t.Errorf("Concat(shape mismatch) error = nil, want non-nil")
	}
}

// Remap

func TestRemap(t *testing.T) {
	d := mustDense(t, 2, 5, 2)
	r, err := Remap(d, 1, []int{4, 1, 3})
	if err != nil {
		t.Fatalf("Remap(...) error = %v, want nil", err)
	}
	if diff := cmp.Diff([]int{2, 3, 2}, r.Shape()); diff != "" {
		t.Errorf("r.Shape() mismatch (-want +got):\n%s", diff)
	}
	got, err := r.Read([]int{1, 0, 0}, []int{2, 3, 2})
	if err != nil {
		t.Fatalf("r.Read(...) error = %v, want nil", err)
	}
	want := []float64{140, 141, 110, 111, 130, 131}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("r.Read(...) mismatch (-want +got):\n%s", diff)
	}

	if _, err := Remap(d, 1, []int{5}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Remap(index 5) error = %v, want %v", err, ErrOutOfRange)
	}
	if _, err := Remap(d, 3, nil); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Remap(dim 3) error = %v, want %v", err, ErrOutOfRange)
	}
}

// Helpers

// mustDense returns a (time, node, level) array whose element value is
// 100*t + 10*n + k.
func mustDense(t *testing.T, nt, nn, nk int) *Dense {
	t.Helper()
	a := sparse.ZerosDense(nt, nn, nk)
	for i := range nt {
		for j := range nn {
			for k := range nk {
				a.Set(float64(100*i+10*j+k), i, j, k)
			}
		}
	}
	d, err := NewDense([]string{"time", "node", "level"}, a)
	if err != nil {
		t.Fatalf("NewDense(...) error = %v, want nil", err)
	}
	return d
}
