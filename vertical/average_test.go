package vertical

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/2dChan/schismgrid/field"
	"github.com/ctessum/sparse"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var nan = math.NaN()

// Profile

func TestProfile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		z      []float64
		bottom int
		want   float64
	}{
		{"uniform", []float64{1, 2, 3, 6}, nil, 0, 3},
		{"uniform from bottom", []float64{100, 2, 4}, nil, 1, 3},
		{"trapezoid even", []float64{1, 3}, []float64{-2, 0}, 0, 2},
		// Intervals of 1 and 3: weights 0.5, 2, 1.5 over height 4.
		{"trapezoid uneven", []float64{0, 4, 8}, []float64{-4, -3, 0}, 0, (0*0.5 + 4*2 + 8*1.5) / 4},
		{"nan level skipped", []float64{nan, 2, 4}, []float64{nan, -1, 0}, 0, 3},
		{"single level", []float64{nan, nan, 5}, []float64{nan, nan, 0}, 0, 5},
		{"zero height", []float64{1, 3}, []float64{0, 0}, 0, 2},
		{"negative bottom", []float64{1, 3}, nil, -2, 2},
		{"dry", []float64{nan, nan}, []float64{nan, nan}, 0, nan},
		{"bottom past top", []float64{1, 2}, nil, 2, nan},
		{"no levels", nil, nil, 0, nan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Profile(tt.values, tt.z, tt.bottom)
			if !cmp.Equal(tt.want, got, cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, 1e-12)) {
				t.Errorf("Profile(%v, %v, %d) = %v, want %v", tt.values, tt.z, tt.bottom, got, tt.want)
			}
		})
	}
}

func TestProfile_Bounds(t *testing.T) {
	//nolint:gosec
	random := rand.New(rand.NewSource(0))
	const nl = 12
	for range 1000 {
		values := make([]float64, nl)
		z := make([]float64, nl)
		depth := -random.Float64() * 50
		for k := range nl {
			values[k] = random.NormFloat64() * 10
			z[k] = depth * (1 - float64(k)/(nl-1))
		}
		bottom := random.Intn(nl + 1)
		got := Profile(values, z, bottom)
		if bottom == nl {
			if !math.IsNaN(got) {
				t.Fatalf("Profile(..., %d) = %v, want NaN", bottom, got)
			}
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range values[bottom:] {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		if got < lo-1e-12 || got > hi+1e-12 {
			t.Fatalf("Profile(%v, %v, %d) = %v, want within [%v, %v]", values, z, bottom, got, lo, hi)
		}
	}
}

// Column

func TestColumn_Average(t *testing.T) {
	c := Column{
		Values: mustDense(t, [][][]float64{
			{{1, 3}, {nan, 4}, {nan, nan}},
			{{2, 6}, {5, 5}, {nan, nan}},
		}),
		Z: mustDense(t, [][][]float64{
			{{-1, 0}, {nan, 0}, {nan, nan}},
			{{-3, 0}, {-1, 0}, {nan, nan}},
		}),
		Bottom: []int{0, 1, 2},
	}

	tests := []struct {
		t    int
		want []float64
	}{
		{0, []float64{2, 4, nan}},
		{1, []float64{4, 5, nan}},
	}
	for _, tt := range tests {
		got, err := c.Average(tt.t)
		if err != nil {
			t.Fatalf("c.Average(%d) error = %v, want nil", tt.t, err)
		}
		if diff := cmp.Diff(tt.want, got, cmpopts.EquateNaNs()); diff != "" {
			t.Errorf("c.Average(%d) mismatch (-want +got):\n%s", tt.t, diff)
		}
	}

	if _, err := c.Average(2); !errors.Is(err, field.ErrOutOfRange) {
		t.Errorf("c.Average(2) error = %v, want %v", err, field.ErrOutOfRange)
	}
}

func TestColumn_Each(t *testing.T) {
	values := mustDense(t, [][][]float64{
		{{1, 3}},
		{{2, 4}},
		{{3, 5}},
	})
	c := Column{Values: &countingSource{Source: values}}

	var got []float64
	err := c.Each(func(step int, avg []float64) error {
		got = append(got, avg[0])
		return nil
	})
	if err != nil {
		t.Fatalf("c.Each(...) error = %v, want nil", err)
	}
	if diff := cmp.Diff([]float64{2, 3, 4}, got); diff != "" {
		t.Errorf("c.Each(...) averages mismatch (-want +got):\n%s", diff)
	}
	cs := c.Values.(*countingSource)
	if cs.maxSteps != 1 {
		t.Errorf("largest read spanned %d time steps, want 1", cs.maxSteps)
	}

	stop := errors.New("stop")
	calls := 0
	err = c.Each(func(int, []float64) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("c.Each(stop) = %v after %d calls, want %v after 1", err, calls, stop)
	}
}

func TestColumn_Shape(t *testing.T) {
	flat, err := field.NewDense([]string{"time", "node"}, sparse.ZerosDense(2, 3))
	if err != nil {
		t.Fatalf("field.NewDense(...) error = %v, want nil", err)
	}
	vals := mustDense(t, [][][]float64{{{1, 2}, {3, 4}}})
	tests := []struct {
		name string
		c    Column
	}{
		{"no values", Column{}},
		{"not layered", Column{Values: flat}},
		{"z shape", Column{Values: vals, Z: mustDense(t, [][][]float64{{{1}, {3}}})}},
		{"bottom length", Column{Values: vals, Bottom: []int{0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, _, err := tt.c.Shape(); err == nil {
				t.Errorf("c.Shape() error = nil, want non-nil")
			}
		})
	}
	if _, _, _, err := (Column{Values: flat}).Shape(); !errors.Is(err, ErrNotLayered) {
		t.Errorf("Column{flat}.Shape() error = %v, want %v", err, ErrNotLayered)
	}
}

// Helpers

type countingSource struct {
	field.Source
	maxSteps int
}

func (c *countingSource) Read(begin, end []int) ([]float64, error) {
	c.maxSteps = max(c.maxSteps, end[0]-begin[0])
	return c.Source.Read(begin, end)
}

func mustDense(t *testing.T, v [][][]float64) field.Source {
	t.Helper()
	a := sparse.ZerosDense(len(v), len(v[0]), len(v[0][0]))
	for i := range v {
		for j := range v[i] {
			for k := range v[i][j] {
				a.Set(v[i][j][k], i, j, k)
			}
		}
	}
	d, err := field.NewDense([]string{"time", "node", "level"}, a)
	if err != nil {
		t.Fatalf("field.NewDense(...) error = %v, want nil", err)
	}
	return d
}
