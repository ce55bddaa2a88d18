// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package field

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/ctessum/cdf"
)

// ErrNetCDF4 is returned for netCDF-4 files, which are HDF5 containers.
var ErrNetCDF4 = errors.New("field: netCDF-4 (HDF5) files are not supported; convert with nccopy -k classic")

var hdf5Signature = []byte("\x89HDF\r\n\x1a\n")

// streamingRecords marks a classic header whose record count was not
// finalized.
const streamingRecords = 0xFFFFFFFF

// NetCDF is a classic-format netCDF file opened for lazy reads.
type NetCDF struct {
	f       *cdf.File
	records int
}

// OpenNetCDF reads the header of the netCDF file in rw. Variable data is
// only read by Source.Read calls.
func OpenNetCDF(rw cdf.ReaderWriterAt) (*NetCDF, error) {
	sig := make([]byte, len(hdf5Signature))
	if _, err := rw.ReadAt(sig, 0); err == nil && bytes.Equal(sig, hdf5Signature) {
		return nil, ErrNetCDF4
	}
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("field: opening netcdf: %w", err)
	}
	// The record count sits right after the 4-byte magic.
	var buf [4]byte
	if _, err := rw.ReadAt(buf[:], 4); err != nil {
		return nil, fmt.Errorf("field: reading netcdf record count: %w", err)
	}
	n := binary.BigEndian.Uint32(buf[:])
	if n == streamingRecords {
		n = 0
	}
	return &NetCDF{f: f, records: int(n)}, nil
}

// Variables returns the names of the variables in the file.
func (nc *NetCDF) Variables() []string {
	return nc.f.Header.Variables()
}

// Has reports whether the file defines variable name.
func (nc *NetCDF) Has(name string) bool {
	return slices.Contains(nc.f.Header.Variables(), name)
}

// DimensionLength returns the length of dimension dim as used by any
// variable of the file.
func (nc *NetCDF) DimensionLength(dim string) (int, bool) {
	for _, name := range nc.f.Header.Variables() {
		v, err := nc.Variable(name)
		if err != nil {
			continue
		}
		if i := slices.Index(v.Dims(), dim); i >= 0 {
			return v.Shape()[i], true
		}
	}
	return 0, false
}

// Attribute returns attribute attr of variable name; an empty name selects
// global attributes. It returns nil when the attribute is absent.
func (nc *NetCDF) Attribute(name, attr string) any {
	return nc.f.Header.GetAttribute(name, attr)
}

// FloatAttribute returns the first element of a numeric attribute.
func (nc *NetCDF) FloatAttribute(name, attr string) (float64, bool) {
	return firstFloat(nc.f.Header.GetAttribute(name, attr))
}

// Variable returns a lazy Source for variable name.
func (nc *NetCDF) Variable(name string) (*NetCDFVariable, error) {
	if !nc.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrVariableNotFound, name)
	}
	shape := slices.Clone(nc.f.Header.Lengths(name))
	if len(shape) > 0 && shape[0] == 0 {
		// Record variables report a zero-length unlimited dimension.
		shape[0] = nc.records
	}
	v := &NetCDFVariable{
		nc:    nc,
		name:  name,
		dims:  nc.f.Header.Dimensions(name),
		shape: shape,
		fill:  math.NaN(),
	}
	for _, attr := range []string{"_FillValue", "missing_value"} {
		if f, ok := firstFloat(nc.f.Header.GetAttribute(name, attr)); ok {
			v.fill = f
			v.hasFill = true
			break
		}
	}
	return v, nil
}

// NetCDFVariable is a Source backed by one variable of a NetCDF file.
type NetCDFVariable struct {
	nc      *NetCDF
	name    string
	dims    []string
	shape   []int
	fill    float64
	hasFill bool
}

func (v *NetCDFVariable) Name() string   { return v.name }
func (v *NetCDFVariable) Dims() []string { return v.dims }
func (v *NetCDFVariable) Shape() []int   { return v.shape }

// FillValue returns the declared _FillValue or missing_value.
func (v *NetCDFVariable) FillValue() (float64, bool) {
	return v.fill, v.hasFill
}

// Read reads the hyperslab [begin, end) from the file and converts it to
// float64. Declared fill values become NaN.
func (v *NetCDFVariable) Read(begin, end []int) ([]float64, error) {
	n, err := CheckRange(v.shape, begin, end)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []float64{}, nil
	}
	r := v.nc.f.Reader(v.name, begin, end)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("field: reading %s: %w", v.name, err)
	}
	out, err := toFloat64(buf)
	if err != nil {
		return nil, fmt.Errorf("field: reading %s: %w", v.name, err)
	}
	if v.hasFill {
		for i, x := range out {
			if x == v.fill {
				out[i] = math.NaN()
			}
		}
	}
	return out, nil
}

// ReadInts reads the hyperslab without fill conversion, for integer
// variables such as connectivity and level indices.
func (v *NetCDFVariable) ReadInts(begin, end []int) ([]int, error) {
	n, err := CheckRange(v.shape, begin, end)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []int{}, nil
	}
	r := v.nc.f.Reader(v.name, begin, end)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("field: reading %s: %w", v.name, err)
	}
	f, err := toFloat64(buf)
	if err != nil {
		return nil, fmt.Errorf("field: reading %s: %w", v.name, err)
	}
	out := make([]int, len(f))
	for i, x := range f {
		out[i] = int(x)
	}
	return out, nil
}

// ReadAll reads the whole variable.
func ReadAll(src Source) ([]float64, error) {
	shape := src.Shape()
	return src.Read(make([]int, len(shape)), shape)
}

func toFloat64(buf any) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		return convert(b), nil
	case []int32:
		return convert(b), nil
	case []int16:
		return convert(b), nil
	case []int8:
		return convert(b), nil
	case []uint8:
		return convert(b), nil
	}
	return nil, fmt.Errorf("unsupported netcdf element type %T", buf)
}

func convert[T float32 | int32 | int16 | int8 | uint8](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func firstFloat(attr any) (float64, bool) {
	switch a := attr.(type) {
	case []float64:
		if len(a) > 0 {
			return a[0], true
		}
	case []float32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int16:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int8:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	}
	return 0, false
}
