package models

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// DType identifies the element type a sample array was read as.
// Samples are always held as float64; DType remembers what they
// came from so transformations can cast back.
type DType int

const (
	Float64 DType = iota
	Float32
	Uint8
	Int8
	Int16
	Uint16
	Int32
	Uint32
	Int64
)

var dtypeNames = map[DType]string{
	Float64: "float64",
	Float32: "float32",
	Uint8:   "uint8",
	Int8:    "int8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
}

func (d DType) String() string {
	if name, ok := dtypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DType(%d)", int(d))
}

// IsInteger reports whether d is an integer element type.
func (d DType) IsInteger() bool {
	return d != Float64 && d != Float32
}

// Size returns the number of bytes one element of d occupies on disk.
func (d DType) Size() int {
	switch d {
	case Uint8, Int8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	default:
		return 8
	}
}

// Range returns the representable range of d. Floating types return
// the full float range.
func (d DType) Range() (lo, hi float64) {
	switch d {
	case Uint8:
		return 0, math.MaxUint8
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Uint16:
		return 0, math.MaxUint16
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Uint32:
		return 0, math.MaxUint32
	case Int64:
		return math.MinInt64, math.MaxInt64
	case Float32:
		return -math.MaxFloat32, math.MaxFloat32
	default:
		return -math.MaxFloat64, math.MaxFloat64
	}
}

// Cast converts v into a value representable by d. Integer types are
// clipped to their range and truncated toward zero; NaN becomes 0.
func (d DType) Cast(v float64) float64 {
	switch d {
	case Float64:
		return v
	case Float32:
		return float64(float32(v))
	}
	if math.IsNaN(v) {
		return 0
	}
	lo, hi := d.Range()
	if v < lo {
		v = lo
	} else if v > hi {
		v = hi
	}
	return math.Trunc(v)
}

// Array is an N-dimensional numeric sample array in row-major order,
// the last axis varying fastest.
type Array struct {
	// Shape lists the size of each axis, slowest first
	Shape []int

	// Data holds the samples
	Data []float64

	// DType is the element type the samples were read as
	DType DType
}

// NewArray allocates a zero-filled array with the given element type and shape.
func NewArray(dtype DType, shape ...int) *Array {
	return &Array{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, product(shape)),
		DType: dtype,
	}
}

// Number is the set of Go element types a sample array can be built from.
type Number interface {
	constraints.Integer | constraints.Float
}

// FromSlice builds an array from typed samples, recording the element type of T.
func FromSlice[T Number](values []T, shape ...int) (*Array, error) {
	if product(shape) != len(values) {
		return nil, fmt.Errorf("shape %v holds %d samples, got %d", shape, product(shape), len(values))
	}
	a := &Array{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, len(values)),
		DType: dtypeOf[T](),
	}
	for i, v := range values {
		a.Data[i] = float64(v)
	}
	return a, nil
}

func dtypeOf[T Number]() DType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return Uint8
	case int8:
		return Int8
	case int16:
		return Int16
	case uint16:
		return Uint16
	case int32:
		return Int32
	case uint32:
		return Uint32
	case int, int64, uint, uint64, uintptr:
		return Int64
	case float32:
		return Float32
	default:
		return Float64
	}
}

// Rank returns the number of axes.
func (a *Array) Rank() int {
	return len(a.Shape)
}

// Len returns the number of samples.
func (a *Array) Len() int {
	return len(a.Data)
}

// Validate checks that the shape accounts for every sample.
func (a *Array) Validate() error {
	for i, n := range a.Shape {
		if n < 0 {
			return fmt.Errorf("axis %d has negative size %d", i, n)
		}
	}
	if product(a.Shape) != len(a.Data) {
		return fmt.Errorf("shape %v holds %d samples, array has %d", a.Shape, product(a.Shape), len(a.Data))
	}
	return nil
}

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	out := &Array{
		Shape: append([]int(nil), a.Shape...),
		Data:  make([]float64, len(a.Data)),
		DType: a.DType,
	}
	copy(out.Data, a.Data)
	return out
}

// Offset returns the position of the sample at idx inside Data.
func (a *Array) Offset(idx ...int) int {
	off := 0
	for i, n := range a.Shape {
		off = off*n + idx[i]
	}
	return off
}

// At returns the sample at idx.
func (a *Array) At(idx ...int) float64 {
	return a.Data[a.Offset(idx...)]
}

// Rows and Cols return the size of the last two axes.
func (a *Array) Rows() int {
	if a.Rank() < 2 {
		return 1
	}
	return a.Shape[a.Rank()-2]
}

func (a *Array) Cols() int {
	if a.Rank() == 0 {
		return 1
	}
	return a.Shape[a.Rank()-1]
}

// Planes returns how many 2D planes of the last two axes the array holds.
func (a *Array) Planes() int {
	if a.Rank() < 2 {
		return 0
	}
	return product(a.Shape[:a.Rank()-2])
}

// Plane returns the samples of the p-th plane of the last two axes.
// The returned slice aliases Data.
func (a *Array) Plane(p int) []float64 {
	size := a.Rows() * a.Cols()
	return a.Data[p*size : (p+1)*size]
}

// Finite returns a copy of the finite samples.
func (a *Array) Finite() []float64 {
	return FiniteValues(a.Data)
}

// SameAs reports whether b has the same shape, element type and samples.
// NaN samples compare equal to each other.
func (a *Array) SameAs(b *Array) bool {
	if a.DType != b.DType || len(a.Shape) != len(b.Shape) || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	for i, v := range a.Data {
		w := b.Data[i]
		if v != w && !(math.IsNaN(v) && math.IsNaN(w)) {
			return false
		}
	}
	return true
}

// FiniteValues returns the finite entries of values in their original order.
func FiniteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
