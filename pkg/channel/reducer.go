// Package channel reduces N-dimensional sample arrays to something a
// 2D renderer can draw: a grayscale plane, a channel-last RGB image, a
// plane sliced out of a cube, or a verdict that the array is not an image.
package channel

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"fitsview/internal/models"
)

// ErrIndexOutOfRange is returned by ReduceAt when a slice index falls
// outside its axis.
var ErrIndexOutOfRange = errors.New("slice index out of range")

// View is the displayable form of a sample array. The concrete type is
// one of NotDisplayable, Grayscale, RGB or Sliced.
type View interface {
	view()
}

// NotDisplayable describes an array that cannot be imaged, such as a 1D
// spectrum. Callers show Summary instead of a picture.
type NotDisplayable struct {
	Length  int
	DType   models.DType
	Min     float64
	Max     float64
	Mean    float64
	Summary string
}

// Grayscale is a rank-2 array passed through unchanged.
type Grayscale struct {
	Width, Height int
	Data          []float64
}

// RGB is a rank-3 array whose leading axis holds three color channels.
type RGB struct {
	Width, Height int

	// Pixels is channel-last: r,g,b for pixel 0, then pixel 1, ...
	Pixels []float64

	// ChannelMajor is the original (3, H, W) layout, used for rotation
	ChannelMajor *models.Array
}

// Sliced is a 2D plane selected from a higher-rank array.
type Sliced struct {
	Width, Height int
	Data          []float64

	// Indices holds the selected position along each leading axis
	Indices []int

	// SourceShape is the shape of the array the plane was cut from
	SourceShape []int
}

func (NotDisplayable) view() {}
func (Grayscale) view()      {}
func (RGB) view()            {}
func (Sliced) view()         {}

// Reduce produces the displayable view of a. Leading axes beyond the last
// two are collapsed by selecting floor(size/2) along each.
func Reduce(a *models.Array) View {
	switch {
	case a.Rank() < 2 || a.Len() == 0:
		return describe(a)
	case a.Rank() == 2:
		return Grayscale{
			Width:  a.Cols(),
			Height: a.Rows(),
			Data:   a.Data,
		}
	case a.Rank() == 3 && a.Shape[0] == 3:
		return RGB{
			Width:        a.Cols(),
			Height:       a.Rows(),
			Pixels:       ToChannelLast(a),
			ChannelMajor: a,
		}
	}

	indices := make([]int, a.Rank()-2)
	for i := range indices {
		indices[i] = a.Shape[i] / 2
	}
	return slice(a, indices)
}

// ReduceAt selects the plane at explicit leading-axis indices instead of
// the middle one. Arrays of rank 2 or lower ignore indices.
func ReduceAt(a *models.Array, indices []int) (View, error) {
	if a.Rank() <= 2 || a.Len() == 0 {
		return Reduce(a), nil
	}
	leading := a.Rank() - 2
	if len(indices) != leading {
		return nil, fmt.Errorf("%w: need %d indices for shape %v, got %d",
			ErrIndexOutOfRange, leading, a.Shape, len(indices))
	}
	for axis, idx := range indices {
		if idx < 0 || idx >= a.Shape[axis] {
			return nil, fmt.Errorf("%w: index %d on axis %d of size %d",
				ErrIndexOutOfRange, idx, axis, a.Shape[axis])
		}
	}
	return slice(a, indices), nil
}

// slice copies the plane at the given leading indices.
func slice(a *models.Array, indices []int) Sliced {
	plane := 0
	for axis, idx := range indices {
		plane = plane*a.Shape[axis] + idx
	}
	data := make([]float64, a.Rows()*a.Cols())
	copy(data, a.Plane(plane))

	return Sliced{
		Width:       a.Cols(),
		Height:      a.Rows(),
		Data:        data,
		Indices:     append([]int(nil), indices...),
		SourceShape: append([]int(nil), a.Shape...),
	}
}

// describe builds the textual summary shown for non-image arrays.
func describe(a *models.Array) NotDisplayable {
	nd := NotDisplayable{Length: a.Len(), DType: a.DType}

	valid := a.Finite()
	if len(valid) > 0 {
		nd.Min = floats.Min(valid)
		nd.Max = floats.Max(valid)
		nd.Mean = stat.Mean(valid, nil)
	}
	nd.Summary = fmt.Sprintf("1D data\nLength: %d samples\nType: %s\nRange: %.2f to %.2f\nMean: %.2f",
		nd.Length, nd.DType, nd.Min, nd.Max, nd.Mean)

	return nd
}

// ToChannelLast transposes a (3, H, W) array into interleaved H*W*3 pixels.
func ToChannelLast(a *models.Array) []float64 {
	h, w := a.Rows(), a.Cols()
	n := h * w
	out := make([]float64, n*3)
	for c := 0; c < 3; c++ {
		src := a.Plane(c)
		for i := 0; i < n; i++ {
			out[i*3+c] = src[i]
		}
	}
	return out
}

// ToChannelMajor is the inverse of ToChannelLast.
func ToChannelMajor(pixels []float64, width, height int, dtype models.DType) *models.Array {
	out := models.NewArray(dtype, 3, height, width)
	n := width * height
	for c := 0; c < 3; c++ {
		dst := out.Plane(c)
		for i := 0; i < n; i++ {
			dst[i] = pixels[i*3+c]
		}
	}
	return out
}

// Values returns the samples a view displays, or nil for NotDisplayable.
func Values(v View) []float64 {
	switch v := v.(type) {
	case Grayscale:
		return v.Data
	case RGB:
		return v.Pixels
	case Sliced:
		return v.Data
	case NotDisplayable:
		return nil
	}
	return nil
}

// Dims returns the width, height and channel count of a view.
// NotDisplayable reports zero for all three.
func Dims(v View) (width, height, channels int) {
	switch v := v.(type) {
	case Grayscale:
		return v.Width, v.Height, 1
	case RGB:
		return v.Width, v.Height, 3
	case Sliced:
		return v.Width, v.Height, 1
	case NotDisplayable:
		return 0, 0, 0
	}
	return 0, 0, 0
}

// IsRGB reports whether a has the channel-major RGB layout.
func IsRGB(a *models.Array) bool {
	return a.Rank() == 3 && a.Shape[0] == 3
}
