// Package interpolation resamples 2D sample planes under geometric
// transforms. Rotation uses bilinear interpolation on an expanded canvas
// so that no corner of the source is clipped.
package interpolation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidPlane is returned when a plane cannot be resampled.
var ErrInvalidPlane = errors.New("invalid plane")

// edgeTolerance absorbs rounding in coordinates that land on the border.
const edgeTolerance = 1e-9

// Rotation maps output pixel coordinates back to input coordinates for a
// plane rotated by a fixed angle. Coordinates are (row, col) pairs held in
// r2.Vec as X=row, Y=col.
type Rotation struct {
	// rows of the inverse rotation matrix
	m0, m1 r2.Vec

	// offset added after the matrix product
	offset r2.Vec

	inRows, inCols   int
	outRows, outCols int
}

// NewRotation prepares a rotation of a rows x cols plane by angle degrees.
// Positive angles turn counter-clockwise with row 0 at the top. The
// output canvas grows to hold the whole rotated plane.
func NewRotation(rows, cols int, angle float64) (*Rotation, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidPlane, rows, cols)
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return nil, fmt.Errorf("%w: angle %v", ErrInvalidPlane, angle)
	}

	sin, cos := sincosDegrees(angle)
	r := &Rotation{
		m0:     r2.Vec{X: cos, Y: sin},
		m1:     r2.Vec{X: -sin, Y: cos},
		inRows: rows,
		inCols: cols,
	}

	r.outRows, r.outCols = r.boundingShape()

	outCenter := r.apply(r2.Vec{X: float64(r.outRows-1) / 2, Y: float64(r.outCols-1) / 2})
	inCenter := r2.Vec{X: float64(rows-1) / 2, Y: float64(cols-1) / 2}
	r.offset = r2.Sub(inCenter, outCenter)

	return r, nil
}

// Shape returns the size of the rotated canvas.
func (r *Rotation) Shape() (rows, cols int) {
	return r.outRows, r.outCols
}

// Source returns the input coordinate sampled for output pixel (row, col).
func (r *Rotation) Source(row, col int) r2.Vec {
	return r2.Add(r.apply(r2.Vec{X: float64(row), Y: float64(col)}), r.offset)
}

// Plane resamples src, a row-major rows x cols plane, onto the rotated
// canvas. Output pixels whose source falls outside the input receive fill.
func (r *Rotation) Plane(src []float64, fill float64) ([]float64, error) {
	if len(src) != r.inRows*r.inCols {
		return nil, fmt.Errorf("%w: plane has %d samples, expected %d",
			ErrInvalidPlane, len(src), r.inRows*r.inCols)
	}

	out := make([]float64, r.outRows*r.outCols)
	for row := 0; row < r.outRows; row++ {
		for col := 0; col < r.outCols; col++ {
			p := r.Source(row, col)
			out[row*r.outCols+col] = r.sample(src, p, fill)
		}
	}
	return out, nil
}

// RotatePlane is a convenience wrapper around NewRotation and Plane.
func RotatePlane(src []float64, rows, cols int, angle, fill float64) ([]float64, int, int, error) {
	r, err := NewRotation(rows, cols, angle)
	if err != nil {
		return nil, 0, 0, err
	}
	out, err := r.Plane(src, fill)
	if err != nil {
		return nil, 0, 0, err
	}
	return out, r.outRows, r.outCols, nil
}

// RotatedShape returns the canvas size of a rows x cols plane rotated by angle.
func RotatedShape(rows, cols int, angle float64) (int, int, error) {
	r, err := NewRotation(rows, cols, angle)
	if err != nil {
		return 0, 0, err
	}
	return r.outRows, r.outCols, nil
}

func (r *Rotation) apply(p r2.Vec) r2.Vec {
	return r2.Vec{X: r2.Dot(r.m0, p), Y: r2.Dot(r.m1, p)}
}

// boundingShape is the extent of the rotated input corners, rounded to the
// nearest whole pixel.
func (r *Rotation) boundingShape() (int, int) {
	corners := []r2.Vec{
		{X: 0, Y: 0},
		{X: 0, Y: float64(r.inCols)},
		{X: float64(r.inRows), Y: 0},
		{X: float64(r.inRows), Y: float64(r.inCols)},
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, c := range corners {
		p := r.apply(c)
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	return int(maxX - minX + 0.5), int(maxY - minY + 0.5)
}

// sample reads src at a fractional position with bilinear weights.
// Neighbours with zero weight are skipped so that a NaN next to an exact
// grid position does not leak into it.
func (r *Rotation) sample(src []float64, p r2.Vec, fill float64) float64 {
	maxRow := float64(r.inRows - 1)
	maxCol := float64(r.inCols - 1)
	if p.X < -edgeTolerance || p.X > maxRow+edgeTolerance ||
		p.Y < -edgeTolerance || p.Y > maxCol+edgeTolerance {
		return fill
	}

	y := math.Max(0, math.Min(maxRow, p.X))
	x := math.Max(0, math.Min(maxCol, p.Y))

	r0, c0 := int(math.Floor(y)), int(math.Floor(x))
	r1, c1 := min(r0+1, r.inRows-1), min(c0+1, r.inCols-1)
	fy, fx := y-float64(r0), x-float64(c0)

	var sum float64
	add := func(row, col int, w float64) {
		if w != 0 {
			sum += w * src[row*r.inCols+col]
		}
	}
	add(r0, c0, (1-fy)*(1-fx))
	add(r0, c1, (1-fy)*fx)
	add(r1, c0, fy*(1-fx))
	add(r1, c1, fy*fx)

	return sum
}

// sincosDegrees is exact on multiples of 90 degrees so quarter turns map
// pixels onto pixels without interpolation error.
func sincosDegrees(angle float64) (sin, cos float64) {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	switch a {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(a * math.Pi / 180)
}
