// Package transform applies rotation and flips to a canonical sample
// array. Every update replays the full transform from the untouched
// canonical copy, so repeated edits never compound interpolation error.
package transform

import (
	"errors"
	"fmt"

	"fitsview/internal/models"
	"fitsview/pkg/interpolation"
)

// ErrTransform marks a rotation or flip that could not be computed.
var ErrTransform = errors.New("transform failed")

// fillValue is written where a rotated canvas has no source pixel.
const fillValue = 0

// State holds the transform parameters. Rotation is absolute: a new
// angle replaces the previous one instead of adding to it.
type State struct {
	// AngleDegrees is kept normalized to [0, 360)
	AngleDegrees int

	FlipHorizontal bool
	FlipVertical   bool
}

// Identity returns the state that leaves an array unchanged.
func Identity() State {
	return State{}
}

// IsIdentity reports whether s performs no rotation and no flips.
func (s State) IsIdentity() bool {
	return s == State{}
}

// WithAngle returns s with the rotation replaced by angle, normalized so
// that 360 is 0 and -90 is 270.
func (s State) WithAngle(angle int) State {
	s.AngleDegrees = NormalizeAngle(angle)
	return s
}

// ToggleHorizontal returns s with the horizontal flip inverted.
func (s State) ToggleHorizontal() State {
	s.FlipHorizontal = !s.FlipHorizontal
	return s
}

// ToggleVertical returns s with the vertical flip inverted.
func (s State) ToggleVertical() State {
	s.FlipVertical = !s.FlipVertical
	return s
}

// NormalizeAngle maps any angle in degrees onto [0, 360).
func NormalizeAngle(angle int) int {
	a := angle % 360
	if a < 0 {
		a += 360
	}
	return a
}

// Pipeline owns the canonical array of one data unit.
type Pipeline struct {
	canonical *models.Array
}

// NewPipeline captures a private copy of a as the canonical array.
func NewPipeline(a *models.Array) *Pipeline {
	return &Pipeline{canonical: a.Clone()}
}

// Canonical returns a copy of the canonical array.
func (p *Pipeline) Canonical() *models.Array {
	return p.canonical.Clone()
}

// Apply produces the array displayed for state s. The result is always a
// new array; the canonical copy is only read.
func (p *Pipeline) Apply(s State) (*models.Array, error) {
	data := p.canonical.Clone()

	if s.AngleDegrees != 0 {
		rotated, err := Rotate(data, s.AngleDegrees)
		if err != nil {
			return nil, err
		}
		data = rotated
	}

	if s.FlipHorizontal {
		data = FlipHorizontal(data)
	}
	if s.FlipVertical {
		data = FlipVertical(data)
	}

	return data, nil
}

// Rotate turns every plane of the last two axes of a by angle degrees on
// an expanded canvas. A channel-major RGB array therefore has each of its
// three channels rotated with identical parameters. Integer element types
// are clipped to their range and cast back after interpolation.
func Rotate(a *models.Array, angle int) (*models.Array, error) {
	if a.Rank() < 2 {
		return nil, fmt.Errorf("%w: cannot rotate rank-%d array", ErrTransform, a.Rank())
	}

	rows, cols := a.Rows(), a.Cols()
	rot, err := interpolation.NewRotation(rows, cols, float64(angle))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransform, err)
	}
	outRows, outCols := rot.Shape()

	shape := append([]int(nil), a.Shape...)
	shape[len(shape)-2] = outRows
	shape[len(shape)-1] = outCols
	out := models.NewArray(a.DType, shape...)

	for p := 0; p < a.Planes(); p++ {
		plane, err := rot.Plane(a.Plane(p), fillValue)
		if err != nil {
			return nil, fmt.Errorf("%w: plane %d: %v", ErrTransform, p, err)
		}
		copy(out.Plane(p), plane)
	}

	if a.DType.IsInteger() || a.DType == models.Float32 {
		for i, v := range out.Data {
			out.Data[i] = a.DType.Cast(v)
		}
	}

	return out, nil
}

// FlipHorizontal returns a copy of a with its last axis reversed.
func FlipHorizontal(a *models.Array) *models.Array {
	out := a.Clone()
	cols := a.Cols()
	if a.Rank() == 0 || cols == 0 {
		return out
	}

	for start := 0; start+cols <= len(out.Data); start += cols {
		row := out.Data[start : start+cols]
		for i, j := 0, cols-1; i < j; i, j = i+1, j-1 {
			row[i], row[j] = row[j], row[i]
		}
	}
	return out
}

// FlipVertical returns a copy of a with its second-to-last axis reversed.
// Rank-1 arrays are returned unchanged.
func FlipVertical(a *models.Array) *models.Array {
	out := a.Clone()
	if a.Rank() < 2 {
		return out
	}

	rows, cols := a.Rows(), a.Cols()
	for p := 0; p < a.Planes(); p++ {
		src := a.Plane(p)
		dst := out.Plane(p)
		for r := 0; r < rows; r++ {
			copy(dst[r*cols:(r+1)*cols], src[(rows-1-r)*cols:(rows-r)*cols])
		}
	}
	return out
}
