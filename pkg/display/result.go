package display

import (
	"errors"
	"fmt"

	"fitsview/internal/models"
	"fitsview/pkg/channel"
	"fitsview/pkg/scaling"
)

var (
	// ErrNoSource is returned when a session is used before Open
	ErrNoSource = errors.New("no data source open")

	// ErrNoImage is returned by operations that need displayable samples
	ErrNoImage = errors.New("no image displayed")

	// ErrInvalidRange rejects display bounds that are not finite with vmin < vmax
	ErrInvalidRange = errors.New("invalid display range")

	// ErrNotRGB is returned by ToGrayscale for single-channel images
	ErrNotRGB = errors.New("image is not RGB")
)

// TransformError reports a rotation or flip that could not be applied.
// The session keeps showing the previous array.
type TransformError struct {
	Angle int
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform at %d degrees: %v", e.Angle, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// State is the calibration applied when drawing the current view.
type State struct {
	Vmin     float64
	Vmax     float64
	Mode     scaling.Mode
	ColorMap string
	Invert   bool
}

// Result is the outcome of selecting a unit. The concrete type is one of
// Displayed, Described or HeaderOnly.
type Result interface {
	result()
}

// Displayed means the unit produced an image.
type Displayed struct {
	Unit models.UnitInfo
	View channel.View
}

// Described means the unit holds samples that cannot be imaged. The
// summary is shown instead.
type Described struct {
	Unit    models.UnitInfo
	Summary channel.NotDisplayable
}

// HeaderOnly means the unit has metadata but no samples.
type HeaderOnly struct {
	Unit     models.UnitInfo
	Metadata string
}

func (Displayed) result()  {}
func (Described) result()  {}
func (HeaderOnly) result() {}
