// Package render turns normalized display frames into images and writes
// them to disk.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"fitsview/pkg/colormap"
)

// ErrInvalidFrame is returned for frames whose data does not match their size.
var ErrInvalidFrame = errors.New("invalid frame")

// Frame is a normalized image ready for display. Data holds values in
// [0, 1], row-major with row 0 at the bottom. RGB frames (Channels == 3)
// store the channels last and ignore the color map.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Data     []float64
	ColorMap string
	Invert   bool
}

// Validate checks the frame layout.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if f.Channels != 1 && f.Channels != 3 {
		return fmt.Errorf("%w: %d channels", ErrInvalidFrame, f.Channels)
	}
	if want := f.Width * f.Height * f.Channels; len(f.Data) != want {
		return fmt.Errorf("%w: expected %d values, got %d", ErrInvalidFrame, want, len(f.Data))
	}
	return nil
}

// Image draws the frame. Single-channel frames go through the frame's
// color map, reversed when Invert is set.
func Image(f Frame) (*image.RGBA, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))

	if f.Channels == 3 {
		for row := 0; row < f.Height; row++ {
			y := f.Height - 1 - row
			for col := 0; col < f.Width; col++ {
				i := (row*f.Width + col) * 3
				img.SetRGBA(col, y, color.RGBA{
					R: toByte(f.Data[i]),
					G: toByte(f.Data[i+1]),
					B: toByte(f.Data[i+2]),
					A: 0xff,
				})
			}
		}
		return img, nil
	}

	cmap, err := colormap.Lookup(f.ColorMap)
	if err != nil {
		return nil, err
	}
	if f.Invert {
		cmap = cmap.Reversed()
	}

	for row := 0; row < f.Height; row++ {
		y := f.Height - 1 - row
		for col := 0; col < f.Width; col++ {
			img.Set(col, y, cmap.At(f.Data[row*f.Width+col]))
		}
	}
	return img, nil
}

// Scale enlarges img by an integer factor without smoothing, so each
// sample stays a solid block.
func Scale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	return dst
}

func toByte(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
