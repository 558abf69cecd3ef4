package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"fitsview/pkg/histogram"
)

// Marker line colors.
var (
	VminColor = hexColor("#ff3366")
	VmaxColor = hexColor("#00ff88")
)

var (
	plotBackground = colornames.Black
	plotAxis       = colornames.Dimgray
)

const (
	markerWidth = 2
	labelMargin = 4
)

// HistogramPlot is a rendered histogram. The bars are drawn once; marker
// overlays are drawn onto copies so moving vmin/vmax never re-bins.
type HistogramPlot struct {
	bins histogram.Bins
	base *image.RGBA
}

// NewHistogramPlot draws bins into a width x height image. Bar heights
// use a logarithmic count axis.
func NewHistogramPlot(bins histogram.Bins, width, height int) (*HistogramPlot, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: plot size %dx%d", ErrInvalidFrame, width, height)
	}

	base := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(base, base.Rect, image.NewUniform(plotBackground), image.Point{}, draw.Src)

	// Baseline
	draw.Draw(base, image.Rect(0, height-1, width, height), image.NewUniform(plotAxis), image.Point{}, draw.Src)

	if len(bins) > 0 {
		peak := bins.LogPeak()
		for x := 0; x < width; x++ {
			b := bins[x*len(bins)/width]
			if b.Count == 0 || peak <= 0 {
				continue
			}
			h := int(math.Round(math.Log10(float64(b.Count)+1) / peak * float64(height-1)))
			if h < 1 {
				h = 1
			}
			bar := image.Rect(x, height-1-h, x+1, height-1)
			draw.Draw(base, bar, image.NewUniform(b.Color), image.Point{}, draw.Over)
		}
	}

	return &HistogramPlot{bins: bins, base: base}, nil
}

// Base returns a copy of the plot without markers.
func (p *HistogramPlot) Base() *image.RGBA {
	out := image.NewRGBA(p.base.Rect)
	copy(out.Pix, p.base.Pix)
	return out
}

// WithMarkers returns a copy of the plot with the vmin and vmax lines and
// their labels. Markers outside the histogram range are not drawn.
func (p *HistogramPlot) WithMarkers(vmin, vmax float64) *image.RGBA {
	out := p.Base()
	m := p.bins.Markers(vmin, vmax)
	width := out.Rect.Dx()

	line := func(at float64, c color.Color) (int, bool) {
		if len(p.bins) == 0 || !histogram.Visible(at) {
			return 0, false
		}
		x := int(math.Round(at * float64(width-1)))
		r := image.Rect(x-markerWidth/2, 0, x-markerWidth/2+markerWidth, out.Rect.Dy()).Intersect(out.Rect)
		draw.Draw(out, r, image.NewUniform(c), image.Point{}, draw.Src)
		return x, true
	}

	if x, ok := line(m.VminAt, VminColor); ok {
		label(out, x, 1, fmt.Sprintf("%.4g", m.Vmin), VminColor)
	}
	if x, ok := line(m.VmaxAt, VmaxColor); ok {
		label(out, x, 2, fmt.Sprintf("%.4g", m.Vmax), VmaxColor)
	}
	return out
}

// label writes text next to a marker at x, on the given text line.
// Labels that would run off the right edge are drawn left of the marker.
func label(dst *image.RGBA, x, line int, text string, c color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face}
	w := d.MeasureString(text).Ceil()

	tx := x + labelMargin
	if tx+w > dst.Rect.Max.X {
		tx = x - labelMargin - w
	}
	ty := line * (face.Metrics().Height.Ceil() + labelMargin)

	d.Dot = fixed.Point26_6{X: fixed.I(tx), Y: fixed.I(ty)}
	d.DrawString(text)
}

func hexColor(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(fmt.Sprintf("render: bad color %q: %v", hex, err))
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
