// Package scaling maps raw sample values onto normalized display
// intensities. It provides percentile auto-ranging and the four
// stretch functions used by the viewer: linear, log, sqrt and asinh.
//
// Every function here is pure: inputs are never modified and malformed
// bounds degrade to a numeric result instead of an error.
package scaling

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"fitsview/internal/models"
)

// Mode selects the stretch applied between clipping and display.
type Mode string

const (
	Linear Mode = "linear"
	Log    Mode = "log"
	Sqrt   Mode = "sqrt"
	Asinh  Mode = "asinh"
)

// Default percentiles clip the faintest and brightest half percent,
// which keeps hot pixels and cosmic rays from flattening the contrast.
const (
	DefaultLowPercentile  = 0.5
	DefaultHighPercentile = 99.5
)

// ErrUnknownMode is returned by ParseMode for names outside Modes().
var ErrUnknownMode = errors.New("unknown scaling mode")

// Modes returns the supported modes in menu order.
func Modes() []Mode {
	return []Mode{Linear, Log, Sqrt, Asinh}
}

// ParseMode converts a mode name into a Mode.
func ParseMode(name string) (Mode, error) {
	for _, m := range Modes() {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// AutoScale computes display bounds from the low and high percentiles of
// the finite values. Non-finite samples are ignored.
//
// The result always satisfies vmin < vmax:
//   - no finite values yields (0, 1)
//   - collapsed percentiles fall back to the finite min and max
//   - constant data c yields (c, c+1)
func AutoScale(values []float64, low, high float64) (vmin, vmax float64) {
	valid := models.FiniteValues(values)
	if len(valid) == 0 {
		return 0, 1
	}
	sort.Float64s(valid)

	vmin = Percentile(valid, low)
	vmax = Percentile(valid, high)

	if vmin >= vmax {
		vmin = valid[0]
		vmax = valid[len(valid)-1]

		if vmin >= vmax {
			vmax = vmin + 1
		}
	}

	return vmin, vmax
}

// Percentile returns the p-th percentile (0..100) of sorted values using
// linear interpolation between the two closest ranks.
// sorted must be non-empty and in ascending order.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	p = math.Max(0, math.Min(100, p))

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// ClippedFraction returns the share of finite values lying outside
// [vmin, vmax]. Returns 0 when there are no finite values.
func ClippedFraction(values []float64, vmin, vmax float64) float64 {
	total, clipped := 0, 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total++
		if v < vmin || v > vmax {
			clipped++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(clipped) / float64(total)
}

// Apply clips values to [vmin, vmax] and stretches them with mode.
// The output has the same length as values and, for vmin < vmax, lies in [0, 1].
// NaN is clipped to vmin, +Inf to vmax and -Inf to vmin.
// Unrecognized modes behave as Linear.
func Apply(values []float64, vmin, vmax float64, mode Mode) []float64 {
	out := clip(values, vmin, vmax)
	if len(out) == 0 {
		return out
	}

	switch mode {
	case Log:
		for i, x := range out {
			out[i] = math.Log10(offset(x, vmin) + 1)
		}
		normalize(out)

	case Sqrt:
		for i, x := range out {
			out[i] = math.Sqrt(math.Abs(offset(x, vmin)))
		}
		normalize(out)

	case Asinh:
		for i, x := range out {
			out[i] = math.Asinh(x)
		}
		normalize(out)

	default:
		if vmax > vmin {
			span := vmax - vmin
			if math.IsInf(span, 0) {
				// Halve both sides when the span overflows
				span = vmax/2 - vmin/2
				for i, x := range out {
					out[i] = unit((x/2 - vmin/2) / span)
				}
				break
			}
			for i, x := range out {
				out[i] = unit((x - vmin) / span)
			}
		}
	}

	return out
}

// ApplyRGB stretches channel-last interleaved RGB pixels. Each channel is
// scaled on its own with the same bounds and mode, so under log, sqrt and
// asinh every channel is renormalized against its own extremes.
func ApplyRGB(pixels []float64, vmin, vmax float64, mode Mode) []float64 {
	const channels = 3
	n := len(pixels) / channels
	out := make([]float64, len(pixels))
	channel := make([]float64, n)

	for c := 0; c < channels; c++ {
		for i := 0; i < n; i++ {
			channel[i] = pixels[i*channels+c]
		}
		scaled := Apply(channel, vmin, vmax, mode)
		for i := 0; i < n; i++ {
			out[i*channels+c] = scaled[i]
		}
	}

	return out
}

// clip returns a copy of values limited to [vmin, vmax] with non-finite
// samples replaced by the nearest bound.
func clip(values []float64, vmin, vmax float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			v = vmin
		case v < vmin:
			v = vmin
		case v > vmax:
			v = vmax
		}
		out[i] = v
	}
	return out
}

// offset returns x - vmin saturated to the finite range.
func offset(x, vmin float64) float64 {
	d := x - vmin
	if math.IsInf(d, 0) {
		return math.Copysign(math.MaxFloat64, d)
	}
	return d
}

// unit clamps v onto [0, 1].
func unit(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// normalize rescales values in place onto [0, 1] using their own extremes.
// Constant input is left untouched.
func normalize(values []float64) {
	lo := floats.Min(values)
	hi := floats.Max(values)
	if !(hi > lo) {
		return
	}
	span := hi - lo
	if math.IsInf(span, 0) {
		span = hi/2 - lo/2
		for i, v := range values {
			values[i] = unit((v/2 - lo/2) / span)
		}
		return
	}
	for i, v := range values {
		values[i] = unit((v - lo) / span)
	}
}
