// Package histogram buckets finite sample values for the calibration
// display and encodes each bucket's relative frequency as a color.
package histogram

import (
	"image/color"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"fitsview/internal/models"
)

// DefaultBinCount is used when Compute is asked for fewer than one bin.
const DefaultBinCount = 100

// barAlpha is the opacity given to every bar color.
const barAlpha = 217

// Bin is one uniform-width bucket. Lower is inclusive; Upper is exclusive
// except for the last bin, which is closed.
type Bin struct {
	Lower float64
	Upper float64
	Count int

	// Color encodes Count relative to the fullest bin
	Color color.NRGBA
}

// Bins is an ordered sequence of adjacent buckets. An empty Bins means
// the input had no finite values.
type Bins []Bin

// Compute buckets the finite entries of values into binCount uniform bins
// spanning their minimum and maximum. A constant input is spread over
// [c-0.5, c+0.5]. Counts always sum to the number of finite values.
func Compute(values []float64, binCount int) Bins {
	if binCount < 1 {
		binCount = DefaultBinCount
	}

	valid := models.FiniteValues(values)
	if len(valid) == 0 {
		return Bins{}
	}
	sort.Float64s(valid)

	lo, hi := valid[0], valid[len(valid)-1]
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	edges := make([]float64, binCount+1)
	for i := range edges {
		f := float64(i) / float64(binCount)
		edges[i] = math.Min(hi, lo*(1-f)+hi*f)
		if i > 0 && edges[i] < edges[i-1] {
			edges[i] = edges[i-1]
		}
	}
	edges[0], edges[binCount] = lo, hi

	// stat.Histogram treats every bin as half-open, so the last divider is
	// nudged past the maximum to close the final bin.
	dividers := append([]float64(nil), edges...)
	dividers[binCount] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, valid, nil)

	bins := make(Bins, binCount)
	for i := range bins {
		bins[i] = Bin{
			Lower: edges[i],
			Upper: edges[i+1],
			Count: int(counts[i]),
		}
	}

	maxCount := float64(bins.MaxCount())
	for i := range bins {
		nc := 0.0
		if maxCount > 0 {
			nc = float64(bins[i].Count) / maxCount
		}
		bins[i].Color = RampColor(nc)
	}

	return bins
}

// Total returns the sum of all bin counts.
func (b Bins) Total() int {
	total := 0
	for _, bin := range b {
		total += bin.Count
	}
	return total
}

// MaxCount returns the count of the fullest bin.
func (b Bins) MaxCount() int {
	m := 0
	for _, bin := range b {
		if bin.Count > m {
			m = bin.Count
		}
	}
	return m
}

// Range returns the lower edge of the first bin and the upper edge of the last.
func (b Bins) Range() (lo, hi float64) {
	if len(b) == 0 {
		return 0, 0
	}
	return b[0].Lower, b[len(b)-1].Upper
}

// Centers returns the midpoint of every bin.
func (b Bins) Centers() []float64 {
	out := make([]float64, len(b))
	for i, bin := range b {
		out[i] = (bin.Lower + bin.Upper) / 2
	}
	return out
}

// Counts returns the bin counts as floats, for plotting.
func (b Bins) Counts() []float64 {
	out := make([]float64, len(b))
	for i, bin := range b {
		out[i] = float64(bin.Count)
	}
	return out
}

// LogPeak returns log10 of the largest count, the height of a log-scaled plot.
func (b Bins) LogPeak() float64 {
	if len(b) == 0 {
		return 0
	}
	return math.Log10(1 + floats.Max(b.Counts()))
}

// Markers locates the vmin and vmax reference lines on a histogram.
// It is recomputed on its own when only the scaling bounds change.
type Markers struct {
	Vmin float64
	Vmax float64

	// VminAt and VmaxAt are positions relative to the histogram range:
	// 0 is the lower edge of the first bin, 1 the upper edge of the last.
	// Values outside [0, 1] lie off the plot.
	VminAt float64
	VmaxAt float64
}

// Markers places vmin and vmax against the bin range without re-binning.
func (b Bins) Markers(vmin, vmax float64) Markers {
	m := Markers{Vmin: vmin, Vmax: vmax}
	lo, hi := b.Range()
	if hi > lo {
		m.VminAt = (vmin - lo) / (hi - lo)
		m.VmaxAt = (vmax - lo) / (hi - lo)
	}
	return m
}

// Visible reports whether a marker position falls on the plot.
func Visible(at float64) bool {
	return at >= 0 && at <= 1
}

// ramp anchors: the four bands run cyan to blue, blue to purple, purple to
// magenta, magenta to red.
var ramp = [5]colorful.Color{
	{R: 0.0, G: 0.8, B: 1.0}, // cyan
	{R: 0.0, G: 0.2, B: 1.0}, // blue
	{R: 0.5, G: 0.0, B: 1.0}, // purple
	{R: 1.0, G: 0.0, B: 0.5}, // magenta
	{R: 1.0, G: 0.0, B: 0.0}, // red
}

// RampColor maps a normalized count nc = count/maxCount onto the four-band
// heat ramp. Higher counts render hotter. nc is clamped to [0, 1].
func RampColor(nc float64) color.NRGBA {
	if math.IsNaN(nc) {
		nc = 0
	}
	nc = math.Max(0, math.Min(1, nc))

	band := int(nc / 0.25)
	if band > 3 {
		band = 3
	}
	t := (nc - float64(band)*0.25) / 0.25

	c := ramp[band].BlendRgb(ramp[band+1], t).Clamped()
	r, g, bl := c.RGB255()
	return color.NRGBA{R: r, G: g, B: bl, A: barAlpha}
}
