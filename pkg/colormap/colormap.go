// Package colormap turns normalized intensities into colors. Each map is
// a list of anchor colors blended piecewise; appending "_r" to a name
// selects the reversed map.
package colormap

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Default is the map selected for a freshly opened unit.
const Default = "viridis"

// reversedSuffix selects the inverted variant of a map.
const reversedSuffix = "_r"

// ErrUnknownColorMap is returned by Lookup for names it does not know.
var ErrUnknownColorMap = errors.New("unknown color map")

type stop struct {
	at float64
	c  colorful.Color
}

// Map is a named piecewise-linear color gradient over [0, 1].
type Map struct {
	name  string
	stops []stop
}

// evenly spaces hex anchors across [0, 1].
func evenly(hexes ...string) []stop {
	stops := make([]stop, len(hexes))
	for i, h := range hexes {
		stops[i] = stop{at: float64(i) / float64(len(hexes)-1), c: mustHex(h)}
	}
	return stops
}

// at pairs explicit positions with hex anchors.
func at(positions []float64, hexes ...string) []stop {
	stops := make([]stop, len(hexes))
	for i, h := range hexes {
		stops[i] = stop{at: positions[i], c: mustHex(h)}
	}
	return stops
}

// mustHex parses a hex literal from the tables below.
func mustHex(h string) colorful.Color {
	c, err := colorful.Hex(h)
	if err != nil {
		panic(fmt.Sprintf("colormap: bad anchor %q: %v", h, err))
	}
	return c
}

// names lists the maps in menu order.
var names = []string{
	"viridis", "gray", "hot", "cool", "rainbow",
	"jet", "plasma", "inferno", "magma", "cividis",
	"twilight", "turbo", "seismic", "RdYlBu", "Spectral",
}

var registry = map[string][]stop{
	"viridis": evenly("#440154", "#482878", "#3e4989", "#31688e", "#26828e",
		"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"),
	"gray": evenly("#000000", "#ffffff"),
	"hot":  at([]float64{0, 0.365, 0.746, 1}, "#0b0000", "#ff0000", "#ffff00", "#ffffff"),
	"cool": evenly("#00ffff", "#ff00ff"),
	"rainbow": evenly("#8000ff", "#2c7ef7", "#2adddd", "#80ffb4",
		"#d4dd80", "#ff7e41", "#ff0000"),
	"jet": at([]float64{0, 0.125, 0.375, 0.625, 0.875, 1},
		"#000080", "#0000ff", "#00ffff", "#ffff00", "#ff0000", "#800000"),
	"plasma": evenly("#0d0887", "#46039f", "#7201a8", "#9c179e", "#bd3786",
		"#d8576b", "#ed7953", "#fb9f3a", "#fdca26", "#f0f921"),
	"inferno": evenly("#000004", "#1b0c41", "#4a0c6b", "#781c6d", "#a52c60",
		"#cf4446", "#ed6925", "#fb9b06", "#f7d13d", "#fcffa4"),
	"magma": evenly("#000004", "#180f3d", "#440f76", "#721f81", "#9e2f7f",
		"#cd4071", "#f1605d", "#fd9668", "#feca8d", "#fcfdbf"),
	"cividis": evenly("#00224e", "#123570", "#3b496c", "#575d6d", "#707173",
		"#8a8678", "#a59c74", "#c3b369", "#e1cc55", "#fee838"),
	"twilight": evenly("#e2d9e2", "#a5bccb", "#6f8fc0", "#5e5ab0", "#4f2a80",
		"#2f1436", "#5c1a40", "#983e4a", "#c4755f", "#d8b4a6", "#e2d9e2"),
	"turbo": evenly("#30123b", "#4662d7", "#36aaf9", "#1ae4b6", "#72fe5e",
		"#c8ef34", "#faba39", "#f66b19", "#ca2a04", "#7a0403"),
	"seismic": evenly("#00004c", "#0000ff", "#ffffff", "#ff0000", "#7f0000"),
	"RdYlBu": evenly("#a50026", "#d73027", "#f46d43", "#fdae61", "#fee090",
		"#ffffbf", "#e0f3f8", "#abd9e9", "#74add1", "#4575b4", "#313695"),
	"Spectral": evenly("#9e0142", "#d53e4f", "#f46d43", "#fdae61", "#fee08b",
		"#ffffbf", "#e6f598", "#abdda4", "#66c2a5", "#3288bd", "#5e4fa2"),
}

// Names returns the base map names in menu order.
func Names() []string {
	return append([]string(nil), names...)
}

// Lookup returns the map called name. A "_r" suffix reverses it.
func Lookup(name string) (*Map, error) {
	base, reversed := strings.CutSuffix(name, reversedSuffix)
	stops, ok := registry[base]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColorMap, name)
	}
	m := &Map{name: base, stops: stops}
	if reversed {
		return m.Reversed(), nil
	}
	return m, nil
}

// Name returns the map name, including "_r" when reversed.
func (m *Map) Name() string {
	return m.name
}

// Reversed returns the map running from its last color to its first.
func (m *Map) Reversed() *Map {
	stops := make([]stop, len(m.stops))
	for i, s := range m.stops {
		stops[len(stops)-1-i] = stop{at: 1 - s.at, c: s.c}
	}

	name, wasReversed := strings.CutSuffix(m.name, reversedSuffix)
	if !wasReversed {
		name += reversedSuffix
	}
	return &Map{name: name, stops: stops}
}

// At returns the color for intensity t. Values outside [0, 1] are
// clamped and NaN maps to the low end.
func (m *Map) At(t float64) color.NRGBA {
	if math.IsNaN(t) {
		t = 0
	}
	t = math.Max(0, math.Min(1, t))

	last := len(m.stops) - 1
	for i := 0; i < last; i++ {
		lo, hi := m.stops[i], m.stops[i+1]
		if t <= hi.at {
			span := hi.at - lo.at
			f := 0.0
			if span > 0 {
				f = (t - lo.at) / span
			}
			return toNRGBA(lo.c.BlendRgb(hi.c, f))
		}
	}
	return toNRGBA(m.stops[last].c)
}

// Table samples the map at n evenly spaced intensities. Renderers use it
// to avoid blending per pixel.
func (m *Map) Table(n int) []color.NRGBA {
	if n < 2 {
		n = 2
	}
	out := make([]color.NRGBA, n)
	for i := range out {
		out[i] = m.At(float64(i) / float64(n-1))
	}
	return out
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
