// Package display holds the state of one viewer session: the open data
// source, the canonical array of the selected unit, its transform and
// calibration, and the histogram derived from what is on screen.
//
// A Session is not safe for concurrent use. Independent sessions share
// nothing.
package display

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"

	"fitsview/internal/models"
	"fitsview/pkg/channel"
	"fitsview/pkg/colormap"
	"fitsview/pkg/config"
	"fitsview/pkg/histogram"
	"fitsview/pkg/render"
	"fitsview/pkg/scaling"
	"fitsview/pkg/source"
	"fitsview/pkg/transform"
)

// Luminosity weights used when converting RGB to grayscale.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Session owns one data source and everything derived from it.
type Session struct {
	cfg    *config.Config
	logger *log.Logger

	src   source.DataSource
	unit  int
	info  models.UnitInfo
	label Result

	pipeline  *transform.Pipeline
	transform transform.State

	// rgb keeps the channel-major canonical array while a grayscale
	// conversion is shown
	rgb *models.Array

	// slice selects explicit leading-axis indices; nil means the middle
	slice []int

	displayed *models.Array
	view      channel.View
	bins      histogram.Bins
	state     State
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sends session progress messages to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates an empty session. A nil cfg uses the defaults.
func NewSession(cfg *config.Config, opts ...Option) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := &Session{
		cfg:    cfg,
		logger: log.New(io.Discard, "", 0),
		state: State{
			Vmin:     0,
			Vmax:     1,
			Mode:     scaling.Mode(cfg.Display.ScalingMode),
			ColorMap: cfg.Display.ColorMap,
			Invert:   cfg.Display.Invert,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// selection is everything loading a unit produces. It is committed to
// the session only when loading succeeds.
type selection struct {
	index     int
	info      models.UnitInfo
	result    Result
	pipeline  *transform.Pipeline
	displayed *models.Array
	view      channel.View
	bins      histogram.Bins
	vmin      float64
	vmax      float64
}

// Open replaces the session's source and selects its first unit. On
// failure the session keeps its previous source and state. The previous
// source is closed once the new one is in place.
func (s *Session) Open(src source.DataSource) error {
	if src == nil {
		return ErrNoSource
	}
	if len(src.Units()) == 0 {
		return fmt.Errorf("%w: container has no units", source.ErrUnitOutOfRange)
	}

	sel, err := s.load(src, 0)
	if err != nil {
		return err
	}

	if s.src != nil && s.src != src {
		if err := s.src.Close(); err != nil {
			s.logger.Printf("closing previous source: %v", err)
		}
	}
	s.src = src
	s.commit(sel)
	return nil
}

// Close releases the data source.
func (s *Session) Close() error {
	if s.src == nil {
		return nil
	}
	err := s.src.Close()
	s.src = nil
	return err
}

// SelectUnit switches to unit i. The transform is reset, a new canonical
// array is captured and the display range is auto-scaled.
func (s *Session) SelectUnit(i int) (Result, error) {
	if s.src == nil {
		return nil, ErrNoSource
	}
	sel, err := s.load(s.src, i)
	if err != nil {
		return nil, err
	}
	s.commit(sel)
	return sel.result, nil
}

func (s *Session) load(src source.DataSource, i int) (*selection, error) {
	units := src.Units()
	if i < 0 || i >= len(units) {
		return nil, fmt.Errorf("%w: %d (have %d units)", source.ErrUnitOutOfRange, i, len(units))
	}
	sel := &selection{index: i, info: units[i]}

	raw, err := src.RawArray(i)
	if err != nil {
		return nil, fmt.Errorf("error reading unit %d: %w", i, err)
	}

	if raw == nil {
		text, err := src.MetadataText(i)
		if err != nil {
			return nil, fmt.Errorf("error reading metadata of unit %d: %w", i, err)
		}
		sel.result = HeaderOnly{Unit: sel.info, Metadata: text}
		sel.vmin, sel.vmax = 0, 1
		return sel, nil
	}
	if err := raw.Validate(); err != nil {
		return nil, fmt.Errorf("unit %d: %w", i, err)
	}

	sel.pipeline = transform.NewPipeline(raw)
	sel.displayed, err = sel.pipeline.Apply(transform.Identity())
	if err != nil {
		return nil, fmt.Errorf("unit %d: %w", i, err)
	}
	sel.view = channel.Reduce(sel.displayed)

	if nd, ok := sel.view.(channel.NotDisplayable); ok {
		sel.result = Described{Unit: sel.info, Summary: nd}
		sel.vmin, sel.vmax = 0, 1
		return sel, nil
	}

	values := channel.Values(sel.view)
	sel.vmin, sel.vmax = scaling.AutoScale(values, s.cfg.AutoScale.PercentileLow, s.cfg.AutoScale.PercentileHigh)
	sel.bins = histogram.Compute(values, s.cfg.Histogram.Bins)
	sel.result = Displayed{Unit: sel.info, View: sel.view}
	return sel, nil
}

func (s *Session) commit(sel *selection) {
	s.unit = sel.index
	s.info = sel.info
	s.label = sel.result
	s.pipeline = sel.pipeline
	s.transform = transform.Identity()
	s.rgb = nil
	s.slice = nil
	s.displayed = sel.displayed
	s.view = sel.view
	s.bins = sel.bins
	s.state.Vmin, s.state.Vmax = sel.vmin, sel.vmax

	s.logger.Printf("selected unit %d (%s) shape %v: range [%g, %g]",
		sel.index, sel.info.Kind, sel.info.Shape, sel.vmin, sel.vmax)
}

// SetScalingMode changes the stretch applied to the view.
func (s *Session) SetScalingMode(mode scaling.Mode) error {
	m, err := scaling.ParseMode(string(mode))
	if err != nil {
		return err
	}
	s.state.Mode = m
	return nil
}

// SetRange sets the display bounds. Bounds must be finite with
// vmin < vmax; otherwise the state is left unchanged.
func (s *Session) SetRange(vmin, vmax float64) error {
	if math.IsNaN(vmin) || math.IsInf(vmin, 0) || math.IsNaN(vmax) || math.IsInf(vmax, 0) || vmin >= vmax {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, vmin, vmax)
	}
	s.state.Vmin, s.state.Vmax = vmin, vmax
	return nil
}

// SetColorMap selects a color map by name.
func (s *Session) SetColorMap(name string) error {
	if _, err := colormap.Lookup(name); err != nil {
		return err
	}
	s.state.ColorMap = name
	return nil
}

// SetInvert toggles the reversed color map.
func (s *Session) SetInvert(invert bool) {
	s.state.Invert = invert
}

// Rotate sets the absolute rotation angle in degrees.
func (s *Session) Rotate(angle int) error {
	return s.applyTransform(s.transform.WithAngle(angle))
}

// FlipHorizontal toggles the horizontal flip.
func (s *Session) FlipHorizontal() error {
	return s.applyTransform(s.transform.ToggleHorizontal())
}

// FlipVertical toggles the vertical flip.
func (s *Session) FlipVertical() error {
	return s.applyTransform(s.transform.ToggleVertical())
}

// ResetTransforms removes rotation and flips.
func (s *Session) ResetTransforms() error {
	return s.applyTransform(transform.Identity())
}

// applyTransform replays next from the canonical array. The display range
// is kept and the histogram is recomputed. If the replay fails only the
// attempted angle is recorded.
func (s *Session) applyTransform(next transform.State) error {
	if s.pipeline == nil {
		return ErrNoImage
	}

	out, err := s.pipeline.Apply(next)
	if err == nil {
		var view channel.View
		view, err = s.reduce(out)
		if err == nil {
			s.transform = next
			s.show(out, view)
			return nil
		}
	}

	s.transform.AngleDegrees = next.AngleDegrees
	s.logger.Printf("transform failed, keeping previous image: %v", err)
	return &TransformError{Angle: next.AngleDegrees, Err: err}
}

func (s *Session) reduce(a *models.Array) (channel.View, error) {
	if s.slice == nil {
		return channel.Reduce(a), nil
	}
	return channel.ReduceAt(a, s.slice)
}

// show installs a new displayed array and refreshes the histogram.
func (s *Session) show(a *models.Array, view channel.View) {
	s.displayed = a
	s.view = view
	if nd, ok := view.(channel.NotDisplayable); ok {
		s.bins = nil
		s.label = Described{Unit: s.info, Summary: nd}
		return
	}
	s.bins = histogram.Compute(channel.Values(view), s.cfg.Histogram.Bins)
	s.label = Displayed{Unit: s.info, View: view}
}

// SetSlice selects the plane shown from a cube by its leading-axis
// indices. A nil slice goes back to the middle plane. On an RGB array
// the single index picks one color channel.
func (s *Session) SetSlice(indices []int) error {
	if s.displayed == nil {
		return ErrNoImage
	}
	prev := s.slice
	s.slice = nil
	if indices != nil {
		s.slice = append(make([]int, 0, len(indices)), indices...)
	}

	view, err := s.reduce(s.displayed)
	if err != nil {
		s.slice = prev
		return err
	}
	s.show(s.displayed, view)
	return nil
}

// SliceAxes returns the sizes of the leading axes a plane can be chosen
// from, or nil when the displayed array is a single image.
func (s *Session) SliceAxes() []int {
	a := s.displayed
	if a == nil || a.Rank() <= 2 || channel.IsRGB(a) {
		return nil
	}
	return append([]int(nil), a.Shape[:a.Rank()-2]...)
}

// AutoScale recomputes the display range from the configured percentiles
// of the current view. It returns the fraction of samples clipped by the
// new range.
func (s *Session) AutoScale() (float64, error) {
	values := channel.Values(s.view)
	if values == nil {
		return 0, ErrNoImage
	}
	vmin, vmax := scaling.AutoScale(values, s.cfg.AutoScale.PercentileLow, s.cfg.AutoScale.PercentileHigh)
	s.state.Vmin, s.state.Vmax = vmin, vmax
	return scaling.ClippedFraction(values, vmin, vmax), nil
}

// ToGrayscale replaces an RGB image with its luminosity so color maps
// apply. The RGB data is kept for ResetView.
func (s *Session) ToGrayscale() error {
	if s.pipeline == nil {
		return ErrNoImage
	}
	rgb := s.pipeline.Canonical()
	if !channel.IsRGB(rgb) {
		return ErrNotRGB
	}

	gray := models.NewArray(models.Float64, rgb.Rows(), rgb.Cols())
	r, g, b := rgb.Plane(0), rgb.Plane(1), rgb.Plane(2)
	for i := range gray.Data {
		gray.Data[i] = lumaR*r[i] + lumaG*g[i] + lumaB*b[i]
	}

	return s.replaceCanonical(gray, rgb)
}

// ResetView undoes a grayscale conversion. Otherwise it restores the
// default look: viridis, not inverted, log stretch, auto-scaled range.
func (s *Session) ResetView() error {
	if s.rgb != nil {
		return s.replaceCanonical(s.rgb, nil)
	}

	s.state.ColorMap = colormap.Default
	s.state.Invert = false
	s.state.Mode = scaling.Log
	_, err := s.AutoScale()
	return err
}

// replaceCanonical swaps the canonical array, replays the current
// transform and auto-scales.
func (s *Session) replaceCanonical(canonical, rgb *models.Array) error {
	pipeline := transform.NewPipeline(canonical)
	out, err := pipeline.Apply(s.transform)
	if err != nil {
		return &TransformError{Angle: s.transform.AngleDegrees, Err: err}
	}
	view, err := s.reduce(out)
	if err != nil {
		return err
	}

	s.pipeline = pipeline
	s.rgb = rgb
	s.show(out, view)
	_, err = s.AutoScale()
	return err
}

// DisplayState returns the current calibration.
func (s *Session) DisplayState() State {
	return s.state
}

// TransformState returns the current rotation and flips.
func (s *Session) TransformState() transform.State {
	return s.transform
}

// Histogram returns the bins of the current view.
func (s *Session) Histogram() histogram.Bins {
	return s.bins
}

// Markers places the display bounds on the current histogram.
func (s *Session) Markers() histogram.Markers {
	return s.bins.Markers(s.state.Vmin, s.state.Vmax)
}

// View returns the reduced form of the displayed array.
func (s *Session) View() channel.View {
	return s.view
}

// Result returns the outcome of the last unit selection, updated by
// later transforms.
func (s *Session) Result() Result {
	return s.label
}

// IsGrayscale reports whether an RGB unit is currently shown as luminosity.
func (s *Session) IsGrayscale() bool {
	return s.rgb != nil
}

// Frame returns the current view scaled to [0, 1] for the renderer.
func (s *Session) Frame() (render.Frame, error) {
	w, h, channels := channel.Dims(s.view)
	if channels == 0 {
		return render.Frame{}, ErrNoImage
	}

	values := channel.Values(s.view)
	var data []float64
	if channels == 3 {
		data = scaling.ApplyRGB(values, s.state.Vmin, s.state.Vmax, s.state.Mode)
	} else {
		data = scaling.Apply(values, s.state.Vmin, s.state.Vmax, s.state.Mode)
	}

	return render.Frame{
		Width:    w,
		Height:   h,
		Channels: channels,
		Data:     data,
		ColorMap: s.state.ColorMap,
		Invert:   s.state.Invert,
	}, nil
}

// Stats summarizes the displayed array.
func (s *Session) Stats() (Stats, error) {
	if s.displayed == nil {
		return Stats{}, ErrNoImage
	}
	return computeStats(s.displayed), nil
}

// Units lists the units of the open source.
func (s *Session) Units() ([]models.UnitInfo, error) {
	if s.src == nil {
		return nil, ErrNoSource
	}
	return s.src.Units(), nil
}

// Unit returns the index of the selected unit.
func (s *Session) Unit() int {
	return s.unit
}

// Metadata returns the metadata text of the selected unit.
func (s *Session) Metadata() (string, error) {
	if s.src == nil {
		return "", ErrNoSource
	}
	return s.src.MetadataText(s.unit)
}

// IsTransformError reports whether err came from a failed rotation or flip.
func IsTransformError(err error) bool {
	var te *TransformError
	return errors.As(err, &te)
}
