package transform

import (
	"errors"
	"math"
	"testing"

	"fitsview/internal/models"
	"fitsview/pkg/channel"
)

// ramp builds an array whose samples count up from one
func ramp(dtype models.DType, shape ...int) *models.Array {
	a := models.NewArray(dtype, shape...)
	for i := range a.Data {
		a.Data[i] = float64(i + 1)
	}
	return a
}

// TestIdentity verifies no rotation and no flips reproduce the reducer output
func TestIdentity(t *testing.T) {
	canonical := ramp(models.Int16, 4, 5)
	p := NewPipeline(canonical)

	out, err := p.Apply(Identity())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !out.SameAs(canonical) {
		t.Fatal("Identity transform changed the array")
	}

	want := channel.Values(channel.Reduce(canonical))
	got := channel.Values(channel.Reduce(out))
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("Reduced sample %d: expected %f, got %f", i, want[i], got[i])
		}
	}

	// The result is a new array
	out.Data[0] = -99
	if canonical.Data[0] == -99 {
		t.Error("Apply returned an alias of the canonical array")
	}
}

// TestFullTurn verifies 360 degrees behaves as no rotation
func TestFullTurn(t *testing.T) {
	s := Identity().WithAngle(360)
	if s.AngleDegrees != 0 {
		t.Errorf("Expected 360 to normalize to 0, got %d", s.AngleDegrees)
	}
	if !s.IsIdentity() {
		t.Error("Expected a full turn to be the identity")
	}

	canonical := ramp(models.Float64, 3, 7)
	out, err := NewPipeline(canonical).Apply(s)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !out.SameAs(canonical) {
		t.Error("Full turn changed the array")
	}
}

// TestNormalizeAngle covers negative and large angles
func TestNormalizeAngle(t *testing.T) {
	tests := map[int]int{
		0:    0,
		90:   90,
		360:  0,
		-90:  270,
		-359: 1,
		450:  90,
		720:  0,
	}
	for in, want := range tests {
		if got := NormalizeAngle(in); got != want {
			t.Errorf("NormalizeAngle(%d): expected %d, got %d", in, want, got)
		}
	}
}

// TestRotationIsAbsolute verifies a new angle replaces the old one
func TestRotationIsAbsolute(t *testing.T) {
	canonical := ramp(models.Float64, 4, 6)
	p := NewPipeline(canonical)

	s := Identity().WithAngle(90)
	if _, err := p.Apply(s); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	s = s.WithAngle(90)
	if s.AngleDegrees != 90 {
		t.Errorf("Expected angle to stay 90, got %d", s.AngleDegrees)
	}

	direct, _ := p.Apply(Identity().WithAngle(90))
	again, _ := p.Apply(s)
	if !direct.SameAs(again) {
		t.Error("Repeated rotation to the same angle produced different arrays")
	}
}

// TestFlipInvolution verifies each flip applied twice restores the array
func TestFlipInvolution(t *testing.T) {
	shapes := [][]int{{4, 5}, {3, 4, 5}, {2, 3, 2, 3}}

	for _, shape := range shapes {
		a := ramp(models.Float32, shape...)

		if !FlipHorizontal(FlipHorizontal(a)).SameAs(a) {
			t.Errorf("Shape %v: horizontal flip is not an involution", shape)
		}
		if !FlipVertical(FlipVertical(a)).SameAs(a) {
			t.Errorf("Shape %v: vertical flip is not an involution", shape)
		}
	}
}

// TestFlipAxes checks which axis each flip reverses
func TestFlipAxes(t *testing.T) {
	a := ramp(models.Float64, 2, 3) // [[1 2 3] [4 5 6]]

	h := FlipHorizontal(a)
	wantH := []float64{3, 2, 1, 6, 5, 4}
	for i, v := range wantH {
		if h.Data[i] != v {
			t.Errorf("Horizontal index %d: expected %f, got %f", i, v, h.Data[i])
		}
	}

	v := FlipVertical(a)
	wantV := []float64{4, 5, 6, 1, 2, 3}
	for i, w := range wantV {
		if v.Data[i] != w {
			t.Errorf("Vertical index %d: expected %f, got %f", i, w, v.Data[i])
		}
	}

	// Flips never modify their input
	if a.Data[0] != 1 || a.Data[5] != 6 {
		t.Error("Flip modified its input")
	}
}

// TestFlipOrderAfterRotation checks rotate, then horizontal, then vertical
func TestFlipOrderAfterRotation(t *testing.T) {
	canonical := ramp(models.Float64, 2, 3)
	p := NewPipeline(canonical)

	s := State{AngleDegrees: 90, FlipHorizontal: true, FlipVertical: true}
	got, err := p.Apply(s)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	rotated, err := Rotate(canonical, 90)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	want := FlipVertical(FlipHorizontal(rotated))
	if !got.SameAs(want) {
		t.Errorf("Expected %v, got %v", want.Data, got.Data)
	}
}

// TestRGBRotationKeepsChannelsApart rotates a (3,50,50) image by 90 degrees
func TestRGBRotationKeepsChannelsApart(t *testing.T) {
	canonical := models.NewArray(models.Uint8, 3, 50, 50)
	for c := 0; c < 3; c++ {
		plane := canonical.Plane(c)
		for i := range plane {
			// channel c only ever holds values in [c*80, c*80+49]
			plane[i] = float64(c*80 + i%50)
		}
	}

	out, err := NewPipeline(canonical).Apply(Identity().WithAngle(90))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	rgb, ok := channel.Reduce(out).(channel.RGB)
	if !ok {
		t.Fatalf("Expected RGB view, got %T", channel.Reduce(out))
	}
	if rgb.Height != 50 || rgb.Width != 50 || len(rgb.Pixels) != 50*50*3 {
		t.Fatalf("Expected (50,50,3), got (%d,%d,%d)", rgb.Height, rgb.Width, len(rgb.Pixels)/(rgb.Width*rgb.Height))
	}

	for i := 0; i < 50*50; i++ {
		for c := 0; c < 3; c++ {
			v := rgb.Pixels[i*3+c]
			lo, hi := float64(c*80), float64(c*80+49)
			if v < lo || v > hi {
				t.Fatalf("Pixel %d channel %d: value %f leaked from another channel", i, c, v)
			}
		}
	}
}

// TestIntegerRotationStaysInRange verifies interpolated integers are clipped and cast back
func TestIntegerRotationStaysInRange(t *testing.T) {
	canonical := models.NewArray(models.Uint8, 20, 20)
	for i := range canonical.Data {
		if i%2 == 0 {
			canonical.Data[i] = 255
		}
	}

	out, err := Rotate(canonical, 33)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if out.DType != models.Uint8 {
		t.Errorf("Expected dtype uint8, got %s", out.DType)
	}

	lo, hi := models.Uint8.Range()
	for i, v := range out.Data {
		if v < lo || v > hi {
			t.Fatalf("Index %d: value %f outside [%f, %f]", i, v, lo, hi)
		}
		if v != math.Trunc(v) {
			t.Fatalf("Index %d: value %f is not integral", i, v)
		}
	}
}

// TestRotateRank1Fails verifies rotation of a spectrum is a transform failure
func TestRotateRank1Fails(t *testing.T) {
	p := NewPipeline(ramp(models.Float64, 10))

	_, err := p.Apply(Identity().WithAngle(45))
	if !errors.Is(err, ErrTransform) {
		t.Errorf("Expected ErrTransform, got %v", err)
	}
}

// TestCanonicalNeverChanges runs many transforms and checks the source array
func TestCanonicalNeverChanges(t *testing.T) {
	source := ramp(models.Int32, 6, 8)
	snapshot := source.Clone()
	p := NewPipeline(source)

	// Mutating the caller's array does not reach the pipeline
	source.Data[0] = 1000

	for _, angle := range []int{15, 90, 200, -45, 0} {
		s := State{AngleDegrees: NormalizeAngle(angle), FlipHorizontal: angle%2 == 0}
		if _, err := p.Apply(s); err != nil {
			t.Fatalf("Apply(%d) failed: %v", angle, err)
		}
	}

	if !p.Canonical().SameAs(snapshot) {
		t.Error("Canonical array changed during transforms")
	}
}
