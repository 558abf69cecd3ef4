package scaling

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// TestAutoScaleConstant verifies the degenerate-range fallback for flat data
func TestAutoScaleConstant(t *testing.T) {
	values := make([]float64, 100) // 10x10 image
	for i := range values {
		values[i] = 5.0
	}

	vmin, vmax := AutoScale(values, DefaultLowPercentile, DefaultHighPercentile)
	if vmin != 5.0 || vmax != 6.0 {
		t.Errorf("Expected (5, 6) for constant data, got (%f, %f)", vmin, vmax)
	}

	// Negative constants follow the same rule
	for i := range values {
		values[i] = -3.25
	}
	vmin, vmax = AutoScale(values, DefaultLowPercentile, DefaultHighPercentile)
	if vmin != -3.25 || vmax != -2.25 {
		t.Errorf("Expected (-3.25, -2.25), got (%f, %f)", vmin, vmax)
	}
}

// TestAutoScaleNoFiniteValues verifies the (0, 1) default
func TestAutoScaleNoFiniteValues(t *testing.T) {
	cases := map[string][]float64{
		"empty":   {},
		"nan":     {math.NaN(), math.NaN()},
		"inf":     {math.Inf(1), math.Inf(-1)},
		"mixture": {math.NaN(), math.Inf(1)},
	}

	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			vmin, vmax := AutoScale(values, DefaultLowPercentile, DefaultHighPercentile)
			if vmin != 0 || vmax != 1 {
				t.Errorf("Expected (0, 1), got (%f, %f)", vmin, vmax)
			}
		})
	}
}

// TestAutoScaleIgnoresNonFinite verifies NaN and Inf do not affect the percentiles
func TestAutoScaleIgnoresNonFinite(t *testing.T) {
	values := []float64{1, 2, 3, 4, math.NaN(), math.Inf(1), math.Inf(-1)}

	vmin, vmax := AutoScale(values, 0, 100)
	if vmin != 1 || vmax != 4 {
		t.Errorf("Expected (1, 4), got (%f, %f)", vmin, vmax)
	}
}

// TestAutoScalePercentiles checks the interpolated percentile definition
func TestAutoScalePercentiles(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}

	vmin, vmax := AutoScale(values, DefaultLowPercentile, DefaultHighPercentile)

	// rank = 0.005 * 99 = 0.495 -> 1 + 0.495
	if math.Abs(vmin-1.495) > 1e-9 {
		t.Errorf("Expected vmin 1.495, got %f", vmin)
	}
	// rank = 0.995 * 99 = 98.505 -> 99 + 0.505
	if math.Abs(vmax-99.505) > 1e-9 {
		t.Errorf("Expected vmax 99.505, got %f", vmax)
	}
}

// TestAutoScaleOutlierFallback verifies the min/max fallback when the
// percentiles collapse but the data is not constant
func TestAutoScaleOutlierFallback(t *testing.T) {
	values := make([]float64, 1000)
	values[999] = 1e6 // single hot pixel above the 99.5th percentile

	vmin, vmax := AutoScale(values, DefaultLowPercentile, DefaultHighPercentile)
	if vmin != 0 || vmax != 1e6 {
		t.Errorf("Expected (0, 1e6), got (%f, %f)", vmin, vmax)
	}
}

// TestAutoScaleOrdering checks vmin < vmax on random non-constant arrays
func TestAutoScaleOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(500)
		values := make([]float64, n)
		for i := range values {
			values[i] = rng.NormFloat64() * math.Pow(10, float64(rng.Intn(6)))
		}
		values[0] = values[1] + 1 // guarantee at least two distinct values

		vmin, vmax := AutoScale(values, DefaultLowPercentile, DefaultHighPercentile)
		if !(vmin < vmax) {
			t.Fatalf("Trial %d: expected vmin < vmax, got (%f, %f)", trial, vmin, vmax)
		}
	}
}

// TestPercentile covers the interpolation edge cases
func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}

	tests := []struct {
		p        float64
		expected float64
	}{
		{0, 10},
		{100, 40},
		{50, 25},
		{-5, 10},
		{150, 40},
	}

	for _, tc := range tests {
		got := Percentile(sorted, tc.p)
		if math.Abs(got-tc.expected) > 1e-12 {
			t.Errorf("Percentile(%v) expected %f, got %f", tc.p, tc.expected, got)
		}
	}

	if got := Percentile([]float64{7}, 30); got != 7 {
		t.Errorf("Expected single-value percentile 7, got %f", got)
	}
}

// TestApplyLinear checks the linear mapping and clipping
func TestApplyLinear(t *testing.T) {
	values := []float64{-10, 0, 5, 10, 20}

	out := Apply(values, 0, 10, Linear)
	expected := []float64{0, 0, 0.5, 1, 1}

	for i := range expected {
		if math.Abs(out[i]-expected[i]) > 1e-12 {
			t.Errorf("Index %d: expected %f, got %f", i, expected[i], out[i])
		}
	}

	// Input must not be modified
	if values[0] != -10 || values[4] != 20 {
		t.Error("Apply modified its input")
	}
}

// TestApplyLinearDegenerateBounds returns the clipped values unchanged
func TestApplyLinearDegenerateBounds(t *testing.T) {
	out := Apply([]float64{1, 5, 9}, 5, 5, Linear)
	for i, v := range out {
		if v != 5 {
			t.Errorf("Index %d: expected clipped value 5, got %f", i, v)
		}
	}
}

// TestApplyNonFinite verifies NaN and Inf are clipped before stretching
func TestApplyNonFinite(t *testing.T) {
	values := []float64{math.NaN(), math.Inf(1), math.Inf(-1), 5}

	for _, mode := range Modes() {
		out := Apply(values, 0, 10, mode)
		for i, v := range out {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("Mode %s index %d: expected finite output, got %f", mode, i, v)
			}
		}
		if out[1] != 1 {
			t.Errorf("Mode %s: expected +Inf to map to 1, got %f", mode, out[1])
		}
		if out[2] != 0 {
			t.Errorf("Mode %s: expected -Inf to map to 0, got %f", mode, out[2])
		}
	}
}

// TestApplyLogNormalizesOwnRange verifies log uses the logged array's extremes
func TestApplyLogNormalizesOwnRange(t *testing.T) {
	// Values occupy only the lower part of the bounds
	out := Apply([]float64{0, 9}, 0, 99, Log)

	if out[0] != 0 || out[1] != 1 {
		t.Errorf("Expected [0 1], got %v", out)
	}

	// Constant logged values are returned as logged, not normalized
	out = Apply([]float64{9, 9}, 0, 99, Log)
	if math.Abs(out[0]-1) > 1e-12 {
		t.Errorf("Expected unnormalized log10(10) = 1, got %f", out[0])
	}
}

// TestApplySqrt checks the sqrt stretch midpoint
func TestApplySqrt(t *testing.T) {
	out := Apply([]float64{0, 25, 100}, 0, 100, Sqrt)
	expected := []float64{0, 0.5, 1}

	for i := range expected {
		if math.Abs(out[i]-expected[i]) > 1e-12 {
			t.Errorf("Index %d: expected %f, got %f", i, expected[i], out[i])
		}
	}
}

// TestApplyAsinh checks asinh is applied to the clipped values directly
func TestApplyAsinh(t *testing.T) {
	out := Apply([]float64{-1, 0, 1}, -1, 1, Asinh)
	expected := []float64{0, 0.5, 1}

	for i := range expected {
		if math.Abs(out[i]-expected[i]) > 1e-12 {
			t.Errorf("Index %d: expected %f, got %f", i, expected[i], out[i])
		}
	}
}

// TestApplyUnknownModeFallsBackToLinear checks the default branch
func TestApplyUnknownModeFallsBackToLinear(t *testing.T) {
	values := []float64{0, 2.5, 10}
	linear := Apply(values, 0, 10, Linear)
	unknown := Apply(values, 0, 10, Mode("histeq"))

	for i := range linear {
		if linear[i] != unknown[i] {
			t.Errorf("Index %d: expected %f, got %f", i, linear[i], unknown[i])
		}
	}
}

// TestApplyRange verifies every mode maps finite data into [0, 1]
func TestApplyRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 100; trial++ {
		values := make([]float64, 64)
		for i := range values {
			values[i] = (rng.Float64() - 0.3) * 1e4
		}
		vmin, vmax := AutoScale(values, DefaultLowPercentile, DefaultHighPercentile)

		for _, mode := range Modes() {
			out := Apply(values, vmin, vmax, mode)
			for i, v := range out {
				if v < 0 || v > 1 || math.IsNaN(v) {
					t.Fatalf("Trial %d mode %s index %d: value %f outside [0,1]", trial, mode, i, v)
				}
			}
		}
	}
}

// TestApplyExtremeBounds verifies bounds near the float64 limits stay finite
func TestApplyExtremeBounds(t *testing.T) {
	values := []float64{-math.MaxFloat64, 0, math.MaxFloat64}

	for _, mode := range Modes() {
		t.Run(string(mode), func(t *testing.T) {
			out := Apply(values, -math.MaxFloat64, math.MaxFloat64, mode)
			for i, v := range out {
				if v < 0 || v > 1 || math.IsNaN(v) {
					t.Errorf("Index %d: value %v outside [0,1]", i, v)
				}
			}
			if out[0] != 0 || out[2] != 1 {
				t.Errorf("Expected endpoints 0 and 1, got %v", out)
			}
		})
	}

	linear := Apply(values, -math.MaxFloat64, math.MaxFloat64, Linear)
	if linear[1] != 0.5 {
		t.Errorf("Expected linear midpoint 0.5, got %v", linear[1])
	}
}

// TestApplyRGBPerChannel verifies channels are scaled independently
func TestApplyRGBPerChannel(t *testing.T) {
	// Two pixels; the blue channel only spans half the range
	pixels := []float64{
		0, 0, 0,
		10, 10, 5,
	}

	linear := ApplyRGB(pixels, 0, 10, Linear)
	if linear[5] != 0.5 {
		t.Errorf("Expected linear blue 0.5, got %f", linear[5])
	}

	// Under sqrt each channel renormalizes against its own maximum
	sqrt := ApplyRGB(pixels, 0, 10, Sqrt)
	for c := 0; c < 3; c++ {
		if sqrt[3+c] != 1 {
			t.Errorf("Channel %d: expected renormalized 1, got %f", c, sqrt[3+c])
		}
	}
}

// TestClippedFraction counts values outside the bounds
func TestClippedFraction(t *testing.T) {
	values := []float64{-1, 0, 1, 2, 3, math.NaN()}

	got := ClippedFraction(values, 0, 2)
	if math.Abs(got-0.4) > 1e-12 {
		t.Errorf("Expected 0.4, got %f", got)
	}

	if got := ClippedFraction([]float64{math.NaN()}, 0, 1); got != 0 {
		t.Errorf("Expected 0 for no finite values, got %f", got)
	}
}

// TestParseMode covers valid and invalid names
func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %q, %v", m, got, err)
		}
	}

	_, err := ParseMode("gamma")
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Expected ErrUnknownMode, got %v", err)
	}
}
