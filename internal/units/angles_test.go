package units

import (
	"math"
	"testing"
)

func TestNormalizeDeg(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{361, 1},
		{-1, 359},
		{-360, 0},
		{720.5, 0.5},
		{-725, 355},
		{179.9, 179.9},
	}
	for _, c := range cases {
		if got := NormalizeDeg(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("NormalizeDeg(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSignedDeltaDeg(t *testing.T) {
	cases := []struct {
		a, b, want float64
	}{
		{0, 10, 10},
		{10, 0, -10},
		{359, 1, 2},
		{1, 359, -2},
		{0, 180, 180},  // half turn resolves to +180, not -180
		{90, 270, 180}, // ditto
		{0, 190, -170},
		{350, 10, 20},
	}
	for _, c := range cases {
		if got := SignedDeltaDeg(c.a, c.b); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("SignedDeltaDeg(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestUnwrapDegContinuity(t *testing.T) {
	// A raw series crossing 0/360 must unwrap into a monotonic ramp.
	raw := []float64{350, 355, 359, 2, 6, 11}
	cont := raw[0]
	prev := cont
	for _, r := range raw[1:] {
		cont = UnwrapDeg(cont, r)
		step := cont - prev
		if step < 0 || step > 10 {
			t.Fatalf("unwrap step %v out of expected range for raw %v", step, r)
		}
		prev = cont
	}
	if want := 371.0; math.Abs(cont-want) > 1e-9 {
		t.Errorf("final unwrapped angle = %v, want %v", cont, want)
	}
}

func TestCircularDistanceNeverExceeds180(t *testing.T) {
	for a := -400.0; a <= 400; a += 37.5 {
		for b := -400.0; b <= 400; b += 41.0 {
			d := CircularDistanceDeg(a, b)
			if d < 0 || d > 180 {
				t.Fatalf("CircularDistanceDeg(%v, %v) = %v out of [0,180]", a, b, d)
			}
		}
	}
}

func TestNormalizedToCm(t *testing.T) {
	// A distance equal to the torso reference maps to the default torso length.
	if got := NormalizedToCm(0.25, 0.25); math.Abs(got-DefaultTorsoLengthCm) > 1e-9 {
		t.Errorf("NormalizedToCm(0.25, 0.25) = %v, want %v", got, DefaultTorsoLengthCm)
	}
	if got := NormalizedToCm(0.1, 0); got != 0 {
		t.Errorf("degenerate torso reference should yield 0, got %v", got)
	}
}
