package turbulence

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/turbulence/noise"
)

func testFBM(t testing.TB, seed int64) *noise.FBM {
	t.Helper()
	f, err := noise.NewFBM(noise.Params{
		Seed:       seed,
		MinFreq:    0.1,
		MaxFreq:    1.6,
		Hurst:      1.0 / 3.0,
		Lacunarity: 2,
		Gain:       1,
	})
	if err != nil {
		t.Fatalf("NewFBM: %v", err)
	}
	return f
}

// constPoint returns a point whose value is v everywhere, at every time.
func constPoint(t testing.TB, anchor r3.Vec, v float64) *Point {
	t.Helper()
	p, err := NewPoint(PointConfig{
		Anchor:    anchor,
		Magnitude: noise.Constant(v),
		Direction: noise.Constant(0),
		Speed:     noise.Constant(0),
		TimeStep:  0.1,
	})
	if err != nil {
		t.Fatalf("NewPoint: %v", err)
	}
	return p
}

// driftingPoint returns a point with noise-driven walk and magnitude.
func driftingPoint(t testing.TB, anchor r3.Vec, seed int64) *Point {
	t.Helper()
	p, err := NewPoint(PointConfig{
		Anchor:        anchor,
		Magnitude:     testFBM(t, seed),
		Direction:     testFBM(t, seed+1000),
		Speed:         testFBM(t, seed+2000),
		TimeStep:      0.1,
		CoherenceRate: 0.2,
	})
	if err != nil {
		t.Fatalf("NewPoint: %v", err)
	}
	return p
}
