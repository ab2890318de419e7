package sampler

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/turbulence/noise"
	"github.com/pthm-cable/turbulence/turbulence"
)

func testField(t *testing.T) turbulence.Field {
	t.Helper()
	var points []*turbulence.Point
	for i := 0; i < 12; i++ {
		mk := func(seed int64) *noise.FBM {
			f, err := noise.NewFBM(noise.Params{
				Seed: seed, MinFreq: 0.1, MaxFreq: 0.8, Hurst: 0.5, Lacunarity: 2, Gain: 1,
			})
			if err != nil {
				t.Fatalf("NewFBM: %v", err)
			}
			return f
		}
		p, err := turbulence.NewPoint(turbulence.PointConfig{
			Anchor:        r3.Vec{X: float64(i%4) * 3, Y: float64(i/4) * 3},
			Magnitude:     mk(int64(i)),
			Direction:     mk(int64(i) + 100),
			Speed:         mk(int64(i) + 200),
			TimeStep:      0.1,
			CoherenceRate: 0.1,
		})
		if err != nil {
			t.Fatalf("NewPoint: %v", err)
		}
		points = append(points, p)
	}
	f, err := turbulence.NewScatterField(points, 5, 4)
	if err != nil {
		t.Fatalf("NewScatterField: %v", err)
	}
	return f
}

func TestSampleParallelMatchesSequential(t *testing.T) {
	positions := Grid(r3.Vec{X: -1, Y: -1}, r3.Vec{X: 10, Y: 7, Z: 2}, [3]int{12, 9, 3})

	seq := New(1)
	par := New(4)
	defer par.Close()

	// Separate fields so extension order differs between the two runs.
	fSeq, fPar := testField(t), testField(t)
	for _, tm := range []float64{0, 1.3, 4.75} {
		want, err := seq.Sample(fSeq, positions, tm)
		if err != nil {
			t.Fatalf("sequential Sample: %v", err)
		}
		got, err := par.Sample(fPar, positions, tm)
		if err != nil {
			t.Fatalf("parallel Sample: %v", err)
		}
		if len(got) != len(positions) {
			t.Fatalf("len = %d, want %d", len(got), len(positions))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("t=%v position %d: parallel %v, sequential %v", tm, i, got[i], want[i])
			}
		}
	}
}

func TestSampleSmallInput(t *testing.T) {
	s := New(8)
	defer s.Close()

	f := testField(t)
	positions := []r3.Vec{{X: 1}, {Y: 2}}
	got, err := s.Sample(f, positions, 0.5)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	for i, pos := range positions {
		want, _ := f.GetVal(pos, 0.5)
		if got[i] != want {
			t.Errorf("position %d: %v, want %v", i, got[i], want)
		}
	}

	empty, err := s.Sample(f, nil, 0.5)
	if err != nil || len(empty) != 0 {
		t.Errorf("Sample(nil) = %v, %v", empty, err)
	}
}

func TestSampleInvalidTime(t *testing.T) {
	s := New(2)
	defer s.Close()
	positions := Grid(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}, [3]int{5, 5, 5})
	if _, err := s.Sample(testField(t), positions, math.NaN()); !errors.Is(err, turbulence.ErrInvalidTime) {
		t.Errorf("Sample(NaN) error = %v, want ErrInvalidTime", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := New(3)
	s.Close()
	positions := Grid(r3.Vec{}, r3.Vec{X: 4, Y: 4, Z: 4}, [3]int{4, 4, 4})
	if _, err := s.Sample(testField(t), positions, 1); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	s.Close()
	s.Close()
}

func TestGrid(t *testing.T) {
	got := Grid(r3.Vec{X: 0, Y: 10}, r3.Vec{X: 1, Y: 20, Z: 5}, [3]int{3, 2, 1})
	want := []r3.Vec{
		{X: 0, Y: 10}, {X: 0, Y: 20},
		{X: 0.5, Y: 10}, {X: 0.5, Y: 20},
		{X: 1, Y: 10}, {X: 1, Y: 20},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Grid[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if Grid(r3.Vec{}, r3.Vec{}, [3]int{0, 1, 1}) != nil {
		t.Error("zero resolution should give no positions")
	}
}

func TestTimes(t *testing.T) {
	tests := []struct {
		start, end float64
		steps      int
		want       []float64
	}{
		{0, 1, 5, []float64{0, 0.25, 0.5, 0.75, 1}},
		{2, 9, 1, []float64{2}},
		{0, 0.3, 4, []float64{0, 0.1, 0.2, 0.3}},
	}

	for _, tt := range tests {
		got := Times(tt.start, tt.end, tt.steps)
		if len(got) != len(tt.want) {
			t.Fatalf("Times(%v, %v, %d) len = %d", tt.start, tt.end, tt.steps, len(got))
		}
		for i := range got {
			if math.Abs(got[i]-tt.want[i]) > 1e-12 {
				t.Errorf("Times(%v, %v, %d)[%d] = %v, want %v", tt.start, tt.end, tt.steps, i, got[i], tt.want[i])
			}
		}
	}
}
