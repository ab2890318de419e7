package sampler

import "gonum.org/v1/gonum/spatial/r3"

// Grid returns res[0]*res[1]*res[2] positions spanning [lo, hi] inclusive,
// X varying slowest. An axis with resolution 1 sits at lo.
func Grid(lo, hi r3.Vec, res [3]int) []r3.Vec {
	if res[0] < 1 || res[1] < 1 || res[2] < 1 {
		return nil
	}

	out := make([]r3.Vec, 0, res[0]*res[1]*res[2])
	for i := 0; i < res[0]; i++ {
		x := axisValue(lo.X, hi.X, i, res[0])
		for j := 0; j < res[1]; j++ {
			y := axisValue(lo.Y, hi.Y, j, res[1])
			for k := 0; k < res[2]; k++ {
				out = append(out, r3.Vec{X: x, Y: y, Z: axisValue(lo.Z, hi.Z, k, res[2])})
			}
		}
	}
	return out
}

// Times returns steps evenly spaced times from start to end inclusive.
func Times(start, end float64, steps int) []float64 {
	if steps < 1 {
		return nil
	}
	out := make([]float64, steps)
	for i := range out {
		out[i] = axisValue(start, end, i, steps)
	}
	return out
}

func axisValue(lo, hi float64, i, n int) float64 {
	if n == 1 {
		return lo
	}
	if i == n-1 {
		return hi
	}
	return lo + (hi-lo)*float64(i)/float64(n-1)
}
