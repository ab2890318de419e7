package turbulence

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// inverseDistanceWeights returns normalized 1/d weights for dists. If any
// distance is exactly zero, exact is the position of the first such entry
// and its weight is 1 with every other weight 0; otherwise exact is -1.
//
// Weights are formed as dmin/d, the same kernel scaled by the smallest
// distance, so subnormal distances cannot overflow 1/d to +Inf.
func inverseDistanceWeights(dists []float64) (weights []float64, exact int) {
	weights = make([]float64, len(dists))
	for i, d := range dists {
		if d == 0 {
			weights[i] = 1
			return weights, i
		}
	}
	if len(dists) == 0 {
		return weights, -1
	}

	dmin := floats.Min(dists)
	for i, d := range dists {
		weights[i] = dmin / d
	}
	floats.Scale(1/floats.Sum(weights), weights)
	return weights, -1
}

// blendInverseDistance evaluates the points picked by ids at (pos, t) and
// blends them with inverse-distance weights. A zero distance short-circuits
// to that point's unweighted value so no division by zero occurs.
func blendInverseDistance(points []*Point, ids []int, dists []float64, pos r3.Vec, t float64) (float64, error) {
	weights, exact := inverseDistanceWeights(dists)
	if exact >= 0 {
		return points[ids[exact]].GetVal(pos, t)
	}

	vals := make([]float64, len(ids))
	for i, id := range ids {
		v, err := points[id].GetVal(pos, t)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	return floats.Dot(weights, vals), nil
}

func anchorsOf(points []*Point) []r3.Vec {
	out := make([]r3.Vec, len(points))
	for i, p := range points {
		out[i] = p.Anchor()
	}
	return out
}
