package turbulence

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/turbulence/spatial"
)

// ScatterField blends the turbulence points around a query with
// inverse-distance weights.
//
// The point list and its spatial index are replaced together by SetPoints.
// SetPoints must not run concurrently with queries.
type ScatterField struct {
	points         []*Point
	index          *spatial.Index
	influenceRange float64
	maxPointCount  int
}

// NewScatterField builds a field over points. influenceRange <= 0 makes
// every query use only the nearest point; maxPointCount < 0 removes the cap
// on blended points.
func NewScatterField(points []*Point, influenceRange float64, maxPointCount int) (*ScatterField, error) {
	f := &ScatterField{
		influenceRange: influenceRange,
		maxPointCount:  maxPointCount,
	}
	if err := f.SetPoints(points); err != nil {
		return nil, err
	}
	return f, nil
}

// SetPoints replaces the point list and rebuilds the index. On error the
// previous list and index are kept.
func (f *ScatterField) SetPoints(points []*Point) error {
	if err := checkPoints(points); err != nil {
		return fmt.Errorf("scatter field: %w", err)
	}
	index, err := spatial.New(anchorsOf(points))
	if err != nil {
		return fmt.Errorf("scatter field: %w", err)
	}

	own := make([]*Point, len(points))
	copy(own, points)
	f.points, f.index = own, index
	return nil
}

// Points returns a copy of the point list.
func (f *ScatterField) Points() []*Point {
	out := make([]*Point, len(f.points))
	copy(out, f.points)
	return out
}

// InfluenceRange returns the blending radius.
func (f *ScatterField) InfluenceRange() float64 { return f.influenceRange }

// MaxPointCount returns the cap on blended points.
func (f *ScatterField) MaxPointCount() int { return f.maxPointCount }

// locate returns the points a query at pos blends, closest first.
func (f *ScatterField) locate(pos r3.Vec) ([]int, []float64, error) {
	if f.influenceRange > 0 {
		ids, dists, err := f.index.LocateNear(pos, f.influenceRange, f.maxPointCount)
		if err != nil {
			return nil, nil, err
		}
		if len(ids) > 0 {
			return ids, dists, nil
		}
	}

	id, d, err := f.index.Nearest(pos)
	if err != nil {
		return nil, nil, err
	}
	return []int{id}, []float64{d}, nil
}

// GetVal implements Field.
func (f *ScatterField) GetVal(pos r3.Vec, t float64) (float64, error) {
	ids, dists, err := f.locate(pos)
	if err != nil {
		return 0, fmt.Errorf("scatter field: %w", err)
	}
	// A single point, including the nearest-point fallback, passes through
	// unweighted.
	if len(ids) == 1 {
		return f.points[ids[0]].GetVal(pos, t)
	}
	return blendInverseDistance(f.points, ids, dists, pos, t)
}

// GetVals implements Field.
func (f *ScatterField) GetVals(positions []r3.Vec, t float64) ([]float64, error) {
	return getVals(f, positions, t)
}

// Explain implements Field.
func (f *ScatterField) Explain(pos r3.Vec) (QueryInfo, error) {
	ids, dists, err := f.locate(pos)
	if err != nil {
		return QueryInfo{}, fmt.Errorf("scatter field: %w", err)
	}
	weights, _ := inverseDistanceWeights(dists)
	return QueryInfo{
		Nearest:         ids[0],
		NearestDistance: dists[0],
		Category:        Default,
		Contributors:    ids,
		Distances:       dists,
		Weights:         weights,
	}, nil
}

// Extend implements Field.
func (f *ScatterField) Extend(t float64) error {
	return extendAll(f.points, t)
}
