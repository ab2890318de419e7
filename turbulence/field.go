package turbulence

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"
)

// Field is a queryable turbulence field.
type Field interface {
	// GetVal returns the field value at (pos, t).
	GetVal(pos r3.Vec, t float64) (float64, error)
	// GetVals maps GetVal over positions at a single time.
	GetVals(positions []r3.Vec, t float64) ([]float64, error)
	// Explain reports which indexed points a query at pos would use.
	Explain(pos r3.Vec) (QueryInfo, error)
	// Extend advances every owned turbulence point's walk to cover t.
	Extend(t float64) error
}

var (
	_ Field = (*ScatterField)(nil)
	_ Field = (*ReferenceField)(nil)
)

// QueryInfo describes how a query resolves. It is meant for validation and
// visualization; GetVal does not depend on it.
type QueryInfo struct {
	Nearest         int      // Index of the nearest indexed point
	NearestDistance float64  // Distance to it
	Category        Category // Category of the nearest point (Default for scatter fields)

	// Contributors are turbulence point indices blended for the query, with
	// their distances and normalized weights. Empty for interpolation nodes.
	Contributors []int
	Distances    []float64
	Weights      []float64

	// Interpolation only: endpoint reference indices, the unclamped
	// projection fraction and the smoothstep weight applied to the second.
	Endpoints [2]int
	Fraction  float64
	Blend     float64
}

// LogValue implements slog.LogValuer.
func (q QueryInfo) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("nearest", q.Nearest),
		slog.Float64("nearest_distance", q.NearestDistance),
		slog.String("category", q.Category.String()),
		slog.Int("contributors", len(q.Contributors)),
	}
	if q.Category == Interpolation {
		attrs = append(attrs,
			slog.Int("endpoint0", q.Endpoints[0]),
			slog.Int("endpoint1", q.Endpoints[1]),
			slog.Float64("fraction", q.Fraction),
			slog.Float64("blend", q.Blend),
		)
	}
	return slog.GroupValue(attrs...)
}

func getVals(f Field, positions []r3.Vec, t float64) ([]float64, error) {
	out := make([]float64, len(positions))
	for i, pos := range positions {
		v, err := f.GetVal(pos, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func extendAll(points []*Point, t float64) error {
	for _, p := range points {
		if err := p.EnsureExtended(t); err != nil {
			return err
		}
	}
	return nil
}

func checkPoints(points []*Point) error {
	if len(points) == 0 {
		return ErrNoPoints
	}
	for _, p := range points {
		if p == nil {
			return ErrNilPoint
		}
	}
	return nil
}
