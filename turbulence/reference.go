package turbulence

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/turbulence/smoothstep"
	"github.com/pthm-cable/turbulence/spatial"
)

// Category selects how a reference point resolves a query.
type Category int

const (
	// Default blends the referenced turbulence points by inverse distance.
	Default Category = iota
	// Interpolation blends two Default reference points along their segment.
	Interpolation
)

func (c Category) String() string {
	switch c {
	case Default:
		return "default"
	case Interpolation:
		return "interpolation"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ReferencePoint is a proxy position that resolves queries near it.
// For Default points Refs index the field's turbulence points; for
// Interpolation points Refs holds exactly two reference point indices.
type ReferencePoint struct {
	Position r3.Vec
	Category Category
	Refs     []int
}

// DefaultReference returns a Default reference point over the given
// turbulence point indices.
func DefaultReference(pos r3.Vec, turbulence ...int) ReferencePoint {
	return ReferencePoint{Position: pos, Category: Default, Refs: turbulence}
}

// InterpolationReference returns an Interpolation reference point between
// the reference points at indices from and to.
func InterpolationReference(pos r3.Vec, from, to int) ReferencePoint {
	return ReferencePoint{Position: pos, Category: Interpolation, Refs: []int{from, to}}
}

// ReferenceField resolves queries through the nearest reference point.
//
// Reference points live in an arena and refer to each other and to
// turbulence points by index. Setters validate the whole configuration and
// rebuild the index before replacing anything; they must not run
// concurrently with queries.
type ReferenceField struct {
	turbulence []*Point
	refs       []ReferencePoint
	index      *spatial.Index
	step       smoothstep.SmoothStep
}

// NewReferenceField builds a field. order selects the smoothstep polynomial
// used between interpolation endpoints.
func NewReferenceField(turbulence []*Point, refs []ReferencePoint, order int) (*ReferenceField, error) {
	step, err := smoothstep.New(order)
	if err != nil {
		return nil, fmt.Errorf("reference field: %w", err)
	}
	if err := checkPoints(turbulence); err != nil {
		return nil, fmt.Errorf("reference field: %w", err)
	}

	f := &ReferenceField{step: step}
	f.turbulence = make([]*Point, len(turbulence))
	copy(f.turbulence, turbulence)

	if err := f.SetReferencePoints(refs); err != nil {
		return nil, err
	}
	return f, nil
}

// SetReferencePoints validates refs against the current turbulence points,
// rebuilds the index and replaces the reference list. On error nothing
// changes.
func (f *ReferenceField) SetReferencePoints(refs []ReferencePoint) error {
	if err := validateReferences(refs, len(f.turbulence)); err != nil {
		return fmt.Errorf("reference field: %w", err)
	}

	positions := make([]r3.Vec, len(refs))
	for i, r := range refs {
		positions[i] = r.Position
	}
	index, err := spatial.New(positions)
	if err != nil {
		return fmt.Errorf("reference field: %w", err)
	}

	f.refs, f.index = copyReferences(refs), index
	return nil
}

// SetTurbulencePoints replaces the turbulence points. Existing reference
// points must still be valid for the new list.
func (f *ReferenceField) SetTurbulencePoints(points []*Point) error {
	if err := checkPoints(points); err != nil {
		return fmt.Errorf("reference field: %w", err)
	}
	if err := validateReferences(f.refs, len(points)); err != nil {
		return fmt.Errorf("reference field: %w", err)
	}

	own := make([]*Point, len(points))
	copy(own, points)
	f.turbulence = own
	return nil
}

// ReferencePoints returns a copy of the reference list.
func (f *ReferenceField) ReferencePoints() []ReferencePoint {
	return copyReferences(f.refs)
}

// TurbulencePoints returns a copy of the turbulence point list.
func (f *ReferenceField) TurbulencePoints() []*Point {
	out := make([]*Point, len(f.turbulence))
	copy(out, f.turbulence)
	return out
}

// SmoothStep returns the blending polynomial.
func (f *ReferenceField) SmoothStep() smoothstep.SmoothStep { return f.step }

// GetVal implements Field.
func (f *ReferenceField) GetVal(pos r3.Vec, t float64) (float64, error) {
	i, _, err := f.index.Nearest(pos)
	if err != nil {
		return 0, fmt.Errorf("reference field: %w", err)
	}

	r := f.refs[i]
	if r.Category == Default {
		return f.defaultVal(r, pos, t)
	}

	r0, r1 := f.refs[r.Refs[0]], f.refs[r.Refs[1]]
	v0, err := f.defaultVal(r0, pos, t)
	if err != nil {
		return 0, err
	}
	v1, err := f.defaultVal(r1, pos, t)
	if err != nil {
		return 0, err
	}

	w := f.step.Evaluate(projectFraction(pos, r0.Position, r1.Position))
	// Two-term form so w == 0 and w == 1 return v0 and v1 bit for bit.
	return (1-w)*v0 + w*v1, nil
}

// defaultVal blends all turbulence points referenced by r.
func (f *ReferenceField) defaultVal(r ReferencePoint, pos r3.Vec, t float64) (float64, error) {
	return blendInverseDistance(f.turbulence, r.Refs, f.distances(r.Refs, pos), pos, t)
}

func (f *ReferenceField) distances(ids []int, pos r3.Vec) []float64 {
	dists := make([]float64, len(ids))
	for i, id := range ids {
		dists[i] = r3.Norm(r3.Sub(f.turbulence[id].Anchor(), pos))
	}
	return dists
}

// GetVals implements Field.
func (f *ReferenceField) GetVals(positions []r3.Vec, t float64) ([]float64, error) {
	return getVals(f, positions, t)
}

// Explain implements Field.
func (f *ReferenceField) Explain(pos r3.Vec) (QueryInfo, error) {
	i, d, err := f.index.Nearest(pos)
	if err != nil {
		return QueryInfo{}, fmt.Errorf("reference field: %w", err)
	}

	r := f.refs[i]
	info := QueryInfo{Nearest: i, NearestDistance: d, Category: r.Category}
	if r.Category == Default {
		info.Contributors = append([]int(nil), r.Refs...)
		info.Distances = f.distances(r.Refs, pos)
		info.Weights, _ = inverseDistanceWeights(info.Distances)
		return info, nil
	}

	r0, r1 := f.refs[r.Refs[0]], f.refs[r.Refs[1]]
	info.Endpoints = [2]int{r.Refs[0], r.Refs[1]}
	info.Fraction = projectFraction(pos, r0.Position, r1.Position)
	info.Blend = f.step.Evaluate(info.Fraction)
	return info, nil
}

// Extend implements Field.
func (f *ReferenceField) Extend(t float64) error {
	return extendAll(f.turbulence, t)
}

// projectFraction returns where pos projects onto the line a->b, as a
// fraction of |ab|. The result is not clamped; the smoothstep clamps it.
func projectFraction(pos, a, b r3.Vec) float64 {
	ab := r3.Sub(b, a)
	return r3.Dot(r3.Sub(pos, a), ab) / r3.Dot(ab, ab)
}

func validateReferences(refs []ReferencePoint, numTurbulence int) error {
	if len(refs) == 0 {
		return spatial.ErrEmptyIndex
	}
	for i, r := range refs {
		switch r.Category {
		case Default:
			if len(r.Refs) == 0 {
				return fmt.Errorf("%w: reference %d", ErrNoReferences, i)
			}
			for _, id := range r.Refs {
				if id < 0 || id >= numTurbulence {
					return fmt.Errorf("%w: reference %d names turbulence point %d of %d", ErrReferenceRange, i, id, numTurbulence)
				}
			}
		case Interpolation:
			if len(r.Refs) != 2 {
				return fmt.Errorf("%w: reference %d has %d", ErrInterpolationArity, i, len(r.Refs))
			}
			for _, id := range r.Refs {
				if id < 0 || id >= len(refs) {
					return fmt.Errorf("%w: reference %d names reference point %d of %d", ErrReferenceRange, i, id, len(refs))
				}
				if refs[id].Category != Default {
					return fmt.Errorf("%w: reference %d endpoint %d is %s", ErrInterpolationTarget, i, id, refs[id].Category)
				}
			}
			if refs[r.Refs[0]].Position == refs[r.Refs[1]].Position {
				return fmt.Errorf("%w: reference %d", ErrDegenerateSegment, i)
			}
		default:
			return fmt.Errorf("%w: reference %d has %s", ErrUnknownCategory, i, r.Category)
		}
	}
	return nil
}

func copyReferences(refs []ReferencePoint) []ReferencePoint {
	out := make([]ReferencePoint, len(refs))
	for i, r := range refs {
		out[i] = ReferencePoint{
			Position: r.Position,
			Category: r.Category,
			Refs:     append([]int(nil), r.Refs...),
		}
	}
	return out
}
