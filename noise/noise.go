// Package noise provides deterministic scalar noise fields sampled at
// coordinate vectors of up to four dimensions.
package noise

import "errors"

var (
	// ErrInvalidParams is returned for out-of-range fBm parameters.
	ErrInvalidParams = errors.New("invalid noise parameters")
	// ErrUnknownBasis is returned for an unrecognized basis name.
	ErrUnknownBasis = errors.New("unknown noise basis")
	// ErrUnknownDistribution is returned for an unrecognized distribution kind.
	ErrUnknownDistribution = errors.New("unknown distribution")
)

// Field is a deterministic, continuous scalar function of a coordinate.
// Implementations must be safe for concurrent use.
type Field interface {
	GetVal(coord []float64) float64
}

// FieldFunc adapts an ordinary function to a Field.
type FieldFunc func(coord []float64) float64

// GetVal calls f(coord).
func (f FieldFunc) GetVal(coord []float64) float64 {
	return f(coord)
}

// Constant is a field with the same value everywhere.
type Constant float64

// GetVal returns c.
func (c Constant) GetVal([]float64) float64 {
	return float64(c)
}

// Basis is a single-octave gradient noise source.
// opensimplex.Noise satisfies it.
type Basis interface {
	Eval2(x, y float64) float64
	Eval3(x, y, z float64) float64
	Eval4(x, y, z, w float64) float64
}

// evalBasis samples b at coord scaled by freq. Coordinates with more than
// four components fold the extra components into the fourth.
func evalBasis(b Basis, coord []float64, freq float64) float64 {
	switch len(coord) {
	case 0:
		return b.Eval2(0, 0)
	case 1:
		return b.Eval2(coord[0]*freq, 0)
	case 2:
		return b.Eval2(coord[0]*freq, coord[1]*freq)
	case 3:
		return b.Eval3(coord[0]*freq, coord[1]*freq, coord[2]*freq)
	}
	w := coord[3]
	for _, extra := range coord[4:] {
		w += extra
	}
	return b.Eval4(coord[0]*freq, coord[1]*freq, coord[2]*freq, w*freq)
}
