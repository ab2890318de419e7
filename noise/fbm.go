package noise

import (
	"fmt"
	"math"

	"github.com/ojrac/opensimplex-go"
)

// Basis names accepted by Params.Basis.
const (
	BasisSimplex = "simplex"
	BasisPerlin  = "perlin"
)

// Params configures a fractional Brownian motion field.
type Params struct {
	Seed       int64
	Basis      string  // "simplex" (default) or "perlin"
	MinFreq    float64 // Lowest octave frequency
	MaxFreq    float64 // Highest octave frequency (inclusive)
	Hurst      float64 // Octave amplitude falls off as freq^-Hurst
	Lacunarity float64 // Frequency ratio between octaves
	Gain       float64 // Output scale applied after the distribution
	Offset     float64 // Output offset applied after the gain

	// Distribution maps the normalized octave sum monotonically onto the
	// target value distribution. Nil means Identity.
	Distribution Distribution
}

// FBM sums octaves of a basis noise between MinFreq and MaxFreq.
type FBM struct {
	params Params
	basis  Basis
	freqs  []float64
	amps   []float64
	norm   float64
}

// NewFBM validates p and precomputes the octave table.
func NewFBM(p Params) (*FBM, error) {
	// Negated comparisons also reject NaN.
	if !(p.MinFreq > 0) || !(p.MaxFreq >= p.MinFreq) || math.IsInf(p.MaxFreq, 1) {
		return nil, fmt.Errorf("%w: frequency range [%v, %v]", ErrInvalidParams, p.MinFreq, p.MaxFreq)
	}
	if !(p.Lacunarity > 1) || math.IsInf(p.Lacunarity, 1) {
		return nil, fmt.Errorf("%w: lacunarity %v must exceed 1", ErrInvalidParams, p.Lacunarity)
	}
	if math.IsNaN(p.Hurst) || math.IsInf(p.Hurst, 0) {
		return nil, fmt.Errorf("%w: hurst %v", ErrInvalidParams, p.Hurst)
	}
	if p.Distribution == nil {
		p.Distribution = Identity{}
	}

	var basis Basis
	switch p.Basis {
	case "", BasisSimplex:
		basis = opensimplex.New(p.Seed)
	case BasisPerlin:
		basis = NewPerlin(p.Seed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBasis, p.Basis)
	}

	f := &FBM{params: p, basis: basis}

	// Small slack so a MaxFreq that is an exact power of the lacunarity is
	// not lost to rounding.
	top := p.MaxFreq * (1 + 1e-9)
	var sumSq float64
	for freq := p.MinFreq; freq <= top; freq *= p.Lacunarity {
		amp := math.Pow(freq, -p.Hurst)
		f.freqs = append(f.freqs, freq)
		f.amps = append(f.amps, amp)
		sumSq += amp * amp
	}
	f.norm = 1 / math.Sqrt(sumSq)

	return f, nil
}

// Octaves returns the number of octaves summed.
func (f *FBM) Octaves() int {
	return len(f.freqs)
}

// Params returns the parameters the field was built with.
func (f *FBM) Params() Params {
	return f.params
}

// Raw returns the normalized octave sum before the distribution transform.
func (f *FBM) Raw(coord []float64) float64 {
	var sum float64
	for i, freq := range f.freqs {
		sum += f.amps[i] * evalBasis(f.basis, coord, freq)
	}
	return sum * f.norm
}

// GetVal implements Field.
func (f *FBM) GetVal(coord []float64) float64 {
	return f.params.Offset + f.params.Gain*f.params.Distribution.Transform(f.Raw(coord))
}
