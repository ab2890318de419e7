package noise

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultBasisSigma approximates the standard deviation of a normalized
// octave sum. It sets the scale of the normal CDF used to map raw noise
// onto (0,1) before a target quantile is taken.
const DefaultBasisSigma = 0.25

// Distribution kinds accepted by NewDistribution.
const (
	DistIdentity    = "identity"
	DistUniform     = "uniform"
	DistExponential = "exponential"
	DistLogNormal   = "lognormal"
)

// quantileClamp keeps probabilities away from 0 and 1 where unbounded
// quantiles diverge.
const quantileClamp = 1e-9

// Distribution is a monotonic non-decreasing map applied to raw noise.
type Distribution interface {
	Transform(v float64) float64
}

// Identity leaves values unchanged.
type Identity struct{}

// Transform returns v.
func (Identity) Transform(v float64) float64 { return v }

// Quantile pushes raw noise through a normal CDF and then through the
// quantile function of a target distribution.
type Quantile struct {
	source distuv.Normal
	target interface{ Quantile(p float64) float64 }
}

// Transform implements Distribution.
func (q Quantile) Transform(v float64) float64 {
	p := q.source.CDF(v)
	if p < quantileClamp {
		p = quantileClamp
	} else if p > 1-quantileClamp {
		p = 1 - quantileClamp
	}
	return q.target.Quantile(p)
}

// DistributionSpec describes a distribution by name and parameters.
type DistributionSpec struct {
	Kind       string
	Min, Max   float64 // uniform
	Rate       float64 // exponential
	Mu, Sigma  float64 // lognormal
	BasisSigma float64 // scale of the source normal; 0 means DefaultBasisSigma
}

// NewDistribution builds a Distribution from spec.
func NewDistribution(spec DistributionSpec) (Distribution, error) {
	basisSigma := spec.BasisSigma
	if basisSigma <= 0 {
		basisSigma = DefaultBasisSigma
	}
	source := distuv.Normal{Mu: 0, Sigma: basisSigma}

	switch spec.Kind {
	case "", DistIdentity:
		return Identity{}, nil
	case DistUniform:
		if spec.Max <= spec.Min {
			return nil, fmt.Errorf("%w: uniform range [%v, %v]", ErrInvalidParams, spec.Min, spec.Max)
		}
		return Quantile{source: source, target: distuv.Uniform{Min: spec.Min, Max: spec.Max}}, nil
	case DistExponential:
		if spec.Rate <= 0 {
			return nil, fmt.Errorf("%w: exponential rate %v", ErrInvalidParams, spec.Rate)
		}
		return Quantile{source: source, target: distuv.Exponential{Rate: spec.Rate}}, nil
	case DistLogNormal:
		if spec.Sigma <= 0 {
			return nil, fmt.Errorf("%w: lognormal sigma %v", ErrInvalidParams, spec.Sigma)
		}
		return Quantile{source: source, target: distuv.LogNormal{Mu: spec.Mu, Sigma: spec.Sigma}}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDistribution, spec.Kind)
}
