package turbulence

import "errors"

var (
	ErrInvalidTimeStep     = errors.New("time step must be positive")
	ErrInvalidTime         = errors.New("query time must be finite")
	ErrMissingChannel      = errors.New("noise channel is nil")
	ErrNoPoints            = errors.New("no turbulence points")
	ErrNilPoint            = errors.New("nil turbulence point")
	ErrNoReferences        = errors.New("default reference point has no turbulence points")
	ErrInterpolationArity  = errors.New("interpolation reference point needs exactly 2 endpoints")
	ErrInterpolationTarget = errors.New("interpolation endpoint is not a default reference point")
	ErrReferenceRange      = errors.New("reference index out of range")
	ErrDegenerateSegment   = errors.New("interpolation endpoints coincide")
	ErrUnknownCategory     = errors.New("unknown reference category")
)
