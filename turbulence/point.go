// Package turbulence synthesizes a time-varying scalar turbulence field from
// drifting turbulence points and blends them with two aggregation strategies.
package turbulence

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/turbulence/geom"
	"github.com/pthm-cable/turbulence/noise"
)

// PointConfig holds the parameters of a single turbulence point.
type PointConfig struct {
	Anchor    r3.Vec
	Magnitude noise.Field // Sampled at (coord+walk offset, coherence*time)
	Direction noise.Field // Polar angle of each walk step, radians
	Speed     noise.Field // Walk speed; each step moves -speed*TimeStep

	// Transform maps walk steps from sensor space into local space.
	// Only the linear part is applied. Zero value is the identity.
	Transform geom.Transform

	TimeStep      float64 // Walk keyframe spacing, must be > 0
	CoherenceRate float64 // Scales time into the extra noise dimension
}

// Point is a turbulence source whose noise sampling origin drifts over time
// along a lazily extended random walk.
//
// The walk is extended under a write lock and read under a read lock, so a
// Point may be queried from several goroutines. Callers that want lock-free
// reads in a parallel phase should run EnsureExtended to the largest time
// first; see package sampler.
type Point struct {
	anchor    r3.Vec
	magnitude noise.Field
	direction noise.Field
	speed     noise.Field
	toLocal   geom.Transform
	dt        float64
	coherence float64

	mu   sync.RWMutex
	walk walk
}

// NewPoint validates cfg and returns a point with an empty walk.
func NewPoint(cfg PointConfig) (*Point, error) {
	if !(cfg.TimeStep > 0) || math.IsInf(cfg.TimeStep, 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimeStep, cfg.TimeStep)
	}
	switch {
	case cfg.Magnitude == nil:
		return nil, fmt.Errorf("%w: magnitude", ErrMissingChannel)
	case cfg.Direction == nil:
		return nil, fmt.Errorf("%w: direction", ErrMissingChannel)
	case cfg.Speed == nil:
		return nil, fmt.Errorf("%w: speed", ErrMissingChannel)
	}

	return &Point{
		anchor:    cfg.Anchor,
		magnitude: cfg.Magnitude,
		direction: cfg.Direction,
		speed:     cfg.Speed,
		toLocal:   cfg.Transform,
		dt:        cfg.TimeStep,
		coherence: cfg.CoherenceRate,
		walk:      newWalk(),
	}, nil
}

// Anchor returns the point's fixed position.
func (p *Point) Anchor() r3.Vec { return p.anchor }

// TimeStep returns the walk keyframe spacing.
func (p *Point) TimeStep() float64 { return p.dt }

// CoherenceRate returns the time-to-noise scaling.
func (p *Point) CoherenceRate() float64 { return p.coherence }

// WalkEnd returns the time of the last recorded keyframe.
func (p *Point) WalkEnd() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.walk.last().Time
}

// Keyframes returns a copy of the recorded walk.
func (p *Point) Keyframes() []Keyframe {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.walk.snapshot()
}

// ExtendTimeline appends keyframes until the walk's last time exceeds
// newLimit. Existing keyframes are never rewritten.
func (p *Point) ExtendTimeline(newLimit float64) error {
	if math.IsNaN(newLimit) || math.IsInf(newLimit, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTime, newLimit)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extendLocked(newLimit)
	return nil
}

// EnsureExtended extends the walk only if t lies past the last keyframe.
// After it returns, SampleAt(_, t) reads a stable part of the history.
func (p *Point) EnsureExtended(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTime, t)
	}

	p.mu.RLock()
	covered := t <= p.walk.last().Time
	p.mu.RUnlock()
	if covered {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Another goroutine may have extended while we waited for the lock.
	if t > p.walk.last().Time {
		p.extendLocked(t)
	}
	return nil
}

func (p *Point) extendLocked(limit float64) {
	probe := make([]float64, 4)
	for last := p.walk.last(); last.Time <= limit; last = p.walk.last() {
		var speed, direction float64
		// The first step leaves the origin at rest.
		if last.Time > 0 {
			probe[0], probe[1], probe[2], probe[3] = p.anchor.X, p.anchor.Y, p.anchor.Z, last.Time
			direction = p.direction.GetVal(probe)
			speed = p.speed.GetVal(probe)
		}

		dist := -speed * p.dt
		sin, cos := math.Sincos(direction)
		step := p.toLocal.ApplyVector(r3.Vec{X: dist * cos, Y: dist * sin})

		// Times are multiples of dt rather than a running sum to avoid drift.
		p.walk.append(Keyframe{
			Time:   float64(p.walk.len()) * p.dt,
			Offset: r3.Add(last.Offset, step),
		})
	}
}

// SampleAt evaluates the magnitude channel at coord displaced by the walk
// offset at t. It never extends the walk; times past the last keyframe use
// the last offset.
func (p *Point) SampleAt(coord r3.Vec, t float64) float64 {
	p.mu.RLock()
	off := p.walk.at(t)
	p.mu.RUnlock()

	c := r3.Add(coord, off)
	return p.magnitude.GetVal([]float64{c.X, c.Y, c.Z, p.coherence * t})
}

// GetVal returns the field value of this point at (coord, t), extending the
// walk first if needed.
func (p *Point) GetVal(coord r3.Vec, t float64) (float64, error) {
	if err := p.EnsureExtended(t); err != nil {
		return 0, err
	}
	return p.SampleAt(coord, t), nil
}
