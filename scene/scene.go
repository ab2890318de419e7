// Package scene builds turbulence points and both aggregators from a Config.
package scene

import (
	"fmt"
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/turbulence/config"
	"github.com/pthm-cable/turbulence/geom"
	"github.com/pthm-cable/turbulence/noise"
	"github.com/pthm-cable/turbulence/spatial"
	"github.com/pthm-cable/turbulence/turbulence"
)

// seedStride separates per-point channel seeds when independent noise is on.
const seedStride = 7919

// Scene is a fully built field setup.
type Scene struct {
	Points     []*turbulence.Point
	References []turbulence.ReferencePoint
	Scatter    *turbulence.ScatterField
	Reference  *turbulence.ReferenceField
}

// Field returns the aggregator selected by mode.
func (s *Scene) Field(mode string) (turbulence.Field, error) {
	switch mode {
	case config.ModeScatter:
		return s.Scatter, nil
	case config.ModeReference:
		return s.Reference, nil
	}
	return nil, fmt.Errorf("%w: sampling.mode %q", config.ErrInvalidConfig, mode)
}

// Build creates points, the reference layout and both aggregators.
func Build(cfg *config.Config) (*Scene, error) {
	points, err := BuildPoints(cfg)
	if err != nil {
		return nil, err
	}

	scatter, err := turbulence.NewScatterField(points, cfg.Scatter.InfluenceRange, cfg.Scatter.MaxPointCount)
	if err != nil {
		return nil, err
	}

	refs, err := ReferenceLayout(anchors(points), cfg.Points, cfg.Reference)
	if err != nil {
		return nil, err
	}
	reference, err := turbulence.NewReferenceField(points, refs, cfg.Reference.SmoothStepOrder)
	if err != nil {
		return nil, err
	}

	slog.Info("scene built",
		"points", len(points),
		"references", len(refs),
		"basis", cfg.Noise.Basis,
		"influence_range", cfg.Scatter.InfluenceRange,
		"smoothstep_order", cfg.Reference.SmoothStepOrder,
	)

	return &Scene{
		Points:     points,
		References: refs,
		Scatter:    scatter,
		Reference:  reference,
	}, nil
}

// Channels are the three noise fields driving a turbulence point.
type Channels struct {
	Magnitude noise.Field
	Direction noise.Field
	Speed     noise.Field
}

// NewChannels builds the noise channels, adding seedOffset to every
// channel's seed.
func NewChannels(cfg config.NoiseConfig, seedOffset int64) (Channels, error) {
	mag, err := newChannel(cfg.Basis, cfg.Magnitude, seedOffset)
	if err != nil {
		return Channels{}, fmt.Errorf("magnitude channel: %w", err)
	}
	dir, err := newChannel(cfg.Basis, cfg.Direction, seedOffset)
	if err != nil {
		return Channels{}, fmt.Errorf("direction channel: %w", err)
	}
	speed, err := newChannel(cfg.Basis, cfg.Speed, seedOffset)
	if err != nil {
		return Channels{}, fmt.Errorf("speed channel: %w", err)
	}
	return Channels{Magnitude: mag, Direction: dir, Speed: speed}, nil
}

func newChannel(basis string, ch config.ChannelConfig, seedOffset int64) (*noise.FBM, error) {
	d := ch.Distribution
	dist, err := noise.NewDistribution(noise.DistributionSpec{
		Kind:       d.Kind,
		Min:        d.Min,
		Max:        d.Max,
		Rate:       d.Rate,
		Mu:         d.Mu,
		Sigma:      d.Sigma,
		BasisSigma: d.BasisSigma,
	})
	if err != nil {
		return nil, err
	}
	return noise.NewFBM(noise.Params{
		Seed:         ch.Seed + seedOffset,
		Basis:        basis,
		MinFreq:      ch.MinFreq,
		MaxFreq:      ch.MaxFreq,
		Hurst:        ch.Hurst,
		Lacunarity:   ch.Lacunarity,
		Gain:         ch.Gain,
		Offset:       ch.Offset,
		Distribution: dist,
	})
}

// WalkTransform returns the sensor-to-local transform: uniform scale, then
// rotation about Z.
func WalkTransform(cfg config.WalkConfig) geom.Transform {
	t := geom.Identity()
	if cfg.Scale != 0 && cfg.Scale != 1 {
		t = geom.Scaling(r3.Vec{X: cfg.Scale, Y: cfg.Scale, Z: cfg.Scale})
	}
	if cfg.RotationZ != 0 {
		t = geom.RotationZ(cfg.RotationZ).Compose(t)
	}
	return t
}

// Anchors returns the configured anchors, or Count uniformly random anchors
// inside the bounds drawn from Seed.
func Anchors(cfg config.PointsConfig) []r3.Vec {
	if len(cfg.Anchors) > 0 {
		out := make([]r3.Vec, len(cfg.Anchors))
		for i, a := range cfg.Anchors {
			out[i] = r3.Vec{X: a[0], Y: a[1], Z: a[2]}
		}
		return out
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	out := make([]r3.Vec, cfg.Count)
	for i := range out {
		var c [3]float64
		for axis := range c {
			c[axis] = cfg.BoundsMin[axis] + rng.Float64()*(cfg.BoundsMax[axis]-cfg.BoundsMin[axis])
		}
		out[i] = r3.Vec{X: c[0], Y: c[1], Z: c[2]}
	}
	return out
}

// BuildPoints creates one turbulence point per anchor.
func BuildPoints(cfg *config.Config) ([]*turbulence.Point, error) {
	transform := WalkTransform(cfg.Walk)

	shared, err := NewChannels(cfg.Noise, 0)
	if err != nil {
		return nil, err
	}

	anchors := Anchors(cfg.Points)
	points := make([]*turbulence.Point, len(anchors))
	for i, anchor := range anchors {
		ch := shared
		if cfg.Points.IndependentNoise && i > 0 {
			if ch, err = NewChannels(cfg.Noise, int64(i)*seedStride); err != nil {
				return nil, err
			}
		}

		p, err := turbulence.NewPoint(turbulence.PointConfig{
			Anchor:        anchor,
			Magnitude:     ch.Magnitude,
			Direction:     ch.Direction,
			Speed:         ch.Speed,
			Transform:     transform,
			TimeStep:      cfg.Walk.TimeStep,
			CoherenceRate: cfg.Walk.CoherenceRate,
		})
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		points[i] = p
	}
	return points, nil
}

// ReferenceLayout places Default reference points at the cell centres of a
// grid over the bounds, each referencing its nearest turbulence anchors. When
// interpolation is on, an Interpolation node sits at the midpoint of every
// pair of axis-adjacent Default nodes.
func ReferenceLayout(anchors []r3.Vec, bounds config.PointsConfig, cfg config.ReferenceConfig) ([]turbulence.ReferencePoint, error) {
	g := cfg.Grid
	for axis := 0; axis < 3; axis++ {
		if g[axis] < 1 || (g[axis] > 1 && bounds.BoundsMin[axis] == bounds.BoundsMax[axis]) {
			return nil, fmt.Errorf("reference layout: %w: grid[%d] = %d", config.ErrInvalidConfig, axis, g[axis])
		}
	}

	index, err := spatial.New(anchors)
	if err != nil {
		return nil, fmt.Errorf("reference layout: %w", err)
	}

	node := func(i, j, k int) int { return (i*g[1]+j)*g[2] + k }

	refs := make([]turbulence.ReferencePoint, 0, g[0]*g[1]*g[2])
	for i := 0; i < g[0]; i++ {
		for j := 0; j < g[1]; j++ {
			for k := 0; k < g[2]; k++ {
				pos := r3.Vec{
					X: cellCentre(bounds.BoundsMin[0], bounds.BoundsMax[0], i, g[0]),
					Y: cellCentre(bounds.BoundsMin[1], bounds.BoundsMax[1], j, g[1]),
					Z: cellCentre(bounds.BoundsMin[2], bounds.BoundsMax[2], k, g[2]),
				}
				ids, _, err := index.LocateNear(pos, 0, cfg.Neighbors)
				if err != nil {
					return nil, fmt.Errorf("reference layout: %w", err)
				}
				refs = append(refs, turbulence.DefaultReference(pos, ids...))
			}
		}
	}

	if !cfg.Interpolate {
		return refs, nil
	}

	link := func(a, b int) {
		mid := r3.Scale(0.5, r3.Add(refs[a].Position, refs[b].Position))
		refs = append(refs, turbulence.InterpolationReference(mid, a, b))
	}
	for i := 0; i < g[0]; i++ {
		for j := 0; j < g[1]; j++ {
			for k := 0; k < g[2]; k++ {
				if i+1 < g[0] {
					link(node(i, j, k), node(i+1, j, k))
				}
				if j+1 < g[1] {
					link(node(i, j, k), node(i, j+1, k))
				}
				if k+1 < g[2] {
					link(node(i, j, k), node(i, j, k+1))
				}
			}
		}
	}
	return refs, nil
}

func cellCentre(lo, hi float64, i, n int) float64 {
	return lo + (hi-lo)*(float64(i)+0.5)/float64(n)
}

func anchors(points []*turbulence.Point) []r3.Vec {
	out := make([]r3.Vec, len(points))
	for i, p := range points {
		out[i] = p.Anchor()
	}
	return out
}
