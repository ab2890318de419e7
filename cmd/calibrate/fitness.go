package main

import (
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/turbulence/config"
	"github.com/pthm-cable/turbulence/sampler"
	"github.com/pthm-cable/turbulence/scene"
)

// failedFitness is returned when a parameter vector cannot build a field.
const failedFitness = 1e9

// Measurement is the field statistics an evaluation is scored on.
type Measurement struct {
	Std       float64 // Standard deviation over probes
	Structure float64 // Mean |f(x+lag) - f(x)| along X
}

// FitnessEvaluator builds fields from parameter vectors and scores them
// against the calibration targets.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config
	probes     []r3.Vec
	shifted    []r3.Vec

	mu       sync.Mutex
	lastMeas Measurement
}

// NewFitnessEvaluator creates a new evaluator. Probe positions are drawn
// once so every evaluation sees the same sample set. baseCfg must come from
// config.Load or have been refreshed so its derived extent is set.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	cal := baseCfg.Calibrate
	rng := rand.New(rand.NewSource(baseCfg.Points.Seed))
	lo, ext := baseCfg.Points.BoundsMin, baseCfg.Derived.Extent

	probes := make([]r3.Vec, max(cal.Samples, 2))
	shifted := make([]r3.Vec, len(probes))
	for i := range probes {
		var c [3]float64
		for axis := range c {
			c[axis] = lo[axis] + rng.Float64()*ext[axis]
		}
		probes[i] = r3.Vec{X: c[0], Y: c[1], Z: c[2]}
		shifted[i] = r3.Add(probes[i], r3.Vec{X: cal.Lag})
	}

	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		baseConfig: baseCfg,
		probes:     probes,
		shifted:    shifted,
	}
}

// LastMeasurement returns the seed-averaged measurement from the most recent
// evaluation.
func (fe *FitnessEvaluator) LastMeasurement() Measurement {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMeas
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	meas Measurement
	err  error
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			seedCfg := *cfg
			seedCfg.Points.Seed = s
			m, err := fe.Measure(&seedCfg)
			results[idx] = seedResult{meas: m, err: err}
		}(i, seed)
	}
	wg.Wait()

	var avg Measurement
	for _, r := range results {
		if r.err != nil {
			return failedFitness
		}
		avg.Std += r.meas.Std
		avg.Structure += r.meas.Structure
	}
	n := float64(len(results))
	avg.Std /= n
	avg.Structure /= n

	fe.mu.Lock()
	fe.lastMeas = avg
	fe.mu.Unlock()

	return fe.computeFitness(avg)
}

// Measure builds the field described by cfg and measures it over the probe
// set at the configured start and end times.
func (fe *FitnessEvaluator) Measure(cfg *config.Config) (Measurement, error) {
	sc, err := scene.Build(cfg)
	if err != nil {
		return Measurement{}, err
	}
	field, err := sc.Field(cfg.Sampling.Mode)
	if err != nil {
		return Measurement{}, err
	}

	s := sampler.New(1)
	defer s.Close()

	var values, deltas []float64
	for _, t := range []float64{cfg.Sampling.StartTime, cfg.Sampling.EndTime} {
		base, err := s.Sample(field, fe.probes, t)
		if err != nil {
			return Measurement{}, err
		}
		moved, err := s.Sample(field, fe.shifted, t)
		if err != nil {
			return Measurement{}, err
		}
		values = append(values, base...)
		for i := range base {
			deltas = append(deltas, math.Abs(moved[i]-base[i]))
		}
	}

	return Measurement{
		Std:       stat.StdDev(values, nil),
		Structure: floats.Sum(deltas) / float64(len(deltas)),
	}, nil
}

// computeFitness is the sum of squared relative errors against the targets.
func (fe *FitnessEvaluator) computeFitness(m Measurement) float64 {
	cal := fe.baseConfig.Calibrate
	return relErr2(m.Std, cal.TargetStd) + relErr2(m.Structure, cal.TargetStructure)
}

// copyConfig creates a copy of the base config that evaluations may modify.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Points.Anchors = append([]config.Vec3(nil), fe.baseConfig.Points.Anchors...)
	return &cfg
}

func relErr2(got, want float64) float64 {
	scale := math.Max(math.Abs(want), 1e-9)
	d := (got - want) / scale
	return d * d
}
