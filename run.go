package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/turbulence/config"
	"github.com/pthm-cable/turbulence/sampler"
	"github.com/pthm-cable/turbulence/scene"
	"github.com/pthm-cable/turbulence/telemetry"
)

type runOptions struct {
	OutputDir   string
	SnapshotDir string
	Explain     string
}

// run samples the configured field over the grid at every time slice.
func run(cfg *config.Config, opts runOptions) error {
	sc, err := scene.Build(cfg)
	if err != nil {
		return err
	}
	field, err := sc.Field(cfg.Sampling.Mode)
	if err != nil {
		return err
	}

	if opts.Explain != "" {
		pos, err := parseVec(opts.Explain)
		if err != nil {
			return err
		}
		info, err := field.Explain(pos)
		if err != nil {
			return err
		}
		slog.Info("explain", "position", opts.Explain, "mode", cfg.Sampling.Mode, "query", info)
		return nil
	}

	out, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	lo := vec(cfg.Points.BoundsMin)
	hi := vec(cfg.Points.BoundsMax)
	positions := sampler.Grid(lo, hi, cfg.Sampling.Resolution)
	times := sampler.Times(cfg.Sampling.StartTime, cfg.Sampling.EndTime, cfg.Sampling.Steps)

	s := sampler.New(cfg.Sampling.Workers)
	defer s.Close()
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)

	slog.Info("starting sampling run",
		"mode", cfg.Sampling.Mode,
		"points", cfg.Derived.PointCount,
		"positions", cfg.Derived.SampleCount,
		"steps", len(times),
		"time_delta", cfg.Derived.TimeDelta,
		"start_time", cfg.Sampling.StartTime,
		"end_time", cfg.Sampling.EndTime,
		"workers", s.Workers(),
		"output_dir", out.Dir(),
	)

	var prev []float64
	for step, t := range times {
		perf.StartStep()

		perf.StartPhase(telemetry.PhaseExtend)
		if err := field.Extend(t); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}

		perf.StartPhase(telemetry.PhaseQuery)
		values, err := s.Sample(field, positions, t)
		if err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}

		perf.StartPhase(telemetry.PhaseStats)
		stats := telemetry.ComputeFieldStats(step, t, values, prev)
		for _, p := range sc.Points {
			stats.WalkEnd = max(stats.WalkEnd, p.WalkEnd())
		}
		if cfg.Telemetry.LogStats {
			stats.LogStats()
		}

		perf.StartPhase(telemetry.PhaseOutput)
		if err := out.WriteSamples(step, t, positions, values); err != nil {
			return err
		}
		if err := out.WriteStats(stats); err != nil {
			return err
		}
		perf.EndStep(len(positions))

		if (step+1)%cfg.Telemetry.PerfWindow == 0 || step == len(times)-1 {
			ps := perf.Stats()
			if cfg.Telemetry.LogStats {
				ps.LogStats()
			}
			if err := out.WritePerf(ps, step); err != nil {
				return err
			}
		}
		prev = values
	}

	if opts.SnapshotDir != "" {
		last := len(times) - 1
		snap := telemetry.NewSnapshot(cfg.Points.Seed, last, times[last], sc.Points)
		path, err := telemetry.SaveSnapshot(snap, opts.SnapshotDir)
		if err != nil {
			return err
		}
		slog.Info("walk snapshot saved", "path", path)
	}

	slog.Info("sampling run complete", "steps", len(times))
	return nil
}

func vec(v config.Vec3) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// parseVec parses "x,y,z".
func parseVec(s string) (r3.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vec{}, fmt.Errorf("position %q: want x,y,z", s)
	}
	var c [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("position %q: %w", s, err)
		}
		c[i] = v
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}
