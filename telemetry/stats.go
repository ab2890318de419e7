// Package telemetry collects field statistics and step timing and writes
// them as CSV.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SampleRecord is one field evaluation written to samples.csv.
type SampleRecord struct {
	Step  int     `csv:"step"`
	Time  float64 `csv:"time"`
	X     float64 `csv:"x"`
	Y     float64 `csv:"y"`
	Z     float64 `csv:"z"`
	Value float64 `csv:"value"`
}

// FieldStats summarizes the field values sampled at one time.
type FieldStats struct {
	Step  int     `csv:"step"`
	Time  float64 `csv:"time"`
	Count int     `csv:"count"`

	Mean float64 `csv:"mean"`
	Std  float64 `csv:"std"` // Sample standard deviation, 0 for fewer than 2 values
	Min  float64 `csv:"min"`
	Max  float64 `csv:"max"`
	P10  float64 `csv:"p10"`
	P50  float64 `csv:"p50"`
	P90  float64 `csv:"p90"`

	// Change since the previous step at the same positions, 0 on the first.
	MeanAbsDelta float64 `csv:"mean_abs_delta"`

	// Longest turbulence point walk, in seconds of history.
	WalkEnd float64 `csv:"walk_end"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeFieldStats summarizes values. prev, when it has the same length,
// gives the values at the previous step for MeanAbsDelta.
func ComputeFieldStats(step int, t float64, values, prev []float64) FieldStats {
	s := FieldStats{Step: step, Time: t, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	if len(values) < 2 {
		s.Mean = values[0]
	} else {
		s.Mean, s.Std = stat.MeanStdDev(values, nil)
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	s.P10 = Percentile(sorted, 0.10)
	s.P50 = Percentile(sorted, 0.50)
	s.P90 = Percentile(sorted, 0.90)

	if len(prev) == len(values) {
		s.MeanAbsDelta = floats.Distance(values, prev, 1) / float64(len(values))
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s FieldStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("step", s.Step),
		slog.Float64("time", s.Time),
		slog.Int("count", s.Count),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
		slog.Float64("p10", s.P10),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
		slog.Float64("mean_abs_delta", s.MeanAbsDelta),
		slog.Float64("walk_end", s.WalkEnd),
	)
}

// LogStats logs the field stats using slog.
func (s FieldStats) LogStats() {
	slog.Info("stats",
		"step", s.Step,
		"time", s.Time,
		"count", s.Count,
		"mean", s.Mean,
		"std", s.Std,
		"min", s.Min,
		"max", s.Max,
		"p50", s.P50,
		"mean_abs_delta", s.MeanAbsDelta,
		"walk_end", s.WalkEnd,
	)
}
