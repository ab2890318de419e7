package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/turbulence/config"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mode := flag.String("mode", "", "Aggregator: scatter or reference (empty = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for walk snapshots written at the last step")
	maxTime := flag.Float64("max-time", 0, "Last sampled time in seconds (0 = use config)")
	steps := flag.Int("steps", 0, "Number of time slices (0 = use config)")
	workers := flag.Int("workers", -1, "Sampling workers (-1 = use config, 0 = GOMAXPROCS)")
	logStats := flag.Bool("log-stats", false, "Output per-step field stats via slog")
	seed := flag.Int64("seed", 0, "Point placement seed (0 = use config)")
	explain := flag.String("explain", "", "Log how a query at \"x,y,z\" resolves, then exit")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *mode != "" {
		cfg.Sampling.Mode = *mode
	}
	if *maxTime > 0 {
		cfg.Sampling.EndTime = *maxTime
	}
	if *steps > 0 {
		cfg.Sampling.Steps = *steps
	}
	if *workers >= 0 {
		cfg.Sampling.Workers = *workers
	}
	if *seed != 0 {
		cfg.Points.Seed = *seed
	}
	if *logStats {
		cfg.Telemetry.LogStats = true
	}
	if err := cfg.Refresh(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	opts := runOptions{
		OutputDir:   *outputDir,
		SnapshotDir: *snapshotDir,
		Explain:     *explain,
	}
	if err := run(cfg, opts); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}
