package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/pathing/bench"
	"github.com/pthm-cable/pathing/config"
	"github.com/pthm-cable/pathing/mapdata"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mapPath := flag.String("map", "maps/arena.yaml", "Path to map YAML")
	logStats := flag.Bool("log-stats", false, "Output perf stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, -1 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = use config)")
	verbose := flag.Bool("verbose", false, "Log every blocking object change")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	rngSeed := *seed
	switch rngSeed {
	case 0:
		rngSeed = cfg.Bench.Seed
	case -1:
		rngSeed = time.Now().UnixNano()
	}

	ticks := cfg.Bench.Ticks
	if *maxTicks > 0 {
		ticks = *maxTicks
	}

	m, err := mapdata.Load(*mapPath)
	if err != nil {
		slog.Error("failed to load map", "path", *mapPath, "error", err)
		os.Exit(1)
	}

	r, err := bench.New(cfg, m, bench.Options{
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	}, logger)
	if err != nil {
		slog.Error("failed to start benchmark", "error", err)
		os.Exit(1)
	}

	slog.Info("starting headless churn",
		"map", m.Name,
		"seed", rngSeed,
		"max_ticks", ticks,
	)

	runErr := r.Run(ticks)
	if _, err := r.Close(); err != nil {
		slog.Error("failed to write output", "error", err)
	}
	if runErr != nil {
		slog.Error("grid invariant violated", "error", runErr)
		os.Exit(1)
	}
}
