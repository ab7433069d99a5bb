package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/quantumlife/analytics"
	"github.com/pthm-cable/quantumlife/config"
	"github.com/pthm-cable/quantumlife/engine"
	"github.com/pthm-cable/quantumlife/worldgen"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	generations := flag.Int("generations", 1000, "Number of generations to simulate")
	outputDir := flag.String("output-dir", "", "Output directory for CSV stats and config snapshot")
	archivePath := flag.String("archive", "", "SQLite file to archive the run into (empty = disabled)")
	logEvery := flag.Int("log-every", 0, "Generations between stats log lines (0 = use config)")
	emptyStart := flag.Bool("empty", false, "Start from an empty grid instead of noise seeding")
	noEvents := flag.Bool("no-events", false, "Disable the probabilistic event scheduler")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *noEvents {
		cfg.Events.Scheduler = false
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logInterval := cfg.Telemetry.LogEvery
	if *logEvery > 0 {
		logInterval = *logEvery
	}

	eng, err := engine.New(engine.Options{Config: cfg, Seed: rngSeed})
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	if !*emptyStart {
		if err := worldgen.Populate(eng, cfg, rngSeed); err != nil {
			slog.Error("failed to seed world", "error", err)
			os.Exit(1)
		}
	}

	output, err := analytics.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var archive *analytics.Archive
	if *archivePath != "" {
		archive = analytics.NewArchive(*archivePath)
		if err := archive.Init(ctx); err != nil {
			slog.Error("failed to open archive", "error", err)
			os.Exit(1)
		}
		defer archive.Close()

		cfgYAML, err := yaml.Marshal(cfg)
		if err != nil {
			slog.Error("failed to marshal config for archive", "error", err)
			os.Exit(1)
		}
		runID, err := archive.BeginRun(ctx, rngSeed, cfgYAML)
		if err != nil {
			slog.Error("failed to begin archived run", "error", err)
			os.Exit(1)
		}
		slog.Info("archiving run", "run_id", runID, "path", *archivePath)
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"width", eng.Width(),
		"height", eng.Height(),
		"generations", *generations,
		"initial_population", eng.Snapshot().CountLive(),
	)

	start := time.Now()
	for i := 0; i < *generations; i++ {
		stats, err := eng.Step()
		if err != nil {
			slog.Error("step failed", "generation", eng.Generation(), "error", err)
			os.Exit(1)
		}

		if logInterval > 0 && stats.Generation%logInterval == 0 {
			slog.Info("stats", "generation_stats", stats)
		}
		if err := output.WriteStats(stats); err != nil {
			slog.Error("failed to write stats", "error", err)
			os.Exit(1)
		}
		if archive != nil {
			if err := archive.RecordGeneration(ctx, stats); err != nil {
				slog.Error("failed to archive stats", "error", err)
				os.Exit(1)
			}
		}
	}
	elapsed := time.Since(start)

	cells := int64(eng.Width()) * int64(eng.Height()) * int64(*generations)
	perSec := float64(*generations) / elapsed.Seconds()
	summary := []any{
		"generations", humanize.Comma(int64(eng.Generation())),
		"cells_evaluated", humanize.Comma(cells),
		"elapsed", elapsed.Round(time.Millisecond).String(),
		"gens_per_sec", perSec,
		"final_population", eng.Snapshot().CountLive(),
	}
	if history := eng.History(); len(history) > 0 {
		last := history[len(history)-1]
		summary = append(summary,
			"diversity", last.Diversity,
			"entropy", last.Entropy,
			"stability", string(last.Stability),
		)
	}
	if patterns := eng.Patterns(); len(patterns) > 0 {
		summary = append(summary, "patterns", patterns)
	}
	slog.Info("simulation complete", summary...)
}
