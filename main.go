package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/simulation"
	"github.com/pthm-cable/garden/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output per-tick stats and alerts via slog")
	logEvents := flag.Bool("log-events", false, "Also write every simulation event via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 1000, "Stop after N ticks")
	perfWindow := flag.Int("perf-window", 0, "Collect per-phase timings over N ticks (0 = off)")
	eventBuffer := flag.Int("event-buffer", 8192, "Events queued for the CSV writer before new ones are dropped")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	appLog := telemetry.NewAppLogger(logger)

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		appLog.Fatal("failed to create output directory", "error", err)
		os.Exit(1)
	}

	var sinks telemetry.MultiSink
	var async *telemetry.AsyncSink
	if output != nil {
		defer output.Close()
		if err := output.WriteConfig(cfg); err != nil {
			appLog.Fatal("failed to write config snapshot", "error", err)
			os.Exit(1)
		}
		async = telemetry.NewAsyncSink(output, *eventBuffer, appLog)
		sinks = append(sinks, async)
	}
	if *logEvents {
		sinks = append(sinks, telemetry.NewSlogSink(logger))
	}

	var perf *telemetry.PerfCollector
	if *perfWindow > 0 {
		perf = telemetry.NewPerfCollector(*perfWindow)
	}

	opts := simulation.Options{
		Seed:     rngSeed,
		Sink:     sinks,
		Log:      appLog,
		Perf:     perf,
		LogStats: *logStats,
	}
	if output != nil {
		opts.StatsCallback = func(s telemetry.TickStats) {
			if err := output.WriteTick(s); err != nil {
				appLog.Warn("failed to write tick stats", "tick", s.Tick, "error", err)
			}
		}
	}

	eco := simulation.New(cfg, opts)
	eco.Seed()

	slog.Info("starting headless simulation",
		"seed", rngSeed,
		"max_ticks", *maxTicks,
		"garden", cfg.World.GardenStateID,
	)

	var failures []error
	for i := 0; i < *maxTicks; i++ {
		res := eco.Step()
		if err := simulation.CheckSustainability(res.Summary, cfg.Sustainability); err != nil {
			failures = append(failures, err)
		}
		if res.Summary.TotalLiving == 0 {
			slog.Warn("ecosystem died out", "tick", res.Summary.Tick)
			break
		}
	}

	var dropped int64
	if async != nil {
		if err := async.Close(); err != nil {
			appLog.Warn("event sink did not drain", "error", err)
		}
		if dropped = async.Dropped(); dropped > 0 {
			appLog.Warn("events dropped from events.csv", "count", dropped, "event_buffer", *eventBuffer)
		}
	}
	if perf != nil {
		perf.Stats().LogStats()
	}

	final := eco.Summary()
	if len(failures) > 0 {
		slog.Warn("sustainability minimums violated",
			"ticks", len(failures),
			"first", failures[0].Error(),
			"margin", simulation.SustainabilityMargin(final, cfg.Sustainability),
		)
	}
	slog.Info("simulation finished", "summary", final, "environment", eco.Environment(), "events_dropped", dropped)
}
