// Command ecosimd serves a single simulated garden over HTTP.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/simulation"
	"github.com/pthm-cable/garden/telemetry"
	httpserver "github.com/pthm-cable/garden/server"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	addr := flag.String("addr", ":8080", "Listen address")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	logStats := flag.Bool("log-stats", false, "Output per-tick stats and alerts via slog")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	appLog := telemetry.NewAppLogger(logger)
	events := telemetry.NewRecorder()
	eco := simulation.New(cfg, simulation.Options{
		Seed:     rngSeed,
		Sink:     events,
		Log:      appLog,
		LogStats: *logStats,
	})
	eco.Seed()

	h := httpserver.NewHandler(eco, events, appLog)
	s := server.Default(server.WithHostPorts(*addr))
	h.RegisterRoutes(s)

	slog.Info("ecosimd listening", "addr", *addr, "seed", rngSeed, "garden", cfg.World.GardenStateID)
	s.Spin()
}
