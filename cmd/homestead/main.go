// Command homestead runs the farmstead village simulation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/homestead/internal/api"
	"github.com/talgya/homestead/internal/config"
	"github.com/talgya/homestead/internal/engine"
	"github.com/talgya/homestead/internal/persistence"
	"github.com/talgya/homestead/internal/world"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults apply when empty)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("homestead failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// ── Configuration ─────────────────────────────────────────────────
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	slog.Info("Homestead: farmstead village simulation", "seed", cfg.Seed)

	// ── Geography ─────────────────────────────────────────────────────
	var geo *world.Geography
	if cfg.Map.Path != "" {
		var err error
		if geo, err = world.LoadMap(cfg.Map.Path); err != nil {
			return err
		}
		slog.Info("map loaded", "path", cfg.Map.Path, "size", geo.String())
	} else {
		geo = world.Generate(cfg.GenConfig())
		slog.Info("map generated", "size", geo.String())
	}
	for cost, n := range world.CostCounts(geo) {
		slog.Debug("terrain", "cost", cost, "tiles", n)
	}

	// ── Population ────────────────────────────────────────────────────
	w, minds, err := engine.Populate(geo, cfg.PopulationConfig())
	if err != nil {
		return err
	}
	sim, err := engine.NewSimulation(w, minds, engine.Options{
		Workers: cfg.Engine.Workers,
		Seed:    cfg.Seed,
	})
	if err != nil {
		return err
	}
	slog.Info("world ready",
		"humans", len(w.Humans),
		"containers", len(w.Containers),
		"crops", len(w.Crops),
		"stores", w.Stores.Len(),
		"workers", sim.Workers(),
	)

	// ── Journal ───────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Storage.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
			return err
		}
		if db, err = persistence.Open(cfg.Storage.DBPath); err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.Storage.DBPath)

		meta := map[string]string{
			"seed":       strconv.FormatInt(cfg.Seed, 10),
			"map":        geo.String(),
			"population": strconv.Itoa(len(w.Humans)),
			"started_at": time.Now().UTC().Format(time.RFC3339),
		}
		for k, v := range meta {
			if err := db.SaveMeta(k, v); err != nil {
				return fmt.Errorf("save meta %s: %w", k, err)
			}
		}

		sim.OnEvents = func(events []engine.Event) {
			if err := db.SaveEvents(events); err != nil {
				slog.Error("event journal write failed", "error", err)
			}
		}
		sim.OnDay = func(r engine.DailyReport) {
			if err := db.SaveDailyReport(r); err != nil {
				slog.Error("daily report write failed", "day", r.Day, "error", err)
			}
		}
	}

	// ── Trace ─────────────────────────────────────────────────────────
	if cfg.Storage.TraceDir != "" {
		trace := persistence.NewTraceWriter(cfg.Storage.TraceDir, "homestead", cfg.Storage.TraceEvery)
		defer func() {
			if err := trace.Close(); err != nil {
				slog.Error("trace close failed", "error", err)
			}
		}()
		sim.OnTick = func(snap *engine.Snapshot) {
			if err := trace.WriteSnapshot(snap); err != nil {
				slog.Error("trace write failed", "tick", snap.Tick, "error", err)
			}
		}
		slog.Info("tracing enabled", "dir", cfg.Storage.TraceDir, "every", cfg.Storage.TraceEvery)
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(sim)
	eng.Interval = cfg.TickInterval()
	eng.UpdatesPerTick = cfg.Engine.UpdatesPerTick
	eng.SetSpeed(cfg.Engine.Speed)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.Port != 0 {
		if cfg.API.AdminKey == "" {
			slog.Warn(config.EnvAdminKey + " not set, admin POST endpoints will be disabled")
		}
		apiServer := &api.Server{
			Sim:      sim,
			Eng:      eng,
			DB:       db,
			Port:     cfg.API.Port,
			AdminKey: cfg.API.AdminKey,
		}
		apiServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := apiServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP shutdown failed", "error", err)
			}
		}()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	}

	// ── Start ─────────────────────────────────────────────────────────
	fmt.Printf("\nHomestead is alive: %d humans across %d farmsteads.\n", len(w.Humans), len(w.Crops))
	if cfg.Engine.MaxTicks > 0 {
		fmt.Printf("Running %s ticks headless...\n", humanize.Comma(int64(cfg.Engine.MaxTicks)))
		err = eng.RunTicks(ctx, cfg.Engine.MaxTicks)
	} else {
		fmt.Println("Starting simulation... (Ctrl+C to stop)")
		err = eng.Run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	stats := sim.Stats()
	slog.Info("simulation stopped",
		"tick", humanize.Comma(int64(w.Time.Ticks)),
		"date", w.Time.String(),
		"avg_hunger", fmt.Sprintf("%.1f", stats.AvgHunger),
		"food", humanize.Comma(int64(stats.Food)),
	)
	return nil
}
