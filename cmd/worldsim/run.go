package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/WestonVincze/utility-ai/internal/agents"
	"github.com/WestonVincze/utility-ai/internal/api"
	"github.com/WestonVincze/utility-ai/internal/config"
	"github.com/WestonVincze/utility-ai/internal/engine"
	"github.com/WestonVincze/utility-ai/internal/persistence"
	"github.com/WestonVincze/utility-ai/internal/telemetry"
	"github.com/WestonVincze/utility-ai/internal/utility"
	"github.com/WestonVincze/utility-ai/internal/world"
)

func newRunCmd(a *app) *cobra.Command {
	var ticks uint64
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the survival world",
		Long: `Run the survival world. A saved world in the database is resumed;
otherwise a new map is generated and populated. The world is saved once per
sim-day and on shutdown.

With --ticks the world advances that many ticks as fast as possible and
exits. Without it the engine runs at the configured speed until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("seed") {
				cfg.Seed, _ = flags.GetInt64("seed")
			}
			if flags.Changed("agents") {
				cfg.Agents, _ = flags.GetInt("agents")
			}
			if flags.Changed("port") {
				cfg.Port, _ = flags.GetInt("port")
			}
			if flags.Changed("db") {
				cfg.DBPath, _ = flags.GetString("db")
			}
			if flags.Changed("speed") {
				cfg.Speed, _ = flags.GetFloat64("speed")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWorld(ctx, cfg, ticks, a.logger, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Uint64Var(&ticks, "ticks", 0, "advance this many ticks, then save and exit (0 runs until interrupted)")
	cmd.Flags().Int64("seed", 0, "world seed for a new world (0 picks one at random)")
	cmd.Flags().Int("agents", 0, "initial population of a new world")
	cmd.Flags().Int("port", 0, "HTTP API port (0 disables the API)")
	cmd.Flags().String("db", "", "SQLite database path")
	cmd.Flags().Float64("speed", 0, "tick speed multiplier (0 starts paused)")
	return cmd
}

// runWorld opens or creates the world described by cfg and runs it until ctx
// is done, or for ticks ticks when ticks > 0.
func runWorld(ctx context.Context, cfg config.SimConfig, ticks uint64, logger *slog.Logger, out io.Writer) error {
	if logger == nil {
		logger = slog.Default()
	}

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.DBPath)

	// ── World Map (regenerated from the saved seed on restore) ────────
	restoring := db.HasWorldState()
	gen := cfg.GenConfig()
	if restoring {
		seed, err := savedSeed(db)
		if err != nil {
			return err
		}
		gen.Seed = seed
	}
	worldMap := world.Generate(gen)
	for t, c := range world.TerrainCounts(worldMap) {
		logger.Debug("terrain", "type", t.String(), "count", c)
	}
	logger.Info("world map generated", "radius", worldMap.Radius, "hexes", worldMap.HexCount(), "seed", worldMap.Seed)

	// ── Load or Spawn Agents ──────────────────────────────────────────
	var population []*agents.Agent
	var startTick uint64
	spawner := agents.NewSpawner(worldMap.Seed)

	if restoring {
		if population, err = db.LoadAgents(); err != nil {
			return err
		}
		if err := db.LoadStocks(worldMap); err != nil {
			return err
		}
		if startTick, err = db.LastTick(); err != nil {
			return err
		}
		var maxID agents.AgentID
		for _, ag := range population {
			maxID = max(maxID, ag.ID)
		}
		spawner.SetNextID(maxID + 1)
		logger.Info("world restored", "agents", len(population), "tick", startTick, "sim_time", engine.SimTime(startTick))
	} else {
		population = spawner.SpawnPopulation(cfg.Agents, worldMap.LandCoords(), 0)
		if err := db.SaveMeta(persistence.MetaSeed, strconv.FormatInt(worldMap.Seed, 10)); err != nil {
			return err
		}
		logger.Info("world created", "agents", len(population))
	}

	// ── Decision Making ───────────────────────────────────────────────
	driver, err := newSurvivalDriver(cfg, worldMap, logger)
	if err != nil {
		return err
	}

	metrics := telemetry.NewMetrics()
	sim := engine.NewSimulation(worldMap, population, driver, worldMap.Seed)
	sim.Spawner = spawner
	sim.MinPopulation = cfg.MinPopulation
	sim.DecideEvery = cfg.DecideEvery
	sim.Workers = cfg.Workers
	sim.Observer = metrics
	sim.Logger = logger
	sim.SetLastTick(startTick)

	save := func(reason string) {
		id, err := db.SaveWorldState(sim.Snapshot())
		if err != nil {
			logger.Error("save failed", "reason", reason, "error", err)
			return
		}
		logger.Info("world saved", "reason", reason, "snapshot", id, "tick", sim.CurrentTick())
	}
	if !restoring {
		save("initial")
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Interval = cfg.TickInterval
	if err := eng.SetSpeed(cfg.Speed); err != nil {
		return err
	}
	eng.SetTick(startTick)
	sim.Attach(eng)
	eng.OnDay = func(tick uint64) {
		sim.TickDay(tick)
		save("daily")
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var srv *api.Server
	if cfg.Port > 0 {
		srv = &api.Server{
			Sim:      sim,
			Eng:      eng,
			DB:       db,
			Metrics:  metrics.Handler(),
			Port:     cfg.Port,
			AdminKey: cfg.AdminKey,
		}
		srv.Start()
	}

	// ── Run ───────────────────────────────────────────────────────────
	began := time.Now()
	if ticks > 0 {
		logger.Info("advancing", "ticks", ticks)
		eng.Steps(ticks)
	} else {
		logger.Info("simulation running", "speed", cfg.Speed, "interval", cfg.TickInterval)
		eng.Run(ctx)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown", "error", err)
		}
		cancel()
	}
	save("shutdown")

	printSummary(out, sim.Status(), startTick, time.Since(began))
	return nil
}

// savedSeed returns the map seed of the saved world. Worlds saved without one
// cannot be regenerated faithfully.
func savedSeed(db *persistence.DB) (int64, error) {
	v, err := db.GetMeta(persistence.MetaSeed)
	if errors.Is(err, persistence.ErrNoMeta) {
		return 0, fmt.Errorf("saved world has no map seed: %w", err)
	}
	if err != nil {
		return 0, err
	}
	seed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", persistence.MetaSeed, err)
	}
	return seed, nil
}

// newSurvivalDriver builds the reasoner (from cfg.Reasoner when set) and the
// map-aware action handlers.
func newSurvivalDriver(cfg config.SimConfig, m *world.Map, logger *slog.Logger) (*agents.Driver, error) {
	var reasoner *utility.Reasoner
	if cfg.Reasoner != "" {
		r, err := config.SurvivalCatalog().LoadReasoner(cfg.Reasoner, utility.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		reasoner = r
		logger.Info("reasoner loaded", "path", cfg.Reasoner, "considerations", len(r.Considerations()))
	} else {
		reasoner = agents.SurvivalReasoner(utility.WithLogger(logger))
	}

	reg := agents.NewRegistry()
	if err := agents.RegisterWorld(reg, m); err != nil {
		return nil, err
	}
	policy, err := cfg.FallbackPolicy()
	if err != nil {
		return nil, err
	}
	return &agents.Driver{Reasoner: reasoner, Registry: reg, Fallback: policy}, nil
}

func printSummary(w io.Writer, st engine.Status, startTick uint64, elapsed time.Duration) {
	fmt.Fprintf(w, "%s (tick %s, %s ticks this run in %s)\n",
		st.SimTime, humanize.Comma(int64(st.Tick)), humanize.Comma(int64(st.Tick-startTick)), elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "population %s alive of %s, %s deaths\n",
		humanize.Comma(int64(st.Stats.Alive)), humanize.Comma(int64(st.Stats.Population)), humanize.Comma(int64(st.Stats.Deaths)))
	fmt.Fprintf(w, "avg health %.2f  hunger %.1f  thirst %.1f  energy %.1f\n",
		st.Stats.AvgHealth, st.Stats.AvgHunger, st.Stats.AvgThirst, st.Stats.AvgEnergy)

	var decisions int
	for _, n := range st.Actions {
		decisions += n
	}
	fmt.Fprintf(w, "%s decisions, %s events\n", humanize.Comma(int64(decisions)), humanize.Comma(int64(st.Events)))
}
