package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yegors/ground-atc/internal/airport"
	"github.com/yegors/ground-atc/internal/api"
	"github.com/yegors/ground-atc/internal/clock"
	"github.com/yegors/ground-atc/internal/config"
	"github.com/yegors/ground-atc/internal/console"
	"github.com/yegors/ground-atc/internal/display"
	"github.com/yegors/ground-atc/internal/physics"
	"github.com/yegors/ground-atc/internal/simulation"
	"github.com/yegors/ground-atc/internal/storage/sqlite"
	"github.com/yegors/ground-atc/internal/websocket"
	"github.com/yegors/ground-atc/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

// defaultSimLogFile keeps log lines off the dashboard when no file is configured
const defaultSimLogFile = "logs/ground-atc.log"

func main() {
	simMode := flag.Bool("sim", false, "Run the simulator (default runs the command console)")
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg, *simMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *simMode {
		log.Info("Starting ground ATC simulator",
			logger.String("version", Version),
			logger.String("config_path", *configPath))
		err = runSimulator(ctx, cfg, log)
	} else {
		err = runConsole(ctx, cfg, log)
	}
	if err != nil {
		log.Error("Exiting with error", logger.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config, simMode bool) (*logger.Logger, error) {
	lc := logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}
	if simMode {
		lc.File = cfg.Logging.File
		if lc.File == "" && cfg.Display.Enabled {
			lc.File = defaultSimLogFile
		}
		if lc.File != "" {
			if err := os.MkdirAll(filepath.Dir(lc.File), 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
	}
	return logger.New(lc)
}

func runSimulator(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	ap, err := loadAirport(cfg)
	if err != nil {
		return err
	}
	log.Info("Airport loaded",
		logger.String("icao", ap.ICAO),
		logger.Int("runways", len(ap.RunwayIDs())),
		logger.Int("gates", len(ap.GateIDs())))

	journal, err := openJournal(cfg, log)
	if err != nil {
		return err
	}
	var history api.History
	var simJournal simulation.Journal
	if journal != nil {
		defer journal.Close()
		history, simJournal = journal, journal
	}

	sim := simulation.NewService(ap, simulationOptions(cfg), simJournal, log)
	if err := seed(sim, cfg); err != nil {
		return err
	}

	hub := websocket.NewServer(sim, websocket.Options{
		CommandsPerSecond: cfg.Server.CommandsPerSecond,
		CommandBurst:      cfg.Server.CommandBurst,
		AllowedOrigins:    cfg.Server.CORSAllowedOrigins,
	}, log)
	sim.AddPublisher(hub)

	router := api.NewRouter(api.NewHandler(sim, history, log), hub, api.RouterOptions{
		AllowedOrigins:    cfg.Server.CORSAllowedOrigins,
		CommandsPerSecond: cfg.Server.CommandsPerSecond,
		CommandBurst:      cfg.Server.CommandBurst,
	}, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	eg.Go(func() error {
		if err := sim.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		sim.Stop()
		return nil
	})

	eg.Go(func() error {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Display.Enabled {
		dash := display.New(sim, os.Stdout, display.Options{
			Refresh:     time.Duration(cfg.Display.RefreshMillis) * time.Millisecond,
			RadioLines:  cfg.Display.RadioLines,
			ClearScreen: cfg.Display.ClearScreen,
		}, log)
		eg.Go(func() error {
			return dash.Run(ctx)
		})
	}

	err = eg.Wait()
	log.Info("Simulator stopped")
	return err
}

func runConsole(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	c := console.New(console.Options{
		URL:     cfg.Console.ServerURL,
		Prompt:  cfg.Console.Prompt,
		Timeout: time.Duration(cfg.Console.TimeoutSeconds) * time.Second,
	}, os.Stdin, os.Stdout, log)
	return c.Run(ctx)
}

func loadAirport(cfg *config.Config) (*airport.Model, error) {
	if cfg.Airport.LayoutPath == "" {
		return airport.Default(), nil
	}
	ap, err := airport.LoadFile(cfg.Airport.LayoutPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load airport layout: %w", err)
	}
	return ap, nil
}

// openJournal returns nil when persistence is disabled
func openJournal(cfg *config.Config, log *logger.Logger) (*sqlite.JournalStorage, error) {
	if cfg.Storage.Type != "sqlite" {
		log.Info("Command journal disabled")
		return nil, nil
	}
	if err := os.MkdirAll(cfg.Storage.SQLiteBasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dbPath := filepath.Join(cfg.Storage.SQLiteBasePath,
		fmt.Sprintf("ground-atc-%s.db", time.Now().Format("2006-01-02")))
	journal, err := sqlite.NewJournalStorage(dbPath, cfg.Storage.MaxRowsInAPI, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return journal, nil
}

func simulationOptions(cfg *config.Config) simulation.Options {
	sc := cfg.Simulation
	return simulation.Options{
		Rates: clock.Rates{
			Pushback:   config.Seconds(sc.PushbackSeconds),
			Rollout:    config.Seconds(sc.RolloutSeconds),
			Approach:   config.Seconds(sc.ApproachSeconds),
			Turnaround: config.Seconds(sc.TurnaroundSeconds),
			TaxiSpeed:  sc.TaxiSpeedKts * physics.KnotsToMetresPerS,
		},
		Clock:        clock.New(cfg.TickPeriod(), sc.TimeScale),
		RadioLogSize: sc.RadioLogSize,
		Spawn: simulation.SpawnOptions{
			Enabled:     sc.SpawnArrivals,
			Interval:    config.Seconds(sc.SpawnIntervalSecs),
			MaxArrivals: sc.MaxArrivals,
			Seed:        sc.RandomSeed,
		},
		JournalBuffer: sc.JournalBufferSize,
	}
}

func seed(sim *simulation.Service, cfg *config.Config) error {
	for _, p := range cfg.Seed.Parked {
		if _, err := sim.AddAircraft(simulation.NewAircraft{Callsign: p.Callsign, Gate: p.Gate}); err != nil {
			return fmt.Errorf("failed to seed %s at gate %s: %w", p.Callsign, p.Gate, err)
		}
	}
	for _, a := range cfg.Seed.Arrivals {
		if _, err := sim.AddAircraft(simulation.NewAircraft{Callsign: a.Callsign, Runway: a.Runway}); err != nil {
			return fmt.Errorf("failed to seed arrival %s on runway %s: %w", a.Callsign, a.Runway, err)
		}
	}
	return nil
}
