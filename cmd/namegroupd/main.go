// Package main provides the namegroup worker daemon entry point.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/thebtf/namegroup/docs" // OpenAPI registration for /swagger
	"github.com/thebtf/namegroup/internal/config"
	gormdb "github.com/thebtf/namegroup/internal/db/gorm"
	"github.com/thebtf/namegroup/internal/profiles"
	"github.com/thebtf/namegroup/internal/watcher"
	"github.com/thebtf/namegroup/internal/worker"
	"gorm.io/gorm/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Parse flags
	port := flag.Int("port", 0, "HTTP port (default: settings or 8420)")
	dataDir := flag.String("data-dir", "", "Data directory (default: ~/.namegroup)")
	dbPathFlag := flag.String("db", "", "SQLite database path (default: <data-dir>/namegroup.db)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Setup logging
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	// Ensure data directory and settings exist
	if err := config.EnsureDataDir(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directory")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	if *port > 0 {
		cfg.Port = *port
	}
	if *dataDir != "" {
		cfg.DBPath = *dataDir + "/namegroup.db"
	}
	if *dbPathFlag != "" {
		cfg.DBPath = *dbPathFlag
	}
	if *debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down worker")
		cancel()
	}()

	// Initialize database store (migrations run automatically)
	gormLogLevel := logger.Silent
	if cfg.Debug {
		gormLogLevel = logger.Warn
	}
	store, err := gormdb.NewStore(gormdb.Config{
		Driver:   cfg.DBDriver,
		Path:     cfg.DBPath,
		DSN:      cfg.DBDSN,
		MaxConns: cfg.MaxConns,
		LogLevel: gormLogLevel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer store.Close()

	// Load delimiter profiles
	registry, err := profiles.Load(config.ProfilesPath())
	if err != nil {
		log.Fatal().Err(err).Str("path", config.ProfilesPath()).Msg("Failed to load delimiter profiles")
	}

	// Start config file watchers
	startWatchers()

	// Create and run the worker service
	svc := worker.NewService(Version, cfg, store, registry)
	log.Info().
		Str("version", Version).
		Str("driver", cfg.DBDriver).
		Int("workers", cfg.Workers).
		Msg("Starting namegroup worker")

	if err := svc.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Worker error")
	}
}

// startWatchers exits the process when settings or profiles change so a
// supervisor restarts it with the new configuration.
func startWatchers() {
	for _, path := range []string{config.SettingsPath(), config.ProfilesPath()} {
		watchPath := path
		w, err := watcher.New(watchPath, func() {
			log.Warn().Str("path", watchPath).Msg("Configuration changed, exiting for restart...")
			time.Sleep(100 * time.Millisecond) // Give logs time to flush
			os.Exit(0)
		})
		if err != nil {
			log.Warn().Err(err).Str("path", watchPath).Msg("Failed to create config watcher")
			continue
		}
		if err := w.Start(); err != nil {
			log.Warn().Err(err).Str("path", watchPath).Msg("Failed to start config watcher")
			continue
		}
		log.Info().Str("path", watchPath).Msg("Config file watcher started")
	}
}
