package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/telestar/shopbot/bot/engine"
	"github.com/telestar/shopbot/bot/output"
	coreconfig "github.com/telestar/shopbot/core/config"
	coredatabase "github.com/telestar/shopbot/core/database"
	"github.com/telestar/shopbot/core/logger"
	coretelegram "github.com/telestar/shopbot/core/telegram"
	"github.com/telestar/shopbot/store"
)

const defaultConfigPath = "config.yaml"

// txStore adapts the concrete store to the engine's transaction surface.
type txStore struct {
	st *store.Store
}

func (s txStore) WithinTx(ctx context.Context, fn func(tx engine.Tx) error) error {
	return s.st.WithinTx(ctx, func(tx *store.Tx) error {
		return fn(tx)
	})
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("shopbot: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := coreconfig.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Dir:     cfg.Logging.Dir,
		File:    cfg.Logging.BotFile,
		Profile: cfg.Logging.Profile,
	}); err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	startedAt := time.Now()

	db, err := coredatabase.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}
	defer db.Close()

	if err := coredatabase.RunMigrations(cfg.Database); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := store.New(db)
	if err := st.Seed(ctx); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	renderer := output.NewRenderer(st, cfg.Shop.ButtonRowSize)
	eng := engine.New(
		txStore{st: st},
		renderer,
		engine.StaticOTP{Code: cfg.Shop.OTPCode},
		cfg.Shop.PayURL,
	)

	logger.L.With("component", "app").Info("app ready",
		slog.String("event", "ready"),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	err = coretelegram.Run(ctx, coretelegram.RunOptions{
		Config: cfg,
		Engine: eng,
	})

	logger.L.With("component", "app").Info("shutting down...",
		slog.String("event", "shutdown"),
	)
	return err
}
