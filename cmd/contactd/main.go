package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/tcpcl/internal/config"
	"github.com/danmuck/tcpcl/internal/contactd"
	"github.com/danmuck/tcpcl/internal/observability"
	"github.com/rs/zerolog/log"
)

const defaultConfigPath = "cmd/contactd/config.toml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "contactd config path")
	flag.Parse()

	logger := observability.InitLogger("contactd", nil)
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load contactd config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := contactd.NewServer(cfg, logger)
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("contactd stopped")
	}
}

// loadConfig falls back to defaults when the default path does not exist.
func loadConfig(path string) (contactd.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			log.Info().Str("path", path).Msg("config not found, using defaults")
			return contactd.DefaultConfig(), nil
		}
	}
	cfg, err := config.LoadContactdConfig(path)
	if err != nil {
		return contactd.Config{}, err
	}
	log.Info().Str("path", path).Msg("loaded contactd config")
	return cfg, nil
}
