package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/soaringjerry/Solace/internal/log"
	"github.com/soaringjerry/Solace/internal/server"
)

func main() {
	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Default().WithError(err).Warn("could not load .env")
	}
	cfg := server.ConfigFromEnv()

	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(cfg.LogLevel)
	logCfg.Format = log.ParseFormat(cfg.LogFormat)
	logger := log.New(logCfg)
	log.SetDefault(logger)

	app, err := server.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("startup failed")
		os.Exit(1)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.Run(ctx); err != nil {
		logger.WithError(err).Error("server error")
		os.Exit(1)
	}
}
