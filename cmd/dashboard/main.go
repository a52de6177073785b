package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"gexdash/config"
	"gexdash/internal/dashboard/app"
	"gexdash/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// optional .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("failed to load .env: " + err.Error())
	}

	// viper config
	cfg, err := config.Load(os.Getenv("GEXDASH_CONFIG"))
	if err != nil {
		panic(err)
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to build dashboard", zap.Error(err))
	}
	if err := a.Run(ctx); err != nil {
		log.Fatal("dashboard stopped with error", zap.Error(err))
	}
}
