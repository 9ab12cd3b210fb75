package main

import (
	"os"

	"lector-reader/internal/cli"
	"lector-reader/internal/config"
	"lector-reader/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.NewConfig()
	log := logger.NewLoggerTo(os.Stderr, cfg.GetLogLevel()).With("component", "cli")

	root := cli.NewRootCmd(cfg, log)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
