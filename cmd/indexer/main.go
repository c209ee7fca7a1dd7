package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	appconfig "github.com/wolfman30/salesforce-ai-backend/internal/config"
	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp(cfg, logger)).ExecuteContext(ctx); err != nil {
		logger.Error("indexer failed", "error", err)
		stop()
		os.Exit(1)
	}
}
