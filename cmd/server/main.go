package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nguyentantai21042004/upload-ai/internal/config"
	"github.com/nguyentantai21042004/upload-ai/internal/llm"
	"github.com/nguyentantai21042004/upload-ai/internal/logger"
	"github.com/nguyentantai21042004/upload-ai/internal/server"
	"github.com/nguyentantai21042004/upload-ai/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info(ctx, "========================================")
	log.Info(ctx, "upload-ai backend")
	log.Info(ctx, "Database: %s", cfg.Server.DatabasePath)
	log.Info(ctx, "Uploads: %s (max %d MB)", cfg.Server.UploadDir, cfg.Server.MaxUploadMB)
	log.Info(ctx, "Model: %s (%d API keys)", cfg.Gemini.Model, len(cfg.Gemini.APIKeys))
	log.Info(ctx, "========================================")

	st, err := store.NewSQLite(cfg.Server.DatabasePath)
	if err != nil {
		log.Error(ctx, "Failed to open database: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	gen, err := llm.New(cfg.Gemini, log)
	if err != nil {
		log.Error(ctx, "Failed to create generator: %v", err)
		os.Exit(1)
	}

	if err := server.New(cfg.Server, st, gen, log).ListenAndServe(ctx); err != nil {
		log.Error(ctx, "Server error: %s", logger.FormatError(err))
		os.Exit(1)
	}
	log.Info(ctx, "upload-ai backend stopped")
}
