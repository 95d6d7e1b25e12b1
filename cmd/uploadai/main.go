package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/nguyentantai21042004/upload-ai/internal/api"
	"github.com/nguyentantai21042004/upload-ai/internal/config"
	"github.com/nguyentantai21042004/upload-ai/internal/converter"
	"github.com/nguyentantai21042004/upload-ai/internal/engine"
	"github.com/nguyentantai21042004/upload-ai/internal/logger"
	"github.com/nguyentantai21042004/upload-ai/pkg/executor"
)

const usageText = `Usage: uploadai [-config path] <command> [flags]

Commands:
  ingest -prompt "keywords" <video>   convert, upload and transcribe a video
  prompts                             list the backend prompt templates
  complete -video <id> (-template <id> | -prompt <text>) [-temperature t] [-out file]
                                      stream a completion for an ingested video
  watch                               ingest every video dropped into paths.input
`

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// logs go to stderr, stdout carries command output
	log := logger.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Debug(ctx, "System: %s/%s, backend: %s", runtime.GOOS, runtime.GOARCH, cfg.API.BaseURL)

	command, args := flag.Arg(0), flag.Args()[1:]
	client := api.New(cfg.API, log)

	switch command {
	case "ingest":
		err = runIngest(ctx, cfg, client, newConverter(cfg, log), log, args)
	case "prompts":
		err = runPrompts(ctx, client)
	case "complete":
		err = runComplete(ctx, cfg, client, log, args)
	case "watch":
		err = runWatch(ctx, cfg, client, newConverter(cfg, log), log)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", command)
		flag.Usage()
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error(ctx, "%s failed: %s", command, logger.FormatError(err))
		os.Exit(1)
	}
}

// newConverter wires a converter whose ffmpeg engine is loaded on first use
func newConverter(cfg *config.Config, log logger.Logger) converter.Converter {
	exec := executor.New()
	return converter.New(cfg.FFmpeg, func(ctx context.Context) (engine.Engine, error) {
		return engine.New(ctx, cfg.FFmpeg, exec, log)
	}, log)
}
