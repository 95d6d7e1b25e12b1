package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/nguyentantai21042004/upload-ai/internal/config"
	"github.com/nguyentantai21042004/upload-ai/internal/logger"
	"github.com/nguyentantai21042004/upload-ai/pkg/executor"
)

type implFFmpeg struct {
	cfg      config.FFmpegConfig
	executor executor.Executor
	logger   logger.Logger
	dir      string
}

// New checks that ffmpeg is runnable and creates the engine's working directory.
func New(ctx context.Context, cfg config.FFmpegConfig, exec executor.Executor, log logger.Logger) (Engine, error) {
	out, err := exec.Execute(ctx, cfg.BinaryPath, "-hide_banner", "-version")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg unavailable: %w", err)
	}
	log.Debug(ctx, "FFmpeg detected: %s", firstLine(out))

	dir, err := os.MkdirTemp(cfg.WorkDir, "upload-ai-engine-*")
	if err != nil {
		return nil, fmt.Errorf("create engine work dir: %w", err)
	}
	log.Info(ctx, "Transcoding engine ready (work dir: %s)", dir)

	return &implFFmpeg{
		cfg:      cfg,
		executor: exec,
		logger:   log,
		dir:      dir,
	}, nil
}
