package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nguyentantai21042004/upload-ai/internal/ingest"
	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

// Process converts, uploads and transcribes videoPath with the default ingestion prompt.
// On success the video is moved to the output folder next to a receipt holding its video id.
func (p *implProcessor) Process(ctx context.Context, videoPath string) error {
	prompt := p.cfg.Ingest.DefaultPrompt
	if prompt == "" {
		return fmt.Errorf("ingest.default_prompt is not configured: %w", ingest.ErrNoPrompt)
	}

	startTime := time.Now()
	data, err := os.ReadFile(videoPath)
	if err != nil {
		return fmt.Errorf("read video: %w", err)
	}

	orch := ingest.New(p.converter, p.client, p.logger)
	orch.SubscribeProgress(p.progressLogger(ctx, filepath.Base(videoPath)))
	orch.Select(models.NewVideoAsset(filepath.Base(videoPath), data))

	if err := orch.Submit(ctx, prompt); err != nil {
		return err
	}
	state := orch.State()

	receiptPath, err := p.writeReceipt(ctx, videoPath, state)
	if err != nil {
		p.logger.Warn(ctx, "Failed to write receipt: %v", err)
	}

	if err := p.moveToOutput(ctx, videoPath); err != nil {
		p.logger.Warn(ctx, "Failed to move video to output folder: %v", err)
	}

	p.logger.Info(ctx, "Video %s ingested as %s (receipt: %s, total time: %s)",
		filepath.Base(videoPath), state.VideoID, receiptPath, time.Since(startTime))
	return nil
}

// progressLogger logs conversion progress in quarter steps
func (p *implProcessor) progressLogger(ctx context.Context, name string) ingest.ProgressFunc {
	last := -1
	return func(pct int) {
		if step := pct / 25; step > last {
			last = step
			p.logger.Info(ctx, "Converting %s: %d%%", name, pct)
		}
	}
}
