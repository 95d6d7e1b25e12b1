package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/upload-ai/internal/ingest"
)

type receipt struct {
	VideoID    string    `json:"videoId"`
	RunID      string    `json:"runId"`
	Source     string    `json:"source"`
	IngestedAt time.Time `json:"ingestedAt"`
}

// writeReceipt records the backend video id of videoPath in the output folder
func (p *implProcessor) writeReceipt(ctx context.Context, videoPath string, state ingest.State) (string, error) {
	if err := os.MkdirAll(p.cfg.Paths.Output, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := filepath.Base(videoPath)
	path := filepath.Join(p.cfg.Paths.Output, strings.TrimSuffix(name, filepath.Ext(name))+".json")

	data, err := json.MarshalIndent(receipt{
		VideoID:    state.VideoID,
		RunID:      state.RunID,
		Source:     name,
		IngestedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}

	p.logger.Debug(ctx, "Receipt written: %s", path)
	return path, nil
}

// moveToOutput moves an ingested video out of the watched folder
func (p *implProcessor) moveToOutput(ctx context.Context, videoPath string) error {
	destPath := filepath.Join(p.cfg.Paths.Output, filepath.Base(videoPath))

	p.logger.Info(ctx, "Moving to output: %s -> %s", videoPath, destPath)

	if err := os.Rename(videoPath, destPath); err != nil {
		return fmt.Errorf("move to output: %w", err)
	}
	return nil
}
