package converter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/upload-ai/internal/engine"
	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

// Convert extracts the audio stream of video and re-encodes it at a low constant bitrate.
// Failures are returned as conversion StageErrors; nothing is retried.
func (c *implConverter) Convert(ctx context.Context, video models.VideoAsset, onProgress engine.ProgressFunc) (models.AudioAsset, error) {
	if len(video.Data) == 0 {
		return models.AudioAsset{}, models.NewStageError(models.KindConversion, errors.New("empty video"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	eng, err := c.engineLocked(ctx)
	if err != nil {
		return models.AudioAsset{}, models.NewStageError(models.KindConversion, err)
	}

	startTime := time.Now()
	c.logger.Info(ctx, "Converting %s (%d bytes) to %s audio", video.Name, len(video.Data), c.cfg.AudioBitrate)

	if err := eng.WriteInput(c.cfg.InputName, video.Data); err != nil {
		return models.AudioAsset{}, models.NewStageError(models.KindConversion, err)
	}

	// -map 0:a: audio stream only
	// -b:a: constant low bitrate, enough for speech recognition
	args := []string{
		"-i", c.cfg.InputName,
		"-map", "0:a",
		"-b:a", c.cfg.AudioBitrate,
		"-acodec", c.cfg.AudioCodec,
		c.cfg.OutputName,
	}

	if err := eng.Run(ctx, args, onProgress); err != nil {
		return models.AudioAsset{}, models.NewStageError(models.KindConversion, err)
	}

	data, err := eng.ReadOutput(c.cfg.OutputName)
	if err != nil {
		return models.AudioAsset{}, models.NewStageError(models.KindConversion, err)
	}
	if len(data) == 0 {
		return models.AudioAsset{}, models.NewStageError(models.KindConversion, errors.New("engine produced no audio"))
	}

	c.logger.Info(ctx, "Conversion finished: %d bytes in %s", len(data), time.Since(startTime))

	return models.AudioAsset{
		Name:      models.AudioFileName,
		MediaType: models.AudioMediaType,
		Data:      data,
	}, nil
}

// engineLocked returns the cached engine, loading it on first use.
// A failed load is not cached, so the next conversion tries again.
func (c *implConverter) engineLocked(ctx context.Context) (engine.Engine, error) {
	if c.engine != nil {
		return c.engine, nil
	}

	eng, err := c.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load engine: %w", err)
	}

	c.engine = eng
	return eng, nil
}
