package converter

import (
	"context"

	"github.com/nguyentantai21042004/upload-ai/internal/engine"
	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

// Converter derives a compact audio track from a video.
type Converter interface {
	Convert(ctx context.Context, video models.VideoAsset, onProgress engine.ProgressFunc) (models.AudioAsset, error)
}

// EngineLoader constructs the transcoding engine on first use.
type EngineLoader func(ctx context.Context) (engine.Engine, error)
