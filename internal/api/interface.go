package api

import (
	"context"

	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

// Client talks to the upload-ai backend.
type Client interface {
	ListPrompts(ctx context.Context) ([]models.PromptTemplate, error)
	UploadAudio(ctx context.Context, audio models.AudioAsset) (string, error)
	CreateTranscription(ctx context.Context, videoID, prompt string) (string, error)
	Complete(ctx context.Context, req models.CompletionRequest) (Stream, error)
}

// Stream yields text fragments of an incrementally delivered response.
// Recv returns io.EOF once the response is fully consumed. A Stream is not restartable.
type Stream interface {
	Recv() (string, error)
	Close() error
}
