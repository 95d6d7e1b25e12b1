package store

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Store persists uploaded videos, their transcriptions and the prompt templates.
type Store interface {
	CreateVideo(ctx context.Context, name, path string) (models.Video, error)
	GetVideo(ctx context.Context, id string) (models.Video, error)
	SetTranscription(ctx context.Context, id, transcription string) error
	ListPrompts(ctx context.Context) ([]models.PromptTemplate, error)
	Close() error
}
