package completion

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/upload-ai/internal/api"
	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

var (
	// ErrInProgress is returned by Export and Copy while a request is streaming.
	ErrInProgress = errors.New("completion in progress")
	// ErrSuperseded is returned by a request whose output was discarded for a newer one.
	ErrSuperseded = errors.New("completion superseded by a newer request")
)

// Completer starts a streamed completion.
type Completer interface {
	Complete(ctx context.Context, req models.CompletionRequest) (api.Stream, error)
}

// Update is published when a request starts, for every applied fragment, and when it settles.
type Update struct {
	Fragment   string
	Text       string
	InProgress bool
	Err        error
}

// UpdateFunc observes buffer changes. It is called synchronously and must not call Request.
type UpdateFunc func(Update)
