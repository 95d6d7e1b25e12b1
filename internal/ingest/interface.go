package ingest

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

var (
	// ErrNoVideo is returned by Submit when no video is selected.
	ErrNoVideo = errors.New("no video selected")
	// ErrNoPrompt is returned by Submit when the description prompt is empty.
	ErrNoPrompt = errors.New("description prompt is empty")
	// ErrRunInProgress is returned by Submit unless the state is idle or failed.
	ErrRunInProgress = errors.New("ingestion already in progress")
	// ErrSuperseded is returned by a run abandoned because another video was selected.
	ErrSuperseded = errors.New("ingestion run superseded by a new selection")
)

// Uploader is the part of the backend API an ingestion run needs.
type Uploader interface {
	UploadAudio(ctx context.Context, audio models.AudioAsset) (string, error)
	CreateTranscription(ctx context.Context, videoID, prompt string) (string, error)
}

// State is a snapshot of the ingestion state machine.
type State struct {
	Stage models.Stage
	// RunID identifies the run in logs; empty while idle
	RunID string
	// VideoID is the server resource id, set once the upload succeeds
	VideoID string
	Err     error
}

// Kind returns the failure category, or KindNone.
func (s State) Kind() models.ErrorKind {
	return models.KindOf(s.Err)
}

// StateFunc observes state changes. It is called synchronously and must not call Select or Submit.
type StateFunc func(State)

// ProgressFunc observes advisory conversion progress in percent.
type ProgressFunc func(pct int)
