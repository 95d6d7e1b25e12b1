package ingest

import (
	"sync"

	"github.com/nguyentantai21042004/upload-ai/internal/converter"
	"github.com/nguyentantai21042004/upload-ai/internal/logger"
	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

// Orchestrator drives one video at a time through convert, upload and transcribe.
type Orchestrator struct {
	converter converter.Converter
	client    Uploader
	logger    logger.Logger

	// notifyMu keeps observer notifications in transition order
	notifyMu sync.Mutex

	mu                sync.Mutex
	video             *models.VideoAsset
	state             State
	run               uint64
	observers         []StateFunc
	progressObservers []ProgressFunc
}

// New creates an Orchestrator in the idle state
func New(conv converter.Converter, client Uploader, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		converter: conv,
		client:    client,
		logger:    log,
		state:     State{Stage: models.StageIdle},
	}
}
