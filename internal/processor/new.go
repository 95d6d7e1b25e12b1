package processor

import (
	"github.com/nguyentantai21042004/upload-ai/internal/config"
	"github.com/nguyentantai21042004/upload-ai/internal/converter"
	"github.com/nguyentantai21042004/upload-ai/internal/ingest"
	"github.com/nguyentantai21042004/upload-ai/internal/logger"
)

type implProcessor struct {
	cfg       *config.Config
	converter converter.Converter
	client    ingest.Uploader
	logger    logger.Logger
}

// New creates a Processor that runs every file through its own ingestion orchestrator.
// conv is shared, so conversions stay serialised across files.
func New(cfg *config.Config, conv converter.Converter, client ingest.Uploader, log logger.Logger) Processor {
	return &implProcessor{
		cfg:       cfg,
		converter: conv,
		client:    client,
		logger:    log,
	}
}
