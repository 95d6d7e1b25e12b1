package converter

import (
	"sync"

	"github.com/nguyentantai21042004/upload-ai/internal/config"
	"github.com/nguyentantai21042004/upload-ai/internal/engine"
	"github.com/nguyentantai21042004/upload-ai/internal/logger"
)

type implConverter struct {
	cfg    config.FFmpegConfig
	load   EngineLoader
	logger logger.Logger

	// mu guards engine and serialises conversions
	mu     sync.Mutex
	engine engine.Engine
}

// New creates a Converter that initialises its engine lazily through load.
func New(cfg config.FFmpegConfig, load EngineLoader, log logger.Logger) Converter {
	return &implConverter{
		cfg:    cfg,
		load:   load,
		logger: log,
	}
}
