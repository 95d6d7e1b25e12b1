package llm

import (
	"errors"
	"sync"

	"github.com/nguyentantai21042004/upload-ai/internal/config"
	"github.com/nguyentantai21042004/upload-ai/internal/logger"
	"google.golang.org/genai"
)

// ErrNoAPIKeys is returned by New when no Gemini key is configured.
var ErrNoAPIKeys = errors.New("no gemini API keys configured")

type implGemini struct {
	mu         sync.Mutex
	apiKeys    []string
	currentKey int
	logger     logger.Logger
	model      string
	httpOpts   genai.HTTPOptions
}

// New creates a Generator that rotates through the configured Gemini API keys.
func New(cfg config.GeminiConfig, log logger.Logger) (Generator, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, ErrNoAPIKeys
	}

	return &implGemini{
		apiKeys: append([]string(nil), cfg.APIKeys...),
		logger:  log,
		model:   cfg.Model,
	}, nil
}
