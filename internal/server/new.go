package server

import (
	"github.com/nguyentantai21042004/upload-ai/internal/config"
	"github.com/nguyentantai21042004/upload-ai/internal/llm"
	"github.com/nguyentantai21042004/upload-ai/internal/logger"
	"github.com/nguyentantai21042004/upload-ai/internal/store"
)

// Server is the HTTP backend that stores uploaded audio, transcribes it and streams completions.
type Server struct {
	cfg       config.ServerConfig
	store     store.Store
	generator llm.Generator
	logger    logger.Logger
}

// New creates a Server. cfg is expected to have passed config.Validate.
func New(cfg config.ServerConfig, st store.Store, gen llm.Generator, log logger.Logger) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		generator: gen,
		logger:    log,
	}
}
