package api

import (
	"net/http"
	"strings"

	"github.com/nguyentantai21042004/upload-ai/internal/config"
	"github.com/nguyentantai21042004/upload-ai/internal/logger"
)

type implClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// New creates a Client for the backend at cfg.BaseURL
func New(cfg config.APIConfig, log logger.Logger) Client {
	return &implClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout, // covers the whole streamed completion
		},
		logger: log,
	}
}
