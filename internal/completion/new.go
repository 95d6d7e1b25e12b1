package completion

import (
	"strings"
	"sync"
	"time"

	"github.com/nguyentantai21042004/upload-ai/internal/config"
	"github.com/nguyentantai21042004/upload-ai/internal/logger"
)

// Consumer streams completions into a single buffer. The latest request wins:
// fragments from an older request are never applied once a newer one starts.
type Consumer struct {
	client    Completer
	logger    logger.Logger
	copyDelay time.Duration

	notifyMu sync.Mutex

	mu         sync.Mutex
	generation uint64
	buf        strings.Builder
	inProgress bool
	err        error
	copied     bool
	copyToken  uint64
	observers  []UpdateFunc
}

// New creates an idle Consumer
func New(client Completer, cfg config.CompletionConfig, log logger.Logger) *Consumer {
	delay := cfg.CopyAckDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	return &Consumer{
		client:    client,
		logger:    log,
		copyDelay: delay,
	}
}
