package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/upload-ai/internal/api"
	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

// Request resets the buffer and streams the completion for req into it, blocking until the
// stream ends. A request overtaken by a newer one stops reading, closes its stream and returns
// ErrSuperseded without touching the buffer. Text already appended is kept on failure.
func (c *Consumer) Request(ctx context.Context, req models.CompletionRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid completion request: %w", err)
	}

	gen := c.start()
	startTime := time.Now()
	c.logger.Info(ctx, "Completion #%d started (video %s, temperature %.2f)", gen, req.VideoID, req.Temperature)

	stream, err := c.client.Complete(ctx, req)
	if err != nil {
		return c.finish(ctx, gen, models.NewStageError(models.KindStream, err))
	}
	defer stream.Close()

	for frag, err := range api.Fragments(stream) {
		if err != nil {
			return c.finish(ctx, gen, models.NewStageError(models.KindStream, err))
		}
		if !c.apply(gen, frag) {
			c.logger.Debug(ctx, "Completion #%d superseded, dropping stream", gen)
			return ErrSuperseded
		}
	}

	if err := c.finish(ctx, gen, nil); err != nil {
		return err
	}
	c.logger.Info(ctx, "Completion #%d finished in %s", gen, time.Since(startTime))
	return nil
}

// Text returns the current buffer contents.
func (c *Consumer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// InProgress reports whether the latest request is still streaming.
func (c *Consumer) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inProgress
}

// Err returns the failure of the latest settled request.
func (c *Consumer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Export returns the buffer verbatim once no request is in progress.
func (c *Consumer) Export() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inProgress {
		return "", ErrInProgress
	}
	return c.buf.String(), nil
}

// Copy exports the buffer and raises the copied acknowledgement, which clears itself after the
// configured delay. Placing the text on a clipboard is up to the caller.
func (c *Consumer) Copy() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inProgress {
		return "", ErrInProgress
	}

	c.copied = true
	c.copyToken++
	token := c.copyToken
	time.AfterFunc(c.copyDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.copyToken == token {
			c.copied = false
		}
	})

	return c.buf.String(), nil
}

// Copied reports whether the copied acknowledgement is showing.
func (c *Consumer) Copied() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copied
}

// Subscribe registers fn for buffer updates.
func (c *Consumer) Subscribe(fn UpdateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// start opens a new generation with an empty buffer.
func (c *Consumer) start() uint64 {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.buf.Reset()
	c.inProgress = true
	c.err = nil
	observers := c.snapshotObservers()
	c.mu.Unlock()

	notify(observers, Update{InProgress: true})
	return gen
}

// apply appends frag if gen is still the latest generation.
func (c *Consumer) apply(gen uint64, frag string) bool {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	c.buf.WriteString(frag)
	update := Update{Fragment: frag, Text: c.buf.String(), InProgress: true}
	observers := c.snapshotObservers()
	c.mu.Unlock()

	notify(observers, update)
	return true
}

// finish settles gen with err unless a newer generation has started.
func (c *Consumer) finish(ctx context.Context, gen uint64, err error) error {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		if err != nil {
			c.logger.Debug(ctx, "Ignoring failure of superseded completion #%d: %v", gen, err)
		}
		return ErrSuperseded
	}
	c.inProgress = false
	c.err = err
	update := Update{Text: c.buf.String(), Err: err}
	observers := c.snapshotObservers()
	c.mu.Unlock()

	if err != nil {
		c.logger.Error(ctx, "Completion #%d failed: %v", gen, err)
	}
	notify(observers, update)
	return err
}

func (c *Consumer) snapshotObservers() []UpdateFunc {
	return append([]UpdateFunc(nil), c.observers...)
}

func notify(observers []UpdateFunc, update Update) {
	for _, fn := range observers {
		fn(update)
	}
}
