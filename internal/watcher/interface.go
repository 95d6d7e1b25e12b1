package watcher

import "context"

// Watcher monitors a directory for new video files
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler ingests a newly created video file
type EventHandler func(ctx context.Context, filePath string) error
