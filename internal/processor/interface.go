package processor

import "context"

// Processor ingests a single video file from disk
type Processor interface {
	Process(ctx context.Context, videoPath string) error
}
