package engine

import "context"

// ProgressFunc receives advisory conversion progress in percent (0-100)
type ProgressFunc func(pct int)

// Engine is a transcoding engine operating on a private working area of named files.
// It is not safe for concurrent Run calls.
type Engine interface {
	WriteInput(name string, data []byte) error
	Run(ctx context.Context, directives []string, onProgress ProgressFunc) error
	ReadOutput(name string) ([]byte, error)
}
