package executor

import "context"

// LineFunc receives one line of a running command's stdout
type LineFunc func(line string)

// Executor defines the interface for executing external commands
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
	ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error)
	Stream(ctx context.Context, dir string, name string, onLine LineFunc, args ...string) error
}
