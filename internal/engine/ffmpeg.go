package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WriteInput stores data under name in the working directory, replacing any previous file.
func (e *implFFmpeg) WriteInput(name string, data []byte) error {
	path, err := e.path(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write input %s: %w", name, err)
	}
	return nil
}

// ReadOutput returns the contents of a file produced by Run.
func (e *implFFmpeg) ReadOutput(name string) ([]byte, error) {
	path, err := e.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read output %s: %w", name, err)
	}
	return data, nil
}

// Run executes ffmpeg inside the working directory with the given directive list.
// Progress is derived from ffmpeg's -progress output against the probed input duration.
func (e *implFFmpeg) Run(ctx context.Context, directives []string, onProgress ProgressFunc) error {
	if onProgress == nil {
		onProgress = func(int) {}
	}

	var duration float64
	if input := inputOf(directives); input != "" {
		d, err := e.probeDuration(ctx, input)
		if err != nil {
			e.logger.Debug(ctx, "Probe failed, progress disabled: %v", err)
		}
		duration = d
	}

	// -progress pipe:1 writes key=value lines to stdout
	args := []string{
		"-y",
		"-hide_banner",
		"-nostats",
		"-loglevel", "error",
		"-progress", "pipe:1",
	}
	args = append(args, directives...)

	e.logger.Debug(ctx, "FFmpeg command in dir %s: %s %s", e.dir, e.cfg.BinaryPath, strings.Join(args, " "))

	tracker := newProgressTracker(duration, onProgress)
	if err := e.executor.Stream(ctx, e.dir, e.cfg.BinaryPath, tracker.line, args...); err != nil {
		return fmt.Errorf("ffmpeg run: %w", err)
	}

	tracker.done()
	return nil
}

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// probeDuration returns the duration of a working-directory file in seconds
func (e *implFFmpeg) probeDuration(ctx context.Context, name string) (float64, error) {
	out, err := e.executor.ExecuteInDir(ctx, e.dir, e.cfg.ProbePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		name,
	)
	if err != nil {
		return 0, err
	}

	var result probeResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		return 0, fmt.Errorf("parse probe output: %w", err)
	}

	d, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", result.Format.Duration, err)
	}
	return d, nil
}

// path confines name to the working directory
func (e *implFFmpeg) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(e.dir, name), nil
}

// inputOf returns the argument following the first -i directive
func inputOf(directives []string) string {
	for i := 0; i < len(directives)-1; i++ {
		if directives[i] == "-i" {
			return directives[i+1]
		}
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
