package engine

import (
	"strconv"
	"strings"
)

// progressTracker turns ffmpeg -progress lines into percent callbacks, emitting only changes.
type progressTracker struct {
	duration   float64
	last       int
	onProgress ProgressFunc
}

func newProgressTracker(duration float64, onProgress ProgressFunc) *progressTracker {
	return &progressTracker{duration: duration, last: -1, onProgress: onProgress}
}

func (t *progressTracker) line(line string) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return
	}

	switch key {
	// out_time_ms is reported in microseconds despite its name
	case "out_time_ms", "out_time_us":
		if t.duration <= 0 {
			return
		}
		us, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return
		}
		t.emit(int(us / 1e6 / t.duration * 100))
	case "progress":
		if value == "end" {
			t.emit(100)
		}
	}
}

func (t *progressTracker) done() {
	t.emit(100)
}

func (t *progressTracker) emit(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if pct == t.last {
		return
	}
	t.last = pct
	t.onProgress(pct)
}
