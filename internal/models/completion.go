package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TranscriptionPlaceholder is replaced server-side with the video transcription.
const TranscriptionPlaceholder = "{transcription}"

// CompletionRequest is built fresh for every completion submission and never mutated after sending.
type CompletionRequest struct {
	Prompt      string  `json:"prompt"`
	VideoID     string  `json:"videoId"`
	Temperature float64 `json:"temperature"`
}

func (r CompletionRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.New("prompt is required")
	}
	if strings.TrimSpace(r.VideoID) == "" {
		return errors.New("videoId is required")
	}
	if r.Temperature < 0 || r.Temperature > 1 {
		return fmt.Errorf("temperature must be within [0,1], got %v", r.Temperature)
	}
	return nil
}

// PromptTemplate is a reusable completion prompt offered by the backend.
type PromptTemplate struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Template string `json:"template"`
}

// Video is the backend record of an uploaded audio track.
type Video struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	Transcription string    `json:"transcription,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
