package llm

import (
	"context"
	"iter"
)

// Generator talks to the language model behind the backend.
type Generator interface {
	// Transcribe returns the text spoken in audio. prompt carries keywords that steer spelling.
	Transcribe(ctx context.Context, audio []byte, mimeType, prompt string) (string, error)
	// Stream yields completion fragments for prompt as the model produces them.
	Stream(ctx context.Context, prompt string, temperature float64) iter.Seq2[string, error]
}
