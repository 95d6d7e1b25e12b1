package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"
)

const transcribePrompt = `Transcribe the speech in this audio exactly as spoken, in its original language.
Return only the transcription text, without timestamps or commentary.
Keep punctuation natural and spell these keywords as written: %s`

// Transcribe sends the audio inline to Gemini. Rotates API keys on 429 / quota errors.
func (g *implGemini) Transcribe(ctx context.Context, audio []byte, mimeType, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(fmt.Sprintf(transcribePrompt, prompt)),
			genai.NewPartFromBytes(audio, mimeType),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)}

	var lastErr error
	for range len(g.apiKeys) {
		client, keyIdx, err := g.client(ctx)
		if err != nil {
			lastErr = err
			g.rotateKey(keyIdx)
			continue
		}

		result, err := client.Models.GenerateContent(ctx, g.model, contents, cfg)
		if err != nil {
			if isRateLimited(err) {
				g.logger.Warn(ctx, "Key %d rate limited, rotating...", keyIdx+1)
				g.rotateKey(keyIdx)
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		text := strings.TrimSpace(responseText(result))
		if text == "" {
			return "", fmt.Errorf("empty response from Gemini")
		}
		return text, nil
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

// Stream yields fragments from Gemini's streaming endpoint. A rate-limited key is rotated
// only before the first fragment; once text has been yielded any error ends the sequence.
func (g *implGemini) Stream(ctx context.Context, prompt string, temperature float64) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		contents := genai.Text(prompt)
		cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(float32(temperature))}

		var lastErr error
		for range len(g.apiKeys) {
			client, keyIdx, err := g.client(ctx)
			if err != nil {
				lastErr = err
				g.rotateKey(keyIdx)
				continue
			}

			emitted, retry := false, false
			for resp, err := range client.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
				if err != nil {
					if !emitted && isRateLimited(err) {
						g.logger.Warn(ctx, "Key %d rate limited, rotating...", keyIdx+1)
						g.rotateKey(keyIdx)
						lastErr = err
						retry = true
						break
					}
					yield("", fmt.Errorf("generate content stream: %w", err))
					return
				}

				text := responseText(resp)
				if text == "" {
					continue
				}
				emitted = true
				if !yield(text, nil) {
					return
				}
			}
			if !retry {
				return
			}
		}

		yield("", fmt.Errorf("all API keys exhausted: %w", lastErr))
	}
}

// client builds a Gemini client for the current key and returns that key's index
func (g *implGemini) client(ctx context.Context) (*genai.Client, int, error) {
	g.mu.Lock()
	idx := g.currentKey
	key := g.apiKeys[idx]
	g.mu.Unlock()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      key,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: g.httpOpts,
	})
	if err != nil {
		return nil, idx, fmt.Errorf("create client: %w", err)
	}
	return client, idx, nil
}

// rotateKey advances past idx unless a concurrent caller already did
func (g *implGemini) rotateKey(idx int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentKey == idx {
		g.currentKey = (g.currentKey + 1) % len(g.apiKeys)
	}
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
