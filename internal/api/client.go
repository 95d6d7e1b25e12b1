package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

// ErrMissingResourceID is returned when the upload response carries no video id.
var ErrMissingResourceID = errors.New("upload response has no video id")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// maxErrorBody bounds how much of a failed response is kept
const maxErrorBody = 4 << 10

type uploadResponse struct {
	Video struct {
		ID string `json:"id"`
	} `json:"video"`
}

type transcriptionRequest struct {
	Prompt string `json:"prompt"`
}

type transcriptionResponse struct {
	Transcription string `json:"transcription"`
}

// ListPrompts fetches the prompt templates offered by the backend.
func (c *implClient) ListPrompts(ctx context.Context) ([]models.PromptTemplate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/prompts", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var prompts []models.PromptTemplate
	if err := json.NewDecoder(resp.Body).Decode(&prompts); err != nil {
		return nil, fmt.Errorf("decode prompts: %w", err)
	}
	return prompts, nil
}

// UploadAudio posts the audio track as multipart field "file" and returns the server-assigned video id.
func (c *implClient) UploadAudio(ctx context.Context, audio models.AudioAsset) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(audio.Name)))
	header.Set("Content-Type", audio.MediaType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio.Data); err != nil {
		return "", fmt.Errorf("copy audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug(ctx, "Uploading %s (%d bytes) to %s", audio.Name, len(audio.Data), req.URL)

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrMissingResourceID, err)
	}
	if out.Video.ID == "" {
		return "", ErrMissingResourceID
	}

	return out.Video.ID, nil
}

// CreateTranscription asks the backend to transcribe an uploaded video, guided by prompt.
// Any 2xx is success; the transcription text is returned when the body carries one.
func (c *implClient) CreateTranscription(ctx context.Context, videoID, prompt string) (string, error) {
	endpoint := fmt.Sprintf("%s/videos/%s/transcription", c.baseURL, url.PathEscape(videoID))
	req, err := c.newJSONRequest(ctx, endpoint, transcriptionRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logger.Debug(ctx, "Transcription response has no JSON body: %v", err)
	}
	return out.Transcription, nil
}

// Complete starts a completion and returns the response as an incrementally decoded Stream.
// The caller must Close the stream.
func (c *implClient) Complete(ctx context.Context, in models.CompletionRequest) (Stream, error) {
	req, err := c.newJSONRequest(ctx, c.baseURL+"/ai/complete", in)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	return NewTextStream(resp.Body), nil
}

func (c *implClient) newJSONRequest(ctx context.Context, endpoint string, payload interface{}) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends req and turns non-2xx responses into a StatusError. On success the caller owns resp.Body.
func (c *implClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		})
	}

	return resp, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
