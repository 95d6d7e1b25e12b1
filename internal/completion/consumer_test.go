package completion

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nguyentantai21042004/upload-ai/internal/api"
	"github.com/nguyentantai21042004/upload-ai/internal/config"
	"github.com/nguyentantai21042004/upload-ai/internal/logger"
	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

// chanStream yields whatever is sent on ch, then err (or io.EOF) once ch is closed
type chanStream struct {
	ch     chan string
	err    error
	closed atomic.Bool
}

func newChanStream() *chanStream {
	return &chanStream{ch: make(chan string, 4)}
}

func (s *chanStream) Recv() (string, error) {
	frag, ok := <-s.ch
	if !ok {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	return frag, nil
}

func (s *chanStream) Close() error {
	s.closed.Store(true)
	return nil
}

// sliceStream yields frags then err (or io.EOF)
type sliceStream struct {
	frags []string
	err   error
}

func (s *sliceStream) Recv() (string, error) {
	if len(s.frags) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	frag := s.frags[0]
	s.frags = s.frags[1:]
	return frag, nil
}

func (s *sliceStream) Close() error { return nil }

// fakeCompleter hands out queued streams in order
type fakeCompleter struct {
	mu      sync.Mutex
	streams []api.Stream
	err     error
	started chan struct{}
	reqs    []models.CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req models.CompletionRequest) (api.Stream, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	var s api.Stream
	if len(f.streams) > 0 {
		s = f.streams[0]
		f.streams = f.streams[1:]
	}
	err := f.err
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func testRequest() models.CompletionRequest {
	return models.CompletionRequest{Prompt: "Title for: {transcription}", VideoID: "v1", Temperature: 0.5}
}

func TestRequestAccumulatesFragments(t *testing.T) {
	client := &fakeCompleter{streams: []api.Stream{&sliceStream{frags: []string{"Hello ", "World", "!"}}}}
	c := New(client, config.CompletionConfig{}, logger.Discard())

	var fragments []string
	c.Subscribe(func(u Update) {
		if u.Fragment != "" {
			fragments = append(fragments, u.Fragment)
		}
	})

	req := models.CompletionRequest{Prompt: "Title: {transcription}", VideoID: "v1", Temperature: 0.7}
	if err := c.Request(context.Background(), req); err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	if got := c.Text(); got != "Hello World!" {
		t.Errorf("Text() = %q, want %q", got, "Hello World!")
	}
	if c.InProgress() {
		t.Error("InProgress() = true after stream end")
	}
	if c.Err() != nil {
		t.Errorf("Err() = %v, want nil", c.Err())
	}
	if len(fragments) != 3 {
		t.Errorf("observed %d fragments, want 3", len(fragments))
	}
	if client.reqs[0] != req {
		t.Errorf("forwarded request = %+v", client.reqs[0])
	}
}

func TestRequestInvalid(t *testing.T) {
	client := &fakeCompleter{}
	c := New(client, config.CompletionConfig{}, logger.Discard())

	tests := []struct {
		name string
		req  models.CompletionRequest
	}{
		{"missing video id", models.CompletionRequest{Prompt: "p", Temperature: 0.5}},
		{"missing prompt", models.CompletionRequest{VideoID: "v1", Temperature: 0.5}},
		{"temperature out of range", models.CompletionRequest{Prompt: "p", VideoID: "v1", Temperature: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Request(context.Background(), tt.req); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	if len(client.reqs) != 0 {
		t.Errorf("sent %d requests, want 0", len(client.reqs))
	}
}

func TestRequestFailureKeepsPartialText(t *testing.T) {
	streamErr := errors.New("connection reset")

	tests := []struct {
		name     string
		client   *fakeCompleter
		wantText string
	}{
		{
			name:     "non-2xx response",
			client:   &fakeCompleter{err: &api.StatusError{StatusCode: 500, Body: "boom"}},
			wantText: "",
		},
		{
			name:     "stream broken mid-way",
			client:   &fakeCompleter{streams: []api.Stream{&sliceStream{frags: []string{"Hello "}, err: streamErr}}},
			wantText: "Hello ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.client, config.CompletionConfig{}, logger.Discard())

			err := c.Request(context.Background(), testRequest())
			if models.KindOf(err) != models.KindStream {
				t.Fatalf("Request() error = %v, want stream kind", err)
			}
			if c.InProgress() {
				t.Error("InProgress() = true after failure")
			}
			if got := c.Text(); got != tt.wantText {
				t.Errorf("Text() = %q, want %q", got, tt.wantText)
			}
			if models.KindOf(c.Err()) != models.KindStream {
				t.Errorf("Err() = %v, want stream kind", c.Err())
			}
		})
	}
}

func TestNewRequestClearsBuffer(t *testing.T) {
	second := newChanStream()
	client := &fakeCompleter{streams: []api.Stream{&sliceStream{frags: []string{"old text"}}, second}}
	c := New(client, config.CompletionConfig{}, logger.Discard())

	if err := c.Request(context.Background(), testRequest()); err != nil {
		t.Fatalf("first Request() error = %v", err)
	}

	client.started = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- c.Request(context.Background(), testRequest()) }()
	<-client.started

	if got := c.Text(); got != "" {
		t.Errorf("Text() = %q right after new request, want empty", got)
	}
	if !c.InProgress() {
		t.Error("InProgress() = false while streaming")
	}
	if _, err := c.Export(); !errors.Is(err, ErrInProgress) {
		t.Errorf("Export() error = %v, want ErrInProgress", err)
	}
	if _, err := c.Copy(); !errors.Is(err, ErrInProgress) {
		t.Errorf("Copy() error = %v, want ErrInProgress", err)
	}

	second.ch <- "new"
	close(second.ch)
	if err := <-done; err != nil {
		t.Fatalf("second Request() error = %v", err)
	}
	if got := c.Text(); got != "new" {
		t.Errorf("Text() = %q, want %q", got, "new")
	}
}

func TestLatestRequestWins(t *testing.T) {
	first := newChanStream()
	second := newChanStream()
	client := &fakeCompleter{streams: []api.Stream{first, second}, started: make(chan struct{}, 2)}
	c := New(client, config.CompletionConfig{}, logger.Discard())

	firstDone := make(chan error, 1)
	go func() { firstDone <- c.Request(context.Background(), testRequest()) }()
	<-client.started
	first.ch <- "A1"

	secondDone := make(chan error, 1)
	go func() { secondDone <- c.Request(context.Background(), testRequest()) }()
	<-client.started

	// the first stream keeps delivering after being overtaken
	first.ch <- "A2"
	if err := <-firstDone; !errors.Is(err, ErrSuperseded) {
		t.Errorf("first Request() error = %v, want ErrSuperseded", err)
	}
	if !first.closed.Load() {
		t.Error("superseded stream was not closed")
	}

	second.ch <- "B1"
	second.ch <- "B2"
	close(second.ch)
	if err := <-secondDone; err != nil {
		t.Fatalf("second Request() error = %v", err)
	}

	if got := c.Text(); got != "B1B2" {
		t.Errorf("Text() = %q, want %q", got, "B1B2")
	}
	if c.InProgress() {
		t.Error("InProgress() = true after latest stream ended")
	}
}

func TestCopyAcknowledgementClears(t *testing.T) {
	client := &fakeCompleter{streams: []api.Stream{&sliceStream{frags: []string{"Title"}}}}
	c := New(client, config.CompletionConfig{CopyAckDelay: 20 * time.Millisecond}, logger.Discard())

	if err := c.Request(context.Background(), testRequest()); err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	text, err := c.Copy()
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if text != "Title" {
		t.Errorf("Copy() = %q, want %q", text, "Title")
	}
	if !c.Copied() {
		t.Error("Copied() = false right after Copy")
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.Copied() {
		if time.Now().After(deadline) {
			t.Fatal("copied acknowledgement never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}

	exported, err := c.Export()
	if err != nil || exported != "Title" {
		t.Errorf("Export() = %q, %v", exported, err)
	}
}
