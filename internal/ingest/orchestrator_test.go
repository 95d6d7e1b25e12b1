package ingest

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nguyentantai21042004/upload-ai/internal/api"
	"github.com/nguyentantai21042004/upload-ai/internal/config"
	"github.com/nguyentantai21042004/upload-ai/internal/engine"
	"github.com/nguyentantai21042004/upload-ai/internal/logger"
	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

type fakeConverter struct {
	audio   models.AudioAsset
	err     error
	started chan struct{}
	gate    chan struct{}
	calls   atomic.Int32
}

func (f *fakeConverter) Convert(ctx context.Context, video models.VideoAsset, onProgress engine.ProgressFunc) (models.AudioAsset, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if onProgress != nil {
		onProgress(100)
	}
	return f.audio, f.err
}

type fakeUploader struct {
	mu            sync.Mutex
	videoID       string
	uploadErr     error
	transcribeErr error
	uploads       int
	prompts       []string
}

func (f *fakeUploader) UploadAudio(ctx context.Context, audio models.AudioAsset) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	return f.videoID, f.uploadErr
}

func (f *fakeUploader) CreateTranscription(ctx context.Context, videoID, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return "", f.transcribeErr
}

// stageRecorder collects published stages in order
type stageRecorder struct {
	mu     sync.Mutex
	stages []models.Stage
}

func (r *stageRecorder) observe(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, s.Stage)
}

func (r *stageRecorder) get() []models.Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Stage(nil), r.stages...)
}

func testVideo() models.VideoAsset {
	return models.VideoAsset{Name: "talk.mp4", MediaType: "video/mp4", Data: bytes.Repeat([]byte{1}, 10<<20)}
}

func testAudio() models.AudioAsset {
	return models.AudioAsset{Name: models.AudioFileName, MediaType: models.AudioMediaType, Data: bytes.Repeat([]byte{2}, 50<<10)}
}

func TestSubmitSucceeds(t *testing.T) {
	conv := &fakeConverter{audio: testAudio()}
	up := &fakeUploader{videoID: "v1"}
	o := New(conv, up, logger.Discard())

	rec := &stageRecorder{}
	o.Subscribe(rec.observe)
	var progress []int
	o.SubscribeProgress(func(p int) { progress = append(progress, p) })

	o.Select(testVideo())
	if err := o.Submit(context.Background(), "keywords, here"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := []models.Stage{
		models.StageIdle,
		models.StageConverting,
		models.StageUploading,
		models.StageTranscribing,
		models.StageSucceeded,
	}
	if got := rec.get(); !reflect.DeepEqual(got, want) {
		t.Errorf("stages = %v, want %v", got, want)
	}

	state := o.State()
	if state.Stage != models.StageSucceeded || state.VideoID != "v1" {
		t.Errorf("state = %+v, want succeeded with v1", state)
	}
	if state.RunID == "" {
		t.Error("RunID should be set")
	}
	if !reflect.DeepEqual(up.prompts, []string{"keywords, here"}) {
		t.Errorf("prompts = %v", up.prompts)
	}
	if !reflect.DeepEqual(progress, []int{100}) {
		t.Errorf("progress = %v", progress)
	}
}

func TestSubmitStopsAtFirstFailure(t *testing.T) {
	tests := []struct {
		name        string
		conv        *fakeConverter
		up          *fakeUploader
		wantKind    models.ErrorKind
		wantStages  []models.Stage
		wantUploads int
		wantVideoID string
	}{
		{
			name:        "conversion error",
			conv:        &fakeConverter{err: models.NewStageError(models.KindConversion, errors.New("ffmpeg unavailable"))},
			up:          &fakeUploader{videoID: "v1"},
			wantKind:    models.KindConversion,
			wantStages:  []models.Stage{models.StageConverting, models.StageFailed},
			wantUploads: 0,
		},
		{
			name:        "upload error",
			conv:        &fakeConverter{audio: testAudio()},
			up:          &fakeUploader{uploadErr: errors.New("connection refused")},
			wantKind:    models.KindUpload,
			wantStages:  []models.Stage{models.StageConverting, models.StageUploading, models.StageFailed},
			wantUploads: 1,
		},
		{
			name:        "upload without resource id",
			conv:        &fakeConverter{audio: testAudio()},
			up:          &fakeUploader{},
			wantKind:    models.KindUpload,
			wantStages:  []models.Stage{models.StageConverting, models.StageUploading, models.StageFailed},
			wantUploads: 1,
		},
		{
			name:        "transcription error",
			conv:        &fakeConverter{audio: testAudio()},
			up:          &fakeUploader{videoID: "v1", transcribeErr: errors.New("status 500")},
			wantKind:    models.KindTranscription,
			wantStages:  []models.Stage{models.StageConverting, models.StageUploading, models.StageTranscribing, models.StageFailed},
			wantUploads: 1,
			wantVideoID: "v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(tt.conv, tt.up, logger.Discard())
			o.Select(testVideo())

			rec := &stageRecorder{}
			o.Subscribe(rec.observe)

			err := o.Submit(context.Background(), "keywords")
			if models.KindOf(err) != tt.wantKind {
				t.Errorf("Submit() kind = %q, want %q (err = %v)", models.KindOf(err), tt.wantKind, err)
			}

			state := o.State()
			if state.Stage != models.StageFailed || state.Kind() != tt.wantKind {
				t.Errorf("state = %+v, want failed(%s)", state, tt.wantKind)
			}
			if state.VideoID != tt.wantVideoID {
				t.Errorf("VideoID = %q, want %q", state.VideoID, tt.wantVideoID)
			}
			if got := rec.get(); !reflect.DeepEqual(got, tt.wantStages) {
				t.Errorf("stages = %v, want %v", got, tt.wantStages)
			}
			if tt.up.uploads != tt.wantUploads {
				t.Errorf("uploads = %d, want %d", tt.up.uploads, tt.wantUploads)
			}
		})
	}
}

func TestSubmitMissingResourceIDNeverTranscribes(t *testing.T) {
	up := &fakeUploader{}
	o := New(&fakeConverter{audio: testAudio()}, up, logger.Discard())
	o.Select(testVideo())

	err := o.Submit(context.Background(), "keywords")
	if !errors.Is(err, api.ErrMissingResourceID) {
		t.Errorf("Submit() error = %v, want ErrMissingResourceID", err)
	}
	if len(up.prompts) != 0 {
		t.Errorf("transcription requested %d times, want 0", len(up.prompts))
	}
}

func TestSubmitPreconditions(t *testing.T) {
	up := &fakeUploader{videoID: "v1"}
	o := New(&fakeConverter{audio: testAudio()}, up, logger.Discard())

	if err := o.Submit(context.Background(), "keywords"); !errors.Is(err, ErrNoVideo) {
		t.Errorf("Submit() without video = %v, want ErrNoVideo", err)
	}
	if o.State().Stage != models.StageIdle {
		t.Errorf("stage = %s, want idle", o.State().Stage)
	}

	o.Select(testVideo())
	if err := o.Submit(context.Background(), "  "); !errors.Is(err, ErrNoPrompt) {
		t.Errorf("Submit() with blank prompt = %v, want ErrNoPrompt", err)
	}
	if o.State().Stage != models.StageIdle {
		t.Errorf("stage = %s, want idle", o.State().Stage)
	}
}

func TestSubmitWhileRunningIsNoop(t *testing.T) {
	conv := &fakeConverter{
		audio:   testAudio(),
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	o := New(conv, &fakeUploader{videoID: "v1"}, logger.Discard())
	o.Select(testVideo())

	done := make(chan error, 1)
	go func() { done <- o.Submit(context.Background(), "keywords") }()
	<-conv.started

	before := o.State()
	if err := o.Submit(context.Background(), "keywords"); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("second Submit() = %v, want ErrRunInProgress", err)
	}
	if after := o.State(); after != before {
		t.Errorf("state changed from %+v to %+v", before, after)
	}

	close(conv.gate)
	if err := <-done; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if conv.calls.Load() != 1 {
		t.Errorf("conversions = %d, want 1", conv.calls.Load())
	}
}

func TestResubmitAfterFailure(t *testing.T) {
	up := &fakeUploader{uploadErr: errors.New("connection refused")}
	o := New(&fakeConverter{audio: testAudio()}, up, logger.Discard())
	o.Select(testVideo())

	if err := o.Submit(context.Background(), "keywords"); models.KindOf(err) != models.KindUpload {
		t.Fatalf("first Submit() = %v, want upload error", err)
	}

	up.mu.Lock()
	up.uploadErr, up.videoID = nil, "v2"
	up.mu.Unlock()

	if err := o.Submit(context.Background(), "keywords"); err != nil {
		t.Fatalf("resubmit error = %v", err)
	}
	if s := o.State(); s.Stage != models.StageSucceeded || s.VideoID != "v2" || s.Err != nil {
		t.Errorf("state = %+v, want succeeded v2", s)
	}
}

func TestSubmitAfterSuccessNeedsNewVideo(t *testing.T) {
	o := New(&fakeConverter{audio: testAudio()}, &fakeUploader{videoID: "v1"}, logger.Discard())
	o.Select(testVideo())

	if err := o.Submit(context.Background(), "keywords"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := o.Submit(context.Background(), "keywords"); !errors.Is(err, ErrNoVideo) {
		t.Errorf("Submit() after success = %v, want ErrNoVideo", err)
	}

	o.Select(testVideo())
	if o.State().Stage != models.StageIdle {
		t.Errorf("stage after reselect = %s, want idle", o.State().Stage)
	}
}

func TestReselectAbandonsRun(t *testing.T) {
	conv := &fakeConverter{
		audio:   testAudio(),
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	up := &fakeUploader{videoID: "v1"}
	o := New(conv, up, logger.Discard())
	o.Select(testVideo())

	rec := &stageRecorder{}
	o.Subscribe(rec.observe)

	done := make(chan error, 1)
	go func() { done <- o.Submit(context.Background(), "keywords") }()
	<-conv.started

	o.Select(models.VideoAsset{Name: "other.mp4", MediaType: "video/mp4", Data: []byte("other")})
	close(conv.gate)

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Errorf("abandoned Submit() = %v, want ErrSuperseded", err)
	}
	if s := o.State(); s.Stage != models.StageIdle {
		t.Errorf("stage = %s, want idle", s.Stage)
	}
	if up.uploads != 0 {
		t.Errorf("abandoned run uploaded %d times", up.uploads)
	}
	want := []models.Stage{models.StageConverting, models.StageIdle}
	if got := rec.get(); !reflect.DeepEqual(got, want) {
		t.Errorf("stages = %v, want %v", got, want)
	}
}

// backend fakes the upload-ai HTTP endpoints
type backend struct {
	uploadStatus   int
	transcriptions atomic.Int32
}

func (b *backend) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /videos", func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if b.uploadStatus != 0 {
			http.Error(w, "internal error", b.uploadStatus)
			return
		}
		w.Write([]byte(`{"video":{"id":"v1"}}`))
	})
	mux.HandleFunc("POST /videos/{id}/transcription", func(w http.ResponseWriter, r *http.Request) {
		b.transcriptions.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newEndToEnd(t *testing.T, b *backend) *Orchestrator {
	srv := b.server(t)
	client := api.New(config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, logger.Discard())
	return New(&fakeConverter{audio: testAudio()}, client, logger.Discard())
}

func TestEndToEndUploadAndTranscribe(t *testing.T) {
	b := &backend{}
	o := newEndToEnd(t, b)

	o.Select(testVideo())
	if err := o.Submit(context.Background(), "keywords, here"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	s := o.State()
	if s.Stage != models.StageSucceeded || s.VideoID != "v1" {
		t.Errorf("state = %+v, want succeeded v1", s)
	}
	if b.transcriptions.Load() != 1 {
		t.Errorf("transcriptions = %d, want 1", b.transcriptions.Load())
	}
}

func TestEndToEndUploadServerError(t *testing.T) {
	b := &backend{uploadStatus: http.StatusInternalServerError}
	o := newEndToEnd(t, b)

	o.Select(testVideo())
	err := o.Submit(context.Background(), "keywords, here")

	var se *api.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Errorf("Submit() error = %v, want 500 StatusError", err)
	}
	if s := o.State(); s.Stage != models.StageFailed || s.Kind() != models.KindUpload {
		t.Errorf("state = %+v, want failed(upload)", s)
	}
	if b.transcriptions.Load() != 0 {
		t.Errorf("transcription endpoint called %d times, want 0", b.transcriptions.Load())
	}
}
