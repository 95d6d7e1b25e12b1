package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/upload-ai/internal/api"
	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

// Subscribe registers fn for every state change.
func (o *Orchestrator) Subscribe(fn StateFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

// SubscribeProgress registers fn for conversion progress of the current run.
func (o *Orchestrator) SubscribeProgress(fn ProgressFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progressObservers = append(o.progressObservers, fn)
}

// State returns a snapshot of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Select stores video as the only live selection and resets to idle.
// A run still in flight is abandoned: its late results are discarded.
func (o *Orchestrator) Select(video models.VideoAsset) {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	if o.state.Stage.IsRunning() {
		o.logger.Warn(context.Background(), "Run %s abandoned at stage %s by new selection", o.state.RunID, o.state.Stage)
	}
	o.run++
	o.video = &video
	o.state = State{Stage: models.StageIdle}
	state, observers := o.state, o.snapshotObservers()
	o.mu.Unlock()

	notify(observers, state)
}

// Submit runs the selected video through conversion, upload and transcription, blocking until
// a terminal state. It is a no-op returning ErrNoVideo, ErrNoPrompt or ErrRunInProgress when a run
// cannot start. The prompt is forwarded to the transcription request unchanged.
func (o *Orchestrator) Submit(ctx context.Context, prompt string) error {
	run, runID, video, err := o.begin(prompt)
	if err != nil {
		return err
	}

	startTime := time.Now()
	o.logger.Info(ctx, "========================================")
	o.logger.Info(ctx, "Starting ingestion %s: %s", runID, video.Name)
	o.logger.Info(ctx, "========================================")

	// Step 1: Convert video to compact audio
	audio, err := o.converter.Convert(ctx, video, o.progressFor(run))
	if err != nil {
		return o.fail(ctx, run, models.KindConversion, err)
	}
	if !o.transition(run, State{Stage: models.StageUploading}) {
		return ErrSuperseded
	}

	// Step 2: Upload audio, the server assigns the resource id
	videoID, err := o.client.UploadAudio(ctx, audio)
	if err == nil && videoID == "" {
		err = api.ErrMissingResourceID
	}
	if err != nil {
		return o.fail(ctx, run, models.KindUpload, err)
	}
	o.logger.Info(ctx, "Audio uploaded: video id %s", videoID)
	if !o.transition(run, State{Stage: models.StageTranscribing, VideoID: videoID}) {
		return ErrSuperseded
	}

	// Step 3: Request transcription of the uploaded resource
	if _, err := o.client.CreateTranscription(ctx, videoID, prompt); err != nil {
		return o.fail(ctx, run, models.KindTranscription, err)
	}
	if !o.transition(run, State{Stage: models.StageSucceeded}) {
		return ErrSuperseded
	}

	o.logger.Info(ctx, "========================================")
	o.logger.Info(ctx, "Ingestion %s completed: video id %s", runID, videoID)
	o.logger.Info(ctx, "Processing time: %s", time.Since(startTime))
	o.logger.Info(ctx, "========================================")
	return nil
}

// begin checks the submit preconditions and moves to converting atomically.
func (o *Orchestrator) begin(prompt string) (uint64, string, models.VideoAsset, error) {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	if o.video == nil {
		o.mu.Unlock()
		return 0, "", models.VideoAsset{}, ErrNoVideo
	}
	if !o.state.Stage.CanSubmit() {
		o.mu.Unlock()
		return 0, "", models.VideoAsset{}, ErrRunInProgress
	}
	if strings.TrimSpace(prompt) == "" {
		o.mu.Unlock()
		return 0, "", models.VideoAsset{}, ErrNoPrompt
	}

	o.run++
	run, video := o.run, *o.video
	o.state = State{Stage: models.StageConverting, RunID: uuid.NewString()}
	state, observers := o.state, o.snapshotObservers()
	o.mu.Unlock()

	notify(observers, state)
	return run, state.RunID, video, nil
}

// transition applies next if run is still current and the edge is allowed.
// RunID and VideoID carry over from the previous state.
func (o *Orchestrator) transition(run uint64, next State) bool {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	if run != o.run {
		o.mu.Unlock()
		return false
	}
	if !models.IsValidTransition(o.state.Stage, next.Stage) {
		o.logger.Error(context.Background(), "Invalid transition: %s -> %s", o.state.Stage, next.Stage)
		o.mu.Unlock()
		return false
	}

	next.RunID = o.state.RunID
	if next.VideoID == "" {
		next.VideoID = o.state.VideoID
	}
	o.state = next
	if next.Stage == models.StageSucceeded {
		o.video = nil
	}
	observers := o.snapshotObservers()
	o.mu.Unlock()

	notify(observers, next)
	return true
}

// fail moves run to the failed state carrying err under kind.
func (o *Orchestrator) fail(ctx context.Context, run uint64, kind models.ErrorKind, err error) error {
	stageErr := models.NewStageError(kind, err)
	if !o.transition(run, State{Stage: models.StageFailed, Err: stageErr}) {
		o.logger.Debug(ctx, "Discarding failure of abandoned run: %v", err)
		return ErrSuperseded
	}

	o.logger.Error(ctx, "Ingestion failed: %v", stageErr)
	return stageErr
}

// progressFor forwards conversion progress while run is current.
func (o *Orchestrator) progressFor(run uint64) func(int) {
	return func(pct int) {
		o.mu.Lock()
		if run != o.run {
			o.mu.Unlock()
			return
		}
		observers := append([]ProgressFunc(nil), o.progressObservers...)
		o.mu.Unlock()

		for _, fn := range observers {
			fn(pct)
		}
	}
}

func (o *Orchestrator) snapshotObservers() []StateFunc {
	return append([]StateFunc(nil), o.observers...)
}

func notify(observers []StateFunc, state State) {
	for _, fn := range observers {
		fn(state)
	}
}
