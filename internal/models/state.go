package models

// Stage tracks each step of one ingestion run.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageConverting   Stage = "converting"
	StageUploading    Stage = "uploading"
	StageTranscribing Stage = "transcribing"
	StageSucceeded    Stage = "succeeded"
	StageFailed       Stage = "failed"
)

// Status returns the user-visible status text for the stage.
func (s Stage) Status() string {
	switch s {
	case StageIdle:
		return "Upload video"
	case StageConverting:
		return "Converting..."
	case StageUploading:
		return "Uploading..."
	case StageTranscribing:
		return "Transcribing..."
	case StageSucceeded:
		return "Done!"
	case StageFailed:
		return "Failed"
	default:
		return string(s)
	}
}

// CanSubmit reports whether a new run may start from this stage.
func (s Stage) CanSubmit() bool {
	return s == StageIdle || s == StageFailed
}

// IsTerminal reports whether no further automatic transition happens.
func (s Stage) IsTerminal() bool {
	return s == StageSucceeded || s == StageFailed
}

// IsRunning reports whether the stage is an active pipeline step.
func (s Stage) IsRunning() bool {
	switch s {
	case StageConverting, StageUploading, StageTranscribing:
		return true
	default:
		return false
	}
}

// IsValidTransition enforces the forward-only ingestion state machine.
// Any stage may return to idle when a new video is selected.
func IsValidTransition(from, to Stage) bool {
	if to == StageIdle {
		return true
	}

	switch from {
	case StageIdle:
		return to == StageConverting
	case StageConverting:
		return to == StageUploading || to == StageFailed
	case StageUploading:
		return to == StageTranscribing || to == StageFailed
	case StageTranscribing:
		return to == StageSucceeded || to == StageFailed
	case StageFailed:
		return to == StageConverting
	default:
		return false
	}
}
