package models

import (
	"errors"
	"fmt"
)

// ErrorKind names the stage a failure belongs to.
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindConversion    ErrorKind = "conversion"
	KindUpload        ErrorKind = "upload"
	KindTranscription ErrorKind = "transcription"
	KindStream        ErrorKind = "stream"
)

// StageError is a failure carrying its category and underlying cause.
type StageError struct {
	Kind ErrorKind
	Err  error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s error", e.Kind)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

// Unwrap exposes the cause for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewStageError wraps err in kind, keeping an existing StageError untouched.
func NewStageError(kind ErrorKind, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Kind: kind, Err: err}
}

// KindOf returns the category of err, or KindNone.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindNone
}
