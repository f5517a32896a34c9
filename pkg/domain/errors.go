package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownModel = errors.New("unknown model")
	ErrEmptyReply   = errors.New("empty reply")
)

// InferenceError is every way a completion request can fail.
type InferenceError struct {
	Model      string
	StatusCode int
	Err        error
}

func (e *InferenceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("inference with model %q failed with status %d: %v", e.Model, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("inference with model %q failed: %v", e.Model, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// PersistenceError means a transcript did not reach durable storage.
type PersistenceError struct {
	Op     string
	UserID int64
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s transcript of user %d: %v", e.Op, e.UserID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
