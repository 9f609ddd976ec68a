package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a permission event does not apply to the current state.
	ErrInvalidTransition = errors.New("invalid permission transition")
	// ErrPermissionDenied is returned when a privileged operation runs without the required state.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrPersistence wraps failures of the log store.
	ErrPersistence = errors.New("persistence failure")
	// ErrInvalidFormat is returned for unknown export formats.
	ErrInvalidFormat = errors.New("invalid export format")
	// ErrInvalidInput is returned for malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
)

// InvalidTransitionError records the rejected (state, event) pair.
type InvalidTransitionError struct {
	From  PermissionState
	Event PermissionEvent
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid permission transition: %s from %q", e.Event, e.From)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// PersistenceError wraps a store failure with the operation that failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

// Is lets errors.Is match both ErrPersistence and the wrapped cause.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err as a PersistenceError. A nil err stays nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
