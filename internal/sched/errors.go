package sched

import (
	"errors"
	"fmt"
)

var (
	ErrCapacityExceeded  = errors.New("task capacity exceeded")
	ErrAllocationFailure = errors.New("stack allocation failed")
	ErrInvalidHandle     = errors.New("invalid task handle")
	ErrNotInitialized    = errors.New("scheduler not initialized")
	ErrNotHost           = errors.New("operation must be called by task 0")
	ErrNoInput           = errors.New("no input source configured")
	ErrDoubleRelease     = errors.New("stack released twice")
	ErrNilBody           = errors.New("nil task body")
)

// TaskError wraps a scheduler failure with the operation and handle involved.
type TaskError struct {
	Op   string
	ID   TaskID
	Kind error
	Msg  string
	Err  error // underlying cause, if any
}

func (e *TaskError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s task %d", e.Op, e.ID)
	if e.Err == nil || !errors.Is(e.Err, e.Kind) {
		msg += ": " + e.Kind.Error()
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TaskError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func taskErrorf(op string, id TaskID, kind error, format string, args ...any) error {
	return &TaskError{Op: op, ID: id, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
