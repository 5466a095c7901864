package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates Run was called while running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrClosed indicates the application was closed.
	ErrClosed = errors.New("application closed")

	// ErrNoMacro indicates there is no macro to play or save.
	ErrNoMacro = errors.New("no macro recorded")

	// ErrRecording indicates an operation that cannot run while recording.
	ErrRecording = errors.New("recording in progress")

	// ErrNoWidget indicates a widget named by a caller does not exist.
	ErrNoWidget = errors.New("no such widget")
)

// OperationError is returned by the recording, playback and library
// operations. Target is a macro name, file path or widget label.
type OperationError struct {
	Op     string
	Target string
	Err    error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{Op: op, Target: target, Err: err}
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %q", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ComponentError reports a subsystem that failed to start or stop.
type ComponentError struct {
	Component string
	Action    string
	Err       error
}

// NewComponentError creates a new ComponentError.
func NewComponentError(component, action string, err error) *ComponentError {
	return &ComponentError{Component: component, Action: action, Err: err}
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Component
	if e.Action != "" {
		msg += ": " + e.Action
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
