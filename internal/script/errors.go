package script

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when running a script on a closed runner.
var ErrClosed = errors.New("script runner is closed")

// Error reports a script failure.
type Error struct {
	// Chunk names the script, usually its file path.
	Chunk string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("script %s: %v", e.Chunk, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
