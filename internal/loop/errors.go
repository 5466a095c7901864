package loop

import "errors"

// ErrAlreadyRunning is returned by Run when the loop is already being run.
var ErrAlreadyRunning = errors.New("loop already running")
