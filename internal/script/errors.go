package script

import "errors"

var (
	// ErrStateClosed is returned when running code on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a script runs past its time limit.
	ErrExecutionTimeout = errors.New("lua execution timeout")
)
