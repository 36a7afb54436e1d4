package task

import "errors"

var (
	// ErrTaskNotFound is returned for ids the manager never issued.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskTerminal is returned when a transition is attempted on a task
	// that already completed or failed.
	ErrTaskTerminal = errors.New("task already in a terminal state")
)
