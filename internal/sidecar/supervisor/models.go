package supervisor

import (
	"errors"
	"fmt"

	"github.com/lambda-feedback/watchdeck/internal/sidecar/worker"
)

var ErrWorkerExited = errors.New("worker has exited")

// SpawnError is returned when the worker could not be launched.
type SpawnError struct {
	Cmd string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn worker %q: %v", e.Cmd, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// WriteError is returned when a command could not be written to the
// worker's stdin.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write to worker: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Status is a snapshot of the supervised worker.
type Status struct {
	// Running is true while a worker is held and has not exited.
	Running bool `json:"running"`

	// Pid is the process id of the held worker, or 0.
	Pid int `json:"pid,omitempty"`

	// Session identifies the current spawn.
	Session string `json:"session,omitempty"`

	// Exit is the exit status of the held worker if it has exited,
	// or of the last stopped worker when none is held.
	Exit *worker.ExitEvent `json:"exit,omitempty"`
}
