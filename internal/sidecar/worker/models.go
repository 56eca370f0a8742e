package worker

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrKillTimeout        = errors.New("kill timeout")
	ErrExecutableNotFound = errors.New("worker executable not found")
)

type StartConfig struct {
	// Cmd is the name or path of the worker executable. Bare names
	// are resolved per platform, see Locate.
	Cmd string `conf:"cmd"`

	// Cwd is the working directory in which
	// the binary should be executed
	Cwd string `conf:"cwd"`

	// Args is the list of arguments to pass to the command
	Args []string `conf:"args"`

	// Env is a map of environment variables added to
	// the environment inherited from the host process
	Env map[string]string `conf:"env"`

	// SearchDirs are searched for the executable before
	// the directory of the host executable and PATH
	SearchDirs []string `conf:"search_dirs"`
}

// ExitEvent describes how the worker process exited. Exactly one of
// Code and Signal is set, unless the exit status could not be read.
type ExitEvent struct {
	// Code is the exit code of the process
	Code *int `json:"code,omitempty"`

	// Signal is the signal that caused the process to exit
	Signal *int `json:"signal,omitempty"`

	// Time is when the exit was observed
	Time time.Time `json:"time"`
}

// Success reports whether the process exited with code 0.
func (e ExitEvent) Success() bool {
	return e.Code != nil && *e.Code == 0
}

func (e ExitEvent) String() string {
	switch {
	case e.Code != nil:
		return fmt.Sprintf("exit code %d", *e.Code)
	case e.Signal != nil:
		return fmt.Sprintf("signal %d", *e.Signal)
	default:
		return "unknown exit status"
	}
}
