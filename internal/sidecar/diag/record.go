// Package diag carries worker diagnostics: stderr output, undecodable
// stdout lines and lifecycle signals. Diagnostics never reach event
// subscribers.
package diag

import (
	"encoding/json"
	"time"

	"github.com/lambda-feedback/watchdeck/internal/sidecar/worker"
)

type Kind string

const (
	// KindStderr is a line the worker wrote to its stderr.
	KindStderr Kind = "stderr"

	// KindDecodeWarning is a stream line that was not valid UTF-8
	// and has been dropped.
	KindDecodeWarning Kind = "decode_warning"

	// KindSpawnFailure is a failed attempt to launch the worker.
	KindSpawnFailure Kind = "spawn_failure"

	// KindTerminated reports the worker's exit. Commands sent after
	// this fail until the worker is spawned again.
	KindTerminated Kind = "terminated"

	// KindRelayError is an unexpected read error in the relay.
	KindRelayError Kind = "relay_error"
)

type Record struct {
	Kind    Kind
	Session string
	Stream  string
	Message string
	Exit    *worker.ExitEvent
	Err     error
	Time    time.Time
}

type recordJSON struct {
	Kind    Kind              `json:"kind"`
	Session string            `json:"session,omitempty"`
	Stream  string            `json:"stream,omitempty"`
	Message string            `json:"message"`
	Exit    *worker.ExitEvent `json:"exit,omitempty"`
	Error   string            `json:"error,omitempty"`
	Time    time.Time         `json:"time"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Kind:    r.Kind,
		Session: r.Session,
		Stream:  r.Stream,
		Message: r.Message,
		Exit:    r.Exit,
		Time:    r.Time,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}
