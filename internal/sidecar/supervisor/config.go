package supervisor

import (
	"time"

	"github.com/lambda-feedback/watchdeck/internal/sidecar/worker"
)

// DefaultStopTimeout bounds each stop phase when none is configured.
const DefaultStopTimeout = 5 * time.Second

// StartConfig describes the configuration for starting the worker.
type StartConfig = worker.StartConfig

type StopConfig struct {
	// Grace is how long the worker may take to exit on its own after
	// receiving the shutdown command and EOF on stdin. A grace <= 0
	// skips straight to SIGTERM.
	Grace time.Duration `conf:"grace"`

	// Timeout is how long to wait after SIGTERM before killing the
	// worker, and again after SIGKILL.
	Timeout time.Duration `conf:"timeout"`
}

// SendConfig describes the configuration for sending commands to the worker.
type SendConfig struct {
	// Timeout bounds a single write to the worker's stdin. Zero means
	// the write is bounded only by the caller's context.
	Timeout time.Duration `conf:"timeout"`
}

type Config struct {
	// Start are the parameters used to launch the worker.
	Start StartConfig `conf:"start,squash"`

	// Stop are the parameters used when stopping the worker.
	Stop StopConfig `conf:"stop"`

	// Send are the parameters used when writing commands.
	Send SendConfig `conf:"send"`
}
