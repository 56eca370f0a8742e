package worker

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
)

// Handle is an owned reference to a running worker process.
type Handle interface {
	// Pid returns the OS process id.
	Pid() int

	// Write writes p to the worker's stdin in a single call. If ctx
	// carries a deadline, it bounds the OS-level write.
	Write(ctx context.Context, p []byte) (int, error)

	// CloseInput closes the worker's stdin, signalling EOF.
	CloseInput() error

	// Stdout returns the read end of the worker's stdout.
	Stdout() io.Reader

	// Stderr returns the read end of the worker's stderr.
	Stderr() io.Reader

	// Done is closed once the process has exited.
	Done() <-chan struct{}

	// ExitEvent returns the exit status. Only valid after Done is closed.
	ExitEvent() ExitEvent

	// Terminate asks the process group to stop (SIGTERM) and waits up
	// to timeout. A timeout of 0 waits indefinitely, < 0 does not wait.
	Terminate(timeout time.Duration) error

	// Kill force-stops the process group (SIGKILL) and waits like Terminate.
	Kill(timeout time.Duration) error

	// Close closes all pipe ends held by the host. Pending reads on
	// Stdout and Stderr return os.ErrClosed.
	Close() error
}

// StartFunc launches a worker process.
type StartFunc func(context.Context, StartConfig, *zap.Logger) (Handle, error)

var _ StartFunc = Start
