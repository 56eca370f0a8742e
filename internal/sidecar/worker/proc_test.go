//go:build !windows

package worker_test

import (
	"bufio"
	"context"
	"io"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/lambda-feedback/watchdeck/internal/sidecar/worker"
	"github.com/lambda-feedback/watchdeck/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startWorker(t *testing.T, cmd string, args ...string) worker.Handle {
	t.Helper()

	h, err := worker.Start(context.Background(), worker.StartConfig{
		Cmd:  cmd,
		Args: args,
	}, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = h.Kill(time.Second)
		_ = h.Close()
	})

	return h
}

func waitDone(t *testing.T, h worker.Handle) worker.ExitEvent {
	t.Helper()

	select {
	case <-h.Done():
		return h.ExitEvent()
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit")
		return worker.ExitEvent{}
	}
}

func TestStart_IsAlive(t *testing.T) {
	h := startWorker(t, "cat")

	require.NotZero(t, h.Pid())

	require.Eventually(t, func() bool {
		return util.IsProcessAlive(h.Pid())
	}, 2*time.Second, 10*time.Millisecond, "process never reported alive")
}

func TestStart_ReturnsErrorIfExecutableMissing(t *testing.T) {
	_, err := worker.Start(context.Background(), worker.StartConfig{
		Cmd: "watchdeck-no-such-worker",
	}, zap.NewNop())

	assert.ErrorIs(t, err, worker.ErrExecutableNotFound)
}

func TestStart_ReturnsErrorIfCommandEmpty(t *testing.T) {
	_, err := worker.Start(context.Background(), worker.StartConfig{}, zap.NewNop())

	assert.ErrorIs(t, err, worker.ErrExecutableNotFound)
}

func TestStart_FailsIfContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := worker.Start(ctx, worker.StartConfig{Cmd: "cat"}, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWrite_EchoesThroughStdout(t *testing.T) {
	h := startWorker(t, "cat")

	_, err := h.Write(context.Background(), []byte("hello\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(h.Stdout()).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "hello\n", line)
}

func TestWrite_FailsAfterInputClosed(t *testing.T) {
	h := startWorker(t, "cat")

	require.NoError(t, h.CloseInput())

	_, err := h.Write(context.Background(), []byte("hello\n"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestCloseInput_LetsWorkerExit(t *testing.T) {
	h := startWorker(t, "cat")

	require.NoError(t, h.CloseInput())

	evt := waitDone(t, h)
	assert.True(t, evt.Success())
}

func TestStderr_IsReadable(t *testing.T) {
	h := startWorker(t, "sh", "-c", `>&2 echo "error"`)

	data, err := io.ReadAll(h.Stderr())
	require.NoError(t, err)
	assert.Equal(t, "error\n", string(data))
}

func TestExitEvent_ReportsExitCode(t *testing.T) {
	h := startWorker(t, "sh", "-c", "exit 3")

	evt := waitDone(t, h)
	require.NotNil(t, evt.Code)
	assert.Equal(t, 3, *evt.Code)
	assert.Nil(t, evt.Signal)
	assert.False(t, evt.Success())
	assert.Equal(t, "exit code 3", evt.String())
}

func TestTerminate_SendsTerminationSignal(t *testing.T) {
	h := startWorker(t, "sleep", "10")

	err := h.Terminate(5 * time.Second)
	require.NoError(t, err)

	evt := waitDone(t, h)
	require.NotNil(t, evt.Signal)
	assert.Equal(t, syscall.SIGTERM, syscall.Signal(*evt.Signal))
	assert.Nil(t, evt.Code)

	assert.False(t, util.IsProcessAlive(h.Pid()))
}

func TestKill_SendsKillSignal(t *testing.T) {
	h := startWorker(t, "sleep", "10")

	err := h.Kill(5 * time.Second)
	require.NoError(t, err)

	evt := waitDone(t, h)
	require.NotNil(t, evt.Signal)
	assert.Equal(t, syscall.SIGKILL, syscall.Signal(*evt.Signal))
}

func TestTerminate_AlreadyExited_Succeeds(t *testing.T) {
	h := startWorker(t, "echo")

	waitDone(t, h)

	assert.NoError(t, h.Terminate(time.Second))
}

func TestClose_UnblocksPendingRead(t *testing.T) {
	h := startWorker(t, "sleep", "10")

	readErr := make(chan error, 1)
	go func() {
		_, err := h.Stdout().Read(make([]byte, 16))
		readErr <- err
	}()

	// give the reader a moment to block
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, h.Close())

	select {
	case err := <-readErr:
		assert.ErrorIs(t, err, os.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("read was not unblocked by close")
	}
}

// blockingLine is larger than any pipe buffer, so writing it to a
// worker that never reads stdin blocks.
var blockingLine = make([]byte, 1<<20)

func TestWrite_CancelUnblocksPendingWrite(t *testing.T) {
	h := startWorker(t, "sleep", "30")

	ctx, cancel := context.WithCancel(context.Background())

	writeErr := make(chan error, 1)
	go func() {
		_, err := h.Write(ctx, blockingLine)
		writeErr <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-writeErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("write was not unblocked by cancellation")
	}
}

func TestCloseInput_UnblocksPendingWrite(t *testing.T) {
	h := startWorker(t, "sleep", "30")

	writeErr := make(chan error, 1)
	go func() {
		_, err := h.Write(context.Background(), blockingLine)
		writeErr <- err
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, h.CloseInput())

	select {
	case err := <-writeErr:
		assert.ErrorIs(t, err, os.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("write was not unblocked by closing stdin")
	}
}
