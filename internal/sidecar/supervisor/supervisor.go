package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/command"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/diag"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/relay"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/worker"
	"go.uber.org/zap"
)

type Supervisor interface {
	// Spawn launches the worker and starts relaying its output. A worker
	// that is already held is stopped first, so at most one exists.
	Spawn(ctx context.Context) error

	// Send writes line followed by a newline to the worker's stdin. If
	// no worker is held, Send does nothing and returns nil.
	Send(ctx context.Context, line string) error

	// Shutdown stops the held worker, if any. Safe to call repeatedly.
	Shutdown(ctx context.Context) error

	// Status returns a snapshot of the held worker.
	Status() Status
}

// WorkerSupervisor supervises a single long-lived worker process.
//
// Three locks are used. stateLock guards the held session and is only
// held to read or swap it. writeLock serializes writes to stdin, so a
// worker that stops reading blocks other senders but never Status or
// the lifecycle. lifecycleLock serializes Spawn and Shutdown.
type WorkerSupervisor struct {
	lifecycleLock sync.Mutex
	writeLock     sync.Mutex

	stateLock sync.Mutex
	current   *session
	lastExit  *worker.ExitEvent

	start       worker.StartFunc
	startParams StartConfig
	stopParams  StopConfig
	sendParams  SendConfig

	events relay.Publisher
	diag   diag.Sink

	log *zap.Logger
}

var _ Supervisor = (*WorkerSupervisor)(nil)

type session struct {
	id     string
	handle worker.Handle
	relay  *relay.Relay
}

type Params struct {
	// Config is the config used to start, stop and talk to the worker.
	Config Config

	// StartFunc launches the worker process. Defaults to worker.Start.
	StartFunc worker.StartFunc

	// Events receives the events relayed from the worker's stdout.
	Events relay.Publisher

	// Diagnostics receives stderr lines and lifecycle records.
	Diagnostics diag.Sink

	// Log is the logger to use for the supervisor
	Log *zap.Logger
}

func New(params Params) *WorkerSupervisor {
	if params.StartFunc == nil {
		params.StartFunc = worker.Start
	}

	if params.Diagnostics == nil {
		params.Diagnostics = diag.Nop
	}

	stop := params.Config.Stop
	if stop.Timeout <= 0 {
		stop.Timeout = DefaultStopTimeout
	}

	return &WorkerSupervisor{
		start:       params.StartFunc,
		startParams: params.Config.Start,
		stopParams:  stop,
		sendParams:  params.Config.Send,
		events:      params.Events,
		diag:        params.Diagnostics,
		log:         params.Log.Named("supervisor"),
	}
}

func (s *WorkerSupervisor) Spawn(ctx context.Context) error {
	s.lifecycleLock.Lock()
	defer s.lifecycleLock.Unlock()

	if prev := s.swap(nil); prev != nil {
		s.log.Info("replacing running worker", zap.String("session", prev.id))

		if err := s.stop(ctx, prev); err != nil {
			s.log.Warn("failed to stop previous worker", zap.Error(err))
		}
	}

	id := uuid.NewString()

	log := s.log.With(zap.String("session", id))

	handle, err := s.start(ctx, s.startParams, log)
	if err != nil {
		spawnErr := &SpawnError{Cmd: s.startParams.Cmd, Err: err}

		s.diag.Report(diag.Record{
			Kind:    diag.KindSpawnFailure,
			Session: id,
			Message: "failed to spawn worker",
			Err:     spawnErr,
		})

		return spawnErr
	}

	r := relay.Start(relay.Params{
		Session:     id,
		Source:      handle,
		Events:      s.events,
		Diagnostics: s.diag,
		Log:         log,
	})

	s.swap(&session{id: id, handle: handle, relay: r})

	log.Info("worker spawned", zap.Int("pid", handle.Pid()))

	return nil
}

func (s *WorkerSupervisor) Send(ctx context.Context, line string) error {
	handle := s.currentHandle()
	if handle == nil {
		s.log.Debug("no worker running, dropping command")
		return nil
	}

	if exited(handle) {
		return &WriteError{Err: ErrWorkerExited}
	}

	if s.sendParams.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sendParams.Timeout)
		defer cancel()
	}

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	// one locked write per line keeps concurrent lines from interleaving
	s.writeLock.Lock()
	_, err := handle.Write(ctx, buf)
	s.writeLock.Unlock()

	if err != nil {
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) || exited(handle) {
			err = fmt.Errorf("%w: %w", ErrWorkerExited, err)
		}
		return &WriteError{Err: err}
	}

	return nil
}

func (s *WorkerSupervisor) Shutdown(ctx context.Context) error {
	s.lifecycleLock.Lock()
	defer s.lifecycleLock.Unlock()

	sess := s.swap(nil)
	if sess == nil {
		s.log.Debug("no worker to shut down")
		return nil
	}

	return s.stop(ctx, sess)
}

func (s *WorkerSupervisor) Status() Status {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	if s.current == nil {
		return Status{Exit: s.lastExit}
	}

	handle := s.current.handle

	status := Status{
		Running: true,
		Pid:     handle.Pid(),
		Session: s.current.id,
	}

	if exited(handle) {
		exit := handle.ExitEvent()
		status.Running = false
		status.Exit = &exit
	}

	return status
}

func (s *WorkerSupervisor) currentHandle() worker.Handle {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	if s.current == nil {
		return nil
	}

	return s.current.handle
}

// swap replaces the held session and returns the previous one.
func (s *WorkerSupervisor) swap(next *session) *session {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	prev := s.current
	s.current = next

	return prev
}

// stop takes the worker down in escalating steps: shutdown command and
// EOF on stdin, SIGTERM, then SIGKILL. Afterwards the relay is given
// the stop timeout to drain before the read ends are closed.
func (s *WorkerSupervisor) stop(ctx context.Context, sess *session) error {
	log := s.log.With(zap.String("session", sess.id))
	handle := sess.handle

	var stopErr error

	if !exited(handle) {
		s.requestShutdown(ctx, log, handle)

		if !s.waitExit(ctx, handle, s.stopParams.Grace) {
			stopErr = s.terminate(log, handle)
		}
	} else {
		_ = handle.CloseInput()
	}

	select {
	case <-sess.relay.Done():
	case <-time.After(s.stopParams.Timeout):
		log.Warn("relay did not drain in time, closing output")
	case <-ctx.Done():
	}

	if err := handle.Close(); err != nil {
		log.Debug("failed to close worker pipes", zap.Error(err))
	}

	select {
	case <-sess.relay.Done():
	case <-ctx.Done():
		log.Warn("gave up waiting for relay", zap.Error(ctx.Err()))
	}

	if exited(handle) {
		exit := handle.ExitEvent()

		s.stateLock.Lock()
		s.lastExit = &exit
		s.stateLock.Unlock()

		log.Info("worker stopped", zap.Stringer("exit", exit))
	}

	return stopErr
}

func (s *WorkerSupervisor) requestShutdown(
	ctx context.Context,
	log *zap.Logger,
	handle worker.Handle,
) {
	if s.stopParams.Grace <= 0 {
		_ = handle.CloseInput()
		return
	}

	// a send stuck on a worker that stopped reading holds writeLock.
	// skip the shutdown command then, closing stdin below unblocks it.
	if s.writeLock.TryLock() {
		writeCtx, cancel := context.WithTimeout(ctx, s.stopParams.Grace)

		if _, err := handle.Write(writeCtx, []byte(command.EncodeShutdown()+"\n")); err != nil {
			log.Debug("failed to send shutdown command", zap.Error(err))
		}

		cancel()
		s.writeLock.Unlock()
	} else {
		log.Debug("stdin busy, skipping shutdown command")
	}

	if err := handle.CloseInput(); err != nil {
		log.Debug("failed to close worker stdin", zap.Error(err))
	}
}

func (s *WorkerSupervisor) terminate(log *zap.Logger, handle worker.Handle) error {
	log.Debug("terminating worker")

	err := handle.Terminate(s.stopParams.Timeout)
	if err == nil {
		return nil
	}

	log.Warn("worker did not terminate, killing", zap.Error(err))

	if err := handle.Kill(s.stopParams.Timeout); err != nil {
		return fmt.Errorf("failed to kill worker: %w", err)
	}

	return nil
}

// waitExit waits up to timeout for the process to exit on its own.
func (s *WorkerSupervisor) waitExit(
	ctx context.Context,
	handle worker.Handle,
	timeout time.Duration,
) bool {
	if timeout <= 0 {
		return exited(handle)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-handle.Done():
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return exited(handle)
	}
}

func exited(handle worker.Handle) bool {
	select {
	case <-handle.Done():
		return true
	default:
		return false
	}
}
