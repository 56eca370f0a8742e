package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type proc struct {
	pid int
	cmd *exec.Cmd

	// the host ends of the three pipes. these are plain os.Pipe files
	// rather than cmd.StdoutPipe & co, so cmd.Wait never closes them
	// underneath a reader that has not drained them yet.
	stdin  *os.File
	stdout *os.File
	stderr *os.File

	done chan struct{}
	exit ExitEvent

	stdinOnce sync.Once
	closeOnce sync.Once

	log *zap.Logger
}

var _ Handle = (*proc)(nil)

// Start locates the worker executable and launches it with its stdio
// connected to fresh pipes. The process is placed in its own process
// group so signals reach any children it spawns.
func Start(ctx context.Context, config StartConfig, log *zap.Logger) (Handle, error) {
	// exit early if the context is already cancelled
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	path, err := Locate(config.Cmd, config.SearchDirs)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(path, config.Args...)
	cmd.Env = buildEnv(config.Env)

	if config.Cwd != "" {
		cmd.Dir = config.Cwd
	}

	initCmd(cmd)

	var pipes pipeSet
	if err := pipes.open(); err != nil {
		pipes.closeAll()
		return nil, fmt.Errorf("failed to create pipes: %w", err)
	}

	cmd.Stdin = pipes.stdinR
	cmd.Stdout = pipes.stdoutW
	cmd.Stderr = pipes.stderrW

	startErr := cmd.Start()

	// the child owns its ends now, or never will if start failed
	pipes.closeChildEnds()

	if startErr != nil {
		pipes.closeHostEnds()
		return nil, fmt.Errorf("failed to start process: %w", startErr)
	}

	log = log.Named("proc").With(zap.Int("pid", cmd.Process.Pid))

	p := &proc{
		pid:    cmd.Process.Pid,
		cmd:    cmd,
		stdin:  pipes.stdinW,
		stdout: pipes.stdoutR,
		stderr: pipes.stderrR,
		done:   make(chan struct{}),
		log:    log,
	}

	go func() {
		// block until the process exits
		err := cmd.Wait()

		p.exit = getExitEvent(err)

		log.Debug("process exited", zap.Stringer("status", p.exit))

		close(p.done)
	}()

	log.Debug("process started", zap.String("path", path))

	return p, nil
}

func (p *proc) Pid() int {
	return p.pid
}

func (p *proc) Write(ctx context.Context, b []byte) (int, error) {
	deadline, _ := ctx.Deadline()

	// a zero deadline clears any previous one. pipes on platforms
	// without poller support report ErrNoDeadline, which is fine.
	if err := p.stdin.SetWriteDeadline(deadline); err != nil && !errors.Is(err, os.ErrNoDeadline) {
		p.log.Debug("failed to set write deadline", zap.Error(err))
	}

	// cancellation expires the deadline, unblocking a pending write
	stop := context.AfterFunc(ctx, func() {
		_ = p.stdin.SetWriteDeadline(time.Now())
	})
	defer stop()

	n, err := p.stdin.Write(b)
	if err != nil && ctx.Err() != nil {
		return n, fmt.Errorf("%w: %w", ctx.Err(), err)
	}

	return n, err
}

func (p *proc) CloseInput() error {
	var err error
	p.stdinOnce.Do(func() {
		err = p.stdin.Close()
	})
	return err
}

func (p *proc) Stdout() io.Reader {
	return p.stdout
}

func (p *proc) Stderr() io.Reader {
	return p.stderr
}

func (p *proc) Done() <-chan struct{} {
	return p.done
}

func (p *proc) ExitEvent() ExitEvent {
	<-p.done
	return p.exit
}

func (p *proc) Terminate(timeout time.Duration) error {
	// terminate should report success if the process terminated
	// by the time the supervisor sends the request.
	if p.exited() {
		p.log.Debug("process already terminated")
		return nil
	}

	p.signal(false)

	return p.waitForTermination(timeout)
}

func (p *proc) Kill(timeout time.Duration) error {
	if p.exited() {
		p.log.Debug("process already terminated")
		return nil
	}

	p.signal(true)

	return p.waitForTermination(timeout)
}

func (p *proc) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = errors.Join(
			p.CloseInput(),
			p.stdout.Close(),
			p.stderr.Close(),
		)
	})
	return err
}

func (p *proc) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *proc) waitForTermination(timeout time.Duration) error {
	// if timeout is < 0, don't wait for the process to exit
	if timeout < 0 {
		return nil
	}

	// if timeout is 0, wait indefinitely
	if timeout == 0 {
		<-p.done
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
		return ErrKillTimeout
	}
}

func (p *proc) signal(force bool) {
	log := p.log.With(zap.Bool("force", force))

	// close stdin before signalling the process,
	// to avoid the process hanging on input
	if err := p.CloseInput(); err != nil && !errors.Is(err, os.ErrClosed) {
		log.Debug("close stdin failed", zap.Error(err))
	}

	log.Debug("sending signal")

	// best effort, the process may be gone already
	if err := signalProcess(p.cmd.Process, force); err != nil {
		log.Debug("signal failed", zap.Error(err))
	}
}

// MARK: - Helpers

type pipeSet struct {
	stdinR, stdinW   *os.File
	stdoutR, stdoutW *os.File
	stderrR, stderrW *os.File
}

func (s *pipeSet) open() error {
	var err error
	if s.stdinR, s.stdinW, err = os.Pipe(); err != nil {
		return err
	}
	if s.stdoutR, s.stdoutW, err = os.Pipe(); err != nil {
		return err
	}
	if s.stderrR, s.stderrW, err = os.Pipe(); err != nil {
		return err
	}
	return nil
}

func (s *pipeSet) closeChildEnds() {
	closeFiles(s.stdinR, s.stdoutW, s.stderrW)
}

func (s *pipeSet) closeHostEnds() {
	closeFiles(s.stdinW, s.stdoutR, s.stderrR)
}

func (s *pipeSet) closeAll() {
	s.closeChildEnds()
	s.closeHostEnds()
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}

func buildEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

func getExitEvent(err error) ExitEvent {
	evt := ExitEvent{Time: time.Now()}

	if err == nil {
		// the process exited successfully, set the exit code to 0
		code := 0
		evt.Code = &code
		return evt
	}

	var exitError *exec.ExitError
	if !errors.As(err, &exitError) {
		return evt
	}

	if status, ok := exitError.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		// the process was terminated by a signal
		signo := int(status.Signal())
		evt.Signal = &signo
		return evt
	}

	if code := exitError.ExitCode(); code >= 0 {
		evt.Code = &code
	}

	return evt
}
