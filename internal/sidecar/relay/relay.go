package relay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/lambda-feedback/watchdeck/internal/sidecar/diag"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/events"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/worker"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Source is the part of a worker handle the relay reads from.
type Source interface {
	Stdout() io.Reader
	Stderr() io.Reader
	Done() <-chan struct{}
	ExitEvent() worker.ExitEvent
}

// Publisher receives events parsed from the worker's stdout.
type Publisher interface {
	Publish(events.Event)
}

type Params struct {
	// Session identifies the worker spawn being relayed
	Session string

	// Source provides the worker's output streams
	Source Source

	// Events receives one event per non-empty stdout line
	Events Publisher

	// Diagnostics receives stderr lines and lifecycle records
	Diagnostics diag.Sink

	// Log is the logger to use for the relay
	Log *zap.Logger
}

// Relay forwards a single worker's output. It runs from Start until
// both output streams are closed and the process has exited.
type Relay struct {
	session string
	source  Source
	events  Publisher
	diag    diag.Sink

	seq  uint64
	done chan struct{}

	log *zap.Logger
}

// Start launches the relay in the background.
func Start(params Params) *Relay {
	sink := params.Diagnostics
	if sink == nil {
		sink = diag.Nop
	}

	r := &Relay{
		session: params.Session,
		source:  params.Source,
		events:  params.Events,
		diag:    sink,
		done:    make(chan struct{}),
		log:     params.Log.Named("relay"),
	}

	go r.run()

	return r
}

// Done is closed once the relay has stopped.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

func (r *Relay) run() {
	defer close(r.done)

	var wg sync.WaitGroup
	wg.Add(2)

	// stdout lines are handled by a single goroutine,
	// so seq needs no synchronization
	go r.readLines(&wg, "stdout", r.source.Stdout(), r.handleStdout)
	go r.readLines(&wg, "stderr", r.source.Stderr(), r.handleStderr)

	wg.Wait()

	<-r.source.Done()

	exit := r.source.ExitEvent()

	r.diag.Report(diag.Record{
		Kind:    diag.KindTerminated,
		Session: r.session,
		Message: fmt.Sprintf("worker terminated: %s", exit),
		Exit:    &exit,
	})

	r.log.Debug("relay stopped", zap.Uint64("events", r.seq))
}

// readLines reads newline-terminated lines until the stream ends. Lines
// are buffered until their newline arrives and are never truncated; a
// trailing line without newline is delivered at EOF.
func (r *Relay) readLines(
	wg *sync.WaitGroup,
	stream string,
	src io.Reader,
	handle func([]byte),
) {
	defer wg.Done()

	reader := bufio.NewReader(src)

	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 && !r.handleSafely(stream, handle, line) {
			// keep the pipe drained, so the worker never blocks on
			// a full stream nobody is reading anymore
			_, err = io.Copy(io.Discard, reader)
			if err == nil {
				err = io.EOF
			}
		}

		if err == nil {
			continue
		}

		if !isStreamClosed(err) {
			r.diag.Report(diag.Record{
				Kind:    diag.KindRelayError,
				Session: r.session,
				Stream:  stream,
				Message: "failed to read worker output",
				Err:     err,
			})
		}

		return
	}
}

// handleSafely reports false if handle panicked.
func (r *Relay) handleSafely(stream string, handle func([]byte), line []byte) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.diag.Report(diag.Record{
				Kind:    diag.KindRelayError,
				Session: r.session,
				Stream:  stream,
				Message: fmt.Sprintf("relay panicked, discarding further output: %v", p),
			})
			ok = false
		}
	}()

	handle(line)

	return true
}

func (r *Relay) handleStdout(line []byte) {
	if !utf8.Valid(line) {
		r.reportDecodeWarning("stdout", line)
		return
	}

	payload := strings.TrimSpace(string(line))
	if payload == "" {
		return
	}

	r.seq++

	if ce := r.log.Check(zap.DebugLevel, "relaying event"); ce != nil {
		ce.Write(
			zap.Uint64("seq", r.seq),
			zap.String("type", gjson.Get(payload, "type").String()),
		)
	}

	r.events.Publish(events.Event{
		Session: r.session,
		Seq:     r.seq,
		Payload: payload,
	})
}

func (r *Relay) handleStderr(line []byte) {
	if !utf8.Valid(line) {
		r.reportDecodeWarning("stderr", line)
		return
	}

	msg := strings.TrimRight(string(line), "\r\n")
	if strings.TrimSpace(msg) == "" {
		return
	}

	r.diag.Report(diag.Record{
		Kind:    diag.KindStderr,
		Session: r.session,
		Stream:  "stderr",
		Message: msg,
	})
}

func (r *Relay) reportDecodeWarning(stream string, line []byte) {
	r.diag.Report(diag.Record{
		Kind:    diag.KindDecodeWarning,
		Session: r.session,
		Stream:  stream,
		Message: fmt.Sprintf("dropped %d byte line that is not valid UTF-8", len(line)),
	})
}

func isStreamClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}
