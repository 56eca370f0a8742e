package diag_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/diag"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func exitCode(code int) *worker.ExitEvent {
	return &worker.ExitEvent{Code: &code}
}

func TestRecorder_KeepsMostRecentRecords(t *testing.T) {
	r := diag.NewRecorder(3)

	for i := 0; i < 5; i++ {
		r.Report(diag.Record{Kind: diag.KindStderr, Message: fmt.Sprint(i)})
	}

	records := r.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "2", records[0].Message)
	assert.Equal(t, "3", records[1].Message)
	assert.Equal(t, "4", records[2].Message)
	assert.False(t, records[0].Time.IsZero())
}

func TestRecorder_PartiallyFilled(t *testing.T) {
	r := diag.NewRecorder(3)

	r.Report(diag.Record{Message: "a"})

	records := r.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].Message)
}

func TestMulti_ReportsToAllSinksWithTimestamp(t *testing.T) {
	var mu sync.Mutex
	var got []diag.Record

	collect := diag.SinkFunc(func(r diag.Record) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, r)
	})

	diag.Multi(collect, collect).Report(diag.Record{Kind: diag.KindStderr})

	require.Len(t, got, 2)
	assert.False(t, got[0].Time.IsZero())
}

func TestLogSink_UsesLevelPerKind(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := diag.NewLogSink(zap.New(core))

	sink.Report(diag.Record{Kind: diag.KindStderr, Message: "stderr line", Stream: "stderr"})
	sink.Report(diag.Record{Kind: diag.KindSpawnFailure, Message: "spawn", Err: assert.AnError})
	sink.Report(diag.Record{Kind: diag.KindTerminated, Message: "clean exit", Exit: exitCode(0)})
	sink.Report(diag.Record{Kind: diag.KindTerminated, Message: "crash", Exit: exitCode(1)})

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[3].Level)
	assert.Equal(t, "stderr", entries[0].ContextMap()["stream"])
}

func TestRecord_MarshalJSON_IncludesError(t *testing.T) {
	data, err := json.Marshal(diag.Record{
		Kind:    diag.KindSpawnFailure,
		Message: "failed",
		Err:     errors.New("boom"),
	})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "spawn_failure", out["kind"])
	assert.Equal(t, "boom", out["error"])
}

func newSentryHub(t *testing.T) (*sentry.Hub, func() []*sentry.Event) {
	t.Helper()

	var mu sync.Mutex
	var captured []*sentry.Event

	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			defer mu.Unlock()
			captured = append(captured, event)
			// drop the event, nothing is sent
			return nil
		},
	})
	require.NoError(t, err)

	return sentry.NewHub(client, sentry.NewScope()), func() []*sentry.Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]*sentry.Event(nil), captured...)
	}
}

func TestSentrySink_CapturesSpawnFailures(t *testing.T) {
	hub, captured := newSentryHub(t)
	sink := diag.NewSentrySink(hub)

	sink.Report(diag.Record{
		Kind:    diag.KindSpawnFailure,
		Session: "s1",
		Message: "spawn failed",
		Err:     assert.AnError,
	})

	events := captured()
	require.Len(t, events, 1)
	assert.Equal(t, "spawn_failure", events[0].Tags["kind"])
	assert.Equal(t, "s1", events[0].Tags["session"])
}

func TestSentrySink_IgnoresCleanExitsAndStderr(t *testing.T) {
	hub, captured := newSentryHub(t)
	sink := diag.NewSentrySink(hub)

	sink.Report(diag.Record{Kind: diag.KindTerminated, Exit: exitCode(0)})
	sink.Report(diag.Record{Kind: diag.KindStderr, Message: "noise"})

	assert.Empty(t, captured())

	sink.Report(diag.Record{Kind: diag.KindTerminated, Message: "crashed", Exit: exitCode(2)})

	events := captured()
	require.Len(t, events, 1)
	assert.Equal(t, "crashed", events[0].Message)
}
