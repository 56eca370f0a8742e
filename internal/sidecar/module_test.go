package sidecar_test

import (
	"context"
	"strings"
	"testing"

	"github.com/lambda-feedback/watchdeck/internal/sidecar"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/diag"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/supervisor"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestModule_SpawnsOnStartAndStopsOnStop(t *testing.T) {
	done := make(chan struct{})
	code := 0

	h := worker.NewMockHandle(t)
	h.EXPECT().Pid().Return(7).Maybe()
	h.EXPECT().Stdout().Return(strings.NewReader("")).Maybe()
	h.EXPECT().Stderr().Return(strings.NewReader("")).Maybe()
	h.EXPECT().Done().Return(done).Maybe()
	h.EXPECT().ExitEvent().Return(worker.ExitEvent{Code: &code}).Maybe()
	h.EXPECT().CloseInput().Run(func(mock.Arguments) { close(done) }).Return(nil).Once()
	h.EXPECT().Close().Return(nil).Once()

	var starts int
	start := worker.StartFunc(func(context.Context, worker.StartConfig, *zap.Logger) (worker.Handle, error) {
		starts++
		return h, nil
	})

	var sup supervisor.Supervisor
	var recorder *diag.Recorder

	app := fxtest.New(t,
		fx.Supply(zap.NewNop()),
		fx.Provide(func() worker.StartFunc { return start }),
		sidecar.Module(sidecar.Config{}),
		fx.Populate(&sup, &recorder),
	)

	app.RequireStart()

	assert.Equal(t, 1, starts)
	assert.True(t, sup.Status().Running)

	app.RequireStop()

	assert.False(t, sup.Status().Running)

	var terminated bool
	for _, r := range recorder.Records() {
		terminated = terminated || r.Kind == diag.KindTerminated
	}
	assert.True(t, terminated)
}

func TestModule_SpawnFailureFailsStart(t *testing.T) {
	start := worker.StartFunc(func(context.Context, worker.StartConfig, *zap.Logger) (worker.Handle, error) {
		return nil, worker.ErrExecutableNotFound
	})

	app := fx.New(
		fx.NopLogger,
		fx.Supply(zap.NewNop()),
		fx.Provide(func() worker.StartFunc { return start }),
		sidecar.Module(sidecar.Config{}),
	)

	err := app.Start(context.Background())
	require.Error(t, err)

	var spawnErr *supervisor.SpawnError
	assert.ErrorAs(t, err, &spawnErr)
	assert.ErrorIs(t, err, worker.ErrExecutableNotFound)
}
