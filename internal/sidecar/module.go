// Package sidecar wires the worker supervisor, its output relay and the
// event and diagnostic fan-out into the application.
package sidecar

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/diag"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/events"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/supervisor"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/worker"
	"github.com/lambda-feedback/watchdeck/util/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module(config Config) fx.Option {
	return fx.Module(
		"sidecar",
		// rename logger for module
		logging.DecorateLogger("sidecar"),
		// provide sidecar config
		fx.Supply(config, config.Events, config.Worker),
		// provide event hub
		fx.Provide(NewHub),
		// provide diagnostics
		fx.Provide(NewRecorder),
		fx.Provide(NewDiagnostics),
		// provide supervisor
		fx.Provide(
			fx.Annotate(
				NewLifecycleSupervisor,
				fx.As(new(supervisor.Supervisor)),
			),
		),
		// invoke supervisor
		fx.Invoke(func(supervisor.Supervisor) {}),
	)
}

func NewHub(log *zap.Logger) *events.Hub {
	return events.NewHub(log)
}

func NewRecorder(config Config) *diag.Recorder {
	return diag.NewRecorder(config.Diagnostics.History)
}

type DiagnosticsParams struct {
	fx.In

	Config   Config
	Recorder *diag.Recorder
	Log      *zap.Logger
}

// NewDiagnostics fans records out to the log, the in-memory recorder
// and, if enabled and initialised, Sentry.
func NewDiagnostics(params DiagnosticsParams) diag.Sink {
	sinks := []diag.Sink{
		diag.NewLogSink(params.Log),
		params.Recorder,
	}

	if params.Config.Diagnostics.Sentry && sentry.CurrentHub().Client() != nil {
		sinks = append(sinks, diag.NewSentrySink(nil))
	}

	return diag.Multi(sinks...)
}

type SupervisorParams struct {
	fx.In

	Config      supervisor.Config
	StartFunc   worker.StartFunc `optional:"true"`
	Events      *events.Hub
	Diagnostics diag.Sink
	Log         *zap.Logger
}

// NewLifecycleSupervisor spawns the worker when the application starts
// and shuts it down when it stops. A spawn failure fails the start.
func NewLifecycleSupervisor(params SupervisorParams, lc fx.Lifecycle) *supervisor.WorkerSupervisor {
	s := supervisor.New(supervisor.Params{
		Config:      params.Config,
		StartFunc:   params.StartFunc,
		Events:      params.Events,
		Diagnostics: params.Diagnostics,
		Log:         params.Log,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Spawn(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return s.Shutdown(ctx)
		},
	})

	return s
}
