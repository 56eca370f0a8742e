package reload

import (
	"context"
	"fmt"

	"github.com/lambda-feedback/watchdeck/internal/sidecar/supervisor"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/worker"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module(config Config) fx.Option {
	return fx.Module(
		"reload",
		// provide reload config
		fx.Supply(config),
		// provide reloader
		fx.Provide(NewLifecycleReloader),
		// invoke reloader
		fx.Invoke(func(*Reloader) {}),
	)
}

type LifecycleParams struct {
	fx.In

	// Context is the application context, respawns are bound to it
	Context context.Context

	Config     Config
	Worker     supervisor.Config
	Supervisor supervisor.Supervisor
	Log        *zap.Logger
}

// NewLifecycleReloader returns nil if reloading is disabled.
func NewLifecycleReloader(params LifecycleParams, lc fx.Lifecycle) (*Reloader, error) {
	if !params.Config.Enabled {
		return nil, nil
	}

	path, err := worker.Locate(params.Worker.Start.Cmd, params.Worker.Start.SearchDirs)
	if err != nil {
		return nil, fmt.Errorf("failed to locate worker for reloading: %w", err)
	}

	r, err := New(Params{
		Config:  params.Config,
		Path:    path,
		Spawner: params.Supervisor,
		Log:     params.Log,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return r.Start(params.Context)
		},
		OnStop: func(context.Context) error {
			return r.Stop()
		},
	})

	return r, nil
}
