package handler

import (
	"github.com/lambda-feedback/watchdeck/handler/schema"
	"github.com/lambda-feedback/watchdeck/util/logging"
	"go.uber.org/fx"
)

func Module(config Config) fx.Option {
	return fx.Module("handler",
		// rename logger for module
		logging.DecorateLogger("handler"),
		// provide config
		fx.Supply(config),
		// provide request schema
		fx.Provide(schema.NewRequestSchema),
		// provide handlers
		fx.Provide(NewWatcherHandler),
		fx.Provide(NewLifecycleRpcServer),
		// provide routes
		fx.Provide(NewAddDirectoryRoute),
		fx.Provide(NewRemoveDirectoryRoute),
		fx.Provide(NewRefreshRoute),
		fx.Provide(NewPickRoute),
		fx.Provide(NewRestartRoute),
		fx.Provide(NewDiagnosticsRoute),
		fx.Provide(NewHealthRoute),
		fx.Provide(NewRpcRoute),
	)
}
