package server

import (
	"github.com/lambda-feedback/watchdeck/util/logging"
	"go.uber.org/fx"
)

func Module(config HttpConfig) fx.Option {
	return fx.Module("server",
		// rename logger for module
		logging.DecorateLogger("server"),
		// provide config
		fx.Supply(config),
		// provide server
		fx.Provide(NewLifecycleServer),
		// invoke server
		fx.Invoke(func(*HttpServer) {}),
	)
}
