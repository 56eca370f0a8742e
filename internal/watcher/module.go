package watcher

import (
	"github.com/lambda-feedback/watchdeck/internal/picker"
	"go.uber.org/fx"
)

func Module(config picker.Config) fx.Option {
	return fx.Module(
		"watcher",
		// provide picker config
		fx.Supply(config),
		// provide folder picker
		fx.Provide(picker.New),
		// provide watcher
		fx.Provide(
			fx.Annotate(
				New,
				fx.As(new(Watcher)),
			),
		),
	)
}
