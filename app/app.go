package app

import (
	"github.com/lambda-feedback/watchdeck/config"
	"github.com/lambda-feedback/watchdeck/internal/reload"
	"github.com/lambda-feedback/watchdeck/internal/shell"
	"github.com/lambda-feedback/watchdeck/internal/sidecar"
	"github.com/lambda-feedback/watchdeck/internal/watcher"
	"github.com/lambda-feedback/watchdeck/util/conf"
	"github.com/lambda-feedback/watchdeck/util/logging"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
)

// New creates the application shell shared by all commands: the worker
// sidecar, the watcher command surface and the reload policy.
func New(ctx *cli.Context) (*shell.Shell, error) {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return nil, err
	}

	config, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return nil, err
	}

	sharedModule := fx.Module(
		"shared",
		// provide global config
		fx.Supply(config),
		// provide worker sidecar
		sidecar.Module(config.Sidecar),
		// provide watcher
		watcher.Module(config.Picker),
		// provide reloader
		reload.Module(config.Reload),
	)

	return shell.New(log, sharedModule), nil
}
