package cmd

import (
	"github.com/lambda-feedback/watchdeck/app"
	"github.com/lambda-feedback/watchdeck/config"
	"github.com/lambda-feedback/watchdeck/handler"
	"github.com/lambda-feedback/watchdeck/internal/server"
	"github.com/lambda-feedback/watchdeck/util/conf"
	"github.com/urfave/cli/v2"
)

var (
	serveCmdDescription = `The serve command spawns the worker and starts a http server
	exposing the watcher. Commands are accepted over REST and
	JSON-RPC, worker events are streamed to JSON-RPC subscribers
	connected over websocket.

	The command blocks until interrupted, then shuts the worker
	down gracefully.`
	serveCmd = &cli.Command{
		Name:        "serve",
		Usage:       "Spawn the worker and serve the watcher over http.",
		Description: serveCmdDescription,
		Before:      loadConfig,
		Action:      serveAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "host",
				Aliases:  []string{"H"},
				Usage:    "The host to listen on.",
				Category: "http",
				EnvVars:  []string{"HTTP_HOST"},
			},
			&cli.IntFlag{
				Name:     "port",
				Aliases:  []string{"P"},
				Usage:    "The port to listen on.",
				Category: "http",
				EnvVars:  []string{"HTTP_PORT"},
			},
			&cli.BoolFlag{
				Name:     "h2c",
				Usage:    "Enable HTTP/2 cleartext upgrade.",
				Category: "http",
				EnvVars:  []string{"HTTP_H2C"},
			},
		},
	}
)

func serveAction(ctx *cli.Context) error {
	cfg, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return err
	}

	app, err := app.New(ctx)
	if err != nil {
		return err
	}

	return app.Run(ctx.Context,
		handler.Module(cfg.Handler),
		server.Module(cfg.Http),
	)
}

func init() {
	rootApp.Commands = append(rootApp.Commands, serveCmd)
}
