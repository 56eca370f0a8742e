package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/lambda-feedback/watchdeck/app"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/events"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	runCmdDescription = `The run command spawns the worker without any http surface
and prints every event it emits to stdout, one JSON line
per event. Diagnostics go to the log on stderr.

This is useful to try out a worker build by hand. The
command blocks until interrupted.`
	runCmd = &cli.Command{
		Name:        "run",
		Usage:       "Spawn the worker and print its events.",
		Description: runCmdDescription,
		Before:      loadConfig,
		Action:      runAction,
	}
)

func runAction(ctx *cli.Context) error {
	app, err := app.New(ctx)
	if err != nil {
		return err
	}

	return app.Run(ctx.Context, fx.Invoke(printEvents(ctx.App.Writer)))
}

// printEvents copies worker events to w for as long as the app runs.
func printEvents(w io.Writer) func(fx.Lifecycle, *events.Hub, *zap.Logger) {
	return func(lc fx.Lifecycle, hub *events.Hub, log *zap.Logger) {
		// subscribe before the worker is spawned, so no event is missed
		sub := hub.Subscribe(0)
		done := make(chan struct{})

		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					defer close(done)
					for evt := range sub.C() {
						if _, err := fmt.Fprintln(w, evt.Payload); err != nil {
							log.Debug("failed to print event", zap.Error(err))
						}
					}
				}()

				return nil
			},
			OnStop: func(context.Context) error {
				sub.Close()
				<-done

				if dropped := sub.Dropped(); dropped > 0 {
					log.Warn("events were dropped", zap.Uint64("dropped", dropped))
				}

				return nil
			},
		})
	}
}

func init() {
	rootApp.Commands = append(rootApp.Commands, runCmd)
}
