package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/lambda-feedback/watchdeck/app"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/command"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/events"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/supervisor"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	sendCmdDescription = `The send command spawns the worker, sends it a single
command and prints the events the worker emits within the
wait period. Afterwards the worker is shut down.`
	waitFlag = &cli.DurationFlag{
		Name:    "wait",
		Aliases: []string{"w"},
		Usage:   "how long to print events after sending the command.",
		Value:   time.Second,
	}
	sendCmd = &cli.Command{
		Name:        "send",
		Usage:       "Send a single command to a fresh worker.",
		Description: sendCmdDescription,
		Before:      loadConfig,
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Start watching a directory.",
				ArgsUsage: "<path>",
				Flags:     []cli.Flag{waitFlag},
				Action: sendAction(func(ctx *cli.Context) (string, error) {
					if ctx.NArg() != 1 {
						return "", fmt.Errorf("expected exactly one path, got %d args", ctx.NArg())
					}
					return command.EncodeAddDirectory(ctx.Args().First()), nil
				}),
			},
			{
				Name:      "remove",
				Usage:     "Stop watching the directory with the given id.",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{waitFlag},
				Action: sendAction(func(ctx *cli.Context) (string, error) {
					if ctx.NArg() != 1 {
						return "", fmt.Errorf("expected exactly one id, got %d args", ctx.NArg())
					}
					return command.EncodeRemoveDirectory(ctx.Args().First()), nil
				}),
			},
			{
				Name:  "list",
				Usage: "Print the watched directories.",
				Flags: []cli.Flag{waitFlag},
				Action: sendAction(func(*cli.Context) (string, error) {
					return command.EncodeListDirectories(), nil
				}),
			},
		},
	}
)

type sendParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Supervisor supervisor.Supervisor
	Hub        *events.Hub
	Log        *zap.Logger
}

func sendAction(encode func(*cli.Context) (string, error)) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		line, err := encode(ctx)
		if err != nil {
			return err
		}

		app, err := app.New(ctx)
		if err != nil {
			return err
		}

		return app.Run(ctx.Context, fx.Invoke(
			sendOnce(line, ctx.Duration("wait"), ctx.App.Writer),
		))
	}
}

// sendOnce sends line once the worker is up, prints the events arriving
// within wait and then shuts the app down.
func sendOnce(line string, wait time.Duration, w io.Writer) func(sendParams) {
	return func(params sendParams) {
		sub := params.Hub.Subscribe(0)

		params.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := params.Supervisor.Send(ctx, line); err != nil {
					return err
				}

				go func() {
					defer func() {
						if err := params.Shutdowner.Shutdown(); err != nil {
							params.Log.Debug("failed to request shutdown", zap.Error(err))
						}
					}()

					timer := time.NewTimer(wait)
					defer timer.Stop()

					for {
						select {
						case evt, ok := <-sub.C():
							if !ok {
								return
							}
							fmt.Fprintln(w, evt.Payload)
						case <-timer.C:
							return
						}
					}
				}()

				return nil
			},
			OnStop: func(context.Context) error {
				sub.Close()
				return nil
			},
		})
	}
}

func init() {
	rootApp.Commands = append(rootApp.Commands, sendCmd)
}
