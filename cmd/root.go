package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lambda-feedback/watchdeck/config"
	"github.com/lambda-feedback/watchdeck/internal/shell"
	"github.com/lambda-feedback/watchdeck/util/conf"
	"github.com/lambda-feedback/watchdeck/util/logging"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	appName  = "watchdeck"
	appUsage = `A host for a file-watcher worker process. Spawns the worker,
relays commands to its stdin and its stdout events to subscribers.`
	rootApp = &cli.App{
		Name:            appName,
		Usage:           appUsage,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			// general flags
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "set the log level. Options: debug, info, warn, error, panic, fatal.",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "set the log format. Options: production, development.",
				EnvVars: []string{"LOG_FORMAT"},
			},
			&cli.PathFlag{
				Name:    "config",
				Usage:   "load configuration from a json file.",
				EnvVars: []string{"WATCHDECK_CONFIG"},
			},
			&cli.PathFlag{
				Name:    "env-file",
				Usage:   "load WATCHDECK_ variables from a dotenv file.",
				EnvVars: []string{"WATCHDECK_ENV_FILE"},
			},
			// worker flags
			&cli.StringFlag{
				Name:     "command",
				Usage:    "the name or path of the worker executable.",
				Aliases:  []string{"c"},
				Category: "worker",
			},
			&cli.StringSliceFlag{
				Name:     "arg",
				Usage:    "additional arguments to pass to the worker process.",
				Aliases:  []string{"a"},
				Category: "worker",
			},
			&cli.PathFlag{
				Name:     "cwd",
				Usage:    "the working directory of the worker process.",
				Category: "worker",
			},
			&cli.BoolFlag{
				Name:     "reload",
				Usage:    "respawn the worker when its executable changes.",
				Category: "worker",
			},
		},
		Before: func(ctx *cli.Context) error {
			// create the logger
			log, err := createLogger(ctx)
			if err != nil {
				return err
			}

			// inject logger into cli context
			ctx.Context = logging.ContextWithLogger(ctx.Context, log)

			return nil
		},
		After: func(ctx *cli.Context) error {
			log, err := logging.LoggerFromContext(ctx.Context)
			if err != nil {
				return err
			}

			_ = log.Sync()

			return nil
		},
	}
)

// cliMap maps flag names to config keys where they differ.
var cliMap = map[string]string{
	"command": "worker.cmd",
	"arg":     "worker.args",
	"cwd":     "worker.cwd",
	"reload":  "reload.enabled",
	"host":    "http.host",
	"port":    "http.port",
	"h2c":     "http.h2c",
}

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:               "version",
		Usage:              "print the version",
		DisableDefaultText: true,
	}
}

// loadConfig parses the config and injects it into the cli context. It
// runs as the Before hook of each command, so command flags are seen.
func loadConfig(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	cfg, err := conf.Parse[config.Config](conf.ParseOptions{
		Cli:       ctx,
		CliMap:    cliMap,
		Defaults:  config.DefaultConfig,
		EnvPrefix: config.EnvPrefix,
		EnvFile:   ctx.Path("env-file"),
		FileName:  ctx.Path("config"),
		Log:       log,
	})
	if err != nil {
		return err
	}

	ctx.Context = conf.ContextWithConfig(ctx.Context, cfg)

	return nil
}

type ExecuteParams struct {
	Version  string
	Compiled time.Time
}

// Execute runs the cli with the process arguments and returns the exit
// code for the process.
func Execute(params ExecuteParams) int {
	rootApp.Version = params.Version
	rootApp.Compiled = params.Compiled

	return run(context.Background(), os.Args)
}

func run(ctx context.Context, args []string) int {
	err := rootApp.RunContext(ctx, args)

	// if app exited without error, return
	if err == nil {
		return 0
	}

	// exit errors without a cause have been logged already
	if !shell.IsExitError(err) || errors.Unwrap(err) != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
	}

	return shell.ExitCode(err)
}

func createLogger(ctx *cli.Context) (*zap.Logger, error) {
	level := getLogLevelFromCLI(ctx)
	format := getLogFormatFromCLI(ctx)

	var config zap.Config
	if format == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	config.InitialFields = map[string]any{
		"app": appName,
	}

	config.Level = level

	return config.Build()
}

func getLogFormatFromCLI(ctx *cli.Context) string {
	format := ctx.String("log-format")
	if format != "" {
		return format
	}

	return "production"
}

func getLogLevelFromCLI(ctx *cli.Context) zap.AtomicLevel {
	lvl := ctx.String("log-level")

	if atom, err := zap.ParseAtomicLevel(lvl); err == nil {
		return atom
	}

	return zap.NewAtomicLevelAt(zap.InfoLevel)
}
