// Package picker asks the user to choose a directory using a native
// dialog.
package picker

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrPickerUnavailable = errors.New("no folder picker available")

const waitDelay = time.Second

type Picker interface {
	// Pick shows the dialog and blocks until the user has chosen a
	// directory or cancelled. ok is false if the user cancelled.
	Pick(ctx context.Context) (path string, ok bool, err error)
}

type Config struct {
	// Command is the dialog program to run. It must print the chosen
	// path to stdout and exit with status 1 if the user cancelled.
	// Defaults to a platform-specific dialog.
	Command string `conf:"command"`

	// Args are passed to Command.
	Args []string `conf:"args"`

	// Title is shown by the platform default dialog.
	Title string `conf:"title"`
}

// New creates a picker for config, falling back to the platform default
// dialog if no command is configured.
func New(config Config, log *zap.Logger) Picker {
	if config.Command == "" {
		title := config.Title
		if title == "" {
			title = "Select a folder to watch"
		}
		config.Command, config.Args = defaultCommand(title)
	}

	return &CommandPicker{
		command: config.Command,
		args:    config.Args,
		log:     log.Named("picker"),
	}
}

// CommandPicker runs an external dialog program.
type CommandPicker struct {
	command string
	args    []string
	log     *zap.Logger
}

func (p *CommandPicker) Pick(ctx context.Context) (string, bool, error) {
	if p.command == "" {
		return "", false, ErrPickerUnavailable
	}

	log := p.log.With(zap.String("command", p.command))

	cmd := exec.CommandContext(ctx, p.command, p.args...)

	// children of the dialog may keep stdout open after it was killed
	cmd.WaitDelay = waitDelay

	out, err := cmd.Output()

	var exitErr *exec.ExitError
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return "", false, fmt.Errorf("%w: %v", ErrPickerUnavailable, err)
	case ctx.Err() != nil:
		return "", false, ctx.Err()
	case errors.As(err, &exitErr) && exitErr.ExitCode() == 1:
		log.Debug("picker cancelled")
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("folder picker failed: %w", err)
	}

	path := strings.TrimRight(string(out), "\r\n")
	if strings.TrimSpace(path) == "" {
		log.Debug("picker returned no path")
		return "", false, nil
	}

	log.Debug("picked directory", zap.String("path", path))

	return path, true, nil
}

// StaticPicker always returns the same result. Useful for headless
// setups and tests.
type StaticPicker struct {
	Path string
	OK   bool
	Err  error
}

func (p StaticPicker) Pick(context.Context) (string, bool, error) {
	return p.Path, p.OK, p.Err
}
