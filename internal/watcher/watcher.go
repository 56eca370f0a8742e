// Package watcher is the application-facing command surface for the
// file-watcher worker.
package watcher

import (
	"context"
	"fmt"

	"github.com/lambda-feedback/watchdeck/internal/picker"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/command"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/supervisor"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Watcher issues commands to the worker. Commands are fire-and-forget:
// results arrive later as events from the worker.
type Watcher interface {
	// AddDirectory asks the worker to start watching path.
	AddDirectory(ctx context.Context, path string) error

	// RemoveDirectory asks the worker to stop watching the directory with id.
	RemoveDirectory(ctx context.Context, id string) error

	// RequestDirectories asks the worker to report all watched directories.
	RequestDirectories(ctx context.Context) error

	// PickDirectory lets the user choose a directory. ok is false if
	// the user cancelled.
	PickDirectory(ctx context.Context) (path string, ok bool, err error)

	// Restart replaces the worker with a freshly spawned one.
	Restart(ctx context.Context) error

	// Status reports on the worker process.
	Status() supervisor.Status
}

type SidecarWatcher struct {
	supervisor supervisor.Supervisor
	picker     picker.Picker
	log        *zap.Logger
}

var _ Watcher = (*SidecarWatcher)(nil)

type Params struct {
	fx.In

	Supervisor supervisor.Supervisor
	Picker     picker.Picker
	Log        *zap.Logger
}

func New(params Params) *SidecarWatcher {
	return &SidecarWatcher{
		supervisor: params.Supervisor,
		picker:     params.Picker,
		log:        params.Log.Named("watcher"),
	}
}

func (w *SidecarWatcher) AddDirectory(ctx context.Context, path string) error {
	w.log.Debug("adding directory", zap.String("path", path))
	return w.send(ctx, command.EncodeAddDirectory(path))
}

func (w *SidecarWatcher) RemoveDirectory(ctx context.Context, id string) error {
	w.log.Debug("removing directory", zap.String("id", id))
	return w.send(ctx, command.EncodeRemoveDirectory(id))
}

func (w *SidecarWatcher) RequestDirectories(ctx context.Context) error {
	return w.send(ctx, command.EncodeListDirectories())
}

func (w *SidecarWatcher) PickDirectory(ctx context.Context) (string, bool, error) {
	path, ok, err := w.picker.Pick(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to pick directory: %w", err)
	}

	return path, ok, nil
}

func (w *SidecarWatcher) Restart(ctx context.Context) error {
	w.log.Info("restarting worker")
	return w.supervisor.Spawn(ctx)
}

func (w *SidecarWatcher) Status() supervisor.Status {
	return w.supervisor.Status()
}

func (w *SidecarWatcher) send(ctx context.Context, line string) error {
	if err := w.supervisor.Send(ctx, line); err != nil {
		w.log.Warn("failed to send command", zap.Error(err))
		return err
	}

	return nil
}
