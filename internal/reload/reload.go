// Package reload respawns the worker when its executable changes on
// disk. It is meant for development, where the worker is rebuilt while
// the host keeps running.
package reload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDebounce = 500 * time.Millisecond

type Config struct {
	// Enabled turns on respawning when the worker executable changes.
	Enabled bool `conf:"enabled"`

	// Debounce is the quiet period after the last change before the
	// worker is respawned.
	Debounce time.Duration `conf:"debounce"`
}

// Spawner is the part of the supervisor the reloader drives.
type Spawner interface {
	Spawn(ctx context.Context) error
}

type Params struct {
	// Config is the reload config
	Config Config

	// Path is the worker executable to watch
	Path string

	// Spawner is asked to respawn the worker on changes
	Spawner Spawner

	// Log is the logger to use for the reloader
	Log *zap.Logger
}

// Reloader watches the directory containing the executable, as editors
// and build tools often replace files instead of writing them in place.
type Reloader struct {
	path     string
	debounce time.Duration
	spawner  Spawner

	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	log *zap.Logger
}

func New(params Params) (*Reloader, error) {
	if params.Path == "" {
		return nil, errors.New("no executable to watch")
	}

	path, err := filepath.Abs(params.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable path: %w", err)
	}

	debounce := params.Config.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Reloader{
		path:     path,
		debounce: debounce,
		spawner:  params.Spawner,
		log:      params.Log.Named("reload").With(zap.String("path", path)),
	}, nil
}

// Start begins watching. Respawns run with a context derived from ctx
// and are cancelled by Stop.
func (r *Reloader) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(r.path), err)
	}

	ctx, cancel := context.WithCancel(ctx)

	r.watcher = watcher
	r.cancel = cancel
	r.debouncer = newDebouncer(r.debounce, func() {
		r.respawn(ctx)
	})

	r.wg.Add(1)
	go r.run(ctx)

	r.log.Info("watching worker executable for changes")

	return nil
}

func (r *Reloader) Stop() error {
	if r.watcher == nil {
		return nil
	}

	r.cancel()
	r.debouncer.stop()

	err := r.watcher.Close()

	r.wg.Wait()

	return err
}

func (r *Reloader) run(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}

			if !r.isRelevant(event) {
				continue
			}

			r.log.Debug("executable changed", zap.Stringer("op", event.Op))

			r.debouncer.trigger()

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}

			r.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (r *Reloader) isRelevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != r.path {
		return false
	}

	return event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) ||
		event.Has(fsnotify.Chmod)
}

func (r *Reloader) respawn(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	r.log.Info("respawning worker")

	if err := r.spawner.Spawn(ctx); err != nil {
		r.log.Error("failed to respawn worker", zap.Error(err))
	}
}
