package watcher

import (
	"context"
	"log/slog"
)

// Reloadable is anything that can re-read its state from disk.
type Reloadable interface {
	Reload(ctx context.Context) (bool, error)
}

// Reloader calls Reload on a target whenever its backing file settles after a change.
type Reloader struct {
	watcher *Watcher
	target  Reloadable
	logger  *slog.Logger
}

// NewReloader watches path and reloads target on change.
func NewReloader(logger *slog.Logger, path string, target Reloadable, opts Options) (*Reloader, error) {
	w, err := New(logger, opts)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return &Reloader{watcher: w, target: target, logger: logger}, nil
}

// Run blocks until ctx is cancelled or the reloader is stopped.
func (r *Reloader) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		_ = r.watcher.Start(ctx)
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-r.watcher.Errors():
			r.logger.Warn("file watcher error", "error", err)
		case ev := <-r.watcher.Events():
			if ev.Op != OpChanged {
				// A deleted snapshot is not an edit; keep what is in memory.
				r.logger.Warn("collection file removed externally", "path", ev.Path)
				continue
			}
			changed, err := r.target.Reload(ctx)
			if err != nil {
				r.logger.Warn("reload after external edit failed", "path", ev.Path, "error", err)
				continue
			}
			if changed {
				r.logger.Info("collection reloaded after external edit", "path", ev.Path)
			}
		}
	}
}

// Stop releases the underlying watcher.
func (r *Reloader) Stop() error {
	return r.watcher.Stop()
}
