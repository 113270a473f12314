package providers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/collection"
	"github.com/gameshelf/gameshelf-server/internal/config"
	"github.com/gameshelf/gameshelf-server/internal/logger"
	"github.com/gameshelf/gameshelf-server/internal/search"
	"github.com/gameshelf/gameshelf-server/internal/sse"
	"github.com/gameshelf/gameshelf-server/internal/storage"
	"github.com/gameshelf/gameshelf-server/internal/watcher"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel  context.CancelFunc
	timeout time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.WithComponent("sse"))

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
		timeout: orDefault(cfg.Server.ShutdownTimeout, shutdownTimeout),
	}, nil
}

// StorageHandle wraps the storage adapter with shutdown capability.
type StorageHandle struct {
	storage.Adapter
}

// Shutdown implements do.Shutdownable.
func (h *StorageHandle) Shutdown() error {
	return h.Close()
}

// ProvideStorage opens the configured storage backend.
func ProvideStorage(i do.Injector) (*StorageHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Storage.DataPath != "" && cfg.Storage.Backend != storage.BackendMemory && cfg.Storage.Backend != storage.BackendRedis {
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o750); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	adapter, err := storage.Open(ctx, storage.Options{
		Backend:   cfg.Storage.Backend,
		Path:      cfg.Storage.BackendPath(),
		RedisURL:  cfg.Storage.RedisURL,
		Namespace: cfg.Storage.Namespace,
	}, log.WithComponent("storage"))
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}

	return &StorageHandle{Adapter: adapter}, nil
}

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the in-memory collection search index.
// The collection store fills it when it hydrates.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.New(log.WithComponent("search"))
	if err != nil {
		return nil, err
	}

	return &SearchIndexHandle{Index: index}, nil
}

// ProvideCollectionStore provides the collection store, hydrated from storage.
func ProvideCollectionStore(i do.Injector) (*collection.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storageHandle := do.MustInvoke[*StorageHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	store, err := collection.New(context.Background(), storageHandle.Adapter,
		collection.WithLogger(log.WithComponent("collection")),
		collection.WithKey(cfg.Storage.Key),
		collection.WithEmitter(sseHandle.Manager),
		collection.WithIndexer(indexHandle.Index),
	)
	if err != nil {
		return nil, err
	}

	docCount, _ := indexHandle.DocumentCount()
	log.Info("Collection initialized", "entries", store.Len(), "indexed", docCount)

	return store, nil
}

// ReloaderHandle runs the external edit watcher for the file backend.
// Reloader is nil when watching is off or the backend is not a file.
type ReloaderHandle struct {
	*watcher.Reloader
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *ReloaderHandle) Shutdown() error {
	if h.Reloader == nil {
		return nil
	}
	h.cancel()
	return h.Stop()
}

// ProvideReloader watches the snapshot file and reloads the collection when
// another process replaces it.
func ProvideReloader(i do.Injector) (*ReloaderHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storageHandle := do.MustInvoke[*StorageHandle](i)
	store := do.MustInvoke[*collection.Store](i)

	file, ok := storage.Base(storageHandle.Adapter).(*storage.File)
	if !cfg.Storage.Watch || !ok {
		return &ReloaderHandle{}, nil
	}

	path := file.Path(storage.ScopedKey(storageHandle.Adapter, store.Key()))
	reloader, err := watcher.NewReloader(log.WithComponent("watcher"), path, store, watcher.Options{})
	if err != nil {
		return nil, fmt.Errorf("watch collection file: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go reloader.Run(ctx)

	log.Info("Watching collection file for external edits", "path", path)

	return &ReloaderHandle{Reloader: reloader, cancel: cancel}, nil
}
