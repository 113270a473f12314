// Package main provides the entry point for the GameShelf server application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/collection"
	"github.com/gameshelf/gameshelf-server/internal/config"
	"github.com/gameshelf/gameshelf-server/internal/di"
	"github.com/gameshelf/gameshelf-server/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "gameshelf: failed to start: %v\n", err)
		_ = injector.Shutdown()
		return 1
	}

	log := do.MustInvoke[*logger.Logger](injector)
	cfg := do.MustInvoke[*config.Config](injector)
	store := do.MustInvoke[*collection.Store](injector)

	log.Info("GameShelf ready",
		"addr", cfg.ListenAddr(),
		"storage", cfg.Storage.Backend,
		"games", store.Len(),
		"catalog", cfg.Catalog.APIKey != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	// Restore default handling so a second signal kills a stuck shutdown.
	stop()

	log.Info("Shutting down")

	// Handles stop in reverse dependency order: the HTTP server drains first,
	// storage closes last.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	log.Info("Shutdown complete")
	return 0
}
