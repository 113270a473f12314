package providers

import (
	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/cache"
	"github.com/gameshelf/gameshelf-server/internal/catalog/rawg"
	"github.com/gameshelf/gameshelf-server/internal/config"
	"github.com/gameshelf/gameshelf-server/internal/logger"
	"github.com/gameshelf/gameshelf-server/internal/media/placeholder"
	"github.com/gameshelf/gameshelf-server/internal/service"
)

// RAWGClientHandle wraps the RAWG client with Shutdownable.
type RAWGClientHandle struct {
	*rawg.Client
}

// Shutdown implements do.Shutdownable.
func (h *RAWGClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideRAWGClient provides the RAWG catalog client.
func ProvideRAWGClient(i do.Injector) (*RAWGClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := rawg.New(rawg.Config{
		APIKey:  cfg.Catalog.APIKey,
		BaseURL: cfg.Catalog.BaseURL,
		Timeout: cfg.Catalog.Timeout,
		RPS:     cfg.Catalog.RPS,
		Burst:   cfg.Catalog.Burst,
	}, log.WithComponent("rawg"))

	if !client.Configured() {
		log.Warn("RAWG_API_KEY is not set; catalog routes will report UPSTREAM errors")
	}

	return &RAWGClientHandle{Client: client}, nil
}

// CatalogCacheHandle holds the catalog response cache and the placeholder cache.
type CatalogCacheHandle struct {
	Responses    *cache.Cache[any]
	Placeholders *cache.Cache[string]
}

// Shutdown implements do.Shutdownable.
func (h *CatalogCacheHandle) Shutdown() error {
	h.Responses.Close()
	h.Placeholders.Close()
	return nil
}

// ProvideCatalogCache provides the catalog caches.
func ProvideCatalogCache(i do.Injector) (*CatalogCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	responses, err := cache.New[any](cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL)
	if err != nil {
		return nil, err
	}
	// Placeholders never change for a given image URL.
	placeholders, err := cache.New[string](cfg.Catalog.CacheSize, 24*cfg.Catalog.CacheTTL)
	if err != nil {
		responses.Close()
		return nil, err
	}

	return &CatalogCacheHandle{Responses: responses, Placeholders: placeholders}, nil
}

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*RAWGClientHandle](i)
	caches := do.MustInvoke[*CatalogCacheHandle](i)

	generator := placeholder.New(caches.Placeholders, log.WithComponent("placeholder"))

	return service.NewCatalogService(client.Client, caches.Responses, generator, client.Configured(), log.WithComponent("catalog")), nil
}
