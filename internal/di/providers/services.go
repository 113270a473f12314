package providers

import (
	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/collection"
	"github.com/gameshelf/gameshelf-server/internal/logger"
	"github.com/gameshelf/gameshelf-server/internal/service"
	"github.com/gameshelf/gameshelf-server/internal/validation"
)

// ProvideCollectionService provides the collection service.
func ProvideCollectionService(i do.Injector) (*service.CollectionService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	store := do.MustInvoke[*collection.Store](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	validator := do.MustInvoke[*validation.Validator](i)

	return service.NewCollectionService(store, catalog, indexHandle.Index, validator, log.Logger), nil
}
