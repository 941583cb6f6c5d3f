package services

import (
	"context"
	"fmt"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/repositories"
)

// CatalogItemLoader coalesces concurrent item lookups into single
// Retrieve calls against the catalog index. It does not cache; the
// orchestrator owns caching.
type CatalogItemLoader struct {
	loader *dataloader.Loader[string, *entities.CatalogItem]
}

// NewCatalogItemLoader creates a loader that waits up to wait for lookups
// to accumulate before issuing a batch.
func NewCatalogItemLoader(index repositories.CatalogIndex, wait time.Duration) *CatalogItemLoader {
	if wait <= 0 {
		wait = 2 * time.Millisecond
	}
	batchFn := func(ctx context.Context, keys []string) []*dataloader.Result[*entities.CatalogItem] {
		results := make([]*dataloader.Result[*entities.CatalogItem], len(keys))
		items, err := index.Retrieve(ctx, keys)

		itemMap := make(map[string]*entities.CatalogItem)
		if err == nil {
			for _, it := range items {
				if it != nil {
					itemMap[it.ID] = it
				}
			}
		}

		for i, key := range keys {
			if err != nil {
				results[i] = &dataloader.Result[*entities.CatalogItem]{Error: err}
			} else if it, ok := itemMap[key]; ok {
				results[i] = &dataloader.Result[*entities.CatalogItem]{Data: it}
			} else {
				results[i] = &dataloader.Result[*entities.CatalogItem]{Error: fmt.Errorf("%w: %s", repositories.ErrItemNotFound, key)}
			}
		}
		return results
	}

	return &CatalogItemLoader{
		loader: dataloader.NewBatchedLoader(batchFn,
			dataloader.WithCache[string, *entities.CatalogItem](&dataloader.NoCache[string, *entities.CatalogItem]{}),
			dataloader.WithWait[string, *entities.CatalogItem](wait),
			dataloader.WithBatchCapacity[string, *entities.CatalogItem](100),
		),
	}
}

// Load returns one item, or an error wrapping repositories.ErrItemNotFound.
func (l *CatalogItemLoader) Load(ctx context.Context, id string) (*entities.CatalogItem, error) {
	return l.loader.Load(ctx, id)()
}

// LoadMany returns the items that resolved, in input order.
func (l *CatalogItemLoader) LoadMany(ctx context.Context, ids []string) []*entities.CatalogItem {
	if len(ids) == 0 {
		return nil
	}
	items, errs := l.loader.LoadMany(ctx, ids)()
	out := make([]*entities.CatalogItem, 0, len(items))
	for i, it := range items {
		if i < len(errs) && errs[i] != nil {
			continue
		}
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}
