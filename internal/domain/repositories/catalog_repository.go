package repositories

import (
	"context"
	"errors"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
)

// ErrItemNotFound is returned when a catalog item id does not resolve.
var ErrItemNotFound = errors.New("catalog item not found")

// CatalogFilter restricts vector, keyword and scroll queries.
type CatalogFilter struct {
	Regions    []entities.Region
	CraftTypes []entities.CraftType
	Festivals  []entities.Festival
	ExcludeIDs []string
	PriceRange *entities.PriceRange
}

// IsEmpty reports whether the filter restricts nothing.
func (f CatalogFilter) IsEmpty() bool {
	return len(f.Regions) == 0 && len(f.CraftTypes) == 0 && len(f.Festivals) == 0 &&
		len(f.ExcludeIDs) == 0 && f.PriceRange == nil
}

// ScrollPage is one page of a scroll over the index.
type ScrollPage struct {
	Items      []*entities.CatalogItem
	NextOffset int // zero when there are no more pages
}

// CatalogIndex is the vector index over catalog items, treated as a
// black-box nearest-neighbour service.
type CatalogIndex interface {
	Upsert(ctx context.Context, item *entities.CatalogItem) error
	Search(ctx context.Context, vector []float32, limit int, filter CatalogFilter) ([]entities.ScoredItem, error)
	KeywordSearch(ctx context.Context, query string, limit int, filter CatalogFilter) ([]entities.ScoredItem, error)
	Scroll(ctx context.Context, filter CatalogFilter, limit, offset int) (*ScrollPage, error)
	Retrieve(ctx context.Context, ids []string) ([]*entities.CatalogItem, error)
	Delete(ctx context.Context, ids []string) error
}
