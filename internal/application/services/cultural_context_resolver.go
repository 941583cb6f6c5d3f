package services

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
)

// CulturalContextResolver resolves and caches the cultural context of
// catalog items by id, so each item is analysed at most once per TTL.
type CulturalContextResolver struct {
	items    *CatalogItemLoader
	analyzer *CulturalAnalyzerService
	cache    *expirable.LRU[string, entities.CulturalContext]
}

// NewCulturalContextResolver creates a resolver with its own context cache.
func NewCulturalContextResolver(items *CatalogItemLoader, analyzer *CulturalAnalyzerService, size int, ttl time.Duration) *CulturalContextResolver {
	if size <= 0 {
		size = 10000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CulturalContextResolver{
		items:    items,
		analyzer: analyzer,
		cache:    expirable.NewLRU[string, entities.CulturalContext](size, nil, ttl),
	}
}

// ResolveContext loads the item and returns its context.
func (r *CulturalContextResolver) ResolveContext(ctx context.Context, itemID string) (entities.CulturalContext, error) {
	if cc, ok := r.cache.Get(itemID); ok {
		return cc.Clone(), nil
	}
	item, err := r.items.Load(ctx, itemID)
	if err != nil {
		return entities.CulturalContext{}, err
	}
	return r.ContextForItem(ctx, item), nil
}

// ContextForItem returns the context of an already loaded item.
func (r *CulturalContextResolver) ContextForItem(ctx context.Context, item *entities.CatalogItem) entities.CulturalContext {
	if cc, ok := r.cache.Get(item.ID); ok {
		return cc.Clone()
	}
	cc := r.analyzer.ContextFor(ctx, item)
	r.cache.Add(item.ID, cc)
	return cc.Clone()
}

// Candidates resolves contexts for scored search results. Items without a
// stored or cached context are analysed together in bounded batches. Only
// results carrying a vector similarity pass one on to the candidate.
func (r *CulturalContextResolver) Candidates(ctx context.Context, results []entities.ScoredItem, exclude map[string]struct{}) []Candidate {
	seen := make(map[string]struct{}, len(exclude)+len(results))
	for id := range exclude {
		seen[id] = struct{}{}
	}
	out := make([]Candidate, 0, len(results))
	var pending []*entities.CatalogItem
	var pendingIdx []int

	for _, res := range results {
		if res.Item == nil {
			continue
		}
		if _, skip := seen[res.Item.ID]; skip {
			continue
		}
		seen[res.Item.ID] = struct{}{}
		c := Candidate{Item: res.Item}
		if res.VectorScore != nil {
			vector := *res.VectorScore
			c.VectorScore = &vector
		}
		switch cc, ok := r.cache.Get(res.Item.ID); {
		case ok:
			c.Context = cc.Clone()
		case res.Item.Cultural != nil:
			c.Context = res.Item.Cultural.Clone()
			r.cache.Add(res.Item.ID, c.Context)
		default:
			pending = append(pending, res.Item)
			pendingIdx = append(pendingIdx, len(out))
		}
		out = append(out, c)
	}

	if len(pending) > 0 {
		analysed := r.analyzer.AnalyzeBatch(ctx, pending)
		for i, a := range analysed {
			out[pendingIdx[i]].Context = a.Context
			if a.Tier != TierMinimal {
				r.cache.Add(pending[i].ID, a.Context)
			}
		}
	}
	return out
}

// Clear drops every cached context and returns how many were held.
func (r *CulturalContextResolver) Clear() int {
	n := r.cache.Len()
	r.cache.Purge()
	return n
}

// Forget drops the cached context of one item.
func (r *CulturalContextResolver) Forget(itemID string) bool {
	return r.cache.Remove(itemID)
}

// EvictExpired removes expired contexts.
func (r *CulturalContextResolver) EvictExpired() int {
	return evictExpired(r.cache)
}

// Len returns the number of cached contexts.
func (r *CulturalContextResolver) Len() int {
	return r.cache.Len()
}
