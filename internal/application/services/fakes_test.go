package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/providers"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/repositories"
)

// fakeCatalogIndex is an in-memory CatalogIndex with cosine vector search
// and token-count keyword search.
type fakeCatalogIndex struct {
	mu            sync.Mutex
	items         map[string]*entities.CatalogItem
	retrieveCalls int
	searchErr     error
}

func newFakeCatalogIndex(items ...*entities.CatalogItem) *fakeCatalogIndex {
	idx := &fakeCatalogIndex{items: make(map[string]*entities.CatalogItem)}
	for _, it := range items {
		idx.items[it.ID] = it
	}
	return idx
}

func (f *fakeCatalogIndex) Upsert(ctx context.Context, item *entities.CatalogItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.ID] = item
	return nil
}

func (f *fakeCatalogIndex) Search(ctx context.Context, vector []float32, limit int, filter repositories.CatalogFilter) ([]entities.ScoredItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []entities.ScoredItem
	for _, it := range f.filtered(filter) {
		if len(it.Vector) == 0 {
			continue
		}
		score := cosine32(vector, it.Vector)
		out = append(out, entities.ScoredItem{Item: it, Score: score}.WithVectorScore(score))
	}
	return rankScored(out, limit), nil
}

func (f *fakeCatalogIndex) KeywordSearch(ctx context.Context, query string, limit int, filter repositories.CatalogFilter) ([]entities.ScoredItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tokens := strings.Fields(strings.ToLower(query))
	var out []entities.ScoredItem
	for _, it := range f.filtered(filter) {
		text := strings.ToLower(it.Text())
		hits := 0
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				hits++
			}
		}
		if hits > 0 {
			out = append(out, entities.ScoredItem{Item: it, Score: float64(hits)})
		}
	}
	return rankScored(out, limit), nil
}

func (f *fakeCatalogIndex) Scroll(ctx context.Context, filter repositories.CatalogFilter, limit, offset int) (*repositories.ScrollPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.filtered(filter)
	page := &repositories.ScrollPage{}
	if offset >= len(items) {
		return page, nil
	}
	end := min(offset+limit, len(items))
	page.Items = items[offset:end]
	if end < len(items) {
		page.NextOffset = end
	}
	return page, nil
}

func (f *fakeCatalogIndex) Retrieve(ctx context.Context, ids []string) ([]*entities.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieveCalls++
	var out []*entities.CatalogItem
	for _, id := range ids {
		if it, ok := f.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeCatalogIndex) Delete(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.items, id)
	}
	return nil
}

func (f *fakeCatalogIndex) filtered(filter repositories.CatalogFilter) []*entities.CatalogItem {
	exclude := toSet(filter.ExcludeIDs)
	var out []*entities.CatalogItem
	for _, it := range f.items {
		if _, ok := exclude[it.ID]; ok {
			continue
		}
		if !filter.PriceRange.Contains(it.Price) {
			continue
		}
		if len(filter.Regions) > 0 && (it.Cultural == nil || !containsValue(filter.Regions, it.Cultural.Region)) {
			continue
		}
		if len(filter.CraftTypes) > 0 && (it.Cultural == nil || !containsValue(filter.CraftTypes, it.Cultural.CraftType)) {
			continue
		}
		if len(filter.Festivals) > 0 {
			if it.Cultural == nil {
				continue
			}
			match := false
			for _, fest := range filter.Festivals {
				match = match || it.Cultural.HasFestival(fest)
			}
			if !match {
				continue
			}
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func containsValue[T comparable](values []T, v T) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func rankScored(items []entities.ScoredItem, limit int) []entities.ScoredItem {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Item.ID < items[j].Item.ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func cosine32(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// fakeCache is a CacheProvider backed by a map. TTLs are ignored.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, expiration int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *fakeCache) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}

func (c *fakeCache) keysWithPrefix(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

// fakeEventBus records published events and fans them out to subscribers.
type fakeEventBus struct {
	mu        sync.Mutex
	published []*entities.RecommendationEvent
	subs      []chan *entities.RecommendationEvent
}

func (b *fakeEventBus) Publish(ctx context.Context, channel string, event *entities.RecommendationEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
	for _, ch := range b.subs {
		ch <- event
	}
	return nil
}

func (b *fakeEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.RecommendationEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *entities.RecommendationEvent, 16)
	b.subs = append(b.subs, ch)
	return ch, nil
}

func (b *fakeEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return nil
}

func (b *fakeEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	return nil
}

func (b *fakeEventBus) events() []*entities.RecommendationEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*entities.RecommendationEvent(nil), b.published...)
}

func catalogItem(id, title string, craft entities.CraftType, region entities.Region, festivals []entities.Festival, vector ...float32) *entities.CatalogItem {
	cc := entities.NewCulturalContext(craft, region, entities.SignificanceDecorative,
		[]string{"clay"}, nil, festivals, nil, 0.7, time.Unix(0, 0))
	return &entities.CatalogItem{
		ID:       id,
		Title:    title,
		Price:    1000,
		Cultural: &cc,
		Vector:   vector,
	}
}
