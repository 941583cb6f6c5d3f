package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/repositories"
	tsclient "github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
	"github.com/zatekoja/artisan-discovery/backend/pkg/retry"
)

const (
	embeddingField = "embedding"
	keywordFields  = "title,description,tags,materials,techniques,artisan_name"
	maxPerPage     = 250
)

// TypesenseAdapter implements the catalog index on a Typesense collection
// holding item text, cultural facets and an embedding vector.
type TypesenseAdapter struct {
	client     *tsclient.Client
	collection string
	dimensions int
	retry      retry.Config
}

var _ repositories.CatalogIndex = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client, dimensions int) *TypesenseAdapter {
	return &TypesenseAdapter{
		client:     client,
		collection: client.Collection(),
		dimensions: dimensions,
		retry:      retry.RequestConfig(),
	}
}

// CollectionSchema describes the catalog collection.
func CollectionSchema(name string, dimensions int) *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: name,
		Fields: []api.Field{
			{Name: "title", Type: "string"},
			{Name: "description", Type: "string", Optional: pointer.True()},
			{Name: "price", Type: "float", Facet: pointer.True()},
			{Name: "artisan_name", Type: "string", Optional: pointer.True()},
			{Name: "image_url", Type: "string", Optional: pointer.True(), Index: pointer.False()},
			{Name: "tags", Type: "string[]", Optional: pointer.True()},
			{Name: "craft_type", Type: "string", Facet: pointer.True()},
			{Name: "region", Type: "string", Facet: pointer.True()},
			{Name: "cultural_significance", Type: "string", Facet: pointer.True()},
			{Name: "festivals", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "materials", Type: "string[]", Optional: pointer.True()},
			{Name: "techniques", Type: "string[]", Optional: pointer.True()},
			{Name: "cultural_context", Type: "string", Optional: pointer.True(), Index: pointer.False()},
			{Name: embeddingField, Type: "float[]", NumDim: pointer.Int(dimensions), Optional: pointer.True()},
			{Name: "indexed_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("indexed_at"),
	}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	if _, err := a.client.Client().Collection(a.collection).Retrieve(ctx); err == nil {
		return nil
	}
	if _, err := a.client.Client().Collections().Create(ctx, CollectionSchema(a.collection, a.dimensions)); err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}
	observability.LoggerFromContext(ctx).Info().Str("collection", a.collection).Msg("Created Typesense collection")
	return nil
}

// Upsert indexes an item
func (a *TypesenseAdapter) Upsert(ctx context.Context, item *entities.CatalogItem) error {
	doc, err := itemToDocument(item, time.Now())
	if err != nil {
		return err
	}
	return a.withRetry(ctx, "typesense.upsert", func() error {
		_, err := a.client.Client().Collection(a.collection).Documents().Upsert(ctx, doc)
		return err
	})
}

// Delete removes items from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := a.client.Client().Collection(a.collection).Document(id).Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete item %s from index: %w", id, err)
		}
	}
	return nil
}

// Search runs a nearest-neighbour query. Scores are 1 - cosine distance.
func (a *TypesenseAdapter) Search(ctx context.Context, vector []float32, limit int, filter repositories.CatalogFilter) ([]entities.ScoredItem, error) {
	params := &api.SearchCollectionParams{
		Q:             pointer.String("*"),
		VectorQuery:   pointer.String(vectorQuery(vector, limit)),
		PerPage:       pointer.Int(clampPerPage(limit)),
		ExcludeFields: pointer.String(embeddingField),
	}
	if f := BuildFilter(filter); f != "" {
		params.FilterBy = pointer.String(f)
	}

	result, err := a.search(ctx, "typesense.vector_search", params)
	if err != nil {
		return nil, err
	}
	scored, err := hitsToScored(result, func(i int, hit api.SearchResultHit) float64 {
		if hit.VectorDistance == nil {
			return 0
		}
		return clamp01(1 - float64(*hit.VectorDistance))
	})
	if err != nil {
		return nil, err
	}
	for i := range scored {
		scored[i] = scored[i].WithVectorScore(scored[i].Score)
	}
	return scored, nil
}

// KeywordSearch runs a text query. Scores decay with rank since text match
// scores are not comparable across queries.
func (a *TypesenseAdapter) KeywordSearch(ctx context.Context, query string, limit int, filter repositories.CatalogFilter) ([]entities.ScoredItem, error) {
	params := &api.SearchCollectionParams{
		Q:             pointer.String(query),
		QueryBy:       pointer.String(keywordFields),
		PerPage:       pointer.Int(clampPerPage(limit)),
		ExcludeFields: pointer.String(embeddingField),
	}
	if f := BuildFilter(filter); f != "" {
		params.FilterBy = pointer.String(f)
	}

	result, err := a.search(ctx, "typesense.keyword_search", params)
	if err != nil {
		return nil, err
	}
	return hitsToScored(result, func(i int, _ api.SearchResultHit) float64 {
		return 1 / float64(i+1)
	})
}

// Scroll pages through items matching filter, newest first.
func (a *TypesenseAdapter) Scroll(ctx context.Context, filter repositories.CatalogFilter, limit, offset int) (*repositories.ScrollPage, error) {
	perPage := clampPerPage(limit)
	params := &api.SearchCollectionParams{
		Q:             pointer.String("*"),
		Page:          pointer.Int(offset/perPage + 1),
		PerPage:       pointer.Int(perPage),
		ExcludeFields: pointer.String(embeddingField),
	}
	if f := BuildFilter(filter); f != "" {
		params.FilterBy = pointer.String(f)
	}

	result, err := a.search(ctx, "typesense.scroll", params)
	if err != nil {
		return nil, err
	}
	scored, err := hitsToScored(result, func(int, api.SearchResultHit) float64 { return 0 })
	if err != nil {
		return nil, err
	}
	page := &repositories.ScrollPage{Items: make([]*entities.CatalogItem, 0, len(scored))}
	for _, s := range scored {
		page.Items = append(page.Items, s.Item)
	}
	if result.Found != nil && offset+len(page.Items) < *result.Found {
		page.NextOffset = offset + len(page.Items)
	}
	return page, nil
}

// Retrieve fetches items by id, embeddings included.
func (a *TypesenseAdapter) Retrieve(ctx context.Context, ids []string) ([]*entities.CatalogItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	params := &api.SearchCollectionParams{
		Q:        pointer.String("*"),
		FilterBy: pointer.String("id:=[" + strings.Join(escapeValues(ids), ",") + "]"),
		PerPage:  pointer.Int(clampPerPage(len(ids))),
	}
	result, err := a.search(ctx, "typesense.retrieve", params)
	if err != nil {
		return nil, err
	}
	scored, err := hitsToScored(result, func(int, api.SearchResultHit) float64 { return 0 })
	if err != nil {
		return nil, err
	}
	items := make([]*entities.CatalogItem, 0, len(scored))
	for _, s := range scored {
		items = append(items, s.Item)
	}
	return items, nil
}

func (a *TypesenseAdapter) search(ctx context.Context, op string, params *api.SearchCollectionParams) (*api.SearchResult, error) {
	var result *api.SearchResult
	err := a.withRetry(ctx, op, func() error {
		var err error
		result, err = a.client.Client().Collection(a.collection).Documents().Search(ctx, params)
		return err
	})
	return result, err
}

func (a *TypesenseAdapter) withRetry(ctx context.Context, op string, fn func() error) error {
	ctx, span := observability.StartSpan(ctx, op)
	defer span.End()
	if err := retry.DoWithLog(ctx, a.retry, op, fn, observability.LoggerFromContext(ctx)); err != nil {
		observability.RecordError(span, err)
		return fmt.Errorf("%s failed: %w", op, err)
	}
	return nil
}

// BuildFilter renders a catalog filter as a Typesense filter_by clause.
func BuildFilter(f repositories.CatalogFilter) string {
	var clauses []string
	if len(f.Regions) > 0 {
		clauses = append(clauses, "region:=["+joinValues(f.Regions)+"]")
	}
	if len(f.CraftTypes) > 0 {
		clauses = append(clauses, "craft_type:=["+joinValues(f.CraftTypes)+"]")
	}
	if len(f.Festivals) > 0 {
		clauses = append(clauses, "festivals:=["+joinValues(f.Festivals)+"]")
	}
	if len(f.ExcludeIDs) > 0 {
		clauses = append(clauses, "id:!=["+strings.Join(escapeValues(f.ExcludeIDs), ",")+"]")
	}
	if r := f.PriceRange; r != nil {
		if r.Min > 0 {
			clauses = append(clauses, "price:>="+strconv.FormatFloat(r.Min, 'f', -1, 64))
		}
		if r.Max > 0 {
			clauses = append(clauses, "price:<="+strconv.FormatFloat(r.Max, 'f', -1, 64))
		}
	}
	return strings.Join(clauses, " && ")
}

func joinValues[T ~string](values []T) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return strings.Join(escapeValues(out), ",")
}

// escapeValues wraps values in backticks so commas and spaces survive.
func escapeValues(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = "`" + strings.ReplaceAll(v, "`", "") + "`"
	}
	return out
}

func vectorQuery(vector []float32, k int) string {
	var b strings.Builder
	b.WriteString(embeddingField)
	b.WriteString(":([")
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteString("], k:")
	b.WriteString(strconv.Itoa(max(k, 1)))
	b.WriteString(")")
	return b.String()
}

func clampPerPage(n int) int {
	switch {
	case n <= 0:
		return 10
	case n > maxPerPage:
		return maxPerPage
	}
	return n
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

func hitsToScored(result *api.SearchResult, score func(int, api.SearchResultHit) float64) ([]entities.ScoredItem, error) {
	if result == nil || result.Hits == nil {
		return nil, nil
	}
	out := make([]entities.ScoredItem, 0, len(*result.Hits))
	for i, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		item, err := documentToItem(*hit.Document)
		if err != nil {
			return nil, err
		}
		out = append(out, entities.ScoredItem{Item: item, Score: score(i, hit)})
	}
	return out, nil
}

// itemToDocument flattens an item into a Typesense document.
func itemToDocument(item *entities.CatalogItem, indexedAt time.Time) (map[string]interface{}, error) {
	if item == nil || item.ID == "" {
		return nil, fmt.Errorf("item id is required")
	}
	cc := entities.UnknownCulturalContext(0, indexedAt)
	if item.Cultural != nil {
		cc = *item.Cultural
	}
	culturalJSON, err := json.Marshal(cc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cultural context: %w", err)
	}

	doc := map[string]interface{}{
		"id":                    item.ID,
		"title":                 item.Title,
		"description":           item.Description,
		"price":                 item.Price,
		"artisan_name":          item.ArtisanName,
		"image_url":             item.ImageURL,
		"tags":                  nonNil(item.Tags),
		"craft_type":            string(cc.CraftType),
		"region":                string(cc.Region),
		"cultural_significance": string(cc.CulturalSignificance),
		"festivals":             nonNil(cc.FestivalStrings()),
		"materials":             nonNil(cc.Materials),
		"techniques":            nonNil(cc.TraditionalTechniques),
		"cultural_context":      string(culturalJSON),
		"indexed_at":            indexedAt.Unix(),
	}
	if len(item.Vector) > 0 {
		doc[embeddingField] = item.Vector
	}
	return doc, nil
}

// documentToItem rebuilds an item from a search hit document.
func documentToItem(doc map[string]interface{}) (*entities.CatalogItem, error) {
	id, _ := doc["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("typesense document without id")
	}
	item := &entities.CatalogItem{
		ID:          id,
		Title:       stringField(doc, "title"),
		Description: stringField(doc, "description"),
		ArtisanName: stringField(doc, "artisan_name"),
		ImageURL:    stringField(doc, "image_url"),
		Tags:        stringSlice(doc["tags"]),
	}
	if p, ok := doc["price"].(float64); ok {
		item.Price = p
	}
	if raw := stringField(doc, "cultural_context"); raw != "" {
		var cc entities.CulturalContext
		if err := json.Unmarshal([]byte(raw), &cc); err == nil {
			item.Cultural = &cc
		}
	}
	if vec, ok := doc[embeddingField].([]interface{}); ok {
		item.Vector = make([]float32, 0, len(vec))
		for _, v := range vec {
			if f, ok := v.(float64); ok {
				item.Vector = append(item.Vector, float32(f))
			}
		}
	}
	return item, nil
}

func stringField(doc map[string]interface{}, key string) string {
	s, _ := doc[key].(string)
	return s
}

func stringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// DropSchema deletes the collection and every document in it.
func (a *TypesenseAdapter) DropSchema(ctx context.Context) error {
	if _, err := a.client.Client().Collection(a.collection).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete typesense collection: %w", err)
	}
	return nil
}
