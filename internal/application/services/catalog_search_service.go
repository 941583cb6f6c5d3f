package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/providers"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/repositories"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/taxonomy"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/artisan-discovery/backend/pkg/errors"
)

// FusionConfig weights semantic and keyword scores in hybrid search.
type FusionConfig struct {
	SemanticWeight float64
	KeywordWeight  float64
}

// DefaultFusionConfig is 70% semantic, 30% keyword.
var DefaultFusionConfig = FusionConfig{SemanticWeight: 0.7, KeywordWeight: 0.3}

// CatalogSearchOptions configures CatalogSearchService.
type CatalogSearchOptions struct {
	// ScoreThreshold is the best vector score below which keyword search
	// is consulted.
	ScoreThreshold float64
	// TermExpansionPath optionally names a JSON file of term -> synonyms.
	TermExpansionPath string
	Fusion            FusionConfig
}

// CatalogSearchService is the hybrid lexical and vector search layer over
// the catalog index.
type CatalogSearchService struct {
	index    repositories.CatalogIndex
	embedder providers.EmbeddingProvider
	analyzer *CulturalAnalyzerService
	opts     CatalogSearchOptions

	mu    sync.RWMutex
	terms map[string][]string
}

// NewCatalogSearchService creates the search layer. embedder and analyzer
// may be nil; search then runs on keywords only and indexing skips
// analysis.
func NewCatalogSearchService(index repositories.CatalogIndex, embedder providers.EmbeddingProvider, analyzer *CulturalAnalyzerService, opts CatalogSearchOptions) (*CatalogSearchService, error) {
	if opts.Fusion == (FusionConfig{}) {
		opts.Fusion = DefaultFusionConfig
	}
	s := &CatalogSearchService{
		index:    index,
		embedder: embedder,
		analyzer: analyzer,
		opts:     opts,
		terms:    taxonomyTerms(),
	}
	if opts.TermExpansionPath != "" {
		if err := s.loadTerms(opts.TermExpansionPath); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// taxonomyTerms builds the built-in expansion table: every craft and
// festival name expands to its keywords.
func taxonomyTerms() map[string][]string {
	terms := make(map[string][]string)
	for craft, kws := range taxonomy.CraftKeywords {
		terms[strings.ReplaceAll(string(craft), "_", " ")] = kws
	}
	for fest, kws := range taxonomy.FestivalKeywords {
		terms[strings.ReplaceAll(string(fest), "_", " ")] = kws
	}
	return terms
}

func (s *CatalogSearchService) loadTerms(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var mappings map[string][]string
	if err := json.Unmarshal(data, &mappings); err != nil {
		return fmt.Errorf("invalid term expansion file %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range mappings {
		key := strings.ToLower(strings.TrimSpace(k))
		s.terms[key] = append(s.terms[key], v...)
	}
	return nil
}

// ExpandQuery returns the query terms followed by their synonyms, without
// duplicates.
func (s *CatalogSearchService) ExpandQuery(query string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []string{}
	}

	var expanded []string
	seen := make(map[string]bool)
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			expanded = append(expanded, t)
		}
	}

	for _, term := range strings.Fields(query) {
		add(term)
		for _, syn := range s.terms[term] {
			add(syn)
		}
	}
	if syns, ok := s.terms[query]; ok && strings.Contains(query, " ") {
		for _, syn := range syns {
			add(syn)
		}
	}
	return expanded
}

// HybridSearch embeds the expanded query and searches the vector index.
// Keyword search is used when embedding fails or the best vector score is
// below the threshold; when both return results their scores are fused.
func (s *CatalogSearchService) HybridSearch(ctx context.Context, query string, limit int, filter repositories.CatalogFilter) ([]entities.ScoredItem, error) {
	if limit <= 0 {
		limit = 10
	}
	logger := observability.LoggerFromContext(ctx)
	expanded := strings.Join(s.ExpandQuery(query), " ")
	if expanded == "" {
		return nil, apperrors.NewValidationError("query is required")
	}

	var semantic []entities.ScoredItem
	if s.embedder != nil {
		vector, err := s.embedder.Embed(ctx, expanded)
		if err != nil {
			logger.Warn().Err(err).Msg("query embedding failed, using keyword search")
		} else if semantic, err = s.index.Search(ctx, vector, limit*2, filter); err != nil {
			logger.Warn().Err(err).Msg("vector search failed, using keyword search")
			semantic = nil
		}
	}

	if len(semantic) > 0 && semantic[0].Score >= s.opts.ScoreThreshold {
		return truncateScored(semantic, limit), nil
	}

	keyword, err := s.index.KeywordSearch(ctx, query, limit*2, filter)
	if err != nil {
		if len(semantic) > 0 {
			return truncateScored(semantic, limit), nil
		}
		return nil, apperrors.NewExternalError("catalog search failed", err)
	}
	if len(semantic) == 0 {
		return truncateScored(normalizeScores(keyword), limit), nil
	}

	fused := fuseScores(semantic, normalizeScores(keyword), s.opts.Fusion)
	return truncateScored(fused, limit), nil
}

// SimilarTo returns catalog items near item, using its stored vector when
// present. The item itself is excluded.
func (s *CatalogSearchService) SimilarTo(ctx context.Context, item *entities.CatalogItem, limit int, filter repositories.CatalogFilter) ([]entities.ScoredItem, error) {
	filter.ExcludeIDs = append(append([]string(nil), filter.ExcludeIDs...), item.ID)

	vector := item.Vector
	if len(vector) == 0 && s.embedder != nil {
		v, err := s.embedder.Embed(ctx, item.Text())
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("item_id", item.ID).Msg("item embedding failed")
		} else {
			vector = v
		}
	}
	if len(vector) > 0 {
		results, err := s.index.Search(ctx, vector, limit, filter)
		if err == nil && len(results) > 0 {
			return results, nil
		}
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("item_id", item.ID).Msg("vector search failed")
		}
	}
	return s.HybridSearch(ctx, item.Title, limit, filter)
}

// Scroll pages through the index; used when no query is available.
func (s *CatalogSearchService) Scroll(ctx context.Context, filter repositories.CatalogFilter, limit int) ([]*entities.CatalogItem, error) {
	page, err := s.index.Scroll(ctx, filter, limit, 0)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Rerank reorders results by lexical and cultural match against query,
// blended with their retrieval score.
func (s *CatalogSearchService) Rerank(query string, results []entities.ScoredItem) []entities.ScoredItem {
	terms := s.ExpandQuery(query)
	if len(terms) == 0 || len(results) == 0 {
		return results
	}
	queryCtx := matchKeywords(query)

	out := make([]entities.ScoredItem, len(results))
	for i, r := range results {
		lexical := 0.0
		title := strings.ToLower(r.Item.Title)
		for _, t := range terms {
			if strings.Contains(title, t) {
				lexical += 0.5
			}
			for _, tag := range r.Item.Tags {
				if strings.Contains(strings.ToLower(tag), t) {
					lexical += 0.25
				}
			}
		}
		cultural := 0.0
		if cc := r.Item.Cultural; cc != nil {
			if queryCtx.craft != entities.CraftUnknown && cc.CraftType == queryCtx.craft {
				cultural += 0.5
			}
			if queryCtx.region != entities.RegionUnknown && cc.Region == queryCtx.region {
				cultural += 0.5
			}
		}
		out[i] = entities.ScoredItem{
			Item:        r.Item,
			Score:       0.5*r.Score + 0.3*minFloat(lexical, 1) + 0.2*cultural,
			VectorScore: r.VectorScore,
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// IndexItem attaches a cultural context when missing, embeds the item and
// upserts it into the index.
func (s *CatalogSearchService) IndexItem(ctx context.Context, item *entities.CatalogItem) error {
	if item == nil || item.ID == "" {
		return apperrors.NewValidationError("item id is required")
	}
	if item.Cultural == nil && s.analyzer != nil {
		cc := s.analyzer.Analyze(ctx, item.Title, item.Description).Context
		item.Cultural = &cc
	}
	if len(item.Vector) == 0 && s.embedder != nil {
		v, err := s.embedder.Embed(ctx, item.Text())
		if err != nil {
			return apperrors.NewExternalError("failed to embed item "+item.ID, err)
		}
		item.Vector = v
	}
	if err := s.index.Upsert(ctx, item); err != nil {
		return apperrors.NewExternalError("failed to index item "+item.ID, err)
	}
	return nil
}

// fuseScores combines semantic and keyword results by item id.
func fuseScores(semantic, keyword []entities.ScoredItem, cfg FusionConfig) []entities.ScoredItem {
	keywordByID := make(map[string]entities.ScoredItem, len(keyword))
	for _, r := range keyword {
		keywordByID[r.Item.ID] = r
	}

	fused := make([]entities.ScoredItem, 0, len(semantic)+len(keyword))
	seen := make(map[string]bool, len(semantic))
	for _, r := range semantic {
		seen[r.Item.ID] = true
		if k, ok := keywordByID[r.Item.ID]; ok {
			fused = append(fused, entities.ScoredItem{
				Item:        r.Item,
				Score:       cfg.SemanticWeight*r.Score + cfg.KeywordWeight*k.Score,
				VectorScore: r.VectorScore,
			})
			continue
		}
		fused = append(fused, r)
	}
	for _, r := range keyword {
		if !seen[r.Item.ID] {
			fused = append(fused, r)
		}
	}
	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	return fused
}

// normalizeScores rescales scores to [0,1]. Equal scores all become 1.
func normalizeScores(results []entities.ScoredItem) []entities.ScoredItem {
	if len(results) == 0 {
		return results
	}
	lo, hi := results[0].Score, results[0].Score
	for _, r := range results {
		if r.Score < lo {
			lo = r.Score
		}
		if r.Score > hi {
			hi = r.Score
		}
	}
	out := make([]entities.ScoredItem, len(results))
	for i, r := range results {
		out[i] = r
		if hi == lo {
			out[i].Score = 1
		} else {
			out[i].Score = (r.Score - lo) / (hi - lo)
		}
	}
	return out
}

func truncateScored(results []entities.ScoredItem, limit int) []entities.ScoredItem {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}
