package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/providers"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
)

// AnalysisTier names the stage of the degradation chain that produced a
// cultural context.
type AnalysisTier string

const (
	TierAI      AnalysisTier = "ai"
	TierKeyword AnalysisTier = "keyword"
	TierMinimal AnalysisTier = "minimal"
)

const (
	culturalCacheKeyPrefix = "cultural:"
	maxKeyTitleLen         = 200
	maxKeyDescriptionLen   = 500
)

var errEmptyClassifierReply = errors.New("classifier returned an empty reply")

// AnalysisResult is the outcome of analysing one piece of text.
type AnalysisResult struct {
	Context   entities.CulturalContext `json:"cultural_context"`
	Reasoning string                   `json:"reasoning"`
	Tier      AnalysisTier             `json:"tier"`
	Cached    bool                     `json:"cached"`
}

// AnalyzerStats is a snapshot of the analyzer counters.
type AnalyzerStats struct {
	Analyses         int64 `json:"analyses"`
	CacheHits        int64 `json:"cache_hits"`
	AISuccesses      int64 `json:"ai_successes"`
	AIFailures       int64 `json:"ai_failures"`
	KeywordFallbacks int64 `json:"keyword_fallbacks"`
	MinimalDefaults  int64 `json:"minimal_defaults"`
	CacheSize        int   `json:"cache_size"`
}

// CulturalAnalyzerOptions tunes batching and caching.
type CulturalAnalyzerOptions struct {
	CacheSize         int
	CacheTTL          time.Duration
	BatchSize         int
	BatchDelay        time.Duration
	ClassifierTimeout time.Duration
}

// CulturalAnalyzerService maps free text to a CulturalContext. It never
// fails: the AI classifier is tried first, then keyword matching, then a
// minimal unknown context.
type CulturalAnalyzerService struct {
	classifier providers.TextClassifier
	scoring    ScoringConfig
	opts       CulturalAnalyzerOptions
	cache      *expirable.LRU[string, AnalysisResult]
	metrics    *observability.Metrics
	now        func() time.Time

	analyses         atomic.Int64
	cacheHits        atomic.Int64
	aiSuccesses      atomic.Int64
	aiFailures       atomic.Int64
	keywordFallbacks atomic.Int64
	minimalDefaults  atomic.Int64
}

// NewCulturalAnalyzerService creates an analyzer. classifier may be nil, in
// which case every analysis starts at the keyword tier.
func NewCulturalAnalyzerService(classifier providers.TextClassifier, scoring ScoringConfig, opts CulturalAnalyzerOptions) *CulturalAnalyzerService {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 10000
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.ClassifierTimeout <= 0 {
		opts.ClassifierTimeout = 20 * time.Second
	}
	return &CulturalAnalyzerService{
		classifier: classifier,
		scoring:    scoring,
		opts:       opts,
		cache:      expirable.NewLRU[string, AnalysisResult](opts.CacheSize, nil, opts.CacheTTL),
		now:        time.Now,
	}
}

// SetMetrics enables OpenTelemetry counters for analyses.
func (s *CulturalAnalyzerService) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// Analyze returns the cultural context of the text.
func (s *CulturalAnalyzerService) Analyze(ctx context.Context, title, description string) AnalysisResult {
	s.analyses.Add(1)

	key := culturalCacheKey(title, description)
	if cached, ok := s.cache.Get(key); ok {
		s.cacheHits.Add(1)
		cached.Context = cached.Context.Clone()
		cached.Cached = true
		return cached
	}

	result := s.analyze(ctx, title, description)
	observability.RecordAnalysisMetric(ctx, s.metrics, string(result.Tier))
	if result.Tier != TierMinimal {
		s.cache.Add(key, result)
	}
	result.Context = result.Context.Clone()
	return result
}

func (s *CulturalAnalyzerService) analyze(ctx context.Context, title, description string) AnalysisResult {
	logger := observability.LoggerFromContext(ctx)
	text := strings.TrimSpace(title + " " + description)
	if text == "" {
		s.minimalDefaults.Add(1)
		return s.MinimalContext("empty text")
	}

	if s.classifier != nil {
		result, err := s.aiTier(ctx, title, description)
		if err == nil {
			s.aiSuccesses.Add(1)
			return result
		}
		s.aiFailures.Add(1)
		logger.Warn().Err(err).Str("title", truncate(title, 80)).Msg("AI cultural analysis failed, using keyword fallback")
	}

	result, ok := s.safeKeywordClassify(ctx, text)
	if ok {
		s.keywordFallbacks.Add(1)
		return result
	}
	s.minimalDefaults.Add(1)
	return s.MinimalContext("no cultural signal found")
}

// aiTier asks the classifier for a structured context. Any value outside
// the known enumerations is coerced to unknown.
func (s *CulturalAnalyzerService) aiTier(ctx context.Context, title, description string) (AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ClassifierTimeout)
	defer cancel()

	reply, err := s.classifier.Classify(ctx, culturalAnalysisSystemPrompt, buildCulturalAnalysisPrompt(title, description))
	if err != nil {
		return AnalysisResult{}, err
	}
	reply = stripCodeFences(reply)
	if reply == "" {
		return AnalysisResult{}, errEmptyClassifierReply
	}

	var parsed culturalAnalysisReply
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		return AnalysisResult{}, fmt.Errorf("failed to parse classifier reply: %w", err)
	}

	craft := entities.ParseCraftType(parsed.CraftType)
	region := entities.ParseRegion(parsed.Region)
	significance := entities.ParseCulturalSignificance(parsed.CulturalSignificance)

	known := 0
	for _, isKnown := range []bool{craft != entities.CraftUnknown, region != entities.RegionUnknown, significance != entities.SignificanceUnknown} {
		if isKnown {
			known++
		}
	}
	confidence := s.scoring.BaseConfidence + 0.15*float64(known)
	if len(parsed.Materials) > 0 || len(parsed.TraditionalTechniques) > 0 {
		confidence += 0.05
	}
	if parsed.ConfidenceScore > 0 && parsed.ConfidenceScore < confidence {
		confidence = parsed.ConfidenceScore
	}
	confidence = minFloat(confidence, s.scoring.AIConfidenceCap)

	tags := append([]string{"ai_analysis"}, parsed.CulturalTags...)
	cc := entities.NewCulturalContext(
		craft, region, significance,
		parsed.Materials, parsed.TraditionalTechniques,
		entities.ParseFestivals(parsed.FestivalRelevance),
		tags, confidence, s.now(),
	)
	return AnalysisResult{Context: cc, Reasoning: parsed.Reasoning, Tier: TierAI}, nil
}

func (s *CulturalAnalyzerService) safeKeywordClassify(ctx context.Context, text string) (result AnalysisResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			observability.LoggerFromContext(ctx).Error().Interface("panic", r).Msg("keyword classification panicked")
			ok = false
		}
	}()
	return s.KeywordClassify(text)
}

// KeywordClassify scans text against the taxonomy keyword tables. ok is
// false when nothing at all matched.
func (s *CulturalAnalyzerService) KeywordClassify(text string) (AnalysisResult, bool) {
	m := matchKeywords(text)
	if !m.any() {
		return AnalysisResult{}, false
	}

	confidence := s.scoring.BaseConfidence +
		0.25*matchStrength(m.craftMatches) +
		0.2*matchStrength(m.regionMatches) +
		0.1*matchStrength(m.significanceMatches)
	if len(m.festivals) > 0 {
		confidence += 0.05
	}
	confidence = minFloat(confidence, s.scoring.KeywordConfidenceCap)

	cc := entities.NewCulturalContext(
		m.craft, m.region, m.significance,
		m.materials, m.techniques, m.festivals,
		[]string{"keyword_fallback"}, confidence, s.now(),
	)
	reasoning := fmt.Sprintf("keyword match: craft=%s (%d), region=%s (%d), significance=%s (%d)",
		m.craft, m.craftMatches, m.region, m.regionMatches, m.significance, m.significanceMatches)
	return AnalysisResult{Context: cc, Reasoning: reasoning, Tier: TierKeyword}, true
}

// MinimalContext is the last tier of the chain.
func (s *CulturalAnalyzerService) MinimalContext(reason string) AnalysisResult {
	return AnalysisResult{
		Context:   entities.UnknownCulturalContext(s.scoring.MinimalConfidence, s.now()),
		Reasoning: reason,
		Tier:      TierMinimal,
	}
}

// ContextFor returns the item's stored context, analysing its text when
// none is attached.
func (s *CulturalAnalyzerService) ContextFor(ctx context.Context, item *entities.CatalogItem) entities.CulturalContext {
	if item == nil {
		return s.MinimalContext("missing item").Context
	}
	if item.Cultural != nil {
		return item.Cultural.Clone()
	}
	return s.Analyze(ctx, item.Title, item.Description).Context
}

// AnalyzeBatch analyses items in batches of the configured size, pausing
// between batches to bound load on the classifier. Results are in input
// order; a failing item never affects its siblings.
func (s *CulturalAnalyzerService) AnalyzeBatch(ctx context.Context, items []*entities.CatalogItem) []AnalysisResult {
	results := make([]AnalysisResult, len(items))
	for start := 0; start < len(items); start += s.opts.BatchSize {
		if start > 0 && s.opts.BatchDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.opts.BatchDelay):
			}
		}
		end := start + s.opts.BatchSize
		if end > len(items) {
			end = len(items)
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				item := items[i]
				if item == nil {
					results[i] = s.MinimalContext("missing item")
					return nil
				}
				results[i] = s.Analyze(ctx, item.Title, item.Description)
				return nil
			})
		}
		_ = g.Wait()
	}
	return results
}

// ClearCache drops every cached analysis and returns how many were held.
func (s *CulturalAnalyzerService) ClearCache() int {
	n := s.cache.Len()
	s.cache.Purge()
	return n
}

// EvictExpired removes expired analyses from the cache.
func (s *CulturalAnalyzerService) EvictExpired() int {
	return evictExpired(s.cache)
}

// Stats returns a snapshot of the analyzer counters.
func (s *CulturalAnalyzerService) Stats() AnalyzerStats {
	return AnalyzerStats{
		Analyses:         s.analyses.Load(),
		CacheHits:        s.cacheHits.Load(),
		AISuccesses:      s.aiSuccesses.Load(),
		AIFailures:       s.aiFailures.Load(),
		KeywordFallbacks: s.keywordFallbacks.Load(),
		MinimalDefaults:  s.minimalDefaults.Load(),
		CacheSize:        s.cache.Len(),
	}
}

func culturalCacheKey(title, description string) string {
	sum := sha256.Sum256([]byte(truncate(title, maxKeyTitleLen) + "|" + truncate(description, maxKeyDescriptionLen)))
	return culturalCacheKeyPrefix + hex.EncodeToString(sum[:])
}

// stripCodeFences removes a surrounding ```json fence from a model reply.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// evictExpired drops entries whose TTL has passed. Keys reports expired
// entries until the background sweep reaches them; Peek does not.
func evictExpired[K comparable, V any](c *expirable.LRU[K, V]) int {
	removed := 0
	for _, k := range c.Keys() {
		if _, ok := c.Peek(k); !ok && c.Remove(k) {
			removed++
		}
	}
	return removed
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
