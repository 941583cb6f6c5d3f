package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/providers"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/repositories"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/taxonomy"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/artisan-discovery/backend/pkg/errors"
)

const (
	responseCachePrefix = "recommendations:"

	strategyContentBased  = "content_based"
	strategyCollaborative = "collaborative"
	strategySeasonal      = "seasonal"

	maxSeasonalQueries = 6
	maxHistorySeeds    = 3
)

// expiringCache is implemented by in-process cache providers that can drop
// expired entries on demand.
type expiringCache interface {
	EvictExpired() int
}

// RecommendationService chooses a strategy per request, sources and scores
// candidates, merges and ranks the results and caches responses. Its
// recommendation methods never return an error: failures become a
// response carrying an Error message.
type RecommendationService struct {
	analyzer      *CulturalAnalyzerService
	similarity    *ContentSimilarityService
	collaborative *CollaborativeFilterService
	search        *CatalogSearchService
	items         *CatalogItemLoader
	contexts      *CulturalContextResolver
	cache         providers.CacheProvider
	events        providers.EventBus
	cfg           ScoringConfig
	opts          RecommendationOptions
	metrics       *observability.Metrics
	now           func() time.Time
	startedAt     time.Time

	requests    atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	errorCount  atomic.Int64
}

// NewRecommendationService wires the orchestrator. cache and events may be
// nil.
func NewRecommendationService(
	analyzer *CulturalAnalyzerService,
	similarity *ContentSimilarityService,
	collaborative *CollaborativeFilterService,
	search *CatalogSearchService,
	items *CatalogItemLoader,
	contexts *CulturalContextResolver,
	cache providers.CacheProvider,
	events providers.EventBus,
	cfg ScoringConfig,
	opts RecommendationOptions,
) *RecommendationService {
	if opts.ResponseCacheTTL <= 0 {
		opts.ResponseCacheTTL = 30 * time.Minute
	}
	if opts.CandidatePoolSize <= 0 {
		opts.CandidatePoolSize = 100
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 4
	}
	if opts.InstanceID == "" {
		opts.InstanceID = uuid.New().String()
	}
	return &RecommendationService{
		analyzer:      analyzer,
		similarity:    similarity,
		collaborative: collaborative,
		search:        search,
		items:         items,
		contexts:      contexts,
		cache:         cache,
		events:        events,
		cfg:           cfg,
		opts:          opts,
		now:           time.Now,
		startedAt:     time.Now(),
	}
}

// SetMetrics enables OpenTelemetry recording.
func (s *RecommendationService) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// InstanceID identifies this process on the event bus.
func (s *RecommendationService) InstanceID() string {
	return s.opts.InstanceID
}

// GetItemRecommendations returns items related to req.ItemID by every
// requested recommendation type, merged and deduplicated.
func (s *RecommendationService) GetItemRecommendations(ctx context.Context, req ItemRecommendationRequest) (resp *entities.RecommendationResponse) {
	ctx, span := observability.StartSpan(ctx, "RecommendationService.GetItemRecommendations")
	defer span.End()
	start := s.now()
	s.requests.Add(1)
	defer s.recoverInto(ctx, start, &resp)

	req.Limit = normalizeLimit(req.Limit)
	if len(req.RecommendationTypes) == 0 {
		req.RecommendationTypes = []entities.RecommendationType{entities.RecommendationCulturalSimilarity}
	}
	resp = s.newResponse(start, strategyContentBased)
	resp.SourceItemID = req.ItemID

	if strings.TrimSpace(req.ItemID) == "" {
		return s.fail(resp, start, "item_id is required")
	}
	if bad := unsupportedTypes(req.RecommendationTypes, itemRecommendationTypes); len(bad) > 0 {
		return s.fail(resp, start, "unsupported recommendation types: "+strings.Join(bad, ", "))
	}

	key := cacheKey("item", req)
	if cached := s.cachedResponse(ctx, key, start); cached != nil {
		return cached
	}

	logger := observability.LoggerFromContext(ctx).With().Str("item_id", req.ItemID).Logger()
	source, err := s.items.Load(ctx, req.ItemID)
	if err != nil {
		if !errors.Is(err, repositories.ErrItemNotFound) {
			logger.Warn().Err(err).Msg("failed to load source item")
			return s.fail(resp, start, "source item could not be loaded")
		}
		return s.fail(resp, start, fmt.Sprintf("item %s not found", req.ItemID))
	}
	sourceCtx := s.contexts.ContextForItem(ctx, source)

	exclude := toSet(req.ExcludeIDs)
	exclude[source.ID] = struct{}{}
	results, err := s.search.SimilarTo(ctx, source, s.opts.CandidatePoolSize, repositories.CatalogFilter{ExcludeIDs: req.ExcludeIDs})
	if err != nil {
		logger.Warn().Err(err).Msg("candidate search failed, scrolling catalog")
		results = s.scrollCandidates(ctx, repositories.CatalogFilter{ExcludeIDs: req.ExcludeIDs})
	}
	candidates := s.contexts.Candidates(ctx, results, exclude)
	if len(candidates) == 0 {
		return s.fail(resp, start, "no candidate items available")
	}

	active := taxonomy.FestivalsForMonth(s.now().Month())
	resp.ActiveFestivals = active
	var merged []entities.RecommendationItem
	for _, t := range req.RecommendationTypes {
		recs, ok := s.runType(ctx, t, func() []entities.RecommendationItem {
			switch t {
			case entities.RecommendationCulturalSimilarity:
				return s.similarity.FindSimilarItems(ctx, sourceCtx, candidates, SimilarityOptions{
					Limit:           req.Limit,
					Threshold:       req.SimilarityThreshold,
					Diversity:       req.IncludeDiversity,
					ActiveFestivals: active,
				})
			case entities.RecommendationRegionalDiscovery:
				return s.similarity.FindRegionalDiscoveries(ctx, sourceCtx, candidates, req.Limit, 1)
			case entities.RecommendationFestivalSeasonal:
				return s.similarity.FindSeasonalRecommendations(ctx, candidates, active, req.Limit)
			default:
				return s.similarity.FindCrossCulturalDiscoveries(ctx, sourceCtx, candidates, req.Limit)
			}
		})
		if !ok {
			continue
		}
		resp.RecommendationTypes = append(resp.RecommendationTypes, t)
		merged = append(merged, recs...)
	}

	if req.SeasonalBoost {
		s.applySeasonalBoost(merged, active)
	}
	resp.Recommendations = rankAndTruncate(merged, req.Limit)
	if len(resp.Recommendations) == 0 {
		return s.fail(resp, start, "no recommendations matched the request")
	}
	return s.finish(ctx, key, resp, start)
}

var itemRecommendationTypes = map[entities.RecommendationType]bool{
	entities.RecommendationCulturalSimilarity: true,
	entities.RecommendationRegionalDiscovery:  true,
	entities.RecommendationFestivalSeasonal:   true,
	entities.RecommendationCrossCultural:      true,
}

var userRecommendationTypes = map[entities.RecommendationType]bool{
	entities.RecommendationPersonalized:       true,
	entities.RecommendationCollaborative:      true,
	entities.RecommendationCulturalSimilarity: true,
}

// runType runs one recommendation type, recovering from a panic so a
// failing type only removes its own results.
func (s *RecommendationService) runType(ctx context.Context, t entities.RecommendationType, fn func() []entities.RecommendationItem) (recs []entities.RecommendationItem, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			observability.LoggerFromContext(ctx).Error().
				Str("recommendation_type", string(t)).
				Interface("panic", r).
				Msg("recommendation type failed")
			recs, ok = nil, false
		}
	}()
	return fn(), true
}

func (s *RecommendationService) applySeasonalBoost(items []entities.RecommendationItem, active []entities.Festival) {
	for i := range items {
		relevance := items[i].Score.SeasonalRelevance
		if relevance == 0 && items[i].Item != nil && items[i].Item.Cultural != nil {
			relevance = s.similarity.SeasonalRelevance(*items[i].Item.Cultural, active)
			items[i].Score.SeasonalRelevance = relevance
		}
		if relevance > 0 {
			items[i].Score.OverallScore = clamp01(items[i].Score.OverallScore + s.cfg.SeasonalBoostWeight*relevance)
		}
	}
}

// GetUserRecommendations uses collaborative filtering for users with enough
// history and falls back to content-based scoring of their preferences.
func (s *RecommendationService) GetUserRecommendations(ctx context.Context, req UserRecommendationRequest) (resp *entities.RecommendationResponse) {
	ctx, span := observability.StartSpan(ctx, "RecommendationService.GetUserRecommendations")
	defer span.End()
	start := s.now()
	s.requests.Add(1)
	defer s.recoverInto(ctx, start, &resp)

	req.Limit = normalizeLimit(req.Limit)
	resp = s.newResponse(start, strategyContentBased)
	resp.UserID = req.UserID

	if bad := unsupportedTypes(req.RecommendationTypes, userRecommendationTypes); len(bad) > 0 {
		return s.fail(resp, start, "unsupported recommendation types: "+strings.Join(bad, ", "))
	}

	key := userCacheKey(req)
	if cached := s.cachedResponse(ctx, key, start); cached != nil {
		return cached
	}

	logger := observability.LoggerFromContext(ctx).With().Str("user_id", req.UserID).Logger()
	history := s.historyItems(ctx, req)
	exclude := make(map[string]struct{}, len(history))
	for _, it := range history {
		exclude[it.ID] = struct{}{}
	}

	candidates := s.userCandidates(ctx, req, history, exclude)
	if req.BudgetRange != nil {
		candidates = filterByBudget(candidates, req.BudgetRange)
	}
	if len(candidates) == 0 {
		return s.fail(resp, start, "no candidate items available")
	}

	if req.UserID != "" && s.collaborative.InteractionCount(req.UserID) >= s.cfg.MinInteractionsCF {
		recs, err := s.collaborative.Recommend(ctx, req.UserID, candidates, req.Limit)
		switch {
		case err == nil && len(recs) > 0:
			resp.Strategy = strategyCollaborative
			resp.RecommendationTypes = []entities.RecommendationType{entities.RecommendationCollaborative}
			resp.Recommendations = recs
			return s.finish(ctx, key, resp, start)
		case err != nil && !errors.Is(err, ErrInsufficientHistory):
			logger.Warn().Err(err).Msg("collaborative filtering failed, using content-based scoring")
		default:
			logger.Debug().Msg("no collaborative signal, using content-based scoring")
		}
	}

	profile := s.buildAdHocProfile(ctx, req, history)
	recs := s.scoreByPreferences(profile, candidates)
	if req.DiversityFactor > 0 {
		recs = NewDiversityTracker(s.cfg).Rank(recs, 0, req.Limit)
	} else {
		recs = filterAndTruncate(recs, 0, req.Limit)
	}
	resp.RecommendationTypes = []entities.RecommendationType{entities.RecommendationPersonalized}
	resp.Recommendations = recs
	if len(recs) == 0 {
		return s.fail(resp, start, "no recommendations matched the request")
	}
	return s.finish(ctx, key, resp, start)
}

func (s *RecommendationService) historyItems(ctx context.Context, req UserRecommendationRequest) []*entities.CatalogItem {
	ids := append([]string(nil), req.InteractionHistory...)
	if req.UserID != "" {
		ids = append(ids, s.collaborative.RecentItemIDs(req.UserID, 10)...)
	}
	return s.items.LoadMany(ctx, dedupeStrings(ids))
}

func (s *RecommendationService) userCandidates(ctx context.Context, req UserRecommendationRequest, history []*entities.CatalogItem, exclude map[string]struct{}) []Candidate {
	logger := observability.LoggerFromContext(ctx)
	pool := s.opts.CandidatePoolSize
	filter := repositories.CatalogFilter{ExcludeIDs: keys(exclude), PriceRange: req.BudgetRange}

	var results []entities.ScoredItem
	if q := preferenceQuery(req); q != "" {
		found, err := s.search.HybridSearch(ctx, q, pool, filter)
		if err != nil {
			logger.Warn().Err(err).Msg("preference search failed")
		}
		results = append(results, found...)
	}
	for i, it := range history {
		if i >= maxHistorySeeds {
			break
		}
		found, err := s.search.SimilarTo(ctx, it, pool/2, filter)
		if err != nil {
			logger.Warn().Err(err).Str("item_id", it.ID).Msg("history search failed")
			continue
		}
		results = append(results, found...)
	}
	if len(results) == 0 {
		results = s.scrollCandidates(ctx, filter)
	}
	return s.contexts.Candidates(ctx, results, exclude)
}

// buildAdHocProfile merges the user's stored profile, explicit preferences
// and the contexts of recent items into one preference structure.
func (s *RecommendationService) buildAdHocProfile(ctx context.Context, req UserRecommendationRequest, history []*entities.CatalogItem) *entities.UserCulturalProfile {
	var profile *entities.UserCulturalProfile
	if req.UserID != "" {
		profile = s.collaborative.GetProfile(req.UserID)
	}
	if profile == nil {
		profile = entities.NewUserCulturalProfile(req.UserID)
	}
	for _, c := range req.PreferredCrafts {
		if c = entities.ParseCraftType(string(c)); c != entities.CraftUnknown {
			profile.PreferredCraftTypes[string(c)] += 1
		}
	}
	for _, r := range req.PreferredRegions {
		if r = entities.ParseRegion(string(r)); r != entities.RegionUnknown {
			profile.PreferredRegions[string(r)] += 1
		}
	}
	for _, f := range req.PreferredFestivals {
		if f, ok := entities.ParseFestival(string(f)); ok {
			profile.PreferredFestivals[string(f)] += 1
		}
	}
	for _, it := range history {
		cc := s.contexts.ContextForItem(ctx, it)
		if cc.CraftType != entities.CraftUnknown {
			profile.PreferredCraftTypes[string(cc.CraftType)] += 0.5
		}
		if cc.Region != entities.RegionUnknown {
			profile.PreferredRegions[string(cc.Region)] += 0.5
		}
		for _, f := range cc.FestivalRelevance {
			profile.PreferredFestivals[string(f)] += 0.5
		}
		for _, m := range cc.Materials {
			profile.PreferredMaterials[m] += 0.5
		}
	}
	return profile
}

// scoreByPreferences scores candidates by weighted overlap with the
// profile plus an exploration bonus for crafts or regions the profile has
// not seen. A profile with no preferences ranks by retrieval score.
func (s *RecommendationService) scoreByPreferences(profile *entities.UserCulturalProfile, candidates []Candidate) []entities.RecommendationItem {
	maxCraft := maxValue(profile.PreferredCraftTypes)
	maxRegion := maxValue(profile.PreferredRegions)
	maxFestival := maxValue(profile.PreferredFestivals)
	maxMaterial := maxValue(profile.PreferredMaterials)
	empty := maxCraft == 0 && maxRegion == 0 && maxFestival == 0 && maxMaterial == 0

	out := make([]entities.RecommendationItem, 0, len(candidates))
	for _, c := range candidates {
		cc := c.Context
		craft := targetAffinity(profile.PreferredCraftTypes, string(cc.CraftType), maxCraft)
		region := targetAffinity(profile.PreferredRegions, string(cc.Region), maxRegion)
		festival := 0.0
		for _, f := range cc.FestivalRelevance {
			festival = max(festival, targetAffinity(profile.PreferredFestivals, string(f), maxFestival))
		}
		material := 0.0
		if len(cc.Materials) > 0 {
			for _, m := range cc.Materials {
				material += targetAffinity(profile.PreferredMaterials, m, maxMaterial)
			}
			material /= float64(len(cc.Materials))
		}

		var reasons []string
		base := s.cfg.PreferenceCraftWeight*craft + s.cfg.PreferenceRegionWeight*region +
			s.cfg.PreferenceFestivalWeight*festival + s.cfg.PreferenceMaterialWeight*material
		if empty && c.VectorScore != nil {
			base = clamp01(*c.VectorScore)
			reasons = append(reasons, "Popular in the catalog")
		}
		if craft > 0 {
			reasons = append(reasons, fmt.Sprintf("Matches your interest in %s", displayName(string(cc.CraftType))))
		}
		if region > 0 {
			reasons = append(reasons, fmt.Sprintf("From %s, a region you like", displayName(string(cc.Region))))
		}

		bonus := 0.0
		_, knownCraft := profile.PreferredCraftTypes[string(cc.CraftType)]
		_, knownRegion := profile.PreferredRegions[string(cc.Region)]
		if !empty && ((cc.CraftType != entities.CraftUnknown && !knownCraft) || (cc.Region != entities.RegionUnknown && !knownRegion)) {
			bonus = clamp(profile.CulturalOpenness*s.cfg.ExplorationBonusWeight, -s.cfg.MaxDiversityBonus, s.cfg.MaxDiversityBonus)
			reasons = append(reasons, "Something new to explore")
		}

		vector := 0.0
		if c.VectorScore != nil {
			vector = clamp01(*c.VectorScore)
		}
		out = append(out, entities.RecommendationItem{
			Item: itemWithContext(c),
			Score: entities.RecommendationScore{
				OverallScore:       clamp01(base + bonus),
				CulturalSimilarity: clamp01(base),
				VectorSimilarity:   vector,
				RegionalMatch:      region,
				FestivalRelevance:  festival,
				DiversityBonus:     bonus,
			},
			RecommendationType: entities.RecommendationPersonalized,
			MatchReasons:       reasons,
		})
	}
	sortByScore(out)
	return out
}

// GetSeasonalRecommendations returns items for the requested festivals,
// or for the festivals of the current month.
func (s *RecommendationService) GetSeasonalRecommendations(ctx context.Context, req SeasonalRecommendationRequest) (resp *entities.RecommendationResponse) {
	ctx, span := observability.StartSpan(ctx, "RecommendationService.GetSeasonalRecommendations")
	defer span.End()
	start := s.now()
	s.requests.Add(1)
	defer s.recoverInto(ctx, start, &resp)

	req.Limit = normalizeLimit(req.Limit)
	resp = s.newResponse(start, strategySeasonal)

	requested := append([]string{req.CurrentFestival}, req.UpcomingFestivals...)
	active := entities.ParseFestivals(requested)
	if len(active) == 0 {
		if strings.TrimSpace(req.CurrentFestival) != "" || len(req.UpcomingFestivals) > 0 {
			return s.fail(resp, start, "no recognised festivals in request")
		}
		active = taxonomy.FestivalsForMonth(s.now().Month())
	}
	resp.ActiveFestivals = active
	if len(active) == 0 {
		return s.fail(resp, start, "no festivals active this month")
	}

	key := cacheKey("seasonal", struct {
		Festivals []entities.Festival
		Region    string
		Limit     int
	}{active, strings.ToLower(req.Region), req.Limit})
	if cached := s.cachedResponse(ctx, key, start); cached != nil {
		return cached
	}

	var filter repositories.CatalogFilter
	if region := entities.ParseRegion(req.Region); region != entities.RegionUnknown {
		filter.Regions = []entities.Region{region}
	}
	results := s.seasonalPool(ctx, active, filter)
	if len(results) == 0 && len(filter.Regions) > 0 {
		results = s.seasonalPool(ctx, active, repositories.CatalogFilter{})
	}
	candidates := s.contexts.Candidates(ctx, results, nil)
	if len(candidates) == 0 {
		return s.fail(resp, start, "no candidate items available")
	}

	recs, ok := s.runType(ctx, entities.RecommendationFestivalSeasonal, func() []entities.RecommendationItem {
		return s.similarity.FindSeasonalRecommendations(ctx, candidates, active, req.Limit)
	})
	if ok {
		resp.RecommendationTypes = []entities.RecommendationType{entities.RecommendationFestivalSeasonal}
	}
	resp.Recommendations = recs
	if len(recs) == 0 {
		return s.fail(resp, start, "no seasonal items found for "+joinFestivals(active))
	}
	return s.finish(ctx, key, resp, start)
}

func (s *RecommendationService) seasonalPool(ctx context.Context, active []entities.Festival, filter repositories.CatalogFilter) []entities.ScoredItem {
	queries := taxonomy.SeasonalQueries(active)
	if len(queries) > maxSeasonalQueries {
		queries = queries[:maxSeasonalQueries]
	}
	perQuery := max(s.opts.CandidatePoolSize/len(queries), 5)

	var results []entities.ScoredItem
	for _, q := range queries {
		found, err := s.search.HybridSearch(ctx, q, perQuery, filter)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("query", q).Msg("seasonal search failed")
			continue
		}
		results = append(results, found...)
	}
	if len(results) == 0 {
		festivalFilter := filter
		festivalFilter.Festivals = active
		results = s.scrollCandidates(ctx, festivalFilter)
	}
	return results
}

// BatchRecommendations runs item requests concurrently and optionally
// removes items already recommended for an earlier item in the batch.
func (s *RecommendationService) BatchRecommendations(ctx context.Context, req BatchRecommendationRequest) *entities.BatchRecommendationResponse {
	ctx, span := observability.StartSpan(ctx, "RecommendationService.BatchRecommendations")
	defer span.End()
	start := s.now()

	ids := dedupeStrings(req.ItemIDs)
	responses := make([]*entities.RecommendationResponse, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.BatchConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			responses[i] = s.GetItemRecommendations(gctx, ItemRecommendationRequest{
				ItemID:              id,
				RecommendationTypes: req.RecommendationTypes,
				Limit:               req.RecommendationsPerItem,
			})
			return nil
		})
	}
	_ = g.Wait()

	out := &entities.BatchRecommendationResponse{
		Results:   make(map[string]*entities.RecommendationResponse, len(ids)),
		ItemOrder: ids,
		Stats: entities.BatchStats{
			RegionDistribution: make(map[string]int),
			CraftDistribution:  make(map[string]int),
		},
	}
	seen := make(map[string]struct{})
	for i, id := range ids {
		r := responses[i]
		if r.Error != "" {
			out.Stats.FailedItems = append(out.Stats.FailedItems, id)
		}
		if req.Deduplicate {
			kept := r.Recommendations[:0:0]
			for _, rec := range r.Recommendations {
				if _, dup := seen[rec.ItemID()]; dup {
					out.Stats.DuplicatesRemoved++
					continue
				}
				kept = append(kept, rec)
			}
			r.Recommendations = kept
			r.TotalRecommendations = len(kept)
		}
		for _, rec := range r.Recommendations {
			seen[rec.ItemID()] = struct{}{}
			out.Stats.TotalRecommendations++
			region, craft := culturalKeys(rec)
			out.Stats.RegionDistribution[string(region)]++
			out.Stats.CraftDistribution[string(craft)]++
		}
		out.Results[id] = r
	}
	out.Stats.UniqueItems = len(seen)
	if out.Stats.TotalRecommendations > 0 {
		out.Stats.DiversityScore = float64(len(out.Stats.RegionDistribution)) / float64(out.Stats.TotalRecommendations)
	}
	out.ProcessingTimeMs = elapsedMs(start, s.now())
	return out
}

// RecordFeedback records an interaction, drops the user's cached
// responses and notifies other instances.
func (s *RecommendationService) RecordFeedback(ctx context.Context, f *entities.UserInteractionFeedback) error {
	err := s.collaborative.RecordInteraction(ctx, f)
	if err != nil && apperrors.TypeOf(err) == apperrors.ErrorTypeValidation {
		return err
	}
	if s.cache != nil {
		if _, cerr := s.cache.DeleteByPrefix(ctx, userCachePrefix(f.UserID)); cerr != nil {
			observability.LoggerFromContext(ctx).Warn().Err(cerr).Str("user_id", f.UserID).Msg("failed to invalidate user recommendations")
		}
	}
	s.publish(ctx, entities.EventInteractionRecorded, f.UserID, f.TargetItemID())
	return err
}

// ClearCache drops every cache and profile on this instance and asks other
// instances to do the same.
func (s *RecommendationService) ClearCache(ctx context.Context) ClearCacheResult {
	res := s.ClearLocalCaches(ctx)
	s.publish(ctx, entities.EventCacheCleared, "", "")
	return res
}

// ClearLocalCaches drops every cache and profile on this instance only.
func (s *RecommendationService) ClearLocalCaches(ctx context.Context) ClearCacheResult {
	res := ClearCacheResult{
		ContextEntries:  s.contexts.Clear(),
		AnalysisEntries: s.analyzer.ClearCache(),
		Profiles:        s.collaborative.Clear(),
	}
	if s.cache != nil {
		n, err := s.cache.DeleteByPrefix(ctx, responseCachePrefix)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to clear response cache")
		}
		res.ResponseEntries = n
	}
	return res
}

// InvalidateUser drops cached responses for one user.
func (s *RecommendationService) InvalidateUser(ctx context.Context, userID string) {
	if s.cache == nil || userID == "" {
		return
	}
	if _, err := s.cache.DeleteByPrefix(ctx, userCachePrefix(userID)); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("user_id", userID).Msg("failed to invalidate user recommendations")
	}
}

// InvalidateItem drops the cached cultural context of a re-indexed item.
func (s *RecommendationService) InvalidateItem(ctx context.Context, itemID string) {
	if s.contexts.Forget(itemID) {
		observability.LoggerFromContext(ctx).Debug().Str("item_id", itemID).Msg("dropped cached item context")
	}
}

// NotifyItemIndexed drops the cached context of a re-indexed item on this
// instance and on every other instance.
func (s *RecommendationService) NotifyItemIndexed(ctx context.Context, itemID string) {
	s.InvalidateItem(ctx, itemID)
	s.publish(ctx, entities.EventItemIndexed, "", itemID)
}

// Stats returns a snapshot of service statistics.
func (s *RecommendationService) Stats() ServiceStats {
	hits, misses := s.cacheHits.Load(), s.cacheMisses.Load()
	st := ServiceStats{
		Requests:         s.requests.Load(),
		CacheHits:        hits,
		CacheMisses:      misses,
		Errors:           s.errorCount.Load(),
		ContextCacheSize: s.contexts.Len(),
		Analyzer:         s.analyzer.Stats(),
		Collaborative:    s.collaborative.Stats(),
		UptimeSeconds:    s.now().Sub(s.startedAt).Seconds(),
	}
	if hits+misses > 0 {
		st.CacheHitRate = float64(hits) / float64(hits+misses)
	}
	return st
}

// OptimizePerformance evicts expired entries from every in-process cache.
func (s *RecommendationService) OptimizePerformance(ctx context.Context) OptimizeResult {
	start := s.now()
	res := OptimizeResult{
		ExpiredContexts: s.contexts.EvictExpired(),
		ExpiredAnalyses: s.analyzer.EvictExpired(),
	}
	if ec, ok := s.cache.(expiringCache); ok {
		res.ExpiredResponses = ec.EvictExpired()
	}
	res.DurationMs = elapsedMs(start, s.now())
	observability.LoggerFromContext(ctx).Info().
		Int("expired_contexts", res.ExpiredContexts).
		Int("expired_analyses", res.ExpiredAnalyses).
		Int("expired_responses", res.ExpiredResponses).
		Msg("cache optimisation complete")
	return res
}

func (s *RecommendationService) publish(ctx context.Context, t entities.RecommendationEventType, userID, itemID string) {
	if s.events == nil {
		return
	}
	ev := entities.NewRecommendationEvent(t, userID, itemID)
	ev.Origin = s.opts.InstanceID
	if err := s.events.Publish(ctx, providers.EventChannelRecommendations, ev); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_type", string(t)).Msg("failed to publish recommendation event")
	}
}

func (s *RecommendationService) scrollCandidates(ctx context.Context, filter repositories.CatalogFilter) []entities.ScoredItem {
	items, err := s.search.Scroll(ctx, filter, s.opts.CandidatePoolSize)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("catalog scroll failed")
		return nil
	}
	out := make([]entities.ScoredItem, 0, len(items))
	for _, it := range items {
		out = append(out, entities.ScoredItem{Item: it})
	}
	return out
}

func (s *RecommendationService) newResponse(start time.Time, strategy string) *entities.RecommendationResponse {
	return &entities.RecommendationResponse{
		RequestID:           uuid.New().String(),
		Recommendations:     []entities.RecommendationItem{},
		RecommendationTypes: []entities.RecommendationType{},
		Strategy:            strategy,
		GeneratedAt:         start.UTC(),
	}
}

func (s *RecommendationService) fail(resp *entities.RecommendationResponse, start time.Time, msg string) *entities.RecommendationResponse {
	s.errorCount.Add(1)
	resp.Recommendations = []entities.RecommendationItem{}
	resp.TotalRecommendations = 0
	resp.Error = msg
	resp.ProcessingTimeMs = elapsedMs(start, s.now())
	return resp
}

func (s *RecommendationService) finish(ctx context.Context, key string, resp *entities.RecommendationResponse, start time.Time) *entities.RecommendationResponse {
	resp.TotalRecommendations = len(resp.Recommendations)
	resp.ProcessingTimeMs = elapsedMs(start, s.now())
	observability.RecordRecommendationMetric(ctx, s.metrics, resp.Strategy, false, s.now().Sub(start))
	if s.cache == nil {
		return resp
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return resp
	}
	if err := s.cache.Set(ctx, key, data, int(s.opts.ResponseCacheTTL.Seconds())); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to cache recommendation response")
	}
	return resp
}

// cachedResponse returns the stored response for key with refreshed
// timing metadata, or nil on a miss.
func (s *RecommendationService) cachedResponse(ctx context.Context, key string, start time.Time) *entities.RecommendationResponse {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("response cache read failed")
		}
		s.cacheMisses.Add(1)
		return nil
	}
	var resp entities.RecommendationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.cacheMisses.Add(1)
		return nil
	}
	s.cacheHits.Add(1)
	resp.CacheHits = 1
	resp.ProcessingTimeMs = elapsedMs(start, s.now())
	observability.RecordRecommendationMetric(ctx, s.metrics, resp.Strategy, true, s.now().Sub(start))
	return &resp
}

// recoverInto converts a panic escaping a recommendation method into an
// error response.
func (s *RecommendationService) recoverInto(ctx context.Context, start time.Time, resp **entities.RecommendationResponse) {
	r := recover()
	if r == nil {
		return
	}
	observability.LoggerFromContext(ctx).Error().Interface("panic", r).Msg("recommendation request failed")
	if *resp == nil {
		*resp = s.newResponse(start, strategyContentBased)
	}
	*resp = s.fail(*resp, start, "internal error while generating recommendations")
}

// rankAndTruncate keeps the best-scoring entry per item, then sorts and
// truncates.
func rankAndTruncate(items []entities.RecommendationItem, limit int) []entities.RecommendationItem {
	best := make(map[string]int, len(items))
	out := make([]entities.RecommendationItem, 0, len(items))
	for _, it := range items {
		id := it.ItemID()
		if idx, ok := best[id]; ok {
			if it.Score.OverallScore > out[idx].Score.OverallScore {
				out[idx] = it
			}
			continue
		}
		best[id] = len(out)
		out = append(out, it)
	}
	sortByScore(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func cacheKey(kind string, req any) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(append([]byte(kind+"|"), data...))
	return responseCachePrefix + kind + ":" + hex.EncodeToString(sum[:])
}

func userCachePrefix(userID string) string {
	return responseCachePrefix + "user:" + userID + ":"
}

func userCacheKey(req UserRecommendationRequest) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return userCachePrefix(req.UserID) + hex.EncodeToString(sum[:])
}

func unsupportedTypes(types []entities.RecommendationType, allowed map[entities.RecommendationType]bool) []string {
	var bad []string
	for _, t := range types {
		if !allowed[t] {
			bad = append(bad, string(t))
		}
	}
	return bad
}

func preferenceQuery(req UserRecommendationRequest) string {
	var parts []string
	for _, c := range req.PreferredCrafts {
		parts = append(parts, strings.ReplaceAll(string(c), "_", " "))
	}
	for _, r := range req.PreferredRegions {
		parts = append(parts, strings.ReplaceAll(string(r), "_", " "))
	}
	for _, f := range req.PreferredFestivals {
		parts = append(parts, strings.ReplaceAll(string(f), "_", " "))
	}
	return strings.Join(parts, " ")
}

func filterByBudget(candidates []Candidate, budget *entities.PriceRange) []Candidate {
	out := candidates[:0:0]
	for _, c := range candidates {
		if budget.Contains(c.Item.Price) {
			out = append(out, c)
		}
	}
	return out
}

func joinFestivals(fs []entities.Festival) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values)+1)
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func elapsedMs(start, end time.Time) float64 {
	return float64(end.Sub(start).Microseconds()) / 1000
}
