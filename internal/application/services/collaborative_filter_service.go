package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/repositories"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/artisan-discovery/backend/pkg/errors"
)

// ErrInsufficientHistory is returned by Recommend when the user has no
// profile yet or no sufficiently similar users exist. Callers fall back to
// content-based scoring.
var ErrInsufficientHistory = errors.New("insufficient interaction history for collaborative filtering")

var interactionBaseWeights = map[entities.InteractionType]float64{
	entities.InteractionPurchase: 1.0,
	entities.InteractionLike:     0.8,
	entities.InteractionSave:     0.7,
	entities.InteractionClick:    0.5,
	entities.InteractionView:     0.3,
	entities.InteractionIgnore:   0.0,
	entities.InteractionDislike:  -0.3,
}

// ItemContextResolver resolves the cultural context of an item by id.
type ItemContextResolver interface {
	ResolveContext(ctx context.Context, itemID string) (entities.CulturalContext, error)
}

// UserSimilarity pairs a user with their cultural similarity to another.
type UserSimilarity struct {
	UserID string  `json:"user_id"`
	Score  float64 `json:"score"`
}

// CollaborativeFilterStats summarises the in-memory state.
type CollaborativeFilterStats struct {
	Users        int `json:"users"`
	Profiles     int `json:"profiles"`
	Interactions int `json:"interactions"`
}

type userState struct {
	interactions []*entities.UserInteractionFeedback
	positives    int
	tradSum      float64
	tradCount    int
	// profile accumulates from the first interaction but is only exposed
	// once the user reaches the profile threshold.
	profile *entities.UserCulturalProfile
}

// CollaborativeFilterService builds cultural preference profiles from
// interactions and recommends what culturally similar users engaged with.
type CollaborativeFilterService struct {
	repo     repositories.InteractionRepository
	resolver ItemContextResolver
	cfg      ScoringConfig

	mu    sync.RWMutex
	users map[string]*userState
}

// NewCollaborativeFilterService creates the filter. repo may be nil, in
// which case interactions live only in memory.
func NewCollaborativeFilterService(repo repositories.InteractionRepository, resolver ItemContextResolver, cfg ScoringConfig) *CollaborativeFilterService {
	return &CollaborativeFilterService{
		repo:     repo,
		resolver: resolver,
		cfg:      cfg,
		users:    make(map[string]*userState),
	}
}

// InteractionWeight is the strength of the preference signal carried by an
// interaction, never negative.
func InteractionWeight(f *entities.UserInteractionFeedback) float64 {
	w := interactionBaseWeights[f.InteractionType]
	if f.InteractionDurationSeconds != nil {
		switch d := *f.InteractionDurationSeconds; {
		case d > 30:
			w *= 1.2
		case d < 5:
			w *= 0.8
		}
	}
	if f.ExplicitRating != nil {
		w *= *f.ExplicitRating / 5
	}
	return math.Max(w, 0)
}

// IsPositiveInteraction reports whether the interaction signals interest.
func IsPositiveInteraction(f *entities.UserInteractionFeedback) bool {
	if f.ExplicitRating != nil && *f.ExplicitRating >= 3 {
		return true
	}
	switch f.InteractionType {
	case entities.InteractionClick, entities.InteractionView, entities.InteractionPurchase,
		entities.InteractionLike, entities.InteractionSave:
		return true
	}
	return false
}

// RecordInteraction applies the interaction to the user's profile and
// appends it to the interaction log.
func (s *CollaborativeFilterService) RecordInteraction(ctx context.Context, f *entities.UserInteractionFeedback) error {
	if f == nil || f.UserID == "" || f.TargetItemID() == "" {
		return apperrors.NewValidationError("interaction requires user_id and item_id")
	}
	if _, ok := entities.ParseInteractionType(string(f.InteractionType)); !ok {
		return apperrors.NewValidationError(fmt.Sprintf("unknown interaction type %q", f.InteractionType))
	}
	if f.ExplicitRating != nil && (*f.ExplicitRating < 0 || *f.ExplicitRating > 5) {
		return apperrors.NewValidationError("explicit_rating must be between 0 and 5")
	}
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now().UTC()
	}

	s.apply(ctx, f)

	if s.repo != nil {
		if err := s.repo.Append(ctx, f); err != nil {
			return apperrors.NewExternalError("failed to persist interaction", err)
		}
	}
	return nil
}

// Warm replays the persisted interaction log into memory and returns the
// number of interactions applied.
func (s *CollaborativeFilterService) Warm(ctx context.Context) (int, error) {
	if s.repo == nil {
		return 0, nil
	}
	n := 0
	err := s.repo.ListAll(ctx, func(f *entities.UserInteractionFeedback) error {
		s.apply(ctx, f)
		n++
		return nil
	})
	return n, err
}

func (s *CollaborativeFilterService) apply(ctx context.Context, f *entities.UserInteractionFeedback) {
	var cc *entities.CulturalContext
	if s.resolver != nil {
		resolved, err := s.resolver.ResolveContext(ctx, f.TargetItemID())
		if err != nil {
			observability.LoggerFromContext(ctx).Debug().Err(err).
				Str("item_id", f.TargetItemID()).
				Msg("interaction item has no cultural context")
		} else {
			cc = &resolved
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.users[f.UserID]
	if !ok {
		st = &userState{profile: entities.NewUserCulturalProfile(f.UserID)}
		s.users[f.UserID] = st
	}
	st.interactions = append(st.interactions, f)

	p := st.profile
	positive := IsPositiveInteraction(f)
	if positive {
		st.positives++
	}
	if w := InteractionWeight(f); w > 0 && cc != nil {
		if cc.CraftType != entities.CraftUnknown {
			p.PreferredCraftTypes[string(cc.CraftType)] += w
		}
		if cc.Region != entities.RegionUnknown {
			p.PreferredRegions[string(cc.Region)] += w
		}
		for _, fest := range cc.FestivalRelevance {
			p.PreferredFestivals[string(fest)] += w
		}
		for _, m := range cc.Materials {
			p.PreferredMaterials[m] += w
		}
	}
	if positive && cc != nil {
		st.tradSum += traditionalSignal(cc.CulturalSignificance)
		st.tradCount++
	}
	if !f.Timestamp.IsZero() {
		p.SeasonalPatterns[int(f.Timestamp.Month())]++
	}

	p.InteractionCount = len(st.interactions)
	p.CulturalOpenness = float64(st.positives) / float64(p.InteractionCount)
	if st.tradCount > 0 {
		p.TraditionalPreference = st.tradSum / float64(st.tradCount)
	}
	p.LastUpdated = f.Timestamp
}

// traditionalSignal scores how heritage-leaning a significance is.
func traditionalSignal(sig entities.CulturalSignificance) float64 {
	switch sig {
	case entities.SignificanceHeritagePiece, entities.SignificanceCeremonial, entities.SignificanceReligious:
		return 1
	case entities.SignificanceContemporary:
		return 0
	}
	return 0.5
}

// GetProfile returns a copy of the user's profile, or nil when the user
// has fewer interactions than the profile threshold.
func (s *CollaborativeFilterService) GetProfile(userID string) *entities.UserCulturalProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profileLocked(userID).Clone()
}

func (s *CollaborativeFilterService) profileLocked(userID string) *entities.UserCulturalProfile {
	st, ok := s.users[userID]
	if !ok || len(st.interactions) < s.cfg.MinInteractionsProfile {
		return nil
	}
	return st.profile
}

// InteractionCount returns how many interactions the user has recorded.
func (s *CollaborativeFilterService) InteractionCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.users[userID]; ok {
		return len(st.interactions)
	}
	return 0
}

// RecentItemIDs returns up to n distinct item ids the user interacted with
// positively, most recent first.
func (s *CollaborativeFilterService) RecentItemIDs(userID string, n int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.users[userID]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for i := len(st.interactions) - 1; i >= 0 && len(out) < n; i-- {
		f := st.interactions[i]
		if !IsPositiveInteraction(f) {
			continue
		}
		id := f.TargetItemID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// FindSimilarUsers ranks other users by cultural similarity to userID,
// keeping those above the similarity threshold.
func (s *CollaborativeFilterService) FindSimilarUsers(userID string, limit int) []UserSimilarity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findSimilarUsersLocked(userID, limit)
}

func (s *CollaborativeFilterService) findSimilarUsersLocked(userID string, limit int) []UserSimilarity {
	target := s.profileLocked(userID)
	if target == nil {
		return nil
	}
	var out []UserSimilarity
	for other := range s.users {
		if other == userID {
			continue
		}
		p := s.profileLocked(other)
		if p == nil {
			continue
		}
		if sim := s.UserSimilarity(target, p); sim > s.cfg.SimilarUserThreshold {
			out = append(out, UserSimilarity{UserID: other, Score: sim})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// UserSimilarity is the weighted cultural similarity of two profiles.
func (s *CollaborativeFilterService) UserSimilarity(a, b *entities.UserCulturalProfile) float64 {
	return clamp01(
		s.cfg.UserCraftSimWeight*cosine(a.PreferredCraftTypes, b.PreferredCraftTypes) +
			s.cfg.UserRegionSimWeight*cosine(a.PreferredRegions, b.PreferredRegions) +
			s.cfg.UserFestivalSimWeight*cosine(a.PreferredFestivals, b.PreferredFestivals) +
			s.cfg.UserTraditionalSimWeight*(1-math.Abs(a.TraditionalPreference-b.TraditionalPreference)) +
			s.cfg.UserOpennessSimWeight*(1-math.Abs(a.CulturalOpenness-b.CulturalOpenness)),
	)
}

// Recommend aggregates the positive interactions of similar users over
// the candidate pool. Items the user already interacted with are skipped.
func (s *CollaborativeFilterService) Recommend(ctx context.Context, userID string, candidates []Candidate, limit int) ([]entities.RecommendationItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target := s.profileLocked(userID)
	if target == nil {
		return nil, ErrInsufficientHistory
	}
	similar := s.findSimilarUsersLocked(userID, s.cfg.SimilarUserLimit)
	if len(similar) == 0 {
		return nil, ErrInsufficientHistory
	}

	pool := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		if c.Item != nil {
			pool[c.Item.ID] = c
		}
	}
	seen := make(map[string]struct{})
	for _, f := range s.users[userID].interactions {
		seen[f.TargetItemID()] = struct{}{}
	}

	scores := make(map[string]float64)
	supporters := make(map[string]int)
	totalSim := 0.0
	for _, su := range similar {
		totalSim += su.Score
		counted := make(map[string]struct{})
		for _, f := range s.users[su.UserID].interactions {
			id := f.TargetItemID()
			if _, ok := pool[id]; !ok {
				continue
			}
			if _, ok := seen[id]; ok || !IsPositiveInteraction(f) {
				continue
			}
			scores[id] += su.Score * InteractionWeight(f)
			if _, ok := counted[id]; !ok {
				counted[id] = struct{}{}
				supporters[id]++
			}
		}
	}
	if len(scores) == 0 {
		return nil, ErrInsufficientHistory
	}

	maxRegion := maxValue(target.PreferredRegions)
	out := make([]entities.RecommendationItem, 0, len(scores))
	for _, c := range candidates {
		if c.Item == nil {
			continue
		}
		raw, ok := scores[c.Item.ID]
		if !ok {
			continue
		}
		base := clamp01(raw / totalSim)
		bonus := 0.0
		reasons := []string{fmt.Sprintf("Liked by %d users with similar taste", supporters[c.Item.ID])}
		if region := c.Context.Region; region != entities.RegionUnknown {
			familiarity := 0.0
			if maxRegion > 0 {
				familiarity = target.PreferredRegions[string(region)] / maxRegion
			}
			if familiarity < s.cfg.UnfamiliarRegionCutoff {
				bonus = target.CulturalOpenness * s.cfg.ExplorationBonusWeight
				reasons = append(reasons, fmt.Sprintf("Explore %s crafts", displayName(string(region))))
			}
		}
		bonus = clamp(bonus, -s.cfg.MaxDiversityBonus, s.cfg.MaxDiversityBonus)
		out = append(out, entities.RecommendationItem{
			Item: itemWithContext(c),
			Score: entities.RecommendationScore{
				OverallScore:   clamp01(base + bonus),
				DiversityBonus: bonus,
				RegionalMatch:  clamp01(targetAffinity(target.PreferredRegions, string(c.Context.Region), maxRegion)),
			},
			RecommendationType: entities.RecommendationCollaborative,
			MatchReasons:       reasons,
		})
	}

	sortByScore(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Clear drops every in-memory profile and interaction.
func (s *CollaborativeFilterService) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.users)
	s.users = make(map[string]*userState)
	return n
}

// Stats returns a summary of the in-memory state.
func (s *CollaborativeFilterService) Stats() CollaborativeFilterStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := CollaborativeFilterStats{Users: len(s.users)}
	for id, u := range s.users {
		st.Interactions += len(u.interactions)
		if s.profileLocked(id) != nil {
			st.Profiles++
		}
	}
	return st
}

func targetAffinity(prefs map[string]float64, key string, top float64) float64 {
	if top <= 0 {
		return 0
	}
	return prefs[key] / top
}

func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	dot, na, nb := 0.0, 0.0, 0.0
	for k, v := range a {
		na += v * v
		dot += v * b[k]
	}
	for _, v := range b {
		nb += v * v
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func maxValue(m map[string]float64) float64 {
	top := 0.0
	for _, v := range m {
		if v > top {
			top = v
		}
	}
	return top
}
