package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/repositories"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/artisan-discovery/backend/pkg/errors"
)

const interactionsTable = "user_interactions"

// InteractionSchema creates the interaction log table.
const InteractionSchema = `
CREATE TABLE IF NOT EXISTS user_interactions (
	id                           TEXT PRIMARY KEY,
	user_id                      TEXT NOT NULL,
	item_id                      TEXT NOT NULL,
	recommended_item_id          TEXT,
	interaction_type             TEXT NOT NULL,
	explicit_rating              DOUBLE PRECISION,
	interaction_duration_seconds DOUBLE PRECISION,
	recommendation_type          TEXT,
	created_at                   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_interactions_user ON user_interactions (user_id, created_at DESC);
`

var interactionColumns = []any{
	"id", "user_id", "item_id", "recommended_item_id", "interaction_type",
	"explicit_rating", "interaction_duration_seconds", "recommendation_type", "created_at",
}

// InteractionAdapter persists the append-only interaction log in Postgres.
type InteractionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewInteractionAdapter creates a new interaction adapter.
func NewInteractionAdapter(client *postgres.Client) *InteractionAdapter {
	return &InteractionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.InteractionRepository = (*InteractionAdapter)(nil)

// EnsureSchema creates the interaction table when missing.
func (a *InteractionAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, InteractionSchema); err != nil {
		return apperrors.NewInternalError("failed to create interaction schema", err)
	}
	return nil
}

// Append inserts one interaction.
func (a *InteractionAdapter) Append(ctx context.Context, f *entities.UserInteractionFeedback) error {
	if f == nil {
		return apperrors.NewInternalError("interaction is nil", fmt.Errorf("interaction is nil"))
	}

	record := goqu.Record{
		"id":                           f.ID,
		"user_id":                      f.UserID,
		"item_id":                      f.ItemID,
		"recommended_item_id":          sql.NullString{String: f.RecommendedItemID, Valid: f.RecommendedItemID != ""},
		"interaction_type":             string(f.InteractionType),
		"explicit_rating":              nullFloat(f.ExplicitRating),
		"interaction_duration_seconds": nullFloat(f.InteractionDurationSeconds),
		"recommendation_type":          sql.NullString{String: string(f.RecommendationType), Valid: f.RecommendationType != ""},
		"created_at":                   f.Timestamp,
	}

	query, args, err := a.db.Insert(interactionsTable).Prepared(true).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build interaction insert query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to append interaction", err)
	}
	return nil
}

// ListByUser returns the user's most recent interactions, newest first.
func (a *InteractionAdapter) ListByUser(ctx context.Context, userID string, limit int) ([]*entities.UserInteractionFeedback, error) {
	if limit <= 0 {
		limit = 100
	}
	query, args, err := a.db.From(interactionsTable).
		Prepared(true).
		Select(interactionColumns...).
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build interaction query", err)
	}

	var out []*entities.UserInteractionFeedback
	err = a.scan(ctx, query, args, func(f *entities.UserInteractionFeedback) error {
		out = append(out, f)
		return nil
	})
	return out, err
}

// ListAll streams every interaction in chronological order.
func (a *InteractionAdapter) ListAll(ctx context.Context, fn func(*entities.UserInteractionFeedback) error) error {
	query, args, err := a.db.From(interactionsTable).
		Prepared(true).
		Select(interactionColumns...).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build interaction query", err)
	}
	return a.scan(ctx, query, args, fn)
}

func (a *InteractionAdapter) scan(ctx context.Context, query string, args []any, fn func(*entities.UserInteractionFeedback) error) error {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to query interactions", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			f                     entities.UserInteractionFeedback
			recommended, recoType sql.NullString
			rating, duration      sql.NullFloat64
			interactionType       string
			createdAt             time.Time
		)
		if err := rows.Scan(&f.ID, &f.UserID, &f.ItemID, &recommended, &interactionType,
			&rating, &duration, &recoType, &createdAt); err != nil {
			return apperrors.NewInternalError("failed to scan interaction", err)
		}
		f.RecommendedItemID = recommended.String
		f.InteractionType = entities.InteractionType(interactionType)
		f.RecommendationType = entities.RecommendationType(recoType.String)
		f.ExplicitRating = floatPtr(rating)
		f.InteractionDurationSeconds = floatPtr(duration)
		f.Timestamp = createdAt.UTC()
		if err := fn(&f); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("failed to iterate interactions", err)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
