package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/artisan-discovery/backend/internal/adapters/database"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/clients/postgres"
)

var interactionRowColumns = []string{
	"id", "user_id", "item_id", "recommended_item_id", "interaction_type",
	"explicit_rating", "interaction_duration_seconds", "recommendation_type", "created_at",
}

func newMockAdapter(t *testing.T) (*database.InteractionAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewInteractionAdapter(postgres.NewFromDB(db)), mock
}

func TestInteractionAdapter_Append(t *testing.T) {
	adapter, mock := newMockAdapter(t)
	rating := 4.5
	mock.ExpectExec(`INSERT INTO "user_interactions"`).WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Append(context.Background(), &entities.UserInteractionFeedback{
		ID:              "i1",
		UserID:          "u1",
		ItemID:          "item-1",
		InteractionType: entities.InteractionLike,
		ExplicitRating:  &rating,
		Timestamp:       time.Now(),
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInteractionAdapter_AppendFailure(t *testing.T) {
	adapter, mock := newMockAdapter(t)
	mock.ExpectExec(`INSERT INTO "user_interactions"`).WillReturnError(errors.New("connection reset"))

	err := adapter.Append(context.Background(), &entities.UserInteractionFeedback{ID: "i1", UserID: "u1", ItemID: "x"})

	assert.Error(t, err)
	assert.Error(t, adapter.Append(context.Background(), nil))
}

func TestInteractionAdapter_ListByUser(t *testing.T) {
	adapter, mock := newMockAdapter(t)
	at := time.Date(2025, time.October, 20, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(interactionRowColumns).
		AddRow("i2", "u1", "item-2", "rec-2", "purchase", nil, 42.0, "personalized", at).
		AddRow("i1", "u1", "item-1", nil, "view", 3.0, nil, nil, at.Add(-time.Hour))
	mock.ExpectQuery(`SELECT .* FROM "user_interactions" WHERE .*"user_id" = \$1.* ORDER BY "created_at" DESC`).WillReturnRows(rows)

	got, err := adapter.ListByUser(context.Background(), "u1", 10)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "rec-2", got[0].TargetItemID())
	assert.Equal(t, entities.InteractionPurchase, got[0].InteractionType)
	assert.Nil(t, got[0].ExplicitRating)
	require.NotNil(t, got[0].InteractionDurationSeconds)
	assert.InDelta(t, 42.0, *got[0].InteractionDurationSeconds, 1e-9)
	assert.Equal(t, "item-1", got[1].TargetItemID())
	require.NotNil(t, got[1].ExplicitRating)
	assert.Empty(t, got[1].RecommendationType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInteractionAdapter_ListAllStopsOnCallbackError(t *testing.T) {
	adapter, mock := newMockAdapter(t)
	at := time.Now().UTC()
	rows := sqlmock.NewRows(interactionRowColumns).
		AddRow("i1", "u1", "a", nil, "like", nil, nil, nil, at).
		AddRow("i2", "u2", "b", nil, "like", nil, nil, nil, at)
	mock.ExpectQuery(`SELECT .* FROM "user_interactions" ORDER BY "created_at" ASC`).WillReturnRows(rows)

	stop := errors.New("stop")
	seen := 0
	err := adapter.ListAll(context.Background(), func(f *entities.UserInteractionFeedback) error {
		seen++
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}

func TestInteractionAdapter_EnsureSchema(t *testing.T) {
	adapter, mock := newMockAdapter(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS user_interactions`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, adapter.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
