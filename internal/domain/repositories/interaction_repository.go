package repositories

import (
	"context"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
)

// InteractionRepository is the append-only log of user interactions.
type InteractionRepository interface {
	Append(ctx context.Context, feedback *entities.UserInteractionFeedback) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*entities.UserInteractionFeedback, error)
	// ListAll streams the whole log in timestamp order, used to rebuild
	// profiles on startup.
	ListAll(ctx context.Context, fn func(*entities.UserInteractionFeedback) error) error
}
