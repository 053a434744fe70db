package cards

import (
	"context"
	"time"

	"github.com/skydexapp/skydex/internal/server/models"
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.UserCard, error)
	Get(ctx context.Context, userID, cardID string) (*models.UserCard, error)
	// MarkLit transitions a card to lit and increments its lit count,
	// creating the row when needed.
	MarkLit(ctx context.Context, userID, cardID string) error
	// SetUnlocked transitions a card to unlocked; callers must not use
	// it on a lit card.
	SetUnlocked(ctx context.Context, userID, cardID string, at time.Time) error
	// Upsert replaces the whole card row, used by state migration.
	Upsert(ctx context.Context, card *models.UserCard) error
}
