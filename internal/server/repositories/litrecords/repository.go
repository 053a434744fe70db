package litrecords

import (
	"context"

	"github.com/skydexapp/skydex/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, record *models.LitRecord) error
	// LastTimestamp returns the newest record timestamp (Unix ms) for
	// one card, or 0 when the card has never been lit.
	LastTimestamp(ctx context.Context, userID, cardID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]*models.LitRecord, error)
}
