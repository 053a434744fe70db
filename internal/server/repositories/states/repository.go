package states

import (
	"context"

	"github.com/skydexapp/skydex/internal/server/models"
)

type Repository interface {
	// Init creates the ledger row for a fresh account with the starter
	// grant; it is a no-op if the row already exists.
	Init(ctx context.Context, userID string, points int) error
	Get(ctx context.Context, userID string) (*models.UserState, error)
	Update(ctx context.Context, state *models.UserState) error
}
