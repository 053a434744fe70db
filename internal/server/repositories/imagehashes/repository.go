package imagehashes

import "context"

type Repository interface {
	Add(ctx context.Context, userID, phash string) error
	ListByUser(ctx context.Context, userID string) ([]string, error)
}
