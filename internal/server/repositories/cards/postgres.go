package cards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skydexapp/skydex/internal/common"
	"github.com/skydexapp/skydex/internal/dbx"
	"github.com/skydexapp/skydex/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.UserCard, error) {
	query :=
		`SELECT id, user_id, card_id, status, lit_count, unlocked_at FROM user_cards
		 WHERE user_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.UserCard
	for rows.Next() {
		card := &models.UserCard{}
		var unlockedAt sql.NullTime
		if err := rows.Scan(&card.ID, &card.UserID, &card.CardID, &card.Status, &card.LitCount, &unlockedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if unlockedAt.Valid {
			card.UnlockedAt = &unlockedAt.Time
		}
		result = append(result, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, cardID string) (*models.UserCard, error) {
	query :=
		`SELECT id, user_id, card_id, status, lit_count, unlocked_at FROM user_cards
		 WHERE user_id = $1 AND card_id = $2
		 `

	card := &models.UserCard{}
	var unlockedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID, cardID).Scan(
		&card.ID, &card.UserID, &card.CardID, &card.Status, &card.LitCount, &unlockedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if unlockedAt.Valid {
		card.UnlockedAt = &unlockedAt.Time
	}
	return card, nil
}

func (r *PostgresRepository) MarkLit(ctx context.Context, userID, cardID string) error {
	query :=
		`INSERT INTO user_cards (user_id, card_id, status, lit_count)
		 VALUES ($1, $2, 'lit', 1)
		 ON CONFLICT (user_id, card_id)
		 DO UPDATE SET status = 'lit', lit_count = user_cards.lit_count + 1
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, cardID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetUnlocked(ctx context.Context, userID, cardID string, at time.Time) error {
	query :=
		`INSERT INTO user_cards (user_id, card_id, status, lit_count, unlocked_at)
		 VALUES ($1, $2, 'unlocked', 0, $3)
		 ON CONFLICT (user_id, card_id)
		 DO UPDATE SET status = 'unlocked', unlocked_at = $3
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, cardID, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, card *models.UserCard) error {
	query :=
		`INSERT INTO user_cards (user_id, card_id, status, lit_count, unlocked_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, card_id)
		 DO UPDATE SET status = $3, lit_count = $4, unlocked_at = $5
		 `

	var unlockedAt sql.NullTime
	if card.UnlockedAt != nil {
		unlockedAt = sql.NullTime{Time: *card.UnlockedAt, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query,
		card.UserID, card.CardID, card.Status, card.LitCount, unlockedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
