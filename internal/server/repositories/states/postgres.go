package states

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Init(ctx context.Context, userID string, points int) error {
	query :=
		`INSERT INTO user_state (user_id, points)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, points); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.UserState, error) {
	query :=
		`SELECT user_id, points, total_lit_count, streak_rarity, streak_count, updated_at FROM user_state
		 WHERE user_id = $1
		 `

	state := &models.UserState{}
	var streakRarity sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&state.UserID, &state.Points, &state.TotalLitCount, &streakRarity, &state.StreakCount, &state.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	state.StreakRarity = streakRarity.String
	return state, nil
}

func (r *PostgresRepository) Update(ctx context.Context, state *models.UserState) error {
	query :=
		`UPDATE user_state
		 SET points = $2, total_lit_count = $3, streak_rarity = $4, streak_count = $5, updated_at = now()
		 WHERE user_id = $1
		 `

	var streakRarity sql.NullString
	if state.StreakRarity != "" {
		streakRarity = sql.NullString{String: state.StreakRarity, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query,
		state.UserID, state.Points, state.TotalLitCount, streakRarity, state.StreakCount); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
