package litrecords

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skydexapp/skydex/internal/dbx"
	"github.com/skydexapp/skydex/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, record *models.LitRecord) error {
	query :=
		`INSERT INTO lit_records
		 (user_id, card_id, ts_ms, earned_score, ai_family, ai_genus, ai_species, ai_features, ai_weather, ai_knowledge)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		record.UserID, record.CardID, record.Timestamp, record.EarnedScore,
		record.AIFamily, record.AIGenus, record.AISpecies,
		record.AIFeatures, record.AIWeather, record.AIKnowledge).Scan(&record.ID)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) LastTimestamp(ctx context.Context, userID, cardID string) (int64, error) {
	query :=
		`SELECT ts_ms FROM lit_records
		 WHERE user_id = $1 AND card_id = $2
		 ORDER BY ts_ms DESC
		 LIMIT 1
		 `

	var ts int64
	err := r.db.QueryRowContext(ctx, query, userID, cardID).Scan(&ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return ts, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.LitRecord, error) {
	query :=
		`SELECT id, user_id, card_id, ts_ms, earned_score, ai_family, ai_genus, ai_species, ai_features, ai_weather, ai_knowledge, created_at
		 FROM lit_records
		 WHERE user_id = $1
		 ORDER BY ts_ms
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.LitRecord
	for rows.Next() {
		record := &models.LitRecord{}
		if err := rows.Scan(
			&record.ID, &record.UserID, &record.CardID, &record.Timestamp, &record.EarnedScore,
			&record.AIFamily, &record.AIGenus, &record.AISpecies,
			&record.AIFeatures, &record.AIWeather, &record.AIKnowledge, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
