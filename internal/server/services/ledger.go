package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/skydexapp/skydex/internal/catalog"
	"github.com/skydexapp/skydex/internal/common"
	"github.com/skydexapp/skydex/internal/dbx"
	"github.com/skydexapp/skydex/internal/recognition"
	"github.com/skydexapp/skydex/internal/scoring"
	"github.com/skydexapp/skydex/internal/server/models"
	"github.com/skydexapp/skydex/internal/server/observability"
	"github.com/skydexapp/skydex/internal/server/repositories/repomanager"
)

// LitRecordSnapshot is one discovery event as serialized to clients.
type LitRecordSnapshot struct {
	Timestamp   int64                `json:"timestamp"`
	EarnedScore int                  `json:"earnedScore"`
	Analysis    recognition.Analysis `json:"aiAnalysis"`
}

// CardSnapshot is the per-card slice of a state snapshot.
type CardSnapshot struct {
	CardID     string              `json:"cardId"`
	Status     string              `json:"status"`
	LitCount   int                 `json:"litCount"`
	LitRecords []LitRecordSnapshot `json:"litRecords"`
	UnlockedAt *int64              `json:"unlockedAt"`
}

// StateSnapshot is the full collection state returned to clients.
type StateSnapshot struct {
	Points        int                      `json:"points"`
	TotalLitCount int                      `json:"totalLitCount"`
	StreakRarity  string                   `json:"streakRarity"`
	StreakCount   int                      `json:"streakCount"`
	Cards         map[string]*CardSnapshot `json:"cards"`
}

// LitOutcome reports the scoring result of one lighting event.
type LitOutcome struct {
	EarnedScore  int    `json:"earnedScore"`
	NewPoints    int    `json:"newPoints"`
	StreakCount  int    `json:"streakCount"`
	StreakRarity string `json:"streakRarity"`
	InCooldown   bool   `json:"inCooldown"`
}

// UnlockOutcome reports an unlock attempt. Success is false when the
// balance cannot cover the cost; that is a normal answer, not an error.
type UnlockOutcome struct {
	Success   bool `json:"success"`
	NewPoints int  `json:"newPoints"`
}

// MigrateCard is one card of a legacy local-state upload.
type MigrateCard struct {
	Status     string              `json:"status"`
	LitCount   int                 `json:"litCount"`
	UnlockedAt *int64              `json:"unlockedAt"`
	LitRecords []LitRecordSnapshot `json:"litRecords"`
}

// MigrateInput is the legacy local state a client asks to adopt. The
// top-level keys are snake_case; the per-card payload reuses the
// snapshot shape.
type MigrateInput struct {
	Points        int                    `json:"points"`
	TotalLitCount int                    `json:"total_lit_count"`
	StreakRarity  string                 `json:"streak_rarity"`
	StreakCount   int                    `json:"streak_count"`
	Cards         map[string]MigrateCard `json:"cards"`
}

// LedgerService owns the per-user collection state: snapshots,
// lighting, unlocking, and one-time migration of legacy local data.
type LedgerService struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	catalog *catalog.Catalog
	clock   clockwork.Clock
	metrics *observability.Metrics
}

func NewLedgerService(db *sql.DB, m repomanager.RepositoryManager, cat *catalog.Catalog, clock clockwork.Clock, metrics *observability.Metrics) *LedgerService {
	return &LedgerService{db: db, repos: m, catalog: cat, clock: clock, metrics: metrics}
}

// GetState assembles the full snapshot: ledger row, card rows, and lit
// records grouped per card in chronological order.
func (s *LedgerService) GetState(ctx context.Context, userID string) (*StateSnapshot, error) {
	if err := s.repos.States(s.db).Init(ctx, userID, scoring.InitialPoints); err != nil {
		return nil, fmt.Errorf("error ensuring state: %v", err)
	}

	state, err := s.repos.States(s.db).Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error reading state: %v", err)
	}
	cards, err := s.repos.Cards(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error reading cards: %v", err)
	}
	records, err := s.repos.LitRecords(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error reading lit records: %v", err)
	}

	byCard := make(map[string][]LitRecordSnapshot)
	for _, r := range records {
		byCard[r.CardID] = append(byCard[r.CardID], LitRecordSnapshot{
			Timestamp:   r.Timestamp,
			EarnedScore: r.EarnedScore,
			Analysis: recognition.Analysis{
				Family:   r.AIFamily,
				Genus:    r.AIGenus,
				Species:  r.AISpecies,
				Features: r.AIFeatures,
				Weather:  r.AIWeather,
				Know:     r.AIKnowledge,
			},
		})
	}

	snapshot := &StateSnapshot{
		Points:        state.Points,
		TotalLitCount: state.TotalLitCount,
		StreakRarity:  state.StreakRarity,
		StreakCount:   state.StreakCount,
		Cards:         make(map[string]*CardSnapshot, len(cards)),
	}
	for _, c := range cards {
		cs := &CardSnapshot{
			CardID:     c.CardID,
			Status:     c.Status,
			LitCount:   c.LitCount,
			LitRecords: byCard[c.CardID],
		}
		if cs.LitRecords == nil {
			cs.LitRecords = []LitRecordSnapshot{}
		}
		if c.UnlockedAt != nil {
			ms := c.UnlockedAt.UnixMilli()
			cs.UnlockedAt = &ms
		}
		snapshot.Cards[c.CardID] = cs
	}
	return snapshot, nil
}

// LitCard records one discovery. Inside the per-card cooldown the event
// is still appended and the card's lit count still grows, but it earns
// nothing and leaves the streak and total untouched.
func (s *LedgerService) LitCard(ctx context.Context, userID, cardID string, analysis recognition.Analysis) (*LitOutcome, error) {
	entry := s.catalog.Get(cardID)
	if entry == nil {
		return nil, common.ErrorUnknownCard
	}

	now := s.clock.Now()
	var outcome *LitOutcome

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.States(tx).Init(ctx, userID, scoring.InitialPoints); err != nil {
			return fmt.Errorf("error ensuring state: %v", err)
		}
		state, err := s.repos.States(tx).Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("error reading state: %v", err)
		}

		lastMs, err := s.repos.LitRecords(tx).LastTimestamp(ctx, userID, cardID)
		if err != nil {
			return fmt.Errorf("error reading last record: %v", err)
		}
		var lastLit time.Time
		if lastMs > 0 {
			lastLit = time.UnixMilli(lastMs)
		}

		prev := scoring.Streak{Rarity: catalog.Rarity(state.StreakRarity), Count: state.StreakCount}
		result := scoring.Evaluate(prev, entry.Rarity(), entry.Score, lastLit, now)

		record := &models.LitRecord{
			UserID:      userID,
			CardID:      cardID,
			Timestamp:   now.UnixMilli(),
			EarnedScore: result.EarnedScore,
			AIFamily:    analysis.Family,
			AIGenus:     analysis.Genus,
			AISpecies:   analysis.Species,
			AIFeatures:  analysis.Features,
			AIWeather:   analysis.Weather,
			AIKnowledge: analysis.Know,
		}
		if err := s.repos.LitRecords(tx).Append(ctx, record); err != nil {
			return fmt.Errorf("error appending record: %v", err)
		}
		if err := s.repos.Cards(tx).MarkLit(ctx, userID, cardID); err != nil {
			return fmt.Errorf("error marking card lit: %v", err)
		}

		state.Points += result.EarnedScore
		if !result.InCooldown {
			state.TotalLitCount++
		}
		state.StreakRarity = string(result.Streak.Rarity)
		state.StreakCount = result.Streak.Count
		if err := s.repos.States(tx).Update(ctx, state); err != nil {
			return fmt.Errorf("error updating state: %v", err)
		}

		outcome = &LitOutcome{
			EarnedScore:  result.EarnedScore,
			NewPoints:    state.Points,
			StreakCount:  state.StreakCount,
			StreakRarity: state.StreakRarity,
			InCooldown:   result.InCooldown,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LitEvents.Inc()
	if outcome.InCooldown {
		s.metrics.CooldownHits.Inc()
	}
	return outcome, nil
}

// UnlockCard spends points on a hint unlock. A lit card succeeds
// without charging; an insufficient balance answers success=false.
func (s *LedgerService) UnlockCard(ctx context.Context, userID, cardID string) (*UnlockOutcome, error) {
	entry := s.catalog.Get(cardID)
	if entry == nil {
		return nil, common.ErrorUnknownCard
	}
	cost := catalog.UnlockCost(entry.Rarity())
	now := s.clock.Now()

	var outcome *UnlockOutcome
	var alreadyLit bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.States(tx).Init(ctx, userID, scoring.InitialPoints); err != nil {
			return fmt.Errorf("error ensuring state: %v", err)
		}
		state, err := s.repos.States(tx).Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("error reading state: %v", err)
		}

		card, err := s.repos.Cards(tx).Get(ctx, userID, cardID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("error reading card: %v", err)
		}
		if card != nil && card.Status == models.CardStatusLit {
			alreadyLit = true
			outcome = &UnlockOutcome{Success: true, NewPoints: state.Points}
			return nil
		}

		if state.Points < cost {
			outcome = &UnlockOutcome{Success: false, NewPoints: state.Points}
			return nil
		}

		if err := s.repos.Cards(tx).SetUnlocked(ctx, userID, cardID, now); err != nil {
			return fmt.Errorf("error unlocking card: %v", err)
		}
		state.Points -= cost
		if err := s.repos.States(tx).Update(ctx, state); err != nil {
			return fmt.Errorf("error updating state: %v", err)
		}
		outcome = &UnlockOutcome{Success: true, NewPoints: state.Points}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case !outcome.Success:
		s.metrics.Unlocks.WithLabelValues("insufficient").Inc()
	case alreadyLit:
		s.metrics.Unlocks.WithLabelValues("already_lit").Inc()
	default:
		s.metrics.Unlocks.WithLabelValues("success").Inc()
	}
	return outcome, nil
}

// Migrate adopts uploaded legacy local state, but only onto an account
// that has never lit anything; otherwise the server copy wins.
func (s *LedgerService) Migrate(ctx context.Context, userID string, in *MigrateInput) (bool, error) {
	now := s.clock.Now()
	migrated := false

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.States(tx).Init(ctx, userID, scoring.InitialPoints); err != nil {
			return fmt.Errorf("error ensuring state: %v", err)
		}
		state, err := s.repos.States(tx).Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("error reading state: %v", err)
		}
		if state.TotalLitCount > 0 {
			return nil
		}

		state.Points = in.Points
		state.TotalLitCount = in.TotalLitCount
		state.StreakRarity = in.StreakRarity
		state.StreakCount = in.StreakCount
		if err := s.repos.States(tx).Update(ctx, state); err != nil {
			return fmt.Errorf("error updating state: %v", err)
		}

		for cardID, card := range in.Cards {
			row := &models.UserCard{
				UserID:   userID,
				CardID:   cardID,
				Status:   card.Status,
				LitCount: card.LitCount,
			}
			if row.Status == "" {
				row.Status = models.CardStatusLocked
			}
			if card.UnlockedAt != nil {
				at := time.UnixMilli(*card.UnlockedAt)
				row.UnlockedAt = &at
			}
			if err := s.repos.Cards(tx).Upsert(ctx, row); err != nil {
				return fmt.Errorf("error migrating card: %v", err)
			}

			for _, r := range card.LitRecords {
				ts := r.Timestamp
				if ts == 0 {
					ts = now.UnixMilli()
				}
				record := &models.LitRecord{
					UserID:      userID,
					CardID:      cardID,
					Timestamp:   ts,
					EarnedScore: r.EarnedScore,
					AIFamily:    r.Analysis.Family,
					AIGenus:     r.Analysis.Genus,
					AISpecies:   r.Analysis.Species,
					AIFeatures:  r.Analysis.Features,
					AIWeather:   r.Analysis.Weather,
					AIKnowledge: r.Analysis.Know,
				}
				if err := s.repos.LitRecords(tx).Append(ctx, record); err != nil {
					return fmt.Errorf("error migrating record: %v", err)
				}
			}
		}
		migrated = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if migrated {
		s.metrics.Migrations.WithLabelValues("applied").Inc()
	} else {
		s.metrics.Migrations.WithLabelValues("skipped").Inc()
	}
	return migrated, nil
}
