// Package services holds the client's business logic: the local
// collection store and its reconciliation with the server ledger.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/skydexapp/skydex/internal/catalog"
	"github.com/skydexapp/skydex/internal/client/kvstore"
	"github.com/skydexapp/skydex/internal/client/models"
	"github.com/skydexapp/skydex/internal/common"
	"github.com/skydexapp/skydex/internal/recognition"
	"github.com/skydexapp/skydex/internal/scoring"
)

const (
	stateKey     = "user_state"
	sessionKey   = "auth"
	migrationKey = "migration_done"
)

// UserStateStore owns the local aggregate. Every mutation clones the
// snapshot, applies the transition, and writes the result through to
// the KV backend before returning.
type UserStateStore struct {
	kv      kvstore.Store
	catalog *catalog.Catalog
	clock   clockwork.Clock
}

func NewUserStateStore(kv kvstore.Store, cat *catalog.Catalog, clock clockwork.Clock) *UserStateStore {
	return &UserStateStore{kv: kv, catalog: cat, clock: clock}
}

// State loads the aggregate, initializing the starter grant on first
// use.
func (s *UserStateStore) State(ctx context.Context) (*models.UserState, error) {
	raw, err := s.kv.Get(ctx, stateKey)
	if err != nil {
		return nil, fmt.Errorf("error loading state: %w", err)
	}
	if raw == nil {
		state := models.NewUserState(s.clock.Now())
		if err := s.save(ctx, state); err != nil {
			return nil, err
		}
		return state, nil
	}

	var state models.UserState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("error decoding state: %w", err)
	}
	if state.Cards == nil {
		state.Cards = map[string]*models.CardState{}
	}
	return &state, nil
}

func (s *UserStateStore) save(ctx context.Context, state *models.UserState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("error encoding state: %w", err)
	}
	if err := s.kv.Set(ctx, stateKey, raw); err != nil {
		return fmt.Errorf("error saving state: %w", err)
	}
	return nil
}

// Overwrite replaces the whole aggregate, used by sync reconciliation.
func (s *UserStateStore) Overwrite(ctx context.Context, state *models.UserState) error {
	return s.save(ctx, state)
}

// CardState returns one card's state, defaulting to locked.
func (s *UserStateStore) CardState(ctx context.Context, cardID string) (*models.CardState, error) {
	state, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	return state.Card(cardID), nil
}

// LitEvent is one discovery to record.
type LitEvent struct {
	CardID    string
	ImageURL  string
	Thumbnail string
	Analysis  recognition.Analysis
}

// LitOutcome reports the applied scoring.
type LitOutcome struct {
	EarnedScore  int
	NewPoints    int
	StreakCount  int
	StreakRarity string
	InCooldown   bool
}

// LitCard records a discovery. It is never rejected for a known card:
// inside the cooldown it awards zero but still appends the record and
// increments the card's lit count.
func (s *UserStateStore) LitCard(ctx context.Context, ev LitEvent) (*LitOutcome, error) {
	entry := s.catalog.Get(ev.CardID)
	if entry == nil {
		return nil, common.ErrorUnknownCard
	}

	state, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	next := state.Clone()
	now := s.clock.Now()

	card := next.Cards[ev.CardID]
	if card == nil {
		card = &models.CardState{CardID: ev.CardID, LitRecords: []models.LitRecord{}}
		next.Cards[ev.CardID] = card
	}

	var lastLit time.Time
	if last := card.LastRecord(); last != nil {
		lastLit = time.UnixMilli(last.Timestamp)
	}

	prev := scoring.Streak{Rarity: catalog.Rarity(next.StreakRarity), Count: next.StreakCount}
	result := scoring.Evaluate(prev, entry.Rarity(), entry.Score, lastLit, now)

	card.Status = models.StatusLit
	card.LitCount++
	card.LitRecords = append(card.LitRecords, models.LitRecord{
		Timestamp:   now.UnixMilli(),
		EarnedScore: result.EarnedScore,
		Analysis:    ev.Analysis,
		ImageURL:    ev.ImageURL,
		Thumbnail:   ev.Thumbnail,
	})

	next.Points += result.EarnedScore
	if !result.InCooldown {
		next.TotalLitCount++
	}
	next.StreakRarity = string(result.Streak.Rarity)
	next.StreakCount = result.Streak.Count

	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return &LitOutcome{
		EarnedScore:  result.EarnedScore,
		NewPoints:    next.Points,
		StreakCount:  next.StreakCount,
		StreakRarity: next.StreakRarity,
		InCooldown:   result.InCooldown,
	}, nil
}

// UnlockCard spends points on a hint. It reports false when the
// balance is short and never downgrades a lit card.
func (s *UserStateStore) UnlockCard(ctx context.Context, cardID string) (bool, error) {
	entry := s.catalog.Get(cardID)
	if entry == nil {
		return false, common.ErrorUnknownCard
	}

	state, err := s.State(ctx)
	if err != nil {
		return false, err
	}
	cost := catalog.UnlockCost(entry.Rarity())
	if state.Points < cost {
		return false, nil
	}

	next := state.Clone()
	card := next.Cards[cardID]
	if card != nil && card.Status == models.StatusLit {
		return true, nil
	}

	ms := s.clock.Now().UnixMilli()
	if card == nil {
		card = &models.CardState{CardID: cardID, LitRecords: []models.LitRecord{}}
		next.Cards[cardID] = card
	}
	card.Status = models.StatusUnlocked
	card.UnlockedAt = &ms
	next.Points -= cost

	if err := s.save(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Stats summarizes collection progress over the whole catalog.
type Stats struct {
	Total    int
	Lit      int
	Unlocked int
	Locked   int
}

func (s *UserStateStore) Stats(ctx context.Context) (*Stats, error) {
	state, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Stats{Total: s.catalog.Len()}
	for _, card := range state.Cards {
		switch card.Status {
		case models.StatusLit:
			stats.Lit++
		case models.StatusUnlocked:
			stats.Unlocked++
		}
	}
	stats.Locked = stats.Total - stats.Lit - stats.Unlocked
	return stats, nil
}

// StreakInfo previews the bonus the next discovery of the given rarity
// would get.
type StreakInfo struct {
	NextCount  int
	Multiplier float64
	HasBonus   bool
}

func (s *UserStateStore) StreakInfo(ctx context.Context, rarity catalog.Rarity) (*StreakInfo, error) {
	state, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	next := 1
	if state.StreakRarity == string(rarity) {
		next = state.StreakCount + 1
	}
	m := scoring.Multiplier(next)
	return &StreakInfo{NextCount: next, Multiplier: m, HasBonus: m > 1}, nil
}

// IsInCooldown reports whether lighting the card now would award zero.
func (s *UserStateStore) IsInCooldown(ctx context.Context, cardID string) (bool, error) {
	state, err := s.State(ctx)
	if err != nil {
		return false, err
	}
	last := state.Card(cardID).LastRecord()
	if last == nil {
		return false, nil
	}
	return scoring.InCooldown(time.UnixMilli(last.Timestamp), s.clock.Now()), nil
}

// LitCards returns lit cards newest-discovery first.
func (s *UserStateStore) LitCards(ctx context.Context) ([]*models.CardState, error) {
	state, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.CardState
	for _, card := range state.Cards {
		if card.Status == models.StatusLit {
			out = append(out, card)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		var a, b int64
		if r := out[i].LastRecord(); r != nil {
			a = r.Timestamp
		}
		if r := out[j].LastRecord(); r != nil {
			b = r.Timestamp
		}
		return a > b
	})
	return out, nil
}

// Reset re-initializes the aggregate to the starter grant.
func (s *UserStateStore) Reset(ctx context.Context) error {
	return s.save(ctx, models.NewUserState(s.clock.Now()))
}

// SaveSession persists the login for later runs.
func (s *UserStateStore) SaveSession(ctx context.Context, session *models.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error encoding session: %w", err)
	}
	return s.kv.Set(ctx, sessionKey, raw)
}

// Session returns the stored login or nil when logged out.
func (s *UserStateStore) Session(ctx context.Context) (*models.Session, error) {
	raw, err := s.kv.Get(ctx, sessionKey)
	if err != nil || raw == nil {
		return nil, err
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("error decoding session: %w", err)
	}
	return &session, nil
}

// ClearSession logs out.
func (s *UserStateStore) ClearSession(ctx context.Context) error {
	return s.kv.Delete(ctx, sessionKey)
}
