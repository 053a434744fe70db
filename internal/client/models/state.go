// Package models defines the client-side collection state: the local
// aggregate the app mutates offline and syncs with the server ledger.
package models

import (
	"time"

	"github.com/skydexapp/skydex/internal/recognition"
	"github.com/skydexapp/skydex/internal/scoring"
)

// Card status values, matching the server's vocabulary.
const (
	StatusLocked   = "locked"
	StatusUnlocked = "unlocked"
	StatusLit      = "lit"
)

// LitRecord is one discovery event. Thumbnail and ImageURL stay local;
// they are never uploaded.
type LitRecord struct {
	Timestamp   int64                `json:"timestamp"`
	EarnedScore int                  `json:"earnedScore"`
	Analysis    recognition.Analysis `json:"aiAnalysis"`
	ImageURL    string               `json:"imageUrl,omitempty"`
	Thumbnail   string               `json:"thumbnail,omitempty"`
}

// CardState is the per-card slice of the aggregate.
type CardState struct {
	CardID     string      `json:"cardId"`
	Status     string      `json:"status"`
	LitCount   int         `json:"litCount"`
	LitRecords []LitRecord `json:"litRecords"`
	UnlockedAt *int64      `json:"unlockedAt,omitempty"`
}

// LastRecord returns the newest lit record or nil.
func (c *CardState) LastRecord() *LitRecord {
	if c == nil || len(c.LitRecords) == 0 {
		return nil
	}
	return &c.LitRecords[len(c.LitRecords)-1]
}

// UserState is the root aggregate. Mutating operations produce a new
// snapshot via Clone instead of editing in place.
type UserState struct {
	Points        int                   `json:"points"`
	TotalLitCount int                   `json:"totalLitCount"`
	StreakRarity  string                `json:"streakRarity,omitempty"`
	StreakCount   int                   `json:"streakCount,omitempty"`
	Cards         map[string]*CardState `json:"cards"`
}

// NewUserState returns the starter grant: initial points plus the
// starter cards unlocked but unlit.
func NewUserState(now time.Time) *UserState {
	state := &UserState{
		Points: scoring.InitialPoints,
		Cards:  make(map[string]*CardState, len(scoring.StarterCardIDs)),
	}
	ms := now.UnixMilli()
	for _, id := range scoring.StarterCardIDs {
		state.Cards[id] = &CardState{
			CardID:     id,
			Status:     StatusUnlocked,
			LitRecords: []LitRecord{},
			UnlockedAt: &ms,
		}
	}
	return state
}

// Card returns the card state, defaulting to a locked placeholder that
// is not attached to the aggregate.
func (s *UserState) Card(cardID string) *CardState {
	if c, ok := s.Cards[cardID]; ok {
		return c
	}
	return &CardState{CardID: cardID, Status: StatusLocked, LitRecords: []LitRecord{}}
}

// Clone deep-copies the aggregate.
func (s *UserState) Clone() *UserState {
	out := &UserState{
		Points:        s.Points,
		TotalLitCount: s.TotalLitCount,
		StreakRarity:  s.StreakRarity,
		StreakCount:   s.StreakCount,
		Cards:         make(map[string]*CardState, len(s.Cards)),
	}
	for id, c := range s.Cards {
		copied := *c
		copied.LitRecords = append([]LitRecord(nil), c.LitRecords...)
		if c.UnlockedAt != nil {
			at := *c.UnlockedAt
			copied.UnlockedAt = &at
		}
		out.Cards[id] = &copied
	}
	return out
}

// Session is the stored login.
type Session struct {
	Email string `json:"email"`
	Token string `json:"token"`
}
