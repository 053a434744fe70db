package models

import "time"

// Card status values. A lit card never regresses to unlocked or locked.
const (
	CardStatusLocked   = "locked"
	CardStatusUnlocked = "unlocked"
	CardStatusLit      = "lit"
)

// UserState is the per-user ledger aggregate row.
type UserState struct {
	UserID        string
	Points        int
	TotalLitCount int
	// StreakRarity is empty when no streak is running.
	StreakRarity string
	StreakCount  int
	UpdatedAt    time.Time
}

// UserCard is one row of the per-user collection.
type UserCard struct {
	ID         int64
	UserID     string
	CardID     string
	Status     string
	LitCount   int
	UnlockedAt *time.Time
}

// LitRecord is an append-only discovery event. Timestamp is Unix
// milliseconds to line up with the client-side record format.
type LitRecord struct {
	ID          int64
	UserID      string
	CardID      string
	Timestamp   int64
	EarnedScore int
	AIFamily    string
	AIGenus     string
	AISpecies   string
	AIFeatures  string
	AIWeather   string
	AIKnowledge string
	CreatedAt   time.Time
}

// ImageHash stores a perceptual hash of a previously recognized photo.
type ImageHash struct {
	ID        int64
	UserID    string
	PHash     string
	CreatedAt time.Time
}
