// Package scoring holds the pure point arithmetic shared by the client
// store and the server ledger: streak multipliers, the per-card
// cooldown gate, and the fixed starter grant.
package scoring

import (
	"math"
	"time"

	"github.com/skydexapp/skydex/internal/catalog"
)

const (
	// CooldownWindow is how long re-lighting the same card earns
	// nothing.
	CooldownWindow = 5 * time.Minute

	// InitialPoints is the starter point grant for a fresh account.
	InitialPoints = 30

	streakStep    = 0.2
	maxMultiplier = 2.0
)

// StarterCardIDs are pre-unlocked (but unlit) on every fresh account.
var StarterCardIDs = []string{"cirrus", "cumulus", "stratus"}

// Streak tracks a run of same-rarity discoveries.
type Streak struct {
	Rarity catalog.Rarity
	Count  int
}

// Multiplier returns the streak bonus for the n-th consecutive
// same-rarity discovery: +20% per step, capped at 2x.
func Multiplier(streakCount int) float64 {
	m := 1 + float64(streakCount-1)*streakStep
	return math.Min(m, maxMultiplier)
}

// Outcome is the result of evaluating one discovery event.
type Outcome struct {
	EarnedScore int
	InCooldown  bool
	Streak      Streak
}

// InCooldown reports whether an event at now falls inside the window
// opened by the card's most recent lit record. A zero lastLit means no
// prior record.
func InCooldown(lastLit, now time.Time) bool {
	return !lastLit.IsZero() && now.Sub(lastLit) < CooldownWindow
}

// Evaluate applies the cooldown and streak rules to one discovery.
// Inside cooldown the event earns zero and leaves the streak exactly
// as it was; outside, a matching rarity extends the streak and any
// other rarity restarts it at 1.
func Evaluate(prev Streak, rarity catalog.Rarity, baseScore int, lastLit, now time.Time) Outcome {
	if InCooldown(lastLit, now) {
		return Outcome{InCooldown: true, Streak: prev}
	}
	next := Streak{Rarity: rarity, Count: 1}
	if prev.Rarity == rarity {
		next.Count = prev.Count + 1
	}
	earned := int(math.Round(float64(baseScore) * Multiplier(next.Count)))
	return Outcome{EarnedScore: earned, Streak: next}
}
