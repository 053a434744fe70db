package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/skydexapp/skydex/internal/catalog"
	"github.com/skydexapp/skydex/internal/client/models"
)

func statusMark(status string) string {
	switch status {
	case models.StatusLit:
		return "*"
	case models.StatusUnlocked:
		return "+"
	default:
		return " "
	}
}

// List prints the whole catalog with per-card collection progress.
func (a *App) List(ctx context.Context) error {
	state, err := a.store.State(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	for _, entry := range a.catalog.All() {
		card := state.Cards[entry.ID]
		status, litCount := models.StatusLocked, 0
		if card != nil {
			status, litCount = card.Status, card.LitCount
		}

		line := fmt.Sprintf("[%s] %-18s %s [%s]", statusMark(status), entry.ID, entry.Name, entry.Rarity())
		if label := catalog.StarLabel(litCount); label != "" {
			line = fmt.Sprintf("%s %s(x%d)", line, label, litCount)
		}
		printlnFn(line)
	}
	return nil
}

// resolveEntry accepts a card id or any known name/alias.
func (a *App) resolveEntry(name string) *catalog.Entry {
	if entry := a.catalog.Get(name); entry != nil {
		return entry
	}
	if id := a.catalog.Resolve(name); id != "" {
		return a.catalog.Get(id)
	}
	return nil
}

// Show prints one card's full field-guide entry. The description and
// observation hint stay hidden until the card is unlocked or lit.
func (a *App) Show(ctx context.Context, name string) error {
	entry := a.resolveEntry(name)
	if entry == nil {
		printlnFn("Unknown card:", name)
		return nil
	}

	card, err := a.store.CardState(ctx, entry.ID)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	printlnFn(fmt.Sprintf("%s (%s)", entry.Name, entry.Latin))
	printlnFn(fmt.Sprintf("Category: %s  Rarity: %s  Score: %d", entry.Category, entry.Rarity(), entry.Score))

	if card.Status == models.StatusLocked {
		printlnFn(fmt.Sprintf("Locked. Unlock for %d points or discover it in the sky.", catalog.UnlockCost(entry.Rarity())))
		return nil
	}

	printlnFn(entry.Description)
	if entry.Hint != "" {
		printlnFn("Hint:", entry.Hint)
	}
	if card.Status == models.StatusLit {
		printlnFn(fmt.Sprintf("Discovered %d time(s) %s", card.LitCount, catalog.StarLabel(card.LitCount)))
		for _, rec := range card.LitRecords {
			ts := time.UnixMilli(rec.Timestamp).Format("2006-01-02 15:04")
			printlnFn(fmt.Sprintf("  %s  +%d  %s", ts, rec.EarnedScore, rec.Analysis.Weather))
		}
	}
	return nil
}

// Unlock spends points to reveal a card's field-guide entry.
func (a *App) Unlock(ctx context.Context, name string) error {
	entry := a.resolveEntry(name)
	if entry == nil {
		printlnFn("Unknown card:", name)
		return nil
	}

	ok, err := a.store.UnlockCard(ctx, entry.ID)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if !ok {
		state, stateErr := a.store.State(ctx)
		if stateErr != nil {
			return stateErr
		}
		printlnFn(fmt.Sprintf("Not enough points: %s costs %d, you have %d", entry.Name, catalog.UnlockCost(entry.Rarity()), state.Points))
		return nil
	}

	if a.isLoggedIn() {
		_ = a.sync.PushUnlock(ctx, entry.ID)
	}

	state, err := a.store.State(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Unlocked %s (balance %d)", entry.Name, state.Points))
	return nil
}

// Stats prints collection progress and the current streak.
func (a *App) Stats(ctx context.Context) error {
	state, err := a.store.State(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	stats, err := a.store.Stats(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	printlnFn(fmt.Sprintf("Points: %d  Discoveries: %d", state.Points, state.TotalLitCount))
	printlnFn(fmt.Sprintf("Cards: %d lit, %d unlocked, %d locked of %d", stats.Lit, stats.Unlocked, stats.Locked, stats.Total))
	if state.StreakCount > 0 {
		printlnFn(fmt.Sprintf("Streak: %d consecutive %s discoveries", state.StreakCount, state.StreakRarity))
	}
	return nil
}

// Sync pulls the server snapshot and merges it into the local store.
func (a *App) Sync(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Please login first")
		return nil
	}

	merged, err := a.sync.ReconcileOnLogin(ctx)
	if err != nil {
		log.Printf("sync failed: %v", err)
		return err
	}
	printlnFn(fmt.Sprintf("Collection synced: %d points, %d discoveries", merged.Points, merged.TotalLitCount))
	return nil
}

// Reset wipes the local collection back to the starter grant.
func (a *App) Reset(ctx context.Context) error {
	if err := a.store.Reset(ctx); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	printlnFn("Collection reset to the starter grant")
	return nil
}
