package services

import (
	"context"
	"fmt"

	"github.com/skydexapp/skydex/internal/client/api"
	"github.com/skydexapp/skydex/internal/client/kvstore"
	"github.com/skydexapp/skydex/internal/client/models"
	"github.com/skydexapp/skydex/internal/logging"
	"github.com/skydexapp/skydex/internal/recognition"
	"github.com/skydexapp/skydex/internal/scoring"
)

// LedgerAPI is the server surface the reconciler needs.
type LedgerAPI interface {
	FetchState(ctx context.Context) (*models.UserState, error)
	LitCard(ctx context.Context, cardID string, analysis recognition.Analysis) (*api.LitResult, error)
	UnlockCard(ctx context.Context, cardID string) (*api.UnlockResult, error)
	Migrate(ctx context.Context, state *models.UserState) (bool, error)
}

// SyncReconciler keeps the local aggregate and the server ledger in
// step: full merge on login, counter confirmation after each mutation,
// and a one-shot migration of pre-login local history.
type SyncReconciler struct {
	store *UserStateStore
	api   LedgerAPI
	kv    kvstore.Store
	log   logging.Logger
}

func NewSyncReconciler(store *UserStateStore, api LedgerAPI, kv kvstore.Store, log logging.Logger) *SyncReconciler {
	return &SyncReconciler{store: store, api: api, kv: kv, log: log}
}

// ReconcileOnLogin merges the server snapshot into the local aggregate.
// Server counters win; locally cached media is reattached to the
// server's records; cards the server has never seen are kept.
func (r *SyncReconciler) ReconcileOnLogin(ctx context.Context) (*models.UserState, error) {
	local, err := r.store.State(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := r.api.FetchState(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching server state: %w", err)
	}

	merged := mergeStates(local, remote)
	if err := r.store.Overwrite(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func mergeStates(local, remote *models.UserState) *models.UserState {
	merged := remote.Clone()

	for cardID, card := range merged.Cards {
		localCard := local.Cards[cardID]
		if localCard == nil {
			continue
		}
		reattachMedia(card.LitRecords, localCard.LitRecords)
	}

	// Cards only the local store knows about survive the merge.
	for cardID, card := range local.Cards {
		if _, ok := merged.Cards[cardID]; !ok {
			copied := *card
			copied.LitRecords = append([]models.LitRecord(nil), card.LitRecords...)
			merged.Cards[cardID] = &copied
		}
	}
	return merged
}

// reattachMedia copies thumbnails and image URLs from local records
// onto the server's, matching by timestamp first and falling back to
// the same position in the list.
func reattachMedia(remote, local []models.LitRecord) {
	byTimestamp := make(map[int64]*models.LitRecord, len(local))
	for i := range local {
		byTimestamp[local[i].Timestamp] = &local[i]
	}

	for i := range remote {
		src := byTimestamp[remote[i].Timestamp]
		if src == nil && i < len(local) {
			src = &local[i]
		}
		if src == nil {
			continue
		}
		remote[i].Thumbnail = src.Thumbnail
		remote[i].ImageURL = src.ImageURL
	}
}

// MigrateIfNeeded uploads pre-login local history once per install. It
// only fires when the local store has discoveries and the server
// account looks untouched; the guard flag is persisted only after the
// server confirmed the upload.
func (r *SyncReconciler) MigrateIfNeeded(ctx context.Context) (bool, error) {
	flag, err := r.kv.Get(ctx, migrationKey)
	if err != nil {
		return false, err
	}
	if flag != nil {
		return false, nil
	}

	local, err := r.store.State(ctx)
	if err != nil {
		return false, err
	}
	if local.TotalLitCount == 0 {
		return false, nil
	}

	remote, err := r.api.FetchState(ctx)
	if err != nil {
		return false, fmt.Errorf("error fetching server state: %w", err)
	}
	if remote.TotalLitCount > 0 || len(remote.Cards) > len(scoring.StarterCardIDs) {
		return false, nil
	}

	migrated, err := r.api.Migrate(ctx, local)
	if err != nil {
		return false, fmt.Errorf("error migrating state: %w", err)
	}

	if err := r.kv.Set(ctx, migrationKey, []byte("1")); err != nil {
		return migrated, err
	}
	return migrated, nil
}

// PushLit confirms a locally applied discovery with the server and
// adopts its authoritative counters. A failed push leaves the local
// optimistic state untouched.
func (r *SyncReconciler) PushLit(ctx context.Context, cardID string, analysis recognition.Analysis) error {
	result, err := r.api.LitCard(ctx, cardID, analysis)
	if err != nil {
		r.log.Warn(ctx, "lit sync failed, keeping local state", "cardID", cardID, "error", err)
		return err
	}

	state, err := r.store.State(ctx)
	if err != nil {
		return err
	}
	next := state.Clone()
	next.Points = result.NewPoints
	next.StreakCount = result.StreakCount
	next.StreakRarity = result.StreakRarity
	return r.store.Overwrite(ctx, next)
}

// PushUnlock confirms a local unlock and adopts the server balance.
func (r *SyncReconciler) PushUnlock(ctx context.Context, cardID string) error {
	result, err := r.api.UnlockCard(ctx, cardID)
	if err != nil {
		r.log.Warn(ctx, "unlock sync failed, keeping local state", "cardID", cardID, "error", err)
		return err
	}
	if !result.Success {
		return nil
	}

	state, err := r.store.State(ctx)
	if err != nil {
		return err
	}
	next := state.Clone()
	next.Points = result.NewPoints
	return r.store.Overwrite(ctx, next)
}
