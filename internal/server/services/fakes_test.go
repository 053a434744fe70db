package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/skydexapp/skydex/internal/common"
	"github.com/skydexapp/skydex/internal/dbx"
	"github.com/skydexapp/skydex/internal/server/models"
	"github.com/skydexapp/skydex/internal/server/repositories/cards"
	"github.com/skydexapp/skydex/internal/server/repositories/imagehashes"
	"github.com/skydexapp/skydex/internal/server/repositories/litrecords"
	"github.com/skydexapp/skydex/internal/server/repositories/repomanager"
	"github.com/skydexapp/skydex/internal/server/repositories/states"
	"github.com/skydexapp/skydex/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// Stateful in-memory fakes. Service flows read what they previously
// wrote, so field-by-field canned outputs are not enough here.

type fakeUsersRepo struct {
	byEmail   map[string]*models.User
	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := *u
	created.ID = "user-1"
	f.byEmail[u.Email] = &created
	return &created, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeStatesRepo struct {
	byUser    map[string]*models.UserState
	updateErr error
}

func newFakeStatesRepo() *fakeStatesRepo {
	return &fakeStatesRepo{byUser: map[string]*models.UserState{}}
}

func (f *fakeStatesRepo) Init(ctx context.Context, userID string, points int) error {
	if _, ok := f.byUser[userID]; !ok {
		f.byUser[userID] = &models.UserState{UserID: userID, Points: points}
	}
	return nil
}

func (f *fakeStatesRepo) Get(ctx context.Context, userID string) (*models.UserState, error) {
	s, ok := f.byUser[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStatesRepo) Update(ctx context.Context, state *models.UserState) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	copied := *state
	f.byUser[state.UserID] = &copied
	return nil
}

type fakeCardsRepo struct {
	rows   map[string]*models.UserCard // key: userID + "|" + cardID
	order  []string
	nextID int64
}

func newFakeCardsRepo() *fakeCardsRepo {
	return &fakeCardsRepo{rows: map[string]*models.UserCard{}, nextID: 1}
}

func cardKey(userID, cardID string) string { return userID + "|" + cardID }

func (f *fakeCardsRepo) put(card *models.UserCard) {
	key := cardKey(card.UserID, card.CardID)
	if _, ok := f.rows[key]; !ok {
		card.ID = f.nextID
		f.nextID++
		f.order = append(f.order, key)
	}
	f.rows[key] = card
}

func (f *fakeCardsRepo) ListByUser(ctx context.Context, userID string) ([]*models.UserCard, error) {
	var out []*models.UserCard
	for _, key := range f.order {
		if c := f.rows[key]; c.UserID == userID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeCardsRepo) Get(ctx context.Context, userID, cardID string) (*models.UserCard, error) {
	c, ok := f.rows[cardKey(userID, cardID)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCardsRepo) MarkLit(ctx context.Context, userID, cardID string) error {
	if c, ok := f.rows[cardKey(userID, cardID)]; ok {
		c.Status = models.CardStatusLit
		c.LitCount++
		return nil
	}
	f.put(&models.UserCard{UserID: userID, CardID: cardID, Status: models.CardStatusLit, LitCount: 1})
	return nil
}

func (f *fakeCardsRepo) SetUnlocked(ctx context.Context, userID, cardID string, at time.Time) error {
	if c, ok := f.rows[cardKey(userID, cardID)]; ok {
		c.Status = models.CardStatusUnlocked
		c.UnlockedAt = &at
		return nil
	}
	f.put(&models.UserCard{UserID: userID, CardID: cardID, Status: models.CardStatusUnlocked, UnlockedAt: &at})
	return nil
}

func (f *fakeCardsRepo) Upsert(ctx context.Context, card *models.UserCard) error {
	copied := *card
	f.put(&copied)
	return nil
}

type fakeLitRecordsRepo struct {
	records   []*models.LitRecord
	appendErr error
	nextID    int64
}

func newFakeLitRecordsRepo() *fakeLitRecordsRepo {
	return &fakeLitRecordsRepo{nextID: 1}
}

func (f *fakeLitRecordsRepo) Append(ctx context.Context, record *models.LitRecord) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	copied := *record
	copied.ID = f.nextID
	f.nextID++
	f.records = append(f.records, &copied)
	return nil
}

func (f *fakeLitRecordsRepo) LastTimestamp(ctx context.Context, userID, cardID string) (int64, error) {
	var last int64
	for _, r := range f.records {
		if r.UserID == userID && r.CardID == cardID && r.Timestamp > last {
			last = r.Timestamp
		}
	}
	return last, nil
}

func (f *fakeLitRecordsRepo) ListByUser(ctx context.Context, userID string) ([]*models.LitRecord, error) {
	var out []*models.LitRecord
	for _, r := range f.records {
		if r.UserID == userID {
			copied := *r
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

type fakeImageHashesRepo struct {
	byUser map[string][]string
}

func newFakeImageHashesRepo() *fakeImageHashesRepo {
	return &fakeImageHashesRepo{byUser: map[string][]string{}}
}

func (f *fakeImageHashesRepo) Add(ctx context.Context, userID, phash string) error {
	f.byUser[userID] = append(f.byUser[userID], phash)
	return nil
}

func (f *fakeImageHashesRepo) ListByUser(ctx context.Context, userID string) ([]string, error) {
	return f.byUser[userID], nil
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	s  *fakeStatesRepo
	c  *fakeCardsRepo
	lr *fakeLitRecordsRepo
	ih *fakeImageHashesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u:  newFakeUsersRepo(),
		s:  newFakeStatesRepo(),
		c:  newFakeCardsRepo(),
		lr: newFakeLitRecordsRepo(),
		ih: newFakeImageHashesRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error   { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository             { return m.u }
func (m *fakeRepoManager) States(db dbx.DBTX) states.Repository           { return m.s }
func (m *fakeRepoManager) Cards(db dbx.DBTX) cards.Repository             { return m.c }
func (m *fakeRepoManager) LitRecords(db dbx.DBTX) litrecords.Repository   { return m.lr }
func (m *fakeRepoManager) ImageHashes(db dbx.DBTX) imagehashes.Repository { return m.ih }

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)
