package litrecords

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/skydexapp/skydex/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestAppend(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id"}).AddRow(7)
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+lit_records`).
		WithArgs("u-1", "cirrus", int64(1700000000000), 10, "高云族", "卷云", "毛卷云", "丝状", "好天气", "由冰晶组成").
		WillReturnRows(rows)

	record := &models.LitRecord{
		UserID: "u-1", CardID: "cirrus", Timestamp: 1700000000000, EarnedScore: 10,
		AIFamily: "高云族", AIGenus: "卷云", AISpecies: "毛卷云",
		AIFeatures: "丝状", AIWeather: "好天气", AIKnowledge: "由冰晶组成",
	}
	if err := repo.Append(context.Background(), record); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if record.ID != 7 {
		t.Fatalf("expected id 7, got %d", record.ID)
	}
}

func TestLastTimestamp_NoHistory(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+ts_ms\s+FROM\s+lit_records`).
		WithArgs("u-1", "cirrus").WillReturnError(sql.ErrNoRows)

	ts, err := repo.LastTimestamp(context.Background(), "u-1", "cirrus")
	if err != nil {
		t.Fatalf("LastTimestamp error: %v", err)
	}
	if ts != 0 {
		t.Fatalf("expected 0 for no history, got %d", ts)
	}
}

func TestListByUser_OrderedAscending(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "card_id", "ts_ms", "earned_score",
		"ai_family", "ai_genus", "ai_species", "ai_features", "ai_weather", "ai_knowledge", "created_at",
	}).
		AddRow(1, "u-1", "cirrus", 100, 10, "", "", "", "", "", "", now).
		AddRow(2, "u-1", "cirrus", 200, 0, "", "", "", "", "", "", now)
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*ORDER\s+BY\s+ts_ms\s*$`).
		WithArgs("u-1").WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(got) != 2 || got[0].Timestamp != 100 || got[1].EarnedScore != 0 {
		t.Fatalf("unexpected records: %+v", got)
	}
}
