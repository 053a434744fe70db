package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/skydexapp/skydex/internal/scoring"
	"github.com/skydexapp/skydex/internal/server/auth"
	"github.com/skydexapp/skydex/internal/server/config"
	"github.com/skydexapp/skydex/internal/server/models"
)

func newUserService(t *testing.T, rm *fakeRepoManager) (*UserService, func()) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	mock.MatchExpectationsInOrder(false)
	// Registration runs in a transaction; allow any number of them.
	for i := 0; i < 4; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	cfg := &config.Config{SecretKey: "k", TokenValidityDuration: time.Hour}
	svc := NewUserService(db, rm, cfg, clockwork.NewFakeClock())
	return svc, func() { db.Close() }
}

func TestRegister_Success(t *testing.T) {
	rm := newFakeRepoManager()
	svc, closeDB := newUserService(t, rm)
	defer closeDB()

	session, err := svc.Register(context.Background(), "sky@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if session.Token == "" || session.Email != "sky@example.com" {
		t.Fatalf("unexpected session: %+v", session)
	}

	userID, err := auth.GetUserIDFromToken(session.Token, []byte("k"))
	if err != nil || userID != "user-1" {
		t.Fatalf("token does not carry the user id: %v %q", err, userID)
	}

	state, err := rm.s.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("state not initialized: %v", err)
	}
	if state.Points != scoring.InitialPoints {
		t.Errorf("starter points = %d, want %d", state.Points, scoring.InitialPoints)
	}

	for _, cardID := range scoring.StarterCardIDs {
		card, err := rm.c.Get(context.Background(), "user-1", cardID)
		if err != nil {
			t.Fatalf("starter card %s missing: %v", cardID, err)
		}
		if card.Status != models.CardStatusUnlocked || card.LitCount != 0 {
			t.Errorf("starter card %s = %+v, want unlocked and unlit", cardID, card)
		}
	}
}

func TestRegister_Validation(t *testing.T) {
	rm := newFakeRepoManager()
	svc, closeDB := newUserService(t, rm)
	defer closeDB()

	if _, err := svc.Register(context.Background(), "not-an-email", "secret1"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("want ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "sky@example.com", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("want ErrPasswordTooShort, got %v", err)
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	rm := newFakeRepoManager()
	svc, closeDB := newUserService(t, rm)
	defer closeDB()

	if _, err := svc.Register(context.Background(), "sky@example.com", "secret1"); err != nil {
		t.Fatalf("first Register error: %v", err)
	}
	if _, err := svc.Register(context.Background(), "sky@example.com", "secret2"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("want ErrEmailTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	rm := newFakeRepoManager()
	svc, closeDB := newUserService(t, rm)
	defer closeDB()

	if _, err := svc.Register(context.Background(), "sky@example.com", "secret1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	session, err := svc.Login(context.Background(), "sky@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if session.Token == "" {
		t.Fatal("empty token")
	}

	if _, err := svc.Login(context.Background(), "sky@example.com", "wrongpass"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("want ErrWrongPassword, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "secret1"); !errors.Is(err, ErrEmailNotRegistered) {
		t.Errorf("want ErrEmailNotRegistered, got %v", err)
	}
}
