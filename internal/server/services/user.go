// Package services contains server-side business logic. This file implements
// UserService: account registration, credential checks, and issuing JWTs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/skydexapp/skydex/internal/common"
	"github.com/skydexapp/skydex/internal/dbx"
	"github.com/skydexapp/skydex/internal/scoring"
	"github.com/skydexapp/skydex/internal/server/auth"
	"github.com/skydexapp/skydex/internal/server/config"
	"github.com/skydexapp/skydex/internal/server/models"
	"github.com/skydexapp/skydex/internal/server/repositories/repomanager"
)

// Validation and flow-control errors surfaced to the HTTP layer.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrEmailTaken         = errors.New("email already registered")
	ErrEmailNotRegistered = errors.New("email not registered")
	ErrWrongPassword      = errors.New("wrong password")
)

const minPasswordLen = 6

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Session bundles the signed token with the account it belongs to.
type Session struct {
	Token string
	Email string
}

// UserService handles registration and login. Registration also seeds
// the ledger row and pre-unlocks the starter cards.
type UserService struct {
	db            *sql.DB
	repos         repomanager.RepositoryManager
	jwtSecret     []byte
	tokenValidity time.Duration
	clock         clockwork.Clock
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, clock clockwork.Clock) *UserService {
	return &UserService{
		db:            db,
		repos:         m,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		clock:         clock,
	}
}

// Register creates the account, seeds its collection state, and
// returns a fresh session. The email must be unused.
func (s *UserService) Register(ctx context.Context, email, password string) (*Session, error) {
	if !emailRe.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}

	salt, err := auth.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("error generating salt: %v", err)
	}

	user := &models.User{
		Email:        email,
		Salt:         salt,
		PasswordHash: auth.HashPassword(password, salt),
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Users(tx).GetByEmail(ctx, email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		created, err := s.repos.Users(tx).Create(ctx, user)
		if err != nil {
			return fmt.Errorf("error creating user: %v", err)
		}
		user = created

		if err := s.repos.States(tx).Init(ctx, user.ID, scoring.InitialPoints); err != nil {
			return fmt.Errorf("error initializing state: %v", err)
		}
		now := s.clock.Now()
		for _, cardID := range scoring.StarterCardIDs {
			if err := s.repos.Cards(tx).SetUnlocked(ctx, user.ID, cardID, now); err != nil {
				return fmt.Errorf("error unlocking starter card: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.newSession(user)
}

// Login verifies the credentials and returns a fresh session.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrEmailNotRegistered
		}
		return nil, common.ErrorInternal
	}
	if !auth.VerifyPassword(password, user.Salt, user.PasswordHash) {
		return nil, ErrWrongPassword
	}
	return s.newSession(user)
}

func (s *UserService) newSession(user *models.User) (*Session, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %v", err)
	}
	return &Session{Token: token, Email: user.Email}, nil
}
