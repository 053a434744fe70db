package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"

	"github.com/skydexapp/skydex/internal/catalog"
	"github.com/skydexapp/skydex/internal/client/api"
	"github.com/skydexapp/skydex/internal/client/config"
	"github.com/skydexapp/skydex/internal/client/kvstore"
	"github.com/skydexapp/skydex/internal/client/models"
	"github.com/skydexapp/skydex/internal/client/services"
	"github.com/skydexapp/skydex/internal/logging"
	"github.com/skydexapp/skydex/internal/recognition"
)

// serverAPI is the slice of the HTTP client the app uses directly.
// The api.Client type satisfies it; tests can provide a stub.
type serverAPI interface {
	services.LedgerAPI
	SetToken(token string)
	Register(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Recognize(ctx context.Context, imageBase64 string) (string, error)
}

type App struct {
	config   *config.Config
	api      serverAPI
	store    *services.UserStateStore
	sync     *services.SyncReconciler
	pipeline *recognition.Pipeline
	catalog  *catalog.Catalog
	db       *sql.DB
	email    string
	reader   *bufio.Reader
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	dataDir := cfg.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("error resolving home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".skydex")
	}

	db, kv, err := kvstore.Open(ctx, dataDir)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	cat, err := catalog.Load()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	apiClient := api.NewClient(cfg.ServerBaseURL, cfg.RequestTimeout)
	store := services.NewUserStateStore(kv, cat, clockwork.NewRealClock())
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	return &App{
		config:   cfg,
		api:      apiClient,
		store:    store,
		sync:     services.NewSyncReconciler(store, apiClient, kv, logger),
		pipeline: recognition.NewPipeline(cat),
		catalog:  cat,
		db:       db,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.email != ""
}

func (a *App) getStatus() string {
	if a.email == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.email)
}

// restoreSession reinstalls a saved login so the user does not have to
// authenticate on every start.
func (a *App) restoreSession(ctx context.Context) {
	session, err := a.store.Session(ctx)
	if err != nil {
		log.Printf("error restoring session: %v", err)
		return
	}
	if session == nil {
		return
	}
	a.api.SetToken(session.Token)
	a.email = session.Email
}

func (a *App) setSession(ctx context.Context, token, email string) error {
	a.api.SetToken(token)
	a.email = email
	return a.store.SaveSession(ctx, &models.Session{Email: email, Token: token})
}

// Run restores the saved session and blocks in the REPL until the user
// exits.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	printlnFn("Welcome to Skydex CLI (type 'help' for commands)")
	a.restoreSession(ctx)
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
