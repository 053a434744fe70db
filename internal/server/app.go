// Package server initializes and runs the API server: database and
// migrations, domain services, the HTTP router, and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/skydexapp/skydex/internal/catalog"
	"github.com/skydexapp/skydex/internal/logging"
	"github.com/skydexapp/skydex/internal/server/config"
	"github.com/skydexapp/skydex/internal/server/httpapi"
	"github.com/skydexapp/skydex/internal/server/observability"
	"github.com/skydexapp/skydex/internal/server/repositories/repomanager"
	"github.com/skydexapp/skydex/internal/server/services"
	"github.com/skydexapp/skydex/internal/server/vision"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	repos  repomanager.RepositoryManager

	users      *services.UserService
	ledger     *services.LedgerService
	recognizer *services.RecognizeService
}

func NewApp(cfg *config.Config) (*App, error) {
	zl, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	logger := logging.NewZapLogger(zl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()

	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("catalog load error: %w", err)
	}

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()
	visionClient := vision.NewClient(cfg.VisionAPIURL, cfg.VisionAPIKey, cfg.VisionModel, cfg.VisionTimeout)

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		repos:      repos,
		users:      services.NewUserService(db, repos, cfg, clock),
		ledger:     services.NewLedgerService(db, repos, cat, clock, metrics),
		recognizer: services.NewRecognizeService(db, repos, visionClient, cfg.VisionAPIKey != "", clock, metrics),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Users:      app.users,
		Ledger:     app.ledger,
		Recognizer: app.recognizer,
		JWTSecret:  []byte(app.config.SecretKey),
		Logger:     app.logger,
	})

	srv := &http.Server{Addr: app.config.EndpointAddr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migrations error", "error", err)
		return
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
