package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/recallmed/recall-api/internal/config"
	"github.com/recallmed/recall-api/internal/domain/srs"
	"github.com/recallmed/recall-api/internal/platform/memory"
	"github.com/recallmed/recall-api/internal/platform/postgres"
	"github.com/recallmed/recall-api/internal/service/queue"
	"github.com/recallmed/recall-api/internal/service/recovery"
	"github.com/recallmed/recall-api/internal/service/review"
	"github.com/recallmed/recall-api/internal/service/session"
	"github.com/recallmed/recall-api/internal/store"
)

// application holds the wired dependencies of the server.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when running on in-memory stores.
	db *sql.DB

	itemStore    store.ReviewItemStore
	sessionStore store.ReviewSessionStore

	srsService      srs.Service
	sessionManager  session.Manager
	reviewService   review.ReviewService
	queueBuilder    queue.Builder
	recoveryService recovery.Service
}

// newApplication wires storage and services from the loaded configuration.
// A configured database URL selects PostgreSQL-backed stores and applies
// migrations; otherwise everything runs in memory.
func newApplication(cfg *config.Config, appLogger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: appLogger,
	}

	if cfg.Database.URL != "" {
		db, err := setupAppDatabase(cfg, appLogger)
		if err != nil {
			return nil, err
		}
		app.db = db

		if err := runMigrations(db, appLogger); err != nil {
			closeErr := db.Close()
			if closeErr != nil {
				appLogger.Error("failed to close database after migration failure", "error", closeErr)
			}
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		app.itemStore = postgres.NewPostgresReviewItemStore(db, appLogger)
		app.sessionStore = postgres.NewPostgresReviewSessionStore(db, appLogger)
	} else {
		appLogger.Warn("no database configured, using in-memory stores")
		app.itemStore = memory.NewReviewItemStore()
		app.sessionStore = memory.NewReviewSessionStore()
	}

	app.srsService = srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		MinStability:     cfg.SRS.MinStability,
		InitialStability: cfg.SRS.InitialStability,
		FirstInterval:    cfg.SRS.FirstInterval,
		SecondInterval:   cfg.SRS.SecondInterval,
		LapseInterval:    cfg.SRS.LapseInterval,
	}))

	app.sessionManager = session.NewManager(app.sessionStore, appLogger)
	app.reviewService = review.NewReviewService(
		app.itemStore, app.sessionManager, app.srsService, app.db, appLogger)
	app.queueBuilder = queue.NewBuilder(
		app.itemStore, cfg.Queue.DefaultPerTypeLimit, nil, appLogger)
	app.recoveryService = recovery.NewService(
		app.itemStore, cfg.Recovery.VeryOverdueDays, app.srsService.NewItemDefaults(), appLogger)

	return app, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
