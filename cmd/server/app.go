package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/chazara-api/internal/api"
	"github.com/phrazzld/chazara-api/internal/config"
	"github.com/phrazzld/chazara-api/internal/platform/postgres"
	"github.com/phrazzld/chazara-api/internal/service"
	"github.com/phrazzld/chazara-api/internal/service/auth"
	"github.com/phrazzld/chazara-api/internal/service/review"
	"github.com/phrazzld/chazara-api/internal/task"
)

// application holds the wired dependencies of a running server instance.
type application struct {
	config    *config.Config
	logger    *slog.Logger
	db        *sql.DB
	router    http.Handler
	scheduler *task.RefreshScheduler
}

// newApplication wires stores, services, and handlers into a ready-to-run
// application. Construction is eager so a misconfiguration fails at startup
// rather than on the first request.
func newApplication(cfg *config.Config, db *sql.DB, log *slog.Logger) (*application, error) {
	userStore := postgres.NewPostgresUserStore(db, log)
	limudStore := postgres.NewPostgresLimudStore(db, log)
	sectionStore := postgres.NewPostgresSectionStore(db, log)
	scheduleStore := postgres.NewPostgresScheduleStore(db, log)
	pointStore := postgres.NewPostgresPointStore(db, log)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	hasher := auth.NewBcryptHasher(0)
	verifier := auth.NewBcryptVerifier()

	userService := service.NewUserService(userStore, hasher, db, log)
	limudService := service.NewLimudService(limudStore, sectionStore, scheduleStore, db, log)
	reviewService := review.NewReviewService(
		limudStore,
		sectionStore,
		scheduleStore,
		pointStore,
		time.Duration(cfg.Refresh.StatusCacheTTLSeconds)*time.Second,
		log,
	)

	authHandler := api.NewAuthHandler(userService, jwtService, verifier, log)
	limudHandler := api.NewLimudHandler(limudService, reviewService, log)
	pointHandler := api.NewPointHandler(reviewService, limudService, sectionStore, log)

	app := &application{
		config:    cfg,
		logger:    log,
		db:        db,
		router:    newRouter(jwtService, authHandler, limudHandler, pointHandler),
		scheduler: task.NewRefreshScheduler(reviewService, cfg.Refresh, log),
	}
	return app, nil
}

// Run starts the background scheduler and the HTTP server, blocking until
// the server shuts down.
func (app *application) Run() error {
	if err := app.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start refresh scheduler: %w", err)
	}

	return startHTTPServer(app)
}

// cleanup releases resources held by the application. Called once during
// shutdown.
func (app *application) cleanup() {
	app.scheduler.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Warn("failed to close database connection",
			slog.String("error", err.Error()))
	}
}
