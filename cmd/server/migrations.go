package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/chazara-api/internal/platform/postgres"
	"github.com/pressly/goose/v3"
)

// runMigrations applies any pending schema migrations from the embedded
// migration set. Goose tracks applied versions in the goose_db_version table,
// so running at every startup is safe.
func runMigrations(db *sql.DB, log *slog.Logger) error {
	goose.SetBaseFS(postgres.MigrationsFS)
	goose.SetLogger(&gooseSlogAdapter{log: log.With(slog.String("component", "migrations"))})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	log.Info("migrations applied", slog.Int64("version", version))
	return nil
}

// gooseSlogAdapter routes goose output through slog so migration logs share
// the application's structured format.
type gooseSlogAdapter struct {
	log *slog.Logger
}

func (l *gooseSlogAdapter) Fatalf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...))
}

func (l *gooseSlogAdapter) Printf(format string, v ...interface{}) {
	l.log.Info(fmt.Sprintf(format, v...))
}
