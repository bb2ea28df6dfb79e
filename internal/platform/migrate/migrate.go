package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"userauth/migrations"
)

// adoptedVersions are the migrations whose tables exist in databases that
// predate goose bookkeeping for this service.
var adoptedVersions = []int64{1, 2}

// adoptionMarker is the table whose presence means the schema was created
// outside goose.
const adoptionMarker = "oauth_providers"

// Apply brings the schema up to date with the migrations embedded in the binary.
func Apply(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	goose.SetBaseFS(migrations.Files)
	goose.SetLogger(gooseSlogLogger{logger: logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrate: dialect: %w", err)
	}

	if err := adoptUntrackedSchema(ctx, db, logger); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("migrate: up: %w", err)
	}
	return nil
}

// adoptUntrackedSchema records adoptedVersions as applied when the provider
// table already exists but goose has never run against the database.
func adoptUntrackedSchema(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	var present bool
	if err := db.GetContext(ctx, &present, `SELECT to_regclass($1) IS NOT NULL`, adoptionMarker); err != nil {
		return fmt.Errorf("migrate: look up %s: %w", adoptionMarker, err)
	}
	if !present {
		return nil
	}

	if _, err := goose.EnsureDBVersionContext(ctx, db.DB); err != nil {
		return fmt.Errorf("migrate: version table: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return fmt.Errorf("migrate: current version: %w", err)
	}
	if version > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin adoption: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insert := fmt.Sprintf(`INSERT INTO %s (version_id, is_applied) VALUES ($1, TRUE)`, goose.TableName())
	for _, v := range adoptedVersions {
		if _, err := tx.ExecContext(ctx, insert, v); err != nil {
			return fmt.Errorf("migrate: adopt version %d: %w", v, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit adoption: %w", err)
	}

	logger.Info("adopted existing schema", "component", "migrate", "versions", adoptedVersions)
	return nil
}
