package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; PRAGMA user_version records how many ran.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS offline_products (
		barcode     TEXT PRIMARY KEY,
		name        TEXT NOT NULL DEFAULT '',
		brands      TEXT NOT NULL DEFAULT '',
		quantity    TEXT NOT NULL DEFAULT '',
		language    TEXT NOT NULL DEFAULT '',
		image_path  TEXT NOT NULL DEFAULT '',
		fields_json TEXT NOT NULL DEFAULT '{}',
		updated_at  TEXT NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS history (
		barcode         TEXT PRIMARY KEY,
		title           TEXT NOT NULL DEFAULT '',
		brands          TEXT NOT NULL DEFAULT '',
		quantity        TEXT NOT NULL DEFAULT '',
		image_url       TEXT NOT NULL DEFAULT '',
		nutrition_grade TEXT NOT NULL DEFAULT '',
		nova_group      INTEGER NOT NULL DEFAULT 0,
		ecoscore        TEXT NOT NULL DEFAULT '',
		scan_count      INTEGER NOT NULL DEFAULT 1,
		last_seen       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_last_seen ON history(last_seen);`,

	`CREATE TABLE IF NOT EXISTS scanner_prefs (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,
}

// SchemaVersion is the user_version of a fully migrated database.
func SchemaVersion() int { return len(migrations) }

// Migrate applies pending migrations inside one transaction each.
func Migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: set version: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", i+1, err)
		}
	}
	return nil
}
