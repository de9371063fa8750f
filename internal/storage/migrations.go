package storage

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS updates (
				id TEXT PRIMARY KEY,
				commit_id TEXT NOT NULL,
				service_id TEXT NOT NULL,
				section TEXT NOT NULL,
				property TEXT NOT NULL,
				payload TEXT NOT NULL,
				status TEXT NOT NULL,
				error TEXT,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
	},
	{
		version: 2,
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_updates_service ON updates(service_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_updates_commit ON updates(commit_id)`,
		},
	},
}

// migrate brings the schema up to the latest version. Each version runs in
// its own transaction.
func (ss *SQLiteStorage) migrate() error {
	if _, err := ss.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	version, err := ss.schemaVersion()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := ss.apply(m); err != nil {
			return fmt.Errorf("migrating to v%d: %w", m.version, err)
		}
	}
	return nil
}

func (ss *SQLiteStorage) schemaVersion() (int, error) {
	var version sql.NullInt64
	err := ss.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("checking migration version: %w", err)
	}
	return int(version.Int64), nil
}

func (ss *SQLiteStorage) apply(m migration) error {
	tx, err := ss.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return tx.Commit()
}
