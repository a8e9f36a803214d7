/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the newest schema this package creates.
const SchemaVersion = 1

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS meta (
  project TEXT PRIMARY KEY,
  project_name TEXT NOT NULL,
  version INTEGER NOT NULL,
  project_owner_id TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS records (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  project TEXT NOT NULL,
  id TEXT NOT NULL,
  category TEXT NOT NULL,
  element_name TEXT NOT NULL DEFAULT '',
  owner_category TEXT NOT NULL DEFAULT '',
  owner_id TEXT NOT NULL DEFAULT '',
  root_id TEXT NOT NULL DEFAULT '',
  fields TEXT NOT NULL,
  inner_groups TEXT NOT NULL DEFAULT '',
  UNIQUE (project, id)
);
CREATE INDEX IF NOT EXISTS idx_records_category ON records(project, category);
CREATE INDEX IF NOT EXISTS idx_records_owner ON records(project, owner_id);
CREATE INDEX IF NOT EXISTS idx_records_root ON records(project, root_id);
CREATE TABLE IF NOT EXISTS connections (
  project TEXT NOT NULL,
  conn_key TEXT NOT NULL,
  connector_id TEXT NOT NULL,
  glue_point_id INTEGER NOT NULL,
  target_id TEXT NOT NULL,
  target_point_id INTEGER NOT NULL,
  diagram_id TEXT NOT NULL,
  PRIMARY KEY (project, conn_key)
);
CREATE INDEX IF NOT EXISTS idx_connections_diagram ON connections(project, diagram_id);
`,
	},
}

// EnsureSchema applies the migrations the database has not seen yet.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_migrations version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}

	return nil
}
