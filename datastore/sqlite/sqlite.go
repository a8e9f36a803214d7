/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sqlite stores projects in a SQLite database file. One file may
// hold any number of projects.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/suparena/entitycache/datastore"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/metrics"
	"github.com/suparena/entitycache/storagemodels"
)

const (
	// Name is the backend name reported to logs and metrics.
	Name        = "sqlite"
	driverName  = "sqlite"
	maxAttempts = 5
)

// DataStore is the SQLite backend of one project.
type DataStore struct {
	path    string
	project string
	db      *sql.DB
	mu      sync.Mutex
	logger  zerolog.Logger
}

var _ datastore.DataStore = (*DataStore)(nil)

// Option configures a DataStore.
type Option func(*DataStore)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *DataStore) {
		s.logger = l
	}
}

// Open opens or creates the database at path and returns the store of
// project.
func Open(path, project string, opts ...Option) (*DataStore, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, errors.NewValidationError("path", "must not be empty")
	}
	if project == "" {
		return nil, errors.NewValidationError("project", "must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("database path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	s := &DataStore{path: cleanPath, project: project, db: db, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("db", cleanPath).Str("project", project).Logger()
	return s, nil
}

func (s *DataStore) Name() string {
	return Name
}

// Path returns the database file.
func (s *DataStore) Path() string {
	return s.path
}

func (s *DataStore) Exists(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meta WHERE project = ?`, s.project).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("read meta: %w", err)
	}
	return n > 0, nil
}

func (s *DataStore) GetMeta(ctx context.Context) (*storagemodels.Meta, error) {
	var meta storagemodels.Meta
	err := s.db.QueryRowContext(ctx,
		`SELECT project_name, version, project_owner_id FROM meta WHERE project = ?`, s.project,
	).Scan(&meta.ProjectName, &meta.Version, &meta.ProjectOwnerID)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("project", s.project)
	}
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	return &meta, nil
}

const recordColumns = `id, category, element_name, owner_category, owner_id, root_id, fields, inner_groups`

// GetOne retrieves a record by id.
func (s *DataStore) GetOne(ctx context.Context, id string) (*storagemodels.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE project = ? AND id = ?`, s.project, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("record", id)
	}
	return rec, err
}

// Query returns the matching records in the order they were first stored.
func (s *DataStore) Query(ctx context.Context, params *storagemodels.QueryParams) ([]*storagemodels.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE project = ?`
	args := []any{s.project}
	if params != nil {
		if params.Category != "" {
			query += ` AND category = ?`
			args = append(args, params.Category)
		}
		if params.OwnerID != "" {
			query += ` AND owner_id = ?`
			args = append(args, params.OwnerID)
		}
		if params.RootID != "" {
			query += ` AND root_id = ?`
			args = append(args, params.RootID)
		}
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []*storagemodels.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *DataStore) Connections(ctx context.Context, diagramID string) ([]storagemodels.Connection, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT connector_id, glue_point_id, target_id, target_point_id, diagram_id
FROM connections WHERE project = ? AND diagram_id = ? ORDER BY conn_key`, s.project, diagramID)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()

	var out []storagemodels.Connection
	for rows.Next() {
		var c storagemodels.Connection
		if err := rows.Scan(&c.ConnectorID, &c.GluePointID, &c.TargetID, &c.TargetPointID, &c.DiagramID); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Apply writes the batch in one transaction.
func (s *DataStore) Apply(ctx context.Context, batch *storagemodels.Batch) error {
	for _, rec := range batch.Puts {
		if rec.ID == "" {
			return errors.NewValidationError("ID", "record without identity")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withRetry("apply batch", func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			return s.apply(ctx, tx, batch)
		})
	})
	if err != nil {
		return err
	}
	n := len(batch.Puts) + len(batch.Deletes) + len(batch.PutConnections) + len(batch.DeleteConnections)
	metrics.BatchRecords.WithLabelValues(Name).Observe(float64(n))
	s.logger.Debug().Int("records", n).Msg("batch applied")
	return nil
}

func (s *DataStore) apply(ctx context.Context, tx *sql.Tx, batch *storagemodels.Batch) error {
	for _, rec := range batch.Deletes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE project = ? AND id = ?`, s.project, rec.ID); err != nil {
			return fmt.Errorf("delete record %s: %w", rec.ID, err)
		}
	}
	for _, rec := range batch.Puts {
		fields, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("encode fields of %s: %w", rec.ID, err)
		}
		inner := ""
		if len(rec.Inner) > 0 {
			b, err := json.Marshal(rec.Inner)
			if err != nil {
				return fmt.Errorf("encode inner objects of %s: %w", rec.ID, err)
			}
			inner = string(b)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO records (project, `+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project, id) DO UPDATE SET
  category=excluded.category,
  element_name=excluded.element_name,
  owner_category=excluded.owner_category,
  owner_id=excluded.owner_id,
  root_id=excluded.root_id,
  fields=excluded.fields,
  inner_groups=excluded.inner_groups`,
			s.project, rec.ID, rec.Category, rec.ElementName, rec.OwnerCategory, rec.OwnerID, rec.RootID,
			string(fields), inner)
		if err != nil {
			return fmt.Errorf("put record %s: %w", rec.ID, err)
		}
	}
	for _, c := range batch.DeleteConnections {
		if _, err := tx.ExecContext(ctx, `DELETE FROM connections WHERE project = ? AND conn_key = ?`, s.project, c.Key()); err != nil {
			return fmt.Errorf("delete connection %s: %w", c.Key(), err)
		}
	}
	for _, c := range batch.PutConnections {
		_, err := tx.ExecContext(ctx, `
INSERT INTO connections (project, conn_key, connector_id, glue_point_id, target_id, target_point_id, diagram_id)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project, conn_key) DO UPDATE SET
  target_id=excluded.target_id,
  target_point_id=excluded.target_point_id,
  diagram_id=excluded.diagram_id`,
			s.project, c.Key(), c.ConnectorID, c.GluePointID, c.TargetID, c.TargetPointID, c.DiagramID)
		if err != nil {
			return fmt.Errorf("put connection %s: %w", c.Key(), err)
		}
	}
	if m := batch.Meta; m != nil {
		_, err := tx.ExecContext(ctx, `
INSERT INTO meta (project, project_name, version, project_owner_id) VALUES (?, ?, ?, ?)
ON CONFLICT(project) DO UPDATE SET
  project_name=excluded.project_name,
  version=excluded.version,
  project_owner_id=excluded.project_owner_id`,
			s.project, m.ProjectName, m.Version, m.ProjectOwnerID)
		if err != nil {
			return fmt.Errorf("put meta: %w", err)
		}
	}
	return nil
}

// Erase deletes every row of the project.
func (s *DataStore) Erase(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("erase project", func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			for _, table := range []string{"records", "connections", "meta"} {
				if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE project = ?`, s.project); err != nil {
					return fmt.Errorf("erase %s: %w", table, err)
				}
			}
			return nil
		})
	})
}

func (s *DataStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *DataStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *DataStore) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*storagemodels.Record, error) {
	var (
		rec    storagemodels.Record
		fields string
		inner  string
	)
	err := row.Scan(&rec.ID, &rec.Category, &rec.ElementName, &rec.OwnerCategory, &rec.OwnerID, &rec.RootID, &fields, &inner)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}
	if err := decodeJSON(fields, &rec.Fields); err != nil {
		return nil, fmt.Errorf("decode fields of %s: %w", rec.ID, err)
	}
	if inner != "" {
		if err := decodeJSON(inner, &rec.Inner); err != nil {
			return nil, fmt.Errorf("decode inner objects of %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

// decodeJSON keeps numbers as json.Number so integers survive unchanged.
func decodeJSON(data string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	return dec.Decode(v)
}
