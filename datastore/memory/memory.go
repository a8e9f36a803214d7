/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-memory record backend for tests and
// ephemeral projects
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/suparena/entitycache/datastore"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/storagemodels"
)

// Name is the backend name reported to logs and metrics.
const Name = "memory"

// DataStore keeps the records of one project in memory
type DataStore struct {
	mu          sync.RWMutex
	meta        *storagemodels.Meta
	records     map[string]*storagemodels.Record
	order       []string
	connections map[string]storagemodels.Connection
	applyError  error
	queryError  error
	applied     int
}

var _ datastore.DataStore = (*DataStore)(nil)

// New creates an empty in-memory DataStore
func New() *DataStore {
	return &DataStore{
		records:     make(map[string]*storagemodels.Record),
		connections: make(map[string]storagemodels.Connection),
	}
}

// WithApplyError makes Apply return err without storing anything. A nil
// error restores normal operation.
func (m *DataStore) WithApplyError(err error) *DataStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyError = err
	return m
}

// WithQueryError makes Query and Connections return err
func (m *DataStore) WithQueryError(err error) *DataStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryError = err
	return m
}

func (m *DataStore) Name() string {
	return Name
}

func (m *DataStore) Exists(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta != nil, nil
}

func (m *DataStore) GetMeta(ctx context.Context) (*storagemodels.Meta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.meta == nil {
		return nil, errors.NewNotFoundError("project", "meta")
	}
	meta := *m.meta
	return &meta, nil
}

// GetOne retrieves a record by id
func (m *DataStore) GetOne(ctx context.Context, id string) (*storagemodels.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, errors.NewNotFoundError("record", id)
	}
	return copyRecord(rec), nil
}

// Query returns the matching records in the order they were first stored
func (m *DataStore) Query(ctx context.Context, params *storagemodels.QueryParams) ([]*storagemodels.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.queryError != nil {
		return nil, m.queryError
	}
	var out []*storagemodels.Record
	for _, id := range m.order {
		if rec := m.records[id]; params.Matches(rec) {
			out = append(out, copyRecord(rec))
		}
	}
	return out, nil
}

// Connections returns the connections of a diagram ordered by key
func (m *DataStore) Connections(ctx context.Context, diagramID string) ([]storagemodels.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.queryError != nil {
		return nil, m.queryError
	}
	var out []storagemodels.Connection
	for _, c := range m.connections {
		if c.DiagramID == diagramID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

// Apply stores a batch. The batch is validated before anything changes.
func (m *DataStore) Apply(ctx context.Context, batch *storagemodels.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyError != nil {
		return m.applyError
	}
	for _, rec := range batch.Puts {
		if rec.ID == "" {
			return errors.NewValidationError("ID", "record without identity")
		}
	}

	for _, rec := range batch.Deletes {
		if _, ok := m.records[rec.ID]; !ok {
			continue
		}
		delete(m.records, rec.ID)
		for i, id := range m.order {
			if id == rec.ID {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	for _, rec := range batch.Puts {
		if _, ok := m.records[rec.ID]; !ok {
			m.order = append(m.order, rec.ID)
		}
		m.records[rec.ID] = copyRecord(rec)
	}
	for _, c := range batch.DeleteConnections {
		delete(m.connections, c.Key())
	}
	for _, c := range batch.PutConnections {
		m.connections[c.Key()] = c
	}
	if batch.Meta != nil {
		meta := *batch.Meta
		m.meta = &meta
	}
	m.applied++
	return nil
}

func (m *DataStore) Erase(ctx context.Context) error {
	m.Clear()
	return nil
}

func (m *DataStore) Close() error {
	return nil
}

// Helper methods for testing

// Count returns the number of stored records
func (m *DataStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// ConnectionCount returns the number of stored connections
func (m *DataStore) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// Applied returns the number of batches applied successfully
func (m *DataStore) Applied() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.applied
}

// Clear removes all data
func (m *DataStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = nil
	m.records = make(map[string]*storagemodels.Record)
	m.order = nil
	m.connections = make(map[string]storagemodels.Connection)
}

func copyRecord(rec *storagemodels.Record) *storagemodels.Record {
	out := *rec
	out.Fields = make(map[string]any, len(rec.Fields))
	for k, v := range rec.Fields {
		out.Fields[k] = v
	}
	if rec.Inner != nil {
		out.Inner = make(map[string][]map[string]any, len(rec.Inner))
		for name, items := range rec.Inner {
			copied := make([]map[string]any, len(items))
			for i, item := range items {
				copied[i] = make(map[string]any, len(item))
				for k, v := range item {
					copied[i][k] = v
				}
			}
			out.Inner[name] = copied
		}
	}
	return &out
}
