/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/suparena/entitycache/config"
	"github.com/suparena/entitycache/datastore"
	"github.com/suparena/entitycache/datastore/ddb"
	"github.com/suparena/entitycache/datastore/memory"
	"github.com/suparena/entitycache/datastore/sqlite"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/registry"
	"github.com/suparena/entitycache/repository"
)

// BackendFactory builds the record backend a configuration selects.
type BackendFactory func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (datastore.DataStore, error)

// Backends is a thread-safe set of backend factories keyed by store kind.
type Backends interface {
	// Register adds a factory under kind. A kind can be registered once.
	Register(kind string, f BackendFactory) error
	// Open builds the backend for cfg.Store.Kind.
	Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (datastore.DataStore, error)
	// Kinds returns the registered kinds in sorted order.
	Kinds() []string
}

type backendManager struct {
	mu        sync.RWMutex
	factories map[string]BackendFactory
}

// NewBackends returns an empty set of backend factories.
func NewBackends() Backends {
	return &backendManager{factories: make(map[string]BackendFactory)}
}

// DefaultBackends returns the memory, sqlite and dynamodb factories.
func DefaultBackends() Backends {
	b := NewBackends()
	_ = b.Register(config.StoreMemory, openMemory)
	_ = b.Register(config.StoreSQLite, openSQLite)
	_ = b.Register(config.StoreDynamoDB, openDynamoDB)
	return b
}

func (m *backendManager) Register(kind string, f BackendFactory) error {
	if kind == "" || f == nil {
		return errors.NewValidationError("backend", "kind and factory are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.factories[kind]; exists {
		return errors.NewAlreadyExistsError("backend", kind)
	}
	m.factories[kind] = f
	return nil
}

func (m *backendManager) Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (datastore.DataStore, error) {
	if cfg == nil {
		return nil, errors.NewValidationError("config", "must not be nil")
	}
	m.mu.RLock()
	f, exists := m.factories[cfg.Store.Kind]
	m.mu.RUnlock()
	if !exists {
		return nil, errors.NewNotFoundError("backend", cfg.Store.Kind)
	}
	ds, err := f(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Store.Kind, err)
	}
	return ds, nil
}

func (m *backendManager) Kinds() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kinds := make([]string, 0, len(m.factories))
	for k := range m.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func openMemory(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (datastore.DataStore, error) {
	return memory.New(), nil
}

func openSQLite(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (datastore.DataStore, error) {
	return sqlite.Open(cfg.Store.SQLite.Path, cfg.Project, sqlite.WithLogger(logger))
}

func openDynamoDB(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (datastore.DataStore, error) {
	d := cfg.Store.DynamoDB
	client, err := ddb.NewDynamoDBClient(ctx, d.AccessKey, d.SecretKey, d.Region)
	if err != nil {
		return nil, err
	}
	return ddb.NewDynamodbDataStore(client, d.Table, cfg.Project, ddb.WithLogger(logger))
}

// NewRepository validates cfg, opens its backend and returns a closed
// repository for the configured project over the core type registry. The
// caller creates or opens the project and closes the returned DataStore.
func NewRepository(ctx context.Context, backends Backends, cfg *config.Config, logger zerolog.Logger) (*repository.Repository, datastore.DataStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	reg, err := registry.NewCore()
	if err != nil {
		return nil, nil, err
	}
	ds, err := backends.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.New(reg,
		repository.WithStore(datastore.NewProjectStore(ds, datastore.WithLogger(logger))),
		repository.WithProjectName(cfg.Project),
		repository.WithLogger(logger),
	)
	return repo, ds, nil
}
