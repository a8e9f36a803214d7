/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/entitycache/storagemodels"
)

// DataStore is the record backend of one project.
type DataStore interface {
	// Name identifies the backend kind in logs and metrics.
	Name() string

	// Exists reports whether the project's metadata record is present.
	Exists(ctx context.Context) (bool, error)

	// GetMeta returns the project metadata or a not-found error.
	GetMeta(ctx context.Context) (*storagemodels.Meta, error)

	GetOne(ctx context.Context, id string) (*storagemodels.Record, error)

	Query(ctx context.Context, params *storagemodels.QueryParams) ([]*storagemodels.Record, error)

	// Connections returns the connections stored for a diagram.
	Connections(ctx context.Context, diagramID string) ([]storagemodels.Connection, error)

	// Apply writes a batch atomically: either all changes are stored or none.
	Apply(ctx context.Context, batch *storagemodels.Batch) error

	// Erase removes every record of the project.
	Erase(ctx context.Context) error

	Close() error
}
