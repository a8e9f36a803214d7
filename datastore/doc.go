/*
Package datastore persists entity cache projects as flat records.

ProjectStore implements repository.Store over a DataStore, the record
backend of one project:

	type DataStore interface {
	    Name() string
	    Exists(ctx context.Context) (bool, error)
	    GetMeta(ctx context.Context) (*storagemodels.Meta, error)
	    GetOne(ctx context.Context, id string) (*storagemodels.Record, error)
	    Query(ctx context.Context, params *storagemodels.QueryParams) ([]*storagemodels.Record, error)
	    Connections(ctx context.Context, diagramID string) ([]storagemodels.Connection, error)
	    Apply(ctx context.Context, batch *storagemodels.Batch) error
	    Erase(ctx context.Context) error
	    Close() error
	}

Each commit becomes one storagemodels.Batch applied atomically. Records
carry their owner and, for shapes and model objects, the diagram, template
or model at the top of their tree so a whole tree loads with one query.

Implementations:
  - memory: in-memory backend for tests and ephemeral projects
  - sqlite: SQLite backend (modernc.org/sqlite, no cgo)
  - ddb: DynamoDB single-table backend
*/
package datastore
