/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/suparena/entitycache/datastore/memory"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/storagemodels"
)

func record(id, category, ownerID string) *storagemodels.Record {
	return &storagemodels.Record{
		ID:       id,
		Category: category,
		OwnerID:  ownerID,
		Fields:   map[string]any{"name": id},
	}
}

func TestMemoryDataStore(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		store := memory.New()

		exists, err := store.Exists(ctx)
		if err != nil || exists {
			t.Fatalf("Exists = %v, %v; want false, nil", exists, err)
		}

		err = store.Apply(ctx, &storagemodels.Batch{
			Puts: []*storagemodels.Record{
				record("d1", "diagram", "p1"),
				record("d2", "diagram", "p1"),
				record("s1", "shape", "d1"),
			},
			PutConnections: []storagemodels.Connection{{ConnectorID: "s1", GluePointID: 1, TargetID: "s2", DiagramID: "d1"}},
			Meta:           &storagemodels.Meta{ProjectName: "demo", Version: 1, ProjectOwnerID: "o1"},
		})
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}

		exists, _ = store.Exists(ctx)
		if !exists {
			t.Fatal("Expected project to exist after first batch")
		}
		meta, err := store.GetMeta(ctx)
		if err != nil || meta.ProjectName != "demo" {
			t.Fatalf("GetMeta = %+v, %v", meta, err)
		}

		diagrams, err := store.Query(ctx, &storagemodels.QueryParams{Category: "diagram", OwnerID: "p1"})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(diagrams) != 2 || diagrams[0].ID != "d1" || diagrams[1].ID != "d2" {
			t.Fatalf("Expected d1, d2 in insertion order, got %d records", len(diagrams))
		}

		// Returned records must not alias the stored ones
		diagrams[0].Fields["name"] = "changed"
		got, err := store.GetOne(ctx, "d1")
		if err != nil {
			t.Fatalf("GetOne failed: %v", err)
		}
		if got.Fields["name"] != "d1" {
			t.Fatalf("Stored record was modified through a query result")
		}

		conns, _ := store.Connections(ctx, "d1")
		if len(conns) != 1 {
			t.Fatalf("Expected 1 connection, got %d", len(conns))
		}

		err = store.Apply(ctx, &storagemodels.Batch{
			Deletes:           []*storagemodels.Record{{ID: "s1"}},
			DeleteConnections: []storagemodels.Connection{{ConnectorID: "s1", GluePointID: 1}},
		})
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if _, err := store.GetOne(ctx, "s1"); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error, got: %v", err)
		}
		if store.ConnectionCount() != 0 {
			t.Fatalf("Expected connection to be deleted")
		}
		if store.Applied() != 2 {
			t.Fatalf("Expected 2 applied batches, got %d", store.Applied())
		}
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		store := memory.New()
		applyErr := fmt.Errorf("disk full")
		store.WithApplyError(applyErr)

		err := store.Apply(ctx, &storagemodels.Batch{Puts: []*storagemodels.Record{record("d1", "diagram", "p1")}})
		if err != applyErr {
			t.Fatalf("Expected apply error, got: %v", err)
		}
		if store.Count() != 0 {
			t.Fatalf("Failed batch must not store records")
		}

		store.WithApplyError(nil)
		queryErr := fmt.Errorf("unavailable")
		store.WithQueryError(queryErr)
		if _, err := store.Query(ctx, nil); err != queryErr {
			t.Fatalf("Expected query error, got: %v", err)
		}
	})

	t.Run("RejectsUnidentifiedRecords", func(t *testing.T) {
		store := memory.New()
		err := store.Apply(ctx, &storagemodels.Batch{
			Puts: []*storagemodels.Record{record("d1", "diagram", "p1"), record("", "diagram", "p1")},
		})
		if !errors.IsValidationError(err) {
			t.Fatalf("Expected validation error, got: %v", err)
		}
		if store.Count() != 0 {
			t.Fatalf("Batch must be applied atomically")
		}
	})

	t.Run("Erase", func(t *testing.T) {
		store := memory.New()
		_ = store.Apply(ctx, &storagemodels.Batch{
			Puts: []*storagemodels.Record{record("d1", "diagram", "p1")},
			Meta: &storagemodels.Meta{ProjectName: "demo"},
		})
		if err := store.Erase(ctx); err != nil {
			t.Fatalf("Erase failed: %v", err)
		}
		if exists, _ := store.Exists(ctx); exists || store.Count() != 0 {
			t.Fatal("Expected empty store after erase")
		}
	})
}
