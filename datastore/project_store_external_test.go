/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitycache/datastore"
	"github.com/suparena/entitycache/datastore/memory"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/registry"
	"github.com/suparena/entitycache/repository"
)

func TestSaveChangesUsesIDGenerator(t *testing.T) {
	ctx := context.Background()
	ds := memory.New()
	n := 0
	store := datastore.NewProjectStore(ds, datastore.WithIDGenerator(func() model.ID {
		n++
		return model.ID(fmt.Sprintf("id-%d", n))
	}))
	reg, err := registry.NewCore()
	require.NoError(t, err)
	repo := repository.New(reg, repository.WithStore(store), repository.WithProjectName("Plant"))
	require.NoError(t, repo.Create(ctx))

	recs, err := ds.Query(ctx, nil)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.True(t, strings.HasPrefix(rec.ID, "id-"), rec.ID)
	}
	meta, err := ds.GetMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "id-1", meta.ProjectOwnerID)
	assert.Equal(t, "Plant", meta.ProjectName)
}
