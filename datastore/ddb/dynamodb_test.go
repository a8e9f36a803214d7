/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/storagemodels"
)

// fakeTable is an in-memory stand-in for a DynamoDB table with GSIs.
type fakeTable struct {
	mu           sync.Mutex
	items        map[string]map[string]types.AttributeValue
	transactions int
	queries      int
	throttle     int
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: make(map[string]map[string]types.AttributeValue)}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeTable) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &sdk.GetItemOutput{Item: f.items[str(in.Key["PK"])]}, nil
}

func (f *fakeTable) page(matched []map[string]types.AttributeValue, sortKey string, limit *int32, start map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	sort.Slice(matched, func(i, j int) bool { return str(matched[i][sortKey]) < str(matched[j][sortKey]) })
	offset := 0
	if start != nil {
		offset, _ = strconv.Atoi(str(start["offset"]))
	}
	matched = matched[offset:]
	if limit != nil && int(*limit) < len(matched) {
		next := map[string]types.AttributeValue{
			"offset": &types.AttributeValueMemberS{Value: strconv.Itoa(offset + int(*limit))},
		}
		return matched[:*limit], next
	}
	return matched, nil
}

func (f *fakeTable) Query(ctx context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.throttle > 0 {
		f.throttle--
		return nil, &types.ProvisionedThroughputExceededException{Message: strPtr("slow down")}
	}
	pkName := in.ExpressionAttributeNames["#pk"]
	skName := in.ExpressionAttributeNames["#sk"]
	pk := str(in.ExpressionAttributeValues[":pk"])
	prefix := str(in.ExpressionAttributeValues[":sk"])
	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		if str(item[pkName]) != pk {
			continue
		}
		if skName != "" && !strings.HasPrefix(str(item[skName]), prefix) {
			continue
		}
		matched = append(matched, item)
	}
	sortKey := skName
	if sortKey == "" {
		sortKey = "SK"
	}
	items, next := f.page(matched, sortKey, in.Limit, in.ExclusiveStartKey)
	return &sdk.QueryOutput{Items: items, LastEvaluatedKey: next}, nil
}

func (f *fakeTable) Scan(ctx context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := str(in.ExpressionAttributeValues[":prefix"])
	var matched []map[string]types.AttributeValue
	for pk, item := range f.items {
		if strings.HasPrefix(pk, prefix) {
			matched = append(matched, item)
		}
	}
	items, next := f.page(matched, "PK", in.Limit, in.ExclusiveStartKey)
	return &sdk.ScanOutput{Items: items, LastEvaluatedKey: next}, nil
}

func (f *fakeTable) TransactWriteItems(ctx context.Context, in *sdk.TransactWriteItemsInput, _ ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(in.TransactItems) > maxTransactItems {
		return nil, fmt.Errorf("too many actions: %d", len(in.TransactItems))
	}
	f.transactions++
	for _, action := range in.TransactItems {
		switch {
		case action.Delete != nil:
			delete(f.items, str(action.Delete.Key["PK"]))
		case action.Put != nil:
			f.items[str(action.Put.Item["PK"])] = action.Put.Item
		}
	}
	return &sdk.TransactWriteItemsOutput{}, nil
}

func strPtr(s string) *string { return &s }

func newTestStore(t *testing.T, table *fakeTable, project string, opts ...Option) *DynamodbDataStore {
	t.Helper()
	store, err := NewDynamodbDataStore(table, "diagrams", project, opts...)
	require.NoError(t, err)
	return store
}

func TestNewDynamodbDataStoreValidation(t *testing.T) {
	_, err := NewDynamodbDataStore(newFakeTable(), "", "demo")
	assert.True(t, errors.IsValidationError(err))
	_, err = NewDynamodbDataStore(newFakeTable(), "diagrams", "")
	assert.True(t, errors.IsValidationError(err))
}

func TestExpandMacros(t *testing.T) {
	expanded, err := expandMacros(DefaultIndexMap, keySource{
		Project:  "demo",
		ID:       "s1",
		Category: "shape",
		OwnerID:  "d1",
	})
	require.NoError(t, err)
	assert.Equal(t, "demo#ENTITY#s1", expanded["PK"])
	assert.Equal(t, "demo#OWNER#d1", expanded["PK1"])
	assert.Equal(t, "shape#s1", expanded["SK1"])
	assert.Equal(t, "demo#CATEGORY#shape", expanded["PK3"])
	_, hasRoot := expanded["PK2"]
	assert.False(t, hasRoot, "keys with empty macros must be omitted")

	key, ok := buildSingleKey(expanded)
	require.True(t, ok)
	assert.Equal(t, "demo#ENTITY#s1", str(key["SK"]))
}

func TestApplyAndQuery(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	store := newTestStore(t, table, "demo", WithScanOptions(storagemodels.WithPageSize(2)))

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	err = store.Apply(ctx, &storagemodels.Batch{
		Puts: []*storagemodels.Record{
			{ID: "p1", Category: "project_settings", ElementName: "project_settings", Fields: map[string]any{"name": "demo"}},
			{ID: "d1", Category: "diagram", OwnerCategory: "project_settings", OwnerID: "p1", Fields: map[string]any{"name": "main"}},
			{ID: "s1", Category: "shape", OwnerCategory: "diagram", OwnerID: "d1", RootID: "d1", Fields: map[string]any{"x": int64(10)}},
			{ID: "s2", Category: "shape", OwnerCategory: "shape", OwnerID: "s1", RootID: "d1", Fields: map[string]any{"x": int64(20)}},
			{ID: "s3", Category: "shape", OwnerCategory: "diagram", OwnerID: "d1", RootID: "d1", Fields: map[string]any{"x": int64(30)}},
		},
		PutConnections: []storagemodels.Connection{{ConnectorID: "s3", GluePointID: 1, TargetID: "s1", DiagramID: "d1"}},
		Meta:           &storagemodels.Meta{ProjectName: "demo", Version: 1},
	})
	require.NoError(t, err)

	exists, err = store.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	meta, err := store.GetMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "demo", meta.ProjectName)
	assert.Equal(t, 1, meta.Version)

	rec, err := store.GetOne(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "d1", rec.RootID)
	x, ok := rec.Fields["x"].(interface{ Int64() (int64, error) })
	require.True(t, ok, "numbers decode as number values, got %T", rec.Fields["x"])
	v, _ := x.Int64()
	assert.Equal(t, int64(10), v)

	tree, err := store.Query(ctx, &storagemodels.QueryParams{Category: "shape", RootID: "d1"})
	require.NoError(t, err)
	assert.Len(t, tree, 3, "paged query must return every page")

	top, err := store.Query(ctx, &storagemodels.QueryParams{Category: "shape", OwnerID: "d1"})
	require.NoError(t, err)
	assert.Len(t, top, 2)

	projects, err := store.Query(ctx, &storagemodels.QueryParams{Category: "project_settings"})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "p1", projects[0].ID)

	conns, err := store.Connections(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "s1", conns[0].TargetID)

	_, err = store.Query(ctx, &storagemodels.QueryParams{})
	assert.True(t, errors.IsValidationError(err))
}

func TestApplyDeletesAndReplacedConnections(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	store := newTestStore(t, table, "demo")

	conn := storagemodels.Connection{ConnectorID: "s2", GluePointID: 1, TargetID: "s1", DiagramID: "d1"}
	require.NoError(t, store.Apply(ctx, &storagemodels.Batch{
		Puts: []*storagemodels.Record{
			{ID: "s1", Category: "shape", OwnerID: "d1", RootID: "d1"},
			{ID: "s2", Category: "shape", OwnerID: "d1", RootID: "d1"},
		},
		PutConnections: []storagemodels.Connection{conn},
	}))

	moved := conn
	moved.TargetID = "s3"
	require.NoError(t, store.Apply(ctx, &storagemodels.Batch{
		Deletes:           []*storagemodels.Record{{ID: "s1", Category: "shape"}},
		DeleteConnections: []storagemodels.Connection{conn},
		PutConnections:    []storagemodels.Connection{moved},
	}))

	_, err := store.GetOne(ctx, "s1")
	assert.True(t, errors.IsNotFound(err))
	conns, err := store.Connections(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "s3", conns[0].TargetID)
}

func TestApplySplitsLargeBatches(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	store := newTestStore(t, table, "demo")

	batch := &storagemodels.Batch{}
	for i := 0; i < 250; i++ {
		batch.Puts = append(batch.Puts, &storagemodels.Record{
			ID: fmt.Sprintf("s%03d", i), Category: "shape", OwnerID: "d1", RootID: "d1",
		})
	}
	require.NoError(t, store.Apply(ctx, batch))
	assert.Equal(t, 3, table.transactions)
	assert.Len(t, table.items, 250)
}

func TestApplyRejectsUnidentifiedRecords(t *testing.T) {
	store := newTestStore(t, newFakeTable(), "demo")
	err := store.Apply(context.Background(), &storagemodels.Batch{
		Puts: []*storagemodels.Record{{Category: "shape"}},
	})
	assert.True(t, errors.IsValidationError(err))
}

func TestQueryRetriesThrottling(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	store := newTestStore(t, table, "demo", WithScanOptions(
		storagemodels.WithMaxRetries(2),
		storagemodels.WithRetryBackoff(0),
	))
	require.NoError(t, store.Apply(ctx, &storagemodels.Batch{
		Puts: []*storagemodels.Record{{ID: "d1", Category: "diagram", OwnerID: "p1"}},
	}))

	table.throttle = 2
	recs, err := store.Query(ctx, &storagemodels.QueryParams{Category: "diagram"})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, 3, table.queries)

	table.throttle = 5
	_, err = store.Query(ctx, &storagemodels.QueryParams{Category: "diagram"})
	assert.Error(t, err)
}

func TestEraseOnlyTouchesProject(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	var pages int
	demo := newTestStore(t, table, "demo", WithScanOptions(
		storagemodels.WithPageSize(1),
		storagemodels.WithProgressHandler(func(p storagemodels.ScanProgress) { pages = p.PagesProcessed }),
	))
	other := newTestStore(t, table, "other")

	for _, s := range []*DynamodbDataStore{demo, other} {
		require.NoError(t, s.Apply(ctx, &storagemodels.Batch{
			Puts: []*storagemodels.Record{{ID: "d1", Category: "diagram", OwnerID: "p1"}},
			Meta: &storagemodels.Meta{ProjectName: s.project},
		}))
	}

	require.NoError(t, demo.Erase(ctx))
	assert.GreaterOrEqual(t, pages, 2)

	exists, err := demo.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = other.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
	_, err = other.GetOne(ctx, "d1")
	assert.NoError(t, err)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(&types.RequestLimitExceeded{}))
	assert.True(t, isRetryableError(&types.InternalServerError{}))
	assert.False(t, isRetryableError(fmt.Errorf("boom")))
}
