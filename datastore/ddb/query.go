/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/storagemodels"
)

// Query selects records through the most specific index: the root index
// when RootID is set, the owner index when OwnerID is set and the category
// index otherwise. Remaining conditions are checked on the results.
func (d *DynamodbDataStore) Query(ctx context.Context, params *storagemodels.QueryParams) ([]*storagemodels.Record, error) {
	if params == nil {
		params = &storagemodels.QueryParams{}
	}
	var (
		indexName string
		partition string
		prefix    string
	)
	switch {
	case params.RootID != "":
		indexName = RootIndex
		partition = fmt.Sprintf("%s#ROOT#%s", d.project, params.RootID)
		prefix = categoryPrefix(params.Category)
	case params.OwnerID != "":
		indexName = OwnerIndex
		partition = fmt.Sprintf("%s#OWNER#%s", d.project, params.OwnerID)
		prefix = categoryPrefix(params.Category)
	case params.Category != "":
		indexName = CategoryIndex
		partition = fmt.Sprintf("%s#CATEGORY#%s", d.project, params.Category)
	default:
		return nil, errors.NewValidationError("params", "query needs a category, owner or root")
	}

	input, err := d.indexQuery(indexName, partition, prefix)
	if err != nil {
		return nil, err
	}
	var out []*storagemodels.Record
	err = d.queryPages(ctx, input, func(items []map[string]types.AttributeValue) error {
		for _, item := range items {
			rec, err := unmarshalRecord(item)
			if err != nil {
				return err
			}
			if params.Matches(rec) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return out, nil
}

// Connections returns the connections stored under a diagram.
func (d *DynamodbDataStore) Connections(ctx context.Context, diagramID string) ([]storagemodels.Connection, error) {
	input, err := d.indexQuery(OwnerIndex, d.diagramPartition(diagramID), "CONN#")
	if err != nil {
		return nil, err
	}
	var out []storagemodels.Connection
	err = d.queryPages(ctx, input, func(items []map[string]types.AttributeValue) error {
		for _, item := range items {
			var c storagemodels.Connection
			if err := attributevalue.UnmarshalMap(item, &c); err != nil {
				return fmt.Errorf("failed to unmarshal connection: %w", err)
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return out, nil
}

func categoryPrefix(category string) string {
	if category == "" {
		return ""
	}
	return category + "#"
}

// indexQuery builds a query of one GSI partition, optionally restricted to
// sort keys starting with prefix.
func (d *DynamodbDataStore) indexQuery(indexName, partition, prefix string) (*sdk.QueryInput, error) {
	gsi, ok := GetGSIConfig(indexName)
	if !ok {
		return nil, fmt.Errorf("unknown index %s", indexName)
	}
	keyCond := "#pk = :pk"
	names := map[string]string{"#pk": gsi.PartitionKeyName}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: partition},
	}
	if prefix != "" {
		keyCond += " AND begins_with(#sk, :sk)"
		names["#sk"] = gsi.SortKeyName
		values[":sk"] = &types.AttributeValueMemberS{Value: prefix}
	}
	return &sdk.QueryInput{
		TableName:                 &d.tableName,
		IndexName:                 &gsi.IndexName,
		KeyConditionExpression:    &keyCond,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}, nil
}
