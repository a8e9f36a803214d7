/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/registry"
)

// GSIConfig holds the configuration for GSI key mappings
type GSIConfig struct {
	// IndexName is the actual GSI name in DynamoDB (e.g., "GSI1")
	IndexName string
	// PartitionKeyName is the actual partition key attribute name in the GSI (e.g., "PK1")
	PartitionKeyName string
	// SortKeyName is the actual sort key attribute name in the GSI (e.g., "SK1")
	SortKeyName string
}

// Index names of the table layout.
const (
	OwnerIndex    = "GSI1"
	RootIndex     = "GSI2"
	CategoryIndex = "GSI3"
)

// DefaultGSIConfigs holds the default GSI configurations
var DefaultGSIConfigs = map[string]GSIConfig{
	OwnerIndex: {
		IndexName:        OwnerIndex,
		PartitionKeyName: "PK1",
		SortKeyName:      "SK1",
	},
	RootIndex: {
		IndexName:        RootIndex,
		PartitionKeyName: "PK2",
		SortKeyName:      "SK2",
	},
	CategoryIndex: {
		IndexName:        CategoryIndex,
		PartitionKeyName: "PK3",
		SortKeyName:      "SK3",
	},
}

// GetGSIConfig returns the GSI configuration for a given index name
func GetGSIConfig(indexName string) (GSIConfig, bool) {
	config, ok := DefaultGSIConfigs[indexName]
	return config, ok
}

// DefaultIndexMap is the key layout of entity records. Macros name the
// attributes of keySource. Keys whose macros expand to nothing are left out,
// so GSI2 only holds shapes and model objects.
var DefaultIndexMap = map[string]string{
	"PK":  "{Project}#ENTITY#{ID}",
	"SK":  "{Project}#ENTITY#{ID}",
	"PK1": "{Project}#OWNER#{OwnerID}",
	"SK1": "{Category}#{ID}",
	"PK2": "{Project}#ROOT#{RootID}",
	"SK2": "{Category}#{ID}",
	"PK3": "{Project}#CATEGORY#{Category}",
	"SK3": "{ID}",
}

// RegisterDefaultIndexMaps registers DefaultIndexMap for every category
// that has no index map yet.
func RegisterDefaultIndexMaps() {
	for _, cat := range model.Categories {
		if _, ok := registry.GetIndexMap(cat); !ok {
			registry.RegisterIndexMap(cat, DefaultIndexMap)
		}
	}
}
