/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"sync"

	"github.com/suparena/entitycache/model"
)

// IndexMapRegistry associates entity categories with key templates used by
// key-value backends. Templates reference record attributes as macros, for
// example "ENTITY#{ID}" or "OWNER#{OwnerID}".

var (
	indexMapRegistry = make(map[model.Category]map[string]string)
	mu               sync.RWMutex
)

// RegisterIndexMap associates a category with an index map (PK, SK, etc.).
func RegisterIndexMap(category model.Category, idxMap map[string]string) {
	copied := make(map[string]string, len(idxMap))
	for k, v := range idxMap {
		copied[k] = v
	}

	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[category] = copied
}

// GetIndexMap retrieves the index map for the category, if any.
func GetIndexMap(category model.Category) (map[string]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[category]
	return m, ok
}

// UnregisterIndexMap removes the index map of the category.
func UnregisterIndexMap(category model.Category) {
	mu.Lock()
	defer mu.Unlock()
	delete(indexMapRegistry, category)
}
