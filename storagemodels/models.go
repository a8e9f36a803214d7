/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
)

// Record is the persisted form of one entity. Fields hold the scalar fields
// in canonical form keyed by element name; Inner holds the inner object
// groups keyed by group element name.
type Record struct {
	ID            string `json:"id" dynamodbav:"ID"`
	Category      string `json:"category" dynamodbav:"Category"`
	ElementName   string `json:"elementName" dynamodbav:"ElementName"`
	OwnerCategory string `json:"ownerCategory" dynamodbav:"OwnerCategory"`
	OwnerID       string `json:"ownerId" dynamodbav:"OwnerID"`
	// RootID is the diagram or template a shape tree belongs to, or the model
	// or template a model object tree belongs to. It is empty for all other
	// categories.
	RootID string                      `json:"rootId,omitempty" dynamodbav:"RootID,omitempty"`
	Fields map[string]any              `json:"fields" dynamodbav:"Fields"`
	Inner  map[string][]map[string]any `json:"inner,omitempty" dynamodbav:"Inner,omitempty"`
}

// Connection is the persisted form of a shape connection.
type Connection struct {
	ConnectorID   string `json:"connectorId" dynamodbav:"ConnectorID"`
	GluePointID   int32  `json:"gluePointId" dynamodbav:"GluePointID"`
	TargetID      string `json:"targetId" dynamodbav:"TargetID"`
	TargetPointID int32  `json:"targetPointId" dynamodbav:"TargetPointID"`
	// DiagramID is the diagram both shapes are displayed on.
	DiagramID string `json:"diagramId" dynamodbav:"DiagramID"`
}

// Key identifies the connection by its connector side. A glue point holds at
// most one connection.
func (c Connection) Key() string {
	return fmt.Sprintf("%s#%d", c.ConnectorID, c.GluePointID)
}

// Meta is the per-project metadata record.
type Meta struct {
	ProjectName    string `json:"projectName" dynamodbav:"ProjectName"`
	Version        int    `json:"version" dynamodbav:"Version"`
	ProjectOwnerID string `json:"projectOwnerId" dynamodbav:"ProjectOwnerID"`
}

// QueryParams selects records. Empty fields do not restrict the result.
type QueryParams struct {
	Category string
	OwnerID  string
	RootID   string
}

// Matches reports whether the record satisfies the query.
func (q *QueryParams) Matches(r *Record) bool {
	if q == nil {
		return true
	}
	if q.Category != "" && r.Category != q.Category {
		return false
	}
	if q.OwnerID != "" && r.OwnerID != q.OwnerID {
		return false
	}
	if q.RootID != "" && r.RootID != q.RootID {
		return false
	}
	return true
}

// Batch is the set of changes of one commit. Backends apply it atomically.
type Batch struct {
	Deletes           []*Record
	Puts              []*Record
	DeleteConnections []Connection
	PutConnections    []Connection
	Meta              *Meta
}

// Empty reports whether the batch carries no changes.
func (b *Batch) Empty() bool {
	return len(b.Deletes) == 0 && len(b.Puts) == 0 &&
		len(b.DeleteConnections) == 0 && len(b.PutConnections) == 0 && b.Meta == nil
}
