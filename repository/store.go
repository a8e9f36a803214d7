/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package repository

import (
	"context"

	"github.com/suparena/entitycache/cache"
	"github.com/suparena/entitycache/fieldstream"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/registry"
)

// Store is the backing store a Repository persists to. Load methods add the
// entities they read to the view instead of returning them.
type Store interface {
	Exists(ctx context.Context) (bool, error)
	ReadVersion(ctx context.Context, view View) error
	Create(ctx context.Context, view View) error
	Open(ctx context.Context, view View) error
	Close(ctx context.Context, view View) error
	Erase(ctx context.Context) error
	SaveChanges(ctx context.Context, view View) error

	LoadProjects(ctx context.Context, view View) error
	LoadModel(ctx context.Context, view View, projectID model.ID) error
	LoadDesigns(ctx context.Context, view View, projectID model.ID) error
	LoadTemplates(ctx context.Context, view View, projectID model.ID) error
	LoadDiagrams(ctx context.Context, view View, projectID model.ID) error
	LoadDiagramShapes(ctx context.Context, view View, diagram *model.Diagram) error
	LoadModelModelObjects(ctx context.Context, view View, modelID model.ID) error
	LoadChildModelObjects(ctx context.Context, view View, parentID model.ID) error
}

// Item is a loaded entity as the store sees it.
type Item struct {
	Object model.Entity
	Owner  model.Entity
	State  cache.ItemState
}

// PendingItem is an entity awaiting its first commit.
type PendingItem struct {
	Object model.Entity
	Owner  model.Entity
}

// View is the capability a Store receives. It exposes dirty state and
// identity resolution but never lifecycle mutation.
type View interface {
	fieldstream.Resolver

	Registry() *registry.Registry
	ProjectName() string
	Version() int
	SetRepositoryBaseVersion(version int)
	ProjectOwner() model.Entity
	SetProjectOwnerID(id model.ID)

	// Project returns the open project's settings, nil before they are loaded.
	Project() *model.ProjectSettings
	Diagram(id model.ID) (*model.Diagram, error)
	// Resolve returns the cached entity of the category with the given
	// identity. The project owner category resolves to the owner sentinel.
	Resolve(category model.Category, id model.ID) (model.Entity, error)

	Loaded(category model.Category) []Item
	Pending(category model.Category) []PendingItem
	NewConnections() []model.ShapeConnection
	DeletedConnections() []model.ShapeConnection

	// AddLoaded adds an entity read by the store in state Original and links
	// it into its owner's structure. Entities already cached are ignored.
	AddLoaded(e model.Entity, owner model.Entity) error
}
