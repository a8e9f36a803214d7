/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package repository

import (
	"fmt"

	"github.com/suparena/entitycache/cache"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/registry"
)

// storeView is the View handed to the backing store.
type storeView struct {
	r *Repository
}

var _ View = (*storeView)(nil)

func (v *storeView) Registry() *registry.Registry     { return v.r.registry }
func (v *storeView) ProjectName() string              { return v.r.projectName }
func (v *storeView) Version() int                     { return v.r.version }
func (v *storeView) SetRepositoryBaseVersion(ver int) { v.r.version = ver }
func (v *storeView) ProjectOwner() model.Entity       { return v.r.projectOwner }
func (v *storeView) SetProjectOwnerID(id model.ID)    { v.r.projectOwner.SetID(id) }
func (v *storeView) Project() *model.ProjectSettings  { return v.r.project() }

func (v *storeView) NewConnections() []model.ShapeConnection {
	return append([]model.ShapeConnection(nil), v.r.newConnections...)
}

func (v *storeView) DeletedConnections() []model.ShapeConnection {
	return append([]model.ShapeConnection(nil), v.r.deletedConnections...)
}

func lookup[E cache.Entity](c *cache.Cache[E], id model.ID) (E, error) {
	e, ok := c.Get(id)
	if !ok {
		return e, errors.NewNotFoundError(c.Kind(), string(id))
	}
	return e, nil
}

func (v *storeView) Template(id model.ID) (*model.Template, error) {
	return lookup(v.r.templates, id)
}

func (v *storeView) Shape(id model.ID) (*model.Shape, error) {
	return lookup(v.r.shapes, id)
}

func (v *storeView) ModelObject(id model.ID) (*model.ModelObject, error) {
	return lookup(v.r.modelObjects, id)
}

func (v *storeView) Design(id model.ID) (*model.Design, error) {
	return lookup(v.r.designs, id)
}

func (v *storeView) Style(id model.ID) (model.Style, error) {
	return lookup(v.r.styles, id)
}

func (v *storeView) Diagram(id model.ID) (*model.Diagram, error) {
	return lookup(v.r.diagrams, id)
}

func (v *storeView) Resolve(category model.Category, id model.ID) (model.Entity, error) {
	switch category {
	case model.CategoryProjectOwner:
		if id != v.r.projectOwner.Identity() {
			return nil, errors.NewNotFoundError("project owner", string(id))
		}
		return v.r.projectOwner, nil
	case model.CategoryProjectSettings:
		return lookup(v.r.projects, id)
	case model.CategoryModel:
		return lookup(v.r.models, id)
	case model.CategoryDesign:
		return v.Design(id)
	case model.CategoryStyle:
		return v.Style(id)
	case model.CategoryTemplate:
		return v.Template(id)
	case model.CategoryModelMapping:
		return lookup(v.r.mappings, id)
	case model.CategoryModelObject:
		return v.ModelObject(id)
	case model.CategoryDiagram:
		return v.Diagram(id)
	case model.CategoryShape:
		return v.Shape(id)
	}
	return nil, errors.NewValidationError("category", fmt.Sprintf("unknown category %q", category))
}

func loadedItems[E cache.Entity](c *cache.Cache[E]) []Item {
	buckets := c.Loaded()
	out := make([]Item, len(buckets))
	for i, b := range buckets {
		out[i] = Item{Object: b.Object, Owner: b.Owner, State: b.State}
	}
	return out
}

func pendingItems[E cache.Entity](c *cache.Cache[E]) []PendingItem {
	entries := c.Pending()
	out := make([]PendingItem, len(entries))
	for i, p := range entries {
		out[i] = PendingItem{Object: p.Object, Owner: p.Owner}
	}
	return out
}

func (v *storeView) Loaded(category model.Category) []Item {
	r := v.r
	switch category {
	case model.CategoryProjectSettings:
		return loadedItems(r.projects)
	case model.CategoryModel:
		return loadedItems(r.models)
	case model.CategoryDesign:
		return loadedItems(r.designs)
	case model.CategoryStyle:
		return loadedItems(r.styles)
	case model.CategoryTemplate:
		return loadedItems(r.templates)
	case model.CategoryModelMapping:
		return loadedItems(r.mappings)
	case model.CategoryModelObject:
		return loadedItems(r.modelObjects)
	case model.CategoryDiagram:
		return loadedItems(r.diagrams)
	case model.CategoryShape:
		return loadedItems(r.shapes)
	}
	return nil
}

func (v *storeView) Pending(category model.Category) []PendingItem {
	r := v.r
	switch category {
	case model.CategoryProjectSettings:
		return pendingItems(r.projects)
	case model.CategoryModel:
		return pendingItems(r.models)
	case model.CategoryDesign:
		return pendingItems(r.designs)
	case model.CategoryStyle:
		return pendingItems(r.styles)
	case model.CategoryTemplate:
		return pendingItems(r.templates)
	case model.CategoryModelMapping:
		return pendingItems(r.mappings)
	case model.CategoryModelObject:
		return pendingItems(r.modelObjects)
	case model.CategoryDiagram:
		return pendingItems(r.diagrams)
	case model.CategoryShape:
		return pendingItems(r.shapes)
	}
	return nil
}

// AddLoaded adds e in state Original and, when it was not cached yet, links
// it into the structure of its owner.
func (v *storeView) AddLoaded(e model.Entity, owner model.Entity) error {
	r := v.r
	var (
		added bool
		err   error
	)
	switch obj := e.(type) {
	case *model.ProjectSettings:
		added, err = r.projects.AddLoaded(obj, owner)
	case *model.Model:
		added, err = r.models.AddLoaded(obj, owner)
	case *model.Design:
		added, err = r.designs.AddLoaded(obj, owner)
	case model.Style:
		if added, err = r.styles.AddLoaded(obj, owner); added {
			if d, ok := owner.(*model.Design); ok {
				d.AddStyle(obj)
			}
		}
	case *model.Template:
		added, err = r.templates.AddLoaded(obj, owner)
	case *model.ModelMapping:
		if added, err = r.mappings.AddLoaded(obj, owner); added {
			if t, ok := owner.(*model.Template); ok {
				t.AddModelMapping(obj)
			}
		}
	case *model.ModelObject:
		if added, err = r.modelObjects.AddLoaded(obj, owner); added {
			if parent, ok := owner.(*model.ModelObject); ok {
				obj.Parent = parent
			}
		}
	case *model.Diagram:
		added, err = r.diagrams.AddLoaded(obj, owner)
	case *model.Shape:
		if added, err = r.shapes.AddLoaded(obj, owner); added {
			switch o := owner.(type) {
			case *model.Diagram:
				o.AddShape(obj)
			case *model.Shape:
				o.AddChild(obj)
			case *model.Template:
				o.Shape = obj
			}
		}
	default:
		return errors.NewValidationError("entity", fmt.Sprintf("cannot cache %T", e))
	}
	if err != nil {
		return err
	}
	if added {
		r.logger.Trace().
			Str("category", string(e.Category())).
			Str("id", string(e.Identity())).
			Msg("loaded")
	}
	return nil
}
