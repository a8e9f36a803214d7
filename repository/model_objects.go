/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package repository

import (
	"context"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
)

func (r *Repository) ensureModel(ctx context.Context) error {
	if r.gates.model || !r.canLoad() {
		return nil
	}
	if r.models.LoadedLen() == 0 {
		projectID := r.project().Identity()
		if err := r.load("model", func() error { return r.store.LoadModel(ctx, r.view, projectID) }); err != nil {
			return err
		}
	}
	r.gates.model = true
	return nil
}

// ensureModelObjects loads the model's whole model object tree once.
func (r *Repository) ensureModelObjects(ctx context.Context) error {
	if r.gates.modelObjects || !r.canLoad() {
		return nil
	}
	if err := r.ensureModel(ctx); err != nil {
		return err
	}
	m := r.currentModel()
	if m == nil || m.Identity() == model.NoID {
		return nil
	}
	if err := r.load("model object", func() error { return r.store.LoadModelModelObjects(ctx, r.view, m.Identity()) }); err != nil {
		return err
	}
	r.gates.modelObjects = true
	return nil
}

// ensureChildObjects loads the children of a committed model object once.
func (r *Repository) ensureChildObjects(ctx context.Context, parent *model.ModelObject) error {
	if r.gates.childObjects[parent] || r.store == nil || parent.Identity() == model.NoID {
		return nil
	}
	if err := r.load("model object", func() error { return r.store.LoadChildModelObjects(ctx, r.view, parent.Identity()) }); err != nil {
		return err
	}
	r.gates.childObjects[parent] = true
	return nil
}

func (r *Repository) currentModel() *model.Model {
	project := r.project()
	if project == nil {
		return nil
	}
	if models := r.models.OwnedBy(project); len(models) > 0 {
		return models[0]
	}
	return nil
}

// GetModel returns the project's model.
func (r *Repository) GetModel(ctx context.Context) (*model.Model, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	if err := r.ensureModel(ctx); err != nil {
		return nil, err
	}
	m := r.currentModel()
	if m == nil {
		return nil, errors.NewNotFoundError(r.models.Kind(), r.projectName)
	}
	return m, nil
}

// GetModelObjects returns the children of parent, or the top-level model
// objects when parent is nil.
func (r *Repository) GetModelObjects(ctx context.Context, parent *model.ModelObject) ([]*model.ModelObject, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	if parent != nil {
		if err := r.ensureChildObjects(ctx, parent); err != nil {
			return nil, err
		}
		return r.modelObjects.OwnedBy(parent), nil
	}
	if err := r.ensureModelObjects(ctx); err != nil {
		return nil, err
	}
	m := r.currentModel()
	if m == nil {
		return nil, nil
	}
	return r.modelObjects.OwnedBy(m), nil
}

// GetModelObject returns the model object with the given identity. A miss
// loads the model's object tree, then the templates with the objects their
// shapes present.
func (r *Repository) GetModelObject(ctx context.Context, id model.ID) (*model.ModelObject, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	if o, ok := r.modelObjects.Get(id); ok {
		return o, nil
	}
	if err := r.ensureModelObjects(ctx); err != nil {
		return nil, err
	}
	if o, ok := r.modelObjects.Get(id); ok {
		return o, nil
	}
	if err := r.ensureTemplates(ctx); err != nil {
		return nil, err
	}
	return lookup(r.modelObjects, id)
}

func (r *Repository) modelObjectOwner(ctx context.Context, o *model.ModelObject) (model.Entity, error) {
	if o.Parent != nil {
		return o.Parent, nil
	}
	m, err := r.GetModel(ctx)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// InsertModelObjects adds new model objects under their parent, or under
// the model when they have none.
func (r *Repository) InsertModelObjects(ctx context.Context, objects ...*model.ModelObject) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	owners := make([]model.Entity, len(objects))
	for i, o := range objects {
		if o == nil {
			return errors.NewValidationError(r.modelObjects.Kind(), "must not be nil")
		}
		owner, err := r.modelObjectOwner(ctx, o)
		if err != nil {
			return err
		}
		owners[i] = owner
	}
	err := r.atomically(func() error {
		for i, o := range objects {
			if err := r.modelObjects.Insert(o, owners[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.touch("model object", "insert", len(objects))
	r.fire(Event{Kind: ModelObjectsInserted, Entities: entities(objects)})
	return nil
}

// UpdateModelObjects records changes to model objects.
func (r *Repository) UpdateModelObjects(objects ...*model.ModelObject) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	err := r.atomically(func() error {
		for _, o := range objects {
			if err := r.modelObjects.Update(o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.touch("model object", "update", len(objects))
	r.fire(Event{Kind: ModelObjectsUpdated, Entities: entities(objects)})
	return nil
}

// UpdateModelObjectParent moves o under parent, or under the model when
// parent is nil.
func (r *Repository) UpdateModelObjectParent(ctx context.Context, o, parent *model.ModelObject) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if o == nil {
		return errors.NewValidationError(r.modelObjects.Kind(), "must not be nil")
	}
	for p := parent; p != nil; p = p.Parent {
		if p == o {
			return errors.NewValidationError("parent", "a model object cannot be its own ancestor")
		}
	}
	var owner model.Entity = parent
	if parent == nil {
		m, err := r.GetModel(ctx)
		if err != nil {
			return err
		}
		owner = m
	}
	err := r.atomically(func() error {
		if err := r.modelObjects.Update(o); err != nil {
			return err
		}
		return r.modelObjects.Reown(o, owner)
	})
	if err != nil {
		return err
	}
	o.Parent = parent
	r.touch("model object", "reown", 1)
	r.fire(Event{Kind: ModelObjectsUpdated, Entities: []model.Entity{o}})
	return nil
}

// collectModelObjects loads the subtree of o and appends it to doomed,
// children before their parent. Objects already in seen are skipped.
func (r *Repository) collectModelObjects(ctx context.Context, o *model.ModelObject, seen map[*model.ModelObject]bool, doomed []*model.ModelObject) ([]*model.ModelObject, error) {
	if seen[o] {
		return doomed, nil
	}
	seen[o] = true
	if err := r.ensureChildObjects(ctx, o); err != nil {
		return nil, err
	}
	for _, c := range r.modelObjects.OwnedBy(o) {
		var err error
		if doomed, err = r.collectModelObjects(ctx, c, seen, doomed); err != nil {
			return nil, err
		}
	}
	return append(doomed, o), nil
}

// shapesPresenting returns the shapes whose model object is in objects. All
// diagram and template shapes are loaded first so no stored shape keeps a
// reference to a deleted object.
func (r *Repository) shapesPresenting(ctx context.Context, objects map[*model.ModelObject]bool) ([]*model.Shape, error) {
	if err := r.ensureTemplates(ctx); err != nil {
		return nil, err
	}
	if err := r.ensureDiagrams(ctx); err != nil {
		return nil, err
	}
	for _, d := range r.diagrams.All() {
		if err := r.ensureDiagramShapes(ctx, d); err != nil {
			return nil, err
		}
	}
	var out []*model.Shape
	for _, s := range r.shapes.All() {
		if s.ModelObject != nil && objects[s.ModelObject] {
			out = append(out, s)
		}
	}
	return out, nil
}

// DeleteModelObjects deletes model objects after their children. Shapes
// presenting a deleted object lose the reference and are marked modified.
func (r *Repository) DeleteModelObjects(ctx context.Context, objects ...*model.ModelObject) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	for _, o := range objects {
		if o == nil {
			return errors.NewValidationError(r.modelObjects.Kind(), "must not be nil")
		}
		if !r.modelObjects.Contains(o) {
			return r.modelObjects.Delete(o)
		}
	}
	seen := make(map[*model.ModelObject]bool)
	var doomed []*model.ModelObject
	for _, o := range objects {
		var err error
		if doomed, err = r.collectModelObjects(ctx, o, seen, doomed); err != nil {
			return err
		}
	}
	presenting, err := r.shapesPresenting(ctx, seen)
	if err != nil {
		return err
	}
	err = r.atomically(func() error {
		for _, s := range presenting {
			if err := r.shapes.Update(s); err != nil {
				return err
			}
		}
		for _, o := range doomed {
			if err := r.modelObjects.Delete(o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	dropModelObjects(presenting)
	r.touch("model object", "delete", len(doomed))
	if len(presenting) > 0 {
		r.touch("shape", "update", len(presenting))
		r.fire(Event{Kind: ShapesUpdated, Entities: entities(presenting), Diagram: firstDiagram(presenting)})
	}
	r.fire(Event{Kind: ModelObjectsDeleted, Entities: entities(objects)})
	return nil
}

func (r *Repository) undeleteModelObject(o *model.ModelObject) error {
	if err := r.modelObjects.Undelete(o); err != nil {
		return err
	}
	for _, c := range deletedOwnedBy(r.modelObjects, o) {
		if err := r.undeleteModelObject(c); err != nil {
			return err
		}
	}
	return nil
}

// UndeleteModelObjects restores deleted model objects and the children
// deleted along with them.
func (r *Repository) UndeleteModelObjects(objects ...*model.ModelObject) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	err := r.atomically(func() error {
		for _, o := range objects {
			if err := r.undeleteModelObject(o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.touch("model object", "undelete", len(objects))
	r.fire(Event{Kind: ModelObjectsInserted, Entities: entities(objects)})
	return nil
}
