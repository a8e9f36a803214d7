/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package repository

import (
	"context"
	"strings"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
)

// ensureTemplates loads all templates once, together with their shapes,
// model objects and mappings. Template shapes reference styles, so designs
// are loaded first.
func (r *Repository) ensureTemplates(ctx context.Context) error {
	if r.gates.templates || !r.canLoad() {
		return nil
	}
	if err := r.ensureDesigns(ctx); err != nil {
		return err
	}
	if r.templates.LoadedLen() == 0 {
		projectID := r.project().Identity()
		if err := r.load("template", func() error { return r.store.LoadTemplates(ctx, r.view, projectID) }); err != nil {
			return err
		}
	}
	r.gates.templates = true
	return nil
}

// GetTemplates returns all templates of the project.
func (r *Repository) GetTemplates(ctx context.Context) ([]*model.Template, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	if err := r.ensureTemplates(ctx); err != nil {
		return nil, err
	}
	return r.templates.All(), nil
}

// GetTemplate returns the template with the given identity.
func (r *Repository) GetTemplate(ctx context.Context, id model.ID) (*model.Template, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	if t, ok := r.templates.Get(id); ok {
		return t, nil
	}
	if err := r.ensureTemplates(ctx); err != nil {
		return nil, err
	}
	return lookup(r.templates, id)
}

// GetTemplateByName returns the template with the given name, compared
// case-insensitively.
func (r *Repository) GetTemplateByName(ctx context.Context, name string) (*model.Template, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	find := func() []*model.Template {
		var out []*model.Template
		for _, t := range r.templates.All() {
			if strings.EqualFold(t.Name, name) {
				out = append(out, t)
			}
		}
		return out
	}
	found := find()
	if len(found) == 0 {
		if err := r.ensureTemplates(ctx); err != nil {
			return nil, err
		}
		found = find()
	}
	switch len(found) {
	case 0:
		return nil, errors.NewNotFoundError(r.templates.Kind(), name)
	case 1:
		return found[0], nil
	}
	return nil, errors.NewAmbiguousError(r.templates.Kind(), name, len(found))
}

// wireTemplateShape makes s the template's shape in the cache: known shapes
// are updated, deleted ones restored and new ones inserted, together with
// the model object the shape presents.
func (r *Repository) wireTemplateShape(t *model.Template, s *model.Shape) error {
	switch {
	case r.shapes.Contains(s):
		if err := r.shapes.Reown(s, t); err != nil {
			return err
		}
		if _, err := r.updateShapeTree(s); err != nil {
			return err
		}
	case s.Identity() != model.NoID:
		if err := r.undeleteShapeTree(s, t); err != nil {
			return err
		}
	default:
		if _, err := r.insertShapeTree(s, t); err != nil {
			return err
		}
	}
	mo := s.ModelObject
	if mo == nil {
		return nil
	}
	switch {
	case r.modelObjects.Contains(mo):
		return r.modelObjects.Update(mo)
	case mo.Identity() != model.NoID:
		return r.modelObjects.UndeleteWithOwner(mo, t)
	}
	return r.modelObjects.Insert(mo, t)
}

// InsertTemplate adds a new template with its shape tree, the shape's model
// object and the template's mappings.
func (r *Repository) InsertTemplate(t *model.Template) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	project := r.project()
	if project == nil {
		return errors.NewNotFoundError("project", r.projectName)
	}
	err := r.atomically(func() error {
		if err := r.templates.Insert(t, project); err != nil {
			return err
		}
		if t.Shape != nil {
			if _, err := r.insertShapeTree(t.Shape, t); err != nil {
				return err
			}
			if mo := t.Shape.ModelObject; mo != nil && !r.modelObjects.Contains(mo) {
				if err := r.modelObjects.Insert(mo, t); err != nil {
					return err
				}
			}
		}
		for _, m := range t.ModelMappings() {
			if err := r.mappings.Insert(m, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.touch("template", "insert", 1)
	r.fire(Event{Kind: TemplateInserted, Entities: []model.Entity{t}, Template: t})
	return nil
}

// UpdateTemplate records changes to the template's own fields.
func (r *Repository) UpdateTemplate(t *model.Template) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if err := r.templates.Update(t); err != nil {
		return err
	}
	r.touch("template", "update", 1)
	r.fire(Event{Kind: TemplateUpdated, Entities: []model.Entity{t}, Template: t})
	return nil
}

// ReplaceTemplateShape makes newShape the template's shape. The new shape is
// wired in before the old shape and its model object are deleted.
func (r *Repository) ReplaceTemplateShape(t *model.Template, newShape *model.Shape) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if newShape == nil {
		return errors.NewValidationError("shape", "must not be nil")
	}
	if !r.templates.Contains(t) {
		return r.templates.Update(t)
	}
	old := t.Shape
	if old == newShape {
		return nil
	}
	var oldObject *model.ModelObject
	if old != nil {
		oldObject = old.ModelObject
	}

	var deleted []*model.Shape
	err := r.atomically(func() error {
		if err := r.wireTemplateShape(t, newShape); err != nil {
			return err
		}
		if old != nil && r.shapes.Contains(old) {
			var err error
			if deleted, err = r.deleteShapeTree(old); err != nil {
				return err
			}
		}
		if oldObject != nil && oldObject != newShape.ModelObject && r.modelObjects.Contains(oldObject) {
			if err := r.modelObjects.Delete(oldObject); err != nil {
				return err
			}
		}
		return r.templates.Update(t)
	})
	if err != nil {
		return err
	}
	t.Shape = newShape
	dropModelObjects(deleted)
	r.touch("template", "replace shape", 1)
	r.fire(Event{Kind: TemplateShapeReplaced, Entities: []model.Entity{t}, Template: t, OldShape: old, NewShape: newShape})
	return nil
}

// DeleteTemplate deletes the template's mappings, shape and model objects,
// then the template.
func (r *Repository) DeleteTemplate(t *model.Template) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if !r.templates.Contains(t) {
		return r.templates.Delete(t)
	}
	var deleted []*model.Shape
	err := r.atomically(func() error {
		for _, m := range r.mappings.OwnedBy(t) {
			if err := r.mappings.Delete(m); err != nil {
				return err
			}
		}
		if t.Shape != nil && r.shapes.Contains(t.Shape) {
			var err error
			if deleted, err = r.deleteShapeTree(t.Shape); err != nil {
				return err
			}
		}
		for _, mo := range r.modelObjects.OwnedBy(t) {
			if err := r.modelObjects.Delete(mo); err != nil {
				return err
			}
		}
		return r.templates.Delete(t)
	})
	if err != nil {
		return err
	}
	dropModelObjects(deleted)
	r.touch("template", "delete", 1)
	r.fire(Event{Kind: TemplateDeleted, Entities: []model.Entity{t}, Template: t})
	return nil
}

// UndeleteTemplate restores a deleted template with its shape tree, model
// objects and mappings.
func (r *Repository) UndeleteTemplate(t *model.Template) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	err := r.atomically(func() error {
		if err := r.templates.Undelete(t); err != nil {
			return err
		}
		if t.Shape != nil {
			if err := r.undeleteShapeTree(t.Shape, t); err != nil {
				return err
			}
		}
		for _, mo := range deletedOwnedBy(r.modelObjects, t) {
			if err := r.modelObjects.UndeleteWithOwner(mo, t); err != nil {
				return err
			}
		}
		for _, m := range deletedOwnedBy(r.mappings, t) {
			if err := r.mappings.Undelete(m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.touch("template", "undelete", 1)
	r.fire(Event{Kind: TemplateInserted, Entities: []model.Entity{t}, Template: t})
	return nil
}

// InsertModelMappings adds new mappings to a template.
func (r *Repository) InsertModelMappings(t *model.Template, mappings ...*model.ModelMapping) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if t == nil || !r.templates.Contains(t) {
		return errors.NewNotFoundError(r.templates.Kind(), templateKey(t))
	}
	err := r.atomically(func() error {
		for _, m := range mappings {
			if err := r.mappings.Insert(m, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, m := range mappings {
		t.AddModelMapping(m)
	}
	r.touch("model mapping", "insert", len(mappings))
	r.fire(Event{Kind: ModelMappingsInserted, Entities: entities(mappings), Template: t})
	return nil
}

// UpdateModelMappings records changes to mappings of a template.
func (r *Repository) UpdateModelMappings(t *model.Template, mappings ...*model.ModelMapping) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	err := r.atomically(func() error {
		for _, m := range mappings {
			if err := r.mappings.Update(m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.touch("model mapping", "update", len(mappings))
	r.fire(Event{Kind: ModelMappingsUpdated, Entities: entities(mappings), Template: t})
	return nil
}

// DeleteModelMappings deletes mappings and removes them from the template.
func (r *Repository) DeleteModelMappings(t *model.Template, mappings ...*model.ModelMapping) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	err := r.atomically(func() error {
		for _, m := range mappings {
			if err := r.mappings.Delete(m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if t != nil {
		for _, m := range mappings {
			t.RemoveModelMapping(m)
		}
	}
	r.touch("model mapping", "delete", len(mappings))
	r.fire(Event{Kind: ModelMappingsDeleted, Entities: entities(mappings), Template: t})
	return nil
}

// UndeleteModelMappings restores deleted mappings into the template.
func (r *Repository) UndeleteModelMappings(t *model.Template, mappings ...*model.ModelMapping) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	err := r.atomically(func() error {
		for _, m := range mappings {
			if err := r.mappings.Undelete(m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if t != nil {
		for _, m := range mappings {
			t.AddModelMapping(m)
		}
	}
	r.touch("model mapping", "undelete", len(mappings))
	r.fire(Event{Kind: ModelMappingsInserted, Entities: entities(mappings), Template: t})
	return nil
}

func templateKey(t *model.Template) string {
	if t == nil {
		return "<nil>"
	}
	if t.Identity() == model.NoID {
		return t.Name
	}
	return string(t.Identity())
}
