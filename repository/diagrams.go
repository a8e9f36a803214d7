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

func (r *Repository) ensureDiagrams(ctx context.Context) error {
	if r.gates.diagrams || !r.canLoad() {
		return nil
	}
	if r.diagrams.LoadedLen() == 0 {
		projectID := r.project().Identity()
		if err := r.load("diagram", func() error { return r.store.LoadDiagrams(ctx, r.view, projectID) }); err != nil {
			return err
		}
	}
	r.gates.diagrams = true
	return nil
}

// ensureDiagramShapes loads all shapes of a committed diagram once. Shapes
// reference templates, model objects and styles, so those are loaded first.
func (r *Repository) ensureDiagramShapes(ctx context.Context, d *model.Diagram) error {
	if r.gates.diagramShapes[d] || r.store == nil || d.Identity() == model.NoID {
		return nil
	}
	if err := r.ensureTemplates(ctx); err != nil {
		return err
	}
	if err := r.ensureModelObjects(ctx); err != nil {
		return err
	}
	if err := r.load("shape", func() error { return r.store.LoadDiagramShapes(ctx, r.view, d) }); err != nil {
		return err
	}
	r.gates.diagramShapes[d] = true
	return nil
}

// GetDiagrams returns all diagrams of the project. Their shapes are loaded
// on demand by GetDiagramShapes.
func (r *Repository) GetDiagrams(ctx context.Context) ([]*model.Diagram, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	if err := r.ensureDiagrams(ctx); err != nil {
		return nil, err
	}
	return r.diagrams.All(), nil
}

// GetDiagram returns the diagram with the given identity.
func (r *Repository) GetDiagram(ctx context.Context, id model.ID) (*model.Diagram, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	if d, ok := r.diagrams.Get(id); ok {
		return d, nil
	}
	if err := r.ensureDiagrams(ctx); err != nil {
		return nil, err
	}
	return lookup(r.diagrams, id)
}

// GetDiagramByName returns the diagram with the given name, compared
// case-insensitively.
func (r *Repository) GetDiagramByName(ctx context.Context, name string) (*model.Diagram, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	find := func() []*model.Diagram {
		var out []*model.Diagram
		for _, d := range r.diagrams.All() {
			if strings.EqualFold(d.Name, name) {
				out = append(out, d)
			}
		}
		return out
	}
	found := find()
	if len(found) == 0 {
		if err := r.ensureDiagrams(ctx); err != nil {
			return nil, err
		}
		found = find()
	}
	switch len(found) {
	case 0:
		return nil, errors.NewNotFoundError(r.diagrams.Kind(), name)
	case 1:
		return found[0], nil
	}
	return nil, errors.NewAmbiguousError(r.diagrams.Kind(), name, len(found))
}

// GetDiagramShapes returns the top-level shapes of the diagram, loading the
// diagram's whole shape tree on first use.
func (r *Repository) GetDiagramShapes(ctx context.Context, d *model.Diagram) ([]*model.Shape, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errors.NewValidationError("diagram", "must not be nil")
	}
	if err := r.ensureDiagramShapes(ctx, d); err != nil {
		return nil, err
	}
	return d.Shapes(), nil
}

// InsertDiagram adds a new diagram with all its shapes and the connections
// glued by them.
func (r *Repository) InsertDiagram(d *model.Diagram) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	project := r.project()
	if project == nil {
		return errors.NewNotFoundError("project", r.projectName)
	}
	var inserted []*model.Shape
	err := r.atomically(func() error {
		if err := r.diagrams.Insert(d, project); err != nil {
			return err
		}
		for _, s := range d.Shapes() {
			sub, err := r.insertShapeTree(s, d)
			if err != nil {
				return err
			}
			inserted = append(inserted, sub...)
		}
		r.insertGlueConnections(inserted)
		return nil
	})
	if err != nil {
		return err
	}
	r.gates.diagramShapes[d] = true
	r.touch("diagram", "insert", 1)
	r.touch("shape", "insert", len(inserted))
	r.fire(Event{Kind: DiagramInserted, Entities: []model.Entity{d}, Diagram: d})
	return nil
}

// UpdateDiagram records changes to the diagram's own fields.
func (r *Repository) UpdateDiagram(d *model.Diagram) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if err := r.diagrams.Update(d); err != nil {
		return err
	}
	r.touch("diagram", "update", 1)
	r.fire(Event{Kind: DiagramUpdated, Entities: []model.Entity{d}, Diagram: d})
	return nil
}

// DeleteDiagram deletes all shapes of the diagram, then the diagram. Shapes
// not loaded yet are loaded first so none is left behind.
func (r *Repository) DeleteDiagram(ctx context.Context, d *model.Diagram) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if !r.diagrams.Contains(d) {
		return r.diagrams.Delete(d)
	}
	if err := r.ensureDiagramShapes(ctx, d); err != nil {
		return err
	}
	var deleted []*model.Shape
	err := r.atomically(func() error {
		for _, s := range d.Shapes() {
			if !r.shapes.Contains(s) {
				continue
			}
			sub, err := r.deleteShapeTree(s)
			if err != nil {
				return err
			}
			deleted = append(deleted, sub...)
		}
		return r.diagrams.Delete(d)
	})
	if err != nil {
		return err
	}
	dropModelObjects(deleted)
	r.touch("diagram", "delete", 1)
	r.fire(Event{Kind: DiagramDeleted, Entities: []model.Entity{d}, Diagram: d})
	return nil
}

// UndeleteDiagram restores a deleted diagram and its shapes. Connections are
// not restored.
func (r *Repository) UndeleteDiagram(d *model.Diagram) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	err := r.atomically(func() error {
		if err := r.diagrams.Undelete(d); err != nil {
			return err
		}
		for _, s := range d.Shapes() {
			if err := r.undeleteShapeTree(s, d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.touch("diagram", "undelete", 1)
	r.fire(Event{Kind: DiagramInserted, Entities: []model.Entity{d}, Diagram: d})
	return nil
}
