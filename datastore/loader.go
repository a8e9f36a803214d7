/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"sort"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/fieldstream"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/repository"
	"github.com/suparena/entitycache/storagemodels"
)

func (s *ProjectStore) query(ctx context.Context, cat model.Category, ownerID, rootID model.ID) ([]*storagemodels.Record, error) {
	return s.ds.Query(ctx, &storagemodels.QueryParams{
		Category: string(cat),
		OwnerID:  string(ownerID),
		RootID:   string(rootID),
	})
}

// ownersFirst orders records so that a record owned by another record of
// the set follows its owner. The relative order is otherwise kept.
func ownersFirst(recs []*storagemodels.Record) []*storagemodels.Record {
	byID := make(map[string]*storagemodels.Record, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
	}
	out := make([]*storagemodels.Record, 0, len(recs))
	visited := make(map[string]bool, len(recs))
	var visit func(r *storagemodels.Record)
	visit = func(r *storagemodels.Record) {
		if visited[r.ID] {
			return
		}
		visited[r.ID] = true
		if owner, ok := byID[r.OwnerID]; ok {
			visit(owner)
		}
		out = append(out, r)
	}
	for _, r := range recs {
		visit(r)
	}
	return out
}

// add decodes records and hands them to the view under their owners.
// Records already cached are skipped.
func (s *ProjectStore) add(view repository.View, recs []*storagemodels.Record) error {
	for _, rec := range ownersFirst(recs) {
		if _, err := view.Resolve(model.Category(rec.Category), model.ID(rec.ID)); err == nil {
			continue
		}
		owner, err := view.Resolve(model.Category(rec.OwnerCategory), model.ID(rec.OwnerID))
		if err != nil {
			return err
		}
		et, err := view.Registry().ByElementName(rec.ElementName)
		if err != nil {
			return err
		}
		e, err := fieldstream.Decode(et, rec, view, view.Version())
		if err != nil {
			return err
		}
		if err := view.AddLoaded(e, owner); err != nil {
			return err
		}
	}
	s.logger.Debug().Int("records", len(recs)).Msg("records loaded")
	return nil
}

func (s *ProjectStore) LoadProjects(ctx context.Context, view repository.View) error {
	recs, err := s.query(ctx, model.CategoryProjectSettings, "", "")
	if err != nil {
		return err
	}
	return s.add(view, recs)
}

func (s *ProjectStore) LoadModel(ctx context.Context, view repository.View, projectID model.ID) error {
	recs, err := s.query(ctx, model.CategoryModel, projectID, "")
	if err != nil {
		return err
	}
	return s.add(view, recs)
}

// LoadDesigns loads the designs of the project and all their styles. Color
// styles are decoded first since other styles reference them.
func (s *ProjectStore) LoadDesigns(ctx context.Context, view repository.View, projectID model.ID) error {
	designs, err := s.query(ctx, model.CategoryDesign, projectID, "")
	if err != nil {
		return err
	}
	if err := s.add(view, designs); err != nil {
		return err
	}
	var styles []*storagemodels.Record
	for _, d := range designs {
		recs, err := s.query(ctx, model.CategoryStyle, model.ID(d.ID), "")
		if err != nil {
			return err
		}
		styles = append(styles, recs...)
	}
	colorElement := ""
	if et, err := view.Registry().ByName(model.ColorStyleTypeName); err == nil {
		colorElement = et.ElementName
	}
	sort.SliceStable(styles, func(i, j int) bool {
		return styles[i].ElementName == colorElement && styles[j].ElementName != colorElement
	})
	return s.add(view, styles)
}

// LoadTemplates loads the templates of the project with their model
// objects, shapes and model mappings, in that order.
func (s *ProjectStore) LoadTemplates(ctx context.Context, view repository.View, projectID model.ID) error {
	templates, err := s.query(ctx, model.CategoryTemplate, projectID, "")
	if err != nil {
		return err
	}
	if err := s.add(view, templates); err != nil {
		return err
	}
	for _, t := range templates {
		id := model.ID(t.ID)
		for _, step := range []struct {
			cat    model.Category
			byRoot bool
		}{
			{model.CategoryModelObject, true},
			{model.CategoryShape, true},
			{model.CategoryModelMapping, false},
		} {
			var recs []*storagemodels.Record
			if step.byRoot {
				recs, err = s.query(ctx, step.cat, "", id)
			} else {
				recs, err = s.query(ctx, step.cat, id, "")
			}
			if err != nil {
				return err
			}
			if err := s.add(view, recs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *ProjectStore) LoadDiagrams(ctx context.Context, view repository.View, projectID model.ID) error {
	recs, err := s.query(ctx, model.CategoryDiagram, projectID, "")
	if err != nil {
		return err
	}
	return s.add(view, recs)
}

// LoadDiagramShapes loads the whole shape tree of a diagram and restores the
// connections between its shapes.
func (s *ProjectStore) LoadDiagramShapes(ctx context.Context, view repository.View, diagram *model.Diagram) error {
	recs, err := s.query(ctx, model.CategoryShape, "", diagram.Identity())
	if err != nil {
		return err
	}
	if err := s.add(view, recs); err != nil {
		return err
	}
	conns, err := s.ds.Connections(ctx, string(diagram.Identity()))
	if err != nil {
		return err
	}
	for _, c := range conns {
		connector, err := view.Shape(model.ID(c.ConnectorID))
		if err != nil {
			if errors.IsNotFound(err) {
				s.logger.Warn().Str("connector", c.ConnectorID).Msg("dangling connection skipped")
				continue
			}
			return err
		}
		target, err := view.Shape(model.ID(c.TargetID))
		if err != nil {
			if errors.IsNotFound(err) {
				s.logger.Warn().Str("target", c.TargetID).Msg("dangling connection skipped")
				continue
			}
			return err
		}
		if _, err := connector.Connect(model.ControlPointID(c.GluePointID), target, model.ControlPointID(c.TargetPointID)); err != nil {
			return err
		}
	}
	return nil
}

// LoadModelModelObjects loads the model's whole model object tree.
func (s *ProjectStore) LoadModelModelObjects(ctx context.Context, view repository.View, modelID model.ID) error {
	recs, err := s.query(ctx, model.CategoryModelObject, "", modelID)
	if err != nil {
		return err
	}
	return s.add(view, recs)
}

func (s *ProjectStore) LoadChildModelObjects(ctx context.Context, view repository.View, parentID model.ID) error {
	recs, err := s.query(ctx, model.CategoryModelObject, parentID, "")
	if err != nil {
		return err
	}
	return s.add(view, recs)
}
