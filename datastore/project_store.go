/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/suparena/entitycache/cache"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/fieldstream"
	"github.com/suparena/entitycache/metrics"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/repository"
	"github.com/suparena/entitycache/storagemodels"
)

// ProjectStore implements repository.Store on top of a record backend.
type ProjectStore struct {
	ds     DataStore
	logger zerolog.Logger
	newID  func() model.ID
}

var _ repository.Store = (*ProjectStore)(nil)

// Option configures a ProjectStore.
type Option func(*ProjectStore)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *ProjectStore) {
		s.logger = l
	}
}

// WithIDGenerator replaces the UUID identity generator.
func WithIDGenerator(fn func() model.ID) Option {
	return func(s *ProjectStore) {
		s.newID = fn
	}
}

// NewProjectStore returns a store persisting to ds.
func NewProjectStore(ds DataStore, opts ...Option) *ProjectStore {
	s := &ProjectStore{
		ds:     ds,
		logger: zerolog.Nop(),
		newID:  func() model.ID { return model.ID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "projectstore").Str("backend", ds.Name()).Logger()
	return s
}

// DataStore returns the underlying record backend.
func (s *ProjectStore) DataStore() DataStore {
	return s.ds
}

func (s *ProjectStore) Exists(ctx context.Context) (bool, error) {
	return s.ds.Exists(ctx)
}

func (s *ProjectStore) ReadVersion(ctx context.Context, view repository.View) error {
	meta, err := s.ds.GetMeta(ctx)
	if err != nil {
		return err
	}
	view.SetRepositoryBaseVersion(meta.Version)
	return nil
}

// Create prepares a new project. The metadata record is written by the
// first SaveChanges.
func (s *ProjectStore) Create(ctx context.Context, view repository.View) error {
	exists, err := s.ds.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return errors.NewAlreadyExistsError("project", view.ProjectName())
	}
	view.SetProjectOwnerID(s.newID())
	return nil
}

func (s *ProjectStore) Open(ctx context.Context, view repository.View) error {
	meta, err := s.ds.GetMeta(ctx)
	if err != nil {
		return err
	}
	view.SetRepositoryBaseVersion(meta.Version)
	view.SetProjectOwnerID(model.ID(meta.ProjectOwnerID))
	return nil
}

func (s *ProjectStore) Close(ctx context.Context, view repository.View) error {
	return nil
}

func (s *ProjectStore) Erase(ctx context.Context) error {
	return s.ds.Erase(ctx)
}

// SaveChanges writes the dirty state of view as one batch. Pending entities
// are assigned identities first; an identity kept from a failed attempt is
// reused.
func (s *ProjectStore) SaveChanges(ctx context.Context, view repository.View) error {
	if view.ProjectOwner().Identity() == model.NoID {
		view.SetProjectOwnerID(s.newID())
	}
	for _, cat := range model.Categories {
		for _, p := range view.Pending(cat) {
			if p.Object.Identity() != model.NoID {
				continue
			}
			if err := p.Object.AssignID(s.newID()); err != nil {
				return err
			}
		}
	}

	owners := make(map[model.Entity]model.Entity)
	for _, cat := range model.Categories {
		for _, item := range view.Loaded(cat) {
			owners[item.Object] = item.Owner
		}
		for _, p := range view.Pending(cat) {
			owners[p.Object] = p.Owner
		}
	}

	batch := &storagemodels.Batch{}
	for i := len(model.Categories) - 1; i >= 0; i-- {
		for _, item := range view.Loaded(model.Categories[i]) {
			if item.State != cache.StateDeleted {
				continue
			}
			batch.Deletes = append(batch.Deletes, &storagemodels.Record{
				ID:       string(item.Object.Identity()),
				Category: string(item.Object.Category()),
			})
		}
	}
	for _, cat := range model.Categories {
		var dirty []model.Entity
		for _, item := range view.Loaded(cat) {
			if item.State == cache.StateModified || item.State == cache.StateOwnerChanged {
				dirty = append(dirty, item.Object)
			}
		}
		for _, p := range view.Pending(cat) {
			dirty = append(dirty, p.Object)
		}
		if cat == model.CategoryStyle {
			sort.SliceStable(dirty, func(i, j int) bool {
				return isColorStyle(dirty[i]) && !isColorStyle(dirty[j])
			})
		}
		for _, e := range dirty {
			rec, err := s.encode(view, e, owners)
			if err != nil {
				return err
			}
			batch.Puts = append(batch.Puts, rec)
		}
	}

	for _, c := range view.DeletedConnections() {
		conn, err := connectionRecord(c)
		if err != nil {
			return err
		}
		batch.DeleteConnections = append(batch.DeleteConnections, conn)
	}
	for _, c := range view.NewConnections() {
		conn, err := connectionRecord(c)
		if err != nil {
			return err
		}
		batch.PutConnections = append(batch.PutConnections, conn)
	}
	batch.Meta = &storagemodels.Meta{
		ProjectName:    view.ProjectName(),
		Version:        view.Version(),
		ProjectOwnerID: string(view.ProjectOwner().Identity()),
	}

	if err := s.ds.Apply(ctx, batch); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	metrics.BatchRecords.WithLabelValues(s.ds.Name()).Observe(float64(len(batch.Puts) + len(batch.Deletes)))
	s.logger.Debug().
		Int("puts", len(batch.Puts)).
		Int("deletes", len(batch.Deletes)).
		Int("connections", len(batch.PutConnections)+len(batch.DeleteConnections)).
		Msg("batch applied")
	return nil
}

func isColorStyle(e model.Entity) bool {
	_, ok := e.(*model.ColorStyle)
	return ok
}

func (s *ProjectStore) encode(view repository.View, e model.Entity, owners map[model.Entity]model.Entity) (*storagemodels.Record, error) {
	et, err := view.Registry().ByName(e.TypeName())
	if err != nil {
		return nil, err
	}
	rec, err := fieldstream.Encode(et, e, view.Version())
	if err != nil {
		return nil, err
	}
	owner := owners[e]
	if owner == nil {
		return nil, errors.NewValidationError("owner", fmt.Sprintf("%s %s has no owner", e.Category(), e.Identity()))
	}
	rec.OwnerCategory = string(owner.Category())
	rec.OwnerID = string(owner.Identity())
	if root := rootOf(e, owners); root != nil {
		rec.RootID = string(root.Identity())
	}
	return rec, nil
}

// rootOf returns the diagram, template or model at the top of the ownership
// chain of a shape or model object.
func rootOf(e model.Entity, owners map[model.Entity]model.Entity) model.Entity {
	switch e.Category() {
	case model.CategoryShape, model.CategoryModelObject:
	default:
		return nil
	}
	for owner := owners[e]; owner != nil; owner = owners[owner] {
		switch owner.Category() {
		case model.CategoryDiagram, model.CategoryTemplate, model.CategoryModel:
			return owner
		}
	}
	return nil
}

func connectionRecord(c model.ShapeConnection) (storagemodels.Connection, error) {
	if c.ConnectorShape.Identity() == model.NoID || c.TargetShape.Identity() == model.NoID {
		return storagemodels.Connection{}, errors.NewSchemaError("connection", c.String(), "connects a shape that is not cached")
	}
	conn := storagemodels.Connection{
		ConnectorID:   string(c.ConnectorShape.Identity()),
		GluePointID:   int32(c.GluePointID),
		TargetID:      string(c.TargetShape.Identity()),
		TargetPointID: int32(c.TargetPointID),
	}
	if d := c.ConnectorShape.Diagram(); d != nil {
		conn.DiagramID = string(d.Identity())
	}
	return conn, nil
}
