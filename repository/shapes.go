/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package repository

import (
	"fmt"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
)

// diagramOf returns the diagram displaying shapes owned by owner.
func diagramOf(owner model.Entity) *model.Diagram {
	switch o := owner.(type) {
	case *model.Diagram:
		return o
	case *model.Shape:
		return o.Diagram()
	}
	return nil
}

// attach links s into the structure of owner.
func attach(s *model.Shape, owner model.Entity) {
	switch o := owner.(type) {
	case *model.Diagram:
		o.AddShape(s)
	case *model.Shape:
		o.AddChild(s)
	case *model.Template:
		o.Shape = s
	}
}

// detach removes a shape from its parent or diagram.
func detach(s *model.Shape) {
	if p := s.Parent(); p != nil {
		p.RemoveChild(s)
		return
	}
	if d := s.Diagram(); d != nil {
		d.RemoveShape(s)
	}
}

func checkShapeOwner(owner model.Entity) error {
	switch owner.(type) {
	case *model.Diagram, *model.Shape:
		return nil
	case nil:
		return errors.NewValidationError("owner", "must not be nil")
	}
	return errors.NewValidationError("owner", fmt.Sprintf("shapes cannot be owned by %T", owner))
}

// insertShapeTree inserts s under owner and its children under their
// parents, depth-first. It returns the inserted shapes.
func (r *Repository) insertShapeTree(s *model.Shape, owner model.Entity) ([]*model.Shape, error) {
	if err := r.shapes.Insert(s, owner); err != nil {
		return nil, err
	}
	inserted := []*model.Shape{s}
	for _, c := range s.Children() {
		sub, err := r.insertShapeTree(c, s)
		if err != nil {
			return inserted, err
		}
		inserted = append(inserted, sub...)
	}
	return inserted, nil
}

// insertGlueConnections records the connections of which the given shapes
// are the connector.
func (r *Repository) insertGlueConnections(shapes []*model.Shape) {
	for _, s := range shapes {
		for _, ci := range s.Connections() {
			if !s.IsGluePoint(ci.OwnPointID) {
				continue
			}
			r.insertConnection(model.ShapeConnection{
				ConnectorShape: s,
				GluePointID:    ci.OwnPointID,
				TargetShape:    ci.OtherShape,
				TargetPointID:  ci.OtherPointID,
			})
		}
	}
}

// updateShapeTree marks s Modified and its children Modified, inserting the
// children the cache does not know yet.
func (r *Repository) updateShapeTree(s *model.Shape) ([]*model.Shape, error) {
	if err := r.shapes.Update(s); err != nil {
		return nil, err
	}
	var inserted []*model.Shape
	for _, c := range s.Children() {
		if r.shapes.Contains(c) {
			sub, err := r.updateShapeTree(c)
			inserted = append(inserted, sub...)
			if err != nil {
				return inserted, err
			}
			continue
		}
		sub, err := r.insertShapeTree(c, s)
		inserted = append(inserted, sub...)
		if err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

// deleteShapeTree deletes the children of s, the connections attached to s
// and finally s itself. It returns the deleted shapes, whose model object
// references the caller drops once the whole cascade succeeded.
func (r *Repository) deleteShapeTree(s *model.Shape) ([]*model.Shape, error) {
	var deleted []*model.Shape
	for _, c := range s.Children() {
		if !r.shapes.Contains(c) {
			continue
		}
		sub, err := r.deleteShapeTree(c)
		if err != nil {
			return nil, err
		}
		deleted = append(deleted, sub...)
	}
	for _, ci := range s.Connections() {
		if s.IsGluePoint(ci.OwnPointID) {
			r.deleteConnection(model.ShapeConnection{
				ConnectorShape: s, GluePointID: ci.OwnPointID,
				TargetShape: ci.OtherShape, TargetPointID: ci.OtherPointID,
			})
			continue
		}
		r.deleteConnection(model.ShapeConnection{
			ConnectorShape: ci.OtherShape, GluePointID: ci.OtherPointID,
			TargetShape: s, TargetPointID: ci.OwnPointID,
		})
	}
	if err := r.shapes.Delete(s); err != nil {
		return nil, err
	}
	return append(deleted, s), nil
}

func dropModelObjects(shapes []*model.Shape) {
	for _, s := range shapes {
		s.ModelObject = nil
	}
}

// selectionRoots returns the shapes not nested under another shape of the
// selection, without duplicates.
func selectionRoots(shapes []*model.Shape) []*model.Shape {
	selected := make(map[*model.Shape]bool, len(shapes))
	for _, s := range shapes {
		selected[s] = true
	}
	seen := make(map[*model.Shape]bool, len(shapes))
	var roots []*model.Shape
	for _, s := range shapes {
		if seen[s] {
			continue
		}
		seen[s] = true
		nested := false
		for p := s.Parent(); p != nil; p = p.Parent() {
			if selected[p] {
				nested = true
				break
			}
		}
		if !nested {
			roots = append(roots, s)
		}
	}
	return roots
}

// undeleteShapeTree restores s under owner and its children under their
// parents. Shapes that were never committed are inserted again.
func (r *Repository) undeleteShapeTree(s *model.Shape, owner model.Entity) error {
	var err error
	if s.Identity() == model.NoID {
		err = r.shapes.Insert(s, owner)
	} else {
		err = r.shapes.UndeleteWithOwner(s, owner)
	}
	if err != nil {
		return err
	}
	for _, c := range s.Children() {
		if err := r.undeleteShapeTree(c, s); err != nil {
			return err
		}
	}
	return nil
}

// InsertShapes adds new shapes to a diagram or to a parent shape, together
// with their children and the connections they glue.
func (r *Repository) InsertShapes(owner model.Entity, shapes ...*model.Shape) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if err := checkShapeOwner(owner); err != nil {
		return err
	}
	var inserted []*model.Shape
	err := r.atomically(func() error {
		for _, s := range shapes {
			sub, err := r.insertShapeTree(s, owner)
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
	for _, s := range shapes {
		attach(s, owner)
	}
	r.touch("shape", "insert", len(inserted))
	r.fire(Event{Kind: ShapesInserted, Entities: entities(shapes), Diagram: diagramOf(owner)})
	return nil
}

// UpdateShapes records changes to shapes. Children added to an updated shape
// since it was last seen are inserted.
func (r *Repository) UpdateShapes(shapes ...*model.Shape) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	var inserted []*model.Shape
	err := r.atomically(func() error {
		for _, s := range shapes {
			sub, err := r.updateShapeTree(s)
			inserted = append(inserted, sub...)
			if err != nil {
				return err
			}
		}
		r.insertGlueConnections(inserted)
		return nil
	})
	if err != nil {
		return err
	}
	r.touch("shape", "update", len(shapes))
	r.fire(Event{Kind: ShapesUpdated, Entities: entities(shapes), Diagram: firstDiagram(shapes)})
	return nil
}

// UpdateShapeOwner moves a shape under another diagram or parent shape.
func (r *Repository) UpdateShapeOwner(s *model.Shape, owner model.Entity) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if err := checkShapeOwner(owner); err != nil {
		return err
	}
	if err := r.shapes.Reown(s, owner); err != nil {
		return err
	}
	attach(s, owner)
	r.touch("shape", "reown", 1)
	r.fire(Event{Kind: ShapesUpdated, Entities: []model.Entity{s}, Diagram: diagramOf(owner)})
	return nil
}

// DeleteShapes deletes shapes with their children and connections and
// detaches them from their parent or diagram. Shapes nested under another
// shape of the selection go with that shape.
func (r *Repository) DeleteShapes(shapes ...*model.Shape) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	for _, s := range shapes {
		if s == nil {
			return errors.NewValidationError(r.shapes.Kind(), "must not be nil")
		}
		if !r.shapes.Contains(s) {
			return r.shapes.Delete(s)
		}
	}
	roots := selectionRoots(shapes)
	diagram := firstDiagram(roots)
	var deleted []*model.Shape
	err := r.atomically(func() error {
		for _, s := range roots {
			sub, err := r.deleteShapeTree(s)
			if err != nil {
				return err
			}
			deleted = append(deleted, sub...)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, s := range roots {
		detach(s)
	}
	dropModelObjects(deleted)
	r.touch("shape", "delete", len(deleted))
	r.fire(Event{Kind: ShapesDeleted, Entities: entities(roots), Diagram: diagram})
	return nil
}

// UndeleteShapes restores deleted shapes under the owner they were deleted
// from. Connections are not restored.
func (r *Repository) UndeleteShapes(shapes ...*model.Shape) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	owners := make([]model.Entity, len(shapes))
	for i, s := range shapes {
		owner, ok := r.shapes.Owner(s)
		if !ok {
			return errors.NewNotFoundError(r.shapes.Kind(), string(s.Identity()))
		}
		owners[i] = owner
	}
	err := r.atomically(func() error {
		for i, s := range shapes {
			if err := r.undeleteShapeTree(s, owners[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i, s := range shapes {
		attach(s, owners[i])
	}
	r.touch("shape", "undelete", len(shapes))
	r.fire(Event{Kind: ShapesInserted, Entities: entities(shapes), Diagram: firstDiagram(shapes)})
	return nil
}

func firstDiagram(shapes []*model.Shape) *model.Diagram {
	for _, s := range shapes {
		if d := s.Diagram(); d != nil {
			return d
		}
	}
	return nil
}

func (r *Repository) insertConnection(c model.ShapeConnection) {
	for i, d := range r.deletedConnections {
		if d == c {
			r.deletedConnections = append(r.deletedConnections[:i], r.deletedConnections[i+1:]...)
			return
		}
	}
	for _, n := range r.newConnections {
		if n == c {
			return
		}
	}
	r.newConnections = append(r.newConnections, c)
}

func (r *Repository) deleteConnection(c model.ShapeConnection) {
	for i, n := range r.newConnections {
		if n == c {
			r.newConnections = append(r.newConnections[:i], r.newConnections[i+1:]...)
			return
		}
	}
	for _, d := range r.deletedConnections {
		if d == c {
			return
		}
	}
	r.deletedConnections = append(r.deletedConnections, c)
}

func checkConnection(c model.ShapeConnection) error {
	if c.ConnectorShape == nil || c.TargetShape == nil {
		return errors.NewValidationError("connection", "both shapes are required")
	}
	return nil
}

// InsertConnection records a connection the caller already established
// between two shapes.
func (r *Repository) InsertConnection(c model.ShapeConnection) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if err := checkConnection(c); err != nil {
		return err
	}
	r.insertConnection(c)
	r.touch("connection", "insert", 1)
	r.fire(Event{Kind: ConnectionInserted, Connection: &c, Diagram: c.ConnectorShape.Diagram()})
	return nil
}

// DeleteConnection records the removal of a connection.
func (r *Repository) DeleteConnection(c model.ShapeConnection) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if err := checkConnection(c); err != nil {
		return err
	}
	r.deleteConnection(c)
	r.touch("connection", "delete", 1)
	r.fire(Event{Kind: ConnectionDeleted, Connection: &c, Diagram: c.ConnectorShape.Diagram()})
	return nil
}

// Connect glues a point of connector to a point of target and records the
// connection. A connection the glue point held before is released.
func (r *Repository) Connect(connector *model.Shape, gluePointID model.ControlPointID, target *model.Shape, targetPointID model.ControlPointID) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if connector == nil || !r.shapes.Contains(connector) {
		return errors.NewNotFoundError(r.shapes.Kind(), "connector")
	}
	if target == nil || !r.shapes.Contains(target) {
		return errors.NewNotFoundError(r.shapes.Kind(), "target")
	}
	if !connector.IsGluePoint(gluePointID) {
		return errors.NewValidationError("gluePointID", fmt.Sprintf("point %d has no glue capability", gluePointID))
	}
	if old, ok := connector.Disconnect(gluePointID); ok {
		if err := r.DeleteConnection(old); err != nil {
			return err
		}
	}
	c, err := connector.Connect(gluePointID, target, targetPointID)
	if err != nil {
		return err
	}
	return r.InsertConnection(c)
}

// Disconnect releases a glue point of connector and records the removal.
func (r *Repository) Disconnect(connector *model.Shape, gluePointID model.ControlPointID) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if connector == nil {
		return errors.NewValidationError("connector", "must not be nil")
	}
	old, ok := connector.Disconnect(gluePointID)
	if !ok {
		return errors.NewNotFoundError("connection", fmt.Sprintf("%s:%d", connector.TypeName(), gluePointID))
	}
	return r.DeleteConnection(old)
}
