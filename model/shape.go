/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"fmt"

	"github.com/suparena/entitycache/errors"
)

// ControlPointID identifies a control point of a shape.
type ControlPointID int32

// ControlPointNone is the reference point every shape has.
const ControlPointNone ControlPointID = 0

// ConnectionInfo describes one side of a shape connection as seen from the
// shape that stores it.
type ConnectionInfo struct {
	OwnPointID   ControlPointID
	OtherShape   *Shape
	OtherPointID ControlPointID
}

// ShapeConnection is a glue point of a connector shape attached to a point of
// a target shape. Connections are compared by value.
type ShapeConnection struct {
	ConnectorShape *Shape
	GluePointID    ControlPointID
	TargetShape    *Shape
	TargetPointID  ControlPointID
}

func (c ShapeConnection) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d", shapeKey(c.ConnectorShape), c.GluePointID, shapeKey(c.TargetShape), c.TargetPointID)
}

func shapeKey(s *Shape) string {
	if s == nil {
		return "<nil>"
	}
	if s.Identity() == NoID {
		return fmt.Sprintf("%s@%p", s.TypeName(), s)
	}
	return string(s.Identity())
}

// Vertex is a point of a line shape.
type Vertex struct {
	PointID ControlPointID
	X       int32
	Y       int32
}

// ShapeFields is the schema shared by all shape types.
var ShapeFields = []FieldInfo{
	Ref("Template", CategoryTemplate),
	Ref("ModelObject", CategoryModelObject),
	Field("X", FieldInt32),
	Field("Y", FieldInt32),
	Field("ZOrder", FieldInt32),
	Field("Layers", FieldInt32),
	Field("Angle", FieldFloat),
	Field("Width", FieldInt32),
	Field("Height", FieldInt32),
	Ref("FillStyle", CategoryStyle),
	Ref("LineStyle", CategoryStyle),
	Ref("CharacterStyle", CategoryStyle),
	Ref("ParagraphStyle", CategoryStyle),
	Field("Text", FieldString),
	InnerObjects("Vertices",
		Field("PointId", FieldInt32),
		Field("X", FieldInt32),
		Field("Y", FieldInt32),
	),
}

// Shape is a diagram or template element. Shapes form trees through their
// child lists; top-level shapes belong to a diagram or a template.
type Shape struct {
	entity
	typeName string

	Template    *Template
	ModelObject *ModelObject

	X      int32
	Y      int32
	ZOrder int32
	Layers int32
	Angle  float32
	Width  int32
	Height int32

	FillStyle      *FillStyle
	LineStyle      *LineStyle
	CharacterStyle *CharacterStyle
	ParagraphStyle *ParagraphStyle
	Text           string
	Vertices       []Vertex

	gluePoints  []ControlPointID
	parent      *Shape
	diagram     *Diagram
	children    []*Shape
	connections []ConnectionInfo
}

// NewShape returns an unidentified shape of the given logical type whose
// listed control points can be glued to other shapes.
func NewShape(typeName string, gluePoints ...ControlPointID) *Shape {
	return &Shape{typeName: typeName, gluePoints: gluePoints}
}

func (s *Shape) Category() Category { return CategoryShape }
func (s *Shape) TypeName() string   { return s.typeName }

// Parent returns the shape's parent, nil for top-level shapes.
func (s *Shape) Parent() *Shape {
	return s.parent
}

// Diagram returns the diagram displaying the shape's tree, nil for template
// shapes and shapes not yet added to a diagram.
func (s *Shape) Diagram() *Diagram {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	return root.diagram
}

// Children returns the direct children in insertion order.
func (s *Shape) Children() []*Shape {
	out := make([]*Shape, len(s.children))
	copy(out, s.children)
	return out
}

// AddChild makes c a child of s.
func (s *Shape) AddChild(c *Shape) {
	if c.parent == s {
		return
	}
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
	if c.diagram != nil {
		c.diagram.RemoveShape(c)
	}
	c.parent = s
	s.children = append(s.children, c)
}

// RemoveChild detaches c and reports whether it was a child of s.
func (s *Shape) RemoveChild(c *Shape) bool {
	for i, child := range s.children {
		if child == c {
			s.children = append(s.children[:i], s.children[i+1:]...)
			c.parent = nil
			return true
		}
	}
	return false
}

// Walk calls fn for s and all its descendants, parents before children.
func (s *Shape) Walk(fn func(*Shape)) {
	fn(s)
	for _, c := range s.children {
		c.Walk(fn)
	}
}

// GluePoints returns the control points that can be glued to other shapes.
func (s *Shape) GluePoints() []ControlPointID {
	out := make([]ControlPointID, len(s.gluePoints))
	copy(out, s.gluePoints)
	return out
}

// IsGluePoint reports whether the point has glue capability.
func (s *Shape) IsGluePoint(id ControlPointID) bool {
	for _, p := range s.gluePoints {
		if p == id {
			return true
		}
	}
	return false
}

// Connections returns the connections attached to s, both those where s is
// the connector and those where s is the target.
func (s *Shape) Connections() []ConnectionInfo {
	out := make([]ConnectionInfo, len(s.connections))
	copy(out, s.connections)
	return out
}

// Connect glues the glue point of s to the target point of target. An
// existing connection of the glue point is replaced.
func (s *Shape) Connect(gluePointID ControlPointID, target *Shape, targetPointID ControlPointID) (ShapeConnection, error) {
	if target == nil {
		return ShapeConnection{}, errors.NewValidationError("target", "must not be nil")
	}
	if !s.IsGluePoint(gluePointID) {
		return ShapeConnection{}, errors.NewValidationError("gluePointID", fmt.Sprintf("point %d of %s has no glue capability", gluePointID, s.typeName))
	}
	s.Disconnect(gluePointID)
	s.connections = append(s.connections, ConnectionInfo{OwnPointID: gluePointID, OtherShape: target, OtherPointID: targetPointID})
	target.connections = append(target.connections, ConnectionInfo{OwnPointID: targetPointID, OtherShape: s, OtherPointID: gluePointID})
	return ShapeConnection{ConnectorShape: s, GluePointID: gluePointID, TargetShape: target, TargetPointID: targetPointID}, nil
}

// Disconnect releases the glue point and returns the released connection.
func (s *Shape) Disconnect(gluePointID ControlPointID) (ShapeConnection, bool) {
	for i, ci := range s.connections {
		if ci.OwnPointID != gluePointID || !s.IsGluePoint(gluePointID) {
			continue
		}
		s.connections = append(s.connections[:i], s.connections[i+1:]...)
		other := ci.OtherShape
		for j, back := range other.connections {
			if back.OtherShape == s && back.OwnPointID == ci.OtherPointID && back.OtherPointID == gluePointID {
				other.connections = append(other.connections[:j], other.connections[j+1:]...)
				break
			}
		}
		return ShapeConnection{ConnectorShape: s, GluePointID: gluePointID, TargetShape: other, TargetPointID: ci.OtherPointID}, true
	}
	return ShapeConnection{}, false
}

func (s *Shape) SaveFields(w Writer, version int) error {
	if err := w.WriteTemplate(s.Template); err != nil {
		return err
	}
	if err := w.WriteModelObject(s.ModelObject); err != nil {
		return err
	}
	for _, v := range []int32{s.X, s.Y, s.ZOrder, s.Layers} {
		if err := w.WriteInt32(v); err != nil {
			return err
		}
	}
	if err := w.WriteFloat(s.Angle); err != nil {
		return err
	}
	if err := w.WriteInt32(s.Width); err != nil {
		return err
	}
	if err := w.WriteInt32(s.Height); err != nil {
		return err
	}
	if err := w.WriteFillStyle(s.FillStyle); err != nil {
		return err
	}
	if err := w.WriteLineStyle(s.LineStyle); err != nil {
		return err
	}
	if err := w.WriteCharacterStyle(s.CharacterStyle); err != nil {
		return err
	}
	if err := w.WriteParagraphStyle(s.ParagraphStyle); err != nil {
		return err
	}
	return w.WriteString(s.Text)
}

func (s *Shape) LoadFields(r Reader, version int) error {
	var err error
	if s.Template, err = r.ReadTemplate(); err != nil {
		return err
	}
	if s.ModelObject, err = r.ReadModelObject(); err != nil {
		return err
	}
	for _, dst := range []*int32{&s.X, &s.Y, &s.ZOrder, &s.Layers} {
		if *dst, err = r.ReadInt32(); err != nil {
			return err
		}
	}
	if s.Angle, err = r.ReadFloat(); err != nil {
		return err
	}
	if s.Width, err = r.ReadInt32(); err != nil {
		return err
	}
	if s.Height, err = r.ReadInt32(); err != nil {
		return err
	}
	if s.FillStyle, err = r.ReadFillStyle(); err != nil {
		return err
	}
	if s.LineStyle, err = r.ReadLineStyle(); err != nil {
		return err
	}
	if s.CharacterStyle, err = r.ReadCharacterStyle(); err != nil {
		return err
	}
	if s.ParagraphStyle, err = r.ReadParagraphStyle(); err != nil {
		return err
	}
	s.Text, err = r.ReadString()
	return err
}

func (s *Shape) SaveInnerObjects(name string, w Writer, version int) error {
	if name != "Vertices" {
		return errors.NewSchemaError(s.typeName, name, "unknown inner objects")
	}
	if err := w.BeginWriteInnerObjects(); err != nil {
		return err
	}
	for _, v := range s.Vertices {
		if err := w.BeginWriteInnerObject(); err != nil {
			return err
		}
		if err := w.WriteInt32(int32(v.PointID)); err != nil {
			return err
		}
		if err := w.WriteInt32(v.X); err != nil {
			return err
		}
		if err := w.WriteInt32(v.Y); err != nil {
			return err
		}
		if err := w.EndWriteInnerObject(); err != nil {
			return err
		}
	}
	return w.EndWriteInnerObjects()
}

func (s *Shape) LoadInnerObjects(name string, r Reader, version int) error {
	if name != "Vertices" {
		return errors.NewSchemaError(s.typeName, name, "unknown inner objects")
	}
	if err := r.BeginReadInnerObjects(); err != nil {
		return err
	}
	s.Vertices = s.Vertices[:0]
	for {
		ok, err := r.BeginReadInnerObject()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		var v Vertex
		id, err := r.ReadInt32()
		if err != nil {
			return err
		}
		v.PointID = ControlPointID(id)
		if v.X, err = r.ReadInt32(); err != nil {
			return err
		}
		if v.Y, err = r.ReadInt32(); err != nil {
			return err
		}
		if err := r.EndReadInnerObject(); err != nil {
			return err
		}
		s.Vertices = append(s.Vertices, v)
	}
	return r.EndReadInnerObjects()
}
