/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"github.com/suparena/entitycache/errors"
)

const DiagramTypeName = "Core.Diagram"

// DiagramFields is the schema of Diagram.
var DiagramFields = []FieldInfo{
	Field("Name", FieldString),
	Field("Title", FieldString),
	Field("Width", FieldInt32),
	Field("Height", FieldInt32),
	Field("BackgroundColor", FieldInt32),
	Field("BackgroundImage", FieldImage),
	Field("BackgroundImageLayout", FieldByte),
	InnerObjects("Layers",
		Field("Id", FieldInt32),
		Field("Name", FieldString),
		Field("Title", FieldString),
		Field("LowerZoomThreshold", FieldInt32),
		Field("UpperZoomThreshold", FieldInt32),
	),
}

// Layer groups shapes of a diagram for visibility control.
type Layer struct {
	ID                 int32
	Name               string
	Title              string
	LowerZoomThreshold int32
	UpperZoomThreshold int32
}

// Diagram is a drawing surface holding a list of top-level shapes.
type Diagram struct {
	entity
	Name                  string
	Title                 string
	Width                 int32
	Height                int32
	BackgroundColor       int32
	BackgroundImage       *NamedImage
	BackgroundImageLayout byte
	Layers                []Layer
	shapes                []*Shape
}

// NewDiagram returns an unidentified, empty diagram.
func NewDiagram(name string) *Diagram {
	return &Diagram{Name: name, Width: 1000, Height: 1000}
}

func (d *Diagram) Category() Category { return CategoryDiagram }
func (d *Diagram) TypeName() string   { return DiagramTypeName }

// Shapes returns the top-level shapes in insertion order.
func (d *Diagram) Shapes() []*Shape {
	out := make([]*Shape, len(d.shapes))
	copy(out, d.shapes)
	return out
}

// AddShape makes s a top-level shape of the diagram.
func (d *Diagram) AddShape(s *Shape) {
	if s.diagram == d {
		return
	}
	if s.parent != nil {
		s.parent.RemoveChild(s)
	}
	if s.diagram != nil {
		s.diagram.RemoveShape(s)
	}
	s.diagram = d
	d.shapes = append(d.shapes, s)
}

// RemoveShape detaches a top-level shape and reports whether it was present.
func (d *Diagram) RemoveShape(s *Shape) bool {
	for i, shape := range d.shapes {
		if shape == s {
			d.shapes = append(d.shapes[:i], d.shapes[i+1:]...)
			s.diagram = nil
			return true
		}
	}
	return false
}

func (d *Diagram) SaveFields(w Writer, version int) error {
	if err := w.WriteString(d.Name); err != nil {
		return err
	}
	if err := w.WriteString(d.Title); err != nil {
		return err
	}
	if err := w.WriteInt32(d.Width); err != nil {
		return err
	}
	if err := w.WriteInt32(d.Height); err != nil {
		return err
	}
	if err := w.WriteInt32(d.BackgroundColor); err != nil {
		return err
	}
	if err := w.WriteImage(d.BackgroundImage); err != nil {
		return err
	}
	return w.WriteByte(d.BackgroundImageLayout)
}

func (d *Diagram) LoadFields(r Reader, version int) error {
	var err error
	if d.Name, err = r.ReadString(); err != nil {
		return err
	}
	if d.Title, err = r.ReadString(); err != nil {
		return err
	}
	if d.Width, err = r.ReadInt32(); err != nil {
		return err
	}
	if d.Height, err = r.ReadInt32(); err != nil {
		return err
	}
	if d.BackgroundColor, err = r.ReadInt32(); err != nil {
		return err
	}
	if d.BackgroundImage, err = r.ReadImage(); err != nil {
		return err
	}
	d.BackgroundImageLayout, err = r.ReadByte()
	return err
}

func (d *Diagram) SaveInnerObjects(name string, w Writer, version int) error {
	if name != "Layers" {
		return errors.NewSchemaError(d.TypeName(), name, "unknown inner objects")
	}
	if err := w.BeginWriteInnerObjects(); err != nil {
		return err
	}
	for _, l := range d.Layers {
		if err := w.BeginWriteInnerObject(); err != nil {
			return err
		}
		if err := w.WriteInt32(l.ID); err != nil {
			return err
		}
		if err := w.WriteString(l.Name); err != nil {
			return err
		}
		if err := w.WriteString(l.Title); err != nil {
			return err
		}
		if err := w.WriteInt32(l.LowerZoomThreshold); err != nil {
			return err
		}
		if err := w.WriteInt32(l.UpperZoomThreshold); err != nil {
			return err
		}
		if err := w.EndWriteInnerObject(); err != nil {
			return err
		}
	}
	return w.EndWriteInnerObjects()
}

func (d *Diagram) LoadInnerObjects(name string, r Reader, version int) error {
	if name != "Layers" {
		return errors.NewSchemaError(d.TypeName(), name, "unknown inner objects")
	}
	if err := r.BeginReadInnerObjects(); err != nil {
		return err
	}
	d.Layers = d.Layers[:0]
	for {
		ok, err := r.BeginReadInnerObject()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		var l Layer
		if l.ID, err = r.ReadInt32(); err != nil {
			return err
		}
		if l.Name, err = r.ReadString(); err != nil {
			return err
		}
		if l.Title, err = r.ReadString(); err != nil {
			return err
		}
		if l.LowerZoomThreshold, err = r.ReadInt32(); err != nil {
			return err
		}
		if l.UpperZoomThreshold, err = r.ReadInt32(); err != nil {
			return err
		}
		if err := r.EndReadInnerObject(); err != nil {
			return err
		}
		d.Layers = append(d.Layers, l)
	}
	return r.EndReadInnerObjects()
}
