/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

const (
	TemplateTypeName            = "Core.Template"
	NumericModelMappingTypeName = "Core.NumericModelMapping"
	FormatModelMappingTypeName  = "Core.FormatModelMapping"
	StyleModelMappingTypeName   = "Core.StyleModelMapping"
)

// TemplateFields is the schema of Template.
var TemplateFields = []FieldInfo{
	Field("Name", FieldString),
	Field("Title", FieldString),
	Field("Description", FieldString),
}

// Template is a reusable shape prototype. It owns exactly one shape, the
// shape's model object and the template's model mappings.
type Template struct {
	entity
	Name        string
	Title       string
	Description string
	Shape       *Shape
	mappings    []*ModelMapping
}

// NewTemplate returns an unidentified template built around shape.
func NewTemplate(name string, shape *Shape) *Template {
	return &Template{Name: name, Shape: shape}
}

func (t *Template) Category() Category { return CategoryTemplate }
func (t *Template) TypeName() string   { return TemplateTypeName }

// ModelMappings returns the template's mappings in insertion order.
func (t *Template) ModelMappings() []*ModelMapping {
	out := make([]*ModelMapping, len(t.mappings))
	copy(out, t.mappings)
	return out
}

// AddModelMapping appends m unless the template already holds it.
func (t *Template) AddModelMapping(m *ModelMapping) {
	for _, existing := range t.mappings {
		if existing == m {
			return
		}
	}
	t.mappings = append(t.mappings, m)
}

// RemoveModelMapping detaches m and reports whether it was present.
func (t *Template) RemoveModelMapping(m *ModelMapping) bool {
	for i, existing := range t.mappings {
		if existing == m {
			t.mappings = append(t.mappings[:i], t.mappings[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Template) SaveFields(w Writer, version int) error {
	if err := w.WriteString(t.Name); err != nil {
		return err
	}
	if err := w.WriteString(t.Title); err != nil {
		return err
	}
	return w.WriteString(t.Description)
}

func (t *Template) LoadFields(r Reader, version int) error {
	var err error
	if t.Name, err = r.ReadString(); err != nil {
		return err
	}
	if t.Title, err = r.ReadString(); err != nil {
		return err
	}
	t.Description, err = r.ReadString()
	return err
}

// ModelMappingFields is the schema shared by the model mapping types.
var ModelMappingFields = []FieldInfo{
	Field("ShapePropertyId", FieldInt32),
	Field("ModelPropertyId", FieldInt32),
	Field("Intercept", FieldDouble),
	Field("Slope", FieldDouble),
	Field("Format", FieldString),
	Ref("DefaultStyle", CategoryStyle),
}

// ModelMapping maps a model object property onto a shape property of the
// owning template's shape.
type ModelMapping struct {
	entity
	typeName        string
	ShapePropertyID int32
	ModelPropertyID int32
	Intercept       float64
	Slope           float64
	Format          string
	DefaultStyle    *FillStyle
}

// NewModelMapping returns an unidentified mapping of the given logical type.
func NewModelMapping(typeName string, shapePropertyID, modelPropertyID int32) *ModelMapping {
	return &ModelMapping{typeName: typeName, ShapePropertyID: shapePropertyID, ModelPropertyID: modelPropertyID, Slope: 1}
}

func (m *ModelMapping) Category() Category { return CategoryModelMapping }
func (m *ModelMapping) TypeName() string   { return m.typeName }

func (m *ModelMapping) SaveFields(w Writer, version int) error {
	if err := w.WriteInt32(m.ShapePropertyID); err != nil {
		return err
	}
	if err := w.WriteInt32(m.ModelPropertyID); err != nil {
		return err
	}
	if err := w.WriteDouble(m.Intercept); err != nil {
		return err
	}
	if err := w.WriteDouble(m.Slope); err != nil {
		return err
	}
	if err := w.WriteString(m.Format); err != nil {
		return err
	}
	return w.WriteFillStyle(m.DefaultStyle)
}

func (m *ModelMapping) LoadFields(r Reader, version int) error {
	var err error
	if m.ShapePropertyID, err = r.ReadInt32(); err != nil {
		return err
	}
	if m.ModelPropertyID, err = r.ReadInt32(); err != nil {
		return err
	}
	if m.Intercept, err = r.ReadDouble(); err != nil {
		return err
	}
	if m.Slope, err = r.ReadDouble(); err != nil {
		return err
	}
	if m.Format, err = r.ReadString(); err != nil {
		return err
	}
	m.DefaultStyle, err = r.ReadFillStyle()
	return err
}
