/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

const GenericModelObjectTypeName = "Core.GenericModelObject"

// ModelObjectFields is the schema shared by model object types.
var ModelObjectFields = []FieldInfo{
	Field("Name", FieldString),
	Field("Text", FieldString),
	Field("IntegerValue", FieldInt32),
	Field("FloatValue", FieldDouble),
}

// ModelObject is a domain object presented by one or more shapes. Top-level
// model objects belong to the model, others to their parent model object or
// to a template.
type ModelObject struct {
	entity
	typeName     string
	Name         string
	Text         string
	IntegerValue int32
	FloatValue   float64
	Parent       *ModelObject
}

// NewModelObject returns an unidentified model object of the given type.
func NewModelObject(typeName, name string) *ModelObject {
	return &ModelObject{typeName: typeName, Name: name}
}

func (o *ModelObject) Category() Category { return CategoryModelObject }
func (o *ModelObject) TypeName() string   { return o.typeName }

func (o *ModelObject) SaveFields(w Writer, version int) error {
	if err := w.WriteString(o.Name); err != nil {
		return err
	}
	if err := w.WriteString(o.Text); err != nil {
		return err
	}
	if err := w.WriteInt32(o.IntegerValue); err != nil {
		return err
	}
	return w.WriteDouble(o.FloatValue)
}

func (o *ModelObject) LoadFields(r Reader, version int) error {
	var err error
	if o.Name, err = r.ReadString(); err != nil {
		return err
	}
	if o.Text, err = r.ReadString(); err != nil {
		return err
	}
	if o.IntegerValue, err = r.ReadInt32(); err != nil {
		return err
	}
	o.FloatValue, err = r.ReadDouble()
	return err
}
