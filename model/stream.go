/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"github.com/go-openapi/strfmt"
)

// FieldType is the wire type of a single field in an entity's schema.
type FieldType int

const (
	FieldBool FieldType = iota + 1
	FieldByte
	FieldInt16
	FieldInt32
	FieldInt64
	FieldFloat
	FieldDouble
	FieldChar
	FieldString
	FieldDate
	FieldImage
	FieldReference
	FieldInnerObjects
)

var fieldTypeNames = map[FieldType]string{
	FieldBool:         "bool",
	FieldByte:         "byte",
	FieldInt16:        "int16",
	FieldInt32:        "int32",
	FieldInt64:        "int64",
	FieldFloat:        "float",
	FieldDouble:       "double",
	FieldChar:         "char",
	FieldString:       "string",
	FieldDate:         "date",
	FieldImage:        "image",
	FieldReference:    "reference",
	FieldInnerObjects: "inner objects",
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// FieldInfo declares one field of an entity kind. Fields are read and written
// in declaration order; inner object groups must come after all scalar fields.
type FieldInfo struct {
	Name string
	Type FieldType
	// Target is the category a reference field points to.
	Target Category
	// Inner declares the fields of each item of an inner object group.
	Inner []FieldInfo
}

// Field declares a scalar field.
func Field(name string, t FieldType) FieldInfo {
	return FieldInfo{Name: name, Type: t}
}

// Ref declares a reference field pointing to an entity of the given category.
func Ref(name string, target Category) FieldInfo {
	return FieldInfo{Name: name, Type: FieldReference, Target: target}
}

// InnerObjects declares a group of repeated composite items.
func InnerObjects(name string, fields ...FieldInfo) FieldInfo {
	return FieldInfo{Name: name, Type: FieldInnerObjects, Inner: fields}
}

// NamedImage is an image field value.
type NamedImage struct {
	Name string
	Data []byte
}

// Writer receives an entity's fields in schema order. Reference writes store
// only the referenced entity's identity.
type Writer interface {
	WriteBool(v bool) error
	WriteByte(v byte) error
	WriteInt16(v int16) error
	WriteInt32(v int32) error
	WriteInt64(v int64) error
	WriteFloat(v float32) error
	WriteDouble(v float64) error
	WriteChar(v rune) error
	WriteString(v string) error
	WriteDate(v strfmt.DateTime) error
	WriteImage(v *NamedImage) error

	WriteTemplate(t *Template) error
	WriteShape(s *Shape) error
	WriteModelObject(o *ModelObject) error
	WriteDesign(d *Design) error
	WriteColorStyle(s *ColorStyle) error
	WriteCapStyle(s *CapStyle) error
	WriteCharacterStyle(s *CharacterStyle) error
	WriteFillStyle(s *FillStyle) error
	WriteLineStyle(s *LineStyle) error
	WriteParagraphStyle(s *ParagraphStyle) error

	BeginWriteInnerObjects() error
	BeginWriteInnerObject() error
	EndWriteInnerObject() error
	EndWriteInnerObjects() error
}

// Reader delivers an entity's fields in schema order. Reference reads resolve
// the stored identity to the live entity.
type Reader interface {
	ReadBool() (bool, error)
	ReadByte() (byte, error)
	ReadInt16() (int16, error)
	ReadInt32() (int32, error)
	ReadInt64() (int64, error)
	ReadFloat() (float32, error)
	ReadDouble() (float64, error)
	ReadChar() (rune, error)
	ReadString() (string, error)
	ReadDate() (strfmt.DateTime, error)
	ReadImage() (*NamedImage, error)

	ReadTemplate() (*Template, error)
	ReadShape() (*Shape, error)
	ReadModelObject() (*ModelObject, error)
	ReadDesign() (*Design, error)
	ReadColorStyle() (*ColorStyle, error)
	ReadCapStyle() (*CapStyle, error)
	ReadCharacterStyle() (*CharacterStyle, error)
	ReadFillStyle() (*FillStyle, error)
	ReadLineStyle() (*LineStyle, error)
	ReadParagraphStyle() (*ParagraphStyle, error)

	BeginReadInnerObjects() error
	// BeginReadInnerObject advances to the next item and reports false when
	// the group is exhausted.
	BeginReadInnerObject() (bool, error)
	EndReadInnerObject() error
	EndReadInnerObjects() error
}
