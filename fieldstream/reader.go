/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fieldstream

import (
	"fmt"
	"math"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/registry"
)

// Resolver turns stored identities into live entities while reading
// reference fields.
type Resolver interface {
	Template(id model.ID) (*model.Template, error)
	Shape(id model.ID) (*model.Shape, error)
	ModelObject(id model.ID) (*model.ModelObject, error)
	Design(id model.ID) (*model.Design, error)
	Style(id model.ID) (model.Style, error)
}

// RecordReader delivers stored canonical values to an entity in schema
// order. Fields missing from the record read as zero values.
type RecordReader struct {
	cursor
	values   map[string]any
	inner    map[string][]map[string]any
	resolver Resolver

	group *registry.Field
	items []map[string]any
	pos   int
	item  *RecordReader
}

var _ model.Reader = (*RecordReader)(nil)

// NewRecordReader returns a reader over the stored values of an entity of
// the given type.
func NewRecordReader(et *registry.EntityType, values map[string]any, inner map[string][]map[string]any, resolver Resolver) *RecordReader {
	r := newReader(et.Name, et.Fields, values, resolver)
	r.inner = inner
	return r
}

func newReader(typeName string, fields []registry.Field, values map[string]any, resolver Resolver) *RecordReader {
	return &RecordReader{
		cursor:   cursor{typeName: typeName, fields: fields},
		values:   values,
		resolver: resolver,
	}
}

func (r *RecordReader) active() *RecordReader {
	if r.item != nil {
		return r.item
	}
	return r
}

func (r *RecordReader) get(t model.FieldType, target model.Category) (any, *registry.Field, error) {
	if r.item != nil {
		return r.item.get(t, target)
	}
	if r.group != nil {
		return nil, nil, errors.NewSchemaError(r.typeName, r.group.Name, "field read outside of an inner object")
	}
	f, err := r.next(t, target)
	if err != nil {
		return nil, nil, err
	}
	return r.values[f.ElementName], f, nil
}

func (r *RecordReader) invalid(f *registry.Field, err error) error {
	return errors.NewSchemaError(r.active().typeName, f.Name, err.Error())
}

func (r *RecordReader) readInteger(t model.FieldType, min, max int64) (int64, error) {
	v, f, err := r.get(t, "")
	if err != nil {
		return 0, err
	}
	n, err := toInteger(v, min, max)
	if err != nil {
		return 0, r.invalid(f, err)
	}
	return n, nil
}

// ReadBool reads a boolean field.
func (r *RecordReader) ReadBool() (bool, error) {
	v, f, err := r.get(model.FieldBool, "")
	if err != nil {
		return false, err
	}
	b, err := toBool(v)
	if err != nil {
		return false, r.invalid(f, err)
	}
	return b, nil
}

// ReadByte reads a byte field, rejecting stored values out of range.
func (r *RecordReader) ReadByte() (byte, error) {
	n, err := r.readInteger(model.FieldByte, 0, math.MaxUint8)
	return byte(n), err
}

// ReadInt16 reads a 16-bit integer field.
func (r *RecordReader) ReadInt16() (int16, error) {
	n, err := r.readInteger(model.FieldInt16, math.MinInt16, math.MaxInt16)
	return int16(n), err
}

// ReadInt32 reads a 32-bit integer field.
func (r *RecordReader) ReadInt32() (int32, error) {
	n, err := r.readInteger(model.FieldInt32, math.MinInt32, math.MaxInt32)
	return int32(n), err
}

// ReadInt64 reads a 64-bit integer field.
func (r *RecordReader) ReadInt64() (int64, error) {
	return r.readInteger(model.FieldInt64, math.MinInt64, math.MaxInt64)
}

func (r *RecordReader) readFloat(t model.FieldType) (float64, error) {
	v, f, err := r.get(t, "")
	if err != nil {
		return 0, err
	}
	n, err := toFloat64(v)
	if err != nil {
		return 0, r.invalid(f, err)
	}
	return n, nil
}

// ReadFloat reads a single precision field.
func (r *RecordReader) ReadFloat() (float32, error) {
	n, err := r.readFloat(model.FieldFloat)
	return float32(n), err
}

// ReadDouble reads a double precision field.
func (r *RecordReader) ReadDouble() (float64, error) {
	return r.readFloat(model.FieldDouble)
}

// ReadChar reads a character field.
func (r *RecordReader) ReadChar() (rune, error) {
	v, f, err := r.get(model.FieldChar, "")
	if err != nil {
		return 0, err
	}
	c, err := toChar(v)
	if err != nil {
		return 0, r.invalid(f, err)
	}
	return c, nil
}

// ReadString reads a string field.
func (r *RecordReader) ReadString() (string, error) {
	v, f, err := r.get(model.FieldString, "")
	if err != nil {
		return "", err
	}
	s, err := toString(v)
	if err != nil {
		return "", r.invalid(f, err)
	}
	return s, nil
}

// ReadDate reads a date-time field.
func (r *RecordReader) ReadDate() (strfmt.DateTime, error) {
	v, f, err := r.get(model.FieldDate, "")
	if err != nil {
		return strfmt.DateTime{}, err
	}
	d, err := toDate(v)
	if err != nil {
		return strfmt.DateTime{}, r.invalid(f, err)
	}
	return d, nil
}

// ReadImage reads an image field.
func (r *RecordReader) ReadImage() (*model.NamedImage, error) {
	v, f, err := r.get(model.FieldImage, "")
	if err != nil {
		return nil, err
	}
	img, err := toImage(v)
	if err != nil {
		return nil, r.invalid(f, err)
	}
	return img, nil
}

// readRef returns the stored identity of a reference field, NoID for an
// empty reference.
func (r *RecordReader) readRef(target model.Category) (model.ID, *registry.Field, error) {
	if r.resolver == nil {
		return model.NoID, nil, errors.NewSchemaError(r.typeName, r.active().fieldName(), "no resolver for reference fields")
	}
	v, f, err := r.get(model.FieldReference, target)
	if err != nil {
		return model.NoID, nil, err
	}
	id, err := toID(v)
	if err != nil {
		return model.NoID, nil, r.invalid(f, err)
	}
	return id, f, nil
}

// ReadTemplate resolves a template reference. An empty reference reads as nil.
func (r *RecordReader) ReadTemplate() (*model.Template, error) {
	id, _, err := r.readRef(model.CategoryTemplate)
	if err != nil || id == model.NoID {
		return nil, err
	}
	return r.resolver.Template(id)
}

// ReadShape resolves a shape reference.
func (r *RecordReader) ReadShape() (*model.Shape, error) {
	id, _, err := r.readRef(model.CategoryShape)
	if err != nil || id == model.NoID {
		return nil, err
	}
	return r.resolver.Shape(id)
}

// ReadModelObject resolves a model object reference.
func (r *RecordReader) ReadModelObject() (*model.ModelObject, error) {
	id, _, err := r.readRef(model.CategoryModelObject)
	if err != nil || id == model.NoID {
		return nil, err
	}
	return r.resolver.ModelObject(id)
}

// ReadDesign resolves a design reference.
func (r *RecordReader) ReadDesign() (*model.Design, error) {
	id, _, err := r.readRef(model.CategoryDesign)
	if err != nil || id == model.NoID {
		return nil, err
	}
	return r.resolver.Design(id)
}

func readStyle[S model.Style](r *RecordReader) (S, error) {
	var none S
	id, f, err := r.readRef(model.CategoryStyle)
	if err != nil || id == model.NoID {
		return none, err
	}
	style, err := r.resolver.Style(id)
	if err != nil {
		return none, err
	}
	typed, ok := style.(S)
	if !ok {
		return none, r.invalid(f, fmt.Errorf("style %s is a %s", id, style.TypeName()))
	}
	return typed, nil
}

// ReadColorStyle resolves a color style reference.
func (r *RecordReader) ReadColorStyle() (*model.ColorStyle, error) {
	return readStyle[*model.ColorStyle](r)
}

// ReadCapStyle resolves a cap style reference.
func (r *RecordReader) ReadCapStyle() (*model.CapStyle, error) {
	return readStyle[*model.CapStyle](r)
}

// ReadCharacterStyle resolves a character style reference.
func (r *RecordReader) ReadCharacterStyle() (*model.CharacterStyle, error) {
	return readStyle[*model.CharacterStyle](r)
}

// ReadFillStyle resolves a fill style reference.
func (r *RecordReader) ReadFillStyle() (*model.FillStyle, error) {
	return readStyle[*model.FillStyle](r)
}

// ReadLineStyle resolves a line style reference.
func (r *RecordReader) ReadLineStyle() (*model.LineStyle, error) {
	return readStyle[*model.LineStyle](r)
}

// ReadParagraphStyle resolves a paragraph style reference.
func (r *RecordReader) ReadParagraphStyle() (*model.ParagraphStyle, error) {
	return readStyle[*model.ParagraphStyle](r)
}

// BeginReadInnerObjects starts reading the inner object group at the cursor.
func (r *RecordReader) BeginReadInnerObjects() error {
	if r.group != nil {
		return errors.NewSchemaError(r.typeName, r.group.Name, "inner objects cannot be nested")
	}
	f, err := r.current(model.FieldInnerObjects, "")
	if err != nil {
		return err
	}
	r.group = f
	r.items = r.inner[f.ElementName]
	r.pos = 0
	return nil
}

// BeginReadInnerObject advances to the next item of the current group and
// reports false when the group is exhausted.
func (r *RecordReader) BeginReadInnerObject() (bool, error) {
	if r.group == nil {
		return false, errors.NewSchemaError(r.typeName, r.fieldName(), "inner object read outside of a group")
	}
	if r.item != nil {
		return false, errors.NewSchemaError(r.typeName, r.group.Name, "previous inner object not ended")
	}
	if r.pos >= len(r.items) {
		return false, nil
	}
	r.item = newReader(r.typeName, r.group.Inner, r.items[r.pos], r.resolver)
	r.pos++
	return true, nil
}

// EndReadInnerObject finishes the current item.
func (r *RecordReader) EndReadInnerObject() error {
	if r.item == nil {
		return errors.NewSchemaError(r.typeName, r.fieldName(), "no inner object to end")
	}
	r.item = nil
	return nil
}

// EndReadInnerObjects finishes the current group and advances the cursor.
func (r *RecordReader) EndReadInnerObjects() error {
	if r.group == nil {
		return errors.NewSchemaError(r.typeName, r.fieldName(), "no inner object group to end")
	}
	if r.item != nil {
		return errors.NewSchemaError(r.typeName, r.group.Name, "inner object not ended")
	}
	r.group = nil
	r.items = nil
	r.index++
	return nil
}

// seek moves the cursor to the field at index i.
func (r *RecordReader) seek(i int) {
	r.index = i
}
