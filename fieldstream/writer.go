/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fieldstream

import (
	"fmt"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/registry"
)

// RecordWriter collects an entity's fields into canonical values keyed by
// element name. Inner objects are delegated to a writer for the group's
// item schema.
type RecordWriter struct {
	cursor
	values map[string]any
	inner  map[string][]map[string]any

	group *registry.Field
	items []map[string]any
	item  *RecordWriter
}

var _ model.Writer = (*RecordWriter)(nil)

// NewRecordWriter returns a writer for entities of the given type.
func NewRecordWriter(et *registry.EntityType) *RecordWriter {
	return newWriter(et.Name, et.Fields)
}

func newWriter(typeName string, fields []registry.Field) *RecordWriter {
	return &RecordWriter{
		cursor: cursor{typeName: typeName, fields: fields},
		values: make(map[string]any, len(fields)),
	}
}

// Values returns the scalar values written so far.
func (w *RecordWriter) Values() map[string]any {
	return w.values
}

// InnerObjects returns the inner object groups written so far.
func (w *RecordWriter) InnerObjects() map[string][]map[string]any {
	return w.inner
}

func (w *RecordWriter) active() *RecordWriter {
	if w.item != nil {
		return w.item
	}
	return w
}

func (w *RecordWriter) put(t model.FieldType, target model.Category, v any) error {
	if w.item != nil {
		return w.item.put(t, target, v)
	}
	if w.group != nil {
		return errors.NewSchemaError(w.typeName, w.group.Name, "field written outside of an inner object")
	}
	f, err := w.next(t, target)
	if err != nil {
		return err
	}
	w.values[f.ElementName] = v
	return nil
}

func writeRef[E interface {
	comparable
	model.Entity
}](w *RecordWriter, target model.Category, e E) error {
	var none E
	if e == none {
		return w.put(model.FieldReference, target, "")
	}
	if e.Identity() == model.NoID {
		a := w.active()
		return errors.NewSchemaError(a.typeName, a.fieldName(),
			fmt.Sprintf("reference to unidentified %s", e.TypeName()))
	}
	return w.put(model.FieldReference, target, string(e.Identity()))
}

// WriteBool writes a boolean field.
func (w *RecordWriter) WriteBool(v bool) error { return w.put(model.FieldBool, "", v) }

// WriteByte writes a byte field.
func (w *RecordWriter) WriteByte(v byte) error { return w.put(model.FieldByte, "", int64(v)) }

// WriteInt16 writes a 16-bit integer field.
func (w *RecordWriter) WriteInt16(v int16) error { return w.put(model.FieldInt16, "", int64(v)) }

// WriteInt32 writes a 32-bit integer field.
func (w *RecordWriter) WriteInt32(v int32) error { return w.put(model.FieldInt32, "", int64(v)) }

// WriteInt64 writes a 64-bit integer field.
func (w *RecordWriter) WriteInt64(v int64) error { return w.put(model.FieldInt64, "", v) }

// WriteFloat writes a single precision field.
func (w *RecordWriter) WriteFloat(v float32) error {
	return w.put(model.FieldFloat, "", float64(v))
}

// WriteDouble writes a double precision field.
func (w *RecordWriter) WriteDouble(v float64) error {
	return w.put(model.FieldDouble, "", v)
}

// WriteChar writes a character field.
func (w *RecordWriter) WriteChar(v rune) error {
	return w.put(model.FieldChar, "", string(v))
}

// WriteString writes a string field.
func (w *RecordWriter) WriteString(v string) error {
	return w.put(model.FieldString, "", v)
}

// WriteDate writes a date-time field.
func (w *RecordWriter) WriteDate(v strfmt.DateTime) error {
	return w.put(model.FieldDate, "", v.String())
}

// WriteImage writes an image field.
func (w *RecordWriter) WriteImage(v *model.NamedImage) error {
	if v == nil {
		return w.put(model.FieldImage, "", nil)
	}
	return w.put(model.FieldImage, "", map[string]any{"name": v.Name, "data": v.Data})
}

// WriteTemplate writes the identity of t. t must have one unless it is nil.
func (w *RecordWriter) WriteTemplate(t *model.Template) error {
	return writeRef(w, model.CategoryTemplate, t)
}

// WriteShape writes the identity of s.
func (w *RecordWriter) WriteShape(s *model.Shape) error {
	return writeRef(w, model.CategoryShape, s)
}

// WriteModelObject writes the identity of o.
func (w *RecordWriter) WriteModelObject(o *model.ModelObject) error {
	return writeRef(w, model.CategoryModelObject, o)
}

// WriteDesign writes the identity of d.
func (w *RecordWriter) WriteDesign(d *model.Design) error {
	return writeRef(w, model.CategoryDesign, d)
}

// WriteColorStyle writes the identity of a color style.
func (w *RecordWriter) WriteColorStyle(s *model.ColorStyle) error {
	return writeRef(w, model.CategoryStyle, s)
}

// WriteCapStyle writes the identity of a cap style.
func (w *RecordWriter) WriteCapStyle(s *model.CapStyle) error {
	return writeRef(w, model.CategoryStyle, s)
}

// WriteCharacterStyle writes the identity of a character style.
func (w *RecordWriter) WriteCharacterStyle(s *model.CharacterStyle) error {
	return writeRef(w, model.CategoryStyle, s)
}

// WriteFillStyle writes the identity of a fill style.
func (w *RecordWriter) WriteFillStyle(s *model.FillStyle) error {
	return writeRef(w, model.CategoryStyle, s)
}

// WriteLineStyle writes the identity of a line style.
func (w *RecordWriter) WriteLineStyle(s *model.LineStyle) error {
	return writeRef(w, model.CategoryStyle, s)
}

// WriteParagraphStyle writes the identity of a paragraph style.
func (w *RecordWriter) WriteParagraphStyle(s *model.ParagraphStyle) error {
	return writeRef(w, model.CategoryStyle, s)
}

// BeginWriteInnerObjects starts the inner object group at the cursor.
func (w *RecordWriter) BeginWriteInnerObjects() error {
	if w.group != nil {
		return errors.NewSchemaError(w.typeName, w.group.Name, "inner objects cannot be nested")
	}
	f, err := w.current(model.FieldInnerObjects, "")
	if err != nil {
		return err
	}
	w.group = f
	w.items = make([]map[string]any, 0)
	return nil
}

// BeginWriteInnerObject starts the next item of the current group.
func (w *RecordWriter) BeginWriteInnerObject() error {
	if w.group == nil {
		return errors.NewSchemaError(w.typeName, w.fieldName(), "inner object written outside of a group")
	}
	if w.item != nil {
		return errors.NewSchemaError(w.typeName, w.group.Name, "previous inner object not ended")
	}
	w.item = newWriter(w.typeName, w.group.Inner)
	return nil
}

// EndWriteInnerObject finishes the current item. Every field of the item
// schema must have been written.
func (w *RecordWriter) EndWriteInnerObject() error {
	if w.item == nil {
		return errors.NewSchemaError(w.typeName, w.fieldName(), "no inner object to end")
	}
	if err := w.item.complete("inner object " + w.group.Name); err != nil {
		return err
	}
	w.items = append(w.items, w.item.values)
	w.item = nil
	return nil
}

// EndWriteInnerObjects finishes the current group and advances the cursor.
func (w *RecordWriter) EndWriteInnerObjects() error {
	if w.group == nil {
		return errors.NewSchemaError(w.typeName, w.fieldName(), "no inner object group to end")
	}
	if w.item != nil {
		return errors.NewSchemaError(w.typeName, w.group.Name, "inner object not ended")
	}
	if w.inner == nil {
		w.inner = make(map[string][]map[string]any)
	}
	w.inner[w.group.ElementName] = w.items
	w.items = nil
	w.group = nil
	w.index++
	return nil
}
