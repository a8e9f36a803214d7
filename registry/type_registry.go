/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
)

// CreateFunc returns a new, unidentified instance of a registered entity type.
type CreateFunc func() model.Entity

// Field is a registered schema field with its derived element name.
type Field struct {
	Name        string
	ElementName string
	Type        model.FieldType
	Target      model.Category
	Inner       []Field
}

// EntityType describes a registered entity type.
type EntityType struct {
	Name        string
	ElementName string
	Category    model.Category
	Create      CreateFunc
	Fields      []Field
}

// NewEntityType builds an unregistered type descriptor from a schema.
// Element names are derived on registration.
func NewEntityType(name string, category model.Category, create CreateFunc, fields []model.FieldInfo) *EntityType {
	return &EntityType{
		Name:     name,
		Category: category,
		Create:   create,
		Fields:   convertFields(fields),
	}
}

func convertFields(infos []model.FieldInfo) []Field {
	fields := make([]Field, len(infos))
	for i, fi := range infos {
		fields[i] = Field{Name: fi.Name, Type: fi.Type, Target: fi.Target}
		if len(fi.Inner) > 0 {
			fields[i].Inner = convertFields(fi.Inner)
		}
	}
	return fields
}

// InnerFields returns the inner object groups of the type in schema order.
func (t *EntityType) InnerFields() []Field {
	var out []Field
	for _, f := range t.Fields {
		if f.Type == model.FieldInnerObjects {
			out = append(out, f)
		}
	}
	return out
}

// ElementName derives the stable element name of a logical type or field
// name: known namespace prefixes are stripped, separators and angle brackets
// become underscores and CamelCase becomes snake_case.
func ElementName(name string) string {
	switch {
	case strings.HasPrefix(name, "Core."):
		name = name[5:]
	case strings.HasPrefix(name, "GeneralShapes."):
		name = name[14:]
	}
	name = strings.NewReplacer(" ", "_", "/", "_", "<", "_", ">", "_").Replace(name)

	var b strings.Builder
	b.Grow(len(name) + 4)
	last := rune(0)
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 && last != '_' {
				b.WriteRune('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
		last = r
	}
	return strings.TrimRight(b.String(), "_")
}

// Registry maps logical type names and element names to entity types.
// It is populated during initialization and read-only afterwards.
type Registry struct {
	byName    map[string]*EntityType
	byElement map[string]*EntityType
	order     []*EntityType
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byName:    make(map[string]*EntityType),
		byElement: make(map[string]*EntityType),
	}
}

// Register derives the element names of t and its fields and adds it.
// It fails if the logical name already exists (case-insensitively) or the
// element name collides with another registered type.
func (r *Registry) Register(t *EntityType) error {
	if t == nil || t.Name == "" {
		return errors.NewValidationError("entityType", "name must not be empty")
	}
	if t.Create == nil {
		return errors.NewValidationError("entityType", fmt.Sprintf("%s has no create function", t.Name))
	}
	key := strings.ToLower(t.Name)
	if _, exists := r.byName[key]; exists {
		return errors.NewAlreadyExistsError("entity type", t.Name)
	}
	elementName := ElementName(t.Name)
	if other, exists := r.byElement[elementName]; exists {
		return errors.NewAlreadyExistsError("element name", fmt.Sprintf("%s (used by %s)", elementName, other.Name))
	}
	fields, err := deriveFields(t.Name, t.Fields, false)
	if err != nil {
		return err
	}
	t.ElementName = elementName
	t.Fields = fields
	r.byName[key] = t
	r.byElement[elementName] = t
	r.order = append(r.order, t)
	return nil
}

func deriveFields(typeName string, fields []Field, inner bool) ([]Field, error) {
	out := make([]Field, len(fields))
	seen := make(map[string]bool, len(fields))
	scalarsDone := false
	for i, f := range fields {
		f.ElementName = ElementName(f.Name)
		if seen[f.ElementName] {
			return nil, errors.NewSchemaError(typeName, f.Name, "duplicate element name "+f.ElementName)
		}
		seen[f.ElementName] = true
		switch {
		case f.Type == model.FieldInnerObjects && inner:
			return nil, errors.NewSchemaError(typeName, f.Name, "inner objects cannot be nested")
		case f.Type == model.FieldInnerObjects:
			scalarsDone = true
			children, err := deriveFields(typeName, f.Inner, true)
			if err != nil {
				return nil, err
			}
			f.Inner = children
		case scalarsDone:
			return nil, errors.NewSchemaError(typeName, f.Name, "scalar field declared after inner objects")
		}
		out[i] = f
	}
	return out, nil
}

// Unregister removes the named type. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	key := strings.ToLower(name)
	t, ok := r.byName[key]
	if !ok {
		return
	}
	delete(r.byName, key)
	delete(r.byElement, t.ElementName)
	for i, registered := range r.order {
		if registered == t {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Clear removes all registered types.
func (r *Registry) Clear() {
	r.byName = make(map[string]*EntityType)
	r.byElement = make(map[string]*EntityType)
	r.order = nil
}

// ByName returns the type registered under the logical name.
func (r *Registry) ByName(name string) (*EntityType, error) {
	if t, ok := r.byName[strings.ToLower(name)]; ok {
		return t, nil
	}
	return nil, errors.NewNotFoundError("entity type", name)
}

// ByElementName returns the type registered under the element name.
func (r *Registry) ByElementName(elementName string) (*EntityType, error) {
	if t, ok := r.byElement[elementName]; ok {
		return t, nil
	}
	return nil, errors.NewNotFoundError("element", elementName)
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []*EntityType {
	out := make([]*EntityType, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.order)
}
