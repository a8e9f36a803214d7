/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fieldstream

import (
	"fmt"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/registry"
)

// cursor walks the fields of a schema in declaration order.
type cursor struct {
	typeName string
	fields   []registry.Field
	index    int
}

func (c *cursor) fieldName() string {
	if c.index < len(c.fields) {
		return c.fields[c.index].Name
	}
	return ""
}

// current returns the field at the cursor after checking its type.
func (c *cursor) current(t model.FieldType, target model.Category) (*registry.Field, error) {
	if c.index >= len(c.fields) {
		return nil, errors.NewSchemaError(c.typeName, "",
			fmt.Sprintf("field %d accessed but the schema declares %d", c.index+1, len(c.fields)))
	}
	f := &c.fields[c.index]
	if f.Type != t {
		return nil, errors.NewSchemaError(c.typeName, f.Name,
			fmt.Sprintf("declared as %s, accessed as %s", f.Type, t))
	}
	if t == model.FieldReference && target != "" && f.Target != "" && f.Target != target {
		return nil, errors.NewSchemaError(c.typeName, f.Name,
			fmt.Sprintf("references %s, accessed as %s", f.Target, target))
	}
	return f, nil
}

// next returns the field at the cursor and advances.
func (c *cursor) next(t model.FieldType, target model.Category) (*registry.Field, error) {
	f, err := c.current(t, target)
	if err != nil {
		return nil, err
	}
	c.index++
	return f, nil
}

// scalarCount returns the number of fields before the first inner group.
func (c *cursor) scalarCount() int {
	for i, f := range c.fields {
		if f.Type == model.FieldInnerObjects {
			return i
		}
	}
	return len(c.fields)
}

func (c *cursor) complete(what string) error {
	if c.index != len(c.fields) {
		return errors.NewSchemaError(c.typeName, "",
			fmt.Sprintf("%s accessed %d of %d fields", what, c.index, len(c.fields)))
	}
	return nil
}
