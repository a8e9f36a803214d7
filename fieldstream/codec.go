/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fieldstream

import (
	"fmt"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/registry"
	"github.com/suparena/entitycache/storagemodels"
)

// Encode writes the fields and inner objects of e into a record. Ownership
// columns are left to the caller.
func Encode(et *registry.EntityType, e model.Entity, version int) (*storagemodels.Record, error) {
	w := NewRecordWriter(et)
	if err := e.SaveFields(w, version); err != nil {
		return nil, err
	}
	if w.index != w.scalarCount() {
		return nil, errors.NewSchemaError(et.Name, "",
			fmt.Sprintf("wrote %d of %d fields", w.index, w.scalarCount()))
	}
	for _, group := range et.InnerFields() {
		if err := e.SaveInnerObjects(group.Name, w, version); err != nil {
			return nil, err
		}
	}
	if err := w.complete("entity"); err != nil {
		return nil, err
	}
	return &storagemodels.Record{
		ID:          string(e.Identity()),
		Category:    string(e.Category()),
		ElementName: et.ElementName,
		Fields:      w.values,
		Inner:       w.inner,
	}, nil
}

// Decode creates an entity of type et from rec, resolving reference fields
// through resolver, and assigns it the record's identity.
func Decode(et *registry.EntityType, rec *storagemodels.Record, resolver Resolver, version int) (model.Entity, error) {
	if rec.ElementName != "" && rec.ElementName != et.ElementName {
		return nil, errors.NewSchemaError(et.Name, "",
			fmt.Sprintf("record %s holds element %s", rec.ID, rec.ElementName))
	}
	e := et.Create()
	r := NewRecordReader(et, rec.Fields, rec.Inner, resolver)
	if err := e.LoadFields(r, version); err != nil {
		return nil, err
	}
	for i, f := range et.Fields {
		if f.Type != model.FieldInnerObjects {
			continue
		}
		r.seek(i)
		if err := e.LoadInnerObjects(f.Name, r, version); err != nil {
			return nil, err
		}
	}
	if err := e.AssignID(model.ID(rec.ID)); err != nil {
		return nil, err
	}
	return e, nil
}
