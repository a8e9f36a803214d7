/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"github.com/suparena/entitycache/errors"
)

// ID is the opaque identity a backing store assigns to an entity on its first
// commit. The zero value means the entity has no identity yet.
type ID string

// NoID is the identity of an entity that has never been committed.
const NoID ID = ""

// Category is the fixed domain kind an entity belongs to.
type Category string

const (
	CategoryProjectOwner    Category = "project_owner"
	CategoryProjectSettings Category = "project_settings"
	CategoryModel           Category = "model"
	CategoryDesign          Category = "design"
	CategoryStyle           Category = "style"
	CategoryDiagram         Category = "diagram"
	CategoryTemplate        Category = "template"
	CategoryShape           Category = "shape"
	CategoryModelObject     Category = "model_object"
	CategoryModelMapping    Category = "model_mapping"
)

// Categories lists the persistable categories in commit dependency order:
// every category appears after the categories its owners belong to.
var Categories = []Category{
	CategoryProjectSettings,
	CategoryModel,
	CategoryDesign,
	CategoryStyle,
	CategoryTemplate,
	CategoryModelObject,
	CategoryModelMapping,
	CategoryDiagram,
	CategoryShape,
}

// Entity is a domain object that can be persisted through the field stream.
type Entity interface {
	// Identity returns the entity's identity, NoID until the first commit.
	Identity() ID
	// AssignID sets the identity. It fails if an identity was already assigned.
	AssignID(id ID) error
	// Category returns the entity's domain kind.
	Category() Category
	// TypeName returns the logical type name the entity is registered under.
	TypeName() string

	LoadFields(r Reader, version int) error
	SaveFields(w Writer, version int) error
	LoadInnerObjects(name string, r Reader, version int) error
	SaveInnerObjects(name string, w Writer, version int) error
}

// entity carries the identity shared by all entity kinds.
type entity struct {
	id ID
}

func (e *entity) Identity() ID {
	return e.id
}

func (e *entity) AssignID(id ID) error {
	if e.id != NoID {
		return errors.NewLifecycleError("assign identity to", "entity", string(e.id), "identified")
	}
	if id == NoID {
		return errors.NewValidationError("id", "must not be empty")
	}
	e.id = id
	return nil
}

// LoadInnerObjects rejects every group; kinds with inner objects override it.
func (e *entity) LoadInnerObjects(name string, r Reader, version int) error {
	return errors.NewSchemaError("entity", name, "no inner objects declared")
}

// SaveInnerObjects rejects every group; kinds with inner objects override it.
func (e *entity) SaveInnerObjects(name string, w Writer, version int) error {
	return errors.NewSchemaError("entity", name, "no inner objects declared")
}

// ProjectOwner is the private sentinel that owns the project settings bucket.
// Its identity is set by the store when a project is created or opened.
type ProjectOwner struct {
	entity
}

// NewProjectOwner returns an unidentified project owner.
func NewProjectOwner() *ProjectOwner {
	return &ProjectOwner{}
}

// SetID replaces the owner's identity. Unlike AssignID it may be called again
// when the repository is reopened against another store.
func (o *ProjectOwner) SetID(id ID) {
	o.id = id
}

func (o *ProjectOwner) Category() Category { return CategoryProjectOwner }
func (o *ProjectOwner) TypeName() string   { return "ProjectOwner" }

func (o *ProjectOwner) LoadFields(r Reader, version int) error { return nil }
func (o *ProjectOwner) SaveFields(w Writer, version int) error { return nil }
