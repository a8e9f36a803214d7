/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"github.com/go-openapi/strfmt"

	"github.com/suparena/entitycache/errors"
)

const (
	ProjectSettingsTypeName = "Core.ProjectSettings"
	ModelTypeName           = "Core.Model"
)

// ProjectSettingsFields is the schema of ProjectSettings.
var ProjectSettingsFields = []FieldInfo{
	Field("Name", FieldString),
	Field("Description", FieldString),
	Field("Revision", FieldInt64),
	Field("LastSaved", FieldDate),
	Field("Thumbnail", FieldImage),
	InnerObjects("Libraries",
		Field("Name", FieldString),
		Field("AssemblyName", FieldString),
		Field("LibraryVersion", FieldInt32),
	),
}

// LibraryInfo names a shape library a project depends on.
type LibraryInfo struct {
	Name           string
	AssemblyName   string
	LibraryVersion int32
}

// ProjectSettings is the root entity of a project.
type ProjectSettings struct {
	entity
	Name        string
	Description string
	Revision    int64
	LastSaved   strfmt.DateTime
	Thumbnail   *NamedImage
	Libraries   []LibraryInfo
}

// NewProjectSettings returns unidentified settings for the named project.
func NewProjectSettings(name string) *ProjectSettings {
	return &ProjectSettings{Name: name}
}

func (p *ProjectSettings) Category() Category { return CategoryProjectSettings }
func (p *ProjectSettings) TypeName() string   { return ProjectSettingsTypeName }

func (p *ProjectSettings) SaveFields(w Writer, version int) error {
	if err := w.WriteString(p.Name); err != nil {
		return err
	}
	if err := w.WriteString(p.Description); err != nil {
		return err
	}
	if err := w.WriteInt64(p.Revision); err != nil {
		return err
	}
	if err := w.WriteDate(p.LastSaved); err != nil {
		return err
	}
	return w.WriteImage(p.Thumbnail)
}

func (p *ProjectSettings) LoadFields(r Reader, version int) error {
	var err error
	if p.Name, err = r.ReadString(); err != nil {
		return err
	}
	if p.Description, err = r.ReadString(); err != nil {
		return err
	}
	if p.Revision, err = r.ReadInt64(); err != nil {
		return err
	}
	if p.LastSaved, err = r.ReadDate(); err != nil {
		return err
	}
	p.Thumbnail, err = r.ReadImage()
	return err
}

func (p *ProjectSettings) SaveInnerObjects(name string, w Writer, version int) error {
	if name != "Libraries" {
		return errors.NewSchemaError(p.TypeName(), name, "unknown inner objects")
	}
	if err := w.BeginWriteInnerObjects(); err != nil {
		return err
	}
	for _, lib := range p.Libraries {
		if err := w.BeginWriteInnerObject(); err != nil {
			return err
		}
		if err := w.WriteString(lib.Name); err != nil {
			return err
		}
		if err := w.WriteString(lib.AssemblyName); err != nil {
			return err
		}
		if err := w.WriteInt32(lib.LibraryVersion); err != nil {
			return err
		}
		if err := w.EndWriteInnerObject(); err != nil {
			return err
		}
	}
	return w.EndWriteInnerObjects()
}

func (p *ProjectSettings) LoadInnerObjects(name string, r Reader, version int) error {
	if name != "Libraries" {
		return errors.NewSchemaError(p.TypeName(), name, "unknown inner objects")
	}
	if err := r.BeginReadInnerObjects(); err != nil {
		return err
	}
	p.Libraries = p.Libraries[:0]
	for {
		ok, err := r.BeginReadInnerObject()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		var lib LibraryInfo
		if lib.Name, err = r.ReadString(); err != nil {
			return err
		}
		if lib.AssemblyName, err = r.ReadString(); err != nil {
			return err
		}
		if lib.LibraryVersion, err = r.ReadInt32(); err != nil {
			return err
		}
		if err := r.EndReadInnerObject(); err != nil {
			return err
		}
		p.Libraries = append(p.Libraries, lib)
	}
	return r.EndReadInnerObjects()
}

// ModelFields is the schema of Model. The model has no scalar state of its
// own; it only anchors the top-level model objects.
var ModelFields = []FieldInfo{}

// Model is the container of a project's model objects.
type Model struct {
	entity
}

// NewModel returns an unidentified model.
func NewModel() *Model {
	return &Model{}
}

func (m *Model) Category() Category { return CategoryModel }
func (m *Model) TypeName() string   { return ModelTypeName }

func (m *Model) SaveFields(w Writer, version int) error { return nil }
func (m *Model) LoadFields(r Reader, version int) error { return nil }
