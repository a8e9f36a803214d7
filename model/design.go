/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

const DesignTypeName = "Core.Design"

// DesignFields is the schema of Design.
var DesignFields = []FieldInfo{
	Field("Name", FieldString),
	Field("Title", FieldString),
	Field("Description", FieldString),
}

// Design groups a set of styles.
type Design struct {
	entity
	Name        string
	Title       string
	Description string
	styles      []Style
}

// NewDesign returns an unidentified, empty design.
func NewDesign(name string) *Design {
	return &Design{Name: name}
}

func (d *Design) Category() Category { return CategoryDesign }
func (d *Design) TypeName() string   { return DesignTypeName }

// Styles returns the design's styles in insertion order.
func (d *Design) Styles() []Style {
	out := make([]Style, len(d.styles))
	copy(out, d.styles)
	return out
}

// AddStyle appends s unless the design already holds it.
func (d *Design) AddStyle(s Style) {
	for _, existing := range d.styles {
		if existing == s {
			return
		}
	}
	d.styles = append(d.styles, s)
}

// RemoveStyle detaches s from the design and reports whether it was present.
func (d *Design) RemoveStyle(s Style) bool {
	for i, existing := range d.styles {
		if existing == s {
			d.styles = append(d.styles[:i], d.styles[i+1:]...)
			return true
		}
	}
	return false
}

// FindStyle returns the first style with the given name.
func (d *Design) FindStyle(name string) (Style, bool) {
	for _, s := range d.styles {
		if s.StyleName() == name {
			return s, true
		}
	}
	return nil, false
}

func (d *Design) SaveFields(w Writer, version int) error {
	if err := w.WriteString(d.Name); err != nil {
		return err
	}
	if err := w.WriteString(d.Title); err != nil {
		return err
	}
	return w.WriteString(d.Description)
}

func (d *Design) LoadFields(r Reader, version int) error {
	var err error
	if d.Name, err = r.ReadString(); err != nil {
		return err
	}
	if d.Title, err = r.ReadString(); err != nil {
		return err
	}
	d.Description, err = r.ReadString()
	return err
}
