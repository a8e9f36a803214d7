/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"github.com/suparena/entitycache/model"
)

// General shape type names.
const (
	RectangleTypeName        = "GeneralShapes.Rectangle"
	RoundedRectangleTypeName = "GeneralShapes.RoundedRectangle"
	EllipseTypeName          = "GeneralShapes.Ellipse"
	PolylineTypeName         = "GeneralShapes.Polyline"
	TextTypeName             = "GeneralShapes.Text"
)

// Polyline end points can be glued to other shapes.
const (
	PolylineStartPoint model.ControlPointID = 1
	PolylineEndPoint   model.ControlPointID = 2
)

// CoreTypes returns the built-in entity types of a project.
func CoreTypes() []*EntityType {
	return []*EntityType{
		NewEntityType(model.ProjectSettingsTypeName, model.CategoryProjectSettings,
			func() model.Entity { return model.NewProjectSettings("") }, model.ProjectSettingsFields),
		NewEntityType(model.ModelTypeName, model.CategoryModel,
			func() model.Entity { return model.NewModel() }, model.ModelFields),
		NewEntityType(model.DesignTypeName, model.CategoryDesign,
			func() model.Entity { return model.NewDesign("") }, model.DesignFields),

		NewEntityType(model.ColorStyleTypeName, model.CategoryStyle,
			func() model.Entity { return model.NewColorStyle("", 0) }, model.ColorStyleFields),
		NewEntityType(model.CapStyleTypeName, model.CategoryStyle,
			func() model.Entity { return model.NewCapStyle("") }, model.CapStyleFields),
		NewEntityType(model.CharacterStyleTypeName, model.CategoryStyle,
			func() model.Entity { return model.NewCharacterStyle("", "", 0) }, model.CharacterStyleFields),
		NewEntityType(model.FillStyleTypeName, model.CategoryStyle,
			func() model.Entity { return model.NewFillStyle("", nil) }, model.FillStyleFields),
		NewEntityType(model.LineStyleTypeName, model.CategoryStyle,
			func() model.Entity { return model.NewLineStyle("", 0, nil) }, model.LineStyleFields),
		NewEntityType(model.ParagraphStyleTypeName, model.CategoryStyle,
			func() model.Entity { return model.NewParagraphStyle("") }, model.ParagraphStyleFields),

		NewEntityType(model.TemplateTypeName, model.CategoryTemplate,
			func() model.Entity { return model.NewTemplate("", nil) }, model.TemplateFields),
		modelMappingType(model.NumericModelMappingTypeName),
		modelMappingType(model.FormatModelMappingTypeName),
		modelMappingType(model.StyleModelMappingTypeName),

		NewEntityType(model.GenericModelObjectTypeName, model.CategoryModelObject,
			func() model.Entity { return model.NewModelObject(model.GenericModelObjectTypeName, "") }, model.ModelObjectFields),
		NewEntityType(model.DiagramTypeName, model.CategoryDiagram,
			func() model.Entity { return model.NewDiagram("") }, model.DiagramFields),
	}
}

func modelMappingType(name string) *EntityType {
	return NewEntityType(name, model.CategoryModelMapping,
		func() model.Entity { return model.NewModelMapping(name, 0, 0) }, model.ModelMappingFields)
}

// ShapeType returns the type descriptor of a shape kind with the given glue
// points.
func ShapeType(name string, gluePoints ...model.ControlPointID) *EntityType {
	return NewEntityType(name, model.CategoryShape,
		func() model.Entity { return model.NewShape(name, gluePoints...) }, model.ShapeFields)
}

// GeneralShapeTypes returns the general shape library.
func GeneralShapeTypes() []*EntityType {
	return []*EntityType{
		ShapeType(RectangleTypeName),
		ShapeType(RoundedRectangleTypeName),
		ShapeType(EllipseTypeName),
		ShapeType(PolylineTypeName, PolylineStartPoint, PolylineEndPoint),
		ShapeType(TextTypeName),
	}
}

// RegisterCoreTypes registers the core entity types and the general shapes.
func RegisterCoreTypes(r *Registry) error {
	for _, t := range append(CoreTypes(), GeneralShapeTypes()...) {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// NewCore returns a registry holding the core types and the general shapes.
func NewCore() (*Registry, error) {
	r := New()
	if err := RegisterCoreTypes(r); err != nil {
		return nil, err
	}
	return r, nil
}
