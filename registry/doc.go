/*
Package registry maps logical entity type names to their factories, schemas
and element names.

Element names are the stable identifiers used by backing stores. They are
derived from logical names by stripping the "Core." and "GeneralShapes."
namespaces, replacing spaces, slashes and angle brackets with underscores
and converting CamelCase to snake_case:

	registry.ElementName("Core.LineStyle")                  // "line_style"
	registry.ElementName("GeneralShapes.RoundedRectangle")  // "rounded_rectangle"

Types are registered during initialization:

	reg := registry.New()
	if err := registry.RegisterCoreTypes(reg); err != nil {
	    return err
	}
	t, _ := reg.ByElementName("line_style")
	style := t.Create()

Index Map Registry:
Associates entity categories with key templates for key-value backends:

	registry.RegisterIndexMap(model.CategoryShape, map[string]string{
	    "PK":  "ENTITY#{ID}",
	    "SK":  "ENTITY#{ID}",
	    "PK1": "OWNER#{OwnerID}",
	    "SK1": "{Category}#{ID}",
	})

A Registry is not safe for concurrent registration; populate it before use.
The index map registry is thread-safe.
*/
package registry
