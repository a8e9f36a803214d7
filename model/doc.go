/*
Package model defines the persistable entities of a diagram project and the
field-stream interfaces they persist themselves through.

Every entity reports an opaque identity (NoID until its first commit), accepts
an identity exactly once, and reads or writes its scalar fields and named
inner object groups in the order declared by its schema:

	var DesignFields = []FieldInfo{
	    Field("Name", FieldString),
	    Field("Title", FieldString),
	    Field("Description", FieldString),
	}

Ownership between entities is not stored in the entities' fields. Project
settings own the model, designs, templates and diagrams; designs own styles;
diagrams own their top-level shapes; shapes own their children; templates own
one shape, its model object and their model mappings; the model owns the
top-level model objects and model objects own their children. The cache
records ownership per entity and the backing store persists it.
*/
package model
