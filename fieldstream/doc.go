/*
Package fieldstream implements the field-stream protocol between entities and
stored records.

A RecordWriter receives an entity's fields in schema order and stores them
as canonical values keyed by element name: integers as int64, floating point
values as float64, characters as one-rune strings, dates in strfmt's
date-time form, images as a name/data map and references as the referenced
entity's identity. A RecordReader delivers them back, converting whatever
numeric representation the backend decoded, and resolves references through
a Resolver.

Both enforce the schema: accessing more fields than declared, accessing a
field as the wrong type, or writing a reference to an entity without an
identity fails with a schema error. Inner object groups are framed by
Begin/End calls and each item is delegated to a cursor over the group's item
schema.

	rec, err := fieldstream.Encode(lineStyleType, style, version)
	...
	e, err := fieldstream.Decode(lineStyleType, rec, view, version)
*/
package fieldstream
