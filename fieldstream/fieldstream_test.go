/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fieldstream

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/registry"
	"github.com/suparena/entitycache/storagemodels"
)

type mapResolver struct {
	entities map[model.ID]model.Entity
}

func newResolver(entities ...model.Entity) *mapResolver {
	r := &mapResolver{entities: make(map[model.ID]model.Entity)}
	for _, e := range entities {
		r.entities[e.Identity()] = e
	}
	return r
}

func resolve[E model.Entity](r *mapResolver, id model.ID) (E, error) {
	var none E
	e, ok := r.entities[id]
	if !ok {
		return none, errors.NewNotFoundError("entity", string(id))
	}
	typed, ok := e.(E)
	if !ok {
		return none, errors.NewNotFoundError("entity", string(id))
	}
	return typed, nil
}

func (r *mapResolver) Template(id model.ID) (*model.Template, error) {
	return resolve[*model.Template](r, id)
}
func (r *mapResolver) Shape(id model.ID) (*model.Shape, error) { return resolve[*model.Shape](r, id) }
func (r *mapResolver) ModelObject(id model.ID) (*model.ModelObject, error) {
	return resolve[*model.ModelObject](r, id)
}
func (r *mapResolver) Design(id model.ID) (*model.Design, error) { return resolve[*model.Design](r, id) }
func (r *mapResolver) Style(id model.ID) (model.Style, error)    { return resolve[model.Style](r, id) }

func coreRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.NewCore()
	require.NoError(t, err)
	return reg
}

func entityType(t *testing.T, reg *registry.Registry, name string) *registry.EntityType {
	t.Helper()
	et, err := reg.ByName(name)
	require.NoError(t, err)
	return et
}

// jsonRoundTrip mimics a backend that stores records as JSON documents.
func jsonRoundTrip(t *testing.T, rec *storagemodels.Record) *storagemodels.Record {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out storagemodels.Record
	require.NoError(t, dec.Decode(&out))
	return &out
}

func TestEncodeCanonicalValues(t *testing.T) {
	reg := coreRegistry(t)
	color := model.NewColorStyle("Red", 0x7fff0000)
	require.NoError(t, color.AssignID("color-1"))
	fill := model.NewFillStyle("Solid", color)
	fill.GradientAngle = -45
	fill.Image = &model.NamedImage{Name: "tile.png", Data: []byte{1, 2, 3}}

	rec, err := Encode(entityType(t, reg, model.FillStyleTypeName), fill, 1)
	require.NoError(t, err)

	assert.Equal(t, "fill_style", rec.ElementName)
	assert.Equal(t, "style", rec.Category)
	assert.Equal(t, "", rec.ID)
	assert.Equal(t, "Solid", rec.Fields["name"])
	assert.Equal(t, "color-1", rec.Fields["base_color_style"])
	assert.Equal(t, "", rec.Fields["additional_color_style"])
	assert.Equal(t, int64(-45), rec.Fields["gradient_angle"])
	assert.Equal(t, map[string]any{"name": "tile.png", "data": []byte{1, 2, 3}}, rec.Fields["image"])
	assert.Nil(t, rec.Inner)
}

func TestRoundTrip(t *testing.T) {
	reg := coreRegistry(t)

	t.Run("StyleWithReference", func(t *testing.T) {
		color := model.NewColorStyle("Blue", 0x0000ff)
		require.NoError(t, color.AssignID("color-2"))
		line := model.NewLineStyle("Thin", 1, color)
		line.DashType = 3
		require.NoError(t, line.AssignID("line-1"))

		et := entityType(t, reg, model.LineStyleTypeName)
		rec, err := Encode(et, line, 1)
		require.NoError(t, err)

		e, err := Decode(et, jsonRoundTrip(t, rec), newResolver(color), 1)
		require.NoError(t, err)
		got := e.(*model.LineStyle)
		assert.Equal(t, model.ID("line-1"), got.Identity())
		assert.Equal(t, "Thin", got.Name)
		assert.Equal(t, int32(1), got.LineWidth)
		assert.Equal(t, byte(3), got.DashType)
		assert.Same(t, color, got.ColorStyle)
	})

	t.Run("ProjectSettingsWithInnerObjects", func(t *testing.T) {
		saved := strfmt.DateTime(time.Date(2025, 3, 14, 9, 26, 53, 589000000, time.UTC))
		ps := model.NewProjectSettings("Plant")
		ps.Revision = 1 << 40
		ps.LastSaved = saved
		ps.Thumbnail = &model.NamedImage{Name: "thumb", Data: []byte("png")}
		ps.Libraries = []model.LibraryInfo{
			{Name: "GeneralShapes", AssemblyName: "general", LibraryVersion: 2},
			{Name: "Flow", AssemblyName: "flow", LibraryVersion: 7},
		}
		require.NoError(t, ps.AssignID("project-1"))

		et := entityType(t, reg, model.ProjectSettingsTypeName)
		rec, err := Encode(et, ps, 1)
		require.NoError(t, err)
		require.Len(t, rec.Inner["libraries"], 2)
		assert.Equal(t, "flow", rec.Inner["libraries"][1]["assembly_name"])

		e, err := Decode(et, jsonRoundTrip(t, rec), newResolver(), 1)
		require.NoError(t, err)
		got := e.(*model.ProjectSettings)
		assert.Equal(t, ps.Name, got.Name)
		assert.Equal(t, ps.Revision, got.Revision)
		assert.True(t, time.Time(saved).Equal(time.Time(got.LastSaved)))
		assert.Equal(t, ps.Thumbnail, got.Thumbnail)
		assert.Equal(t, ps.Libraries, got.Libraries)
	})

	t.Run("ShapeWithVertices", func(t *testing.T) {
		tmpl := model.NewTemplate("Pipe", nil)
		require.NoError(t, tmpl.AssignID("template-1"))
		para := model.NewParagraphStyle("Centered")
		para.EllipsisChar = '…'
		require.NoError(t, para.AssignID("para-1"))

		shape := model.NewShape(registry.PolylineTypeName, registry.PolylineStartPoint, registry.PolylineEndPoint)
		shape.Template = tmpl
		shape.ParagraphStyle = para
		shape.Angle = 45.5
		shape.Text = "flow"
		shape.Vertices = []model.Vertex{{PointID: 1, X: 10, Y: 20}, {PointID: 2, X: 110, Y: 20}}
		require.NoError(t, shape.AssignID("shape-1"))

		et := entityType(t, reg, registry.PolylineTypeName)
		rec, err := Encode(et, shape, 1)
		require.NoError(t, err)

		e, err := Decode(et, jsonRoundTrip(t, rec), newResolver(tmpl, para), 1)
		require.NoError(t, err)
		got := e.(*model.Shape)
		assert.Same(t, tmpl, got.Template)
		assert.Same(t, para, got.ParagraphStyle)
		assert.Nil(t, got.FillStyle)
		assert.Nil(t, got.ModelObject)
		assert.Equal(t, float32(45.5), got.Angle)
		assert.Equal(t, shape.Vertices, got.Vertices)
		assert.True(t, got.IsGluePoint(registry.PolylineEndPoint))
	})

	t.Run("ParagraphStyleChar", func(t *testing.T) {
		para := model.NewParagraphStyle("Left")
		para.EllipsisChar = '~'
		para.Padding = 2.25
		et := entityType(t, reg, model.ParagraphStyleTypeName)
		rec, err := Encode(et, para, 1)
		require.NoError(t, err)
		rec.ID = "para-2"

		e, err := Decode(et, jsonRoundTrip(t, rec), newResolver(), 1)
		require.NoError(t, err)
		got := e.(*model.ParagraphStyle)
		assert.Equal(t, '~', got.EllipsisChar)
		assert.Equal(t, 2.25, got.Padding)
		assert.True(t, got.WordWrap)
	})
}

func TestUnidentifiedReference(t *testing.T) {
	reg := coreRegistry(t)
	color := model.NewColorStyle("Pending", 0)
	line := model.NewLineStyle("Thick", 5, color)

	_, err := Encode(entityType(t, reg, model.LineStyleTypeName), line, 1)
	require.Error(t, err)
	assert.True(t, errors.IsSchema(err))
	assert.Contains(t, err.Error(), "unidentified")
}

// greedy writes one field more than its schema declares.
type greedy struct {
	*model.Model
}

func (g greedy) SaveFields(w model.Writer, version int) error {
	if err := w.WriteString("one"); err != nil {
		return err
	}
	return w.WriteString("two")
}

func (g greedy) LoadFields(r model.Reader, version int) error {
	if _, err := r.ReadString(); err != nil {
		return err
	}
	_, err := r.ReadString()
	return err
}

func TestFieldCountGuard(t *testing.T) {
	reg := registry.New()
	et := registry.NewEntityType("Test.Greedy", model.CategoryModel,
		func() model.Entity { return greedy{model.NewModel()} },
		[]model.FieldInfo{model.Field("Only", model.FieldString)})
	require.NoError(t, reg.Register(et))

	t.Run("Write", func(t *testing.T) {
		_, err := Encode(et, greedy{model.NewModel()}, 1)
		assert.True(t, errors.IsSchema(err), "expected schema error, got %v", err)
	})

	t.Run("Read", func(t *testing.T) {
		rec := &storagemodels.Record{ID: "m-1", Fields: map[string]any{"only": "one"}}
		_, err := Decode(et, rec, newResolver(), 1)
		assert.True(t, errors.IsSchema(err), "expected schema error, got %v", err)
	})
}

func TestFieldTypeMismatch(t *testing.T) {
	reg := coreRegistry(t)
	w := NewRecordWriter(entityType(t, reg, model.DesignTypeName))

	err := w.WriteInt32(1)
	assert.True(t, errors.IsSchema(err))
	require.NoError(t, w.WriteString("name"))

	err = w.BeginWriteInnerObjects()
	assert.True(t, errors.IsSchema(err), "design declares no inner objects")
}

func TestInnerObjectFraming(t *testing.T) {
	reg := coreRegistry(t)
	et := entityType(t, reg, model.DiagramTypeName)

	t.Run("ScalarOutsideItem", func(t *testing.T) {
		w := NewRecordWriter(et)
		w.index = w.scalarCount()
		require.NoError(t, w.BeginWriteInnerObjects())
		assert.True(t, errors.IsSchema(w.WriteInt32(1)))
	})

	t.Run("IncompleteItem", func(t *testing.T) {
		w := NewRecordWriter(et)
		w.index = w.scalarCount()
		require.NoError(t, w.BeginWriteInnerObjects())
		require.NoError(t, w.BeginWriteInnerObject())
		require.NoError(t, w.WriteInt32(1))
		assert.True(t, errors.IsSchema(w.EndWriteInnerObject()))
	})

	t.Run("EmptyGroup", func(t *testing.T) {
		d := model.NewDiagram("Empty")
		rec, err := Encode(et, d, 1)
		require.NoError(t, err)
		require.Contains(t, rec.Inner, "layers")
		assert.Empty(t, rec.Inner["layers"])
	})

	t.Run("MissingGroupReadsEmpty", func(t *testing.T) {
		rec := &storagemodels.Record{ID: "d-1", Fields: map[string]any{"name": "Old", "width": int64(640)}}
		e, err := Decode(et, rec, newResolver(), 1)
		require.NoError(t, err)
		d := e.(*model.Diagram)
		assert.Equal(t, "Old", d.Name)
		assert.Equal(t, int32(640), d.Width)
		assert.Empty(t, d.Layers)
	})
}

func TestDecodeRejectsOutOfRange(t *testing.T) {
	reg := coreRegistry(t)
	et := entityType(t, reg, model.ColorStyleTypeName)
	rec := &storagemodels.Record{ID: "c-1", Fields: map[string]any{"transparency": int64(300)}}

	_, err := Decode(et, rec, newResolver(), 1)
	assert.True(t, errors.IsSchema(err), "expected schema error, got %v", err)
}

func TestDecodeUnknownReference(t *testing.T) {
	reg := coreRegistry(t)
	et := entityType(t, reg, model.LineStyleTypeName)
	rec := &storagemodels.Record{ID: "l-1", Fields: map[string]any{"color_style": "missing"}}

	_, err := Decode(et, rec, newResolver(), 1)
	assert.True(t, errors.IsNotFound(err), "expected not found, got %v", err)
}
