/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitycache/datastore"
	"github.com/suparena/entitycache/datastore/memory"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/registry"
	"github.com/suparena/entitycache/repository"
	"github.com/suparena/entitycache/storagemodels"
)

const projectName = "Demo"

// countingStore records how often each bulk load reaches the backend.
type countingStore struct {
	*datastore.ProjectStore
	loads map[string]int
}

func newCountingStore(ds datastore.DataStore) *countingStore {
	return &countingStore{ProjectStore: datastore.NewProjectStore(ds), loads: make(map[string]int)}
}

func (s *countingStore) LoadProjects(ctx context.Context, view repository.View) error {
	s.loads["projects"]++
	return s.ProjectStore.LoadProjects(ctx, view)
}

func (s *countingStore) LoadModel(ctx context.Context, view repository.View, projectID model.ID) error {
	s.loads["model"]++
	return s.ProjectStore.LoadModel(ctx, view, projectID)
}

func (s *countingStore) LoadDesigns(ctx context.Context, view repository.View, projectID model.ID) error {
	s.loads["designs"]++
	return s.ProjectStore.LoadDesigns(ctx, view, projectID)
}

func (s *countingStore) LoadTemplates(ctx context.Context, view repository.View, projectID model.ID) error {
	s.loads["templates"]++
	return s.ProjectStore.LoadTemplates(ctx, view, projectID)
}

func (s *countingStore) LoadDiagrams(ctx context.Context, view repository.View, projectID model.ID) error {
	s.loads["diagrams"]++
	return s.ProjectStore.LoadDiagrams(ctx, view, projectID)
}

func (s *countingStore) LoadDiagramShapes(ctx context.Context, view repository.View, d *model.Diagram) error {
	s.loads["shapes"]++
	return s.ProjectStore.LoadDiagramShapes(ctx, view, d)
}

func (s *countingStore) LoadModelModelObjects(ctx context.Context, view repository.View, modelID model.ID) error {
	s.loads["model objects"]++
	return s.ProjectStore.LoadModelModelObjects(ctx, view, modelID)
}

// recordingDataStore keeps every batch applied to the memory backend.
type recordingDataStore struct {
	*memory.DataStore
	batches []*storagemodels.Batch
}

func (r *recordingDataStore) Apply(ctx context.Context, batch *storagemodels.Batch) error {
	if err := r.DataStore.Apply(ctx, batch); err != nil {
		return err
	}
	r.batches = append(r.batches, batch)
	return nil
}

func (r *recordingDataStore) last() *storagemodels.Batch {
	return r.batches[len(r.batches)-1]
}

func coreRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.NewCore()
	require.NoError(t, err)
	return reg
}

func newRepo(t *testing.T, store repository.Store) *repository.Repository {
	t.Helper()
	return repository.New(coreRegistry(t),
		repository.WithStore(store),
		repository.WithProjectName(projectName),
	)
}

func createRepo(t *testing.T, ds datastore.DataStore) *repository.Repository {
	t.Helper()
	repo := newRepo(t, datastore.NewProjectStore(ds))
	require.NoError(t, repo.Create(context.Background()))
	return repo
}

// sample holds a small but complete project.
type sample struct {
	design   *model.Design
	red      *model.ColorStyle
	fill     *model.FillStyle
	customer *model.ModelObject
	order    *model.ModelObject
	template *model.Template
	diagram  *model.Diagram
	rect     *model.Shape
	label    *model.Shape
	line     *model.Shape
}

func populate(t *testing.T, repo *repository.Repository) *sample {
	t.Helper()
	ctx := context.Background()
	s := &sample{}

	s.design = model.NewDesign("Default")
	s.red = model.NewColorStyle("Red", 0xff0000)
	s.design.AddStyle(s.red)
	require.NoError(t, repo.InsertDesign(s.design))
	s.fill = model.NewFillStyle("RedFill", s.red)
	require.NoError(t, repo.InsertStyle(s.design, s.fill))

	s.customer = model.NewModelObject(model.GenericModelObjectTypeName, "Customer")
	s.order = model.NewModelObject(model.GenericModelObjectTypeName, "Order")
	s.order.Parent = s.customer
	require.NoError(t, repo.InsertModelObjects(ctx, s.customer, s.order))

	prototype := model.NewShape(registry.RectangleTypeName)
	prototype.ModelObject = model.NewModelObject(model.GenericModelObjectTypeName, "Prototype")
	s.template = model.NewTemplate("Box", prototype)
	s.template.AddModelMapping(model.NewModelMapping(model.NumericModelMappingTypeName, 1, 2))
	require.NoError(t, repo.InsertTemplate(s.template))

	s.diagram = model.NewDiagram("Main")
	s.rect = model.NewShape(registry.RectangleTypeName)
	s.rect.X, s.rect.Y = 10, 20
	s.rect.FillStyle = s.fill
	s.rect.Template = s.template
	s.rect.ModelObject = s.customer
	s.label = model.NewShape(registry.TextTypeName)
	s.label.Text = "hello"
	s.rect.AddChild(s.label)
	s.line = model.NewShape(registry.PolylineTypeName, registry.PolylineStartPoint, registry.PolylineEndPoint)
	s.diagram.AddShape(s.rect)
	s.diagram.AddShape(s.line)
	_, err := s.line.Connect(registry.PolylineStartPoint, s.rect, 3)
	require.NoError(t, err)
	require.NoError(t, repo.InsertDiagram(s.diagram))

	return s
}

func TestCreateSaveAndReopen(t *testing.T) {
	ctx := context.Background()
	ds := memory.New()
	repo := createRepo(t, ds)
	assert.True(t, repo.IsOpen())
	assert.False(t, repo.IsModified(), "create commits settings and model")
	assert.Equal(t, 2, ds.Count())

	s := populate(t, repo)
	assert.True(t, repo.IsModified())
	require.NoError(t, repo.SaveChanges(ctx))
	assert.False(t, repo.IsModified())

	// settings, model, design, 2 styles, 3 model objects, template,
	// mapping, template shape, diagram, 3 diagram shapes
	assert.Equal(t, 15, ds.Count())
	assert.Equal(t, 1, ds.ConnectionCount())
	assert.NotEqual(t, model.NoID, s.rect.Identity())
	assert.NotEqual(t, model.NoID, s.template.Shape.ModelObject.Identity())

	require.NoError(t, repo.Close(ctx))
	assert.False(t, repo.IsOpen())

	reopened := newRepo(t, datastore.NewProjectStore(ds))
	require.NoError(t, reopened.Open(ctx))
	assert.Equal(t, repository.DefaultVersion, reopened.Version())

	project, err := reopened.GetProject()
	require.NoError(t, err)
	assert.Equal(t, projectName, project.Name)

	d, err := reopened.GetDiagramByName(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, s.diagram.Identity(), d.Identity())

	shapes, err := reopened.GetDiagramShapes(ctx, d)
	require.NoError(t, err)
	require.Len(t, shapes, 2)

	rect, line := shapes[0], shapes[1]
	assert.Equal(t, s.rect.Identity(), rect.Identity())
	assert.Equal(t, int32(10), rect.X)
	assert.Equal(t, int32(20), rect.Y)
	require.NotNil(t, rect.FillStyle)
	assert.Equal(t, "RedFill", rect.FillStyle.Name)
	require.NotNil(t, rect.FillStyle.BaseColorStyle)
	assert.Equal(t, int32(0xff0000), rect.FillStyle.BaseColorStyle.Color)
	require.Len(t, rect.Children(), 1)
	assert.Equal(t, "hello", rect.Children()[0].Text)
	assert.Same(t, d, rect.Diagram())

	require.NotNil(t, rect.ModelObject)
	assert.Equal(t, "Customer", rect.ModelObject.Name)

	tmpl, err := reopened.GetTemplateByName(ctx, "BOX")
	require.NoError(t, err)
	assert.Same(t, tmpl, rect.Template)
	require.NotNil(t, tmpl.Shape)
	require.NotNil(t, tmpl.Shape.ModelObject)
	assert.Equal(t, "Prototype", tmpl.Shape.ModelObject.Name)
	assert.Len(t, tmpl.ModelMappings(), 1)

	conns := line.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, registry.PolylineStartPoint, conns[0].OwnPointID)
	assert.Same(t, rect, conns[0].OtherShape)
	assert.Equal(t, model.ControlPointID(3), conns[0].OtherPointID)

	top, err := reopened.GetModelObjects(ctx, nil)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Same(t, rect.ModelObject, top[0])
	children, err := reopened.GetModelObjects(ctx, top[0])
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Order", children[0].Name)
	assert.Same(t, top[0], children[0].Parent)

	designs, err := reopened.GetDesigns(ctx)
	require.NoError(t, err)
	require.Len(t, designs, 1)
	assert.Len(t, designs[0].Styles(), 2)
	assert.False(t, reopened.IsModified())
}

func TestLazyLoadsRunOnce(t *testing.T) {
	ctx := context.Background()
	ds := memory.New()
	repo := createRepo(t, ds)
	populate(t, repo)
	require.NoError(t, repo.SaveChanges(ctx))
	require.NoError(t, repo.Close(ctx))

	store := newCountingStore(ds)
	reopened := newRepo(t, store)
	require.NoError(t, reopened.Open(ctx))
	assert.Equal(t, 1, store.loads["projects"])

	for i := 0; i < 2; i++ {
		diagrams, err := reopened.GetDiagrams(ctx)
		require.NoError(t, err)
		require.Len(t, diagrams, 1)
		_, err = reopened.GetDiagramShapes(ctx, diagrams[0])
		require.NoError(t, err)
		_, err = reopened.GetDesigns(ctx)
		require.NoError(t, err)
		_, err = reopened.GetTemplates(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.loads["diagrams"])
	assert.Equal(t, 1, store.loads["shapes"])
	assert.Equal(t, 1, store.loads["designs"])
	assert.Equal(t, 1, store.loads["templates"])
	assert.Equal(t, 1, store.loads["model"])
	assert.Equal(t, 1, store.loads["model objects"])

	// Closing resets the gates
	require.NoError(t, reopened.Close(ctx))
	require.NoError(t, reopened.Open(ctx))
	_, err := reopened.GetDiagrams(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.loads["diagrams"])
}

func TestCreatedProjectNeverLoads(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore(memory.New())
	repo := newRepo(t, store)
	require.NoError(t, repo.Create(ctx))

	diagrams, err := repo.GetDiagrams(ctx)
	require.NoError(t, err)
	assert.Empty(t, diagrams)
	_, err = repo.GetDesigns(ctx)
	require.NoError(t, err)
	_, err = repo.GetModelObjects(ctx, nil)
	require.NoError(t, err)

	d := model.NewDiagram("Fresh")
	require.NoError(t, repo.InsertDiagram(d))
	require.NoError(t, repo.SaveChanges(ctx))
	_, err = repo.GetDiagramShapes(ctx, d)
	require.NoError(t, err)

	assert.Empty(t, store.loads)
}

func TestFailedCommitKeepsChanges(t *testing.T) {
	ctx := context.Background()
	ds := memory.New()
	repo := createRepo(t, ds)

	d := model.NewDiagram("Main")
	d.AddShape(model.NewShape(registry.EllipseTypeName))
	require.NoError(t, repo.InsertDiagram(d))

	diskFull := fmt.Errorf("disk full")
	ds.WithApplyError(diskFull)
	err := repo.SaveChanges(ctx)
	require.ErrorIs(t, err, diskFull)
	assert.True(t, repo.IsModified())
	id := d.Identity()
	assert.NotEqual(t, model.NoID, id)
	assert.Equal(t, 2, ds.Count())

	found, err := repo.GetDiagram(ctx, id)
	require.NoError(t, err)
	assert.Same(t, d, found)

	ds.WithApplyError(nil)
	require.NoError(t, repo.SaveChanges(ctx))
	assert.False(t, repo.IsModified())
	assert.Equal(t, id, d.Identity(), "identity of the failed attempt is reused")
	assert.Equal(t, 4, ds.Count())
}

func TestSessionErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("NoStore", func(t *testing.T) {
		repo := repository.New(coreRegistry(t), repository.WithProjectName(projectName))
		assert.True(t, errors.IsPrecondition(repo.Create(ctx)))
		assert.True(t, errors.IsPrecondition(repo.Open(ctx)))
		_, err := repo.Exists(ctx)
		assert.True(t, errors.IsPrecondition(err))
	})

	t.Run("NotOpen", func(t *testing.T) {
		repo := newRepo(t, datastore.NewProjectStore(memory.New()))
		assert.ErrorIs(t, repo.InsertDiagram(model.NewDiagram("x")), errors.ErrNotOpen)
		assert.ErrorIs(t, repo.SaveChanges(ctx), errors.ErrNotOpen)
		assert.ErrorIs(t, repo.Close(ctx), errors.ErrNotOpen)
		_, err := repo.GetDiagrams(ctx)
		assert.True(t, errors.IsPrecondition(err))
	})

	t.Run("EmptyName", func(t *testing.T) {
		repo := repository.New(coreRegistry(t), repository.WithStore(datastore.NewProjectStore(memory.New())))
		assert.True(t, errors.IsValidationError(repo.Create(ctx)))
	})

	t.Run("OpenMissing", func(t *testing.T) {
		repo := newRepo(t, datastore.NewProjectStore(memory.New()))
		assert.True(t, errors.IsNotFound(repo.Open(ctx)))
		assert.False(t, repo.IsOpen())
	})

	t.Run("OpenOtherName", func(t *testing.T) {
		ds := memory.New()
		require.NoError(t, createRepo(t, ds).Close(ctx))
		other := repository.New(coreRegistry(t),
			repository.WithStore(datastore.NewProjectStore(ds)),
			repository.WithProjectName("Other"),
		)
		assert.True(t, errors.IsNotFound(other.Open(ctx)))
	})

	t.Run("CreateTwice", func(t *testing.T) {
		ds := memory.New()
		createRepo(t, ds)
		second := newRepo(t, datastore.NewProjectStore(ds))
		assert.True(t, errors.IsAlreadyExists(second.Create(ctx)))
		assert.False(t, second.IsOpen())
	})

	t.Run("AlreadyOpen", func(t *testing.T) {
		repo := createRepo(t, memory.New())
		assert.ErrorIs(t, repo.Open(ctx), errors.ErrAlreadyOpen)
		assert.ErrorIs(t, repo.Erase(ctx), errors.ErrAlreadyOpen)
		assert.ErrorIs(t, repo.SetStore(nil), errors.ErrAlreadyOpen)
	})

	t.Run("EraseAndVersion", func(t *testing.T) {
		ds := memory.New()
		repo := createRepo(t, ds)
		require.NoError(t, repo.Close(ctx))

		version, err := repo.ReadVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, repository.DefaultVersion, version)

		require.NoError(t, repo.Erase(ctx))
		exists, err := repo.Exists(ctx)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestCloseDiscardsUncommittedChanges(t *testing.T) {
	ctx := context.Background()
	ds := memory.New()
	repo := createRepo(t, ds)
	require.NoError(t, repo.InsertDiagram(model.NewDiagram("Draft")))
	require.NoError(t, repo.Close(ctx))
	assert.Equal(t, 2, ds.Count())

	require.NoError(t, repo.Open(ctx))
	diagrams, err := repo.GetDiagrams(ctx)
	require.NoError(t, err)
	assert.Empty(t, diagrams)
}

func TestProjectUpdate(t *testing.T) {
	ctx := context.Background()
	ds := memory.New()
	repo := createRepo(t, ds)

	p, err := repo.GetProject()
	require.NoError(t, err)
	p.Description = "plant layout"
	p.Revision = 7
	require.NoError(t, repo.UpdateProject(p))
	require.NoError(t, repo.SaveChanges(ctx))
	require.NoError(t, repo.Close(ctx))

	require.NoError(t, repo.Open(ctx))
	p, err = repo.GetProject()
	require.NoError(t, err)
	assert.Equal(t, "plant layout", p.Description)
	assert.Equal(t, int64(7), p.Revision)
}
