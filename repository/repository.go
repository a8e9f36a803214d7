/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package repository

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/suparena/entitycache/cache"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/metrics"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/registry"
)

// DefaultVersion is the format version of newly created projects.
const DefaultVersion = 1

// Repository is the change-tracking cache of one project. Mutations are
// recorded in memory and reach the Store only on SaveChanges.
//
// A Repository is used by one goroutine at a time; it performs no locking.
type Repository struct {
	registry *registry.Registry
	store    Store
	logger   zerolog.Logger
	view     *storeView

	projectName string
	version     int
	isOpen      bool
	modified    bool

	projectOwner *model.ProjectOwner
	projects     *cache.Cache[*model.ProjectSettings]
	models       *cache.Cache[*model.Model]
	designs      *cache.Cache[*model.Design]
	styles       *cache.Cache[model.Style]
	templates    *cache.Cache[*model.Template]
	mappings     *cache.Cache[*model.ModelMapping]
	modelObjects *cache.Cache[*model.ModelObject]
	diagrams     *cache.Cache[*model.Diagram]
	shapes       *cache.Cache[*model.Shape]

	newConnections     []model.ShapeConnection
	deletedConnections []model.ShapeConnection

	gates gates

	handlers     map[int]Handler
	handlerOrder []int
	nextHandler  int
}

// gates records which bulk loads already ran in the open session.
type gates struct {
	model         bool
	designs       bool
	templates     bool
	diagrams      bool
	modelObjects  bool
	diagramShapes map[*model.Diagram]bool
	childObjects  map[*model.ModelObject]bool
}

func (g *gates) reset() {
	*g = gates{
		diagramShapes: make(map[*model.Diagram]bool),
		childObjects:  make(map[*model.ModelObject]bool),
	}
}

// Option configures a Repository.
type Option func(*Repository)

// WithStore attaches the backing store.
func WithStore(s Store) Option {
	return func(r *Repository) {
		r.store = s
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Repository) {
		r.logger = l
	}
}

// WithProjectName sets the name of the project to create or open.
func WithProjectName(name string) Option {
	return func(r *Repository) {
		r.projectName = name
	}
}

// WithVersion sets the format version used for new projects.
func WithVersion(version int) Option {
	return func(r *Repository) {
		r.version = version
	}
}

// New returns a closed repository for the types in reg.
func New(reg *registry.Registry, opts ...Option) *Repository {
	r := &Repository{
		registry:     reg,
		logger:       zerolog.Nop(),
		version:      DefaultVersion,
		projectOwner: model.NewProjectOwner(),
		projects:     cache.New[*model.ProjectSettings]("project settings"),
		models:       cache.New[*model.Model]("model"),
		designs:      cache.New[*model.Design]("design"),
		styles:       cache.New[model.Style]("style"),
		templates:    cache.New[*model.Template]("template"),
		mappings:     cache.New[*model.ModelMapping]("model mapping"),
		modelObjects: cache.New[*model.ModelObject]("model object"),
		diagrams:     cache.New[*model.Diagram]("diagram"),
		shapes:       cache.New[*model.Shape]("shape"),
		handlers:     make(map[int]Handler),
	}
	r.view = &storeView{r: r}
	r.gates.reset()
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With().Str("component", "repository").Logger()
	return r
}

// Registry returns the entity type registry.
func (r *Repository) Registry() *registry.Registry {
	return r.registry
}

// Store returns the attached backing store, nil if none.
func (r *Repository) Store() Store {
	return r.store
}

// SetStore attaches a backing store. The repository must be closed.
func (r *Repository) SetStore(s Store) error {
	if r.isOpen {
		return errors.ErrAlreadyOpen
	}
	r.store = s
	return nil
}

// SetProjectName sets the project to create or open. The repository must
// be closed.
func (r *Repository) SetProjectName(name string) error {
	if r.isOpen {
		return errors.ErrAlreadyOpen
	}
	r.projectName = name
	return nil
}

// ProjectName returns the name of the project.
func (r *Repository) ProjectName() string {
	return r.projectName
}

// Version returns the format version of the open project.
func (r *Repository) Version() int {
	return r.version
}

// IsOpen reports whether a project is open.
func (r *Repository) IsOpen() bool {
	return r.isOpen
}

// IsModified reports whether there are uncommitted changes.
func (r *Repository) IsModified() bool {
	return r.modified
}

func (r *Repository) assertOpen() error {
	if !r.isOpen {
		return errors.ErrNotOpen
	}
	return nil
}

func (r *Repository) assertStore() error {
	if r.store == nil {
		return errors.ErrNoStore
	}
	return nil
}

func (r *Repository) assertClosed() error {
	if r.isOpen {
		return errors.ErrAlreadyOpen
	}
	if r.store == nil {
		return errors.ErrNoStore
	}
	if r.projectName == "" {
		return errors.NewValidationError("projectName", "must not be empty")
	}
	return nil
}

func (r *Repository) touch(kind, op string, n int) {
	r.modified = true
	metrics.MutationsTotal.WithLabelValues(kind, op).Add(float64(n))
}

// Exists reports whether the backing store holds the project.
func (r *Repository) Exists(ctx context.Context) (bool, error) {
	if err := r.assertStore(); err != nil {
		return false, err
	}
	return r.store.Exists(ctx)
}

// ReadVersion reads the project's format version without opening it.
func (r *Repository) ReadVersion(ctx context.Context) (int, error) {
	if err := r.assertStore(); err != nil {
		return 0, err
	}
	if err := r.store.ReadVersion(ctx, r.view); err != nil {
		return 0, err
	}
	return r.version, nil
}

// Create creates a new project in the backing store and opens it. The
// project settings and the model are committed immediately.
func (r *Repository) Create(ctx context.Context) error {
	if err := r.assertClosed(); err != nil {
		return err
	}
	r.reset()
	if err := r.store.Create(ctx, r.view); err != nil {
		r.logger.Error().Err(err).Str("project", r.projectName).Msg("create failed")
		return err
	}
	r.isOpen = true

	settings := model.NewProjectSettings(r.projectName)
	if err := r.projects.Insert(settings, r.projectOwner); err != nil {
		r.isOpen = false
		return err
	}
	if err := r.models.Insert(model.NewModel(), settings); err != nil {
		r.isOpen = false
		return err
	}
	r.touch("project", "insert", 1)
	r.gates.model, r.gates.designs, r.gates.templates = true, true, true
	r.gates.diagrams, r.gates.modelObjects = true, true

	if err := r.SaveChanges(ctx); err != nil {
		r.isOpen = false
		r.reset()
		return err
	}
	r.logger.Info().Str("project", r.projectName).Int("version", r.version).Msg("project created")
	return nil
}

// Open opens the named project of the backing store.
func (r *Repository) Open(ctx context.Context) error {
	if err := r.assertClosed(); err != nil {
		return err
	}
	r.reset()
	if err := r.store.Open(ctx, r.view); err != nil {
		r.logger.Error().Err(err).Str("project", r.projectName).Msg("open failed")
		return err
	}
	if err := r.load("project settings", func() error { return r.store.LoadProjects(ctx, r.view) }); err != nil {
		r.reset()
		return err
	}
	matches := 0
	for _, p := range r.projects.All() {
		if strings.EqualFold(p.Name, r.projectName) {
			matches++
		}
	}
	switch {
	case matches == 0:
		r.reset()
		return errors.NewNotFoundError("project", r.projectName)
	case matches > 1:
		r.reset()
		return errors.NewAmbiguousError("project", r.projectName, matches)
	}
	r.isOpen = true
	r.logger.Info().Str("project", r.projectName).Int("version", r.version).Msg("project opened")
	return nil
}

// Close closes the project. Uncommitted changes are discarded.
func (r *Repository) Close(ctx context.Context) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	var err error
	if r.store != nil {
		err = r.store.Close(ctx, r.view)
	}
	if r.modified {
		r.logger.Warn().Str("project", r.projectName).Msg("closing with uncommitted changes")
	}
	r.isOpen = false
	r.reset()
	r.logger.Info().Str("project", r.projectName).Msg("project closed")
	return err
}

// Erase deletes the project from the backing store. The repository must
// be closed.
func (r *Repository) Erase(ctx context.Context) error {
	if r.isOpen {
		return errors.ErrAlreadyOpen
	}
	if err := r.assertStore(); err != nil {
		return err
	}
	return r.store.Erase(ctx)
}

func (r *Repository) reset() {
	r.projectOwner.SetID(model.NoID)
	r.projects.Clear()
	r.models.Clear()
	r.designs.Clear()
	r.styles.Clear()
	r.templates.Clear()
	r.mappings.Clear()
	r.modelObjects.Clear()
	r.diagrams.Clear()
	r.shapes.Clear()
	r.newConnections = nil
	r.deletedConnections = nil
	r.gates.reset()
	r.modified = false
}

type acceptor interface {
	CheckAccept() error
	AcceptAll() error
}

// acceptors lists the caches in the order they are reconciled after a
// commit: owners before dependents.
func (r *Repository) acceptors() []acceptor {
	return []acceptor{
		r.projects, r.designs, r.styles, r.templates, r.mappings,
		r.modelObjects, r.models, r.diagrams, r.shapes,
	}
}

type journal interface {
	Mark()
	Rollback()
	Release()
}

// atomically runs a cascade so that either all of its cache mutations stay
// or none do. fn must not load from the store or touch the object graph;
// callers link and unlink objects once fn succeeded.
func (r *Repository) atomically(fn func() error) error {
	journals := []journal{
		r.projects, r.models, r.designs, r.styles, r.templates,
		r.mappings, r.modelObjects, r.diagrams, r.shapes,
	}
	for _, j := range journals {
		j.Mark()
	}
	newConnections := slices.Clone(r.newConnections)
	deletedConnections := slices.Clone(r.deletedConnections)

	if err := fn(); err != nil {
		for _, j := range journals {
			j.Rollback()
		}
		r.newConnections, r.deletedConnections = newConnections, deletedConnections
		r.logger.Debug().Err(err).Msg("cascade rolled back")
		return err
	}
	for _, j := range journals {
		j.Release()
	}
	return nil
}

// SaveChanges hands the dirty state to the backing store and, once the store
// succeeded, accepts all changes. On failure the cache is left as it was so
// the commit can be retried.
func (r *Repository) SaveChanges(ctx context.Context) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if err := r.assertStore(); err != nil {
		return err
	}
	start := time.Now()
	counts := r.changeCounts()

	if err := r.store.SaveChanges(ctx, r.view); err != nil {
		metrics.CommitsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		r.logger.Error().Err(err).Str("project", r.projectName).Msg("save changes failed")
		return err
	}
	for _, a := range r.acceptors() {
		if err := a.CheckAccept(); err != nil {
			metrics.CommitsTotal.WithLabelValues(metrics.ResultFailure).Inc()
			return err
		}
	}
	for _, a := range r.acceptors() {
		if err := a.AcceptAll(); err != nil {
			return err
		}
	}
	r.newConnections = nil
	r.deletedConnections = nil
	r.modified = false

	metrics.CommitsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.CommitDuration.Observe(time.Since(start).Seconds())
	for change, n := range counts {
		metrics.CommittedEntities.WithLabelValues(change).Add(float64(n))
	}
	r.logger.Info().
		Str("project", r.projectName).
		Int("new", counts["new"]).
		Int("modified", counts["modified"]).
		Int("deleted", counts["deleted"]).
		Dur("took", time.Since(start)).
		Msg("changes saved")
	return nil
}

func (r *Repository) changeCounts() map[string]int {
	counts := map[string]int{"new": 0, "modified": 0, "deleted": 0}
	for _, cat := range model.Categories {
		counts["new"] += len(r.view.Pending(cat))
		for _, item := range r.view.Loaded(cat) {
			switch item.State {
			case cache.StateDeleted:
				counts["deleted"]++
			case cache.StateModified, cache.StateOwnerChanged:
				counts["modified"]++
			}
		}
	}
	return counts
}

// load runs a bulk load and records it.
func (r *Repository) load(kind string, fn func() error) error {
	start := time.Now()
	metrics.LoadsTotal.WithLabelValues(kind).Inc()
	err := fn()
	metrics.LoadDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		r.logger.Error().Err(err).Str("kind", kind).Msg("load failed")
		return err
	}
	r.logger.Debug().Str("kind", kind).Dur("took", time.Since(start)).Msg("loaded")
	return nil
}

// canLoad reports whether a bulk load can be requested for the project.
func (r *Repository) canLoad() bool {
	p := r.project()
	return r.store != nil && p != nil && p.Identity() != model.NoID
}

func (r *Repository) project() *model.ProjectSettings {
	for _, p := range r.projects.All() {
		if strings.EqualFold(p.Name, r.projectName) {
			return p
		}
	}
	return nil
}

// GetProject returns the open project's settings.
func (r *Repository) GetProject() (*model.ProjectSettings, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	p := r.project()
	if p == nil {
		return nil, errors.NewNotFoundError("project", r.projectName)
	}
	return p, nil
}

// UpdateProject records changes to the project settings.
func (r *Repository) UpdateProject(p *model.ProjectSettings) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if err := r.projects.Update(p); err != nil {
		return err
	}
	r.touch("project", "update", 1)
	r.fire(Event{Kind: ProjectUpdated, Entities: []model.Entity{p}})
	return nil
}
