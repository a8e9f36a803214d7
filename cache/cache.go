/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"slices"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
)

// ItemState is the lifecycle state of a loaded entity.
type ItemState int

const (
	StateOriginal ItemState = iota
	StateModified
	StateOwnerChanged
	StateDeleted
)

func (s ItemState) String() string {
	switch s {
	case StateOriginal:
		return "original"
	case StateModified:
		return "modified"
	case StateOwnerChanged:
		return "owner changed"
	case StateDeleted:
		return "deleted"
	}
	return "unknown"
}

// Entity is the constraint of cached entity kinds. Kinds are pointer types,
// so pending entries are keyed by reference.
type Entity interface {
	comparable
	model.Entity
}

// Bucket pairs a loaded entity with its owner and lifecycle state.
type Bucket[E Entity] struct {
	Object E
	Owner  model.Entity
	State  ItemState
}

// PendingEntry is an entity awaiting its first commit.
type PendingEntry[E Entity] struct {
	Object E
	Owner  model.Entity
}

// Cache tracks the entities of one kind. Loaded entities are keyed by
// identity; pending entities, which have no identity yet, by reference.
// A Cache is not safe for concurrent use.
type Cache[E Entity] struct {
	kind string

	loaded      map[model.ID]*Bucket[E]
	loadedOrder []model.ID

	pending      map[E]model.Entity
	pendingOrder []E

	// undo holds the inverse of every mutation since Mark, oldest first.
	undo      []func()
	recording bool
}

// New returns an empty cache. kind names the entity kind in errors.
func New[E Entity](kind string) *Cache[E] {
	return &Cache[E]{
		kind:    kind,
		loaded:  make(map[model.ID]*Bucket[E]),
		pending: make(map[E]model.Entity),
	}
}

// Kind returns the entity kind name.
func (c *Cache[E]) Kind() string {
	return c.kind
}

func (c *Cache[E]) lifecycleError(op string, e E, state string) error {
	return errors.NewLifecycleError(op, c.kind, string(e.Identity()), state)
}

func (c *Cache[E]) notFound(e E) error {
	key := string(e.Identity())
	if key == "" {
		key = e.TypeName()
	}
	return errors.NewNotFoundError(c.kind, key)
}

func isNone[E Entity](e E) bool {
	var none E
	return e == none
}

// Mark starts recording the mutations that follow so that Rollback can
// revert them. A second Mark discards what was recorded so far.
func (c *Cache[E]) Mark() {
	c.undo = nil
	c.recording = true
}

// Rollback reverts the mutations recorded since Mark and stops recording.
func (c *Cache[E]) Rollback() {
	for i := len(c.undo) - 1; i >= 0; i-- {
		c.undo[i]()
	}
	c.Release()
}

// Release stops recording and keeps the recorded mutations.
func (c *Cache[E]) Release() {
	c.undo = nil
	c.recording = false
}

func (c *Cache[E]) record(fn func()) {
	if c.recording {
		c.undo = append(c.undo, fn)
	}
}

// saveBucket records the current owner and state of b.
func (c *Cache[E]) saveBucket(b *Bucket[E]) {
	prev := *b
	c.record(func() { *b = prev })
}

func (c *Cache[E]) addBucket(e E, owner model.Entity, state ItemState) {
	id := e.Identity()
	c.loaded[id] = &Bucket[E]{Object: e, Owner: owner, State: state}
	c.loadedOrder = append(c.loadedOrder, id)
	c.record(func() {
		delete(c.loaded, id)
		c.loadedOrder = c.loadedOrder[:len(c.loadedOrder)-1]
	})
}

// bucketOf returns the loaded bucket holding e itself.
func (c *Cache[E]) bucketOf(e E) (*Bucket[E], bool) {
	if e.Identity() == model.NoID {
		return nil, false
	}
	b, ok := c.loaded[e.Identity()]
	if !ok || b.Object != e {
		return nil, false
	}
	return b, true
}

// Insert adds an unidentified entity to the pending set under owner.
func (c *Cache[E]) Insert(e E, owner model.Entity) error {
	if isNone(e) {
		return errors.NewValidationError(c.kind, "must not be nil")
	}
	if owner == nil {
		return errors.NewValidationError("owner", "must not be nil")
	}
	if _, ok := c.pending[e]; ok {
		return c.lifecycleError("insert", e, "new")
	}
	if e.Identity() != model.NoID {
		return c.lifecycleError("insert", e, "identified")
	}
	c.pending[e] = owner
	c.pendingOrder = append(c.pendingOrder, e)
	c.record(func() { c.removePending(e) })
	return nil
}

// Update marks a loaded entity Modified. Pending entities stay pending.
func (c *Cache[E]) Update(e E) error {
	if _, ok := c.pending[e]; ok {
		return nil
	}
	b, ok := c.bucketOf(e)
	if !ok {
		return c.notFound(e)
	}
	if b.State == StateDeleted {
		return c.lifecycleError("update", e, b.State.String())
	}
	c.saveBucket(b)
	b.State = StateModified
	return nil
}

// Delete removes a pending entity or marks a loaded entity Deleted.
func (c *Cache[E]) Delete(e E) error {
	if owner, ok := c.pending[e]; ok {
		at := c.removePending(e)
		c.record(func() {
			c.pending[e] = owner
			c.pendingOrder = slices.Insert(c.pendingOrder, at, e)
		})
		return nil
	}
	b, ok := c.bucketOf(e)
	if !ok {
		return c.notFound(e)
	}
	if b.State == StateDeleted {
		return c.lifecycleError("delete", e, b.State.String())
	}
	c.saveBucket(b)
	b.State = StateDeleted
	return nil
}

// Undelete marks a Deleted entity Modified.
func (c *Cache[E]) Undelete(e E) error {
	if _, ok := c.pending[e]; ok {
		return c.lifecycleError("undelete", e, "new")
	}
	b, ok := c.bucketOf(e)
	if !ok {
		return c.notFound(e)
	}
	if b.State != StateDeleted {
		return c.lifecycleError("undelete", e, b.State.String())
	}
	c.saveBucket(b)
	b.State = StateModified
	return nil
}

// UndeleteWithOwner undeletes e like Undelete, or restores a bucket for an
// identified entity absent from the cache under owner. The owner of an
// existing bucket must match.
func (c *Cache[E]) UndeleteWithOwner(e E, owner model.Entity) error {
	if owner == nil {
		return errors.NewValidationError("owner", "must not be nil")
	}
	if _, ok := c.pending[e]; ok {
		return c.lifecycleError("undelete", e, "new")
	}
	if e.Identity() == model.NoID {
		return c.lifecycleError("undelete", e, "never persisted")
	}
	b, ok := c.loaded[e.Identity()]
	if !ok {
		c.addBucket(e, owner, StateModified)
		return nil
	}
	if b.Object != e {
		return c.lifecycleError("undelete", e, "shadowed")
	}
	if b.Owner != owner {
		return c.lifecycleError("undelete", e, "owned elsewhere")
	}
	if b.State != StateDeleted {
		return c.lifecycleError("undelete", e, b.State.String())
	}
	c.saveBucket(b)
	b.State = StateModified
	return nil
}

// Reown moves e under owner. Loaded entities become OwnerChanged.
func (c *Cache[E]) Reown(e E, owner model.Entity) error {
	if owner == nil {
		return errors.NewValidationError("owner", "must not be nil")
	}
	if prev, ok := c.pending[e]; ok {
		c.pending[e] = owner
		c.record(func() { c.pending[e] = prev })
		return nil
	}
	b, ok := c.bucketOf(e)
	if !ok {
		return c.notFound(e)
	}
	if b.State == StateDeleted {
		return c.lifecycleError("reown", e, b.State.String())
	}
	c.saveBucket(b)
	b.Owner = owner
	b.State = StateOwnerChanged
	return nil
}

// AddLoaded adds an entity read from the backing store in state Original.
// It reports false if the identity is already cached.
func (c *Cache[E]) AddLoaded(e E, owner model.Entity) (bool, error) {
	if isNone(e) {
		return false, errors.NewValidationError(c.kind, "must not be nil")
	}
	if owner == nil {
		return false, errors.NewValidationError("owner", "must not be nil")
	}
	if e.Identity() == model.NoID {
		return false, c.lifecycleError("load", e, "unidentified")
	}
	if _, ok := c.loaded[e.Identity()]; ok {
		return false, nil
	}
	c.addBucket(e, owner, StateOriginal)
	return true, nil
}

// CheckAccept verifies that AcceptAll can complete: every pending entity
// must have been assigned an identity.
func (c *Cache[E]) CheckAccept() error {
	for _, e := range c.pendingOrder {
		if e.Identity() == model.NoID {
			return c.lifecycleError("accept", e, "unidentified")
		}
	}
	return nil
}

// AcceptAll drops Deleted buckets, resets all other states to Original and
// moves pending entities into the loaded set.
func (c *Cache[E]) AcceptAll() error {
	if err := c.CheckAccept(); err != nil {
		return err
	}
	order := c.loadedOrder[:0]
	for _, id := range c.loadedOrder {
		b := c.loaded[id]
		if b.State == StateDeleted {
			delete(c.loaded, id)
			continue
		}
		b.State = StateOriginal
		order = append(order, id)
	}
	c.loadedOrder = order
	for _, e := range c.pendingOrder {
		id := e.Identity()
		if _, exists := c.loaded[id]; !exists {
			c.loadedOrder = append(c.loadedOrder, id)
		}
		c.loaded[id] = &Bucket[E]{Object: e, Owner: c.pending[e], State: StateOriginal}
	}
	c.pending = make(map[E]model.Entity)
	c.pendingOrder = nil
	c.Release()
	return nil
}

// removePending drops e from the pending set and returns its former
// position.
func (c *Cache[E]) removePending(e E) int {
	delete(c.pending, e)
	for i, p := range c.pendingOrder {
		if p == e {
			c.pendingOrder = slices.Delete(c.pendingOrder, i, i+1)
			return i
		}
	}
	return len(c.pendingOrder)
}

// Clear drops all entries.
func (c *Cache[E]) Clear() {
	c.loaded = make(map[model.ID]*Bucket[E])
	c.loadedOrder = nil
	c.pending = make(map[E]model.Entity)
	c.pendingOrder = nil
	c.Release()
}

// Contains reports whether e is pending or loaded and not Deleted.
func (c *Cache[E]) Contains(e E) bool {
	if _, ok := c.pending[e]; ok {
		return true
	}
	b, ok := c.bucketOf(e)
	return ok && b.State != StateDeleted
}

// IsPending reports whether e awaits its first commit.
func (c *Cache[E]) IsPending(e E) bool {
	_, ok := c.pending[e]
	return ok
}

// Get returns the entity with the given identity unless it is Deleted.
// Pending entities holding an identity from a failed commit are found too.
func (c *Cache[E]) Get(id model.ID) (E, bool) {
	var none E
	if id == model.NoID {
		return none, false
	}
	if b, ok := c.loaded[id]; ok {
		if b.State == StateDeleted {
			return none, false
		}
		return b.Object, true
	}
	for _, e := range c.pendingOrder {
		if e.Identity() == id {
			return e, true
		}
	}
	return none, false
}

// Bucket returns a copy of the loaded bucket with the given identity,
// including Deleted buckets.
func (c *Cache[E]) Bucket(id model.ID) (Bucket[E], bool) {
	b, ok := c.loaded[id]
	if !ok {
		return Bucket[E]{}, false
	}
	return *b, true
}

// State returns the lifecycle state of a loaded entity.
func (c *Cache[E]) State(e E) (ItemState, bool) {
	b, ok := c.bucketOf(e)
	if !ok {
		return 0, false
	}
	return b.State, true
}

// Owner returns the owner of a pending or loaded entity.
func (c *Cache[E]) Owner(e E) (model.Entity, bool) {
	if owner, ok := c.pending[e]; ok {
		return owner, true
	}
	b, ok := c.bucketOf(e)
	if !ok {
		return nil, false
	}
	return b.Owner, true
}

// All returns the loaded entities that are not Deleted followed by the
// pending entities, each in insertion order.
func (c *Cache[E]) All() []E {
	out := make([]E, 0, len(c.loadedOrder)+len(c.pendingOrder))
	for _, id := range c.loadedOrder {
		if b := c.loaded[id]; b.State != StateDeleted {
			out = append(out, b.Object)
		}
	}
	return append(out, c.pendingOrder...)
}

// OwnedBy returns the entities of All whose owner is owner.
func (c *Cache[E]) OwnedBy(owner model.Entity) []E {
	var out []E
	for _, id := range c.loadedOrder {
		if b := c.loaded[id]; b.State != StateDeleted && b.Owner == owner {
			out = append(out, b.Object)
		}
	}
	for _, e := range c.pendingOrder {
		if c.pending[e] == owner {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first entity of All matching fn.
func (c *Cache[E]) Find(fn func(E) bool) (E, bool) {
	for _, e := range c.All() {
		if fn(e) {
			return e, true
		}
	}
	var none E
	return none, false
}

// Loaded returns copies of the loaded buckets, Deleted ones included.
func (c *Cache[E]) Loaded() []Bucket[E] {
	out := make([]Bucket[E], 0, len(c.loadedOrder))
	for _, id := range c.loadedOrder {
		out = append(out, *c.loaded[id])
	}
	return out
}

// Pending returns the pending entities with their owners.
func (c *Cache[E]) Pending() []PendingEntry[E] {
	out := make([]PendingEntry[E], 0, len(c.pendingOrder))
	for _, e := range c.pendingOrder {
		out = append(out, PendingEntry[E]{Object: e, Owner: c.pending[e]})
	}
	return out
}

// LoadedLen returns the number of loaded buckets.
func (c *Cache[E]) LoadedLen() int {
	return len(c.loaded)
}

// PendingLen returns the number of pending entities.
func (c *Cache[E]) PendingLen() int {
	return len(c.pending)
}

// Dirty reports whether any entity is pending or not Original.
func (c *Cache[E]) Dirty() bool {
	if len(c.pending) > 0 {
		return true
	}
	for _, b := range c.loaded {
		if b.State != StateOriginal {
			return true
		}
	}
	return false
}
