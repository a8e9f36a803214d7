/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
)

func identified(t *testing.T, name string, id model.ID) *model.Design {
	t.Helper()
	d := model.NewDesign(name)
	require.NoError(t, d.AssignID(id))
	return d
}

func snapshot[E Entity](c *Cache[E]) ([]Bucket[E], []PendingEntry[E]) {
	return c.Loaded(), c.Pending()
}

func TestInsertAndAccept(t *testing.T) {
	owner := model.NewProjectSettings("p")
	c := New[*model.Design]("design")
	d := model.NewDesign("D")

	require.NoError(t, c.Insert(d, owner))
	assert.True(t, c.Contains(d))
	assert.True(t, c.IsPending(d))
	assert.True(t, c.Dirty())
	assert.Equal(t, []*model.Design{d}, c.All())

	require.NoError(t, d.AssignID("d-1"))
	require.NoError(t, c.AcceptAll())

	b, ok := c.Bucket("d-1")
	require.True(t, ok)
	assert.Same(t, d, b.Object)
	assert.Equal(t, model.Entity(owner), b.Owner)
	assert.Equal(t, StateOriginal, b.State)
	assert.False(t, c.IsPending(d))
	assert.False(t, c.Dirty())
}

func TestAcceptAllIdempotent(t *testing.T) {
	owner := model.NewProjectSettings("p")
	c := New[*model.Design]("design")
	kept := identified(t, "kept", "d-1")
	gone := identified(t, "gone", "d-2")
	_, _ = c.AddLoaded(kept, owner)
	_, _ = c.AddLoaded(gone, owner)
	require.NoError(t, c.Update(kept))
	require.NoError(t, c.Delete(gone))

	require.NoError(t, c.AcceptAll())
	loaded, pending := snapshot(c)
	require.Len(t, loaded, 1)
	assert.Equal(t, StateOriginal, loaded[0].State)
	assert.Empty(t, pending)

	require.NoError(t, c.AcceptAll())
	again, pendingAgain := snapshot(c)
	assert.Equal(t, loaded, again)
	assert.Empty(t, pendingAgain)
}

func TestAcceptAllRequiresIdentities(t *testing.T) {
	owner := model.NewProjectSettings("p")
	c := New[*model.Design]("design")
	d := model.NewDesign("D")
	require.NoError(t, c.Insert(d, owner))

	err := c.AcceptAll()
	assert.True(t, errors.IsLifecycle(err))
	assert.True(t, c.IsPending(d), "cache must be unchanged")
}

func TestTransitions(t *testing.T) {
	owner := model.NewProjectSettings("p")
	other := model.NewProjectSettings("q")

	t.Run("UpdateDeleteUndelete", func(t *testing.T) {
		c := New[*model.Design]("design")
		d := identified(t, "D", "d-1")
		_, _ = c.AddLoaded(d, owner)

		require.NoError(t, c.Update(d))
		state, _ := c.State(d)
		assert.Equal(t, StateModified, state)

		require.NoError(t, c.Delete(d))
		state, _ = c.State(d)
		assert.Equal(t, StateDeleted, state)
		assert.False(t, c.Contains(d))
		_, found := c.Get("d-1")
		assert.False(t, found)

		require.NoError(t, c.Undelete(d))
		state, _ = c.State(d)
		assert.Equal(t, StateModified, state)
	})

	t.Run("Reown", func(t *testing.T) {
		c := New[*model.Design]("design")
		d := identified(t, "D", "d-1")
		_, _ = c.AddLoaded(d, owner)

		require.NoError(t, c.Reown(d, other))
		state, _ := c.State(d)
		assert.Equal(t, StateOwnerChanged, state)
		got, _ := c.Owner(d)
		assert.Equal(t, model.Entity(other), got)
		assert.Equal(t, []*model.Design{d}, c.OwnedBy(other))
		assert.Empty(t, c.OwnedBy(owner))
	})

	t.Run("PendingReownAndDelete", func(t *testing.T) {
		c := New[*model.Design]("design")
		d := model.NewDesign("D")
		require.NoError(t, c.Insert(d, owner))

		require.NoError(t, c.Update(d))
		require.NoError(t, c.Reown(d, other))
		got, _ := c.Owner(d)
		assert.Equal(t, model.Entity(other), got)

		require.NoError(t, c.Delete(d))
		assert.False(t, c.Contains(d))
		assert.Zero(t, c.PendingLen())
	})
}

func TestIllegalTransitionsLeaveCacheUnchanged(t *testing.T) {
	owner := model.NewProjectSettings("p")
	c := New[*model.Design]("design")
	deleted := identified(t, "deleted", "d-1")
	live := identified(t, "live", "d-2")
	pending := model.NewDesign("pending")
	_, _ = c.AddLoaded(deleted, owner)
	_, _ = c.AddLoaded(live, owner)
	require.NoError(t, c.Delete(deleted))
	require.NoError(t, c.Insert(pending, owner))

	loaded, pendingBefore := snapshot(c)

	tests := []struct {
		name string
		op   func() error
	}{
		{"DeleteDeleted", func() error { return c.Delete(deleted) }},
		{"UpdateDeleted", func() error { return c.Update(deleted) }},
		{"ReownDeleted", func() error { return c.Reown(deleted, owner) }},
		{"UndeleteLive", func() error { return c.Undelete(live) }},
		{"UndeletePending", func() error { return c.Undelete(pending) }},
		{"InsertIdentified", func() error { return c.Insert(identified(t, "x", "d-3"), owner) }},
		{"InsertTwice", func() error { return c.Insert(pending, owner) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			require.Error(t, err)
			assert.True(t, errors.IsLifecycle(err), "expected lifecycle error, got %v", err)

			after, pendingAfter := snapshot(c)
			assert.Equal(t, loaded, after)
			assert.Equal(t, pendingBefore, pendingAfter)
		})
	}
}

func TestUnknownEntities(t *testing.T) {
	c := New[*model.Design]("design")
	stranger := identified(t, "stranger", "d-9")

	assert.True(t, errors.IsNotFound(c.Update(stranger)))
	assert.True(t, errors.IsNotFound(c.Delete(stranger)))
	assert.True(t, errors.IsNotFound(c.Update(model.NewDesign("new"))))
	assert.True(t, errors.IsValidationError(c.Insert(model.NewDesign("orphan"), nil)))
	assert.True(t, errors.IsValidationError(c.Insert(nil, model.NewProjectSettings("p"))))
}

func TestUndeleteWithOwner(t *testing.T) {
	owner := model.NewProjectSettings("p")

	t.Run("RestoresAbsentBucket", func(t *testing.T) {
		c := New[*model.Design]("design")
		d := identified(t, "D", "d-1")

		require.NoError(t, c.UndeleteWithOwner(d, owner))
		b, ok := c.Bucket("d-1")
		require.True(t, ok)
		assert.Equal(t, StateModified, b.State)
		assert.Equal(t, model.Entity(owner), b.Owner)
	})

	t.Run("OwnerMustMatch", func(t *testing.T) {
		c := New[*model.Design]("design")
		d := identified(t, "D", "d-1")
		_, _ = c.AddLoaded(d, owner)
		require.NoError(t, c.Delete(d))

		err := c.UndeleteWithOwner(d, model.NewProjectSettings("other"))
		assert.True(t, errors.IsLifecycle(err))
		state, _ := c.State(d)
		assert.Equal(t, StateDeleted, state)

		require.NoError(t, c.UndeleteWithOwner(d, owner))
		state, _ = c.State(d)
		assert.Equal(t, StateModified, state)
	})

	t.Run("NeverPersisted", func(t *testing.T) {
		c := New[*model.Design]("design")
		err := c.UndeleteWithOwner(model.NewDesign("new"), owner)
		assert.True(t, errors.IsLifecycle(err))
	})
}

func TestAddLoadedSkipsKnownIdentities(t *testing.T) {
	owner := model.NewProjectSettings("p")
	c := New[*model.Design]("design")
	first := identified(t, "first", "d-1")
	dup := identified(t, "dup", "d-1")

	added, err := c.AddLoaded(first, owner)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = c.AddLoaded(dup, owner)
	require.NoError(t, err)
	assert.False(t, added)
	got, _ := c.Get("d-1")
	assert.Same(t, first, got)

	_, err = c.AddLoaded(model.NewDesign("new"), owner)
	assert.True(t, errors.IsLifecycle(err))
}

func TestGetFindsPendingWithRetryIdentity(t *testing.T) {
	owner := model.NewProjectSettings("p")
	c := New[*model.Design]("design")
	d := model.NewDesign("D")
	require.NoError(t, c.Insert(d, owner))
	require.NoError(t, d.AssignID("d-1"))

	got, ok := c.Get("d-1")
	require.True(t, ok)
	assert.Same(t, d, got)
	require.NoError(t, c.Update(d))
	assert.True(t, c.IsPending(d))

	found, ok := c.Find(func(x *model.Design) bool { return x.Name == "D" })
	assert.True(t, ok)
	assert.Same(t, d, found)
}

func TestRollbackRevertsRecordedMutations(t *testing.T) {
	owner := model.NewProjectSettings("p")
	other := model.NewProjectSettings("q")
	c := New[*model.Design]("design")
	a := identified(t, "a", "d-1")
	b := identified(t, "b", "d-2")
	gone := identified(t, "gone", "d-3")
	first := model.NewDesign("first")
	second := model.NewDesign("second")
	_, _ = c.AddLoaded(a, owner)
	_, _ = c.AddLoaded(b, owner)
	require.NoError(t, c.Delete(b))
	require.NoError(t, c.Insert(first, owner))
	require.NoError(t, c.Insert(second, owner))

	loaded, pending := snapshot(c)

	c.Mark()
	require.NoError(t, c.Update(a))
	require.NoError(t, c.Reown(a, other))
	require.NoError(t, c.Undelete(b))
	require.NoError(t, c.Delete(b))
	require.NoError(t, c.Delete(first))
	require.NoError(t, c.Reown(second, other))
	require.NoError(t, c.Insert(model.NewDesign("third"), owner))
	require.NoError(t, c.UndeleteWithOwner(gone, owner))
	_, err := c.AddLoaded(identified(t, "late", "d-4"), owner)
	require.NoError(t, err)
	c.Rollback()

	after, pendingAfter := snapshot(c)
	assert.Equal(t, loaded, after)
	assert.Equal(t, pending, pendingAfter)
	assert.Equal(t, []*model.Design{a, first, second}, c.All())
	_, ok := c.Get("d-3")
	assert.False(t, ok)
}

func TestReleaseKeepsMutations(t *testing.T) {
	owner := model.NewProjectSettings("p")
	c := New[*model.Design]("design")
	a := identified(t, "a", "d-1")
	_, _ = c.AddLoaded(a, owner)

	c.Mark()
	require.NoError(t, c.Delete(a))
	c.Release()
	c.Rollback()

	state, ok := c.State(a)
	require.True(t, ok)
	assert.Equal(t, StateDeleted, state)
}
