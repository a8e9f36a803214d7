/*
Package repository implements the change-tracking cache of a diagram project.

A Repository keeps one identity-indexed cache per entity kind and records
every insert, update, delete and undelete in memory. Cascades follow the
ownership graph:

	project settings ── model ── model objects ── child model objects
	                 ├─ designs ── styles
	                 ├─ templates ── shape tree, model objects, model mappings
	                 └─ diagrams ── shape tree, connections

Nothing reaches the backing store until SaveChanges, which hands a View of
the dirty state to the Store and accepts all changes once the store
succeeded. Loads are lazy: each "get all" accessor asks the store for a bulk
load at most once per open session.

Basic usage:

	repo := repository.New(reg, repository.WithStore(store), repository.WithProjectName("demo"))
	if err := repo.Create(ctx); err != nil {
	    return err
	}
	d := model.NewDiagram("Overview")
	_ = repo.InsertDiagram(d)
	_ = repo.SaveChanges(ctx)

A Repository is not safe for concurrent use.
*/
package repository
