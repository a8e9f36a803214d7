/*
Package entitycache is a change-tracking cache for diagram projects: designs
and styles, templates, diagrams with their shape trees and connections, and
the model objects shapes present.

Entities are kept in per-kind identity caches by the repository package,
which tracks every insert, update, delete and undelete until SaveChanges
hands the dirty state to a backing store in one batch. Loads from the store
are lazy and run at most once per kind or diagram.

The backing store is record based. The datastore package encodes entities
into records through the fieldstream protocol and applies them to one of the
record backends:
  - datastore/memory: in-process, for tests and scratch projects
  - datastore/sqlite: a single file shared by many projects
  - datastore/ddb: a DynamoDB single table keyed through registry index maps

Basic Usage:

	cfg, _ := config.Load("entitycache.yaml")
	repo, ds, err := entitycache.NewRepository(ctx, entitycache.DefaultBackends(), cfg, logging.Nop())
	if err != nil {
		return err
	}
	defer ds.Close()

	if err := repo.Open(ctx); err != nil {
		return err
	}
	d := model.NewDiagram("Main")
	d.AddShape(model.NewShape(registry.RectangleTypeName))
	if err := repo.InsertDiagram(d); err != nil {
		return err
	}
	return repo.SaveChanges(ctx)
*/
package entitycache
