/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package repository

import (
	"context"

	"github.com/suparena/entitycache/cache"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/model"
)

// deletedOwnedBy returns the Deleted entities of c owned by owner.
func deletedOwnedBy[E cache.Entity](c *cache.Cache[E], owner model.Entity) []E {
	var out []E
	for _, b := range c.Loaded() {
		if b.State == cache.StateDeleted && b.Owner == owner {
			out = append(out, b.Object)
		}
	}
	return out
}

func (r *Repository) ensureDesigns(ctx context.Context) error {
	if r.gates.designs || !r.canLoad() {
		return nil
	}
	if r.designs.LoadedLen() == 0 {
		projectID := r.project().Identity()
		if err := r.load("design", func() error { return r.store.LoadDesigns(ctx, r.view, projectID) }); err != nil {
			return err
		}
	}
	r.gates.designs = true
	return nil
}

// GetDesigns returns all designs of the project with their styles.
func (r *Repository) GetDesigns(ctx context.Context) ([]*model.Design, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	if err := r.ensureDesigns(ctx); err != nil {
		return nil, err
	}
	return r.designs.All(), nil
}

// GetDesign returns the design with the given identity.
func (r *Repository) GetDesign(ctx context.Context, id model.ID) (*model.Design, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	if d, ok := r.designs.Get(id); ok {
		return d, nil
	}
	if err := r.ensureDesigns(ctx); err != nil {
		return nil, err
	}
	return lookup(r.designs, id)
}

// GetStyle returns the style with the given identity from any design.
func (r *Repository) GetStyle(ctx context.Context, id model.ID) (model.Style, error) {
	if err := r.assertOpen(); err != nil {
		return nil, err
	}
	if s, ok := r.styles.Get(id); ok {
		return s, nil
	}
	if err := r.ensureDesigns(ctx); err != nil {
		return nil, err
	}
	return lookup(r.styles, id)
}

// InsertDesign adds a new design and the styles it already holds.
func (r *Repository) InsertDesign(d *model.Design) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	project := r.project()
	if project == nil {
		return errors.NewNotFoundError("project", r.projectName)
	}
	err := r.atomically(func() error {
		if err := r.designs.Insert(d, project); err != nil {
			return err
		}
		for _, s := range d.Styles() {
			if r.styles.Contains(s) {
				continue
			}
			if err := r.styles.Insert(s, d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.touch("design", "insert", 1)
	r.fire(Event{Kind: DesignInserted, Entities: []model.Entity{d}})
	return nil
}

// UpdateDesign records changes to the design's own fields.
func (r *Repository) UpdateDesign(d *model.Design) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if err := r.designs.Update(d); err != nil {
		return err
	}
	r.touch("design", "update", 1)
	r.fire(Event{Kind: DesignUpdated, Entities: []model.Entity{d}})
	return nil
}

// DeleteDesign deletes the design's styles, then the design.
func (r *Repository) DeleteDesign(d *model.Design) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if !r.designs.Contains(d) {
		return r.designs.Delete(d)
	}
	err := r.atomically(func() error {
		for _, s := range r.styles.OwnedBy(d) {
			if err := r.styles.Delete(s); err != nil {
				return err
			}
		}
		return r.designs.Delete(d)
	})
	if err != nil {
		return err
	}
	r.touch("design", "delete", 1)
	r.fire(Event{Kind: DesignDeleted, Entities: []model.Entity{d}})
	return nil
}

// UndeleteDesign restores a deleted design together with the styles deleted
// along with it.
func (r *Repository) UndeleteDesign(d *model.Design) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	err := r.atomically(func() error {
		if err := r.designs.Undelete(d); err != nil {
			return err
		}
		for _, s := range deletedOwnedBy(r.styles, d) {
			if err := r.styles.Undelete(s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.touch("design", "undelete", 1)
	r.fire(Event{Kind: DesignInserted, Entities: []model.Entity{d}})
	return nil
}

// InsertStyle adds a new style to the design.
func (r *Repository) InsertStyle(d *model.Design, s model.Style) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if d == nil || !r.designs.Contains(d) {
		return errors.NewNotFoundError("design", designKey(d))
	}
	if err := r.styles.Insert(s, d); err != nil {
		return err
	}
	d.AddStyle(s)
	r.touch("style", "insert", 1)
	r.fire(Event{Kind: StyleInserted, Entities: []model.Entity{s}})
	return nil
}

// UpdateStyle records changes to a style.
func (r *Repository) UpdateStyle(s model.Style) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if err := r.styles.Update(s); err != nil {
		return err
	}
	r.touch("style", "update", 1)
	r.fire(Event{Kind: StyleUpdated, Entities: []model.Entity{s}})
	return nil
}

// DeleteStyle deletes a style and removes it from its design.
func (r *Repository) DeleteStyle(s model.Style) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	owner, _ := r.styles.Owner(s)
	if err := r.styles.Delete(s); err != nil {
		return err
	}
	if d, ok := owner.(*model.Design); ok {
		d.RemoveStyle(s)
	}
	r.touch("style", "delete", 1)
	r.fire(Event{Kind: StyleDeleted, Entities: []model.Entity{s}})
	return nil
}

// UndeleteStyle restores a deleted style into its design.
func (r *Repository) UndeleteStyle(s model.Style) error {
	if err := r.assertOpen(); err != nil {
		return err
	}
	if err := r.styles.Undelete(s); err != nil {
		return err
	}
	if owner, ok := r.styles.Owner(s); ok {
		if d, ok := owner.(*model.Design); ok {
			d.AddStyle(s)
		}
	}
	r.touch("style", "undelete", 1)
	r.fire(Event{Kind: StyleInserted, Entities: []model.Entity{s}})
	return nil
}

func designKey(d *model.Design) string {
	if d == nil {
		return "<nil>"
	}
	if d.Identity() == model.NoID {
		return d.Name
	}
	return string(d.Identity())
}
