/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package repository

import (
	"github.com/suparena/entitycache/model"
)

// EventKind identifies the mutation an Event reports.
type EventKind int

const (
	ProjectUpdated EventKind = iota + 1
	DesignInserted
	DesignUpdated
	DesignDeleted
	StyleInserted
	StyleUpdated
	StyleDeleted
	TemplateInserted
	TemplateUpdated
	TemplateDeleted
	TemplateShapeReplaced
	ModelMappingsInserted
	ModelMappingsUpdated
	ModelMappingsDeleted
	DiagramInserted
	DiagramUpdated
	DiagramDeleted
	ShapesInserted
	ShapesUpdated
	ShapesDeleted
	ModelObjectsInserted
	ModelObjectsUpdated
	ModelObjectsDeleted
	ConnectionInserted
	ConnectionDeleted
)

var eventKindNames = map[EventKind]string{
	ProjectUpdated:        "project updated",
	DesignInserted:        "design inserted",
	DesignUpdated:         "design updated",
	DesignDeleted:         "design deleted",
	StyleInserted:         "style inserted",
	StyleUpdated:          "style updated",
	StyleDeleted:          "style deleted",
	TemplateInserted:      "template inserted",
	TemplateUpdated:       "template updated",
	TemplateDeleted:       "template deleted",
	TemplateShapeReplaced: "template shape replaced",
	ModelMappingsInserted: "model mappings inserted",
	ModelMappingsUpdated:  "model mappings updated",
	ModelMappingsDeleted:  "model mappings deleted",
	DiagramInserted:       "diagram inserted",
	DiagramUpdated:        "diagram updated",
	DiagramDeleted:        "diagram deleted",
	ShapesInserted:        "shapes inserted",
	ShapesUpdated:         "shapes updated",
	ShapesDeleted:         "shapes deleted",
	ModelObjectsInserted:  "model objects inserted",
	ModelObjectsUpdated:   "model objects updated",
	ModelObjectsDeleted:   "model objects deleted",
	ConnectionInserted:    "connection inserted",
	ConnectionDeleted:     "connection deleted",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event describes one completed mutation. Handlers must treat it as
// read-only.
type Event struct {
	Kind     EventKind
	Entities []model.Entity
	// Diagram is the diagram displaying the affected shapes, if any.
	Diagram *model.Diagram
	// Template is set for template and model mapping events.
	Template   *model.Template
	Connection *model.ShapeConnection
	OldShape   *model.Shape
	NewShape   *model.Shape
}

// Handler receives events synchronously after the mutation completed.
type Handler func(Event)

// Subscribe registers h and returns a function that removes it.
func (r *Repository) Subscribe(h Handler) (unsubscribe func()) {
	id := r.nextHandler
	r.nextHandler++
	r.handlers[id] = h
	r.handlerOrder = append(r.handlerOrder, id)
	return func() {
		delete(r.handlers, id)
		for i, hid := range r.handlerOrder {
			if hid == id {
				r.handlerOrder = append(r.handlerOrder[:i], r.handlerOrder[i+1:]...)
				break
			}
		}
	}
}

func (r *Repository) fire(ev Event) {
	r.logger.Debug().Str("event", ev.Kind.String()).Int("entities", len(ev.Entities)).Msg("notify")
	for _, id := range append([]int(nil), r.handlerOrder...) {
		if h, ok := r.handlers[id]; ok {
			h(ev)
		}
	}
}

func entities[E model.Entity](items []E) []model.Entity {
	out := make([]model.Entity, len(items))
	for i, e := range items {
		out[i] = e
	}
	return out
}
