// Package catalog holds life event definitions: the in-memory catalog store,
// the packaged default catalog and the TOML catalog file format.
package catalog

import (
	"strconv"
	"strings"

	"github.com/okian/fantasyfamily/internal/domain/model"
)

// Store keeps event definitions in insertion order. It is not safe for
// concurrent use; the engine serialises access.
type Store struct {
	defs  []model.EventDefinition
	index map[string]int
}

// New returns an empty catalog.
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Define validates and appends a definition.
func (s *Store) Define(id, name string, points int, category model.Category) (model.EventDefinition, error) {
	def, err := s.Check(id, name, category)
	if err != nil {
		return model.EventDefinition{}, err
	}
	def.Points = points
	s.index[def.ID] = len(s.defs)
	s.defs = append(s.defs, def)
	return def, nil
}

// Check validates a definition without storing it. The returned value has
// the trimmed name and no points.
func (s *Store) Check(id, name string, category model.Category) (model.EventDefinition, error) {
	const op = "define event"
	name = strings.TrimSpace(name)
	if name == "" {
		return model.EventDefinition{}, model.NewKind(op, model.ErrValidation, "event name must not be empty")
	}
	if !category.Valid() {
		return model.EventDefinition{}, model.NewKind(op, model.ErrValidation, "unknown category %q", category)
	}
	if id == "" {
		return model.EventDefinition{}, model.NewKind(op, model.ErrValidation, "event id must not be empty")
	}
	if _, dup := s.index[id]; dup {
		return model.EventDefinition{}, model.NewKind(op, model.ErrValidation, "event id %q already defined", id)
	}
	return model.EventDefinition{ID: id, Name: name, Category: category}, nil
}

// Get resolves a definition by id.
func (s *Store) Get(id string) (model.EventDefinition, bool) {
	i, ok := s.index[id]
	if !ok {
		return model.EventDefinition{}, false
	}
	return s.defs[i], true
}

// List returns a copy of all definitions in insertion order.
func (s *Store) List() []model.EventDefinition {
	out := make([]model.EventDefinition, len(s.defs))
	copy(out, s.defs)
	return out
}

// Len returns the number of definitions.
func (s *Store) Len() int { return len(s.defs) }

// Reset replaces the catalog contents. Definitions are taken as already
// validated.
func (s *Store) Reset(defs []model.EventDefinition) {
	s.defs = make([]model.EventDefinition, len(defs))
	copy(s.defs, defs)
	s.index = make(map[string]int, len(defs))
	for i, d := range s.defs {
		s.index[d.ID] = i
	}
}

// ParsePoints converts raw point input into an integer.
func ParsePoints(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewKind("parse points", model.ErrValidation, "points %q is not an integer", raw)
	}
	return n, nil
}
