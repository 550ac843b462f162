package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Snapshot is the full league state exchanged with persistence and backups.
type Snapshot struct {
	Players      []Player          `json:"players"`
	LoggedEvents []LoggedEvent     `json:"loggedEvents"`
	LifeEvents   []EventDefinition `json:"lifeEvents"`
	LastSaved    time.Time         `json:"lastSaved"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Players:      make([]Player, len(s.Players)),
		LoggedEvents: make([]LoggedEvent, len(s.LoggedEvents)),
		LifeEvents:   make([]EventDefinition, len(s.LifeEvents)),
		LastSaved:    s.LastSaved,
	}
	for i, p := range s.Players {
		out.Players[i] = p.Clone()
	}
	copy(out.LoggedEvents, s.LoggedEvents)
	copy(out.LifeEvents, s.LifeEvents)
	return out
}

// Validate checks referential and field constraints of a snapshot before it
// replaces live state.
func (s Snapshot) Validate() error {
	const op = "validate snapshot"
	players := make(map[string]struct{}, len(s.Players))
	members := make(map[string]struct{})
	for _, p := range s.Players {
		if p.ID == "" {
			return NewKind(op, ErrValidation, "player %q has no id", p.Name)
		}
		if _, dup := players[p.ID]; dup {
			return NewKind(op, ErrValidation, "duplicate player id %q", p.ID)
		}
		players[p.ID] = struct{}{}
		for _, m := range p.Members {
			if m.ID == "" {
				return NewKind(op, ErrValidation, "member %q of player %q has no id", m.Name, p.ID)
			}
			if _, dup := members[m.ID]; dup {
				return NewKind(op, ErrValidation, "member %q is owned by more than one player", m.ID)
			}
			members[m.ID] = struct{}{}
		}
	}
	defs := make(map[string]struct{}, len(s.LifeEvents))
	for _, d := range s.LifeEvents {
		if d.ID == "" {
			return NewKind(op, ErrValidation, "life event %q has no id", d.Name)
		}
		if _, dup := defs[d.ID]; dup {
			return NewKind(op, ErrValidation, "duplicate life event id %q", d.ID)
		}
		if !d.Category.Valid() {
			return NewKind(op, ErrValidation, "life event %q has unknown category %q", d.ID, d.Category)
		}
		defs[d.ID] = struct{}{}
	}
	for _, e := range s.LoggedEvents {
		if !e.Category.Valid() {
			return NewKind(op, ErrValidation, "logged event %q has unknown category %q", e.ID, e.Category)
		}
	}
	return nil
}

// normalize replaces nil collections with empty ones so JSON output carries
// arrays rather than null.
func (s *Snapshot) normalize() {
	if s.Players == nil {
		s.Players = []Player{}
	}
	if s.LoggedEvents == nil {
		s.LoggedEvents = []LoggedEvent{}
	}
	if s.LifeEvents == nil {
		s.LifeEvents = []EventDefinition{}
	}
	for i := range s.Players {
		if s.Players[i].Members == nil {
			s.Players[i].Members = []FamilyMember{}
		}
	}
}

// EncodeSnapshot renders s as indented backup JSON.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	s = s.Clone()
	s.normalize()
	return json.MarshalIndent(s, "", "  ")
}

// DecodeSnapshot parses backup JSON. All three collections must be present
// as arrays, and the result must pass Validate.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	const op = "decode snapshot"
	var raw struct {
		Players      *[]Player          `json:"players"`
		LoggedEvents *[]LoggedEvent     `json:"loggedEvents"`
		LifeEvents   *[]EventDefinition `json:"lifeEvents"`
		LastSaved    *time.Time         `json:"lastSaved"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return Snapshot{}, WrapKind(op, ErrValidation, err)
	}
	if raw.Players == nil || raw.LoggedEvents == nil || raw.LifeEvents == nil {
		return Snapshot{}, NewKind(op, ErrValidation, "invalid data structure: players, loggedEvents and lifeEvents are required")
	}
	s := Snapshot{
		Players:      *raw.Players,
		LoggedEvents: *raw.LoggedEvents,
		LifeEvents:   *raw.LifeEvents,
	}
	if raw.LastSaved != nil {
		s.LastSaved = *raw.LastSaved
	}
	s.normalize()
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
