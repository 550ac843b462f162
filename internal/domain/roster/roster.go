// Package roster holds players and the family members they own.
package roster

import (
	"strings"

	"github.com/okian/fantasyfamily/internal/domain/model"
)

// Store keeps players in insertion order. It is not safe for concurrent use;
// the engine serialises access.
type Store struct {
	players []model.Player
}

// New returns an empty roster.
func New() *Store {
	return &Store{}
}

// AddPlayer appends a player with score 0 and no members.
func (s *Store) AddPlayer(id, name string) (model.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Player{}, model.NewKind("add player", model.ErrValidation, "player name must not be empty")
	}
	p := model.Player{ID: id, Name: name, Members: []model.FamilyMember{}}
	s.players = append(s.players, p)
	return p.Clone(), nil
}

// CheckDraft validates a draft without applying it.
func (s *Store) CheckDraft(playerID, name string) (string, error) {
	const op = "draft member"
	if s.find(playerID) < 0 {
		return "", model.NewKind(op, model.ErrNotFound, "player %q", playerID)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.NewKind(op, model.ErrValidation, "member name must not be empty")
	}
	return name, nil
}

// DraftMember appends a new member to the player's list.
func (s *Store) DraftMember(playerID, memberID, name string) (model.FamilyMember, error) {
	name, err := s.CheckDraft(playerID, name)
	if err != nil {
		return model.FamilyMember{}, err
	}
	i := s.find(playerID)
	m := model.FamilyMember{ID: memberID, Name: name}
	s.players[i].Members = append(s.players[i].Members, m)
	return m, nil
}

// Rename changes a player's name. An empty or unchanged name is a no-op and
// reports changed=false.
func (s *Store) Rename(playerID, newName string) (oldName string, changed bool, err error) {
	i := s.find(playerID)
	if i < 0 {
		return "", false, model.NewKind("rename player", model.ErrNotFound, "player %q", playerID)
	}
	oldName = s.players[i].Name
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == oldName {
		return oldName, false, nil
	}
	s.players[i].Name = newName
	return oldName, true, nil
}

// Delete removes a player together with its members and returns the removed
// player.
func (s *Store) Delete(playerID string) (model.Player, error) {
	i := s.find(playerID)
	if i < 0 {
		return model.Player{}, model.NewKind("delete player", model.ErrNotFound, "player %q", playerID)
	}
	removed := s.players[i]
	s.players = append(s.players[:i:i], s.players[i+1:]...)
	return removed, nil
}

// Player returns a copy of the player with the given id.
func (s *Store) Player(id string) (model.Player, bool) {
	i := s.find(id)
	if i < 0 {
		return model.Player{}, false
	}
	return s.players[i].Clone(), true
}

// OwnerOf finds the player owning memberID by scanning every member list.
func (s *Store) OwnerOf(memberID string) (model.Player, model.FamilyMember, bool) {
	for _, p := range s.players {
		for _, m := range p.Members {
			if m.ID == memberID {
				return p.Clone(), m, true
			}
		}
	}
	return model.Player{}, model.FamilyMember{}, false
}

// AddScore adjusts a player's running score. It is the only score writer.
func (s *Store) AddScore(playerID string, delta int) error {
	i := s.find(playerID)
	if i < 0 {
		return model.NewKind("add score", model.ErrNotFound, "player %q", playerID)
	}
	s.players[i].Score += delta
	return nil
}

// MoveMember detaches memberID from its owner and appends it, unchanged, to
// the destination player's list.
func (s *Store) MoveMember(memberID, toPlayerID string) error {
	const op = "move member"
	to := s.find(toPlayerID)
	if to < 0 {
		return model.NewKind(op, model.ErrNotFound, "player %q", toPlayerID)
	}
	for pi := range s.players {
		members := s.players[pi].Members
		for mi, m := range members {
			if m.ID != memberID {
				continue
			}
			if pi == to {
				return nil
			}
			s.players[pi].Members = append(members[:mi:mi], members[mi+1:]...)
			s.players[to].Members = append(s.players[to].Members, m)
			return nil
		}
	}
	return model.NewKind(op, model.ErrNotFound, "member %q", memberID)
}

// List returns deep copies of all players in insertion order.
func (s *Store) List() []model.Player {
	out := make([]model.Player, len(s.players))
	for i, p := range s.players {
		out[i] = p.Clone()
	}
	return out
}

// Len returns the number of players.
func (s *Store) Len() int { return len(s.players) }

// MemberCount returns the number of drafted members across all players.
func (s *Store) MemberCount() int {
	n := 0
	for _, p := range s.players {
		n += len(p.Members)
	}
	return n
}

// Reset replaces the roster contents.
func (s *Store) Reset(players []model.Player) {
	s.players = make([]model.Player, len(players))
	for i, p := range players {
		s.players[i] = p.Clone()
	}
}

func (s *Store) find(id string) int {
	for i := range s.players {
		if s.players[i].ID == id {
			return i
		}
	}
	return -1
}
