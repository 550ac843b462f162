package pgstore

import (
	"time"

	"github.com/okian/fantasyfamily/internal/domain/model"
)

// LeagueMeta marks that a snapshot has been saved.
type LeagueMeta struct {
	ID        int       `gorm:"primaryKey"`
	LastSaved time.Time `gorm:"type:timestamptz;not null"`
}

// PlayerRow maps to the players table.
type PlayerRow struct {
	ID        string    `gorm:"primaryKey;type:varchar(255)"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Score     int       `gorm:"not null;default:0"`
	Position  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (PlayerRow) TableName() string { return "players" }

// FamilyMemberRow maps to the family_members table.
type FamilyMemberRow struct {
	ID        string    `gorm:"primaryKey;type:varchar(255)"`
	Name      string    `gorm:"type:varchar(255);not null"`
	PlayerID  string    `gorm:"type:varchar(255);index;not null"`
	Position  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (FamilyMemberRow) TableName() string { return "family_members" }

// LifeEventRow maps to the life_events table.
type LifeEventRow struct {
	ID        string    `gorm:"primaryKey;type:varchar(255)"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Points    int       `gorm:"not null"`
	Category  string    `gorm:"type:varchar(50);not null"`
	Position  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (LifeEventRow) TableName() string { return "life_events" }

// LoggedEventRow maps to the logged_events table. Position is the key since
// ledger ids are not required to be unique across imports.
type LoggedEventRow struct {
	Position   int       `gorm:"primaryKey;autoIncrement:false"`
	ID         string    `gorm:"column:event_id;type:varchar(255);not null"`
	MemberName string    `gorm:"type:varchar(255);not null"`
	PlayerName string    `gorm:"type:varchar(255);index;not null"`
	EventName  string    `gorm:"type:varchar(255);not null"`
	Points     int       `gorm:"not null"`
	Category   string    `gorm:"type:varchar(50);not null"`
	Timestamp  time.Time `gorm:"type:timestamptz;not null"`
}

func (LoggedEventRow) TableName() string { return "logged_events" }

// rowSet is a snapshot flattened into table rows.
type rowSet struct {
	players []PlayerRow
	members []FamilyMemberRow
	defs    []LifeEventRow
	entries []LoggedEventRow
}

func toRows(snap model.Snapshot, now time.Time) rowSet {
	var rs rowSet
	for i, p := range snap.Players {
		rs.players = append(rs.players, PlayerRow{ID: p.ID, Name: p.Name, Score: p.Score, Position: i, CreatedAt: now, UpdatedAt: now})
		for j, m := range p.Members {
			rs.members = append(rs.members, FamilyMemberRow{ID: m.ID, Name: m.Name, PlayerID: p.ID, Position: j, CreatedAt: now})
		}
	}
	for i, d := range snap.LifeEvents {
		rs.defs = append(rs.defs, LifeEventRow{ID: d.ID, Name: d.Name, Points: d.Points, Category: string(d.Category), Position: i, CreatedAt: now})
	}
	for i, e := range snap.LoggedEvents {
		rs.entries = append(rs.entries, LoggedEventRow{
			Position: i, ID: e.ID, MemberName: e.MemberName, PlayerName: e.PlayerName,
			EventName: e.EventName, Points: e.Points, Category: string(e.Category), Timestamp: e.Timestamp.UTC(),
		})
	}
	return rs
}

// fromRows rebuilds a snapshot. Rows must already be ordered by position;
// members are grouped under their player.
func fromRows(rs rowSet, lastSaved time.Time) model.Snapshot {
	snap := model.Snapshot{
		Players:      make([]model.Player, 0, len(rs.players)),
		LifeEvents:   make([]model.EventDefinition, 0, len(rs.defs)),
		LoggedEvents: make([]model.LoggedEvent, 0, len(rs.entries)),
		LastSaved:    lastSaved,
	}
	index := make(map[string]int, len(rs.players))
	for _, p := range rs.players {
		index[p.ID] = len(snap.Players)
		snap.Players = append(snap.Players, model.Player{ID: p.ID, Name: p.Name, Score: p.Score, Members: []model.FamilyMember{}})
	}
	for _, m := range rs.members {
		if i, ok := index[m.PlayerID]; ok {
			snap.Players[i].Members = append(snap.Players[i].Members, model.FamilyMember{ID: m.ID, Name: m.Name})
		}
	}
	for _, d := range rs.defs {
		snap.LifeEvents = append(snap.LifeEvents, model.EventDefinition{ID: d.ID, Name: d.Name, Points: d.Points, Category: model.Category(d.Category)})
	}
	for _, e := range rs.entries {
		snap.LoggedEvents = append(snap.LoggedEvents, model.LoggedEvent{
			ID: e.ID, MemberName: e.MemberName, PlayerName: e.PlayerName, EventName: e.EventName,
			Points: e.Points, Category: model.Category(e.Category), Timestamp: e.Timestamp.UTC(),
		})
	}
	return snap
}
