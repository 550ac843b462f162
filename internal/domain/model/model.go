// Package model contains the league entities shared by the domain stores,
// the engine and the persistence adapters.
package model

import (
	"strings"
	"time"
)

// Category classifies an event definition or a logged event.
type Category string

// Known categories.
const (
	Positive Category = "positive"
	Negative Category = "negative"
	Neutral  Category = "neutral"
)

// Categories lists the known categories in display order.
var Categories = []Category{Positive, Neutral, Negative} //nolint:gochecknoglobals // read-only table

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case Positive, Negative, Neutral:
		return true
	default:
		return false
	}
}

// ParseCategory normalises raw input into a Category.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", NewKind("parse category", ErrValidation, "unknown category %q", raw)
	}
	return c, nil
}

// EventDefinition is a catalog entry describing a potential occurrence.
type EventDefinition struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Points   int      `json:"points"`
	Category Category `json:"category"`
}

// FamilyMember is a drafted entity owned by exactly one player.
type FamilyMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Player is a team owner competing on score.
type Player struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Score   int            `json:"score"`
	Members []FamilyMember `json:"members"`
}

// Clone returns a deep copy of p.
func (p Player) Clone() Player {
	out := p
	out.Members = make([]FamilyMember, len(p.Members))
	copy(out.Members, p.Members)
	return out
}

// LoggedEvent is a denormalised record of a definition applied to a member.
// Player and member are referenced by name.
type LoggedEvent struct {
	ID         string    `json:"id"`
	MemberName string    `json:"memberName"`
	PlayerName string    `json:"playerName"`
	EventName  string    `json:"eventName"`
	Points     int       `json:"points"`
	Category   Category  `json:"category"`
	Timestamp  time.Time `json:"timestamp"`
}

// Trade audit entry constants.
const (
	TradeEventName = "Member Traded"
	tradeArrow     = " → "
)

// TradeLabel builds the composite player label of a trade audit entry.
func TradeLabel(from, to string) string {
	return from + tradeArrow + to
}
