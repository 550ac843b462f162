// Package readmodel derives views from league state on demand: the
// leaderboard, per-member statistics, the members overview and catalog
// browsing. Nothing here is persisted.
package readmodel

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/fantasyfamily/internal/domain/model"
)

// RecentEventsLimit is the number of entries returned in MemberStats.Recent.
const RecentEventsLimit = 5

// Leaderboard orders players by score, highest first. Ties keep input order.
func Leaderboard(players []model.Player) []model.Player {
	out := make([]model.Player, len(players))
	for i, p := range players {
		out[i] = p.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// MemberStats summarises the ledger entries naming one member.
type MemberStats struct {
	MemberName    string              `json:"memberName"`
	TotalPoints   int                 `json:"totalPoints"`
	EventCount    int                 `json:"eventCount"`
	PositiveCount int                 `json:"positiveCount"`
	NegativeCount int                 `json:"negativeCount"`
	NeutralCount  int                 `json:"neutralCount"`
	BestEvent     *model.LoggedEvent  `json:"bestEvent"`
	WorstEvent    *model.LoggedEvent  `json:"worstEvent"`
	Recent        []model.LoggedEvent `json:"recentEvents"`
}

// ComputeMemberStats filters newest-first entries by member name. Best is the
// highest-scoring entry with positive points and worst the lowest with
// negative points; either is nil when no entry qualifies. Equal points keep
// the newer entry.
func ComputeMemberStats(entries []model.LoggedEvent, memberName string) MemberStats {
	st := MemberStats{MemberName: memberName, Recent: []model.LoggedEvent{}}
	for i := range entries {
		e := entries[i]
		if e.MemberName != memberName {
			continue
		}
		st.TotalPoints += e.Points
		st.EventCount++
		switch e.Category {
		case model.Positive:
			st.PositiveCount++
		case model.Negative:
			st.NegativeCount++
		case model.Neutral:
			st.NeutralCount++
		}
		if e.Points > 0 && (st.BestEvent == nil || e.Points > st.BestEvent.Points) {
			st.BestEvent = &e
		}
		if e.Points < 0 && (st.WorstEvent == nil || e.Points < st.WorstEvent.Points) {
			st.WorstEvent = &e
		}
		if len(st.Recent) < RecentEventsLimit {
			st.Recent = append(st.Recent, e)
		}
	}
	return st
}

// MemberOverview is one row of the members overview.
type MemberOverview struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	PlayerID      string     `json:"playerId"`
	PlayerName    string     `json:"playerName"`
	TotalPoints   int        `json:"totalPoints"`
	EventCount    int        `json:"eventCount"`
	LastEventTime *time.Time `json:"lastEventTime"`
}

// MembersOverview lists every drafted member with ledger totals, highest
// total first. A non-empty playerID restricts the rows to that player.
func MembersOverview(players []model.Player, entries []model.LoggedEvent, playerID string) []MemberOverview {
	type agg struct {
		total, count int
		last         *time.Time
	}
	byName := make(map[string]*agg)
	for i := range entries {
		e := entries[i]
		a, ok := byName[e.MemberName]
		if !ok {
			a = &agg{}
			byName[e.MemberName] = a
		}
		a.total += e.Points
		a.count++
		if a.last == nil || e.Timestamp.After(*a.last) {
			ts := e.Timestamp
			a.last = &ts
		}
	}

	rows := []MemberOverview{}
	for _, p := range players {
		if playerID != "" && p.ID != playerID {
			continue
		}
		for _, m := range p.Members {
			row := MemberOverview{ID: m.ID, Name: m.Name, PlayerID: p.ID, PlayerName: p.Name}
			if a, ok := byName[m.Name]; ok {
				row.TotalPoints, row.EventCount, row.LastEventTime = a.total, a.count, a.last
			}
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TotalPoints > rows[j].TotalPoints })
	return rows
}

// Grouped partitions the catalog by category.
type Grouped struct {
	Positive []model.EventDefinition `json:"positive"`
	Neutral  []model.EventDefinition `json:"neutral"`
	Negative []model.EventDefinition `json:"negative"`
}

// CatalogByCategory partitions definitions, each group ordered by absolute
// points descending and then name ascending.
func CatalogByCategory(defs []model.EventDefinition) Grouped {
	g := Grouped{
		Positive: []model.EventDefinition{},
		Neutral:  []model.EventDefinition{},
		Negative: []model.EventDefinition{},
	}
	for _, d := range defs {
		switch d.Category {
		case model.Positive:
			g.Positive = append(g.Positive, d)
		case model.Negative:
			g.Negative = append(g.Negative, d)
		case model.Neutral:
			g.Neutral = append(g.Neutral, d)
		}
	}
	for _, group := range [][]model.EventDefinition{g.Positive, g.Neutral, g.Negative} {
		sort.SliceStable(group, func(i, j int) bool {
			ai, aj := abs(group[i].Points), abs(group[j].Points)
			if ai != aj {
				return ai > aj
			}
			return group[i].Name < group[j].Name
		})
	}
	return g
}

// Catalog sort orders.
const (
	SortAlphabetical = "alphabetical"
	SortPointsDesc   = "points-desc"
	SortPointsAsc    = "points-asc"
)

// CatalogQuery filters and orders catalog browsing.
type CatalogQuery struct {
	Category model.Category // empty means all
	Search   string         // case-insensitive substring of the name
	Sort     string         // one of the Sort* constants; empty keeps insertion order
}

// ParseSort normalises a sort parameter. The aliases points-high and
// points-low are accepted.
func ParseSort(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case SortAlphabetical:
		return SortAlphabetical, nil
	case SortPointsDesc, "points-high":
		return SortPointsDesc, nil
	case SortPointsAsc, "points-low":
		return SortPointsAsc, nil
	default:
		return "", model.NewKind("parse sort", model.ErrValidation, "unknown sort %q", raw)
	}
}

// BrowseCatalog applies q to defs and returns a new slice.
func BrowseCatalog(defs []model.EventDefinition, q CatalogQuery) []model.EventDefinition {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := []model.EventDefinition{}
	for _, d := range defs {
		if q.Category != "" && d.Category != q.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(d.Name), search) {
			continue
		}
		out = append(out, d)
	}
	switch q.Sort {
	case SortAlphabetical:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortPointsDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	case SortPointsAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Points < out[j].Points })
	}
	return out
}

// CatalogSummary counts definitions per category with average points.
type CatalogSummary struct {
	Total       int `json:"total"`
	Positive    int `json:"positive"`
	Negative    int `json:"negative"`
	Neutral     int `json:"neutral"`
	AvgPositive int `json:"avgPositive"`
	AvgNegative int `json:"avgNegative"`
}

// SummarizeCatalog computes CatalogSummary. Averages round half up.
func SummarizeCatalog(defs []model.EventDefinition) CatalogSummary {
	var s CatalogSummary
	var posSum, negSum int
	for _, d := range defs {
		s.Total++
		switch d.Category {
		case model.Positive:
			s.Positive++
			posSum += d.Points
		case model.Negative:
			s.Negative++
			negSum += d.Points
		case model.Neutral:
			s.Neutral++
		}
	}
	s.AvgPositive = roundAvg(posSum, s.Positive)
	s.AvgNegative = roundAvg(negSum, s.Negative)
	return s
}

func roundAvg(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Floor(float64(sum)/float64(n) + 0.5))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
