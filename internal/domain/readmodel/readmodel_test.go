package readmodel_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/fantasyfamily/internal/domain/model"
	"github.com/okian/fantasyfamily/internal/domain/readmodel"
	"github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func logged(id, member string, points int, cat model.Category, ago time.Duration) model.LoggedEvent {
	return model.LoggedEvent{ID: id, MemberName: member, PlayerName: "P", EventName: "E" + id, Points: points, Category: cat, Timestamp: t0.Add(-ago)}
}

func names(players []model.Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}

func defNames(defs []model.EventDefinition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}

func TestLeaderboard(t *testing.T) {
	convey.Convey("Given players with tied and distinct scores", t, func() {
		in := []model.Player{
			{ID: "1", Name: "A", Score: 10},
			{ID: "2", Name: "B", Score: 50},
			{ID: "3", Name: "C", Score: 10},
			{ID: "4", Name: "D", Score: -5},
			{ID: "5", Name: "E", Score: 50},
		}

		board := readmodel.Leaderboard(in)

		convey.So(names(board), convey.ShouldResemble, []string{"B", "E", "A", "C", "D"})
		convey.So(names(in), convey.ShouldResemble, []string{"A", "B", "C", "D", "E"})
		convey.So(readmodel.Leaderboard(nil), convey.ShouldBeEmpty)
	})
}

func TestMemberStats(t *testing.T) {
	convey.Convey("Given a newest-first ledger", t, func() {
		entries := []model.LoggedEvent{
			logged("7", "Sarah", 0, model.Neutral, 0),
			logged("6", "Rob", 500, model.Positive, time.Hour),
			logged("5", "Sarah", 150, model.Positive, 2*time.Hour),
			logged("4", "Sarah", -50, model.Negative, 3*time.Hour),
			logged("3", "Sarah", 150, model.Positive, 4*time.Hour),
			logged("2", "Sarah", -200, model.Negative, 5*time.Hour),
			logged("1", "Sarah", 20, model.Positive, 6*time.Hour),
		}

		st := readmodel.ComputeMemberStats(entries, "Sarah")

		convey.So(st.TotalPoints, convey.ShouldEqual, 70)
		convey.So(st.EventCount, convey.ShouldEqual, 6)
		convey.So(st.PositiveCount, convey.ShouldEqual, 3)
		convey.So(st.NegativeCount, convey.ShouldEqual, 2)
		convey.So(st.NeutralCount, convey.ShouldEqual, 1)
		convey.So(st.BestEvent.ID, convey.ShouldEqual, "5")
		convey.So(st.WorstEvent.ID, convey.ShouldEqual, "2")
		convey.So(len(st.Recent), convey.ShouldEqual, 5)
		convey.So(st.Recent[0].ID, convey.ShouldEqual, "7")
		convey.So(st.Recent[4].ID, convey.ShouldEqual, "2")
	})

	convey.Convey("Given only neutral entries", t, func() {
		st := readmodel.ComputeMemberStats([]model.LoggedEvent{logged("1", "Sam", 0, model.Neutral, 0)}, "Sam")

		convey.So(st.BestEvent, convey.ShouldBeNil)
		convey.So(st.WorstEvent, convey.ShouldBeNil)
		convey.So(st.EventCount, convey.ShouldEqual, 1)
	})

	convey.Convey("Given an unknown member", t, func() {
		st := readmodel.ComputeMemberStats(nil, "Nobody")

		convey.So(st.EventCount, convey.ShouldEqual, 0)
		convey.So(st.Recent, convey.ShouldNotBeNil)
	})
}

func TestMembersOverview(t *testing.T) {
	convey.Convey("Given two players with members and a ledger", t, func() {
		players := []model.Player{
			{ID: "p1", Name: "A", Members: []model.FamilyMember{{ID: "m1", Name: "Sarah"}, {ID: "m2", Name: "Quiet"}}},
			{ID: "p2", Name: "B", Members: []model.FamilyMember{{ID: "m3", Name: "Rob"}}},
		}
		entries := []model.LoggedEvent{
			logged("3", "Rob", 300, model.Positive, 0),
			logged("2", "Sarah", -20, model.Negative, time.Hour),
			logged("1", "Sarah", 100, model.Positive, 2*time.Hour),
		}

		rows := readmodel.MembersOverview(players, entries, "")

		convey.So(len(rows), convey.ShouldEqual, 3)
		convey.So(rows[0].Name, convey.ShouldEqual, "Rob")
		convey.So(rows[0].PlayerName, convey.ShouldEqual, "B")
		convey.So(rows[1].Name, convey.ShouldEqual, "Sarah")
		convey.So(rows[1].TotalPoints, convey.ShouldEqual, 80)
		convey.So(rows[1].EventCount, convey.ShouldEqual, 2)
		convey.So(rows[1].LastEventTime.Equal(t0.Add(-time.Hour)), convey.ShouldBeTrue)
		convey.So(rows[2].Name, convey.ShouldEqual, "Quiet")
		convey.So(rows[2].LastEventTime, convey.ShouldBeNil)

		filtered := readmodel.MembersOverview(players, entries, "p1")
		convey.So(len(filtered), convey.ShouldEqual, 2)
		convey.So(readmodel.MembersOverview(players, entries, "ghost"), convey.ShouldBeEmpty)
	})
}

func TestCatalogViews(t *testing.T) {
	defs := []model.EventDefinition{
		{ID: "1", Name: "Buys House", Points: 120, Category: model.Positive},
		{ID: "2", Name: "Dies", Points: -1000, Category: model.Negative},
		{ID: "3", Name: "Adopts Child", Points: 180, Category: model.Positive},
		{ID: "4", Name: "Moves", Points: 0, Category: model.Neutral},
		{ID: "5", Name: "Arrested", Points: -120, Category: model.Negative},
		{ID: "6", Name: "Award", Points: 120, Category: model.Positive},
		{ID: "7", Name: "Gets Fired", Points: -51, Category: model.Negative},
	}

	convey.Convey("Given a catalog grouped by category", t, func() {
		g := readmodel.CatalogByCategory(defs)

		convey.So(defNames(g.Positive), convey.ShouldResemble, []string{"Adopts Child", "Award", "Buys House"})
		convey.So(defNames(g.Negative), convey.ShouldResemble, []string{"Dies", "Arrested", "Gets Fired"})
		convey.So(defNames(g.Neutral), convey.ShouldResemble, []string{"Moves"})
	})

	convey.Convey("Given catalog browsing", t, func() {
		convey.So(defNames(readmodel.BrowseCatalog(defs, readmodel.CatalogQuery{Category: model.Negative, Sort: readmodel.SortPointsAsc})),
			convey.ShouldResemble, []string{"Dies", "Arrested", "Gets Fired"})
		convey.So(defNames(readmodel.BrowseCatalog(defs, readmodel.CatalogQuery{Search: "AR"})),
			convey.ShouldResemble, []string{"Arrested", "Award"})
		convey.So(defNames(readmodel.BrowseCatalog(defs, readmodel.CatalogQuery{Sort: readmodel.SortAlphabetical}))[0],
			convey.ShouldEqual, "Adopts Child")
		convey.So(defNames(readmodel.BrowseCatalog(defs, readmodel.CatalogQuery{Sort: readmodel.SortPointsDesc}))[0],
			convey.ShouldEqual, "Adopts Child")
		convey.So(len(readmodel.BrowseCatalog(defs, readmodel.CatalogQuery{})), convey.ShouldEqual, len(defs))
	})

	convey.Convey("Given sort parameters", t, func() {
		s, err := readmodel.ParseSort("Points-High")
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, readmodel.SortPointsDesc)

		s, _ = readmodel.ParseSort("points-low")
		convey.So(s, convey.ShouldEqual, readmodel.SortPointsAsc)

		_, err = readmodel.ParseSort("random")
		convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
	})

	convey.Convey("Given a catalog summary", t, func() {
		s := readmodel.SummarizeCatalog(defs)

		convey.So(s.Total, convey.ShouldEqual, 7)
		convey.So(s.Positive, convey.ShouldEqual, 3)
		convey.So(s.Negative, convey.ShouldEqual, 3)
		convey.So(s.Neutral, convey.ShouldEqual, 1)
		convey.So(s.AvgPositive, convey.ShouldEqual, 140)
		// (-1000 - 120 - 51) / 3 = -390.33
		convey.So(s.AvgNegative, convey.ShouldEqual, -390)
		convey.So(readmodel.SummarizeCatalog(nil), convey.ShouldResemble, readmodel.CatalogSummary{})
	})
}
