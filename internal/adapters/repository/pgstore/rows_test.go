package pgstore

import (
	"testing"
	"time"

	"github.com/okian/fantasyfamily/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRowMapping(t *testing.T) {
	Convey("Given a snapshot with ordered members, definitions and entries", t, func() {
		ts := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
		snap := model.Snapshot{
			Players: []model.Player{
				{ID: "pB", Name: "Sam", Score: -50, Members: []model.FamilyMember{{ID: "m9", Name: "Grandpa Joe"}, {ID: "m3", Name: "Aunt Carol"}}},
				{ID: "pA", Name: "Shannon", Score: 150, Members: []model.FamilyMember{}},
			},
			LifeEvents: []model.EventDefinition{
				{ID: "e2", Name: "Has Baby", Points: 200, Category: model.Positive},
				{ID: "e1", Name: "Marriage", Points: 100, Category: model.Positive},
			},
			LoggedEvents: []model.LoggedEvent{
				{ID: "dup", MemberName: "Aunt Carol", PlayerName: "Sam", EventName: "Has Baby", Points: 200, Category: model.Positive, Timestamp: ts},
				{ID: "dup", MemberName: "Aunt Carol", PlayerName: "Sam", EventName: "Has Baby", Points: 200, Category: model.Positive, Timestamp: ts.Add(-time.Minute)},
			},
			LastSaved: ts,
		}

		rs := toRows(snap, ts)

		Convey("Then rows carry positions and owning player ids", func() {
			So(len(rs.players), ShouldEqual, 2)
			So(rs.players[0].Position, ShouldEqual, 0)
			So(len(rs.members), ShouldEqual, 2)
			So(rs.members[1].PlayerID, ShouldEqual, "pB")
			So(rs.members[1].Position, ShouldEqual, 1)
			So(rs.entries[1].Position, ShouldEqual, 1)
		})

		Convey("Then rebuilding from rows restores the snapshot", func() {
			got := fromRows(rs, ts)
			So(got.Players, ShouldResemble, snap.Players)
			So(got.LifeEvents, ShouldResemble, snap.LifeEvents)
			So(got.LoggedEvents, ShouldResemble, snap.LoggedEvents)
			So(got.LastSaved, ShouldEqual, ts)
		})

		Convey("Then orphaned member rows are ignored", func() {
			rs.members = append(rs.members, FamilyMemberRow{ID: "ghost", Name: "Ghost", PlayerID: "missing"})
			got := fromRows(rs, ts)
			So(len(got.Players[0].Members), ShouldEqual, 2)
		})
	})

	Convey("Table names follow the relational schema", t, func() {
		So(PlayerRow{}.TableName(), ShouldEqual, "players")
		So(FamilyMemberRow{}.TableName(), ShouldEqual, "family_members")
		So(LifeEventRow{}.TableName(), ShouldEqual, "life_events")
		So(LoggedEventRow{}.TableName(), ShouldEqual, "logged_events")
	})
}
