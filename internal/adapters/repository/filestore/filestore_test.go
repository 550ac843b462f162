package filestore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/fantasyfamily/internal/adapters/repository"
	"github.com/okian/fantasyfamily/internal/adapters/repository/filestore"
	"github.com/okian/fantasyfamily/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleSnapshot() model.Snapshot {
	ts := time.Date(2025, 5, 4, 3, 2, 1, 0, time.UTC)
	return model.Snapshot{
		Players: []model.Player{
			{ID: "p1", Name: "Shannon", Score: 150, Members: []model.FamilyMember{{ID: "m1", Name: "Cousin Sarah"}, {ID: "m2", Name: "Uncle Rob"}}},
			{ID: "p2", Name: "Sam", Score: 0, Members: []model.FamilyMember{}},
		},
		LoggedEvents: []model.LoggedEvent{
			{ID: "l1", MemberName: "Cousin Sarah", PlayerName: "Shannon", EventName: "Gets Promotion", Points: 150, Category: model.Positive, Timestamp: ts},
		},
		LifeEvents: []model.EventDefinition{{ID: "e3", Name: "Gets Promotion", Points: 150, Category: model.Positive}},
		LastSaved:  ts,
	}
}

func TestFileStore(t *testing.T) {
	Convey("Given a file store in a fresh directory", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "nested", "league.json")
		s, err := filestore.New(path)
		So(err, ShouldBeNil)

		Convey("Then Load reports absent before any save", func() {
			_, ok, err := s.Load(ctx)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("When a snapshot is saved", func() {
			snap := sampleSnapshot()
			So(s.Save(ctx, snap), ShouldBeNil)

			Convey("Then it round-trips with timestamps intact", func() {
				got, ok, err := s.Load(ctx)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(got.Players, ShouldResemble, snap.Players)
				So(got.LifeEvents, ShouldResemble, snap.LifeEvents)
				So(got.LoggedEvents[0].Timestamp.Equal(snap.LoggedEvents[0].Timestamp), ShouldBeTrue)
				So(got.LastSaved.Equal(snap.LastSaved), ShouldBeTrue)
			})

			Convey("Then no temporary file is left behind", func() {
				_, err := os.Stat(path + ".tmp")
				So(os.IsNotExist(err), ShouldBeTrue)
			})

			Convey("Then Clear removes the file", func() {
				So(s.Clear(ctx), ShouldBeNil)
				So(s.Clear(ctx), ShouldBeNil)
				_, ok, _ := s.Load(ctx)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the file holds garbage", func() {
			So(os.MkdirAll(filepath.Dir(path), 0o755), ShouldBeNil)
			So(os.WriteFile(path, []byte(`{"players": []}`), 0o644), ShouldBeNil)

			_, _, err := s.Load(ctx)
			So(errors.Is(err, repository.ErrCorrupt), ShouldBeTrue)
		})

		Convey("When closed", func() {
			So(s.Close(), ShouldBeNil)
			So(errors.Is(s.Save(ctx, sampleSnapshot()), repository.ErrClosed), ShouldBeTrue)
		})
	})

	Convey("Given an empty path", t, func() {
		_, err := filestore.New("")
		So(err, ShouldNotBeNil)
	})
}
