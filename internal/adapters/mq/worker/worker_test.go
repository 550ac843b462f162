package worker_test

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/okian/fantasyfamily/internal/adapters/mq/queue"
	"github.com/okian/fantasyfamily/internal/adapters/mq/worker"
	"github.com/okian/fantasyfamily/internal/adapters/repository"
	"github.com/okian/fantasyfamily/internal/domain/model"
	logging "github.com/okian/fantasyfamily/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logging.Init(logging.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeSource struct {
	mu   sync.Mutex
	snap model.Snapshot
}

func (f *fakeSource) Snapshot() model.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap.Clone()
}

func (f *fakeSource) setScore(score int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.Players[0].Score = score
}

func newSource() *fakeSource {
	return &fakeSource{snap: model.Snapshot{
		Players:      []model.Player{{ID: "p1", Name: "Shannon", Members: []model.FamilyMember{}}},
		LoggedEvents: []model.LoggedEvent{},
		LifeEvents:   []model.EventDefinition{},
	}}
}

type flakyStore struct {
	*repository.MemoryStore
	mu  sync.Mutex
	err error
}

func (f *flakyStore) Save(ctx context.Context, snap model.Snapshot) error {
	f.mu.Lock()
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.Save(ctx, snap)
}

func (f *flakyStore) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestSaver_Debounce(t *testing.T) {
	convey.Convey("Given a running saver with a short debounce", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store := repository.NewMemoryStore()
		src := newSource()
		s := worker.NewSaver(queue.New(), src, store, worker.WithDebounce(30*time.Millisecond))
		s.Start(ctx)

		convey.Convey("When a burst of requests arrives", func() {
			for i := 1; i <= 5; i++ {
				src.setScore(i * 10)
				convey.So(s.Request(ctx, "log_event"), convey.ShouldBeNil)
			}
			convey.So(s.Status().Pending, convey.ShouldBeTrue)

			convey.Convey("Then one save writes the latest state", func() {
				convey.So(waitFor(t, func() bool { return store.Saves() >= 1 }), convey.ShouldBeTrue)
				time.Sleep(80 * time.Millisecond)
				convey.So(store.Saves(), convey.ShouldEqual, 1)

				snap, ok, err := store.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(snap.Players[0].Score, convey.ShouldEqual, 50)
				convey.So(snap.LastSaved.IsZero(), convey.ShouldBeFalse)

				st := s.Status()
				convey.So(st.Pending, convey.ShouldBeFalse)
				convey.So(st.LastSaved, convey.ShouldEqual, snap.LastSaved)
			})
		})

		convey.Reset(func() {
			_ = s.Shutdown(context.Background())
		})
	})
}

func TestSaver_SaveNow(t *testing.T) {
	convey.Convey("Given a saver with a fixed clock", t, func() {
		ctx := context.Background()
		at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		store := &flakyStore{MemoryStore: repository.NewMemoryStore()}
		s := worker.NewSaver(queue.New(), newSource(), store, worker.WithClock(func() time.Time { return at }))

		convey.Convey("Then a successful save stamps lastSaved", func() {
			convey.So(s.SaveNow(ctx), convey.ShouldBeNil)
			snap, _, _ := store.Load(ctx)
			convey.So(snap.LastSaved, convey.ShouldEqual, at)
			convey.So(s.Status().LastSaved, convey.ShouldEqual, at)
		})

		convey.Convey("When the store fails", func() {
			boom := errors.New("disk full")
			store.fail(boom)
			_ = s.Request(ctx, "add_player")
			err := s.SaveNow(ctx)

			convey.Convey("Then the error is a persistence error and is reported", func() {
				convey.So(errors.Is(err, model.ErrPersistence), convey.ShouldBeTrue)
				convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
				st := s.Status()
				convey.So(st.Pending, convey.ShouldBeTrue)
				convey.So(st.LastError, convey.ShouldEqual, "disk full")
			})

			convey.Convey("Then the next successful save clears the error", func() {
				store.fail(nil)
				convey.So(s.SaveNow(ctx), convey.ShouldBeNil)
				st := s.Status()
				convey.So(st.Pending, convey.ShouldBeFalse)
				convey.So(st.LastError, convey.ShouldBeEmpty)
			})
		})
	})
}

func TestSaver_Shutdown(t *testing.T) {
	convey.Convey("Given a saver with a long debounce", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		s := worker.NewSaver(queue.New(), newSource(), store, worker.WithDebounce(time.Hour))
		s.Start(ctx)

		convey.So(s.Request(ctx, "draft_member"), convey.ShouldBeNil)

		convey.Convey("When it shuts down", func() {
			convey.So(s.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then pending changes are flushed", func() {
				convey.So(store.Saves(), convey.ShouldEqual, 1)
				convey.So(s.Status().Pending, convey.ShouldBeFalse)
			})

			convey.Convey("Then further requests are rejected", func() {
				err := s.Request(ctx, "late")
				convey.So(errors.Is(err, queue.ErrClosed), convey.ShouldBeTrue)
			})

			convey.Convey("Then a second shutdown flushes the rejected request", func() {
				_ = s.Request(ctx, "late")
				convey.So(s.Shutdown(ctx), convey.ShouldBeNil)
				convey.So(store.Saves(), convey.ShouldEqual, 2)
			})
		})
	})

	convey.Convey("A saver that never started still flushes on shutdown", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		s := worker.NewSaver(queue.New(), newSource(), store)
		_ = s.Request(ctx, "add_player")
		convey.So(s.Shutdown(ctx), convey.ShouldBeNil)
		convey.So(store.Saves(), convey.ShouldEqual, 1)
	})

	convey.Convey("Nothing is written when nothing changed", t, func() {
		store := repository.NewMemoryStore()
		s := worker.NewSaver(queue.New(), newSource(), store)
		s.MarkSaved(time.Now())
		convey.So(s.Shutdown(context.Background()), convey.ShouldBeNil)
		convey.So(store.Saves(), convey.ShouldEqual, 0)
	})
}

func TestSaver_ImmediateMode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := repository.NewMemoryStore()
	s := worker.NewSaver(queue.New(), newSource(), store, worker.WithDebounce(0))
	s.Start(ctx)
	defer func() { _ = s.Shutdown(context.Background()) }()

	if err := s.Request(ctx, "define_event"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if !waitFor(t, func() bool { return store.Saves() == 1 }) {
		t.Fatalf("expected one save, got %d", store.Saves())
	}
}
