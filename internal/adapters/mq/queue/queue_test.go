package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSaveQueue_BasicOperations(t *testing.T) {
	q := New(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	ok, err := q.Enqueue(ctx, Request{Reason: "add_player"})
	if err != nil || !ok {
		t.Fatalf("expected enqueue to succeed, got ok=%v err=%v", ok, err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	r := <-q.Dequeue()
	if r.Reason != "add_player" {
		t.Errorf("expected add_player, got %q", r.Reason)
	}
	if r.At.IsZero() {
		t.Error("expected enqueue to stamp the request time")
	}
}

func TestSaveQueue_Coalescing(t *testing.T) {
	convey.Convey("Given a queue with capacity 2", t, func() {
		q := New(WithCapacity(2))
		ctx := context.Background()

		convey.Convey("When three requests arrive before the worker reads", func() {
			first, _ := q.Enqueue(ctx, Request{Reason: "a"})
			second, _ := q.Enqueue(ctx, Request{Reason: "b"})
			third, err := q.Enqueue(ctx, Request{Reason: "c"})

			convey.Convey("Then the third is coalesced without error", func() {
				convey.So(first, convey.ShouldBeTrue)
				convey.So(second, convey.ShouldBeTrue)
				convey.So(third, convey.ShouldBeFalse)
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.Len(), convey.ShouldEqual, 2)
			})
		})
	})
}

func TestSaveQueue_Close(t *testing.T) {
	convey.Convey("Given a queue holding one request", t, func() {
		q := New(WithCapacity(4))
		ctx := context.Background()
		_, _ = q.Enqueue(ctx, Request{Reason: "log_event"})

		convey.So(q.Close(), convey.ShouldBeNil)

		convey.Convey("Then enqueue fails with ErrClosed", func() {
			ok, err := q.Enqueue(ctx, Request{Reason: "late"})
			convey.So(ok, convey.ShouldBeFalse)
			convey.So(errors.Is(err, ErrClosed), convey.ShouldBeTrue)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
		})

		convey.Convey("Then buffered requests drain before the channel closes", func() {
			var reasons []string
			for r := range q.Dequeue() {
				reasons = append(reasons, r.Reason)
			}
			convey.So(reasons, convey.ShouldResemble, []string{"log_event"})
		})

		convey.Convey("Then closing twice is harmless", func() {
			convey.So(q.Close(), convey.ShouldBeNil)
		})
	})
}

func TestSaveQueue_CancelledContext(t *testing.T) {
	q := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := q.Enqueue(ctx, Request{Reason: "x"})
	if ok || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got ok=%v err=%v", ok, err)
	}
}

func TestSaveQueue_ConcurrentAccess(t *testing.T) {
	q := New(WithCapacity(1000))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := q.Enqueue(ctx, Request{Reason: fmt.Sprintf("w%d-%d", id, j)}); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	if l := q.Len(); l != 500 {
		t.Errorf("expected 500 buffered requests, got %d", l)
	}
}
