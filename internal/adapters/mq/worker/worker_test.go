package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/gearscan/internal/adapters/mq/queue"
	worker "github.com/okian/gearscan/internal/adapters/mq/worker"
	"github.com/okian/gearscan/internal/domain/dedupe"
	model "github.com/okian/gearscan/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

// recordingSink stores every delivered notification id.
type recordingSink struct {
	name string
	mu   sync.Mutex
	ids  []string
	fail error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(_ context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.ids = append(s.ids, n.ID)
	return nil
}

func (s *recordingSink) delivered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

func complete(id string) model.Notification {
	return model.Notification{ID: id, Kind: model.KindComplete, Priority: model.PriorityNormal}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		sink := &recordingSink{name: "memory"}
		w := worker.NewInMemoryWorker(q, []worker.Sink{sink},
			worker.WithName("test-worker"),
			worker.WithDeduper(dedupe.NewInMemoryDeduper()),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan struct{})
		go func() {
			w.Run(ctx)
			close(done)
		}()

		convey.Convey("When notifications are enqueued and the queue closes", func() {
			convey.So(q.Enqueue(ctx, complete("a")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, complete("b")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, complete("a")), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				convey.So("worker did not stop", convey.ShouldBeEmpty)
			}

			convey.Convey("Then each id reaches the sink once", func() {
				convey.So(sink.delivered(), convey.ShouldResemble, []string{"a", "b"})
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops cleanly and repeated shutdowns are safe", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}

func TestSinkFailures(t *testing.T) {
	convey.Convey("Given one failing and one working sink", t, func() {
		q := queue.NewInMemoryQueue()
		good := &recordingSink{name: "good"}
		bad := &recordingSink{name: "bad", fail: errors.New("disk full")}
		d := dedupe.NewInMemoryDeduper()
		pool := worker.NewPool(1, q, []worker.Sink{bad, good}, d)
		pool.Start(context.Background())

		convey.So(q.Enqueue(context.Background(), complete("a")), convey.ShouldBeNil)
		convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)

		convey.Convey("Then the working sink still receives it", func() {
			convey.So(good.delivered(), convey.ShouldResemble, []string{"a"})
			convey.So(d.SeenAndRecord(context.Background(), "a"), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given only failing sinks", t, func() {
		q := queue.NewInMemoryQueue()
		bad := &recordingSink{name: "bad", fail: errors.New("down")}
		d := dedupe.NewInMemoryDeduper()
		pool := worker.NewPool(1, q, []worker.Sink{bad}, d)
		pool.Start(context.Background())

		convey.So(q.Enqueue(context.Background(), complete("a")), convey.ShouldBeNil)
		convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)

		convey.Convey("Then the id is released for redelivery", func() {
			convey.So(d.SeenAndRecord(context.Background(), "a"), convey.ShouldBeFalse)
		})
	})
}

func TestOccurrenceDedupe(t *testing.T) {
	convey.Convey("Given two completes reported for one occurrence", t, func() {
		q := queue.NewInMemoryQueue()
		sink := &recordingSink{name: "memory"}
		pool := worker.NewPool(1, q, []worker.Sink{sink}, dedupe.NewInMemoryDeduper())
		pool.Start(context.Background())

		still := model.Notification{ID: "s1", OccurrenceID: "occ-1", Kind: model.KindStill, Priority: model.PriorityLow}
		first := model.Notification{ID: "c1", OccurrenceID: "occ-1", Kind: model.KindComplete, Priority: model.PriorityNormal}
		second := model.Notification{ID: "c2", OccurrenceID: "occ-1", Kind: model.KindComplete, Priority: model.PriorityNormal}
		other := model.Notification{ID: "c3", OccurrenceID: "occ-2", Kind: model.KindComplete, Priority: model.PriorityNormal}
		for _, n := range []model.Notification{still, first, second, other} {
			convey.So(q.Enqueue(context.Background(), n), convey.ShouldBeNil)
		}
		convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)

		convey.Convey("Then only the first complete of the occurrence is delivered", func() {
			convey.So(sink.delivered(), convey.ShouldResemble, []string{"s1", "c1", "c3"})
		})
	})

	convey.Convey("Given a sink that fails its first delivery", t, func() {
		q := queue.NewInMemoryQueue()
		var (
			mu      sync.Mutex
			failed  bool
			accepts []string
		)
		flaky := worker.SinkFunc{SinkName: "flaky", Fn: func(_ context.Context, n model.Notification) error {
			mu.Lock()
			defer mu.Unlock()
			if !failed {
				failed = true
				return errors.New("down")
			}
			accepts = append(accepts, n.ID)
			return nil
		}}
		pool := worker.NewPool(1, q, []worker.Sink{flaky}, dedupe.NewInMemoryDeduper())
		pool.Start(context.Background())

		n := model.Notification{ID: "c1", OccurrenceID: "occ-1", Kind: model.KindComplete, Priority: model.PriorityNormal}
		retry := n
		retry.ID = "c1-retry"
		convey.So(q.Enqueue(context.Background(), n), convey.ShouldBeNil)
		convey.So(q.Enqueue(context.Background(), retry), convey.ShouldBeNil)
		convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)

		convey.Convey("Then a retry for the same occurrence is still delivered", func() {
			mu.Lock()
			defer mu.Unlock()
			convey.So(accepts, convey.ShouldResemble, []string{"c1-retry"})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(256), queue.WithShedThreshold(1))
		sink := &recordingSink{name: "memory"}
		fn := 0
		var fnMu sync.Mutex
		counter := worker.SinkFunc{SinkName: "count", Fn: func(context.Context, model.Notification) error {
			fnMu.Lock()
			fn++
			fnMu.Unlock()
			return nil
		}}
		pool := worker.NewPool(4, q, []worker.Sink{sink, counter}, dedupe.NewInMemoryDeduper())
		convey.So(pool.Size(), convey.ShouldEqual, 4)
		pool.Start(context.Background())

		for i := 0; i < 100; i++ {
			id := string(rune('A'+i%26)) + string(rune('a'+i/26))
			convey.So(q.Enqueue(context.Background(), complete(id)), convey.ShouldBeNil)
		}
		convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)

		convey.Convey("Then every notification is delivered exactly once", func() {
			convey.So(len(sink.delivered()), convey.ShouldEqual, 100)
			fnMu.Lock()
			defer fnMu.Unlock()
			convey.So(fn, convey.ShouldEqual, 100)
		})
	})

	convey.Convey("A zero-sized pool falls back to one worker per CPU", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), nil, nil)
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
	})
}
