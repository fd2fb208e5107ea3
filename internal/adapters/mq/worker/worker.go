// Package worker delivers queued notifications to their sinks.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/gearscan/internal/adapters/mq/queue"
	"github.com/okian/gearscan/internal/domain/dedupe"
	"github.com/okian/gearscan/internal/domain/model"
	"github.com/okian/gearscan/pkg/logger"
	"github.com/okian/gearscan/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Notification is what workers read off the queue.
type Notification = queue.Notification

// Sink receives delivered notifications, e.g. the result repository or a log.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n model.Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc struct {
	SinkName string
	Fn       func(ctx context.Context, n model.Notification) error
}

// Name implements Sink.
func (s SinkFunc) Name() string { return s.SinkName }

// Deliver implements Sink.
func (s SinkFunc) Deliver(ctx context.Context, n model.Notification) error { return s.Fn(ctx, n) }

// Queue defines how workers receive notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Notification
}

// Worker processes notifications.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	sinks   []Sink
	deduper dedupe.Deduper
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, sinks []Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		sinks:    sinks,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.GetOrNop().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ch := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := w.process(ctx, n); err != nil {
				w.logger.Error(ctx, "error delivering notification", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for the current notification.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process hands n to every sink. Each occurrence and kind is delivered at
// most once unless every sink failed, in which case a later notification for
// the same event may still be delivered.
func (w *InMemoryWorker) process(ctx context.Context, n Notification) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	key := n.DedupeKey()
	if w.deduper != nil && key != "" && w.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordNotificationDuplicate()
		w.logger.Debug(ctx, "duplicate notification",
			logger.String("id", n.ID),
			logger.String("key", key),
		)
		return nil
	}

	var errs []error
	for _, s := range w.sinks {
		if err := s.Deliver(ctx, n); err != nil {
			metrics.RecordSinkError(s.Name())
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	if len(errs) > 0 && len(errs) == len(w.sinks) && w.deduper != nil {
		w.deduper.Unrecord(ctx, key)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notification %s: %w", n.ID, errors.Join(errs...))
	}
	metrics.RecordNotificationDispatched(string(n.Kind))
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers sharing q, sinks and deduper.
func NewPool(workerCount int, q Queue, sinks []Sink, deduper dedupe.Deduper) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.GetOrNop().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(q, sinks,
			WithName("worker-"+strconv.Itoa(i)),
			WithDeduper(deduper),
		)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker returned, e.g. after the queue closed and drained.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Stop signals all workers and waits briefly for each.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.shutdownOnce.Do(func() { close(w.shutdown) })
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		p.Stop()
		return fmt.Errorf("pool shutdown: %w", shutdownCtx.Err())
	}
}
