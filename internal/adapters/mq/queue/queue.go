// Package queue buffers scene notifications between the frame loop and the
// workers that deliver them.
//
// The frame loop never blocks on delivery: when the queue is full the
// notification is dropped, and low priority notifications are shed early
// once utilisation passes the shed threshold.
package queue

import (
	"context"
	"sync"

	"github.com/okian/gearscan/internal/domain/model"
	"github.com/okian/gearscan/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
	defaultShedThreshold = 0.8
)

// Notification is the payload type flowing through the queue.
type Notification = model.Notification

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a notification to the queue. It returns ErrFull, ErrShed
	// or ErrClosed when the notification was not accepted.
	Enqueue(ctx context.Context, n Notification) error

	// Dequeue returns a channel that receives notifications as they become
	// available. The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Notification

	// Len returns the current number of queued notifications.
	Len() int

	// Cap returns the configured capacity.
	Cap() int

	// Close stops accepting notifications.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events        chan Notification
	capacity      int
	shedThreshold float64
	mu            sync.RWMutex
	closed        bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:      defaultQueueCapacity,
		shedThreshold: defaultShedThreshold,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan Notification, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a notification to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, n Notification) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	kind := string(n.Kind)

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordNotificationDropped(kind, "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordNotificationDropped(kind, "context_cancelled")
		return err
	}
	if n.Priority == model.PriorityLow && q.utilization() >= q.shedThreshold {
		metrics.RecordNotificationDropped(kind, "shed")
		return ErrShed
	}

	select {
	case q.events <- n:
		metrics.RecordNotificationEnqueued(kind)
		metrics.UpdateQueueSize(len(q.events))
		return nil
	default:
		metrics.RecordNotificationDropped(kind, "queue_full")
		return ErrFull
	}
}

func (q *InMemoryQueue) utilization() float64 {
	return float64(len(q.events)) / float64(q.capacity)
}

// Dequeue returns a channel that will receive notifications as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Notification {
	out := make(chan Notification)
	go func() {
		defer close(out)
		for n := range q.events {
			select {
			case out <- n:
				metrics.UpdateQueueSize(len(q.events))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued notifications.
func (q *InMemoryQueue) Len() int {
	size := len(q.events)
	metrics.UpdateQueueSize(size)
	return size
}

// Cap returns the configured capacity.
func (q *InMemoryQueue) Cap() int {
	return q.capacity
}

// Close stops accepting notifications. Queued ones are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.events)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
