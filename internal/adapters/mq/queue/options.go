package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum capacity of the queue.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithShedThreshold sets the utilisation (0..1] at which low priority
// notifications start being dropped.
func WithShedThreshold(ratio float64) Option {
	return func(q *InMemoryQueue) {
		if ratio > 0 && ratio <= 1 {
			q.shedThreshold = ratio
		}
	}
}
