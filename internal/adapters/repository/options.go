package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithCapacity bounds the number of results kept; the oldest are evicted.
// Zero or negative keeps everything.
func WithCapacity(capacity int) Option {
	return func(s *MemoryStore) {
		s.capacity = capacity
	}
}
