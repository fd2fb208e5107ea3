package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/gearscan/pkg/metrics"
)

const defaultMemoryCapacity = 1000

// MemoryStore keeps results in insertion order in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	results  []Result
	byID     map[string]int // id -> absolute insertion index
	base     int            // absolute index of results[0]
	capacity int
	closed   bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:     make(map[string]int),
		capacity: defaultMemoryCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, r Result) error {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("save", float64(time.Since(start).Microseconds())/1000) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, ok := s.byID[r.ID]; ok {
		return ErrDuplicate
	}
	s.byID[r.ID] = s.base + len(s.results)
	s.results = append(s.results, r)

	if s.capacity > 0 && len(s.results) > s.capacity {
		drop := len(s.results) - s.capacity
		for _, old := range s.results[:drop] {
			delete(s.byID, old.ID)
		}
		s.results = append([]Result(nil), s.results[drop:]...)
		s.base += drop
	}
	metrics.RecordResultStored()
	metrics.UpdateResultsTotal(len(s.results))
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return Result{}, ErrNotFound
	}
	return s.results[idx-s.base], nil
}

// Latest implements Store.
func (s *MemoryStore) Latest(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.results) == 0 {
		return Result{}, ErrNotFound
	}
	return s.results[len(s.results)-1], nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, limit, offset int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, err := ValidateLimit(limit, offset)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Result, 0, min(limit, len(s.results)))
	for i := len(s.results) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.results[i])
	}
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
