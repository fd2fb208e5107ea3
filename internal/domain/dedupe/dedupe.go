// Package dedupe guards at-most-once delivery of notifications by key.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen notification ids.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a later notification with the same key is delivered.
	Unrecord(ctx context.Context, id string)

	Size() int
}

// inMemoryDeduper keeps ids in a map. In bounded mode a ring of insertion
// order evicts the oldest id once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id -> ring slot, -1 in unbounded mode
	ring    []string
	next    int
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, 0, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[id] = -1
		return false
	}

	if len(d.ring) < d.maxSize {
		d.seen[id] = len(d.ring)
		d.ring = append(d.ring, id)
		return false
	}

	// ring is full; d.next is the oldest slot
	slot := d.next
	if cur, ok := d.seen[d.ring[slot]]; ok && cur == slot {
		delete(d.seen, d.ring[slot])
	}
	d.ring[slot] = id
	d.seen[id] = slot
	d.next = (slot + 1) % d.maxSize
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	if slot >= 0 {
		d.ring[slot] = ""
	}
}

// Size returns the number of ids currently remembered.
func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
