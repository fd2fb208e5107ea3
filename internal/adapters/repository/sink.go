package repository

import (
	"context"
	"errors"

	"github.com/okian/gearscan/internal/domain/model"
	"github.com/okian/gearscan/pkg/metrics"
)

// Sink persists complete notifications into a Store.
type Sink struct {
	store Store
}

// NewSink returns a sink writing to store.
func NewSink(store Store) *Sink {
	return &Sink{store: store}
}

// Name identifies the sink in metrics.
func (s *Sink) Name() string { return "repository" }

// Deliver stores n when it carries a committed record. Redelivered ids are
// accepted silently.
func (s *Sink) Deliver(ctx context.Context, n model.Notification) error { //nolint:gocritic // hugeParam: sink signature
	r, ok := FromNotification(n)
	if !ok {
		return nil
	}
	err := s.store.Save(ctx, r)
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	if err != nil {
		metrics.RecordStoreError("save")
	}
	return err
}
