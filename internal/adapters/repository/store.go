// Package repository stores committed result records.
package repository

import (
	"context"
	"time"

	"github.com/okian/gearscan/internal/domain/model"
)

// Default limits.
const (
	DefaultListLimit = 20
	MaxListLimit     = 500
)

// Result is one committed result screen.
type Result struct {
	ID           string             `json:"id"`
	OccurrenceID string             `json:"occurrence_id"`
	Scene        string             `json:"scene"`
	Msec         int64              `json:"msec"`
	CreatedAt    time.Time          `json:"created_at"`
	Record       model.ResultRecord `json:"record"`
}

// FromNotification converts a complete notification. It reports false for
// notifications that carry no record.
func FromNotification(n model.Notification) (Result, bool) { //nolint:gocritic // hugeParam: mirrors sink signature
	if n.Kind != model.KindComplete || n.Record == nil {
		return Result{}, false
	}
	return Result{
		ID:           n.ID,
		OccurrenceID: n.OccurrenceID,
		Scene:        n.Scene,
		Msec:         n.Msec,
		CreatedAt:    n.CreatedAt.UTC(),
		Record:       *n.Record,
	}, true
}

// Store provides read/write access to committed results.
type Store interface {
	// Save persists r. Returns ErrDuplicate when r.ID is already stored.
	Save(ctx context.Context, r Result) error

	// Get returns the result with id or ErrNotFound.
	Get(ctx context.Context, id string) (Result, error)

	// Latest returns the most recently saved result or ErrNotFound.
	Latest(ctx context.Context) (Result, error)

	// List returns results newest first.
	List(ctx context.Context, limit, offset int) ([]Result, error)

	// Count returns the number of stored results.
	Count(ctx context.Context) int

	Close() error
}

// ValidateLimit checks list paging parameters, applying DefaultListLimit to
// a zero limit.
func ValidateLimit(limit, offset int) (int, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 0 || limit > MaxListLimit || offset < 0 {
		return 0, ErrInvalidLimit
	}
	return limit, nil
}
