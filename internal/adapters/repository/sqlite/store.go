// Package sqlite provides a SQLite-backed result store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/okian/gearscan/internal/adapters/repository"
	"github.com/okian/gearscan/internal/adapters/repository/sqlite/migrations"
	"github.com/okian/gearscan/internal/domain/model"
	"github.com/okian/gearscan/pkg/metrics"
)

const resultColumns = "id, occurrence_id, scene, msec, created_at, record"

// Store persists results in SQLite.
type Store struct {
	db *sql.DB
}

var _ repository.Store = (*Store)(nil)

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// Open opens the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	s := &Store{db: db}
	metrics.UpdateResultsTotal(s.Count(ctx))
	return s, nil
}

// Save implements repository.Store.
func (s *Store) Save(ctx context.Context, r repository.Result) error {
	start := time.Now()
	defer observe("save", start)

	if s.db == nil {
		return repository.ErrClosed
	}
	record, err := json.Marshal(r.Record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (`+resultColumns+`, cash, level, exp) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OccurrenceID, r.Scene, r.Msec, toMillis(r.CreatedAt), string(record),
		r.Record.Cash, r.Record.Level, r.Record.Exp,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	if err != nil {
		metrics.RecordStoreError("save")
		return fmt.Errorf("insert result: %w", err)
	}
	metrics.RecordResultStored()
	metrics.UpdateResultsTotal(s.Count(ctx))
	return nil
}

// Get implements repository.Store.
func (s *Store) Get(ctx context.Context, id string) (repository.Result, error) {
	defer observe("get", time.Now())
	row := s.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM results WHERE id = ?`, id)
	return scanResult(row)
}

// Latest implements repository.Store.
func (s *Store) Latest(ctx context.Context) (repository.Result, error) {
	defer observe("latest", time.Now())
	row := s.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM results ORDER BY seq DESC LIMIT 1`)
	return scanResult(row)
}

// List implements repository.Store.
func (s *Store) List(ctx context.Context, limit, offset int) ([]repository.Result, error) {
	defer observe("list", time.Now())
	limit, err := repository.ValidateLimit(limit, offset)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM results ORDER BY seq DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		metrics.RecordStoreError("list")
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	out := make([]repository.Result, 0, limit)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

// Count implements repository.Store. Query failures count as zero.
func (s *Store) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		metrics.RecordStoreError("count")
		return 0
	}
	return n
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (repository.Result, error) {
	var (
		r         repository.Result
		createdAt int64
		record    string
	)
	err := row.Scan(&r.ID, &r.OccurrenceID, &r.Scene, &r.Msec, &createdAt, &record)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.Result{}, repository.ErrNotFound
	}
	if err != nil {
		return repository.Result{}, fmt.Errorf("scan result: %w", err)
	}
	r.CreatedAt = fromMillis(createdAt)
	var rec model.ResultRecord
	if err := json.Unmarshal([]byte(record), &rec); err != nil {
		return repository.Result{}, fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	r.Record = rec
	return r, nil
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
