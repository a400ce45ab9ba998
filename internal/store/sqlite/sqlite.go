// Package sqlite is the local WaitStore backend, used when database.dsn
// uses the sqlite:// scheme or a file: URI.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"recops/internal/models"
	"recops/internal/store"
)

// Scheme is the DSN prefix selecting this backend.
const Scheme = "sqlite://"

type Store struct {
	db *sql.DB
}

var _ store.WaitStore = (*Store)(nil)

// IsDSN reports whether dsn selects the SQLite backend.
func IsDSN(dsn string) bool {
	return strings.HasPrefix(dsn, Scheme) || strings.HasPrefix(dsn, "file:")
}

// Open opens (creating if needed) the database named by dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	path := strings.TrimPrefix(dsn, Scheme)
	if path == "" {
		return nil, errors.New("sqlite DSN has no path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database %q: %w", path, err)
	}
	// One connection keeps :memory: databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping sqlite database %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS waits (
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	resource_id    TEXT NOT NULL,
	target         TEXT NOT NULL,
	outcome        TEXT NOT NULL,
	last_status    TEXT NOT NULL DEFAULT '',
	failure_reason TEXT NOT NULL DEFAULT '',
	error          TEXT NOT NULL DEFAULT '',
	polls          INTEGER NOT NULL DEFAULT 0,
	task_id        TEXT NOT NULL DEFAULT '',
	started_at     TIMESTAMP,
	finished_at    TIMESTAMP,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS waits_created_at_idx ON waits (created_at DESC);
`

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure waits schema: %w", err)
	}
	return nil
}

const waitColumns = `id, kind, resource_id, target, outcome, last_status, failure_reason, error,
	polls, task_id, started_at, finished_at, created_at, updated_at`

func (s *Store) CreateWait(ctx context.Context, w *models.Wait) error {
	now := time.Now().UTC()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	query := `INSERT INTO waits (` + waitColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		w.ID.String(), string(w.Kind), w.ResourceID, string(w.Target), w.Outcome,
		w.LastStatus, w.FailureReason, w.Error, w.Polls, w.TaskID,
		nullTime(w.StartedAt), nullTime(w.FinishedAt), w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("wait %s: %w", w.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to create wait %s: %w", w.ID, err)
	}
	return nil
}

func (s *Store) UpdateWait(ctx context.Context, w *models.Wait) error {
	w.UpdatedAt = time.Now().UTC()
	query := `UPDATE waits SET outcome = ?, last_status = ?, failure_reason = ?, error = ?,
		polls = ?, task_id = ?, started_at = ?, finished_at = ?, updated_at = ?
		WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query,
		w.Outcome, w.LastStatus, w.FailureReason, w.Error,
		w.Polls, w.TaskID, nullTime(w.StartedAt), nullTime(w.FinishedAt), w.UpdatedAt, w.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update wait %s: %w", w.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update wait %s: %w", w.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("wait %s not found to update: %w", w.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) GetWait(ctx context.Context, id uuid.UUID) (*models.Wait, error) {
	query := `SELECT ` + waitColumns + ` FROM waits WHERE id = ?`
	w, err := scanWait(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("wait %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get wait %s: %w", id, err)
	}
	return w, nil
}

func (s *Store) ListWaits(ctx context.Context, limit, offset int) ([]*models.Wait, error) {
	query := `SELECT ` + waitColumns + ` FROM waits ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query waits: %w", err)
	}
	defer rows.Close()

	var waits []*models.Wait
	for rows.Next() {
		w, err := scanWait(rows)
		if err != nil {
			return waits, fmt.Errorf("failed to scan wait row: %w", err)
		}
		waits = append(waits, w)
	}
	if err := rows.Err(); err != nil {
		return waits, fmt.Errorf("error iterating wait rows: %w", err)
	}
	return waits, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWait(row scanner) (*models.Wait, error) {
	var (
		w                 models.Wait
		id, kind, target  string
		started, finished sql.NullTime
	)
	err := row.Scan(
		&id, &kind, &w.ResourceID, &target, &w.Outcome,
		&w.LastStatus, &w.FailureReason, &w.Error, &w.Polls, &w.TaskID,
		&started, &finished, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid wait id %q: %w", id, err)
	}
	w.ID = parsed
	w.Kind = models.ResourceKind(kind)
	w.Target = models.Target(target)
	if started.Valid {
		t := started.Time
		w.StartedAt = &t
	}
	if finished.Valid {
		t := finished.Time
		w.FinishedAt = &t
	}
	return &w, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
