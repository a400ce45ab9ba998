package primary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"recops/internal/models"
	"recops/internal/store"
)

const waitColumns = `id, kind, resource_id, target, outcome, last_status, failure_reason, error,
	polls, task_id, started_at, finished_at, created_at, updated_at`

// CreateWait inserts a new wait. CreatedAt and UpdatedAt are set when zero.
func (s *StoreImpl) CreateWait(ctx context.Context, w *models.Wait) error {
	now := time.Now().UTC()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	query := `INSERT INTO waits (` + waitColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := s.db.Exec(ctx, query,
		w.ID, string(w.Kind), w.ResourceID, string(w.Target), w.Outcome,
		w.LastStatus, w.FailureReason, w.Error, w.Polls, w.TaskID,
		w.StartedAt, w.FinishedAt, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("wait %s: %w", w.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to create wait %s: %w", w.ID, err)
	}
	return nil
}

// UpdateWait overwrites the mutable fields of a wait.
func (s *StoreImpl) UpdateWait(ctx context.Context, w *models.Wait) error {
	w.UpdatedAt = time.Now().UTC()
	query := `UPDATE waits SET outcome = $1, last_status = $2, failure_reason = $3, error = $4,
		polls = $5, task_id = $6, started_at = $7, finished_at = $8, updated_at = $9
		WHERE id = $10`
	cmdTag, err := s.db.Exec(ctx, query,
		w.Outcome, w.LastStatus, w.FailureReason, w.Error,
		w.Polls, w.TaskID, w.StartedAt, w.FinishedAt, w.UpdatedAt, w.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update wait %s: %w", w.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("wait %s not found to update: %w", w.ID, store.ErrNotFound)
	}
	return nil
}

// GetWait retrieves one wait by id.
func (s *StoreImpl) GetWait(ctx context.Context, id uuid.UUID) (*models.Wait, error) {
	query := `SELECT ` + waitColumns + ` FROM waits WHERE id = $1`
	w, err := scanWait(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("wait %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get wait %s: %w", id, err)
	}
	return w, nil
}

// ListWaits returns waits newest first.
func (s *StoreImpl) ListWaits(ctx context.Context, limit, offset int) ([]*models.Wait, error) {
	query := `SELECT ` + waitColumns + ` FROM waits ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	rows, err := s.db.Query(ctx, query, limit, offset)
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

// scanWait scans one row in waitColumns order.
func scanWait(row pgx.Row) (*models.Wait, error) {
	var (
		w            models.Wait
		kind, target string
	)
	err := row.Scan(
		&w.ID, &kind, &w.ResourceID, &target, &w.Outcome,
		&w.LastStatus, &w.FailureReason, &w.Error, &w.Polls, &w.TaskID,
		&w.StartedAt, &w.FinishedAt, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.Kind = models.ResourceKind(kind)
	w.Target = models.Target(target)
	return &w, nil
}
