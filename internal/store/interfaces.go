package store

import (
	"context"

	"recops/internal/models"
	"recops/internal/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// --- Job Client ---

type JobClient interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	// EnqueueWait schedules a background wait and returns the asynq task id.
	EnqueueWait(ctx context.Context, payload tasks.WaitPayload) (string, error)
	Close() error
}

// --- Wait Store ---

// WaitStore persists the history of waits. Both the PostgreSQL and SQLite
// backends implement it.
type WaitStore interface {
	EnsureSchema(ctx context.Context) error
	CreateWait(ctx context.Context, w *models.Wait) error
	// UpdateWait overwrites the mutable fields of an existing wait.
	UpdateWait(ctx context.Context, w *models.Wait) error
	GetWait(ctx context.Context, id uuid.UUID) (*models.Wait, error)
	// ListWaits returns waits newest first.
	ListWaits(ctx context.Context, limit, offset int) ([]*models.Wait, error)

	Ping(ctx context.Context) error
	Close() error
}
