package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recops/internal/models"
	"recops/internal/store"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(ctx))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIsDSN(t *testing.T) {
	assert.True(t, IsDSN("sqlite://recops.db"))
	assert.True(t, IsDSN("file:recops.db?cache=shared"))
	assert.False(t, IsDSN("postgres://localhost/recops"))
}

func TestStore_CreateAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	w := &models.Wait{
		Kind:       models.KindCampaign,
		ResourceID: "arn:aws:personalize:us-east-1:123456789012:campaign/demo",
		Target:     models.TargetActive,
		Outcome:    models.WaitEnqueued,
		TaskID:     "task-1",
	}
	require.NoError(t, s.CreateWait(ctx, w))
	assert.NotEqual(t, uuid.Nil, w.ID)
	assert.False(t, w.CreatedAt.IsZero())

	got, err := s.GetWait(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, models.KindCampaign, got.Kind)
	assert.Equal(t, w.ResourceID, got.ResourceID)
	assert.Equal(t, models.TargetActive, got.Target)
	assert.Equal(t, models.WaitEnqueued, got.Outcome)
	assert.Equal(t, "task-1", got.TaskID)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.FinishedAt)
	assert.WithinDuration(t, w.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestStore_CreateDuplicate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	w := &models.Wait{Kind: models.KindBucket, ResourceID: "b", Target: models.TargetActive, Outcome: models.WaitRunning}
	require.NoError(t, s.CreateWait(ctx, w))
	dup := *w
	err := s.CreateWait(ctx, &dup)
	assert.True(t, errors.Is(err, store.ErrDuplicate))
}

func TestStore_UpdateWait(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	w := &models.Wait{Kind: models.KindSolutionVersion, ResourceID: "sv", Target: models.TargetActive, Outcome: models.WaitRunning}
	require.NoError(t, s.CreateWait(ctx, w))

	started := time.Now().UTC().Add(-time.Minute)
	finished := time.Now().UTC()
	w.Outcome = models.WaitFailed
	w.LastStatus = models.RawCreateFailed
	w.FailureReason = "Not enough interactions"
	w.Polls = 7
	w.StartedAt = &started
	w.FinishedAt = &finished
	require.NoError(t, s.UpdateWait(ctx, w))

	got, err := s.GetWait(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WaitFailed, got.Outcome)
	assert.Equal(t, models.RawCreateFailed, got.LastStatus)
	assert.Equal(t, "Not enough interactions", got.FailureReason)
	assert.Equal(t, 7, got.Polls)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.FinishedAt)
	assert.WithinDuration(t, started, *got.StartedAt, time.Millisecond)
	assert.WithinDuration(t, finished, *got.FinishedAt, time.Millisecond)
}

func TestStore_NotFound(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.GetWait(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = s.UpdateWait(ctx, &models.Wait{ID: uuid.New()})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_ListWaitsNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		w := &models.Wait{
			Kind:       models.KindDatasetImportJob,
			ResourceID: "job",
			Target:     models.TargetActive,
			Outcome:    models.WaitSucceeded,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.CreateWait(ctx, w))
		ids = append(ids, w.ID)
	}

	got, err := s.ListWaits(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[2], got[0].ID)
	assert.Equal(t, ids[1], got[1].ID)

	got, err = s.ListWaits(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ids[0], got[0].ID)
}
