package tasks

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitTaskPayload(t *testing.T) {
	p := WaitPayload{
		WaitID:     uuid.New(),
		Kind:       "campaign",
		ResourceID: "arn:aws:personalize:us-east-1:123456789012:campaign/demo",
		Target:     "active",
		Interval:   30 * time.Second,
		Timeout:    time.Hour,
	}

	task, err := NewWaitTask(p)
	require.NoError(t, err)
	assert.Equal(t, TypeWaitResource, task.Type())

	got, err := ParseWaitPayload(task)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestNewWaitTask_RequiresID(t *testing.T) {
	_, err := NewWaitTask(WaitPayload{Kind: "bucket"})
	assert.Error(t, err)
}

func TestParseWaitPayload_Rejects(t *testing.T) {
	_, err := ParseWaitPayload(asynq.NewTask(TypeWaitResource, []byte("{not json")))
	assert.Error(t, err)

	_, err = ParseWaitPayload(asynq.NewTask(TypeWaitResource, []byte(`{"kind":"bucket"}`)))
	assert.ErrorContains(t, err, "missing wait_id")
}
