package tasks

// Defines task types and payloads used with Asynq.

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// TypeWaitResource runs one recorded wait to completion in the worker.
	TypeWaitResource = "wait:resource"

	// QueueWaits is the queue wait tasks are enqueued on.
	QueueWaits = "waits"
)

// WaitPayload is the JSON body of a TypeWaitResource task.
type WaitPayload struct {
	WaitID     uuid.UUID     `json:"wait_id"`
	Kind       string        `json:"kind"`
	ResourceID string        `json:"resource_id"`
	Target     string        `json:"target"`
	Interval   time.Duration `json:"interval"`
	Timeout    time.Duration `json:"timeout"`
}

// NewWaitTask encodes p into an asynq task.
func NewWaitTask(p WaitPayload) (*asynq.Task, error) {
	if p.WaitID == uuid.Nil {
		return nil, fmt.Errorf("wait payload: wait_id is required")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("wait payload: %w", err)
	}
	return asynq.NewTask(TypeWaitResource, body), nil
}

// ParseWaitPayload decodes the body of a TypeWaitResource task.
func ParseWaitPayload(t *asynq.Task) (WaitPayload, error) {
	var p WaitPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return WaitPayload{}, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	if p.WaitID == uuid.Nil {
		return WaitPayload{}, fmt.Errorf("decode %s payload: missing wait_id", t.Type())
	}
	return p, nil
}
