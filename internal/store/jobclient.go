package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"recops/internal/tasks"
)

// AsynqJobClient is a concrete JobClient backed by Redis.
var _ JobClient = (*AsynqJobClient)(nil)

type AsynqJobClient struct {
	client *asynq.Client
	queue  string
}

// RedisOptions carries the Redis connection settings for asynq.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

func NewAsynqJobClient(opts RedisOptions, queue string) (*AsynqJobClient, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty for AsynqJobClient")
	}
	if queue == "" {
		queue = tasks.QueueWaits
	}
	cli := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &AsynqJobClient{client: cli, queue: queue}, nil
}

func (jc *AsynqJobClient) Close() error {
	return jc.client.Close()
}

// Enqueue enqueues a task on the client's default queue unless opts name
// another one.
func (jc *AsynqJobClient) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if jc.client == nil {
		return nil, fmt.Errorf("AsynqJobClient internal client is not initialized")
	}
	opts = append([]asynq.Option{asynq.Queue(jc.queue)}, opts...)
	info, err := jc.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		log.WithError(err).WithField("task_type", task.Type()).Error("enqueue failed")
		return nil, err
	}
	log.WithFields(log.Fields{
		"task_type": task.Type(),
		"task_id":   info.ID,
		"queue":     info.Queue,
	}).Debug("task enqueued")
	return info, nil
}

// EnqueueWait schedules a wait task. Wait tasks are not retried by asynq
// once the wait itself reports a terminal outcome; see the worker handler.
func (jc *AsynqJobClient) EnqueueWait(ctx context.Context, payload tasks.WaitPayload) (string, error) {
	task, err := tasks.NewWaitTask(payload)
	if err != nil {
		return "", err
	}
	// The wait's own timeout bounds the task, plus headroom for the final poll.
	var opts []asynq.Option
	if payload.Timeout > 0 {
		opts = append(opts, asynq.Timeout(payload.Timeout+payload.Interval+time.Minute))
	}
	info, err := jc.Enqueue(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("enqueue wait %s: %w", payload.WaitID, err)
	}
	return info.ID, nil
}
