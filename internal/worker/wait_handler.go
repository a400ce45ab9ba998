// Package worker holds the asynq task handlers run by `recops worker`.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"recops/internal/models"
	"recops/internal/poll"
	"recops/internal/tasks"
)

// WaitRunner resumes a recorded wait. *services.WaitService implements it.
type WaitRunner interface {
	Resume(ctx context.Context, id uuid.UUID, interval, timeout time.Duration, reporter poll.Reporter) (*models.Wait, error)
}

// WaitDeps holds the dependencies of the wait handler.
type WaitDeps struct {
	Waits WaitRunner
}

// RegisterHandlers registers every task handler on mux.
func RegisterHandlers(mux *asynq.ServeMux, deps WaitDeps) {
	log.Infof("Registering %s handler", tasks.TypeWaitResource)
	mux.HandleFunc(tasks.TypeWaitResource, HandleWaitTask(deps))
}

// HandleWaitTask polls the resource named by the task payload until the wait
// settles. Outcomes that another attempt cannot change are returned wrapped
// in asynq.SkipRetry; fetch errors are returned plainly so asynq retries.
func HandleWaitTask(deps WaitDeps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		p, err := tasks.ParseWaitPayload(t)
		if err != nil {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}

		logger := log.WithFields(log.Fields{
			"wait_id":  p.WaitID,
			"resource": p.Kind + " " + p.ResourceID,
			"target":   p.Target,
		})
		logger.Info("Processing wait task")

		w, err := deps.Waits.Resume(ctx, p.WaitID, p.Interval, p.Timeout, logReporter{logger})
		if err == nil {
			logger.WithField("polls", w.Polls).Info("Wait succeeded")
			return nil
		}
		if isFinal(err) {
			logger.WithError(err).Warn("Wait finished without success")
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		logger.WithError(err).Error("Wait interrupted; will be retried")
		return err
	}
}

func isFinal(err error) bool {
	return errors.Is(err, poll.ErrJobFailed) ||
		errors.Is(err, poll.ErrPollingTimedOut) ||
		errors.Is(err, poll.ErrInvalidOptions) ||
		errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrValidation) ||
		errors.Is(err, models.ErrUnsupportedKind)
}

// logReporter turns progress ticks into debug log entries.
type logReporter struct {
	entry *log.Entry
}

func (r logReporter) Report(t poll.Tick) {
	r.entry.WithFields(log.Fields{
		"poll":    t.Poll,
		"status":  t.Status,
		"since":   t.Since.Truncate(time.Second),
		"elapsed": t.Elapsed.Truncate(time.Second),
	}).Debug("Still waiting")
}
