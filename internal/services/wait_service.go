package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"recops/internal/metrics"
	"recops/internal/models"
	"recops/internal/poll"
	"recops/internal/store"
	"recops/internal/tasks"
)

// Classify is the completion predicate for a resource status given the
// phase the wait is trying to reach.
func Classify(target models.Target, st models.Status) poll.Outcome {
	switch target {
	case models.TargetDeleted:
		switch st.Phase {
		case models.PhaseDeleted:
			return poll.Succeeded
		case models.PhaseFailed:
			return poll.Failed
		case models.PhasePending, models.PhaseActive, models.PhaseStopped, models.PhaseUnknown:
			return poll.Pending
		}
	case models.TargetStopped:
		switch st.Phase {
		case models.PhaseStopped:
			return poll.Succeeded
		case models.PhaseFailed, models.PhaseDeleted:
			return poll.Failed
		case models.PhasePending, models.PhaseActive, models.PhaseUnknown:
			return poll.Pending
		}
	default:
		switch st.Phase {
		case models.PhaseActive:
			return poll.Succeeded
		case models.PhaseFailed, models.PhaseStopped, models.PhaseDeleted:
			return poll.Failed
		case models.PhasePending, models.PhaseUnknown:
			return poll.Pending
		}
	}
	return poll.Pending
}

// WaitRequest describes a blocking wait on one or more resources.
type WaitRequest struct {
	Refs     []models.ResourceRef
	Target   models.Target
	Interval time.Duration // zero uses the service default
	Timeout  time.Duration // zero uses the service default
}

// WaitDefaults holds the service-wide defaults applied to requests.
type WaitDefaults struct {
	Interval time.Duration
	Timeout  time.Duration
	Retry    poll.RetryPolicy
}

// WaitService runs and records waits on remote resources.
type WaitService struct {
	registry *Registry
	store    store.WaitStore
	jobs     store.JobClient
	defaults WaitDefaults
	clock    poll.Clock
}

func NewWaitService(registry *Registry, ws store.WaitStore, jobs store.JobClient, defaults WaitDefaults) *WaitService {
	if defaults.Retry.MaxAttempts > 0 && defaults.Retry.Transient == nil {
		defaults.Retry.Transient = IsTransient
	}
	return &WaitService{
		registry: registry,
		store:    ws,
		jobs:     jobs,
		defaults: defaults,
	}
}

// WithClock replaces the time source, for tests.
func (s *WaitService) WithClock(c poll.Clock) *WaitService {
	s.clock = c
	return s
}

// Wait records one wait per ref and polls all of them together until every
// resource reaches the target, one fails, or the timeout elapses. The
// returned waits carry their final outcomes even when err is non-nil.
func (s *WaitService) Wait(ctx context.Context, req WaitRequest, reporter poll.Reporter) ([]*models.Wait, error) {
	if len(req.Refs) == 0 {
		return nil, fmt.Errorf("%w: at least one resource is required", models.ErrValidation)
	}
	if err := s.checkRefs(req.Refs); err != nil {
		return nil, err
	}
	target := req.Target
	if target == "" {
		target = models.TargetActive
	}

	now := time.Now().UTC()
	waits := make([]*models.Wait, 0, len(req.Refs))
	for _, ref := range req.Refs {
		w := &models.Wait{
			Kind:       ref.Kind,
			ResourceID: ref.ID,
			Target:     target,
			Outcome:    models.WaitRunning,
			StartedAt:  &now,
		}
		if err := s.store.CreateWait(ctx, w); err != nil {
			return waits, fmt.Errorf("record wait for %s: %w", ref, err)
		}
		waits = append(waits, w)
	}

	err := s.run(ctx, waits, target, req.Interval, req.Timeout, reporter)
	return waits, err
}

// Enqueue records a wait and hands it to the background worker.
func (s *WaitService) Enqueue(ctx context.Context, ref models.ResourceRef, target models.Target, interval, timeout time.Duration) (*models.Wait, error) {
	if s.jobs == nil {
		return nil, errors.New("background jobs are not configured")
	}
	if err := s.checkRefs([]models.ResourceRef{ref}); err != nil {
		return nil, err
	}
	if target == "" {
		target = models.TargetActive
	}

	w := &models.Wait{
		Kind:       ref.Kind,
		ResourceID: ref.ID,
		Target:     target,
		Outcome:    models.WaitEnqueued,
	}
	if err := s.store.CreateWait(ctx, w); err != nil {
		return nil, fmt.Errorf("record wait for %s: %w", ref, err)
	}

	// The payload always carries concrete durations so the task deadline
	// covers the whole wait.
	interval, timeout = s.resolve(interval, timeout)
	taskID, err := s.jobs.EnqueueWait(ctx, tasks.WaitPayload{
		WaitID:     w.ID,
		Kind:       string(ref.Kind),
		ResourceID: ref.ID,
		Target:     string(target),
		Interval:   interval,
		Timeout:    timeout,
	})
	if err != nil {
		w.Outcome = models.WaitError
		w.Error = err.Error()
		if uerr := s.store.UpdateWait(context.WithoutCancel(ctx), w); uerr != nil {
			log.WithError(uerr).WithField("wait_id", w.ID).Error("failed to record enqueue failure")
		}
		return w, err
	}

	w.TaskID = taskID
	if err := s.store.UpdateWait(ctx, w); err != nil {
		// The task is already queued; the worker will still find the wait.
		log.WithError(err).WithField("wait_id", w.ID).Warn("failed to record task id")
	}
	return w, nil
}

// Resume runs a previously recorded wait, as the background worker does. A
// wait that already succeeded is returned unchanged.
func (s *WaitService) Resume(ctx context.Context, id uuid.UUID, interval, timeout time.Duration, reporter poll.Reporter) (*models.Wait, error) {
	w, err := s.store.GetWait(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Outcome == models.WaitSucceeded {
		return w, nil
	}
	if err := s.checkRefs([]models.ResourceRef{w.Ref()}); err != nil {
		return w, err
	}

	now := time.Now().UTC()
	w.Outcome = models.WaitRunning
	w.StartedAt = &now
	w.FinishedAt = nil
	w.Error = ""
	if err := s.store.UpdateWait(ctx, w); err != nil {
		return w, fmt.Errorf("mark wait %s running: %w", w.ID, err)
	}

	target := w.Target
	if target == "" {
		target = models.TargetActive
	}
	err = s.run(ctx, []*models.Wait{w}, target, interval, timeout, reporter)
	return w, err
}

// Get returns one recorded wait.
func (s *WaitService) Get(ctx context.Context, id uuid.UUID) (*models.Wait, error) {
	return s.store.GetWait(ctx, id)
}

// List returns recorded waits, newest first.
func (s *WaitService) List(ctx context.Context, limit, offset int) ([]*models.Wait, error) {
	if limit <= 0 {
		limit = 20 // Default limit
	}
	if offset < 0 {
		offset = 0
	}
	waits, err := s.store.ListWaits(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list waits from store: %w", err)
	}
	return waits, nil
}

// Kinds lists the resource kinds that have a configured provider.
func (s *WaitService) Kinds() []models.ResourceKind { return s.registry.Kinds() }

func (s *WaitService) checkRefs(refs []models.ResourceRef) error {
	for _, ref := range refs {
		if err := ref.Validate(); err != nil {
			return err
		}
		if !s.registry.Supports(ref.Kind) {
			return fmt.Errorf("%w: no provider configured for %s", models.ErrUnsupportedKind, ref.Kind)
		}
	}
	return nil
}

// resolve replaces non-positive durations with the service defaults.
func (s *WaitService) resolve(interval, timeout time.Duration) (time.Duration, time.Duration) {
	if interval <= 0 {
		interval = s.defaults.Interval
	}
	if timeout <= 0 {
		timeout = s.defaults.Timeout
	}
	return interval, timeout
}

func (s *WaitService) run(ctx context.Context, waits []*models.Wait, target models.Target, interval, timeout time.Duration, reporter poll.Reporter) error {
	interval, timeout = s.resolve(interval, timeout)

	producers := make([]poll.Producer[models.Status], len(waits))
	for i, w := range waits {
		ref := w.Ref()
		fetch := func(ctx context.Context) (models.Status, error) {
			st, err := s.registry.Describe(ctx, ref)
			result := "ok"
			if err != nil {
				result = "error"
			}
			metrics.FetchesTotal.WithLabelValues(string(ref.Kind), result).Inc()
			return st, err
		}
		retry := s.defaults.Retry
		if retry.MaxAttempts > 0 {
			retry.OnRetry = func(err error, next time.Duration) {
				log.WithError(err).WithFields(log.Fields{"resource": ref.String(), "retry_in": next}).Warn("transient status fetch error")
			}
		}
		producers[i] = poll.Retry(fetch, retry)
	}

	var polls atomic.Int64
	all := poll.All(producers...)
	fetch := func(ctx context.Context) ([]models.Status, error) {
		polls.Add(1)
		return all(ctx)
	}

	format := poll.JoinFormat(func(st models.Status) string { return st.String() })
	if len(waits) > 1 {
		format = poll.JoinFormat(func(st models.Status) string {
			return shortID(st.Ref.ID) + ": " + st.String()
		})
	}

	fields := log.Fields{"target": target, "interval": interval, "timeout": timeout, "resources": len(waits)}
	log.WithFields(fields).Info("waiting for resources")

	metrics.WaitsInFlight.Add(float64(len(waits)))
	last, err := poll.Spin(ctx, fetch,
		poll.AllOf(func(st models.Status) poll.Outcome { return Classify(target, st) }),
		format,
		poll.Options{Interval: interval, Timeout: timeout, Reporter: reporter, Clock: s.clock},
	)
	metrics.WaitsInFlight.Sub(float64(len(waits)))

	s.finish(context.WithoutCancel(ctx), waits, target, last, int(polls.Load()), err)
	return err
}

// finish assigns each wait its outcome from the spin result and persists it.
func (s *WaitService) finish(ctx context.Context, waits []*models.Wait, target models.Target, last []models.Status, polls int, spinErr error) {
	now := time.Now().UTC()
	for i, w := range waits {
		var (
			st      models.Status
			outcome poll.Outcome = poll.Pending
		)
		if i < len(last) {
			st = last[i]
			outcome = Classify(target, st)
			w.LastStatus = st.Raw
			w.FailureReason = st.FailureReason
		}
		w.Polls = polls
		w.FinishedAt = &now

		switch {
		case outcome == poll.Succeeded:
			w.Outcome = models.WaitSucceeded
			w.Error = ""
		case spinErr == nil:
			w.Outcome = models.WaitSucceeded
		case errors.Is(spinErr, poll.ErrJobFailed):
			if outcome == poll.Failed {
				w.Outcome = models.WaitFailed
			} else {
				w.Outcome = models.WaitCancelled
			}
		case errors.Is(spinErr, poll.ErrPollingTimedOut):
			w.Outcome = models.WaitTimedOut
		case errors.Is(spinErr, context.Canceled), errors.Is(spinErr, context.DeadlineExceeded):
			w.Outcome = models.WaitCancelled
		default:
			w.Outcome = models.WaitError
		}
		if w.Outcome != models.WaitSucceeded && spinErr != nil {
			w.Error = spinErr.Error()
		}

		metrics.WaitsTotal.WithLabelValues(string(w.Kind), w.Outcome).Inc()
		if w.StartedAt != nil {
			metrics.WaitDuration.WithLabelValues(string(w.Kind)).Observe(now.Sub(*w.StartedAt).Seconds())
		}

		entry := log.WithFields(log.Fields{
			"wait_id":  w.ID,
			"resource": w.Ref().String(),
			"outcome":  w.Outcome,
			"status":   w.LastStatus,
			"polls":    w.Polls,
		})
		if w.Outcome == models.WaitSucceeded {
			entry.Info("wait finished")
		} else {
			entry.WithField("error", w.Error).Warn("wait finished")
		}

		if err := s.store.UpdateWait(ctx, w); err != nil {
			log.WithError(err).WithField("wait_id", w.ID).Error("failed to record wait outcome")
		}
	}
}

// shortID trims an ARN to its final path segment for progress lines.
func shortID(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 && i < len(id)-1 {
		return id[i+1:]
	}
	return id
}
