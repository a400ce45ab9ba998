// Package poll waits for long-running remote operations to reach a terminal
// state.
//
// A wait is described by three callbacks: a Producer that fetches the
// current status snapshot, a Predicate that classifies it, and a Formatter
// that renders it for progress output. Spin calls them in a loop until the
// predicate reports a terminal outcome or the timeout elapses.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Outcome is the classification of a single status snapshot.
type Outcome int

const (
	// Pending means the job has not finished; keep polling.
	Pending Outcome = iota
	// Succeeded means the job finished successfully.
	Succeeded
	// Failed means the job reached a terminal failure state.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Producer fetches one status snapshot. Errors are returned to the caller of
// Spin unchanged.
type Producer[S any] func(ctx context.Context) (S, error)

// Predicate classifies a snapshot.
type Predicate[S any] func(S) Outcome

// Formatter renders a snapshot for progress output.
type Formatter[S any] func(S) string

// Options controls a single wait.
type Options struct {
	// Interval is the pause between the end of one fetch and the start of
	// the next. Must be positive.
	Interval time.Duration
	// Timeout is measured from the start of the first fetch. Must be positive.
	Timeout time.Duration
	// Reporter receives one Tick per non-terminal iteration. Nil discards.
	Reporter Reporter
	// Clock is the time source. Nil uses the wall clock.
	Clock Clock
}

var (
	ErrJobFailed       = errors.New("poll: job failed")
	ErrPollingTimedOut = errors.New("poll: polling timed out")
	ErrInvalidOptions  = errors.New("poll: invalid options")
)

// JobFailedError is returned when the predicate reports Failed.
type JobFailedError struct {
	Last   any    // last snapshot
	Status string // formatted last snapshot
	Polls  int
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("poll: job failed after %d polls: %s", e.Polls, e.Status)
}

func (e *JobFailedError) Is(target error) bool { return target == ErrJobFailed }

// TimedOutError is returned when no terminal state was seen before the
// timeout elapsed.
type TimedOutError struct {
	Last    any
	Status  string
	Polls   int
	Timeout time.Duration
	Elapsed time.Duration
}

func (e *TimedOutError) Error() string {
	return fmt.Sprintf("poll: maximum wait time exceeded: timeout=%s elapsed=%s polls=%d last status: %s",
		e.Timeout, e.Elapsed.Round(time.Millisecond), e.Polls, e.Status)
}

func (e *TimedOutError) Is(target error) bool { return target == ErrPollingTimedOut }

func (o Options) validate() error {
	if o.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidOptions, o.Interval)
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidOptions, o.Timeout)
	}
	return nil
}

// Spin blocks until fetch yields a snapshot that done classifies as terminal,
// the timeout elapses, ctx is cancelled, or fetch returns an error.
//
// On success the last snapshot is returned with a nil error. On a Failed
// outcome the error is a *JobFailedError, on timeout a *TimedOutError. Fetch
// errors are returned as-is. In every case the last snapshot seen (zero if
// none) is returned alongside the error.
func Spin[S any](ctx context.Context, fetch Producer[S], done Predicate[S], format Formatter[S], opts Options) (S, error) {
	var last S
	if err := opts.validate(); err != nil {
		return last, err
	}
	if format == nil {
		format = func(s S) string { return fmt.Sprint(s) }
	}
	clock := opts.Clock
	if clock == nil {
		clock = wallClock{}
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = discard{}
	}

	start := clock.Now()
	var (
		polls      int
		lastText   string
		changedAt  = start
		haveStatus bool
	)
	for {
		if err := ctx.Err(); err != nil {
			return last, fmt.Errorf("poll: wait cancelled after %d polls: %w", polls, err)
		}

		status, err := fetch(ctx)
		if err != nil {
			return last, err
		}
		polls++
		last = status
		now := clock.Now()

		switch done(status) {
		case Succeeded:
			return status, nil
		case Failed:
			return status, &JobFailedError{Last: status, Status: format(status), Polls: polls}
		}

		text := format(status)
		if !haveStatus || text != lastText {
			changedAt = now
			lastText = text
			haveStatus = true
		}
		reporter.Report(Tick{
			Poll:    polls,
			Status:  text,
			Elapsed: now.Sub(start),
			Since:   now.Sub(changedAt),
		})

		if elapsed := now.Sub(start); elapsed >= opts.Timeout {
			return status, &TimedOutError{
				Last:    status,
				Status:  text,
				Polls:   polls,
				Timeout: opts.Timeout,
				Elapsed: elapsed,
			}
		}

		select {
		case <-ctx.Done():
			return last, fmt.Errorf("poll: wait cancelled after %d polls: %w", polls, ctx.Err())
		case <-clock.After(opts.Interval):
		}
	}
}
