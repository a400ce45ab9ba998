package poll

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the spinner sleeps or a producer says so.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// sequence returns a producer that yields the given statuses in order and
// then repeats the last one.
func sequence(statuses ...string) (Producer[string], *int) {
	calls := 0
	return func(ctx context.Context) (string, error) {
		i := calls
		calls++
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		return statuses[i], nil
	}, &calls
}

func doneWhen(success, failure string) Predicate[string] {
	return func(s string) Outcome {
		switch s {
		case success:
			return Succeeded
		case failure:
			return Failed
		}
		return Pending
	}
}

func identity(s string) string { return s }

func TestSpin_SucceedsAfterPendingSnapshots(t *testing.T) {
	clock := newFakeClock()
	var out bytes.Buffer
	fetch, calls := sequence("A", "B", "C", "D")

	last, err := Spin(context.Background(), fetch, doneWhen("D", ""), identity, Options{
		Interval: time.Second,
		Timeout:  5 * time.Second,
		Reporter: NewLineReporter(&out),
		Clock:    clock,
	})

	require.NoError(t, err)
	assert.Equal(t, "D", last)
	assert.Equal(t, 4, *calls)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "/ Status: A [Since: 0s]", lines[0])
	assert.Equal(t, "- Status: B [Since: 0s]", lines[1])
	assert.Equal(t, "\\ Status: C [Since: 0s]", lines[2])
}

func TestSpin_SinceTracksUnchangedStatus(t *testing.T) {
	clock := newFakeClock()
	var ticks []Tick
	fetch, _ := sequence("A", "A", "A", "B", "done")

	_, err := Spin(context.Background(), fetch, doneWhen("done", ""), identity, Options{
		Interval: time.Second,
		Timeout:  time.Minute,
		Reporter: ReporterFunc(func(t Tick) { ticks = append(ticks, t) }),
		Clock:    clock,
	})

	require.NoError(t, err)
	require.Len(t, ticks, 4)
	assert.Equal(t, []time.Duration{0, time.Second, 2 * time.Second, 0},
		[]time.Duration{ticks[0].Since, ticks[1].Since, ticks[2].Since, ticks[3].Since})
	assert.Equal(t, 3*time.Second, ticks[3].Elapsed)
	assert.Equal(t, 4, ticks[3].Poll)
}

func TestSpin_JobFailedCarriesLastSnapshot(t *testing.T) {
	clock := newFakeClock()
	fetch, calls := sequence("CREATE PENDING", "CREATE FAILED", "ACTIVE")

	last, err := Spin(context.Background(), fetch, doneWhen("ACTIVE", "CREATE FAILED"), identity, Options{
		Interval: time.Second,
		Timeout:  time.Minute,
		Clock:    clock,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrJobFailed))
	assert.False(t, errors.Is(err, ErrPollingTimedOut))

	var jf *JobFailedError
	require.True(t, errors.As(err, &jf))
	assert.Equal(t, "CREATE FAILED", jf.Last)
	assert.Equal(t, "CREATE FAILED", jf.Status)
	assert.Equal(t, 2, jf.Polls)
	assert.Equal(t, "CREATE FAILED", last)
	assert.Equal(t, 2, *calls)
}

func TestSpin_FailsOnFirstInvocation(t *testing.T) {
	fetch, calls := sequence("CREATE FAILED")
	var out bytes.Buffer

	_, err := Spin(context.Background(), fetch, doneWhen("", "CREATE FAILED"), identity, Options{
		Interval: time.Second,
		Timeout:  time.Minute,
		Reporter: NewLineReporter(&out),
		Clock:    newFakeClock(),
	})

	assert.ErrorIs(t, err, ErrJobFailed)
	assert.Equal(t, 1, *calls)
	assert.Empty(t, out.String())
}

func TestSpin_TimeoutBoundaryIsInclusive(t *testing.T) {
	clock := newFakeClock()
	var out bytes.Buffer
	fetch, calls := sequence("IN PROGRESS")

	last, err := Spin(context.Background(), fetch, doneWhen("", ""), identity, Options{
		Interval: time.Second,
		Timeout:  3 * time.Second,
		Reporter: NewLineReporter(&out),
		Clock:    clock,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPollingTimedOut))

	var te *TimedOutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 4, te.Polls)
	assert.Equal(t, 3*time.Second, te.Elapsed)
	assert.Equal(t, "IN PROGRESS", te.Last)
	assert.Equal(t, "IN PROGRESS", last)
	assert.Equal(t, 4, *calls)
	assert.Len(t, clock.sleeps, 3)
	assert.Equal(t, 4, strings.Count(out.String(), "\n"))
}

func TestSpin_TimeoutWithSlowFetchStaysWithinOneInterval(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	fetch := func(ctx context.Context) (string, error) {
		calls++
		clock.advance(500 * time.Millisecond)
		return "PENDING", nil
	}

	_, err := Spin(context.Background(), fetch, doneWhen("", ""), identity, Options{
		Interval: time.Second,
		Timeout:  3 * time.Second,
		Clock:    clock,
	})

	var te *TimedOutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, te.Elapsed, 3*time.Second)
	assert.LessOrEqual(t, te.Elapsed, 4*time.Second)
}

func TestSpin_ProducerErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("AccessDeniedException: not authorized")
	calls := 0
	fetch := func(ctx context.Context) (string, error) {
		calls++
		if calls == 2 {
			return "", boom
		}
		return "CREATE PENDING", nil
	}

	last, err := Spin(context.Background(), fetch, doneWhen("ACTIVE", "CREATE FAILED"), identity, Options{
		Interval: time.Second,
		Timeout:  time.Minute,
		Clock:    newFakeClock(),
	})

	assert.True(t, err == boom, "expected the producer's error instance, got %v", err)
	assert.False(t, errors.Is(err, ErrJobFailed))
	assert.False(t, errors.Is(err, ErrPollingTimedOut))
	assert.Equal(t, 2, calls)
	assert.Equal(t, "CREATE PENDING", last)
}

func TestSpin_HonoursInterval(t *testing.T) {
	clock := newFakeClock()
	var starts []time.Time
	fetch := func(ctx context.Context) (string, error) {
		starts = append(starts, clock.Now())
		clock.advance(200 * time.Millisecond)
		if len(starts) == 5 {
			return "ACTIVE", nil
		}
		return "CREATE IN_PROGRESS", nil
	}

	_, err := Spin(context.Background(), fetch, doneWhen("ACTIVE", ""), identity, Options{
		Interval: 2 * time.Second,
		Timeout:  time.Hour,
		Clock:    clock,
	})

	require.NoError(t, err)
	require.Len(t, starts, 5)
	for i := 1; i < len(starts); i++ {
		assert.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), 2*time.Second)
	}
}

func TestSpin_PredicateAndFormatterShareSnapshot(t *testing.T) {
	type snap struct{ status string }
	var fetched, classified, formatted []*snap
	calls := 0
	fetch := func(ctx context.Context) (*snap, error) {
		calls++
		s := &snap{status: "PENDING"}
		if calls == 3 {
			s.status = "ACTIVE"
		}
		fetched = append(fetched, s)
		return s, nil
	}
	done := func(s *snap) Outcome {
		classified = append(classified, s)
		if s.status == "ACTIVE" {
			return Succeeded
		}
		return Pending
	}
	format := func(s *snap) string {
		formatted = append(formatted, s)
		return s.status
	}

	_, err := Spin(context.Background(), fetch, done, format, Options{
		Interval: time.Second,
		Timeout:  time.Minute,
		Clock:    newFakeClock(),
	})

	require.NoError(t, err)
	require.Len(t, classified, 3)
	require.Len(t, formatted, 2)
	for i := range formatted {
		assert.Same(t, fetched[i], classified[i])
		assert.Same(t, fetched[i], formatted[i])
	}
}

func TestSpin_ContextCancelStopsBeforeNextFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	fetch := func(ctx context.Context) (string, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return "PENDING", nil
	}

	_, err := Spin(ctx, fetch, doneWhen("", ""), identity, Options{
		Interval: time.Second,
		Timeout:  time.Minute,
		Clock:    newFakeClock(),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestSpin_AlreadyCancelledContextNeverFetches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetch, calls := sequence("ACTIVE")

	_, err := Spin(ctx, fetch, doneWhen("ACTIVE", ""), identity, Options{
		Interval: time.Second,
		Timeout:  time.Minute,
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, *calls)
}

func TestSpin_RejectsNonPositiveDurations(t *testing.T) {
	fetch, calls := sequence("ACTIVE")
	tests := []struct {
		name string
		opts Options
	}{
		{"zero interval", Options{Timeout: time.Second}},
		{"negative timeout", Options{Interval: time.Second, Timeout: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Spin(context.Background(), fetch, doneWhen("ACTIVE", ""), identity, tt.opts)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
	assert.Equal(t, 0, *calls)
}

func TestSpin_WallClockSmoke(t *testing.T) {
	fetch, calls := sequence("PENDING", "ACTIVE")

	start := time.Now()
	_, err := Spin(context.Background(), fetch, doneWhen("ACTIVE", ""), nil, Options{
		Interval: 10 * time.Millisecond,
		Timeout:  time.Second,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}
