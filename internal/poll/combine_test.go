package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_PreservesOrder(t *testing.T) {
	slow := func(ctx context.Context) (string, error) {
		time.Sleep(5 * time.Millisecond)
		return "slow", nil
	}
	fast := func(ctx context.Context) (string, error) { return "fast", nil }

	got, err := All[string](slow, fast)(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"slow", "fast"}, got)
}

func TestAll_ReturnsProducerError(t *testing.T) {
	boom := errors.New("throttled")
	ok := func(ctx context.Context) (string, error) { return "ACTIVE", nil }
	bad := func(ctx context.Context) (string, error) { return "", boom }

	_, err := All[string](ok, bad)(context.Background())

	assert.True(t, err == boom)
}

func TestAllOf(t *testing.T) {
	p := AllOf(doneWhen("ACTIVE", "CREATE FAILED"))

	assert.Equal(t, Succeeded, p([]string{"ACTIVE", "ACTIVE"}))
	assert.Equal(t, Pending, p([]string{"ACTIVE", "CREATE PENDING"}))
	assert.Equal(t, Failed, p([]string{"CREATE PENDING", "CREATE FAILED"}))
	assert.Equal(t, Succeeded, p(nil))
}

func TestJoinFormat(t *testing.T) {
	f := JoinFormat(func(s string) string { return "[" + s + "]" })
	assert.Equal(t, "[a], [b]", f([]string{"a", "b"}))
}

func TestSpin_MultipleJobsTogether(t *testing.T) {
	var a, b atomic.Int32
	jobA := func(ctx context.Context) (string, error) {
		if a.Add(1) >= 2 {
			return "ACTIVE", nil
		}
		return "CREATE IN_PROGRESS", nil
	}
	jobB := func(ctx context.Context) (string, error) {
		if b.Add(1) >= 3 {
			return "ACTIVE", nil
		}
		return "CREATE PENDING", nil
	}
	var lines []string

	last, err := Spin(context.Background(),
		All[string](jobA, jobB),
		AllOf(doneWhen("ACTIVE", "CREATE FAILED")),
		JoinFormat(identity),
		Options{
			Interval: time.Second,
			Timeout:  time.Minute,
			Reporter: ReporterFunc(func(t Tick) { lines = append(lines, t.Status) }),
			Clock:    newFakeClock(),
		})

	require.NoError(t, err)
	assert.Equal(t, []string{"ACTIVE", "ACTIVE"}, last)
	assert.Equal(t, int32(3), a.Load())
	assert.Equal(t, int32(3), b.Load())
	assert.Equal(t, []string{
		"CREATE IN_PROGRESS, CREATE PENDING",
		"ACTIVE, CREATE PENDING",
	}, lines)
}
