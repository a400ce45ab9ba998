package poll

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy retries transient fetch errors inside a single iteration.
// Errors for which Transient returns false are returned on the first attempt.
type RetryPolicy struct {
	MaxAttempts     int // retries after the first attempt; 0 disables
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Transient       func(error) bool
	OnRetry         func(err error, next time.Duration)
}

// Retry wraps fetch with p. With a zero policy fetch is returned unchanged.
func Retry[S any](fetch Producer[S], p RetryPolicy) Producer[S] {
	if p.MaxAttempts <= 0 || p.Transient == nil {
		return fetch
	}
	return func(ctx context.Context) (S, error) {
		var out S
		op := func() error {
			s, err := fetch(ctx)
			if err != nil {
				if !p.Transient(err) {
					return backoff.Permanent(err)
				}
				return err
			}
			out = s
			return nil
		}

		b := backoff.NewExponentialBackOff()
		if p.InitialInterval > 0 {
			b.InitialInterval = p.InitialInterval
		}
		if p.MaxInterval > 0 {
			b.MaxInterval = p.MaxInterval
		}
		b.MaxElapsedTime = 0

		policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxAttempts)), ctx)
		err := backoff.RetryNotify(op, policy, func(err error, next time.Duration) {
			if p.OnRetry != nil {
				p.OnRetry(err, next)
			}
		})
		return out, err
	}
}
