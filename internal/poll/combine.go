package poll

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// All fetches every producer concurrently within a single iteration and
// returns their snapshots in order. The first error wins and is returned
// unchanged.
func All[S any](producers ...Producer[S]) Producer[[]S] {
	return func(ctx context.Context) ([]S, error) {
		out := make([]S, len(producers))
		g, gctx := errgroup.WithContext(ctx)
		for i, p := range producers {
			g.Go(func() error {
				s, err := p(gctx)
				if err != nil {
					return err
				}
				out[i] = s
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// AllOf lifts a per-job predicate to a slice of snapshots. Any Failed job
// fails the group; the group succeeds once every job has succeeded.
func AllOf[S any](p Predicate[S]) Predicate[[]S] {
	return func(ss []S) Outcome {
		result := Succeeded
		for _, s := range ss {
			switch p(s) {
			case Failed:
				return Failed
			case Pending:
				result = Pending
			}
		}
		return result
	}
}

// JoinFormat renders a slice of snapshots separated by ", ".
func JoinFormat[S any](f Formatter[S]) Formatter[[]S] {
	return func(ss []S) string {
		parts := make([]string, len(ss))
		for i, s := range ss {
			parts[i] = f(s)
		}
		return strings.Join(parts, ", ")
	}
}
