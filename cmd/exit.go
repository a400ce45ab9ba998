package cmd

import (
	"context"
	"errors"

	"recops/internal/poll"
)

// Exit codes for `recops wait`, so scripts can tell outcomes apart.
const (
	exitError     = 1
	exitFailed    = 2
	exitTimedOut  = 3
	exitCancelled = 130
)

func exitCode(err error) int {
	switch {
	case errors.Is(err, poll.ErrJobFailed):
		return exitFailed
	case errors.Is(err, poll.ErrPollingTimedOut):
		return exitTimedOut
	case errors.Is(err, context.Canceled):
		return exitCancelled
	}
	return exitError
}
