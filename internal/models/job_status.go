package models

import (
	"fmt"
	"strings"
)

/*
Phase is the normalised lifecycle position of a remote resource. Raw status
strings from the remote services are mapped onto it once, at the boundary,
so classification elsewhere is an exhaustive switch over a closed set.
*/
type Phase string

const (
	PhasePending Phase = "pending"
	PhaseActive  Phase = "active"
	PhaseFailed  Phase = "failed"
	PhaseStopped Phase = "stopped"
	PhaseDeleted Phase = "deleted"
	PhaseUnknown Phase = "unknown"
)

// Raw status values reported by the recommendation service.
const (
	RawCreatePending    = "CREATE PENDING"
	RawCreateInProgress = "CREATE IN_PROGRESS"
	RawActive           = "ACTIVE"
	RawCreateFailed     = "CREATE FAILED"
	RawCreateStopping   = "CREATE STOPPING"
	RawCreateStopped    = "CREATE STOPPED"
	RawDeletePending    = "DELETE PENDING"
	RawDeleteInProgress = "DELETE IN_PROGRESS"
	RawDeleteFailed     = "DELETE FAILED"
	RawUpdatePending    = "UPDATE PENDING"
	RawUpdateInProgress = "UPDATE IN_PROGRESS"
	RawUpdateFailed     = "UPDATE FAILED"
	RawStopPending      = "STOP PENDING"
	RawStopInProgress   = "STOP IN_PROGRESS"
	RawInactive         = "INACTIVE"
	RawStartPending     = "START PENDING"
	RawStartInProgress  = "START IN_PROGRESS"
	RawPending          = "PENDING"
	RawInProgress       = "IN PROGRESS"
	// RawNotFound is synthesised by providers when the resource no longer exists.
	RawNotFound = "NOT FOUND"
)

// Raw status values reported by batch job APIs.
const (
	RawBatchValidating = "validating"
	RawBatchInProgress = "in_progress"
	RawBatchFinalizing = "finalizing"
	RawBatchCompleted  = "completed"
	RawBatchFailed     = "failed"
	RawBatchExpired    = "expired"
	RawBatchCancelling = "cancelling"
	RawBatchCancelled  = "cancelled"
)

var knownPhases = map[string]Phase{
	RawCreatePending:    PhasePending,
	RawCreateInProgress: PhasePending,
	RawActive:           PhaseActive,
	RawCreateFailed:     PhaseFailed,
	RawCreateStopping:   PhasePending,
	RawCreateStopped:    PhaseStopped,
	RawDeletePending:    PhasePending,
	RawDeleteInProgress: PhasePending,
	RawDeleteFailed:     PhaseFailed,
	RawUpdatePending:    PhasePending,
	RawUpdateInProgress: PhasePending,
	RawUpdateFailed:     PhaseFailed,
	RawStopPending:      PhasePending,
	RawStopInProgress:   PhasePending,
	RawInactive:         PhaseStopped,
	RawStartPending:     PhasePending,
	RawStartInProgress:  PhasePending,
	RawPending:          PhasePending,
	RawInProgress:       PhasePending,
	RawNotFound:         PhaseDeleted,

	RawBatchValidating: PhasePending,
	RawBatchInProgress: PhasePending,
	RawBatchFinalizing: PhasePending,
	RawBatchCompleted:  PhaseActive,
	RawBatchFailed:     PhaseFailed,
	RawBatchExpired:    PhaseFailed,
	RawBatchCancelling: PhasePending,
	RawBatchCancelled:  PhaseStopped,
}

// ParsePhase maps a raw remote status onto a Phase. Exact values are matched
// first; anything else containing "FAILED" is treated as a failure so that
// new failure states are still caught. Other unrecognised values are
// PhaseUnknown, which callers treat as still in progress.
func ParsePhase(raw string) Phase {
	trimmed := strings.TrimSpace(raw)
	if p, ok := knownPhases[trimmed]; ok {
		return p
	}
	if strings.Contains(strings.ToUpper(trimmed), "FAILED") {
		return PhaseFailed
	}
	return PhaseUnknown
}

// IsKnownStatus reports whether raw is one of the enumerated values.
func IsKnownStatus(raw string) bool {
	_, ok := knownPhases[strings.TrimSpace(raw)]
	return ok
}

// Target is the phase a wait is trying to reach.
type Target string

const (
	TargetActive  Target = "active"
	TargetDeleted Target = "deleted"
	TargetStopped Target = "stopped"
)

// ParseTarget validates a target name. Empty means TargetActive.
func ParseTarget(s string) (Target, error) {
	switch Target(strings.ToLower(strings.TrimSpace(s))) {
	case "", TargetActive:
		return TargetActive, nil
	case TargetDeleted:
		return TargetDeleted, nil
	case TargetStopped:
		return TargetStopped, nil
	}
	return "", fmt.Errorf("%w: unknown wait target %q", ErrValidation, s)
}

// Wait outcome constants, stored on the waits table.
const (
	WaitEnqueued  = "enqueued"
	WaitRunning   = "running"
	WaitSucceeded = "succeeded"
	WaitFailed    = "failed"
	WaitTimedOut  = "timed_out"
	WaitCancelled = "cancelled"
	WaitError     = "error"
)

// IsFinalOutcome reports whether a wait outcome is terminal.
func IsFinalOutcome(outcome string) bool {
	switch outcome {
	case WaitSucceeded, WaitFailed, WaitTimedOut, WaitCancelled, WaitError:
		return true
	}
	return false
}
