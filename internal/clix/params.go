package clix

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"recops/internal/models"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

func ParsePagination(flags *pflag.FlagSet) (PaginationParams, error) {
	limit, _ := flags.GetInt("limit")
	offset, _ := flags.GetInt("offset")
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return PaginationParams{Limit: limit, Offset: offset}, nil
}

// WaitParams are the shared flags of the wait commands. Zero durations mean
// the configured defaults.
type WaitParams struct {
	Target   models.Target
	Interval time.Duration
	Timeout  time.Duration
}

// AddWaitFlags registers --target, --interval and --timeout on flags.
func AddWaitFlags(flags *pflag.FlagSet) {
	flags.String("target", string(models.TargetActive), "Phase to wait for: active, deleted or stopped")
	flags.Duration("interval", 0, "Delay between status checks (default from poll.interval)")
	flags.Duration("timeout", 0, "Give up after this long (default from poll.timeout)")
}

func ParseWaitParams(flags *pflag.FlagSet) (WaitParams, error) {
	targetStr, _ := flags.GetString("target")
	target, err := models.ParseTarget(targetStr)
	if err != nil {
		return WaitParams{}, err
	}
	interval, _ := flags.GetDuration("interval")
	timeout, _ := flags.GetDuration("timeout")
	if interval < 0 || timeout < 0 {
		return WaitParams{}, fmt.Errorf("%w: --interval and --timeout cannot be negative", models.ErrValidation)
	}
	return WaitParams{Target: target, Interval: interval, Timeout: timeout}, nil
}

// ParseRefs builds refs of one kind from ids. Each argument may itself be a
// comma separated list.
func ParseRefs(kindStr string, args []string) ([]models.ResourceRef, error) {
	kind, err := models.ParseKind(kindStr)
	if err != nil {
		return nil, err
	}
	var refs []models.ResourceRef
	for _, arg := range args {
		// Trim space and filter out empty strings in one pass
		for _, id := range strings.Split(arg, ",") {
			trimmed := strings.TrimSpace(id)
			if trimmed != "" {
				refs = append(refs, models.ResourceRef{Kind: kind, ID: trimmed})
			}
		}
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: at least one %s id is required", models.ErrValidation, kind)
	}
	return refs, nil
}
