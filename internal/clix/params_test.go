package clix

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recops/internal/models"
)

func TestParsePagination(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("limit", 0, "")
	flags.Int("offset", 0, "")
	require.NoError(t, flags.Parse([]string{"--limit=-3", "--offset=-1"}))

	p, err := ParsePagination(flags)
	require.NoError(t, err)
	assert.Equal(t, PaginationParams{Limit: 20, Offset: 0}, p)
}

func TestParseWaitParams(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddWaitFlags(flags)
	require.NoError(t, flags.Parse([]string{"--target", "deleted", "--interval", "5s"}))

	p, err := ParseWaitParams(flags)
	require.NoError(t, err)
	assert.Equal(t, models.TargetDeleted, p.Target)
	assert.Equal(t, 5*time.Second, p.Interval)
	assert.Zero(t, p.Timeout)
}

func TestParseWaitParams_BadTarget(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddWaitFlags(flags)
	require.NoError(t, flags.Parse([]string{"--target", "gone"}))

	_, err := ParseWaitParams(flags)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestParseRefs(t *testing.T) {
	refs, err := ParseRefs("solution-version", []string{"arn:a, arn:b", "arn:c", " "})
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, models.ResourceRef{Kind: models.KindSolutionVersion, ID: "arn:b"}, refs[1])

	_, err = ParseRefs("campaign", []string{","})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = ParseRefs("widget", []string{"x"})
	assert.ErrorIs(t, err, models.ErrUnsupportedKind)
}
