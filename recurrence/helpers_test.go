package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// anchor is the DTSTART most RFC 5545 examples use: a Tuesday.
var anchor = at(1997, 9, 2, 9, 0, 0)

func at(year int, month time.Month, day, hour, minute, second int) time.Time {
	return time.Date(year, month, day, hour, minute, second, 0, time.UTC)
}

func mustRule(t *testing.T, opts Options, ruleOpts ...RuleOption) *Rule {
	t.Helper()
	r, err := NewRule(opts, ruleOpts...)
	require.NoError(t, err)
	return r
}

func mustParse(t *testing.T, value string, dtstart time.Time, ruleOpts ...RuleOption) *Rule {
	t.Helper()
	opts, err := ParseRRULE(value, dtstart)
	require.NoError(t, err)
	return mustRule(t, opts, ruleOpts...)
}

// millis makes time slices comparable regardless of location.
func millis(times []time.Time) []int64 {
	out := make([]int64, len(times))
	for i, t := range times {
		out[i] = t.UnixMilli()
	}
	return out
}
