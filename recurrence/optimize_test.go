package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimize_MovesAnchor(t *testing.T) {
	d := mustDescriptor(t, Options{Freq: Daily, Dtstart: at(2020, 1, 1, 9, 0, 0)})
	res := newBetweenResult(at(2020, 3, 1, 0, 0, 0), at(2020, 3, 5, 0, 0, 0), true)

	opt, ok := optimize(*d, res, nil)
	require.True(t, ok)
	assert.Equal(t, at(2020, 2, 29, 9, 0, 0), opt.dtstart)
	assert.Equal(t, at(2020, 1, 1, 9, 0, 0), d.dtstart, "input descriptor must not change")

	// An excluded anchor candidate steps back one interval
	opt, ok = optimize(*d, res, newExclusionSet([]time.Time{at(2020, 2, 29, 9, 0, 0)}))
	require.True(t, ok)
	assert.Equal(t, at(2020, 2, 28, 9, 0, 0), opt.dtstart)
}

func TestOptimize_ClampsBudget(t *testing.T) {
	d := mustDescriptor(t, Options{Freq: Daily, Dtstart: at(2020, 1, 1, 9, 0, 0), Count: 10})

	opt, ok := optimize(*d, newAfterResult(at(2021, 1, 1, 0, 0, 0), false), nil)
	require.True(t, ok)
	assert.Equal(t, at(2020, 1, 10, 9, 0, 0), opt.dtstart)
	assert.Equal(t, 1, opt.count.MustGet())

	// The occurrence on an exclusive upper bound cannot serve as anchor
	opt, ok = optimize(*d, newBeforeResult(at(2020, 1, 5, 9, 0, 0), false), nil)
	require.True(t, ok)
	assert.Equal(t, at(2020, 1, 4, 9, 0, 0), opt.dtstart)

	opt, ok = optimize(*d, newAfterResult(at(2020, 1, 4, 12, 0, 0), false), nil)
	require.True(t, ok)
	assert.Equal(t, at(2020, 1, 4, 9, 0, 0), opt.dtstart)
	assert.Equal(t, 7, opt.count.MustGet())
}

func TestOptimize_Ineligible(t *testing.T) {
	start := at(2020, 1, 31, 9, 0, 0)
	later := newBetweenResult(at(2025, 1, 1, 0, 0, 0), at(2025, 2, 1, 0, 0, 0), true)

	tests := []struct {
		name string
		opts Options
		res  *iterResult
	}{
		{"all query", Options{Freq: Daily, Dtstart: start}, newAllResult()},
		{"month clause", Options{Freq: Daily, Dtstart: start, Bymonth: []int{1}}, later},
		{"non-UTC location", Options{Freq: Daily, Dtstart: start, Location: time.FixedZone("UTC+1", 3600)}, later},
		{"bound before anchor", Options{Freq: Daily, Dtstart: start}, newAfterResult(at(2019, 1, 1, 0, 0, 0), false)},
		{"anchor within first interval", Options{Freq: Weekly, Dtstart: start}, newAfterResult(start.AddDate(0, 0, 3), false)},
		{"counted rule on a short-month day", Options{Freq: Monthly, Dtstart: start, Count: 100}, later},
		{"before query on a short-month day", Options{Freq: Monthly, Dtstart: start}, newBeforeResult(at(2025, 1, 1, 0, 0, 0), false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDescriptor(t, tt.opts)
			_, ok := optimize(*d, tt.res, nil)
			assert.False(t, ok)
		})
	}
}

// Every query must give the same answer with and without the optimizer.
func TestOptimize_Equivalence(t *testing.T) {
	rules := []struct {
		value   string
		dtstart time.Time
	}{
		{"FREQ=DAILY", at(2000, 1, 1, 9, 30, 0)},
		{"FREQ=DAILY;INTERVAL=3;COUNT=2000", at(2000, 1, 1, 9, 30, 0)},
		{"FREQ=WEEKLY;BYDAY=MO,FR", at(2000, 1, 5, 8, 0, 0)},
		{"FREQ=WEEKLY;INTERVAL=3;COUNT=300;WKST=SU", at(2000, 1, 5, 8, 0, 0)},
		{"FREQ=MONTHLY;INTERVAL=2", at(2000, 1, 31, 12, 0, 0)},
		{"FREQ=MONTHLY;COUNT=100", at(2000, 1, 15, 12, 0, 0)},
		{"FREQ=YEARLY", at(2000, 2, 29, 0, 0, 0)},
		{"FREQ=YEARLY;COUNT=40", at(2000, 3, 1, 0, 0, 0)},
		{"FREQ=HOURLY;INTERVAL=7", at(2000, 1, 1, 0, 0, 0)},
		{"FREQ=MINUTELY;INTERVAL=13;COUNT=20000", at(2000, 1, 1, 0, 0, 0)},
	}
	bounds := []time.Time{
		at(2000, 1, 1, 0, 0, 0),
		at(2000, 1, 2, 11, 0, 0),
		at(2000, 1, 8, 9, 30, 0),
		at(2000, 1, 12, 8, 0, 0),
		at(2000, 3, 1, 12, 0, 0),
		at(2001, 7, 4, 0, 0, 0),
		at(2004, 2, 29, 0, 0, 0),
		at(2009, 12, 31, 23, 59, 59),
	}

	for _, rr := range rules {
		t.Run(rr.value, func(t *testing.T) {
			opts, err := ParseRRULE(rr.value, rr.dtstart)
			require.NoError(t, err)
			fast := mustRule(t, opts, WithoutCache())
			slow := mustRule(t, opts, WithoutCache(), WithOptimizationDisabled())

			for i, lo := range bounds {
				for _, inc := range []bool{false, true} {
					want, err := slow.After(lo, inc)
					require.NoError(t, err)
					got, err := fast.After(lo, inc)
					require.NoError(t, err)
					assert.Equal(t, want, got, "after %s inc=%v", lo, inc)

					want, err = slow.Before(lo, inc)
					require.NoError(t, err)
					got, err = fast.Before(lo, inc)
					require.NoError(t, err)
					assert.Equal(t, want, got, "before %s inc=%v", lo, inc)

					if i+1 < len(bounds) {
						hi := lo.AddDate(0, 0, 20)
						wantList, err := slow.Between(lo, hi, inc)
						require.NoError(t, err)
						gotList, err := fast.Between(lo, hi, inc)
						require.NoError(t, err)
						assert.Equal(t, wantList, gotList, "between %s and %s inc=%v", lo, hi, inc)
					}
				}
			}
		})
	}
}
