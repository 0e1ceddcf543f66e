package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

// Rules whose BYSETPOS never selects a candidate earlier than DTSTART, so the
// budget accounting of both implementations agrees.
var oracleRules = []string{
	"FREQ=YEARLY;COUNT=10",
	"FREQ=YEARLY;COUNT=10;BYMONTH=2,8;BYDAY=1MO,-1FR",
	"FREQ=YEARLY;COUNT=10;BYYEARDAY=1,-1,180",
	"FREQ=YEARLY;COUNT=15;BYWEEKNO=10,20,-2;BYDAY=WE,SA",
	"FREQ=YEARLY;COUNT=8;BYEASTER=-2,0,49",
	"FREQ=YEARLY;INTERVAL=3;COUNT=10;BYMONTHDAY=-1;BYMONTH=2",
	"FREQ=MONTHLY;COUNT=24;BYDAY=MO,TU,WE,TH,FR;BYSETPOS=-1",
	"FREQ=MONTHLY;COUNT=24;BYMONTHDAY=1,15,-1",
	"FREQ=MONTHLY;INTERVAL=5;COUNT=20;BYDAY=2SU,-2SA",
	"FREQ=MONTHLY;COUNT=20;BYDAY=FR;BYMONTHDAY=13",
	"FREQ=WEEKLY;COUNT=30;BYDAY=MO,WE,FR",
	"FREQ=WEEKLY;INTERVAL=2;COUNT=30;BYDAY=SU,TU;WKST=SU",
	"FREQ=WEEKLY;COUNT=20;BYDAY=TU,TH;BYHOUR=8,20;BYSETPOS=-1",
	"FREQ=DAILY;COUNT=50;BYMONTH=12,1",
	"FREQ=DAILY;INTERVAL=3;COUNT=40;BYHOUR=7,19;BYMINUTE=30",
	"FREQ=DAILY;COUNT=30;BYDAY=SA,SU;BYHOUR=10",
	"FREQ=HOURLY;INTERVAL=7;COUNT=60",
	"FREQ=HOURLY;COUNT=40;BYHOUR=0,12;BYDAY=MO",
	"FREQ=MINUTELY;INTERVAL=45;COUNT=80;BYHOUR=9,10,11",
	"FREQ=SECONDLY;INTERVAL=1000;COUNT=80",
	"FREQ=SECONDLY;COUNT=30;BYSECOND=0,30;BYMINUTE=0",
}

func oracle(t *testing.T, opts Options) *rrule.RRule {
	t.Helper()
	ref, err := rrule.NewRRule(opts.ROption())
	require.NoError(t, err)
	return ref
}

func TestRule_MatchesReference(t *testing.T) {
	for _, value := range oracleRules {
		t.Run(value, func(t *testing.T) {
			opts, err := ParseRRULE(value, anchor)
			require.NoError(t, err)

			ref := oracle(t, opts)
			want := ref.All()
			got := mustRule(t, opts).All()
			require.Equal(t, millis(want), millis(got))

			windows := [][2]time.Time{
				{anchor, anchor.AddDate(0, 1, 0)},
				{want[len(want)/3], want[2*len(want)/3]},
				{want[len(want)-1].Add(-time.Hour), want[len(want)-1].AddDate(1, 0, 0)},
			}
			for _, w := range windows {
				for _, inc := range []bool{false, true} {
					got, err := mustRule(t, opts).Between(w[0], w[1], inc)
					require.NoError(t, err)
					assert.Equal(t, millis(ref.Between(w[0], w[1], inc)), millis(got), "between %s and %s inc=%v", w[0], w[1], inc)
				}
			}
		})
	}
}

// Open-ended rules go through the range optimizer; the reference has none.
func TestRule_OpenEndedMatchesReference(t *testing.T) {
	rules := []string{
		"FREQ=DAILY",
		"FREQ=DAILY;INTERVAL=3",
		"FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,TH",
		"FREQ=HOURLY;INTERVAL=5",
		"FREQ=MINUTELY;INTERVAL=90",
		"FREQ=MONTHLY;INTERVAL=4",
	}
	from, to := at(2031, 3, 14, 12, 0, 0), at(2031, 4, 2, 0, 0, 0)

	for _, value := range rules {
		t.Run(value, func(t *testing.T) {
			opts, err := ParseRRULE(value, anchor)
			require.NoError(t, err)
			ref := oracle(t, opts)

			got, err := mustRule(t, opts).Between(from, to, true)
			require.NoError(t, err)
			assert.Equal(t, millis(ref.Between(from, to, true)), millis(got))

			next, err := mustRule(t, opts).After(from, false)
			require.NoError(t, err)
			assert.Equal(t, ref.After(from, false).UnixMilli(), next.MustGet().UnixMilli())
		})
	}
}
