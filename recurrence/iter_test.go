package recurrence

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
)

func TestIterate_Budget(t *testing.T) {
	tests := []struct {
		name  string
		count mo.Option[int]
		want  []time.Time
	}{
		{"empty budget", mo.Some(0), nil},
		{"two occurrences", mo.Some(2), []time.Time{at(2024, 1, 1, 9, 0, 0), at(2024, 1, 2, 9, 0, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDescriptor(t, Options{Freq: Daily, Dtstart: at(2024, 1, 1, 9, 0, 0)})
			d.count = tt.count

			res := newAllResult()
			ceiling := iterate(d, res)
			assert.False(t, ceiling)
			assert.Equal(t, tt.want, res.list())
		})
	}
}
