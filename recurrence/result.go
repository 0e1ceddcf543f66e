package recurrence

import (
	"time"

	"github.com/samber/mo"
)

// Iterator is called for every occurrence a query is about to collect, with
// the number already collected. Returning false stops the query; the
// occurrence is then not collected.
type Iterator func(t time.Time, n int) bool

type queryKind int

const (
	queryAll queryKind = iota
	queryBetween
	queryBefore
	queryAfter
)

func (k queryKind) String() string {
	switch k {
	case queryAll:
		return "all"
	case queryBetween:
		return "between"
	case queryBefore:
		return "before"
	case queryAfter:
		return "after"
	}
	return "unknown"
}

// iterResult accumulates the occurrences one query accepts and decides when
// generation may stop.
type iterResult struct {
	kind     queryKind
	min, max mo.Option[time.Time]
	inc      bool
	iterator Iterator

	results []time.Time
	total   int
}

func newAllResult() *iterResult {
	return &iterResult{kind: queryAll}
}

func newBetweenResult(after, before time.Time, inc bool) *iterResult {
	return &iterResult{kind: queryBetween, min: mo.Some(after), max: mo.Some(before), inc: inc}
}

func newBeforeResult(dt time.Time, inc bool) *iterResult {
	return &iterResult{kind: queryBefore, max: mo.Some(dt), inc: inc}
}

func newAfterResult(dt time.Time, inc bool) *iterResult {
	return &iterResult{kind: queryAfter, min: mo.Some(dt), inc: inc}
}

// bound is the instant the range optimizer may fast-forward towards: the
// lower bound when there is one, else the upper bound.
func (r *iterResult) bound() (time.Time, bool) {
	if min, ok := r.min.Get(); ok {
		return min, true
	}
	return r.max.Get()
}

func (r *iterResult) tooEarly(t time.Time) bool {
	min, ok := r.min.Get()
	if !ok {
		return false
	}
	return t.Before(min) || (!r.inc && t.Equal(min))
}

func (r *iterResult) tooLate(t time.Time) bool {
	max, ok := r.max.Get()
	if !ok {
		return false
	}
	return t.After(max) || (!r.inc && t.Equal(max))
}

// accept offers one occurrence and reports whether generation should go on.
func (r *iterResult) accept(t time.Time) bool {
	r.total++

	switch r.kind {
	case queryBetween:
		if r.tooEarly(t) {
			return true
		}
		if r.tooLate(t) {
			return false
		}
	case queryBefore:
		if r.tooLate(t) {
			return false
		}
	case queryAfter:
		if r.tooEarly(t) {
			return true
		}
		r.add(t)
		return false
	}

	return r.add(t)
}

func (r *iterResult) add(t time.Time) bool {
	if r.iterator != nil && !r.iterator(t, len(r.results)) {
		return false
	}
	r.results = append(r.results, t)
	return true
}

// list is the value of an all or between query.
func (r *iterResult) list() []time.Time {
	return r.results
}

// single is the value of a before or after query: the last collected
// occurrence, if any.
func (r *iterResult) single() mo.Option[time.Time] {
	if len(r.results) == 0 {
		return mo.None[time.Time]()
	}
	return mo.Some(r.results[len(r.results)-1])
}
