package recurrence

import (
	"slices"
	"time"

	"github.com/samber/mo"
)

// cacheKey identifies a query by kind and normalized arguments. Instants are
// stored as Unix nanoseconds so that equal instants in different locations
// share an entry.
type cacheKey struct {
	kind          queryKind
	after, before int64
	inc           bool
}

func betweenKey(after, before time.Time, inc bool) cacheKey {
	return cacheKey{kind: queryBetween, after: after.UnixNano(), before: before.UnixNano(), inc: inc}
}

func beforeKey(dt time.Time, inc bool) cacheKey {
	return cacheKey{kind: queryBefore, before: dt.UnixNano(), inc: inc}
}

func afterKey(dt time.Time, inc bool) cacheKey {
	return cacheKey{kind: queryAfter, after: dt.UnixNano(), inc: inc}
}

// resultCache memoizes completed query results for one Rule. Single-value
// queries are stored as zero- or one-element lists. Values are copied in
// and out so callers cannot corrupt cached results.
type resultCache struct {
	all     []time.Time
	hasAll  bool
	entries map[cacheKey][]time.Time
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[cacheKey][]time.Time)}
}

func (c *resultCache) getAll() ([]time.Time, bool) {
	if !c.hasAll {
		return nil, false
	}
	return slices.Clone(c.all), true
}

func (c *resultCache) setAll(all []time.Time) {
	c.all = slices.Clone(all)
	c.hasAll = true
}

// get returns the cached value for key. On a miss with a cached all() result
// the value is derived by replaying it through a fresh accumulator.
func (c *resultCache) get(key cacheKey, res *iterResult) ([]time.Time, bool) {
	if v, ok := c.entries[key]; ok {
		return slices.Clone(v), true
	}
	if !c.hasAll {
		return nil, false
	}

	for _, t := range c.all {
		if !res.accept(t) {
			break
		}
	}
	v := res.list()
	if key.kind == queryBefore || key.kind == queryAfter {
		v = optionSlice(res.single())
	}
	c.set(key, v)
	return slices.Clone(v), true
}

func (c *resultCache) set(key cacheKey, v []time.Time) {
	c.entries[key] = slices.Clone(v)
}

func (c *resultCache) len() int {
	n := len(c.entries)
	if c.hasAll {
		n++
	}
	return n
}

func optionSlice(o mo.Option[time.Time]) []time.Time {
	if t, ok := o.Get(); ok {
		return []time.Time{t}
	}
	return nil
}
