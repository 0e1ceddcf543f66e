package recurrence

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Rule is a validated recurrence rule that answers occurrence queries.
// A Rule is not safe for concurrent use.
type Rule struct {
	id   uuid.UUID
	opts Options
	desc descriptor

	cache            *resultCache
	noCache          bool
	skipOptimization bool
	logger           *slog.Logger
}

// RuleOption configures a Rule
type RuleOption func(*Rule)

// WithLogger sets the logger for the rule
func WithLogger(logger *slog.Logger) RuleOption {
	return func(r *Rule) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithoutCache disables result memoization for the rule
func WithoutCache() RuleOption {
	return func(r *Rule) {
		r.noCache = true
	}
}

// WithOptimizationDisabled makes every bounded query iterate from the anchor
func WithOptimizationDisabled() RuleOption {
	return func(r *Rule) {
		r.skipOptimization = true
	}
}

// NewRule validates opts and builds a Rule from them
func NewRule(opts Options, ruleOpts ...RuleOption) (*Rule, error) {
	desc, err := newDescriptor(opts)
	if err != nil {
		return nil, err
	}

	r := &Rule{
		id:     uuid.New(),
		opts:   copyOptions(opts),
		desc:   desc,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range ruleOpts {
		opt(r)
	}
	if !r.noCache {
		r.cache = newResultCache()
	}
	return r, nil
}

// ID returns the identifier assigned to this rule instance
func (r *Rule) ID() uuid.UUID {
	return r.id
}

// Options returns a copy of the options the rule was built from
func (r *Rule) Options() Options {
	return copyOptions(r.opts)
}

// DisableOptimization turns the range optimizer off for later queries
func (r *Rule) DisableOptimization() {
	r.skipOptimization = true
}

// Clone returns an independent rule with the same options and an empty cache
func (r *Rule) Clone() *Rule {
	c := &Rule{
		id:               uuid.New(),
		opts:             copyOptions(r.opts),
		desc:             r.desc,
		noCache:          r.noCache,
		skipOptimization: r.skipOptimization,
		logger:           r.logger,
	}
	if !c.noCache {
		c.cache = newResultCache()
	}
	return c
}

// All returns every occurrence of the rule in order. For a rule with neither
// Count nor Until this runs up to the last supported year.
func (r *Rule) All() []time.Time {
	if r.cache != nil {
		if v, ok := r.cache.getAll(); ok {
			r.logger.Debug("cache hit", "rule", r.id, "query", queryAll)
			return v
		}
	}

	res := newAllResult()
	r.run(res, nil)
	if r.cache != nil {
		r.cache.setAll(res.list())
	}
	return res.list()
}

// AllFunc is All with a per-occurrence callback that may end the query early.
// Its results are never cached.
func (r *Rule) AllFunc(it Iterator) []time.Time {
	res := newAllResult()
	res.iterator = it
	r.run(res, nil)
	return res.list()
}

// Count returns the number of occurrences of the rule
func (r *Rule) Count() int {
	return len(r.All())
}

// Between returns the occurrences after after and before before, including
// the bounds themselves when inc is set.
func (r *Rule) Between(after, before time.Time, inc bool) ([]time.Time, error) {
	return r.between(after, before, inc, nil, nil)
}

// BetweenFunc is Between with a per-occurrence callback. Its results are
// never cached.
func (r *Rule) BetweenFunc(after, before time.Time, inc bool, it Iterator) ([]time.Time, error) {
	if it == nil {
		return nil, invalidArgument("iterator is nil")
	}
	return r.between(after, before, inc, it, nil)
}

// between lets the event engine hand its EXDATE set to the optimizer. An
// exclusion set bypasses the cache since it changes the iteration.
func (r *Rule) between(after, before time.Time, inc bool, it Iterator, excl exclusionSet) ([]time.Time, error) {
	if after.IsZero() || before.IsZero() {
		return nil, invalidArgument("between requires both bounds")
	}

	res := newBetweenResult(after, before, inc)
	res.iterator = it
	key := betweenKey(after, before, inc)
	cacheable := r.cache != nil && it == nil && excl == nil

	if cacheable {
		if v, ok := r.cache.get(key, res); ok {
			r.logger.Debug("cache hit", "rule", r.id, "query", queryBetween)
			return v, nil
		}
	}

	r.run(res, excl)
	if cacheable {
		r.cache.set(key, res.list())
	}
	return res.list(), nil
}

// Before returns the last occurrence before dt, or dt itself when inc is set
// and dt is an occurrence.
func (r *Rule) Before(dt time.Time, inc bool) (mo.Option[time.Time], error) {
	if dt.IsZero() {
		return mo.None[time.Time](), invalidArgument("before requires an instant")
	}
	return r.single(newBeforeResult(dt, inc), beforeKey(dt, inc)), nil
}

// After returns the first occurrence after dt, or dt itself when inc is set
// and dt is an occurrence.
func (r *Rule) After(dt time.Time, inc bool) (mo.Option[time.Time], error) {
	if dt.IsZero() {
		return mo.None[time.Time](), invalidArgument("after requires an instant")
	}
	return r.single(newAfterResult(dt, inc), afterKey(dt, inc)), nil
}

func (r *Rule) single(res *iterResult, key cacheKey) mo.Option[time.Time] {
	if r.cache != nil {
		if v, ok := r.cache.get(key, res); ok {
			r.logger.Debug("cache hit", "rule", r.id, "query", key.kind)
			return firstOf(v)
		}
	}

	r.run(res, nil)
	v := res.single()
	if r.cache != nil {
		r.cache.set(key, optionSlice(v))
	}
	return v
}

func firstOf(v []time.Time) mo.Option[time.Time] {
	if len(v) == 0 {
		return mo.None[time.Time]()
	}
	return mo.Some(v[0])
}

// run optimizes the descriptor for the query when allowed, then drives the
// iteration into res.
func (r *Rule) run(res *iterResult, excl exclusionSet) {
	d := r.desc
	if !r.skipOptimization {
		if opt, ok := optimize(d, res, excl); ok {
			r.logger.Debug("range optimizer applied",
				"rule", r.id,
				"query", res.kind,
				"anchor", d.dtstart,
				"new_anchor", opt.dtstart)
			d = opt
		}
	}

	if ceiling := iterate(&d, res); ceiling {
		r.logger.Debug("iteration stopped at year ceiling",
			"rule", r.id,
			"query", res.kind,
			"accepted", res.total)
	}
}

func copyOptions(o Options) Options {
	o.Bysetpos = clone(o.Bysetpos)
	o.Bymonth = clone(o.Bymonth)
	o.Bymonthday = clone(o.Bymonthday)
	o.Byyearday = clone(o.Byyearday)
	o.Byweekno = clone(o.Byweekno)
	o.Byweekday = clone(o.Byweekday)
	o.Byhour = clone(o.Byhour)
	o.Byminute = clone(o.Byminute)
	o.Bysecond = clone(o.Bysecond)
	o.Byeaster = clone(o.Byeaster)
	return o
}
