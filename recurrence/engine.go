package recurrence

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"
)

// Engine expands events described by a master instance and its
// RecurrenceInfo. It is safe for concurrent use: every call builds its own
// Rules and only the shared OccurrenceCache is guarded.
type Engine struct {
	cache   *OccurrenceCache
	config  EngineConfig
	metrics *engineMetrics
	logger  *slog.Logger
}

// NewEngine creates a new recurrence engine with DefaultEngineConfig
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig)
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration
func NewEngineWithConfig(config EngineConfig) *Engine {
	e := &Engine{
		config:  config,
		metrics: newEngineMetrics(config.Registerer),
		logger:  config.Logger,
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.CacheEnabled {
		e.cache = NewOccurrenceCache(config.CacheConfig)
	}
	return e
}

// Close releases the engine cache
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// CacheStats returns statistics of the engine cache, or zero stats when
// caching is disabled
func (e *Engine) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

// Expand returns the occurrences of an event overlapping [rangeStart,
// rangeEnd]: the master instance, RRULE and RDATE instances, minus EXDATE and
// EXRULE instances. Each occurrence lasts as long as the master. The result
// is sorted, free of duplicates and capped at MaxExpansionOccurrences.
func (e *Engine) Expand(
	masterStart, masterEnd time.Time,
	recurrence RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
) ([]TimeOccurrence, error) {
	if rangeEnd.Before(rangeStart) {
		return nil, invalidArgument("range end %s is before range start %s", rangeEnd, rangeStart)
	}

	key := ""
	if e.cache != nil {
		key = occurrenceCacheKey("expand", masterStart, masterEnd, recurrence, rangeStart, rangeEnd)
		if v, ok := e.cache.Get(key); ok {
			e.metrics.cacheHits.WithLabelValues("expand").Inc()
			return slices.Clone(v.([]TimeOccurrence)), nil
		}
		e.metrics.cacheMisses.WithLabelValues("expand").Inc()
	}

	defer e.metrics.observeExpansion(time.Now())

	occurrences, err := e.expand(masterStart, masterEnd, recurrence, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Set(key, slices.Clone(occurrences))
	}
	return occurrences, nil
}

func (e *Engine) expand(
	masterStart, masterEnd time.Time,
	recurrence RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
) ([]TimeOccurrence, error) {
	duration := masterEnd.Sub(masterStart)

	// An override instance stands for a single occurrence
	if recurrence.RecurrenceID != nil {
		if !overlaps(masterStart, masterEnd, rangeStart, rangeEnd) {
			return nil, nil
		}
		recID := *recurrence.RecurrenceID
		return []TimeOccurrence{{Start: masterStart, End: masterEnd, IsException: true, RecurrenceID: &recID}}, nil
	}

	// Any start in [lo, rangeEnd] yields an overlapping occurrence
	lo := rangeStart.Add(-duration)
	starts := []time.Time{masterStart}

	exruleStarts, err := e.exruleStarts(recurrence.EXRULE, masterStart, lo, rangeEnd)
	if err != nil {
		return nil, err
	}

	if recurrence.RRULE != "" {
		rule, err := e.newRule(recurrence.RRULE, masterStart)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RRULE: %w", err)
		}
		ruleStarts, err := rule.between(lo, rangeEnd, true, e.budget(recurrence.EXDATE, exruleStarts), newExclusionSet(recurrence.EXDATE))
		if err != nil {
			return nil, err
		}
		starts = append(starts, ruleStarts...)
	}
	starts = append(starts, recurrence.RDATE...)

	slices.SortFunc(starts, func(a, b time.Time) int { return a.Compare(b) })
	starts = slices.CompactFunc(starts, func(a, b time.Time) bool { return a.Equal(b) })

	var occurrences []TimeOccurrence
	for _, start := range starts {
		end := start.Add(duration)
		if !overlaps(start, end, rangeStart, rangeEnd) {
			continue
		}
		if isExcluded(start, recurrence.EXDATE) || exruleStarts.contains(start) {
			continue
		}
		occurrences = append(occurrences, TimeOccurrence{Start: start, End: end})
		if limit := e.config.MaxExpansionOccurrences; limit > 0 && len(occurrences) >= limit {
			e.logger.Warn("expansion truncated",
				"master_start", masterStart,
				"limit", limit)
			break
		}
	}
	return occurrences, nil
}

// budget stops a between query once the expansion limit is reached by
// instances that survive EXDATE and EXRULE. Excluded instances are collected
// without counting; expand drops them afterwards.
func (e *Engine) budget(exdates []time.Time, exrules exclusionSet) Iterator {
	limit := e.config.MaxExpansionOccurrences
	if limit <= 0 {
		return nil
	}
	survivors := 0
	return func(t time.Time, _ int) bool {
		if isExcluded(t, exdates) || exrules.contains(t) {
			return true
		}
		if survivors == limit {
			return false
		}
		survivors++
		return true
	}
}

// exruleStarts collects the EXRULE instances starting in [lo, hi]
func (e *Engine) exruleStarts(exrules []string, masterStart, lo, hi time.Time) (exclusionSet, error) {
	var all []time.Time
	for _, exrule := range exrules {
		rule, err := e.newRule(exrule, masterStart)
		if err != nil {
			return nil, fmt.Errorf("failed to parse EXRULE: %w", err)
		}
		starts, err := rule.Between(lo, hi, true)
		if err != nil {
			return nil, err
		}
		all = append(all, starts...)
	}
	return newExclusionSet(all), nil
}

// HasOccurrenceInRange checks if a recurring event has any occurrence in the
// time range without expanding it. Rule instances are walked with after
// queries, inspecting at most MaxExpansionOccurrences excluded candidates.
func (e *Engine) HasOccurrenceInRange(
	masterStart, masterEnd time.Time,
	recurrence RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
) (bool, error) {
	if rangeEnd.Before(rangeStart) {
		return false, invalidArgument("range end %s is before range start %s", rangeEnd, rangeStart)
	}

	key := ""
	if e.cache != nil {
		key = occurrenceCacheKey("has", masterStart, masterEnd, recurrence, rangeStart, rangeEnd)
		if v, ok := e.cache.Get(key); ok {
			e.metrics.cacheHits.WithLabelValues("has").Inc()
			return v.(bool), nil
		}
		e.metrics.cacheMisses.WithLabelValues("has").Inc()
	}

	found, err := e.hasOccurrenceInRange(masterStart, masterEnd, recurrence, rangeStart, rangeEnd)
	if err != nil {
		return false, err
	}

	if e.cache != nil {
		e.cache.Set(key, found)
	}
	return found, nil
}

func (e *Engine) hasOccurrenceInRange(
	masterStart, masterEnd time.Time,
	recurrence RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
) (bool, error) {
	duration := masterEnd.Sub(masterStart)
	lo := rangeStart.Add(-duration)

	var exrules []*Rule
	for _, exrule := range recurrence.EXRULE {
		rule, err := e.newRule(exrule, masterStart)
		if err != nil {
			return false, fmt.Errorf("failed to parse EXRULE: %w", err)
		}
		exrules = append(exrules, rule)
	}
	excluded := func(t time.Time) (bool, error) {
		if isExcluded(t, recurrence.EXDATE) {
			return true, nil
		}
		for _, rule := range exrules {
			next, err := rule.After(t, true)
			if err != nil {
				return false, err
			}
			if v, ok := next.Get(); ok && v.Equal(t) {
				return true, nil
			}
		}
		return false, nil
	}

	// Fast path: check the master instance first
	if overlaps(masterStart, masterEnd, rangeStart, rangeEnd) {
		ex, err := excluded(masterStart)
		if err != nil {
			return false, err
		}
		if !ex {
			return true, nil
		}
	}

	if recurrence.RRULE != "" {
		rule, err := e.newRule(recurrence.RRULE, masterStart)
		if err != nil {
			return false, fmt.Errorf("failed to check RRULE occurrences: %w", err)
		}

		cursor, inc := lo, true
		for tries := 0; e.config.MaxExpansionOccurrences <= 0 || tries < e.config.MaxExpansionOccurrences; tries++ {
			next, err := rule.After(cursor, inc)
			if err != nil {
				return false, err
			}
			start, ok := next.Get()
			if !ok || start.After(rangeEnd) {
				break
			}
			ex, err := excluded(start)
			if err != nil {
				return false, err
			}
			if !ex {
				return true, nil
			}
			cursor, inc = start, false
		}
	}

	for _, rdate := range recurrence.RDATE {
		if !overlaps(rdate, rdate.Add(duration), rangeStart, rangeEnd) {
			continue
		}
		ex, err := excluded(rdate)
		if err != nil {
			return false, err
		}
		if !ex {
			return true, nil
		}
	}

	return false, nil
}

// newRule parses value anchored at masterStart. Engine rules are used for a
// single call, so they skip the per-rule cache.
func (e *Engine) newRule(value string, masterStart time.Time) (*Rule, error) {
	opts, err := ParseRRULE(value, masterStart)
	if err != nil {
		return nil, err
	}
	return NewRule(opts, WithLogger(e.logger), WithoutCache())
}

// isExcluded checks if a given time is in the EXDATE list. Date-only
// exceptions, stored as midnight UTC, exclude every instance on that date.
func isExcluded(t time.Time, exdates []time.Time) bool {
	for _, exdate := range exdates {
		if t.Equal(exdate) {
			return true
		}

		if exdate.Location() == time.UTC && exdate.Hour() == 0 && exdate.Minute() == 0 && exdate.Second() == 0 {
			y, m, d := t.Date()
			if time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Equal(exdate) {
				return true
			}
		}
	}
	return false
}
