/*
Package recurrence expands RFC 5545 recurrence rules into concrete instants.

# Rules

A Rule is built from Options and answers four kinds of queries:

	rule, err := recurrence.NewRule(recurrence.Options{
		Freq:      recurrence.Weekly,
		Dtstart:   time.Date(1997, 9, 2, 9, 0, 0, 0, time.UTC),
		Count:     10,
		Byweekday: []recurrence.Weekday{recurrence.TU, recurrence.TH},
	})
	if err != nil {
		log.Fatal(err)
	}

	all := rule.All()
	inRange, _ := rule.Between(from, to, true)
	next, _ := rule.After(time.Now(), false)
	prev, _ := rule.Before(time.Now(), false)

After and Before return a mo.Option, absent when no such occurrence exists.
Results are memoized per Rule unless WithoutCache is given; callback queries
(AllFunc, BetweenFunc) are never memoized. A Rule must not be shared between
goroutines.

# Events

Engine combines RRULE, RDATE, EXDATE and EXRULE of an event into the
occurrences that overlap a time range:

	engine := recurrence.NewEngine()
	defer engine.Close()

	occurrences, err := engine.Expand(start, end, info, rangeStart, rangeEnd)

RecurrenceInfoFromComponent and TimeInfoFromComponent read these values from
a go-ical component. Engine is safe for concurrent use.

# Limits

Occurrences after the year 9999 are never produced. A rule with neither
Count nor Until that is asked for All iterates up to that year.
*/
package recurrence
