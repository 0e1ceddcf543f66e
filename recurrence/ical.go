package recurrence

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
)

// PropExceptionRule is the deprecated RFC 2445 EXRULE property, still found
// in the wild
const PropExceptionRule = "EXRULE"

const (
	icalDateTimeUTC = "20060102T150405Z"
	icalDateTime    = "20060102T150405"
	icalDate        = "20060102"
)

var rruleWeekdays = [...]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// OptionsFromROption converts rrule-go options, as returned by go-ical's
// Props.RecurrenceRule, into Options
func OptionsFromROption(ropt *rrule.ROption) (Options, error) {
	if ropt == nil {
		return Options{}, invalidOptions("no recurrence rule")
	}

	opts := Options{
		Freq:       Frequency(ropt.Freq),
		Dtstart:    ropt.Dtstart,
		Interval:   ropt.Interval,
		Wkst:       Weekday{Day: ropt.Wkst.Day()},
		Count:      ropt.Count,
		Until:      ropt.Until,
		Bysetpos:   clone(ropt.Bysetpos),
		Bymonth:    clone(ropt.Bymonth),
		Bymonthday: clone(ropt.Bymonthday),
		Byyearday:  clone(ropt.Byyearday),
		Byweekno:   clone(ropt.Byweekno),
		Byhour:     clone(ropt.Byhour),
		Byminute:   clone(ropt.Byminute),
		Bysecond:   clone(ropt.Bysecond),
		Byeaster:   clone(ropt.Byeaster),
	}
	if !opts.Freq.valid() {
		return Options{}, invalidOptions("unknown frequency %d", int(ropt.Freq))
	}
	for _, wd := range ropt.Byweekday {
		opts.Byweekday = append(opts.Byweekday, Weekday{Day: wd.Day(), N: wd.N()})
	}
	if !opts.Dtstart.IsZero() && opts.Dtstart.Location() != time.UTC {
		opts.Location = opts.Dtstart.Location()
	}

	return opts, nil
}

// ROption converts o back into rrule-go options
func (o Options) ROption() rrule.ROption {
	ropt := rrule.ROption{
		Freq:       rrule.Frequency(o.Freq),
		Dtstart:    o.Dtstart,
		Interval:   o.Interval,
		Wkst:       rruleWeekdays[o.Wkst.Day],
		Count:      o.Count,
		Until:      o.Until,
		Bysetpos:   clone(o.Bysetpos),
		Bymonth:    clone(o.Bymonth),
		Bymonthday: clone(o.Bymonthday),
		Byyearday:  clone(o.Byyearday),
		Byweekno:   clone(o.Byweekno),
		Byhour:     clone(o.Byhour),
		Byminute:   clone(o.Byminute),
		Bysecond:   clone(o.Bysecond),
		Byeaster:   clone(o.Byeaster),
	}
	if o.Location != nil {
		ropt.Dtstart = o.Dtstart.In(o.Location)
	}
	for _, wd := range o.Byweekday {
		ropt.Byweekday = append(ropt.Byweekday, rruleWeekdays[wd.Day].Nth(wd.N))
	}
	return ropt
}

// ParseRRULE parses an RRULE (or EXRULE) value anchored at dtstart. UNTIL
// values without a zone are read in dtstart's location.
func ParseRRULE(value string, dtstart time.Time) (Options, error) {
	value = strings.TrimSpace(value)
	for _, prefix := range []string{"RRULE:", "EXRULE:"} {
		value = strings.TrimPrefix(value, prefix)
	}
	if value == "" {
		return Options{}, invalidOptions("empty recurrence rule")
	}

	ropt, err := rrule.StrToROptionInLocation(value, dtstart.Location())
	if err != nil {
		return Options{}, &Error{Type: ErrInvalidOptions, Message: fmt.Sprintf("failed to parse rule %q", value), Err: err}
	}
	ropt.Dtstart = dtstart

	return OptionsFromROption(ropt)
}

// RuleFromComponent builds the Rule of a VEVENT or VTODO from its DTSTART
// (honouring TZID) and RRULE
func RuleFromComponent(comp *ical.Component, ruleOpts ...RuleOption) (*Rule, error) {
	dtstart, err := comp.Props.DateTime(ical.PropDateTimeStart, nil)
	if err != nil {
		return nil, &Error{Type: ErrInvalidOptions, Message: "failed to read DTSTART", Err: err}
	}
	if dtstart.IsZero() {
		return nil, invalidOptions("component %s has no DTSTART", comp.Name)
	}

	ropt, err := comp.Props.RecurrenceRule()
	if err != nil {
		return nil, &Error{Type: ErrInvalidOptions, Message: "failed to read RRULE", Err: err}
	}
	if ropt == nil {
		return nil, invalidOptions("component %s has no RRULE", comp.Name)
	}

	opts, err := OptionsFromROption(ropt)
	if err != nil {
		return nil, err
	}
	opts.Dtstart = dtstart
	opts.Location = nil
	if dtstart.Location() != time.UTC {
		opts.Location = dtstart.Location()
	}

	return NewRule(opts, ruleOpts...)
}

// RecurrenceInfoFromComponent extracts recurrence information from an iCal
// component. Values that fail to parse are skipped and reported together in
// the returned error; the info holds everything that did parse.
func RecurrenceInfoFromComponent(comp *ical.Component) (RecurrenceInfo, error) {
	info := RecurrenceInfo{}
	var errs []error

	if prop := comp.Props.Get(ical.PropRecurrenceRule); prop != nil && prop.Value != "" {
		info.RRULE = prop.Value
	}

	for _, prop := range comp.Props.Values(PropExceptionRule) {
		if prop.Value != "" {
			info.EXRULE = append(info.EXRULE, prop.Value)
		}
	}

	for _, prop := range comp.Props.Values(ical.PropRecurrenceDates) {
		dates, err := parseDateList(prop)
		info.RDATE = append(info.RDATE, dates...)
		errs = append(errs, err)
	}

	for _, prop := range comp.Props.Values(ical.PropExceptionDates) {
		dates, err := parseDateList(prop)
		info.EXDATE = append(info.EXDATE, dates...)
		errs = append(errs, err)
	}

	if prop := comp.Props.Get("RECURRENCE-ID"); prop != nil && prop.Value != "" {
		if recID, err := parseDateTime(prop.Value, prop.Params); err == nil {
			info.RecurrenceID = &recID
		} else {
			errs = append(errs, fmt.Errorf("RECURRENCE-ID: %w", err))
		}
	}

	return info, errors.Join(errs...)
}

// TimeInfoFromComponent extracts start and end times from an iCal component
func TimeInfoFromComponent(comp *ical.Component) (start, end time.Time, hasTime bool) {
	if dtstart, ok := dateTimeProp(comp, ical.PropDateTimeStart); ok {
		start = dtstart
		hasTime = true

		// Get end time - either from DTEND or DURATION or default
		if dtend, ok := dateTimeProp(comp, ical.PropDateTimeEnd); ok {
			end = dtend

			// An all-day event whose DTEND repeats the start date lasts the whole day
			if isAllDayDate(start) && sameDate(start, end) {
				end = start.AddDate(0, 0, 1)
			}
		} else if durationProp := comp.Props.Get(ical.PropDuration); durationProp != nil {
			duration, err := durationProp.Duration()
			if err != nil {
				return time.Time{}, time.Time{}, false
			}
			end = start.Add(duration)
		} else if isAllDayDate(start) {
			end = start.AddDate(0, 0, 1)
		} else {
			end = start
		}
	}

	// For VTODO, also check DUE property
	if comp.Name == ical.CompToDo {
		if due, ok := dateTimeProp(comp, ical.PropDue); ok {
			if !hasTime {
				start, end, hasTime = due, due, true
			} else if due.After(end) {
				end = due
			}
		}
	}

	return start, end, hasTime
}

// dateTimeProp reads a DATE or DATE-TIME property, honouring TZID. Props.DateTime
// reports a missing property as the zero time without error.
func dateTimeProp(comp *ical.Component, name string) (time.Time, bool) {
	t, err := comp.Props.DateTime(name, nil)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// DecodeEvents decodes an iCalendar stream and returns its VEVENT components
func DecodeEvents(r io.Reader) ([]*ical.Component, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode calendar: %w", err)
	}

	var events []*ical.Component
	for _, child := range cal.Children {
		if child.Name == ical.CompEvent {
			events = append(events, child)
		}
	}
	return events, nil
}

// DecodeEvent decodes a calendar holding exactly one event
func DecodeEvent(ics string) (*ical.Component, error) {
	events, err := DecodeEvents(strings.NewReader(ics))
	if err != nil {
		return nil, err
	}

	switch len(events) {
	case 0:
		return nil, fmt.Errorf("no events found in calendar")
	case 1:
		return events[0], nil
	}
	return nil, fmt.Errorf("multiple events found in calendar")
}

// parseDateList parses a comma-separated RDATE or EXDATE property. Date-only
// values are stored as midnight UTC; local times honour TZID.
func parseDateList(prop ical.Prop) ([]time.Time, error) {
	var dates []time.Time
	var errs []error
	for _, s := range strings.Split(prop.Value, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		t, err := parseDateTime(s, prop.Params)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prop.Name, err))
			continue
		}
		dates = append(dates, t)
	}
	return dates, errors.Join(errs...)
}

// parseDateTime parses one iCalendar DATE or DATE-TIME value
func parseDateTime(value string, params ical.Params) (time.Time, error) {
	if strings.EqualFold(params.Get(ical.ParamValue), string(ical.ValueDate)) {
		return parseDate(value)
	}

	if t, err := time.Parse(icalDateTimeUTC, value); err == nil {
		return t, nil
	}

	loc := time.UTC
	if tzid := params.Get(ical.PropTimezoneID); tzid != "" {
		l, err := time.LoadLocation(tzid)
		if err != nil {
			return time.Time{}, fmt.Errorf("unknown TZID %q: %w", tzid, err)
		}
		loc = l
	}
	if t, err := time.ParseInLocation(icalDateTime, value, loc); err == nil {
		return t, nil
	}

	// Fall back to a date-only value
	return parseDate(value)
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(icalDate, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// isAllDayDate checks if a time represents an all-day date (time part is midnight)
func isAllDayDate(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
