package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/samber/mo"
	"github.com/spf13/cobra"

	"github.com/cyp0633/librrule/recurrence"
)

// ExpandOptions holds flags for the expand command.
type ExpandOptions struct {
	RRule   string
	Dtstart string
	TZID    string
	After   string
	Before  string
	Inc     bool
	Limit   int
}

// ExpandResult is the output of the expand command.
type ExpandResult struct {
	Rule        string   `json:"rule" yaml:"rule"`
	Dtstart     string   `json:"dtstart" yaml:"dtstart"`
	Query       string   `json:"query" yaml:"query"`
	Occurrences []string `json:"occurrences" yaml:"occurrences"`
}

// WriteText prints one occurrence per line.
func (r *ExpandResult) WriteText(w io.Writer) error {
	for _, o := range r.Occurrences {
		if _, err := fmt.Fprintln(w, o); err != nil {
			return err
		}
	}
	return nil
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{}

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Expand a single recurrence rule",
		Long: `Expand a recurrence rule anchored at --dtstart.

With --after and --before the occurrences in between are listed; with only
one of them the nearest occurrence on that side is printed. Without either
every occurrence is listed, which requires COUNT, UNTIL or --limit.`,
		Example: `  rrexpand expand --rrule "FREQ=WEEKLY;COUNT=6;BYDAY=TU,TH" --dtstart 19970902T090000Z`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RRule, "rrule", "", "recurrence rule, e.g. FREQ=DAILY;COUNT=3 (required)")
	cmd.Flags().StringVar(&opts.Dtstart, "dtstart", "", "anchor instant, e.g. 19970902T090000Z (required)")
	cmd.Flags().StringVar(&opts.TZID, "tzid", "", "time zone of a local --dtstart, e.g. America/New_York")
	cmd.Flags().StringVar(&opts.After, "after", "", "list occurrences after this instant")
	cmd.Flags().StringVar(&opts.Before, "before", "", "list occurrences before this instant")
	cmd.Flags().BoolVar(&opts.Inc, "inc", false, "include occurrences equal to --after/--before")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "stop after this many occurrences (0 = no limit)")
	_ = cmd.MarkFlagRequired("rrule")
	_ = cmd.MarkFlagRequired("dtstart")

	return cmd
}

func runExpand(rootOpts *RootOptions, opts *ExpandOptions, cmd *cobra.Command) error {
	loc := time.UTC
	if opts.TZID != "" {
		l, err := time.LoadLocation(opts.TZID)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --tzid", err)
		}
		loc = l
	}

	dtstart, err := parseInstant(opts.Dtstart, loc)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --dtstart", err)
	}
	after, err := parseOptionalInstant(opts.After, loc)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --after", err)
	}
	before, err := parseOptionalInstant(opts.Before, loc)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --before", err)
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	ruleOpts, err := recurrence.ParseRRULE(opts.RRule, dtstart)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid rule", err)
	}
	rule, err := recurrence.NewRule(ruleOpts, recurrence.WithLogger(rootOpts.logger(cmd.ErrOrStderr())))
	if err != nil {
		return WrapExitError(ExitFailure, "invalid rule", err)
	}

	result := &ExpandResult{
		Rule:        opts.RRule,
		Dtstart:     formatInstant(dtstart),
		Occurrences: []string{},
	}

	var occurrences []time.Time
	switch {
	case !after.IsZero() && !before.IsZero():
		result.Query = "between"
		occurrences, err = rule.BetweenFunc(after, before, opts.Inc, limitIterator(opts.Limit))
	case !after.IsZero():
		result.Query = "after"
		next, qerr := rule.After(after, opts.Inc)
		occurrences, err = optionSlice(next), qerr
	case !before.IsZero():
		result.Query = "before"
		prev, qerr := rule.Before(before, opts.Inc)
		occurrences, err = optionSlice(prev), qerr
	default:
		result.Query = "all"
		if ruleOpts.Count == 0 && ruleOpts.Until.IsZero() && opts.Limit == 0 {
			return NewExitError(ExitCommandError, "rule has neither COUNT nor UNTIL: use --limit or --before")
		}
		occurrences = rule.AllFunc(limitIterator(opts.Limit))
	}
	if err != nil {
		return WrapExitError(ExitFailure, "expansion failed", err)
	}

	for _, t := range occurrences {
		result.Occurrences = append(result.Occurrences, formatInstant(t))
	}

	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Write(result)
}

// limitIterator stops a query after limit occurrences; 0 means no limit.
func limitIterator(limit int) recurrence.Iterator {
	return func(_ time.Time, n int) bool {
		return limit == 0 || n < limit
	}
}

var instantLayouts = []string{
	"20060102T150405",
	"2006-01-02T15:04:05",
	"20060102",
	"2006-01-02",
}

// parseInstant accepts RFC 3339 and the iCalendar DATE-TIME and DATE forms.
// Values without a zone are read in loc.
func parseInstant(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("20060102T150405Z", value); err == nil {
		return t, nil
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized instant %q", value)
}

func optionSlice(o mo.Option[time.Time]) []time.Time {
	if t, ok := o.Get(); ok {
		return []time.Time{t}
	}
	return nil
}

func parseOptionalInstant(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return parseInstant(value, loc)
}
