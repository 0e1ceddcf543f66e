package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/emersion/go-ical"
	"github.com/spf13/cobra"

	"github.com/cyp0633/librrule/recurrence"
)

// ICSOptions holds flags for the ics command.
type ICSOptions struct {
	After  string
	Before string
	Limit  int
}

// EventOccurrences lists the occurrences of one event.
type EventOccurrences struct {
	UID         string            `json:"uid" yaml:"uid"`
	Summary     string            `json:"summary,omitempty" yaml:"summary,omitempty"`
	Occurrences []OccurrenceEntry `json:"occurrences" yaml:"occurrences"`
}

// OccurrenceEntry is one occurrence of an event.
type OccurrenceEntry struct {
	Start     string `json:"start" yaml:"start"`
	End       string `json:"end" yaml:"end"`
	Exception bool   `json:"exception,omitempty" yaml:"exception,omitempty"`

	// RecurrenceID is the replaced instance of an exception
	RecurrenceID string `json:"recurrence_id,omitempty" yaml:"recurrence_id,omitempty"`
}

// ICSResult is the output of the ics command.
type ICSResult struct {
	From   string             `json:"from" yaml:"from"`
	To     string             `json:"to" yaml:"to"`
	Events []EventOccurrences `json:"events" yaml:"events"`
}

// WriteText prints each event followed by its indented occurrences.
func (r *ICSResult) WriteText(w io.Writer) error {
	for _, ev := range r.Events {
		header := ev.UID
		if ev.Summary != "" {
			header += " " + ev.Summary
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		for _, o := range ev.Occurrences {
			line := "  " + o.Start + "/" + o.End
			if o.Exception {
				line += " (exception)"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// NewICSCommand creates the ics command.
func NewICSCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ICSOptions{}

	cmd := &cobra.Command{
		Use:   "ics <file>",
		Short: "Expand the events of an iCalendar file",
		Long: `Expand every VEVENT of an iCalendar file over a time range.

RRULE, RDATE, EXDATE and EXRULE are honoured; override instances carrying a
RECURRENCE-ID are listed as exceptions. Use "-" to read standard input.`,
		Example: `  rrexpand ics calendar.ics --after 2024-01-01 --before 2024-02-01`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runICS(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.After, "after", "", "start of the range (required)")
	cmd.Flags().StringVar(&opts.Before, "before", "", "end of the range (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum occurrences per event (0 = engine default)")
	_ = cmd.MarkFlagRequired("after")
	_ = cmd.MarkFlagRequired("before")

	return cmd
}

func runICS(rootOpts *RootOptions, opts *ICSOptions, path string, cmd *cobra.Command) error {
	from, err := parseInstant(opts.After, time.UTC)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --after", err)
	}
	to, err := parseInstant(opts.Before, time.UTC)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --before", err)
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot open calendar", err)
		}
		defer f.Close()
		r = f
	}

	events, err := recurrence.DecodeEvents(r)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot read calendar", err)
	}

	logger := rootOpts.logger(cmd.ErrOrStderr())
	config := recurrence.DisabledCacheConfig
	config.Logger = logger
	if opts.Limit > 0 {
		config.MaxExpansionOccurrences = opts.Limit
	}
	engine := recurrence.NewEngineWithConfig(config)
	defer engine.Close()

	result := &ICSResult{
		From:   formatInstant(from),
		To:     formatInstant(to),
		Events: []EventOccurrences{},
	}
	overrides := overriddenInstances(events)
	for _, event := range events {
		entry, err := expandEvent(engine, logger, event, overrides, from, to)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("cannot expand event %q", propText(event, ical.PropUID)), err)
		}
		if entry == nil {
			logger.Warn("skipping event without start", "uid", propText(event, ical.PropUID))
			continue
		}
		if len(entry.Occurrences) > 0 {
			result.Events = append(result.Events, *entry)
		}
	}

	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Write(result)
}

// expandEvent returns nil for events without a usable start.
// Instances replaced by an override component are excluded from the master.
func expandEvent(
	engine *recurrence.Engine,
	logger *slog.Logger,
	event *ical.Component,
	overrides map[string][]time.Time,
	from, to time.Time,
) (*EventOccurrences, error) {
	start, end, ok := recurrence.TimeInfoFromComponent(event)
	if !ok {
		return nil, nil
	}
	uid := propText(event, ical.PropUID)
	info, err := recurrence.RecurrenceInfoFromComponent(event)
	if err != nil {
		logger.Warn("ignored malformed recurrence values", "uid", uid, "error", err)
	}
	if info.RecurrenceID == nil {
		info.EXDATE = append(info.EXDATE, overrides[uid]...)
		if !info.IsRecurring() {
			logger.Debug("single instance event", "uid", uid)
		}
	}

	occurrences, err := engine.Expand(start, end, info, from, to)
	if err != nil {
		return nil, err
	}

	entry := &EventOccurrences{
		UID:         uid,
		Summary:     propText(event, ical.PropSummary),
		Occurrences: []OccurrenceEntry{},
	}
	for _, o := range occurrences {
		oe := OccurrenceEntry{
			Start:     formatInstant(o.Start),
			End:       formatInstant(o.End),
			Exception: o.IsException,
		}
		if recID := recurrence.SafeTimeDeref(o.RecurrenceID, time.Time{}); !recID.IsZero() {
			oe.RecurrenceID = formatInstant(recID)
		}
		entry.Occurrences = append(entry.Occurrences, oe)
	}
	return entry, nil
}

// overriddenInstances maps each UID to the RECURRENCE-IDs of its override
// components.
func overriddenInstances(events []*ical.Component) map[string][]time.Time {
	overrides := make(map[string][]time.Time)
	for _, event := range events {
		info, _ := recurrence.RecurrenceInfoFromComponent(event)
		if info.RecurrenceID != nil {
			uid := propText(event, ical.PropUID)
			overrides[uid] = append(overrides[uid], *info.RecurrenceID)
		}
	}
	return overrides
}

func propText(comp *ical.Component, name string) string {
	v, err := comp.Props.Text(name)
	if err != nil {
		return ""
	}
	return v
}
