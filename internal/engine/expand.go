package engine

import (
	"context"
	"iter"
	"time"

	"github.com/teambition/rrule-go"

	"atsumaru/pkg/logger"
	"atsumaru/pkg/model"
)

// rruleWeekdays maps the 0-6 weekday numbering (0 = Sunday) onto rrule's
// weekday constants.
var rruleWeekdays = []rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// Occurrence is one concrete expanded day of a recurrence or one-off record.
// Empty times mean the whole admissible day.
type Occurrence struct {
	Date      string
	StartTime string
	EndTime   string
	Note      string
}

// Expander turns weekly recurrence rules into concrete occurrences within a
// query range. It is a pure function of its inputs; the returned sequences
// are restartable and never share iteration state.
type Expander struct {
	policy *PolicyResolver
	log    *logger.Logger
}

func NewExpander(policy *PolicyResolver, log *logger.Logger) *Expander {
	return &Expander{
		policy: policy,
		log:    log,
	}
}

// Occurrences lazily yields the dates covered by a recurrence between
// rangeStart and rangeEnd (inclusive midnight-UTC date instants), skipping
// excluded dates and dates the calendar does not admit.
//
// The occurrence's time window is the recurrence's own explicit times when
// set; only a recurrence without times inherits the policy window for each
// date. Explicit times are never clipped by later policy edits.
func (x *Expander) Occurrences(
	ctx context.Context,
	cal *model.Calendar,
	rec model.Recurrence,
	excludedDates []string,
	rangeStart, rangeEnd time.Time,
) iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		start, err := ParseDate(rec.StartDate)
		if err != nil {
			x.log.Warn("Skipping recurrence with invalid start date",
				"recurrence_id", rec.ID,
				"start_date", rec.StartDate,
			)
			return
		}

		lower := start
		if rangeStart.After(lower) {
			lower = rangeStart
		}
		upper := rangeEnd
		if rec.EndDate != "" {
			if end, err := ParseDate(rec.EndDate); err == nil && end.Before(upper) {
				upper = end
			}
		}
		if upper.Before(lower) {
			return
		}

		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Dtstart:   start,
			Byweekday: []rrule.Weekday{rruleWeekdays[rec.DayOfWeek]},
		})
		if err != nil {
			x.log.Error("Failed to build recurrence rule",
				"recurrence_id", rec.ID,
				"day_of_week", rec.DayOfWeek,
				"error", err,
			)
			return
		}

		var set rrule.Set
		set.RRule(rule)
		for _, excluded := range excludedDates {
			if d, err := ParseDate(excluded); err == nil {
				set.ExDate(d)
			}
		}

		next := set.Iterator()
		for {
			date, ok := next()
			if !ok {
				return
			}
			if date.Before(lower) {
				continue
			}
			if date.After(upper) {
				return
			}

			ruling := x.policy.Resolve(ctx, cal, date)
			if !ruling.Admissible {
				continue
			}

			occ := Occurrence{
				Date:      FormatDate(date),
				StartTime: rec.StartTime,
				EndTime:   rec.EndTime,
				Note:      rec.Note,
			}
			if occ.StartTime == "" && occ.EndTime == "" && ruling.Window != nil {
				occ.StartTime = ruling.Window.MinTime
				occ.EndTime = ruling.Window.MaxTime
			}

			if !yield(occ) {
				return
			}
		}
	}
}
