package engine

import (
	"context"
	"time"

	"atsumaru/pkg/model"
)

// ParticipantRecords bundles the raw persisted state for one participant, as
// loaded by the repositories. Exceptions are keyed by recurrence id.
type ParticipantRecords struct {
	Participant model.Participant
	Recurrences []model.Recurrence
	Exceptions  map[string][]string
	Overrides   []model.Availability
}

// MergedAvailability computes one participant's effective per-date view over
// a range: the expansion of their recurrences forms the base layer, one-off
// rows overlay it and always win for their date. Dates the calendar does not
// admit are dropped even when a stray one-off row exists for them, so policy
// edits retroactively hide stale entries without a data migration.
func (x *Expander) MergedAvailability(
	ctx context.Context,
	cal *model.Calendar,
	records ParticipantRecords,
	rangeStart, rangeEnd time.Time,
) map[string]Occurrence {
	merged := make(map[string]Occurrence)

	for _, rec := range records.Recurrences {
		for occ := range x.Occurrences(ctx, cal, rec, records.Exceptions[rec.ID], rangeStart, rangeEnd) {
			merged[occ.Date] = occ
		}
	}

	for _, override := range records.Overrides {
		date, err := ParseDate(override.Date)
		if err != nil {
			continue
		}
		if date.Before(rangeStart) || date.After(rangeEnd) {
			continue
		}

		ruling := x.policy.Resolve(ctx, cal, date)
		if !ruling.Admissible {
			delete(merged, override.Date)
			continue
		}

		occ := Occurrence{
			Date:      override.Date,
			StartTime: override.StartTime,
			EndTime:   override.EndTime,
			Note:      override.Note,
		}
		if occ.StartTime == "" && occ.EndTime == "" && ruling.Window != nil {
			occ.StartTime = ruling.Window.MinTime
			occ.EndTime = ruling.Window.MaxTime
		}
		merged[occ.Date] = occ
	}

	return merged
}
