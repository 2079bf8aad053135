package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"atsumaru/pkg/logger"
	"atsumaru/pkg/model"
)

var (
	// ErrInvalidRange indicates the query range end precedes its start.
	ErrInvalidRange = errors.New("engine: range end is before range start")
	// ErrInvalidSlotSize indicates a non-positive slot duration.
	ErrInvalidSlotSize = errors.New("engine: slot duration must be positive")
)

// allDayEnd is the last admissible minute of an unrestricted day (23:59).
const allDayEnd = 23*60 + 59

// Aggregator combines every participant's merged availability into per-date
// and per-slot summaries. It holds no mutable state; concurrent calls only
// share the holiday cache behind the policy resolver.
type Aggregator struct {
	policy   *PolicyResolver
	expander *Expander
	log      *logger.Logger
}

func NewAggregator(policy *PolicyResolver, expander *Expander, log *logger.Logger) *Aggregator {
	return &Aggregator{
		policy:   policy,
		expander: expander,
		log:      log,
	}
}

// Summarize produces one DateAvailabilitySummary per admissible date in
// [startDate, endDate]. Output is ordered by date ascending, participants by
// name ascending, so identical inputs yield byte-identical output.
func (a *Aggregator) Summarize(
	ctx context.Context,
	cal *model.Calendar,
	participants []ParticipantRecords,
	startDate, endDate string,
) ([]model.DateAvailabilitySummary, error) {
	rangeStart, rangeEnd, err := a.parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	views := a.mergeAll(ctx, cal, participants, rangeStart, rangeEnd)

	summaries := make([]model.DateAvailabilitySummary, 0)
	for d := rangeStart; !d.After(rangeEnd); d = d.AddDate(0, 0, 1) {
		if !a.policy.Resolve(ctx, cal, d).Admissible {
			continue
		}

		date := FormatDate(d)
		windows := make([]model.ParticipantWindow, 0)
		for i, view := range views {
			occ, ok := view[date]
			if !ok {
				continue
			}
			windows = append(windows, model.ParticipantWindow{
				ParticipantName: participants[i].Participant.Name,
				StartTime:       occ.StartTime,
				EndTime:         occ.EndTime,
				Note:            occ.Note,
			})
		}
		sort.Slice(windows, func(i, j int) bool {
			return windows[i].ParticipantName < windows[j].ParticipantName
		})

		summaries = append(summaries, model.DateAvailabilitySummary{
			Date:         date,
			Participants: windows,
			TotalCount:   len(windows),
			Viable:       len(windows) >= cal.Threshold,
		})
	}

	return summaries, nil
}

// SummarizeSlots partitions each admissible date's window into fixed-size
// slots and counts, per slot, the participants whose merged interval fully
// covers it. Raw counts are reported for every slot regardless of the
// minimum-duration setting; SuggestWindows applies that filter.
func (a *Aggregator) SummarizeSlots(
	ctx context.Context,
	cal *model.Calendar,
	participants []ParticipantRecords,
	startDate, endDate string,
	slotMinutes int,
) ([]model.SlotSummary, error) {
	if slotMinutes <= 0 {
		return nil, ErrInvalidSlotSize
	}
	rangeStart, rangeEnd, err := a.parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	views := a.mergeAll(ctx, cal, participants, rangeStart, rangeEnd)

	summaries := make([]model.SlotSummary, 0)
	for d := rangeStart; !d.After(rangeEnd); d = d.AddDate(0, 0, 1) {
		ruling := a.policy.Resolve(ctx, cal, d)
		if !ruling.Admissible {
			continue
		}

		date := FormatDate(d)
		winStart, winEnd := windowMinutes(ruling.Window)

		var intervals [][2]int
		for _, view := range views {
			if occ, ok := view[date]; ok {
				intervals = append(intervals, occurrenceMinutes(occ))
			}
		}

		slots := make([]model.Slot, 0)
		for s := winStart; s+slotMinutes <= winEnd; s += slotMinutes {
			e := s + slotMinutes
			count := 0
			for _, iv := range intervals {
				if iv[0] <= s && iv[1] >= e {
					count++
				}
			}
			slots = append(slots, model.Slot{
				StartTime: FormatClock(s),
				EndTime:   FormatClock(e),
				Count:     count,
				Viable:    count >= cal.Threshold,
			})
		}

		summaries = append(summaries, model.SlotSummary{
			Date:  date,
			Slots: slots,
		})
	}

	return summaries, nil
}

// SuggestWindows extracts the contiguous runs of viable slots whose total
// length satisfies the calendar's minimum meeting duration. MinCount is the
// weakest slot in the run.
func (a *Aggregator) SuggestWindows(cal *model.Calendar, summaries []model.SlotSummary) []model.WindowSuggestion {
	minMinutes := cal.MinDurationHours * 60

	suggestions := make([]model.WindowSuggestion, 0)
	for _, day := range summaries {
		runStart := -1
		minCount := 0

		flush := func(endIdx int) {
			if runStart < 0 {
				return
			}
			start := day.Slots[runStart]
			end := day.Slots[endIdx]
			startMin, _ := ParseClock(start.StartTime)
			endMin, _ := ParseClock(end.EndTime)
			if endMin-startMin >= minMinutes {
				suggestions = append(suggestions, model.WindowSuggestion{
					Date:      day.Date,
					StartTime: start.StartTime,
					EndTime:   end.EndTime,
					MinCount:  minCount,
				})
			}
			runStart = -1
		}

		for i, slot := range day.Slots {
			if !slot.Viable {
				flush(i - 1)
				continue
			}
			if runStart < 0 {
				runStart = i
				minCount = slot.Count
			} else if slot.Count < minCount {
				minCount = slot.Count
			}
		}
		flush(len(day.Slots) - 1)
	}

	return suggestions
}

// mergeAll computes every participant's merged view in parallel. Each
// goroutine writes only its own slice index; the reduce happens on the
// caller's goroutine.
func (a *Aggregator) mergeAll(
	ctx context.Context,
	cal *model.Calendar,
	participants []ParticipantRecords,
	rangeStart, rangeEnd time.Time,
) []map[string]Occurrence {
	views := make([]map[string]Occurrence, len(participants))

	var wg sync.WaitGroup
	wg.Add(len(participants))
	for i, records := range participants {
		go func(i int, records ParticipantRecords) {
			defer wg.Done()
			views[i] = a.expander.MergedAvailability(ctx, cal, records, rangeStart, rangeEnd)
		}(i, records)
	}
	wg.Wait()

	return views
}

func (a *Aggregator) parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	rangeStart, err := ParseDate(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	rangeEnd, err := ParseDate(endDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if rangeEnd.Before(rangeStart) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return rangeStart, rangeEnd, nil
}

func windowMinutes(window *model.TimeWindow) (int, int) {
	if window == nil {
		return 0, allDayEnd
	}
	start, err := ParseClock(window.MinTime)
	if err != nil {
		start = 0
	}
	end, err := ParseClock(window.MaxTime)
	if err != nil {
		end = allDayEnd
	}
	return start, end
}

func occurrenceMinutes(occ Occurrence) [2]int {
	iv := [2]int{0, allDayEnd}
	if occ.StartTime != "" {
		if start, err := ParseClock(occ.StartTime); err == nil {
			iv[0] = start
		}
	}
	if occ.EndTime != "" {
		if end, err := ParseClock(occ.EndTime); err == nil {
			iv[1] = end
		}
	}
	return iv
}
