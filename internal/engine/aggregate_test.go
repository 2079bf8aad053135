package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"atsumaru/pkg/model"
)

func testAggregator() *Aggregator {
	resolver := NewPolicyResolver(&stubHolidays{}, "JP", testLogger())
	return NewAggregator(resolver, NewExpander(resolver, testLogger()), testLogger())
}

// weekNightCalendar admits Mondays 09:00-12:00 only, with two regulars and
// one guest who can make part of the window.
func weekNightFixture() (*model.Calendar, []ParticipantRecords) {
	cal := testCalendar()
	cal.AllowedWeekdays = []model.Weekday{1}
	cal.WeekdayTimes = map[string]model.TimeWindow{
		"1": {MinTime: "09:00", MaxTime: "12:00"},
	}

	participants := []ParticipantRecords{
		{
			Participant: model.Participant{Name: "alice"},
			Recurrences: []model.Recurrence{{
				ID:        "65f000000000000000000010",
				DayOfWeek: 1,
				StartDate: "2025-01-06",
				StartTime: "09:00",
				EndTime:   "12:00",
			}},
		},
		{
			Participant: model.Participant{Name: "bob"},
			Overrides: []model.Availability{{
				Date:      "2025-01-06",
				StartTime: "10:00",
				EndTime:   "12:00",
			}},
		},
	}
	return cal, participants
}

func TestSummarize(t *testing.T) {
	agg := testAggregator()

	cal := testCalendar()
	cal.AllowedWeekdays = []model.Weekday{1, 3}

	participants := []ParticipantRecords{
		{
			Participant: model.Participant{Name: "bob"},
			Overrides:   []model.Availability{{Date: "2025-01-06", StartTime: "10:00", EndTime: "12:00"}},
		},
		{
			Participant: model.Participant{Name: "alice"},
			Recurrences: []model.Recurrence{{
				ID:        "65f000000000000000000010",
				DayOfWeek: 1,
				StartDate: "2025-01-06",
			}},
		},
		{
			Participant: model.Participant{Name: "carol"},
			Overrides:   []model.Availability{{Date: "2025-01-08"}},
		},
	}

	summaries, err := agg.Summarize(context.Background(), cal, participants, "2025-01-06", "2025-01-12")
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2 (monday and wednesday)", len(summaries))
	}

	monday := summaries[0]
	if monday.Date != "2025-01-06" {
		t.Errorf("first summary date = %s, want 2025-01-06", monday.Date)
	}
	if monday.TotalCount != 2 || !monday.Viable {
		t.Errorf("monday count = %d viable = %v, want 2 and viable", monday.TotalCount, monday.Viable)
	}
	// Participants sort by name regardless of input order.
	if monday.Participants[0].ParticipantName != "alice" || monday.Participants[1].ParticipantName != "bob" {
		t.Errorf("monday participants = %v, want alice then bob", monday.Participants)
	}

	wednesday := summaries[1]
	if wednesday.Date != "2025-01-08" {
		t.Errorf("second summary date = %s, want 2025-01-08", wednesday.Date)
	}
	if wednesday.TotalCount != 1 || wednesday.Viable {
		t.Errorf("wednesday count = %d viable = %v, want 1 and not viable", wednesday.TotalCount, wednesday.Viable)
	}
}

func TestSummarizeThresholdBoundary(t *testing.T) {
	agg := testAggregator()

	cal := testCalendar()
	cal.AllowedWeekdays = []model.Weekday{1}
	cal.Threshold = 3

	participants := []ParticipantRecords{
		{Participant: model.Participant{Name: "alice"}, Overrides: []model.Availability{{Date: "2025-01-06"}}},
		{Participant: model.Participant{Name: "bob"}, Overrides: []model.Availability{{Date: "2025-01-06"}}},
		{Participant: model.Participant{Name: "carol"}, Overrides: []model.Availability{{Date: "2025-01-13"}}},
	}

	summaries, err := agg.Summarize(context.Background(), cal, participants, "2025-01-06", "2025-01-13")
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].Viable {
		t.Errorf("2 of 3 participants should not reach threshold 3")
	}

	cal.Threshold = 2
	summaries, err = agg.Summarize(context.Background(), cal, participants, "2025-01-06", "2025-01-13")
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if !summaries[0].Viable {
		t.Errorf("2 participants should reach threshold 2")
	}
}

func TestSummarizeEmitsAdmissibleDatesWithNoParticipants(t *testing.T) {
	agg := testAggregator()

	cal := testCalendar()
	cal.AllowedWeekdays = []model.Weekday{1}

	summaries, err := agg.Summarize(context.Background(), cal, nil, "2025-01-06", "2025-01-19")
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2 empty mondays", len(summaries))
	}
	for _, s := range summaries {
		if s.TotalCount != 0 || s.Viable {
			t.Errorf("empty date %s: count = %d viable = %v, want 0 and not viable", s.Date, s.TotalCount, s.Viable)
		}
		if s.Participants == nil {
			t.Errorf("date %s: participants should be an empty slice, not nil", s.Date)
		}
	}
}

func TestSummarizeIsDeterministic(t *testing.T) {
	agg := testAggregator()
	cal, participants := weekNightFixture()

	first, err := agg.Summarize(context.Background(), cal, participants, "2025-01-01", "2025-01-31")
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	second, err := agg.Summarize(context.Background(), cal, participants, "2025-01-01", "2025-01-31")
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated Summarize calls over the same inputs diverged")
	}
}

func TestSummarizeInvalidRange(t *testing.T) {
	agg := testAggregator()
	cal := testCalendar()

	if _, err := agg.Summarize(context.Background(), cal, nil, "2025-02-01", "2025-01-01"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("err = %v, want ErrInvalidRange", err)
	}
	if _, err := agg.Summarize(context.Background(), cal, nil, "bogus", "2025-01-01"); err == nil {
		t.Error("expected error for an unparseable start date")
	}
}

func TestSummarizeSlots(t *testing.T) {
	agg := testAggregator()
	cal, participants := weekNightFixture()

	summaries, err := agg.SummarizeSlots(context.Background(), cal, participants, "2025-01-06", "2025-01-06", 60)
	if err != nil {
		t.Fatalf("SummarizeSlots returned error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d slot summaries, want 1", len(summaries))
	}

	want := []model.Slot{
		{StartTime: "09:00", EndTime: "10:00", Count: 1, Viable: false},
		{StartTime: "10:00", EndTime: "11:00", Count: 2, Viable: true},
		{StartTime: "11:00", EndTime: "12:00", Count: 2, Viable: true},
	}
	if !reflect.DeepEqual(summaries[0].Slots, want) {
		t.Errorf("slots = %+v, want %+v", summaries[0].Slots, want)
	}
}

func TestSummarizeSlotsPartialCoverageDoesNotCount(t *testing.T) {
	agg := testAggregator()
	cal, participants := weekNightFixture()

	// With 120-minute slots only 09:00-11:00 fits the window, and bob's
	// 10:00-12:00 availability covers just half of it.
	summaries, err := agg.SummarizeSlots(context.Background(), cal, participants, "2025-01-06", "2025-01-06", 120)
	if err != nil {
		t.Fatalf("SummarizeSlots returned error: %v", err)
	}

	slots := summaries[0].Slots
	if len(slots) != 1 {
		t.Fatalf("got %d slots in a 3-hour window with 120-minute slots, want 1 full slot", len(slots))
	}
	if slots[0].StartTime != "09:00" || slots[0].EndTime != "11:00" {
		t.Errorf("slot = %s-%s, want 09:00-11:00", slots[0].StartTime, slots[0].EndTime)
	}
	if slots[0].Count != 1 {
		t.Errorf("slot count = %d, want 1 (partial coverage never counts)", slots[0].Count)
	}
}

func TestSummarizeSlotsInvalidSize(t *testing.T) {
	agg := testAggregator()
	cal := testCalendar()

	if _, err := agg.SummarizeSlots(context.Background(), cal, nil, "2025-01-06", "2025-01-06", 0); !errors.Is(err, ErrInvalidSlotSize) {
		t.Errorf("err = %v, want ErrInvalidSlotSize", err)
	}
}

func TestSuggestWindows(t *testing.T) {
	agg := testAggregator()
	cal, participants := weekNightFixture()
	cal.MinDurationHours = 2

	summaries, err := agg.SummarizeSlots(context.Background(), cal, participants, "2025-01-06", "2025-01-06", 60)
	if err != nil {
		t.Fatalf("SummarizeSlots returned error: %v", err)
	}

	suggestions := agg.SuggestWindows(cal, summaries)
	want := []model.WindowSuggestion{
		{Date: "2025-01-06", StartTime: "10:00", EndTime: "12:00", MinCount: 2},
	}
	if !reflect.DeepEqual(suggestions, want) {
		t.Errorf("suggestions = %+v, want %+v", suggestions, want)
	}
}

func TestSuggestWindowsRunTooShort(t *testing.T) {
	agg := testAggregator()
	cal, participants := weekNightFixture()
	cal.MinDurationHours = 3

	summaries, err := agg.SummarizeSlots(context.Background(), cal, participants, "2025-01-06", "2025-01-06", 60)
	if err != nil {
		t.Fatalf("SummarizeSlots returned error: %v", err)
	}

	if suggestions := agg.SuggestWindows(cal, summaries); len(suggestions) != 0 {
		t.Errorf("got %d suggestions for a 2-hour run with a 3-hour minimum, want 0", len(suggestions))
	}
}

func TestSuggestWindowsMinCountIsWeakestSlot(t *testing.T) {
	agg := testAggregator()
	cal := testCalendar()
	cal.Threshold = 1
	cal.MinDurationHours = 0

	summaries := []model.SlotSummary{{
		Date: "2025-01-06",
		Slots: []model.Slot{
			{StartTime: "09:00", EndTime: "10:00", Count: 3, Viable: true},
			{StartTime: "10:00", EndTime: "11:00", Count: 1, Viable: true},
			{StartTime: "11:00", EndTime: "12:00", Count: 2, Viable: true},
		},
	}}

	suggestions := agg.SuggestWindows(cal, summaries)
	if len(suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(suggestions))
	}
	if suggestions[0].MinCount != 1 {
		t.Errorf("MinCount = %d, want 1", suggestions[0].MinCount)
	}
	if suggestions[0].StartTime != "09:00" || suggestions[0].EndTime != "12:00" {
		t.Errorf("suggestion = %s-%s, want 09:00-12:00", suggestions[0].StartTime, suggestions[0].EndTime)
	}
}
