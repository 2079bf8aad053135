package engine

import (
	"context"
	"reflect"
	"testing"

	"atsumaru/pkg/model"
)

func testExpander() *Expander {
	resolver := NewPolicyResolver(&stubHolidays{}, "JP", testLogger())
	return NewExpander(resolver, testLogger())
}

func collectDates(occs []Occurrence) []string {
	dates := make([]string, 0, len(occs))
	for _, occ := range occs {
		dates = append(dates, occ.Date)
	}
	return dates
}

func expand(t *testing.T, x *Expander, cal *model.Calendar, rec model.Recurrence, excluded []string, start, end string) []Occurrence {
	t.Helper()
	var occs []Occurrence
	for occ := range x.Occurrences(context.Background(), cal, rec, excluded, mustDate(t, start), mustDate(t, end)) {
		occs = append(occs, occ)
	}
	return occs
}

func TestOccurrencesWeeklyWithException(t *testing.T) {
	x := testExpander()
	cal := testCalendar()

	rec := model.Recurrence{
		ID:            "65f000000000000000000010",
		ParticipantID: "65f000000000000000000020",
		DayOfWeek:     1,
		StartDate:     "2025-01-06",
	}

	occs := expand(t, x, cal, rec, []string{"2025-02-03"}, "2025-01-01", "2025-03-31")

	want := []string{
		"2025-01-06", "2025-01-13", "2025-01-20", "2025-01-27",
		"2025-02-10", "2025-02-17", "2025-02-24",
		"2025-03-03", "2025-03-10", "2025-03-17", "2025-03-24", "2025-03-31",
	}
	if got := collectDates(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("occurrence dates = %v, want %v", got, want)
	}
}

func TestOccurrencesRespectsRecurrenceBounds(t *testing.T) {
	x := testExpander()
	cal := testCalendar()

	rec := model.Recurrence{
		DayOfWeek: 3,
		StartDate: "2025-01-15",
		EndDate:   "2025-02-05",
	}

	occs := expand(t, x, cal, rec, nil, "2025-01-01", "2025-03-31")

	want := []string{"2025-01-15", "2025-01-22", "2025-01-29", "2025-02-05"}
	if got := collectDates(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("occurrence dates = %v, want %v", got, want)
	}
}

func TestOccurrencesClippedByQueryRange(t *testing.T) {
	x := testExpander()
	cal := testCalendar()

	rec := model.Recurrence{
		DayOfWeek: 1,
		StartDate: "2025-01-06",
	}

	occs := expand(t, x, cal, rec, nil, "2025-01-10", "2025-01-24")

	want := []string{"2025-01-13", "2025-01-20"}
	if got := collectDates(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("occurrence dates = %v, want %v", got, want)
	}
}

func TestOccurrencesEmptyWhenRangeBeforeStart(t *testing.T) {
	x := testExpander()
	cal := testCalendar()

	rec := model.Recurrence{
		DayOfWeek: 1,
		StartDate: "2025-06-02",
	}

	if occs := expand(t, x, cal, rec, nil, "2025-01-01", "2025-01-31"); len(occs) != 0 {
		t.Errorf("got %d occurrences before the recurrence starts, want 0", len(occs))
	}
}

func TestOccurrencesSkipInadmissibleDates(t *testing.T) {
	resolver := NewPolicyResolver(&stubHolidays{days: holidaySet("2025-01-13")}, "JP", testLogger())
	x := NewExpander(resolver, testLogger())

	cal := testCalendar()
	cal.HolidaysPolicy = model.HolidaysBlock

	rec := model.Recurrence{
		DayOfWeek: 1,
		StartDate: "2025-01-06",
	}

	occs := expand(t, x, cal, rec, nil, "2025-01-01", "2025-01-31")

	want := []string{"2025-01-06", "2025-01-20", "2025-01-27"}
	if got := collectDates(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("occurrence dates = %v, want %v", got, want)
	}
}

func TestOccurrencesExplicitTimesPreserved(t *testing.T) {
	x := testExpander()

	cal := testCalendar()
	cal.WeekdayTimes = map[string]model.TimeWindow{
		"1": {MinTime: "09:00", MaxTime: "18:00"},
	}

	rec := model.Recurrence{
		DayOfWeek: 1,
		StartDate: "2025-01-06",
		StartTime: "20:00",
		EndTime:   "22:00",
	}

	occs := expand(t, x, cal, rec, nil, "2025-01-06", "2025-01-06")
	if len(occs) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(occs))
	}
	// Explicit recurrence times survive even when the weekday window says
	// otherwise; narrowing the window never rewrites stored intent.
	if occs[0].StartTime != "20:00" || occs[0].EndTime != "22:00" {
		t.Errorf("occurrence times = %s-%s, want 20:00-22:00", occs[0].StartTime, occs[0].EndTime)
	}
}

func TestOccurrencesInheritWeekdayWindow(t *testing.T) {
	x := testExpander()

	cal := testCalendar()
	cal.WeekdayTimes = map[string]model.TimeWindow{
		"1": {MinTime: "09:00", MaxTime: "18:00"},
	}

	rec := model.Recurrence{
		DayOfWeek: 1,
		StartDate: "2025-01-06",
	}

	occs := expand(t, x, cal, rec, nil, "2025-01-06", "2025-01-06")
	if len(occs) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(occs))
	}
	if occs[0].StartTime != "09:00" || occs[0].EndTime != "18:00" {
		t.Errorf("occurrence times = %s-%s, want 09:00-18:00", occs[0].StartTime, occs[0].EndTime)
	}
}

func TestOccurrencesSequenceIsRestartable(t *testing.T) {
	x := testExpander()
	cal := testCalendar()

	rec := model.Recurrence{
		DayOfWeek: 1,
		StartDate: "2025-01-06",
	}

	seq := x.Occurrences(context.Background(), cal, rec, nil, mustDate(t, "2025-01-01"), mustDate(t, "2025-01-31"))

	var first, second []Occurrence
	for occ := range seq {
		first = append(first, occ)
	}
	for occ := range seq {
		second = append(second, occ)
	}

	if len(first) == 0 {
		t.Fatal("expected occurrences in january")
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second iteration = %v, want %v", second, first)
	}
}

func TestOccurrencesInvalidStartDateYieldsNothing(t *testing.T) {
	x := testExpander()
	cal := testCalendar()

	rec := model.Recurrence{
		DayOfWeek: 1,
		StartDate: "not-a-date",
	}

	if occs := expand(t, x, cal, rec, nil, "2025-01-01", "2025-01-31"); len(occs) != 0 {
		t.Errorf("got %d occurrences for an invalid recurrence, want 0", len(occs))
	}
}
