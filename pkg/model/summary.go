package model

// ParticipantWindow is one participant's effective availability on a date.
// Empty times mean all day.
type ParticipantWindow struct {
	ParticipantName string `json:"participant_name"`
	StartTime       string `json:"start_time,omitempty"`
	EndTime         string `json:"end_time,omitempty"`
	Note            string `json:"note,omitempty"`
}

// DateAvailabilitySummary is the derived per-date view. Never persisted;
// always recomputed from the raw records plus calendar policy.
type DateAvailabilitySummary struct {
	Date         string              `json:"date"`
	Participants []ParticipantWindow `json:"participants"`
	TotalCount   int                 `json:"total_count"`
	Viable       bool                `json:"viable"`
}

// Slot is one fixed-size partition of a date's admissible time window.
// A participant counts toward the slot only when their merged interval fully
// covers it.
type Slot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Count     int    `json:"count"`
	Viable    bool   `json:"viable"`
}

// SlotSummary is the derived per-date slot breakdown for week views.
type SlotSummary struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

// WindowSuggestion is a contiguous run of viable slots long enough to satisfy
// the calendar's minimum meeting duration.
type WindowSuggestion struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	MinCount  int    `json:"min_count"`
}

// SlotsView is the slot-query response: the per-date slot breakdown plus the
// meeting windows that satisfy the calendar's minimum duration.
type SlotsView struct {
	Dates       []SlotSummary      `json:"dates"`
	Suggestions []WindowSuggestion `json:"suggestions"`
}
