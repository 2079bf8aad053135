package model

import "time"

// Availability is a one-off per-date record. It overrides any recurrence
// occurrence on the same date. Empty start/end time means all day.
// (participant_id, date) is unique at the storage layer.
type Availability struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ParticipantID string    `json:"participant_id" bson:"participant_id" validate:"required,mongodb"`
	Date          string    `json:"date" bson:"date" validate:"required,valid_date"`
	StartTime     string    `json:"start_time,omitempty" bson:"start_time" validate:"omitempty,valid_clock"`
	EndTime       string    `json:"end_time,omitempty" bson:"end_time" validate:"omitempty,valid_clock"`
	Note          string    `json:"note,omitempty" bson:"note" validate:"omitempty,max=200"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// AvailabilityUpdate carries a partial change to a one-off record. The date
// itself is immutable; delete and recreate to move an entry.
type AvailabilityUpdate struct {
	StartTime *string `json:"start_time,omitempty" validate:"omitempty"`
	EndTime   *string `json:"end_time,omitempty" validate:"omitempty"`
	Note      *string `json:"note,omitempty" validate:"omitempty,max=200"`
}

// Recurrence is a weekly-repeating base rule: available every DayOfWeek from
// StartDate until EndDate (or forever when EndDate is empty). Empty times
// inherit the calendar's window for each occurrence date.
type Recurrence struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ParticipantID string    `json:"participant_id" bson:"participant_id" validate:"required,mongodb"`
	DayOfWeek     Weekday   `json:"day_of_week" bson:"day_of_week" validate:"min=0,max=6"`
	StartDate     string    `json:"start_date" bson:"start_date" validate:"required,valid_date"`
	EndDate       string    `json:"end_date,omitempty" bson:"end_date" validate:"omitempty,valid_date"`
	StartTime     string    `json:"start_time,omitempty" bson:"start_time" validate:"omitempty,valid_clock"`
	EndTime       string    `json:"end_time,omitempty" bson:"end_time" validate:"omitempty,valid_clock"`
	Note          string    `json:"note,omitempty" bson:"note" validate:"omitempty,max=200"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// RecurrenceException suppresses a single occurrence of a recurrence without
// deleting the rule. (recurrence_id, excluded_date) is unique at the storage
// layer.
type RecurrenceException struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	RecurrenceID string    `json:"recurrence_id" bson:"recurrence_id" validate:"required,mongodb"`
	ExcludedDate string    `json:"excluded_date" bson:"excluded_date" validate:"required,valid_date"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}
