package model

import "time"

// Participant is a named member of a calendar. Names are unique within a
// calendar; availability and recurrence records reference the participant by
// id and are removed with it.
type Participant struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CalendarID string    `json:"calendar_id" bson:"calendar_id" validate:"required,mongodb"`
	Name       string    `json:"name" bson:"name" validate:"required,min=1,max=50"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}
