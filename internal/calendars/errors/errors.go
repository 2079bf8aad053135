package errors

import "errors"

var (
	ErrCalendarNotFound = errors.New("calendar not found")

	ErrParticipantNotFound = errors.New("participant not found")

	ErrAvailabilityNotFound = errors.New("availability record not found")

	ErrRecurrenceNotFound = errors.New("recurrence not found")

	ErrExceptionNotFound = errors.New("recurrence exception not found")

	ErrInvalidID = errors.New("invalid ID format")

	ErrDuplicate = errors.New("duplicate record")
)
