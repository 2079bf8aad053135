package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	calerrors "atsumaru/internal/calendars/errors"
	"atsumaru/internal/calendars/validator"
	"atsumaru/internal/engine"
	apperrors "atsumaru/pkg/errors"
	"atsumaru/pkg/kafka"
	"atsumaru/pkg/model"
)

type noHolidays struct{}

func (noHolidays) IsHoliday(context.Context, string, time.Time) (bool, error) {
	return false, nil
}

func participantLookup() *mockParticipantRepository {
	return &mockParticipantRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Participant, error) {
			return &model.Participant{
				ID:         id,
				CalendarID: "65f000000000000000000001",
				Name:       "alice",
			}, nil
		},
	}
}

func newAvailabilityService(
	availabilities *mockAvailabilityRepository,
	recurrences *mockRecurrenceRepository,
) (AvailabilityService, *mockPublisher) {
	cfg := testConfig()
	publisher := &mockPublisher{}
	svc := NewAvailabilityService(
		calendarByToken(),
		participantLookup(),
		availabilities,
		recurrences,
		validator.NewCalendarValidator(cfg.Log),
		engine.NewPolicyResolver(noHolidays{}, "JP", cfg.Log),
		publisher,
		cfg,
	)
	return svc, publisher
}

func TestAvailabilityCreate(t *testing.T) {
	svc, publisher := newAvailabilityService(&mockAvailabilityRepository{}, &mockRecurrenceRepository{})

	// 2025-01-06 is a Monday, allowed by the test calendar.
	av := &model.Availability{
		ParticipantID: "65f000000000000000000020",
		Date:          "2025-01-06",
		StartTime:     "19:00",
		EndTime:       "22:00",
	}
	if err := svc.Create(context.Background(), "cal-token-1234", av); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if len(publisher.messages) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.messages))
	}
	msg := publisher.messages[0]
	if msg.Key != "cal-token-1234" {
		t.Errorf("event key = %q, want the calendar token", msg.Key)
	}
	if got := msg.Headers[kafka.HeaderEventType]; got != kafka.EventAvailabilityCreated {
		t.Errorf("event type = %q, want %q", got, kafka.EventAvailabilityCreated)
	}
}

func TestAvailabilityCreateInadmissibleDate(t *testing.T) {
	svc, publisher := newAvailabilityService(&mockAvailabilityRepository{}, &mockRecurrenceRepository{})

	// 2025-01-11 is a Saturday, excluded by the test calendar.
	err := svc.Create(context.Background(), "cal-token-1234", &model.Availability{
		ParticipantID: "65f000000000000000000020",
		Date:          "2025-01-11",
	})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodePolicyViolation {
		t.Errorf("err = %v, want %s", err, apperrors.CodePolicyViolation)
	}
	if len(publisher.messages) != 0 {
		t.Errorf("published %d events for a rejected write, want 0", len(publisher.messages))
	}
}

func TestAvailabilityCreateDuplicateDate(t *testing.T) {
	availabilities := &mockAvailabilityRepository{
		createFunc: func(ctx context.Context, av *model.Availability) error {
			return fmt.Errorf("%w: date %s", calerrors.ErrDuplicate, av.Date)
		},
	}
	svc, _ := newAvailabilityService(availabilities, &mockRecurrenceRepository{})

	err := svc.Create(context.Background(), "cal-token-1234", &model.Availability{
		ParticipantID: "65f000000000000000000020",
		Date:          "2025-01-06",
	})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("err = %v, want %s", err, apperrors.CodeConflict)
	}
}

func TestAvailabilityUpdateMergesFields(t *testing.T) {
	existing := &model.Availability{
		ID:            "65f000000000000000000030",
		ParticipantID: "65f000000000000000000020",
		Date:          "2025-01-06",
		StartTime:     "09:00",
		EndTime:       "12:00",
	}

	var saved *model.Availability
	availabilities := &mockAvailabilityRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Availability, error) {
			return existing, nil
		},
		updateFunc: func(ctx context.Context, id string, av *model.Availability) error {
			saved = av
			return nil
		},
	}
	svc, _ := newAvailabilityService(availabilities, &mockRecurrenceRepository{})

	start, end := "14:00", "16:00"
	updated, err := svc.Update(context.Background(), "cal-token-1234", existing.ID, &model.AvailabilityUpdate{
		StartTime: &start,
		EndTime:   &end,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if saved == nil || saved.StartTime != "14:00" || saved.EndTime != "16:00" {
		t.Errorf("persisted record = %+v, want 14:00-16:00", saved)
	}
	if updated.Date != "2025-01-06" {
		t.Errorf("date = %q, the date is immutable", updated.Date)
	}
}

func TestRecurrenceCreateDisallowedWeekday(t *testing.T) {
	svc, _ := newAvailabilityService(&mockAvailabilityRepository{}, &mockRecurrenceRepository{})

	// Saturday, no holiday carve-outs enabled on the test calendar.
	err := svc.CreateRecurrence(context.Background(), "cal-token-1234", &model.Recurrence{
		ParticipantID: "65f000000000000000000020",
		DayOfWeek:     6,
		StartDate:     "2025-01-04",
	})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodePolicyViolation {
		t.Errorf("err = %v, want %s", err, apperrors.CodePolicyViolation)
	}
}

func TestRecurrenceDeleteCascadesExceptions(t *testing.T) {
	var removedExceptions []string
	recurrences := &mockRecurrenceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Recurrence, error) {
			return &model.Recurrence{
				ID:            id,
				ParticipantID: "65f000000000000000000020",
				DayOfWeek:     1,
				StartDate:     "2025-01-06",
			}, nil
		},
		deleteExceptionsByRecurrencesFunc: func(ctx context.Context, ids []string) (int64, error) {
			removedExceptions = ids
			return 2, nil
		},
	}
	svc, _ := newAvailabilityService(&mockAvailabilityRepository{}, recurrences)

	if err := svc.DeleteRecurrence(context.Background(), "cal-token-1234", "65f000000000000000000040"); err != nil {
		t.Fatalf("DeleteRecurrence returned error: %v", err)
	}
	if len(removedExceptions) != 1 || removedExceptions[0] != "65f000000000000000000040" {
		t.Errorf("exceptions removed for %v, want the deleted recurrence", removedExceptions)
	}
}

func TestExceptionCreateChecksOccurrenceDate(t *testing.T) {
	recurrences := &mockRecurrenceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Recurrence, error) {
			return &model.Recurrence{
				ID:            id,
				ParticipantID: "65f000000000000000000020",
				DayOfWeek:     1,
				StartDate:     "2025-01-06",
				EndDate:       "2025-03-31",
			}, nil
		},
	}
	svc, _ := newAvailabilityService(&mockAvailabilityRepository{}, recurrences)

	tests := []struct {
		name     string
		date     string
		wantCode string
	}{
		{"valid monday", "2025-02-03", ""},
		{"wrong weekday", "2025-02-04", apperrors.CodeInvalidInput},
		{"before recurrence start", "2024-12-30", apperrors.CodeInvalidInput},
		{"after recurrence end", "2025-04-07", apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CreateException(context.Background(), "cal-token-1234", "65f000000000000000000040", &model.RecurrenceException{
				ExcludedDate: tt.date,
			})
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("CreateException(%s) returned error: %v", tt.date, err)
				}
				return
			}
			appErr := apperrors.AsAppError(err)
			if appErr == nil || appErr.Code != tt.wantCode {
				t.Errorf("CreateException(%s) err = %v, want %s", tt.date, err, tt.wantCode)
			}
		})
	}
}

func TestExceptionCreateDuplicate(t *testing.T) {
	recurrences := &mockRecurrenceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Recurrence, error) {
			return &model.Recurrence{
				ID:            id,
				ParticipantID: "65f000000000000000000020",
				DayOfWeek:     1,
				StartDate:     "2025-01-06",
			}, nil
		},
		createExceptionFunc: func(ctx context.Context, ex *model.RecurrenceException) error {
			return fmt.Errorf("%w: excluded date %s", calerrors.ErrDuplicate, ex.ExcludedDate)
		},
	}
	svc, _ := newAvailabilityService(&mockAvailabilityRepository{}, recurrences)

	err := svc.CreateException(context.Background(), "cal-token-1234", "65f000000000000000000040", &model.RecurrenceException{
		ExcludedDate: "2025-02-03",
	})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("err = %v, want %s", err, apperrors.CodeConflict)
	}
}
