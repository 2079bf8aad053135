package service

import (
	"context"
	"fmt"
	"testing"

	calerrors "atsumaru/internal/calendars/errors"
	"atsumaru/internal/calendars/validator"
	apperrors "atsumaru/pkg/errors"
	"atsumaru/pkg/kafka"
	"atsumaru/pkg/model"
)

func newParticipantService(
	calendars *mockCalendarRepository,
	participants *mockParticipantRepository,
	availabilities *mockAvailabilityRepository,
	recurrences *mockRecurrenceRepository,
) (ParticipantService, *mockPublisher) {
	cfg := testConfig()
	publisher := &mockPublisher{}
	svc := NewParticipantService(
		calendars,
		participants,
		availabilities,
		recurrences,
		validator.NewCalendarValidator(cfg.Log),
		publisher,
		cfg,
	)
	return svc, publisher
}

func calendarByToken() *mockCalendarRepository {
	return &mockCalendarRepository{
		findByTokenFunc: func(ctx context.Context, token string) (*model.Calendar, error) {
			if token != "cal-token-1234" {
				return nil, fmt.Errorf("%w: token %s", calerrors.ErrCalendarNotFound, token)
			}
			return testCalendarRecord(), nil
		},
	}
}

func TestParticipantAdd(t *testing.T) {
	svc, _ := newParticipantService(
		calendarByToken(),
		&mockParticipantRepository{},
		&mockAvailabilityRepository{},
		&mockRecurrenceRepository{},
	)

	p := &model.Participant{Name: "  alice  "}
	if err := svc.Add(context.Background(), "cal-token-1234", p); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if p.CalendarID != "65f000000000000000000001" {
		t.Errorf("calendar id = %q, want the resolved calendar", p.CalendarID)
	}
	if p.Name != "alice" {
		t.Errorf("name = %q, want trimmed %q", p.Name, "alice")
	}
}

func TestParticipantAddDuplicateName(t *testing.T) {
	participants := &mockParticipantRepository{
		createFunc: func(ctx context.Context, p *model.Participant) error {
			return fmt.Errorf("%w: name %s", calerrors.ErrDuplicate, p.Name)
		},
	}
	svc, _ := newParticipantService(
		calendarByToken(),
		participants,
		&mockAvailabilityRepository{},
		&mockRecurrenceRepository{},
	)

	err := svc.Add(context.Background(), "cal-token-1234", &model.Participant{Name: "alice"})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("err = %v, want %s", err, apperrors.CodeConflict)
	}
}

func TestParticipantDeleteCascades(t *testing.T) {
	member := &model.Participant{
		ID:         "65f000000000000000000020",
		CalendarID: "65f000000000000000000001",
		Name:       "alice",
	}

	participants := &mockParticipantRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Participant, error) {
			return member, nil
		},
	}

	var removedAvailabilities string
	availabilities := &mockAvailabilityRepository{
		deleteByParticipantFunc: func(ctx context.Context, participantID string) (int64, error) {
			removedAvailabilities = participantID
			return 4, nil
		},
	}

	var removedExceptionRecurrences []string
	recurrences := &mockRecurrenceRepository{
		deleteByParticipantFunc: func(ctx context.Context, participantID string) ([]string, error) {
			return []string{"65f000000000000000000040"}, nil
		},
		deleteExceptionsByRecurrencesFunc: func(ctx context.Context, ids []string) (int64, error) {
			removedExceptionRecurrences = ids
			return 2, nil
		},
	}

	svc, publisher := newParticipantService(calendarByToken(), participants, availabilities, recurrences)

	if err := svc.Delete(context.Background(), "cal-token-1234", member.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if removedAvailabilities != member.ID {
		t.Errorf("availabilities removed for %q, want %q", removedAvailabilities, member.ID)
	}
	if len(removedExceptionRecurrences) != 1 || removedExceptionRecurrences[0] != "65f000000000000000000040" {
		t.Errorf("exceptions removed for %v, want the participant's recurrence ids", removedExceptionRecurrences)
	}

	if len(publisher.messages) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.messages))
	}
	if got := publisher.messages[0].Headers[kafka.HeaderEventType]; got != kafka.EventParticipantDeleted {
		t.Errorf("event type = %q, want %q", got, kafka.EventParticipantDeleted)
	}
}

func TestParticipantDeleteFromOtherCalendar(t *testing.T) {
	participants := &mockParticipantRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Participant, error) {
			return &model.Participant{
				ID:         id,
				CalendarID: "65f0000000000000000000ff",
				Name:       "mallory",
			}, nil
		},
	}
	svc, _ := newParticipantService(
		calendarByToken(),
		participants,
		&mockAvailabilityRepository{},
		&mockRecurrenceRepository{},
	)

	err := svc.Delete(context.Background(), "cal-token-1234", "65f000000000000000000099")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Errorf("err = %v, want %s for a participant of another calendar", err, apperrors.CodeNotFound)
	}
}
