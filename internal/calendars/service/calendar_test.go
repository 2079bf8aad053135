package service

import (
	"context"
	"fmt"
	"testing"

	calerrors "atsumaru/internal/calendars/errors"
	"atsumaru/internal/calendars/validator"
	apperrors "atsumaru/pkg/errors"
	"atsumaru/pkg/model"
)

func newCalendarService(
	calendars *mockCalendarRepository,
	participants *mockParticipantRepository,
) (CalendarService, *mockPublisher) {
	cfg := testConfig()
	publisher := &mockPublisher{}
	svc := NewCalendarService(
		calendars,
		participants,
		&mockAvailabilityRepository{},
		&mockRecurrenceRepository{},
		validator.NewCalendarValidator(cfg.Log),
		publisher,
		cfg,
	)
	return svc, publisher
}

func TestCalendarCreateAppliesDefaults(t *testing.T) {
	svc, _ := newCalendarService(&mockCalendarRepository{}, &mockParticipantRepository{})

	cal := &model.Calendar{Title: "  Book club  "}
	if err := svc.Create(context.Background(), cal); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if cal.Token == "" {
		t.Error("Create should generate a share token")
	}
	if cal.Title != "Book club" {
		t.Errorf("title = %q, want trimmed %q", cal.Title, "Book club")
	}
	if cal.Threshold != 2 {
		t.Errorf("threshold = %d, want the configured default 2", cal.Threshold)
	}
	if len(cal.AllowedWeekdays) != 7 {
		t.Errorf("allowed weekdays = %v, want all seven by default", cal.AllowedWeekdays)
	}
	if cal.HolidaysPolicy != model.HolidaysIgnore {
		t.Errorf("holidays policy = %q, want ignore by default", cal.HolidaysPolicy)
	}
}

func TestCalendarCreateRejectsInvalid(t *testing.T) {
	svc, _ := newCalendarService(&mockCalendarRepository{}, &mockParticipantRepository{})

	err := svc.Create(context.Background(), &model.Calendar{})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Errorf("err = %v, want %s", err, apperrors.CodeValidation)
	}
}

func TestCalendarGetByTokenNotFound(t *testing.T) {
	calendars := &mockCalendarRepository{
		findByTokenFunc: func(ctx context.Context, token string) (*model.Calendar, error) {
			return nil, fmt.Errorf("%w: token %s", calerrors.ErrCalendarNotFound, token)
		},
	}
	svc, _ := newCalendarService(calendars, &mockParticipantRepository{})

	_, _, err := svc.GetByToken(context.Background(), "missing-token")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Errorf("err = %v, want %s", err, apperrors.CodeNotFound)
	}
}

func TestUpdateSettingsThresholdAboveParticipantCount(t *testing.T) {
	calendars := &mockCalendarRepository{
		findByTokenFunc: func(ctx context.Context, token string) (*model.Calendar, error) {
			return testCalendarRecord(), nil
		},
	}
	participants := &mockParticipantRepository{
		countByCalendarFunc: func(ctx context.Context, calendarID string) (int64, error) {
			return 3, nil
		},
	}
	svc, _ := newCalendarService(calendars, participants)

	five := 5
	_, err := svc.UpdateSettings(context.Background(), "cal-token-1234", &model.CalendarSettingsUpdate{
		Threshold: &five,
	})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Errorf("err = %v, want %s for threshold above member count", err, apperrors.CodeValidation)
	}
}

func TestUpdateSettingsMergesPartialUpdate(t *testing.T) {
	var saved *model.Calendar
	calendars := &mockCalendarRepository{
		findByTokenFunc: func(ctx context.Context, token string) (*model.Calendar, error) {
			return testCalendarRecord(), nil
		},
		updateSettingsFunc: func(ctx context.Context, id string, cal *model.Calendar) error {
			saved = cal
			return nil
		},
	}
	participants := &mockParticipantRepository{
		countByCalendarFunc: func(ctx context.Context, calendarID string) (int64, error) {
			return 5, nil
		},
	}
	svc, publisher := newCalendarService(calendars, participants)

	three := 3
	updated, err := svc.UpdateSettings(context.Background(), "cal-token-1234", &model.CalendarSettingsUpdate{
		Title:     "Renamed club",
		Threshold: &three,
	})
	if err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}

	if saved == nil {
		t.Fatal("settings were not persisted")
	}
	if updated.Title != "Renamed club" || updated.Threshold != 3 {
		t.Errorf("updated = %+v, want renamed title and threshold 3", updated)
	}
	// Untouched fields keep their values.
	if len(updated.AllowedWeekdays) != 5 || updated.HolidaysPolicy != model.HolidaysIgnore {
		t.Errorf("untouched settings changed: %+v", updated)
	}
	if updated.Token != "cal-token-1234" || updated.ID != "65f000000000000000000001" {
		t.Errorf("identity fields must never change: %+v", updated)
	}

	if len(publisher.messages) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.messages))
	}
	if publisher.messages[0].Key != "cal-token-1234" {
		t.Errorf("event key = %q, want the calendar token", publisher.messages[0].Key)
	}
}

func TestCalendarDeleteCascades(t *testing.T) {
	var deletedCalendar string
	calendars := &mockCalendarRepository{
		findByTokenFunc: func(ctx context.Context, token string) (*model.Calendar, error) {
			return testCalendarRecord(), nil
		},
		deleteFunc: func(ctx context.Context, id string) error {
			deletedCalendar = id
			return nil
		},
	}

	var deletedParticipants bool
	participants := &mockParticipantRepository{
		findByCalendarFunc: func(ctx context.Context, calendarID string) ([]*model.Participant, error) {
			return []*model.Participant{
				{ID: "65f000000000000000000020", CalendarID: calendarID, Name: "alice"},
			}, nil
		},
		deleteByCalendarFunc: func(ctx context.Context, calendarID string) (int64, error) {
			deletedParticipants = true
			return 1, nil
		},
	}
	svc, _ := newCalendarService(calendars, participants)

	if err := svc.Delete(context.Background(), "cal-token-1234"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deletedCalendar != "65f000000000000000000001" {
		t.Errorf("deleted calendar id = %q, want the looked-up calendar", deletedCalendar)
	}
	if !deletedParticipants {
		t.Error("participants were not removed with the calendar")
	}
}
