package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	calerrors "atsumaru/internal/calendars/errors"
	"atsumaru/internal/calendars/repository"
	"atsumaru/internal/calendars/validator"
	"atsumaru/pkg/config"
	apperrors "atsumaru/pkg/errors"
	"atsumaru/pkg/kafka"
	"atsumaru/pkg/model"
	"atsumaru/pkg/sanitizer"
)

type CalendarService interface {
	Create(ctx context.Context, cal *model.Calendar) error
	GetByToken(ctx context.Context, token string) (*model.Calendar, []*model.Participant, error)
	UpdateSettings(ctx context.Context, token string, updates *model.CalendarSettingsUpdate) (*model.Calendar, error)
	Delete(ctx context.Context, token string) error
}

type calendarService struct {
	calendars      repository.CalendarRepository
	participants   repository.ParticipantRepository
	availabilities repository.AvailabilityRepository
	recurrences    repository.RecurrenceRepository
	validator      *validator.CalendarValidator
	events         *events
	cfg            *config.Config
}

func NewCalendarService(
	calendars repository.CalendarRepository,
	participants repository.ParticipantRepository,
	availabilities repository.AvailabilityRepository,
	recurrences repository.RecurrenceRepository,
	v *validator.CalendarValidator,
	publisher EventPublisher,
	cfg *config.Config,
) CalendarService {
	return &calendarService{
		calendars:      calendars,
		participants:   participants,
		availabilities: availabilities,
		recurrences:    recurrences,
		validator:      v,
		events:         newEvents(publisher, "calendars", cfg.Log),
		cfg:            cfg,
	}
}

func (s *calendarService) Create(ctx context.Context, cal *model.Calendar) error {
	s.sanitize(cal)
	s.applyDefaults(cal)
	cal.Token = uuid.NewString()

	if err := s.validator.ValidateCalendar(cal); err != nil {
		s.cfg.Log.Warn("Calendar validation failed",
			"title", cal.Title,
			"error", err,
		)
		return apperrors.Validation("Calendar validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.calendars.Create(ctx, cal); err != nil {
		s.cfg.Log.Error("Failed to create calendar",
			"title", cal.Title,
			"error", err,
		)
		return apperrors.Internal("Failed to create calendar", err)
	}

	s.cfg.Log.Info("Calendar created successfully",
		"id", cal.ID,
		"token", cal.Token,
		"title", cal.Title,
	)
	return nil
}

func (s *calendarService) GetByToken(ctx context.Context, token string) (*model.Calendar, []*model.Participant, error) {
	cal, err := s.findByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	participants, err := s.participants.FindByCalendar(ctx, cal.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to list calendar participants",
			"calendar_id", cal.ID,
			"error", err,
		)
		return nil, nil, apperrors.Internal("Failed to retrieve participants", err)
	}

	return cal, participants, nil
}

func (s *calendarService) UpdateSettings(ctx context.Context, token string, updates *model.CalendarSettingsUpdate) (*model.Calendar, error) {
	existing, err := s.findByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	s.sanitizeUpdate(updates)
	merged := s.mergeSettings(existing, updates)

	if err := s.validator.ValidateCalendar(merged); err != nil {
		s.cfg.Log.Warn("Calendar settings validation failed",
			"calendar_id", existing.ID,
			"error", err,
		)
		return nil, apperrors.Validation("Calendar settings validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	// A threshold above the member count can never be met, so reject it at
	// write time rather than letting every summary come back non-viable.
	if merged.Threshold != existing.Threshold {
		count, err := s.participants.CountByCalendar(ctx, existing.ID)
		if err != nil {
			return nil, apperrors.Internal("Failed to count participants", err)
		}
		if count > 0 && int64(merged.Threshold) > count {
			return nil, apperrors.Validation("Threshold exceeds participant count", map[string]any{
				"threshold":         merged.Threshold,
				"participant_count": count,
			})
		}
	}

	if err := s.calendars.UpdateSettings(ctx, existing.ID, merged); err != nil {
		if errors.Is(err, calerrors.ErrCalendarNotFound) {
			return nil, apperrors.NotFoundWithID("Calendar", token)
		}
		s.cfg.Log.Error("Failed to update calendar settings",
			"calendar_id", existing.ID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update calendar settings", err)
	}

	s.events.publish(ctx, kafka.EventSettingsUpdated, existing.Token, merged)

	s.cfg.Log.Info("Calendar settings updated", "calendar_id", existing.ID)
	return merged, nil
}

func (s *calendarService) Delete(ctx context.Context, token string) error {
	cal, err := s.findByToken(ctx, token)
	if err != nil {
		return err
	}

	err = s.calendars.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		participants, err := s.participants.FindByCalendar(sessCtx, cal.ID)
		if err != nil {
			return apperrors.Internal("Failed to list participants for delete", err)
		}

		for _, p := range participants {
			if _, err := s.availabilities.DeleteByParticipant(sessCtx, p.ID); err != nil {
				return apperrors.Internal("Failed to delete participant availabilities", err)
			}
			recurrenceIDs, err := s.recurrences.DeleteByParticipant(sessCtx, p.ID)
			if err != nil {
				return apperrors.Internal("Failed to delete participant recurrences", err)
			}
			if _, err := s.recurrences.DeleteExceptionsByRecurrences(sessCtx, recurrenceIDs); err != nil {
				return apperrors.Internal("Failed to delete recurrence exceptions", err)
			}
		}

		if _, err := s.participants.DeleteByCalendar(sessCtx, cal.ID); err != nil {
			return apperrors.Internal("Failed to delete participants", err)
		}
		if err := s.calendars.Delete(sessCtx, cal.ID); err != nil {
			if errors.Is(err, calerrors.ErrCalendarNotFound) {
				return apperrors.NotFoundWithID("Calendar", token)
			}
			return apperrors.Internal("Failed to delete calendar", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete calendar",
			"calendar_id", cal.ID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Calendar deleted", "calendar_id", cal.ID, "token", token)
	return nil
}

func (s *calendarService) findByToken(ctx context.Context, token string) (*model.Calendar, error) {
	if token == "" {
		return nil, apperrors.InvalidInput("Calendar token cannot be empty")
	}

	cal, err := s.calendars.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, calerrors.ErrCalendarNotFound) {
			return nil, apperrors.NotFoundWithID("Calendar", token)
		}
		s.cfg.Log.Error("Failed to find calendar by token",
			"token", token,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve calendar", err)
	}
	return cal, nil
}

func (s *calendarService) sanitize(cal *model.Calendar) {
	cal.Title = sanitizer.NormalizeName(cal.Title)
	cal.TimeZone = sanitizer.TrimAndNormalize(cal.TimeZone)
	cal.HolidayCountry = sanitizer.TrimAndNormalize(cal.HolidayCountry)
}

func (s *calendarService) sanitizeUpdate(updates *model.CalendarSettingsUpdate) {
	if updates.Title != "" {
		updates.Title = sanitizer.NormalizeName(updates.Title)
	}
	if updates.TimeZone != "" {
		updates.TimeZone = sanitizer.TrimAndNormalize(updates.TimeZone)
	}
	if updates.HolidayCountry != "" {
		updates.HolidayCountry = sanitizer.TrimAndNormalize(updates.HolidayCountry)
	}
}

func (s *calendarService) applyDefaults(cal *model.Calendar) {
	if cal.Threshold == 0 {
		cal.Threshold = s.cfg.DefaultThreshold
	}
	if len(cal.AllowedWeekdays) == 0 {
		cal.AllowedWeekdays = []model.Weekday{0, 1, 2, 3, 4, 5, 6}
	}
	if cal.HolidaysPolicy == "" {
		cal.HolidaysPolicy = model.HolidaysIgnore
	}
}

func (s *calendarService) mergeSettings(existing *model.Calendar, updates *model.CalendarSettingsUpdate) *model.Calendar {
	merged := *existing

	if updates.Title != "" {
		merged.Title = updates.Title
	}
	if updates.TimeZone != "" {
		merged.TimeZone = updates.TimeZone
	}
	if updates.HolidayCountry != "" {
		merged.HolidayCountry = updates.HolidayCountry
	}
	if updates.Threshold != nil {
		merged.Threshold = *updates.Threshold
	}
	if updates.AllowedWeekdays != nil {
		merged.AllowedWeekdays = updates.AllowedWeekdays
	}
	if updates.MinDurationHours != nil {
		merged.MinDurationHours = *updates.MinDurationHours
	}
	if updates.StartDate != nil {
		merged.StartDate = *updates.StartDate
	}
	if updates.EndDate != nil {
		merged.EndDate = *updates.EndDate
	}
	if updates.HolidaysPolicy != "" {
		merged.HolidaysPolicy = updates.HolidaysPolicy
	}
	if updates.AllowHolidayEves != nil {
		merged.AllowHolidayEves = *updates.AllowHolidayEves
	}
	if updates.WeekdayTimes != nil {
		merged.WeekdayTimes = *updates.WeekdayTimes
	}
	if updates.HolidayWindow != nil {
		merged.HolidayWindow = updates.HolidayWindow
	}
	if updates.HolidayEveWindow != nil {
		merged.HolidayEveWindow = updates.HolidayEveWindow
	}

	merged.ID = existing.ID
	merged.Token = existing.Token
	merged.CreatedAt = existing.CreatedAt
	return &merged
}
