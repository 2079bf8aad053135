package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	calerrors "atsumaru/internal/calendars/errors"
	"atsumaru/internal/calendars/repository"
	"atsumaru/internal/calendars/validator"
	"atsumaru/internal/engine"
	"atsumaru/pkg/config"
	apperrors "atsumaru/pkg/errors"
	"atsumaru/pkg/kafka"
	"atsumaru/pkg/model"
	"atsumaru/pkg/sanitizer"
)

type AvailabilityService interface {
	Create(ctx context.Context, token string, av *model.Availability) error
	Update(ctx context.Context, token string, id string, updates *model.AvailabilityUpdate) (*model.Availability, error)
	Delete(ctx context.Context, token string, id string) error

	CreateRecurrence(ctx context.Context, token string, rec *model.Recurrence) error
	DeleteRecurrence(ctx context.Context, token string, id string) error

	CreateException(ctx context.Context, token string, recurrenceID string, ex *model.RecurrenceException) error
	DeleteException(ctx context.Context, token string, recurrenceID string, excludedDate string) error
}

type availabilityService struct {
	calendars      repository.CalendarRepository
	participants   repository.ParticipantRepository
	availabilities repository.AvailabilityRepository
	recurrences    repository.RecurrenceRepository
	validator      *validator.CalendarValidator
	policy         *engine.PolicyResolver
	events         *events
	cfg            *config.Config
}

func NewAvailabilityService(
	calendars repository.CalendarRepository,
	participants repository.ParticipantRepository,
	availabilities repository.AvailabilityRepository,
	recurrences repository.RecurrenceRepository,
	v *validator.CalendarValidator,
	policy *engine.PolicyResolver,
	publisher EventPublisher,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		calendars:      calendars,
		participants:   participants,
		availabilities: availabilities,
		recurrences:    recurrences,
		validator:      v,
		policy:         policy,
		events:         newEvents(publisher, "calendars", cfg.Log),
		cfg:            cfg,
	}
}

func (s *availabilityService) Create(ctx context.Context, token string, av *model.Availability) error {
	cal, err := s.findCalendar(ctx, token)
	if err != nil {
		return err
	}
	if _, err := s.findParticipant(ctx, cal, av.ParticipantID); err != nil {
		return err
	}

	av.Note = sanitizer.NormalizeNote(av.Note)

	if err := s.validator.ValidateAvailability(av); err != nil {
		s.cfg.Log.Warn("Availability validation failed",
			"participant_id", av.ParticipantID,
			"date", av.Date,
			"error", err,
		)
		return apperrors.Validation("Availability validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.checkDateAdmissible(ctx, cal, av.Date); err != nil {
		return err
	}

	if err := s.availabilities.Create(ctx, av); err != nil {
		if errors.Is(err, calerrors.ErrDuplicate) {
			return apperrors.Conflict("An availability record already exists for this participant and date")
		}
		s.cfg.Log.Error("Failed to create availability",
			"participant_id", av.ParticipantID,
			"date", av.Date,
			"error", err,
		)
		return apperrors.Internal("Failed to create availability", err)
	}

	s.events.publish(ctx, kafka.EventAvailabilityCreated, cal.Token, av)

	s.cfg.Log.Info("Availability created",
		"id", av.ID,
		"participant_id", av.ParticipantID,
		"date", av.Date,
	)
	return nil
}

func (s *availabilityService) Update(ctx context.Context, token string, id string, updates *model.AvailabilityUpdate) (*model.Availability, error) {
	cal, err := s.findCalendar(ctx, token)
	if err != nil {
		return nil, err
	}

	existing, err := s.findAvailability(ctx, cal, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if updates.StartTime != nil {
		merged.StartTime = *updates.StartTime
	}
	if updates.EndTime != nil {
		merged.EndTime = *updates.EndTime
	}
	if updates.Note != nil {
		merged.Note = sanitizer.NormalizeNote(*updates.Note)
	}

	if err := s.validator.ValidateAvailability(&merged); err != nil {
		return nil, apperrors.Validation("Availability validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.availabilities.Update(ctx, id, &merged); err != nil {
		if errors.Is(err, calerrors.ErrAvailabilityNotFound) {
			return nil, apperrors.NotFoundWithID("Availability", id)
		}
		s.cfg.Log.Error("Failed to update availability",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update availability", err)
	}

	s.events.publish(ctx, kafka.EventAvailabilityUpdated, cal.Token, &merged)

	s.cfg.Log.Info("Availability updated", "id", id, "date", merged.Date)
	return &merged, nil
}

func (s *availabilityService) Delete(ctx context.Context, token string, id string) error {
	cal, err := s.findCalendar(ctx, token)
	if err != nil {
		return err
	}

	existing, err := s.findAvailability(ctx, cal, id)
	if err != nil {
		return err
	}

	if err := s.availabilities.Delete(ctx, id); err != nil {
		if errors.Is(err, calerrors.ErrAvailabilityNotFound) {
			return apperrors.NotFoundWithID("Availability", id)
		}
		s.cfg.Log.Error("Failed to delete availability",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to delete availability", err)
	}

	s.events.publish(ctx, kafka.EventAvailabilityDeleted, cal.Token, map[string]any{
		"id":             id,
		"participant_id": existing.ParticipantID,
		"date":           existing.Date,
	})

	s.cfg.Log.Info("Availability deleted", "id", id, "date", existing.Date)
	return nil
}

func (s *availabilityService) CreateRecurrence(ctx context.Context, token string, rec *model.Recurrence) error {
	cal, err := s.findCalendar(ctx, token)
	if err != nil {
		return err
	}
	if _, err := s.findParticipant(ctx, cal, rec.ParticipantID); err != nil {
		return err
	}

	rec.Note = sanitizer.NormalizeNote(rec.Note)

	if err := s.validator.ValidateRecurrence(rec); err != nil {
		s.cfg.Log.Warn("Recurrence validation failed",
			"participant_id", rec.ParticipantID,
			"day_of_week", rec.DayOfWeek,
			"error", err,
		)
		return apperrors.Validation("Recurrence validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	// A recurrence on an excluded weekday can only ever surface through the
	// holiday-allow or holiday-eve carve-outs. Without either it would expand
	// to nothing, which is always a mistake.
	if !cal.AllowsWeekday(time.Weekday(rec.DayOfWeek)) &&
		cal.HolidaysPolicy != model.HolidaysAllow && !cal.AllowHolidayEves {
		return apperrors.PolicyViolation("Weekday is not allowed by the calendar", map[string]any{
			"day_of_week":      rec.DayOfWeek,
			"allowed_weekdays": cal.AllowedWeekdays,
		})
	}

	if err := s.recurrences.Create(ctx, rec); err != nil {
		s.cfg.Log.Error("Failed to create recurrence",
			"participant_id", rec.ParticipantID,
			"error", err,
		)
		return apperrors.Internal("Failed to create recurrence", err)
	}

	s.events.publish(ctx, kafka.EventRecurrenceCreated, cal.Token, rec)

	s.cfg.Log.Info("Recurrence created",
		"id", rec.ID,
		"participant_id", rec.ParticipantID,
		"day_of_week", rec.DayOfWeek,
	)
	return nil
}

// DeleteRecurrence removes the rule and all of its exception rows together.
func (s *availabilityService) DeleteRecurrence(ctx context.Context, token string, id string) error {
	cal, err := s.findCalendar(ctx, token)
	if err != nil {
		return err
	}

	rec, err := s.findRecurrence(ctx, cal, id)
	if err != nil {
		return err
	}

	err = s.recurrences.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.recurrences.DeleteExceptionsByRecurrences(sessCtx, []string{rec.ID}); err != nil {
			return apperrors.Internal("Failed to delete recurrence exceptions", err)
		}
		if err := s.recurrences.Delete(sessCtx, rec.ID); err != nil {
			if errors.Is(err, calerrors.ErrRecurrenceNotFound) {
				return apperrors.NotFoundWithID("Recurrence", id)
			}
			return apperrors.Internal("Failed to delete recurrence", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete recurrence",
			"id", id,
			"error", err,
		)
		return err
	}

	s.events.publish(ctx, kafka.EventRecurrenceDeleted, cal.Token, map[string]any{
		"id":             rec.ID,
		"participant_id": rec.ParticipantID,
	})

	s.cfg.Log.Info("Recurrence deleted", "id", id)
	return nil
}

func (s *availabilityService) CreateException(ctx context.Context, token string, recurrenceID string, ex *model.RecurrenceException) error {
	cal, err := s.findCalendar(ctx, token)
	if err != nil {
		return err
	}

	rec, err := s.findRecurrence(ctx, cal, recurrenceID)
	if err != nil {
		return err
	}
	ex.RecurrenceID = rec.ID

	if err := s.validator.ValidateException(ex); err != nil {
		return apperrors.Validation("Exception validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.checkExceptionDate(rec, ex.ExcludedDate); err != nil {
		return err
	}

	if err := s.recurrences.CreateException(ctx, ex); err != nil {
		if errors.Is(err, calerrors.ErrDuplicate) {
			return apperrors.Conflict("This occurrence is already excluded")
		}
		s.cfg.Log.Error("Failed to create exception",
			"recurrence_id", rec.ID,
			"excluded_date", ex.ExcludedDate,
			"error", err,
		)
		return apperrors.Internal("Failed to create exception", err)
	}

	s.events.publish(ctx, kafka.EventExceptionCreated, cal.Token, ex)

	s.cfg.Log.Info("Recurrence exception created",
		"recurrence_id", rec.ID,
		"excluded_date", ex.ExcludedDate,
	)
	return nil
}

func (s *availabilityService) DeleteException(ctx context.Context, token string, recurrenceID string, excludedDate string) error {
	cal, err := s.findCalendar(ctx, token)
	if err != nil {
		return err
	}

	rec, err := s.findRecurrence(ctx, cal, recurrenceID)
	if err != nil {
		return err
	}

	if err := s.recurrences.DeleteException(ctx, rec.ID, excludedDate); err != nil {
		if errors.Is(err, calerrors.ErrExceptionNotFound) {
			return apperrors.NotFound("Recurrence exception")
		}
		s.cfg.Log.Error("Failed to delete exception",
			"recurrence_id", rec.ID,
			"excluded_date", excludedDate,
			"error", err,
		)
		return apperrors.Internal("Failed to delete exception", err)
	}

	s.events.publish(ctx, kafka.EventExceptionDeleted, cal.Token, map[string]any{
		"recurrence_id": rec.ID,
		"excluded_date": excludedDate,
	})

	s.cfg.Log.Info("Recurrence exception deleted",
		"recurrence_id", rec.ID,
		"excluded_date", excludedDate,
	)
	return nil
}

// checkDateAdmissible maps an inadmissible date to a policy violation with
// enough detail for the client to show why.
func (s *availabilityService) checkDateAdmissible(ctx context.Context, cal *model.Calendar, dateStr string) error {
	date, err := engine.ParseDate(dateStr)
	if err != nil {
		return apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	ruling := s.policy.Resolve(ctx, cal, date)
	if !ruling.Admissible {
		details := map[string]any{
			"date":             dateStr,
			"allowed_weekdays": cal.AllowedWeekdays,
		}
		if ruling.Holiday {
			details["holiday"] = true
		}
		return apperrors.PolicyViolation("Date is not admissible under the calendar's settings", details)
	}
	return nil
}

// checkExceptionDate requires the excluded date to be an actual occurrence
// date of the rule: right weekday, inside the rule's bounds.
func (s *availabilityService) checkExceptionDate(rec *model.Recurrence, dateStr string) error {
	date, err := engine.ParseDate(dateStr)
	if err != nil {
		return apperrors.InvalidInput("Excluded date must be in YYYY-MM-DD format")
	}

	if date.Weekday() != time.Weekday(rec.DayOfWeek) {
		return apperrors.InvalidInput("Excluded date does not fall on the recurrence weekday")
	}
	if dateStr < rec.StartDate {
		return apperrors.InvalidInput("Excluded date is before the recurrence starts")
	}
	if rec.EndDate != "" && dateStr > rec.EndDate {
		return apperrors.InvalidInput("Excluded date is after the recurrence ends")
	}
	return nil
}

func (s *availabilityService) findCalendar(ctx context.Context, token string) (*model.Calendar, error) {
	if token == "" {
		return nil, apperrors.InvalidInput("Calendar token cannot be empty")
	}

	cal, err := s.calendars.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, calerrors.ErrCalendarNotFound) {
			return nil, apperrors.NotFoundWithID("Calendar", token)
		}
		return nil, apperrors.Internal("Failed to retrieve calendar", err)
	}
	return cal, nil
}

func (s *availabilityService) findParticipant(ctx context.Context, cal *model.Calendar, participantID string) (*model.Participant, error) {
	if participantID == "" {
		return nil, apperrors.InvalidInput("Participant ID cannot be empty")
	}

	p, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, calerrors.ErrParticipantNotFound) {
			return nil, apperrors.NotFoundWithID("Participant", participantID)
		}
		if errors.Is(err, calerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid participant ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve participant", err)
	}
	if p.CalendarID != cal.ID {
		return nil, apperrors.NotFoundWithID("Participant", participantID)
	}
	return p, nil
}

func (s *availabilityService) findAvailability(ctx context.Context, cal *model.Calendar, id string) (*model.Availability, error) {
	av, err := s.availabilities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, calerrors.ErrAvailabilityNotFound) {
			return nil, apperrors.NotFoundWithID("Availability", id)
		}
		if errors.Is(err, calerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid availability ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve availability", err)
	}
	if _, err := s.findParticipant(ctx, cal, av.ParticipantID); err != nil {
		return nil, apperrors.NotFoundWithID("Availability", id)
	}
	return av, nil
}

func (s *availabilityService) findRecurrence(ctx context.Context, cal *model.Calendar, id string) (*model.Recurrence, error) {
	rec, err := s.recurrences.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, calerrors.ErrRecurrenceNotFound) {
			return nil, apperrors.NotFoundWithID("Recurrence", id)
		}
		if errors.Is(err, calerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid recurrence ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve recurrence", err)
	}
	if _, err := s.findParticipant(ctx, cal, rec.ParticipantID); err != nil {
		return nil, apperrors.NotFoundWithID("Recurrence", id)
	}
	return rec, nil
}
