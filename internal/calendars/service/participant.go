package service

import (
	"context"
	"errors"

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

type ParticipantService interface {
	Add(ctx context.Context, token string, p *model.Participant) error
	List(ctx context.Context, token string) ([]*model.Participant, error)
	Delete(ctx context.Context, token string, participantID string) error
}

type participantService struct {
	calendars      repository.CalendarRepository
	participants   repository.ParticipantRepository
	availabilities repository.AvailabilityRepository
	recurrences    repository.RecurrenceRepository
	validator      *validator.CalendarValidator
	events         *events
	cfg            *config.Config
}

func NewParticipantService(
	calendars repository.CalendarRepository,
	participants repository.ParticipantRepository,
	availabilities repository.AvailabilityRepository,
	recurrences repository.RecurrenceRepository,
	v *validator.CalendarValidator,
	publisher EventPublisher,
	cfg *config.Config,
) ParticipantService {
	return &participantService{
		calendars:      calendars,
		participants:   participants,
		availabilities: availabilities,
		recurrences:    recurrences,
		validator:      v,
		events:         newEvents(publisher, "calendars", cfg.Log),
		cfg:            cfg,
	}
}

func (s *participantService) Add(ctx context.Context, token string, p *model.Participant) error {
	cal, err := s.findCalendar(ctx, token)
	if err != nil {
		return err
	}

	p.CalendarID = cal.ID
	p.Name = sanitizer.NormalizeName(p.Name)

	if err := s.validator.ValidateParticipant(p); err != nil {
		s.cfg.Log.Warn("Participant validation failed",
			"calendar_id", cal.ID,
			"name", p.Name,
			"error", err,
		)
		return apperrors.Validation("Participant validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.participants.Create(ctx, p); err != nil {
		if errors.Is(err, calerrors.ErrDuplicate) {
			return apperrors.Conflict("A participant with this name already exists in the calendar")
		}
		s.cfg.Log.Error("Failed to create participant",
			"calendar_id", cal.ID,
			"name", p.Name,
			"error", err,
		)
		return apperrors.Internal("Failed to create participant", err)
	}

	s.cfg.Log.Info("Participant added",
		"calendar_id", cal.ID,
		"participant_id", p.ID,
		"name", p.Name,
	)
	return nil
}

func (s *participantService) List(ctx context.Context, token string) ([]*model.Participant, error) {
	cal, err := s.findCalendar(ctx, token)
	if err != nil {
		return nil, err
	}

	participants, err := s.participants.FindByCalendar(ctx, cal.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to list participants",
			"calendar_id", cal.ID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve participants", err)
	}
	return participants, nil
}

// Delete removes the participant and every availability record, recurrence,
// and exception belonging to them, in one transaction.
func (s *participantService) Delete(ctx context.Context, token string, participantID string) error {
	cal, err := s.findCalendar(ctx, token)
	if err != nil {
		return err
	}

	p, err := s.findParticipant(ctx, cal, participantID)
	if err != nil {
		return err
	}

	err = s.participants.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
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

		if err := s.participants.Delete(sessCtx, p.ID); err != nil {
			if errors.Is(err, calerrors.ErrParticipantNotFound) {
				return apperrors.NotFoundWithID("Participant", participantID)
			}
			return apperrors.Internal("Failed to delete participant", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete participant",
			"calendar_id", cal.ID,
			"participant_id", participantID,
			"error", err,
		)
		return err
	}

	s.events.publish(ctx, kafka.EventParticipantDeleted, cal.Token, map[string]any{
		"participant_id": p.ID,
		"name":           p.Name,
	})

	s.cfg.Log.Info("Participant deleted",
		"calendar_id", cal.ID,
		"participant_id", p.ID,
	)
	return nil
}

func (s *participantService) findCalendar(ctx context.Context, token string) (*model.Calendar, error) {
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

func (s *participantService) findParticipant(ctx context.Context, cal *model.Calendar, participantID string) (*model.Participant, error) {
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
		// Do not leak that the id exists in another calendar.
		return nil, apperrors.NotFoundWithID("Participant", participantID)
	}
	return p, nil
}
