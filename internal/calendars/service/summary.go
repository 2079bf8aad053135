package service

import (
	"context"
	"errors"
	"sync"

	calerrors "atsumaru/internal/calendars/errors"
	"atsumaru/internal/calendars/repository"
	"atsumaru/internal/engine"
	"atsumaru/pkg/config"
	apperrors "atsumaru/pkg/errors"
	"atsumaru/pkg/model"
)

type SummaryService interface {
	GetSummary(ctx context.Context, token string, startDate, endDate string) ([]model.DateAvailabilitySummary, error)
	GetSlots(ctx context.Context, token string, startDate, endDate string, slotMinutes int) (*model.SlotsView, error)
}

type summaryService struct {
	calendars      repository.CalendarRepository
	participants   repository.ParticipantRepository
	availabilities repository.AvailabilityRepository
	recurrences    repository.RecurrenceRepository
	aggregator     *engine.Aggregator
	cfg            *config.Config
}

func NewSummaryService(
	calendars repository.CalendarRepository,
	participants repository.ParticipantRepository,
	availabilities repository.AvailabilityRepository,
	recurrences repository.RecurrenceRepository,
	aggregator *engine.Aggregator,
	cfg *config.Config,
) SummaryService {
	return &summaryService{
		calendars:      calendars,
		participants:   participants,
		availabilities: availabilities,
		recurrences:    recurrences,
		aggregator:     aggregator,
		cfg:            cfg,
	}
}

func (s *summaryService) GetSummary(ctx context.Context, token string, startDate, endDate string) ([]model.DateAvailabilitySummary, error) {
	cal, records, err := s.load(ctx, token, startDate, endDate)
	if err != nil {
		return nil, err
	}

	summaries, err := s.aggregator.Summarize(ctx, cal, records, startDate, endDate)
	if err != nil {
		return nil, s.translateEngineError(err)
	}

	s.cfg.Log.Debug("Summary computed",
		"calendar_id", cal.ID,
		"start", startDate,
		"end", endDate,
		"dates", len(summaries),
		"participants", len(records),
	)
	return summaries, nil
}

func (s *summaryService) GetSlots(ctx context.Context, token string, startDate, endDate string, slotMinutes int) (*model.SlotsView, error) {
	if slotMinutes == 0 {
		slotMinutes = s.cfg.DefaultSlotMinutes
	}
	if slotMinutes < 5 || slotMinutes > 240 {
		return nil, apperrors.InvalidInput("slot_minutes must be between 5 and 240")
	}

	cal, records, err := s.load(ctx, token, startDate, endDate)
	if err != nil {
		return nil, err
	}

	summaries, err := s.aggregator.SummarizeSlots(ctx, cal, records, startDate, endDate, slotMinutes)
	if err != nil {
		return nil, s.translateEngineError(err)
	}

	return &model.SlotsView{
		Dates:       summaries,
		Suggestions: s.aggregator.SuggestWindows(cal, summaries),
	}, nil
}

// load fetches the calendar and every participant's raw records for the
// range. The availability and recurrence queries run in parallel; exceptions
// load after recurrences because they are keyed by recurrence id.
func (s *summaryService) load(ctx context.Context, token string, startDate, endDate string) (*model.Calendar, []engine.ParticipantRecords, error) {
	if err := s.checkRange(startDate, endDate); err != nil {
		return nil, nil, err
	}

	cal, err := s.calendars.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, calerrors.ErrCalendarNotFound) {
			return nil, nil, apperrors.NotFoundWithID("Calendar", token)
		}
		return nil, nil, apperrors.Internal("Failed to retrieve calendar", err)
	}

	participants, err := s.participants.FindByCalendar(ctx, cal.ID)
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to retrieve participants", err)
	}

	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var overrides []*model.Availability
	var recurrences []*model.Recurrence
	var errOverrides, errRecurrences error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		overrides, errOverrides = s.availabilities.FindByParticipants(sharedCtx, ids)
	}()
	go func() {
		defer wg.Done()
		recurrences, errRecurrences = s.recurrences.FindByParticipants(sharedCtx, ids)
	}()

	wg.Wait()
	if errOverrides != nil {
		s.cfg.Log.Error("Failed to load availabilities", "calendar_id", cal.ID, "error", errOverrides)
		return nil, nil, apperrors.Internal("Failed to retrieve availabilities", errOverrides)
	}
	if errRecurrences != nil {
		s.cfg.Log.Error("Failed to load recurrences", "calendar_id", cal.ID, "error", errRecurrences)
		return nil, nil, apperrors.Internal("Failed to retrieve recurrences", errRecurrences)
	}

	recurrenceIDs := make([]string, 0, len(recurrences))
	for _, rec := range recurrences {
		recurrenceIDs = append(recurrenceIDs, rec.ID)
	}
	exceptions, err := s.recurrences.FindExceptionsByRecurrences(ctx, recurrenceIDs)
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to retrieve exceptions", err)
	}

	return cal, groupRecords(participants, overrides, recurrences, exceptions), nil
}

func (s *summaryService) checkRange(startDate, endDate string) error {
	if startDate == "" || endDate == "" {
		return apperrors.InvalidInput("start and end dates are required")
	}

	start, err := engine.ParseDate(startDate)
	if err != nil {
		return apperrors.InvalidInput("start must be a YYYY-MM-DD date")
	}
	end, err := engine.ParseDate(endDate)
	if err != nil {
		return apperrors.InvalidInput("end must be a YYYY-MM-DD date")
	}
	if end.Before(start) {
		return apperrors.InvalidInput("end must not be before start")
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if days > s.cfg.MaxSummaryRangeDays {
		return apperrors.InvalidInput("requested range is too large")
	}
	return nil
}

func (s *summaryService) translateEngineError(err error) error {
	if errors.Is(err, engine.ErrInvalidRange) || errors.Is(err, engine.ErrInvalidSlotSize) {
		return apperrors.InvalidInput(err.Error())
	}
	return apperrors.Internal("Failed to compute summary", err)
}

// groupRecords indexes the flat query results by participant.
func groupRecords(
	participants []*model.Participant,
	overrides []*model.Availability,
	recurrences []*model.Recurrence,
	exceptions []*model.RecurrenceException,
) []engine.ParticipantRecords {
	overridesBy := make(map[string][]model.Availability)
	for _, av := range overrides {
		overridesBy[av.ParticipantID] = append(overridesBy[av.ParticipantID], *av)
	}

	recurrencesBy := make(map[string][]model.Recurrence)
	for _, rec := range recurrences {
		recurrencesBy[rec.ParticipantID] = append(recurrencesBy[rec.ParticipantID], *rec)
	}

	exceptionsBy := make(map[string][]string)
	for _, ex := range exceptions {
		exceptionsBy[ex.RecurrenceID] = append(exceptionsBy[ex.RecurrenceID], ex.ExcludedDate)
	}

	records := make([]engine.ParticipantRecords, 0, len(participants))
	for _, p := range participants {
		records = append(records, engine.ParticipantRecords{
			Participant: *p,
			Recurrences: recurrencesBy[p.ID],
			Exceptions:  exceptionsBy,
			Overrides:   overridesBy[p.ID],
		})
	}
	return records
}
