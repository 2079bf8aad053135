package service

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"atsumaru/pkg/config"
	mongotx "atsumaru/pkg/db/mongo"
	"atsumaru/pkg/kafka"
	"atsumaru/pkg/logger"
	"atsumaru/pkg/model"
)

// Mock repositories for testing

type mockCalendarRepository struct {
	createFunc         func(ctx context.Context, cal *model.Calendar) error
	findByIDFunc       func(ctx context.Context, id string) (*model.Calendar, error)
	findByTokenFunc    func(ctx context.Context, token string) (*model.Calendar, error)
	updateSettingsFunc func(ctx context.Context, id string, cal *model.Calendar) error
	deleteFunc         func(ctx context.Context, id string) error
}

func (m *mockCalendarRepository) Create(ctx context.Context, cal *model.Calendar) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, cal)
	}
	cal.ID = "65f000000000000000000001"
	return nil
}

func (m *mockCalendarRepository) FindByID(ctx context.Context, id string) (*model.Calendar, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockCalendarRepository) FindByToken(ctx context.Context, token string) (*model.Calendar, error) {
	if m.findByTokenFunc != nil {
		return m.findByTokenFunc(ctx, token)
	}
	return nil, nil
}

func (m *mockCalendarRepository) UpdateSettings(ctx context.Context, id string, cal *model.Calendar) error {
	if m.updateSettingsFunc != nil {
		return m.updateSettingsFunc(ctx, id, cal)
	}
	return nil
}

func (m *mockCalendarRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockCalendarRepository) Count(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockCalendarRepository) EnsureIndexes(ctx context.Context) error { return nil }

func (m *mockCalendarRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.SessionContext(nil))
}

type mockParticipantRepository struct {
	createFunc           func(ctx context.Context, p *model.Participant) error
	findByIDFunc         func(ctx context.Context, id string) (*model.Participant, error)
	findByCalendarFunc   func(ctx context.Context, calendarID string) ([]*model.Participant, error)
	deleteFunc           func(ctx context.Context, id string) error
	countByCalendarFunc  func(ctx context.Context, calendarID string) (int64, error)
	deleteByCalendarFunc func(ctx context.Context, calendarID string) (int64, error)
}

func (m *mockParticipantRepository) Create(ctx context.Context, p *model.Participant) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	p.ID = "65f000000000000000000020"
	return nil
}

func (m *mockParticipantRepository) FindByID(ctx context.Context, id string) (*model.Participant, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockParticipantRepository) FindByCalendar(ctx context.Context, calendarID string) ([]*model.Participant, error) {
	if m.findByCalendarFunc != nil {
		return m.findByCalendarFunc(ctx, calendarID)
	}
	return nil, nil
}

func (m *mockParticipantRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockParticipantRepository) DeleteByCalendar(ctx context.Context, calendarID string) (int64, error) {
	if m.deleteByCalendarFunc != nil {
		return m.deleteByCalendarFunc(ctx, calendarID)
	}
	return 0, nil
}

func (m *mockParticipantRepository) CountByCalendar(ctx context.Context, calendarID string) (int64, error) {
	if m.countByCalendarFunc != nil {
		return m.countByCalendarFunc(ctx, calendarID)
	}
	return 0, nil
}

func (m *mockParticipantRepository) EnsureIndexes(ctx context.Context) error { return nil }

func (m *mockParticipantRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.SessionContext(nil))
}

type mockAvailabilityRepository struct {
	createFunc              func(ctx context.Context, av *model.Availability) error
	findByIDFunc            func(ctx context.Context, id string) (*model.Availability, error)
	findByParticipantsFunc  func(ctx context.Context, ids []string) ([]*model.Availability, error)
	updateFunc              func(ctx context.Context, id string, av *model.Availability) error
	deleteFunc              func(ctx context.Context, id string) error
	deleteByParticipantFunc func(ctx context.Context, participantID string) (int64, error)
}

func (m *mockAvailabilityRepository) Create(ctx context.Context, av *model.Availability) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, av)
	}
	av.ID = "65f000000000000000000030"
	return nil
}

func (m *mockAvailabilityRepository) FindByID(ctx context.Context, id string) (*model.Availability, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAvailabilityRepository) FindByParticipant(ctx context.Context, participantID string) ([]*model.Availability, error) {
	return nil, nil
}

func (m *mockAvailabilityRepository) FindByParticipants(ctx context.Context, ids []string) ([]*model.Availability, error) {
	if m.findByParticipantsFunc != nil {
		return m.findByParticipantsFunc(ctx, ids)
	}
	return nil, nil
}

func (m *mockAvailabilityRepository) Update(ctx context.Context, id string, av *model.Availability) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, av)
	}
	return nil
}

func (m *mockAvailabilityRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockAvailabilityRepository) DeleteByParticipant(ctx context.Context, participantID string) (int64, error) {
	if m.deleteByParticipantFunc != nil {
		return m.deleteByParticipantFunc(ctx, participantID)
	}
	return 0, nil
}

func (m *mockAvailabilityRepository) EnsureIndexes(ctx context.Context) error { return nil }

func (m *mockAvailabilityRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.SessionContext(nil))
}

type mockRecurrenceRepository struct {
	createFunc                        func(ctx context.Context, rec *model.Recurrence) error
	findByIDFunc                      func(ctx context.Context, id string) (*model.Recurrence, error)
	findByParticipantsFunc            func(ctx context.Context, ids []string) ([]*model.Recurrence, error)
	deleteFunc                        func(ctx context.Context, id string) error
	deleteByParticipantFunc           func(ctx context.Context, participantID string) ([]string, error)
	createExceptionFunc               func(ctx context.Context, ex *model.RecurrenceException) error
	deleteExceptionFunc               func(ctx context.Context, recurrenceID, excludedDate string) error
	findExceptionsByRecurrencesFunc   func(ctx context.Context, ids []string) ([]*model.RecurrenceException, error)
	deleteExceptionsByRecurrencesFunc func(ctx context.Context, ids []string) (int64, error)
}

func (m *mockRecurrenceRepository) Create(ctx context.Context, rec *model.Recurrence) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, rec)
	}
	rec.ID = "65f000000000000000000040"
	return nil
}

func (m *mockRecurrenceRepository) FindByID(ctx context.Context, id string) (*model.Recurrence, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockRecurrenceRepository) FindByParticipant(ctx context.Context, participantID string) ([]*model.Recurrence, error) {
	return nil, nil
}

func (m *mockRecurrenceRepository) FindByParticipants(ctx context.Context, ids []string) ([]*model.Recurrence, error) {
	if m.findByParticipantsFunc != nil {
		return m.findByParticipantsFunc(ctx, ids)
	}
	return nil, nil
}

func (m *mockRecurrenceRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockRecurrenceRepository) DeleteByParticipant(ctx context.Context, participantID string) ([]string, error) {
	if m.deleteByParticipantFunc != nil {
		return m.deleteByParticipantFunc(ctx, participantID)
	}
	return nil, nil
}

func (m *mockRecurrenceRepository) CreateException(ctx context.Context, ex *model.RecurrenceException) error {
	if m.createExceptionFunc != nil {
		return m.createExceptionFunc(ctx, ex)
	}
	ex.ID = "65f000000000000000000050"
	return nil
}

func (m *mockRecurrenceRepository) DeleteException(ctx context.Context, recurrenceID, excludedDate string) error {
	if m.deleteExceptionFunc != nil {
		return m.deleteExceptionFunc(ctx, recurrenceID, excludedDate)
	}
	return nil
}

func (m *mockRecurrenceRepository) FindExceptionsByRecurrences(ctx context.Context, ids []string) ([]*model.RecurrenceException, error) {
	if m.findExceptionsByRecurrencesFunc != nil {
		return m.findExceptionsByRecurrencesFunc(ctx, ids)
	}
	return nil, nil
}

func (m *mockRecurrenceRepository) DeleteExceptionsByRecurrences(ctx context.Context, ids []string) (int64, error) {
	if m.deleteExceptionsByRecurrencesFunc != nil {
		return m.deleteExceptionsByRecurrencesFunc(ctx, ids)
	}
	return 0, nil
}

func (m *mockRecurrenceRepository) EnsureIndexes(ctx context.Context) error { return nil }

func (m *mockRecurrenceRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.SessionContext(nil))
}

type mockPublisher struct {
	messages []kafka.Message
	err      error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                 logger.New(logger.Config{Output: io.Discard}),
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        5 * time.Second,
		DefaultThreshold:    2,
		DefaultSlotMinutes:  30,
		MaxSummaryRangeDays: 366,
	}
}

func testCalendarRecord() *model.Calendar {
	return &model.Calendar{
		ID:              "65f000000000000000000001",
		Token:           "cal-token-1234",
		Title:           "Book club",
		Threshold:       2,
		AllowedWeekdays: []model.Weekday{1, 2, 3, 4, 5},
		HolidaysPolicy:  model.HolidaysIgnore,
	}
}
