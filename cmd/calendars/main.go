package main

import (
	"context"

	"atsumaru/internal/calendars/handler"
	"atsumaru/internal/calendars/repository"
	"atsumaru/internal/calendars/service"
	"atsumaru/internal/calendars/validator"
	"atsumaru/internal/engine"
	"atsumaru/internal/holiday"
	"atsumaru/pkg/app"
	"atsumaru/pkg/config"
	"atsumaru/pkg/kafka"
	kafka_config "atsumaru/pkg/kafka/config"
)

const ServiceName = "calendars"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Calendars service")
	serverApp := app.NewApplication(cfg)
	calendarHandler := initServices(cfg, serverApp)
	serverApp.SetApp(calendarHandler)
	serverApp.Run()
}

func initServices(cfg *config.Config, serverApp *app.Application) *handler.CalendarHandler {
	calendarValidator := validator.NewCalendarValidator(cfg.Log)

	calendarRepo := repository.NewMongoCalendarRepository(cfg)
	participantRepo := repository.NewMongoParticipantRepository(cfg)
	availabilityRepo := repository.NewMongoAvailabilityRepository(cfg)
	recurrenceRepo := repository.NewMongoRecurrenceRepository(cfg)
	ensureIndexes(cfg, calendarRepo, participantRepo, availabilityRepo, recurrenceRepo)

	holidaySource := holiday.NewAPIProvider(cfg.HolidayAPIBaseURL, cfg.HolidayAPITimeout, cfg.Log)
	holidayProvider, err := holiday.NewCachedProvider(holidaySource, cfg.HolidayCacheSize, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize holiday cache", "error", err)
	}

	policy := engine.NewPolicyResolver(holidayProvider, cfg.DefaultHolidayCountry, cfg.Log)
	expander := engine.NewExpander(policy, cfg.Log)
	aggregator := engine.NewAggregator(policy, expander, cfg.Log)

	publisher := initPublisher(cfg, serverApp)

	calendarService := service.NewCalendarService(
		calendarRepo, participantRepo, availabilityRepo, recurrenceRepo,
		calendarValidator, publisher, cfg,
	)
	participantService := service.NewParticipantService(
		calendarRepo, participantRepo, availabilityRepo, recurrenceRepo,
		calendarValidator, publisher, cfg,
	)
	availabilityService := service.NewAvailabilityService(
		calendarRepo, participantRepo, availabilityRepo, recurrenceRepo,
		calendarValidator, policy, publisher, cfg,
	)
	summaryService := service.NewSummaryService(
		calendarRepo, participantRepo, availabilityRepo, recurrenceRepo,
		aggregator, cfg,
	)

	cfg.Log.Info("Calendars service initialized", "database", cfg.MongoDatabaseName)
	return handler.NewCalendarHandler(
		calendarService, participantService, availabilityService, summaryService, cfg.Log,
	)
}

// initPublisher builds the Kafka producer when change events are enabled.
// A nil publisher disables event emission entirely.
func initPublisher(cfg *config.Config, serverApp *app.Application) service.EventPublisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Change events disabled")
		return nil
	}

	producer, err := kafka.NewProducer(kafka_config.Load(), cfg.EventsTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "topic", cfg.EventsTopic, "error", err)
	}
	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})

	cfg.Log.Info("Change events enabled", "topic", cfg.EventsTopic)
	return producer
}

func ensureIndexes(cfg *config.Config, repos ...interface {
	EnsureIndexes(ctx context.Context) error
}) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()

	for _, repo := range repos {
		if err := repo.EnsureIndexes(ctx); err != nil {
			cfg.Log.Fatal("Failed to ensure indexes", "error", err)
		}
	}
}
