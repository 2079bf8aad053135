package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "atsumaru"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultHolidayAPIBaseURL = "https://date.nager.at/api/v3"
	DefaultHolidayAPITimeout = 5 * time.Second
	DefaultHolidayCacheSize  = 64
	DefaultHolidayCountry    = "JP"

	DefaultThreshold    = 2
	DefaultSlotMinutes  = 30
	MaxSummaryRangeDays = 366

	DefaultEventsEnabled = false
	DefaultEventsTopic   = "calendar-events"
)
