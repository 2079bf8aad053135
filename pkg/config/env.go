package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvHolidayAPIBaseURL     = "HOLIDAY_API_BASE_URL"
	EnvHolidayAPITimeout     = "HOLIDAY_API_TIMEOUT"
	EnvHolidayCacheSize      = "HOLIDAY_CACHE_SIZE"
	EnvDefaultHolidayCountry = "DEFAULT_HOLIDAY_COUNTRY"

	EnvDefaultThreshold    = "DEFAULT_THRESHOLD"
	EnvDefaultSlotMinutes  = "DEFAULT_SLOT_MINUTES"
	EnvMaxSummaryRangeDays = "MAX_SUMMARY_RANGE_DAYS"

	EnvEventsEnabled = "EVENTS_ENABLED"
	EnvEventsTopic   = "EVENTS_TOPIC"
)
