package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"atsumaru/pkg/client"
	"atsumaru/pkg/logger"
)

type Config struct {
	ServiceName string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	HolidayAPIBaseURL     string
	HolidayAPITimeout     time.Duration
	HolidayCacheSize      int
	DefaultHolidayCountry string

	DefaultThreshold    int
	DefaultSlotMinutes  int
	MaxSummaryRangeDays int

	EventsEnabled bool
	EventsTopic   string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		ServiceName: serviceName,

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		HolidayAPIBaseURL:     getEnvStr(EnvHolidayAPIBaseURL, DefaultHolidayAPIBaseURL),
		HolidayAPITimeout:     getEnvDuration(EnvHolidayAPITimeout, DefaultHolidayAPITimeout),
		HolidayCacheSize:      getEnvNum(EnvHolidayCacheSize, DefaultHolidayCacheSize),
		DefaultHolidayCountry: getEnvStr(EnvDefaultHolidayCountry, DefaultHolidayCountry),

		DefaultThreshold:    getEnvNum(EnvDefaultThreshold, DefaultThreshold),
		DefaultSlotMinutes:  getEnvNum(EnvDefaultSlotMinutes, DefaultSlotMinutes),
		MaxSummaryRangeDays: getEnvNum(EnvMaxSummaryRangeDays, MaxSummaryRangeDays),

		EventsEnabled: getEnvBool(EnvEventsEnabled, DefaultEventsEnabled),
		EventsTopic:   getEnvStr(EnvEventsTopic, DefaultEventsTopic),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}
	if cfg.MongoURI == "" {
		problems = append(problems, "MongoURI must not be empty")
	}
	if cfg.MongoDatabaseName == "" {
		problems = append(problems, "MongoDatabaseName must not be empty")
	}
	if cfg.DefaultThreshold < 1 {
		problems = append(problems, fmt.Sprintf("DefaultThreshold must be at least 1, got: %d", cfg.DefaultThreshold))
	}
	if cfg.DefaultSlotMinutes < 5 || cfg.DefaultSlotMinutes > 240 {
		problems = append(problems, fmt.Sprintf("DefaultSlotMinutes must be between 5 and 240, got: %d", cfg.DefaultSlotMinutes))
	}
	if cfg.MaxSummaryRangeDays < 1 {
		problems = append(problems, fmt.Sprintf("MaxSummaryRangeDays must be at least 1, got: %d", cfg.MaxSummaryRangeDays))
	}
	countryRegex := regexp.MustCompile(`^[A-Z]{2}$`)
	if !countryRegex.MatchString(cfg.DefaultHolidayCountry) {
		problems = append(problems, fmt.Sprintf("DefaultHolidayCountry must be an ISO 3166-1 alpha-2 code, got: %s", cfg.DefaultHolidayCountry))
	}

	if len(problems) > 0 {
		errMsg := "Configuration validation failed:"
		for _, p := range problems {
			errMsg += "\n  - " + p
		}
		return fmt.Errorf("%s", errMsg)
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"holiday_api_base_url", cfg.HolidayAPIBaseURL,
		"holiday_api_timeout", cfg.HolidayAPITimeout,
		"holiday_cache_size", cfg.HolidayCacheSize,
		"default_holiday_country", cfg.DefaultHolidayCountry,
		"default_threshold", cfg.DefaultThreshold,
		"default_slot_minutes", cfg.DefaultSlotMinutes,
		"max_summary_range_days", cfg.MaxSummaryRangeDays,
		"events_enabled", cfg.EventsEnabled,
		"events_topic", cfg.EventsTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}
