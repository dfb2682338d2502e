package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bokari/pkg/logger"
)

// Config is the single typed configuration struct for the engine. It is
// loaded and validated once at startup; subsystems receive it by reference
// and never read the environment themselves.
type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	CalendarBaseURL    string
	CalendarAPIKey     string
	CalendarTimeout    time.Duration
	CalendarMaxRetries int

	LockTTL           time.Duration
	LockSweepInterval time.Duration

	SyncCacheTTL       time.Duration
	ReconcileInterval  time.Duration
	ReconcileLookahead time.Duration

	DefaultSlotDurationMin int
	TimeZone               string
	Location               *time.Location

	FallbackScheduleRRule string
	FallbackScheduleStart string
	FallbackScheduleEnd   string

	PersistRetries int

	IdempotencyTTL time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration
	MaxRequestSize    int

	RequestTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log *logger.Logger
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		CalendarBaseURL:    getEnvStr(EnvCalendarBaseURL, ""),
		CalendarAPIKey:     getEnvStr(EnvCalendarAPIKey, ""),
		CalendarTimeout:    getEnvDuration(EnvCalendarTimeout, DefaultCalendarTimeout),
		CalendarMaxRetries: getEnvNum(EnvCalendarMaxRetries, DefaultCalendarMaxRetries),

		LockTTL:           getEnvDuration(EnvLockTTL, DefaultLockTTL),
		LockSweepInterval: getEnvDuration(EnvLockSweepInterval, DefaultLockSweepInterval),

		SyncCacheTTL:       getEnvDuration(EnvSyncCacheTTL, DefaultSyncCacheTTL),
		ReconcileInterval:  getEnvDuration(EnvReconcileInterval, DefaultReconcileInterval),
		ReconcileLookahead: getEnvDuration(EnvReconcileLookahead, DefaultReconcileLookahead),

		DefaultSlotDurationMin: getEnvNum(EnvDefaultSlotDurationMin, DefaultDefaultSlotDurationMin),
		TimeZone:               getEnvStr(EnvTimeZone, DefaultTimeZone),

		FallbackScheduleRRule: getEnvStr(EnvFallbackScheduleRRule, DefaultFallbackScheduleRRule),
		FallbackScheduleStart: getEnvStr(EnvFallbackScheduleStart, DefaultFallbackScheduleStart),
		FallbackScheduleEnd:   getEnvStr(EnvFallbackScheduleEnd, DefaultFallbackScheduleEnd),

		PersistRetries: getEnvNum(EnvPersistRetries, DefaultPersistRetries),

		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),
		MaxRequestSize:    getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		RequestTimeout:  getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.FormatJSON,
			AddSource: true,
			Service:   serviceName,
		}),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		problems = append(problems, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		problems = append(problems, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		problems = append(problems, "MongoDatabaseName cannot be empty")
	}

	if cfg.CalendarBaseURL == "" {
		problems = append(problems, "CalendarBaseURL cannot be empty")
	} else if !strings.HasPrefix(cfg.CalendarBaseURL, "http://") && !strings.HasPrefix(cfg.CalendarBaseURL, "https://") {
		problems = append(problems, fmt.Sprintf("CalendarBaseURL must be an http(s) URL, got: %s", cfg.CalendarBaseURL))
	}
	if cfg.CalendarMaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("CalendarMaxRetries cannot be negative, got: %d", cfg.CalendarMaxRetries))
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		problems = append(problems, fmt.Sprintf("TimeZone is not a valid IANA zone, got: %s", cfg.TimeZone))
	} else {
		cfg.Location = loc
	}

	if cfg.DefaultSlotDurationMin <= 0 {
		problems = append(problems, fmt.Sprintf("DefaultSlotDurationMin must be positive, got: %d", cfg.DefaultSlotDurationMin))
	}
	if cfg.FallbackScheduleRRule != "" {
		for name, value := range map[string]string{
			"FallbackScheduleStart": cfg.FallbackScheduleStart,
			"FallbackScheduleEnd":   cfg.FallbackScheduleEnd,
		} {
			if _, err := time.Parse("15:04", value); err != nil {
				problems = append(problems, fmt.Sprintf("%s must be HH:MM, got: %s", name, value))
			}
		}
	}
	if cfg.PersistRetries < 1 {
		problems = append(problems, fmt.Sprintf("PersistRetries must be at least 1, got: %d", cfg.PersistRetries))
	}
	if cfg.RateLimitRequests <= 0 {
		problems = append(problems, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		problems = append(problems, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	for name, d := range map[string]time.Duration{
		"MongoConnTimeout":   cfg.MongoConnTimeout,
		"CalendarTimeout":    cfg.CalendarTimeout,
		"LockTTL":            cfg.LockTTL,
		"LockSweepInterval":  cfg.LockSweepInterval,
		"SyncCacheTTL":       cfg.SyncCacheTTL,
		"ReconcileInterval":  cfg.ReconcileInterval,
		"ReconcileLookahead": cfg.ReconcileLookahead,
		"IdempotencyTTL":     cfg.IdempotencyTTL,
		"RateLimitWindow":    cfg.RateLimitWindow,
		"RequestTimeout":     cfg.RequestTimeout,
		"ReadTimeout":        cfg.ReadTimeout,
		"WriteTimeout":       cfg.WriteTimeout,
		"IdleTimeout":        cfg.IdleTimeout,
		"ShutdownTimeout":    cfg.ShutdownTimeout,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if len(problems) > 0 {
		msg := "Configuration validation failed:\n"
		for i, p := range problems {
			msg += fmt.Sprintf("  %d. %s\n", i+1, p)
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"calendar_base_url", cfg.CalendarBaseURL,
		"calendar_api_key_set", cfg.CalendarAPIKey != "",
		"calendar_timeout", cfg.CalendarTimeout,
		"calendar_max_retries", cfg.CalendarMaxRetries,
		"lock_ttl", cfg.LockTTL,
		"lock_sweep_interval", cfg.LockSweepInterval,
		"sync_cache_ttl", cfg.SyncCacheTTL,
		"reconcile_interval", cfg.ReconcileInterval,
		"reconcile_lookahead", cfg.ReconcileLookahead,
		"default_slot_duration_min", cfg.DefaultSlotDurationMin,
		"time_zone", cfg.TimeZone,
		"fallback_schedule_enabled", cfg.FallbackScheduleRRule != "",
		"persist_retries", cfg.PersistRetries,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"max_request_size", cfg.MaxRequestSize,
		"request_timeout", cfg.RequestTimeout,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
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
