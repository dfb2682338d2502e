package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "bokari"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultCalendarTimeout    = 10 * time.Second
	DefaultCalendarMaxRetries = 3

	DefaultLockTTL           = 5 * time.Minute
	DefaultLockSweepInterval = 1 * time.Minute

	DefaultSyncCacheTTL       = 30 * time.Second
	DefaultReconcileInterval  = 5 * time.Minute
	DefaultReconcileLookahead = 30 * 24 * time.Hour

	DefaultDefaultSlotDurationMin = 60
	DefaultTimeZone               = "UTC"

	// Empty recurrence rule means no fallback schedule: source outages
	// propagate to the caller instead.
	DefaultFallbackScheduleRRule = ""
	DefaultFallbackScheduleStart = "09:00"
	DefaultFallbackScheduleEnd   = "17:00"

	DefaultPersistRetries = 3

	DefaultIdempotencyTTL = 24 * time.Hour

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute
	DefaultMaxRequestSize    = 1 * 1024 * 1024 // 1MB

	DefaultRequestTimeout  = 30 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
