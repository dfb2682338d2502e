package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvCalendarBaseURL    = "CALENDAR_BASE_URL"
	EnvCalendarAPIKey     = "CALENDAR_API_KEY"
	EnvCalendarTimeout    = "CALENDAR_TIMEOUT"
	EnvCalendarMaxRetries = "CALENDAR_MAX_RETRIES"

	EnvLockTTL           = "SLOT_LOCK_TTL"
	EnvLockSweepInterval = "SLOT_LOCK_SWEEP_INTERVAL"

	EnvSyncCacheTTL       = "SYNC_CACHE_TTL"
	EnvReconcileInterval  = "RECONCILE_INTERVAL"
	EnvReconcileLookahead = "RECONCILE_LOOKAHEAD"

	EnvDefaultSlotDurationMin = "DEFAULT_SLOT_DURATION_MIN"
	EnvTimeZone               = "TIME_ZONE"

	EnvFallbackScheduleRRule = "FALLBACK_SCHEDULE_RRULE"
	EnvFallbackScheduleStart = "FALLBACK_SCHEDULE_START"
	EnvFallbackScheduleEnd   = "FALLBACK_SCHEDULE_END"

	EnvPersistRetries = "PERSIST_RETRIES"

	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"
	EnvMaxRequestSize    = "MAX_REQUEST_SIZE"

	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
