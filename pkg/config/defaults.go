package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "fitbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	// The business operates in a single fixed timezone. All wall-clock
	// availability math happens in this zone; stored instants are UTC.
	DefaultBusinessTimezone = "America/New_York"

	DefaultSessionDurationMin        = 60
	DefaultLateCancelWindow          = 24 * time.Hour
	DefaultMaxSessionsPerSchedule    = 200
	DefaultMaxPreferencesPerSchedule = 10

	DefaultNotificationsEnabled = true
	DefaultNotificationTopic    = "notifications"
	DefaultNotificationDLQTopic = "dlq-notifications"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSlotLockTTL = 10 * time.Second

	DefaultPaginationLimit = 100
)
