package config

import "time"

const (
	DBPingTimeout = 5 * time.Second

	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 60 * time.Second
	ServerRequestTimeout  = 30 * time.Second
	ServerShutdownTimeout = 10 * time.Second

	// RetentionJobInterval is how often expired PII contacts are purged.
	RetentionJobInterval = 1 * time.Hour

	// MaxBodySize caps submission payloads; a full record with topic
	// details fits well under 1MB.
	MaxBodySize = 1 << 20
)
