package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                   int      `env:"PORT" envDefault:"8080"`
	DatabaseURL            string   `env:"DATABASE_URL,required"`
	RedisURL               string   `env:"REDIS_URL,required"`
	CORSAllowedOrigins     []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	EncryptionKey          string   `env:"ENCRYPTION_KEY"`
	LogLevel               string   `env:"LOG_LEVEL" envDefault:"info"`
	AnalyticsDegradeToZero bool     `env:"ANALYTICS_DEGRADE_TO_ZERO" envDefault:"false"`
	PIIRetentionDays       int      `env:"PII_RETENTION_DAYS" envDefault:"365"`
	RateLimitPerMin        int      `env:"RATE_LIMIT_PER_MIN" envDefault:"120"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// PIIRetention is how long a captured PII contact is kept before the
// retention job purges it.
func (c *Config) PIIRetention() time.Duration {
	return time.Duration(c.PIIRetentionDays) * 24 * time.Hour
}

func (c *Config) Validate(isProduction bool) error {
	if c.EncryptionKey != "" {
		key, err := hex.DecodeString(c.EncryptionKey)
		if err != nil || len(key) != 32 {
			return fmt.Errorf("ENCRYPTION_KEY must be 64 hex characters (generate with: openssl rand -hex 32)")
		}
	}

	if c.PIIRetentionDays <= 0 {
		return fmt.Errorf("PII_RETENTION_DAYS must be positive")
	}

	if isProduction {
		if c.EncryptionKey == "" {
			log.Warn().Msg("ENCRYPTION_KEY is empty in production: PII contact fields will not be encrypted at rest")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		for _, origin := range c.CORSAllowedOrigins {
			if origin == "*" {
				log.Warn().Msg("CORS_ALLOWED_ORIGINS is a wildcard in production")
			}
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
