// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Addr   string `env:"CHATGATE_ADDR" envDefault:":8080"`

	// Persistence. Empty values fall back to in-memory stores (dev/demo mode).
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	// Audit event publishing. Empty broker list keeps audit in-process.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic   string   `env:"AUDIT_TOPIC" envDefault:"chatgate.audit"`

	// Session tokens
	SessionSigningKey    string        `env:"SESSION_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionRefreshWindow time.Duration `env:"SESSION_REFRESH_WINDOW" envDefault:"6h"`
	SessionCookieName    string        `env:"SESSION_COOKIE" envDefault:"chatgate_session"`

	// Route classification and redirect targets
	ProtectedPrefixes []string `env:"PROTECTED_PREFIXES" envSeparator:"," envDefault:"/chat,/account"`
	AuthOnlyPrefixes  []string `env:"AUTH_ONLY_PREFIXES" envSeparator:"," envDefault:"/login,/signup"`
	SignInPath        string   `env:"SIGN_IN_PATH" envDefault:"/login"`
	LandingPath       string   `env:"LANDING_PATH" envDefault:"/chat"`

	// Quota. The period is a calendar day in QuotaTimezone; the timezone is
	// explicit configuration so midnight boundaries are never ambiguous.
	DailyCallLimit int    `env:"DAILY_CALL_LIMIT" envDefault:"50"`
	QuotaTimezone  string `env:"QUOTA_TIMEZONE" envDefault:"UTC"`

	// Bounded timeouts for the two blocking collaborators. Both fail closed.
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"3s"`
	StoreTimeout    time.Duration `env:"STORE_TIMEOUT" envDefault:"2s"`

	// Server lifecycle
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses environment variables and returns a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.DailyCallLimit <= 0 {
		return nil, fmt.Errorf("DAILY_CALL_LIMIT must be positive, got %d", cfg.DailyCallLimit)
	}
	if _, err := cfg.QuotaLocation(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// QuotaLocation resolves the configured quota timezone.
func (c *Config) QuotaLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.QuotaTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTA_TIMEZONE %q: %w", c.QuotaTimezone, err)
	}
	return loc, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
