package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all application configuration
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"local"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// MetricsAddr is the listen address for the /metrics endpoint. Empty
	// disables the listener.
	MetricsAddr string `env:"METRICS_ADDR" envDefault:""`

	// Database settings
	Database DatabaseConfig

	// Redis settings (job queue store)
	Redis RedisConfig

	// Job queue settings
	Jobs JobsConfig

	// Email configuration
	Email EmailConfig

	// Digest notifier configuration
	Digest DigestConfig

	// Scheduler configuration
	Scheduler SchedulerConfig

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port         int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User         string        `env:"POSTGRES_USER" envDefault:"yardline"`
	Password     string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database     string        `env:"POSTGRES_DB" envDefault:"yardline"`
	SSLMode      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`
	MaxIdleTime  time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
	QueryDebug   bool          `env:"DB_QUERY_DEBUG" envDefault:"false"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// RedisConfig holds the queue store connection settings
type RedisConfig struct {
	// Addr is the Redis host:port. Empty means Redis is not configured and
	// the in-memory queue store is used instead.
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	// KeyPrefix namespaces every queue key so multiple deployments can share
	// one Redis instance.
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"yardline:jobs"`
}

// IsConfigured returns true if a Redis address is set
func (r *RedisConfig) IsConfigured() bool {
	return r.Addr != ""
}

// JobsConfig holds job queue behavior settings
type JobsConfig struct {
	// DefaultMaxAttempts is the attempt cap applied when an enqueue does not
	// specify one (default: 3)
	DefaultMaxAttempts int `env:"JOBS_DEFAULT_MAX_ATTEMPTS" envDefault:"3"`
	// EnvelopeTTL is how long a persisted envelope survives before the store
	// expires it (default: 168h = 7 days)
	EnvelopeTTL time.Duration `env:"JOBS_ENVELOPE_TTL" envDefault:"168h"`
	// DrainBatchSize is the number of jobs pulled per worker pass (default: 10)
	DrainBatchSize int `env:"JOBS_DRAIN_BATCH_SIZE" envDefault:"10"`
	// DrainInterval is how often the worker polls the queue (default: 5s)
	DrainInterval time.Duration `env:"JOBS_DRAIN_INTERVAL" envDefault:"5s"`
	// LinkCheckTimeout bounds the image reachability probe (default: 5s)
	LinkCheckTimeout time.Duration `env:"JOBS_LINK_CHECK_TIMEOUT" envDefault:"5s"`
}

// EmailConfig holds email service configuration
type EmailConfig struct {
	// Enabled determines if email sending is enabled
	Enabled bool `env:"EMAIL_ENABLED" envDefault:"false"`
	// MailgunDomain is the Mailgun domain
	MailgunDomain string `env:"MAILGUN_DOMAIN" envDefault:""`
	// MailgunAPIKey is the Mailgun API key
	MailgunAPIKey string `env:"MAILGUN_API_KEY" envDefault:""`
	// FromEmail is the default from email address
	FromEmail string `env:"EMAIL_FROM_ADDRESS" envDefault:"hello@yardline.app"`
	// FromName is the default from name
	FromName string `env:"EMAIL_FROM_NAME" envDefault:"Yardline"`
}

// IsConfigured returns true if Mailgun is configured
func (e *EmailConfig) IsConfigured() bool {
	return e.MailgunDomain != "" && e.MailgunAPIKey != ""
}

// DigestConfig holds the digest notifier settings
type DigestConfig struct {
	// StartingSoonEnabled gates the starting-soon favorites digest
	StartingSoonEnabled bool `env:"FEATURE_STARTING_SOON_DIGEST" envDefault:"false"`
	// StartingSoonHours is how far ahead of a sale's start the digest looks
	StartingSoonHours int `env:"STARTING_SOON_HOURS" envDefault:"24"`
}

// StartingSoonWindow returns the look-ahead window as a Duration
func (d *DigestConfig) StartingSoonWindow() time.Duration {
	return time.Duration(d.StartingSoonHours) * time.Hour
}

// SchedulerConfig holds the periodic trigger settings
type SchedulerConfig struct {
	// Enabled controls whether the cron triggers run in this process
	Enabled bool `env:"SCHEDULER_ENABLED" envDefault:"true"`
	// Cron expressions, standard five-field format
	DailyRollupSchedule   string `env:"SCHEDULE_DAILY_ROLLUP" envDefault:"10 3 * * *"`
	StartingSoonSchedule  string `env:"SCHEDULE_STARTING_SOON" envDefault:"*/15 * * * *"`
	WeeklyDigestSchedule  string `env:"SCHEDULE_WEEKLY_DIGEST" envDefault:"0 8 * * 1"`
	OrphanCleanupSchedule string `env:"SCHEDULE_ORPHAN_CLEANUP" envDefault:"0 * * * *"`
}

// NewConfig loads configuration from environment variables
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.Bool("redis_configured", cfg.Redis.IsConfigured()),
		slog.Bool("email_enabled", cfg.Email.Enabled),
		slog.Bool("starting_soon_digest", cfg.Digest.StartingSoonEnabled),
	)

	return cfg, nil
}
