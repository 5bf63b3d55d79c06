package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	SLA          SLAConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token parameters for the admin/user API surface.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// SLAPolicyConfig holds per-priority SLA targets in minutes.
type SLAPolicyConfig struct {
	ResponseMinutes   int
	ResolutionMinutes int
}

// SLAConfig drives the clock, detector and scheduler.
type SLAConfig struct {
	Urgent SLAPolicyConfig
	High   SLAPolicyConfig
	Medium SLAPolicyConfig
	Low    SLAPolicyConfig

	WarningRatio        float64
	ScanIntervalSeconds int
	StopGraceSeconds    int
}

// NotificationConfig holds channel endpoints and timeouts.
type NotificationConfig struct {
	EmailFrom          string
	SMTPAddr           string
	SMTPUser           string
	SMTPPassword       string
	WebhookURL         string
	ChannelTimeoutSecs int
	InAppMaxPerUser    int
	InAppTTLHours      int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	warningRatio, err := strconv.ParseFloat(getEnv("SLA_WARNING_RATIO", "0.75"), 64)
	if err != nil || warningRatio <= 0 || warningRatio >= 1 {
		return nil, fmt.Errorf("invalid SLA_WARNING_RATIO: %q", getEnv("SLA_WARNING_RATIO", "0.75"))
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "sla-monitor"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		SLA: SLAConfig{
			Urgent: SLAPolicyConfig{
				ResponseMinutes:   getEnvAsInt("SLA_URGENT_RESPONSE_MINUTES", 60),
				ResolutionMinutes: getEnvAsInt("SLA_URGENT_RESOLUTION_MINUTES", 240),
			},
			High: SLAPolicyConfig{
				ResponseMinutes:   getEnvAsInt("SLA_HIGH_RESPONSE_MINUTES", 240),
				ResolutionMinutes: getEnvAsInt("SLA_HIGH_RESOLUTION_MINUTES", 1440),
			},
			Medium: SLAPolicyConfig{
				ResponseMinutes:   getEnvAsInt("SLA_MEDIUM_RESPONSE_MINUTES", 480),
				ResolutionMinutes: getEnvAsInt("SLA_MEDIUM_RESOLUTION_MINUTES", 4320),
			},
			Low: SLAPolicyConfig{
				ResponseMinutes:   getEnvAsInt("SLA_LOW_RESPONSE_MINUTES", 1440),
				ResolutionMinutes: getEnvAsInt("SLA_LOW_RESOLUTION_MINUTES", 10080),
			},
			WarningRatio:        warningRatio,
			ScanIntervalSeconds: getEnvAsInt("SLA_SCAN_INTERVAL_SECONDS", 60),
			StopGraceSeconds:    getEnvAsInt("SLA_STOP_GRACE_SECONDS", 30),
		},
		Notification: NotificationConfig{
			EmailFrom:          getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			SMTPAddr:           getEnv("NOTIFY_SMTP_ADDR", "127.0.0.1:25"),
			SMTPUser:           os.Getenv("NOTIFY_SMTP_USER"),
			SMTPPassword:       os.Getenv("NOTIFY_SMTP_PASSWORD"),
			WebhookURL:         getEnv("NOTIFY_WEBHOOK_URL", ""),
			ChannelTimeoutSecs: getEnvAsInt("NOTIFY_CHANNEL_TIMEOUT_SECONDS", 10),
			InAppMaxPerUser:    getEnvAsInt("NOTIFY_INAPP_MAX_PER_USER", 200),
			InAppTTLHours:      getEnvAsInt("NOTIFY_INAPP_TTL_HOURS", 720),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ScanInterval returns the scheduler cadence.
func (s SLAConfig) ScanInterval() time.Duration {
	if s.ScanIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(s.ScanIntervalSeconds) * time.Second
}

// StopGrace returns how long shutdown waits for an in-flight scan.
func (s SLAConfig) StopGrace() time.Duration {
	if s.StopGraceSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.StopGraceSeconds) * time.Second
}

// ChannelTimeout bounds a single channel delivery call.
func (n NotificationConfig) ChannelTimeout() time.Duration {
	if n.ChannelTimeoutSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.ChannelTimeoutSecs) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
