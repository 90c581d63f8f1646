// Package appconfig loads the authd process configuration from AUTH_*
// environment variables.
package appconfig

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/MrEthical07/authcore"
)

// Prefix is prepended to every variable name.
const Prefix = "AUTH_"

// Config is the process configuration of cmd/authd.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// CORSOrigins lists browser origins allowed to call the API. Empty
	// disables CORS headers.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	JWT      JWT      `envPrefix:"JWT_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	Database Database `envPrefix:"DATABASE_"`
	Kafka    Kafka    `envPrefix:"KAFKA_"`
	Security Security

	// Durations use the compact engine form ("900", "15m", "7d").
	AccessTokenExpiresIn  string `env:"ACCESS_TOKEN_EXPIRES_IN" envDefault:"15m"`
	RefreshTokenExpiresIn string `env:"REFRESH_TOKEN_EXPIRES_IN" envDefault:"7d"`

	KeyNamespace string `env:"KEY_NAMESPACE"`
	OTELEndpoint string `env:"OTEL_ENDPOINT"`
	AuditEnabled bool   `env:"AUDIT_ENABLED" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// JWT holds signing material.
type JWT struct {
	Secret string `env:"SECRET,required,notEmpty"`
	Issuer string `env:"ISSUER"`
}

// Redis locates the ephemeral store.
type Redis struct {
	URL        string `env:"URL" envDefault:"redis://localhost:6379/0"`
	MaxRetries int    `env:"MAX_RETRIES" envDefault:"3"`
}

// Database selects the user directory: memory, sqlite or postgres.
type Database struct {
	Driver string `env:"DRIVER" envDefault:"memory"`
	DSN    string `env:"DSN"`
}

// Kafka enables the Kafka notifier when Brokers is set.
type Kafka struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"authcore.notifications"`
}

// Security mirrors the opt-in attempt limits.
type Security struct {
	MaxOTPAttempts   int `env:"MAX_OTP_ATTEMPTS" envDefault:"0"`
	MaxLoginAttempts int `env:"MAX_LOGIN_ATTEMPTS" envDefault:"0"`
}

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom reads vars instead of the process environment. Keys carry the
// AUTH_ prefix.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the engine would otherwise accept silently.
func (c Config) Validate() error {
	var errs []error
	if len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be at least 32 bytes"))
	}
	switch strings.ToLower(c.Database.Driver) {
	case "memory":
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("AUTH_DATABASE_DSN is required for driver %q", c.Database.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported AUTH_DATABASE_DRIVER %q", c.Database.Driver))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported AUTH_LOG_FORMAT %q", c.LogFormat))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("AUTH_KAFKA_TOPIC is required when brokers are set"))
	}
	return errors.Join(errs...)
}

// Engine returns the engine configuration derived from c.
func (c Config) Engine() authcore.Config {
	cfg := authcore.DefaultConfig()
	cfg.JWT.Secret = []byte(c.JWT.Secret)
	cfg.JWT.Issuer = c.JWT.Issuer
	cfg.JWT.AccessExpiresIn = c.AccessTokenExpiresIn
	cfg.JWT.RefreshExpiresIn = c.RefreshTokenExpiresIn
	cfg.Keys.Namespace = c.KeyNamespace
	cfg.Store.MaxRetries = c.Redis.MaxRetries
	cfg.Security.MaxOTPAttempts = c.Security.MaxOTPAttempts
	cfg.Security.MaxLoginAttempts = c.Security.MaxLoginAttempts
	cfg.Audit.Enabled = c.AuditEnabled
	return cfg
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unsupported AUTH_LOG_LEVEL %q", s)
	}
	return level, nil
}
