package authcore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/ephemeral"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
)

// Config is the full engine configuration. Build it from DefaultConfig and
// override fields; the Builder clones it, so later edits have no effect.
type Config struct {
	JWT       JWTConfig
	Password  PasswordConfig
	Keys      KeysConfig
	Challenge ChallengeConfig
	Security  SecurityConfig
	Store     StoreConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds token lifetimes and signing material.
//
// Lifetimes use the compact duration form parsed by ParseDurationSeconds:
// "900", "15m", "7d". A string that does not parse yields a zero lifetime,
// which Lint reports.
type JWTConfig struct {
	AccessExpiresIn  string
	RefreshExpiresIn string
	SigningMethod    string // "hs256" (default) or "ed25519"
	Secret           []byte
	PrivateKey       []byte
	PublicKey        []byte
	Issuer           string
	Audience         string
	Leeway           time.Duration
}

// AccessTTL returns the parsed access token lifetime.
func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(ParseDurationSeconds(c.AccessExpiresIn)) * time.Second
}

// RefreshTTL returns the parsed refresh token lifetime.
func (c JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(ParseDurationSeconds(c.RefreshExpiresIn)) * time.Second
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id cost parameters.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (c PasswordConfig) hasher() password.Config {
	return password.Config{
		Memory:      c.Memory,
		Time:        c.Time,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
	}
}

/*
====================================
EPHEMERAL KEYS
====================================
*/

// KeysConfig controls ephemeral key naming.
type KeysConfig struct {
	// Namespace is prepended to every key, e.g. "authcore:". Empty keeps
	// the bare otp:/refresh:/reset:/blacklist: layout.
	Namespace string
}

// ChallengeConfig holds single-use code lifetimes.
type ChallengeConfig struct {
	OTPTTL    time.Duration
	OTPDigits int
	ResetTTL  time.Duration
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds the opt-in attempt limits. Zero disables a limit.
type SecurityConfig struct {
	MaxOTPAttempts   int
	OTPAttemptWindow time.Duration
	MaxLoginAttempts int
	LoginCooldown    time.Duration
	// BlacklistFallbackTTL applies to access tokens without a readable
	// expiry. Zero means the access token lifetime, or 900s when that is
	// zero too.
	BlacklistFallbackTTL time.Duration
}

// StoreConfig tunes the Redis-backed ephemeral store created by
// Builder.WithRedis.
type StoreConfig struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	ScanCount   int64
}

func (c StoreConfig) options() ephemeral.Options {
	return ephemeral.Options{
		MaxRetries:  c.MaxRetries,
		BaseBackoff: c.BaseBackoff,
		MaxBackoff:  c.MaxBackoff,
		ScanCount:   c.ScanCount,
	}
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULTS
====================================
*/

const defaultBlacklistFallback = 900 * time.Second

// DefaultConfig returns the baseline configuration: 15m access tokens, 7d
// refresh tokens, HS256, 300s OTPs, 600s reset tickets, attempt limits off.
// JWT.Secret must still be set.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	st := ephemeral.DefaultOptions()
	return Config{
		JWT: JWTConfig{
			AccessExpiresIn:  "15m",
			RefreshExpiresIn: "7d",
			SigningMethod:    "hs256",
		},
		Password: PasswordConfig{
			Memory:      pw.Memory,
			Time:        pw.Time,
			Parallelism: pw.Parallelism,
			SaltLength:  pw.SaltLength,
			KeyLength:   pw.KeyLength,
		},
		Challenge: ChallengeConfig{
			OTPTTL:    300 * time.Second,
			OTPDigits: 6,
			ResetTTL:  600 * time.Second,
		},
		Security: SecurityConfig{
			MaxOTPAttempts:   0,
			OTPAttemptWindow: 300 * time.Second,
			MaxLoginAttempts: 0,
			LoginCooldown:    15 * time.Minute,
		},
		Store: StoreConfig{
			MaxRetries:  st.MaxRetries,
			BaseBackoff: st.BaseBackoff,
			MaxBackoff:  st.MaxBackoff,
			ScanCount:   st.ScanCount,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

// HighSecurityConfig returns DefaultConfig with attempt limits, audit and
// latency histograms turned on.
func HighSecurityConfig() Config {
	cfg := DefaultConfig()
	cfg.Security.MaxOTPAttempts = 5
	cfg.Security.MaxLoginAttempts = 5
	cfg.Audit.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (c Config) blacklistFallback() time.Duration {
	if c.Security.BlacklistFallbackTTL > 0 {
		return c.Security.BlacklistFallbackTTL
	}
	if ttl := c.JWT.AccessTTL(); ttl > 0 {
		return ttl
	}
	return defaultBlacklistFallback
}

func (c Config) signingMethod() (jwt.SigningMethod, error) {
	switch strings.ToLower(strings.TrimSpace(c.JWT.SigningMethod)) {
	case "", "hs256":
		return jwt.MethodHS256, nil
	case "ed25519":
		return jwt.MethodEd25519, nil
	default:
		return "", fmt.Errorf("unsupported JWT signing method %q", c.JWT.SigningMethod)
	}
}

func (c Config) jwtConfig() (jwt.Config, error) {
	method, err := c.signingMethod()
	if err != nil {
		return jwt.Config{}, err
	}
	cfg := jwt.Config{
		AccessTTL:     c.JWT.AccessTTL(),
		RefreshTTL:    c.JWT.RefreshTTL(),
		SigningMethod: method,
		Issuer:        c.JWT.Issuer,
		Audience:      c.JWT.Audience,
		Leeway:        c.JWT.Leeway,
	}
	if method == jwt.MethodHS256 {
		cfg.PrivateKey = c.JWT.Secret
		cfg.PublicKey = c.JWT.Secret
	} else {
		cfg.PrivateKey = c.JWT.PrivateKey
		cfg.PublicKey = c.JWT.PublicKey
	}
	return cfg, nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports configuration that cannot work. Questionable but
// workable settings, such as zero lifetimes, are left to Lint.
func (c *Config) Validate() error {
	method, err := c.signingMethod()
	if err != nil {
		return err
	}
	switch method {
	case jwt.MethodHS256:
		if len(c.JWT.Secret) == 0 {
			return errors.New("JWT Secret is required for hs256")
		}
	case jwt.MethodEd25519:
		if len(c.JWT.PrivateKey) == 0 || len(c.JWT.PublicKey) == 0 {
			return errors.New("JWT PrivateKey and PublicKey are required for ed25519")
		}
	}
	if c.JWT.Leeway < 0 {
		return errors.New("JWT Leeway must be >= 0")
	}

	if c.Challenge.OTPTTL <= 0 {
		return errors.New("Challenge OTPTTL must be > 0")
	}
	if c.Challenge.ResetTTL <= 0 {
		return errors.New("Challenge ResetTTL must be > 0")
	}
	if c.Challenge.OTPDigits < 6 || c.Challenge.OTPDigits > 10 {
		return errors.New("Challenge OTPDigits must be between 6 and 10")
	}

	if c.Security.MaxOTPAttempts < 0 || c.Security.MaxLoginAttempts < 0 {
		return errors.New("Security attempt limits must be >= 0")
	}
	if c.Security.MaxOTPAttempts > 0 && c.Security.OTPAttemptWindow <= 0 {
		return errors.New("Security OTPAttemptWindow must be > 0 when MaxOTPAttempts is set")
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LoginCooldown <= 0 {
		return errors.New("Security LoginCooldown must be > 0 when MaxLoginAttempts is set")
	}
	if c.Security.BlacklistFallbackTTL < 0 {
		return errors.New("Security BlacklistFallbackTTL must be >= 0")
	}

	if c.Store.MaxRetries < 0 {
		return errors.New("Store MaxRetries must be >= 0")
	}
	if c.Store.ScanCount < 0 {
		return errors.New("Store ScanCount must be >= 0")
	}

	if c.Audit.BufferSize < 0 {
		return errors.New("Audit BufferSize must be >= 0")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
