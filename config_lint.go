package authcore

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/jwt"
)

// LintSeverity ranks advisory findings.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is one advisory finding.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of findings from Config.Lint.
type LintResult []LintWarning

// Codes returns the finding codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns findings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError returns an error listing every finding at or above min, or nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, 0, len(hits))
	for _, w := range hits {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

const minSecretLength = 32

// Lint reports settings that are valid but likely wrong. It never fails;
// use AsError to turn findings into a startup error.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	access := c.JWT.AccessTTL()
	refresh := c.JWT.RefreshTTL()

	if access == 0 {
		add("access_ttl_zero", LintHigh, "access lifetime %q parses to 0s; every access token is born expired", c.JWT.AccessExpiresIn)
	} else if access > time.Hour {
		add("access_ttl_long", LintWarn, "access lifetime %s exceeds 1h; blacklist entries live as long", access)
	}
	if refresh == 0 {
		add("refresh_ttl_zero", LintHigh, "refresh lifetime %q parses to 0s; refresh tokens are unusable and their session markers never expire", c.JWT.RefreshExpiresIn)
	} else if refresh > 30*24*time.Hour {
		add("refresh_ttl_long", LintWarn, "refresh lifetime %s exceeds 30d", refresh)
	}
	if access > 0 && refresh > 0 && refresh < access {
		add("refresh_shorter_than_access", LintWarn, "refresh lifetime %s is shorter than access lifetime %s", refresh, access)
	}

	if c.JWT.Leeway > time.Minute {
		add("leeway_large", LintWarn, "JWT leeway %s exceeds 1m", c.JWT.Leeway)
	}
	if method, err := c.signingMethod(); err == nil && method == jwt.MethodHS256 {
		add("signing_hs256", LintInfo, "HS256 shares the signing secret with every verifier")
		if n := len(c.JWT.Secret); n > 0 && n < minSecretLength {
			add("secret_short", LintHigh, "HS256 secret is %d bytes; use at least %d", n, minSecretLength)
		}
	}

	if c.Password.Memory < 19*1024 {
		add("argon2_memory_low", LintWarn, "argon2 memory %d KiB is below 19 MiB", c.Password.Memory)
	}

	if c.Security.MaxOTPAttempts == 0 && c.Security.MaxLoginAttempts == 0 {
		add("attempt_limits_disabled", LintWarn, "OTP and login attempt limits are both disabled")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit events are not dispatched")
	}

	return ws
}
