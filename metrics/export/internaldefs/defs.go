package internaldefs

import (
	"github.com/MrEthical07/authcore"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter exported for AuditDropped.
const AuditDroppedName = "authcore_audit_dropped_total"

var CounterDefs = []CounterDef{
	{ID: authcore.MetricRegisterSuccess, Name: "authcore_register_success_total", Help: "Successful registrations."},
	{ID: authcore.MetricRegisterConflict, Name: "authcore_register_conflict_total", Help: "Registrations rejected as duplicate."},
	{ID: authcore.MetricRegisterFailure, Name: "authcore_register_failure_total", Help: "Registrations failed for other reasons."},
	{ID: authcore.MetricOTPIssued, Name: "authcore_otp_issued_total", Help: "Verification codes issued."},
	{ID: authcore.MetricNotifyFailure, Name: "authcore_notify_failure_total", Help: "Failed OTP or reset ticket deliveries."},
	{ID: authcore.MetricOTPVerifySuccess, Name: "authcore_otp_verify_success_total", Help: "Successful OTP verifications."},
	{ID: authcore.MetricOTPVerifyFailure, Name: "authcore_otp_verify_failure_total", Help: "Failed OTP verifications."},
	{ID: authcore.MetricOTPAttemptsExceeded, Name: "authcore_otp_attempts_exceeded_total", Help: "OTP challenges burned after too many misses."},
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful logins."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed logins."},
	{ID: authcore.MetricLoginLockedOut, Name: "authcore_login_locked_out_total", Help: "Logins rejected during cooldown."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: authcore.MetricRefreshRevoked, Name: "authcore_refresh_revoked_total", Help: "Refresh tokens rejected for a stale token version."},
	{ID: authcore.MetricRefreshReuseDetected, Name: "authcore_refresh_reuse_detected_total", Help: "Replays of a spent refresh token."},
	{ID: authcore.MetricSessionCreated, Name: "authcore_session_created_total", Help: "Refresh sessions created."},
	{ID: authcore.MetricSessionsRevoked, Name: "authcore_sessions_revoked_total", Help: "Global revocations."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Logouts."},
	{ID: authcore.MetricAccessBlacklisted, Name: "authcore_access_blacklisted_total", Help: "Access tokens blacklisted at logout."},
	{ID: authcore.MetricPasswordResetRequest, Name: "authcore_password_reset_request_total", Help: "Forgot-password requests."},
	{ID: authcore.MetricPasswordResetSuccess, Name: "authcore_password_reset_success_total", Help: "Successful password resets."},
	{ID: authcore.MetricPasswordResetFailure, Name: "authcore_password_reset_failure_total", Help: "Rejected password resets."},
	{ID: authcore.MetricGuardSuccess, Name: "authcore_guard_success_total", Help: "Access tokens accepted by the guard."},
	{ID: authcore.MetricGuardRejected, Name: "authcore_guard_rejected_total", Help: "Access tokens rejected by the guard."},
	{ID: authcore.MetricDependencyFailure, Name: "authcore_dependency_failure_total", Help: "Operations failed by a store or directory outage."},
}

var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricValidateLatency, Name: "authcore_guard_latency_seconds", Help: "Access guard latency."},
}

// HistogramBounds are the upper bounds in seconds of every bucket except
// the last, which is unbounded.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, including the unbounded one, for
// exporters without native histograms.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
