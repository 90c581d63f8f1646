package authcore

import (
	"context"
	"time"
)

const (
	auditEventRegisterSuccess       = "register_success"
	auditEventRegisterFailure       = "register_failure"
	auditEventRegisterDuplicate     = "register_duplicate"
	auditEventOTPDeliveryFailed     = "otp_delivery_failed"
	auditEventOTPVerifySuccess      = "otp_verify_success"
	auditEventOTPVerifyFailure      = "otp_verify_failure"
	auditEventOTPAttemptsExceeded   = "otp_attempts_exceeded"
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventLoginLockedOut        = "login_locked_out"
	auditEventRefreshSuccess        = "refresh_success"
	auditEventRefreshInvalid        = "refresh_invalid"
	auditEventRefreshRevoked        = "refresh_revoked_version"
	auditEventRefreshReuseDetected  = "refresh_reuse_detected"
	auditEventSessionsRevoked       = "sessions_revoked"
	auditEventLogout                = "logout"
	auditEventAccessBlacklisted     = "access_token_blacklisted"
	auditEventPasswordResetRequest  = "password_reset_request"
	auditEventResetDeliveryFailed   = "password_reset_delivery_failed"
	auditEventPasswordResetConfirm  = "password_reset_confirm"
	auditEventPasswordResetRejected = "password_reset_rejected"
)

// emitAudit records one event. metadataBuilder is only called when audit is
// enabled.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["user_agent"] = ua
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		RequestID: requestIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		if kind := KindOf(err); kind != 0 {
			event.Error = kind.String()
		} else {
			event.Error = "internal_error"
		}
		event.Reason = ReasonOf(err)
	}

	e.audit.Emit(ctx, event)
}
