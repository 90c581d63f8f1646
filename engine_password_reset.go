package authcore

import (
	"context"
	"log/slog"
)

// ForgotPassword issues a reset ticket through the Notifier when req.Email
// belongs to an account. The result is {sent: true} either way, so callers
// cannot probe for accounts.
func (e *Engine) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (res ForgotPasswordResult, err error) {
	if err := e.ready(); err != nil {
		return ForgotPasswordResult{}, err
	}
	ctx, finish := e.startSpan(ctx, "ForgotPassword")
	defer func() { finish(err) }()

	out := e.flows.ForgotPassword(ctx, req.Email)
	if out.Failed() {
		ae := e.toError(out.Outcome, messages{})
		e.logFailure(ctx, "forgot_password", ae, slog.String("user_id", out.UserID))
		return ForgotPasswordResult{}, ae
	}

	e.metricInc(MetricPasswordResetRequest)
	if out.Issued {
		e.emitAudit(ctx, auditEventPasswordResetRequest, true, out.UserID, nil, nil)
	}
	if out.NotifyErr != nil {
		e.notifyFailed(ctx, auditEventResetDeliveryFailed, out.UserID, out.NotifyErr)
	}
	return ForgotPasswordResult{Sent: true}, nil
}

// ResetPassword replaces the password when req.ResetToken matches the
// stored ticket, deletes the ticket and revokes every session of the user.
// A missing account, missing ticket and wrong ticket all fail with
// KindInvalidCredential.
func (e *Engine) ResetPassword(ctx context.Context, req ResetPasswordRequest) (res ResetPasswordResult, err error) {
	if err := e.ready(); err != nil {
		return ResetPasswordResult{}, err
	}
	ctx, finish := e.startSpan(ctx, "ResetPassword")
	defer func() { finish(err) }()

	out := e.flows.ResetPassword(ctx, req.Email, req.NewPassword, req.ResetToken)
	if out.Failed() {
		ae := e.toError(out.Outcome, messages{invalidCredential: MessageInvalidResetToken})
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetRejected, false, out.UserID, ae, nil)
		e.logFailure(ctx, "reset_password", ae, slog.String("user_id", out.UserID))
		return ResetPasswordResult{}, ae
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, out.UserID, nil, nil)
	e.sessionsRevoked(ctx, out.UserID, "password_reset", out.Revoked)
	return ResetPasswordResult{Reset: true}, nil
}
